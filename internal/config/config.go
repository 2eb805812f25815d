// Package config assembles the server configuration from defaults, an
// optional config file, environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/xeipuuv/gojsonschema"

	"github.com/openops/cost-optimization-server/internal/observe"
	"github.com/openops/cost-optimization-server/internal/persistence"
)

// Keys.
const (
	KeyProjectID        = "project_id"
	KeyCostExplorerData = "cost_explorer_data"
	KeyCostAnalysisData = "cost_analysis_data"
	KeyServerName       = "server_name"
	KeyServerVersion    = "server_version"
	KeyLogLevel         = "log_level"
	KeyStrictValidation = "strict_validation"
	KeyCallTimeout      = "call_timeout"
	KeyMetricsAddr      = "metrics_addr"
)

// Blob names in the data directory.
const (
	BlobCostExplorer = "cost_explorer"
	BlobCostAnalysis = "cost_analysis"
)

// BlobNames lists the data blobs that can be seeded.
var BlobNames = []string{BlobCostExplorer, BlobCostAnalysis}

var envNames = map[string]string{
	KeyProjectID:        "PROJECT_ID",
	KeyCostExplorerData: "COST_EXPLORER_DATA",
	KeyCostAnalysisData: "COST_ANALYSIS_DATA",
	KeyServerName:       "COSTOPT_SERVER_NAME",
	KeyServerVersion:    "COSTOPT_SERVER_VERSION",
	KeyLogLevel:         "COSTOPT_LOG_LEVEL",
	KeyStrictValidation: "COSTOPT_STRICT_VALIDATION",
	KeyCallTimeout:      "COSTOPT_CALL_TIMEOUT",
	KeyMetricsAddr:      "COSTOPT_METRICS_ADDR",
}

// Config is the resolved server configuration.
type Config struct {
	ProjectID        string
	CostExplorerData map[string]any
	CostAnalysisData map[string]any
	ServerName       string
	ServerVersion    string
	LogLevel         string
	StrictValidation bool
	CallTimeout      time.Duration
	MetricsAddr      string
}

// New returns a viper instance with defaults set and every key bound to its
// environment variable.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyProjectID, "")
	v.SetDefault(KeyServerName, "cost-optimization-server")
	v.SetDefault(KeyServerVersion, "1.0.0")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyStrictValidation, false)
	v.SetDefault(KeyCallTimeout, 30*time.Second)
	v.SetDefault(KeyMetricsAddr, "")

	for key, env := range envNames {
		_ = v.BindEnv(key, env)
	}
	return v
}

// ReadFile merges the config file at path into v. A missing file is an
// error only when required is set.
func ReadFile(v *viper.Viper, path string, required bool) error {
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !required && (errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)) {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// Load resolves v into a Config. Data blobs that are malformed degrade to an
// empty object with a warning on log.
func Load(v *viper.Viper, log *slog.Logger) (*Config, error) {
	if log == nil {
		log = slog.Default()
	}

	cfg := &Config{
		ProjectID:        v.GetString(KeyProjectID),
		ServerName:       v.GetString(KeyServerName),
		ServerVersion:    v.GetString(KeyServerVersion),
		LogLevel:         v.GetString(KeyLogLevel),
		StrictValidation: v.GetBool(KeyStrictValidation),
		CallTimeout:      v.GetDuration(KeyCallTimeout),
		MetricsAddr:      v.GetString(KeyMetricsAddr),
	}
	cfg.CostExplorerData = loadBlob(v, KeyCostExplorerData, BlobCostExplorer, log)
	cfg.CostAnalysisData = loadBlob(v, KeyCostAnalysisData, BlobCostAnalysis, log)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ServerName) == "" {
		errs = append(errs, errors.New("server_name must not be empty"))
	}
	if _, err := observe.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.CallTimeout <= 0 {
		errs = append(errs, fmt.Errorf("call_timeout must be positive, got %s", c.CallTimeout))
	}
	return errors.Join(errs...)
}

// loadBlob reads a data blob from its config value, falling back to the
// blob seeded in the data directory under name.
func loadBlob(v *viper.Viper, key, name string, log *slog.Logger) map[string]any {
	var (
		raw    []byte
		source = "env"
	)
	switch val := v.Get(key).(type) {
	case map[string]any:
		// Inline object in a config file. Viper lower-cases its keys.
		return val
	case string:
		raw = []byte(strings.TrimSpace(val))
	}

	if len(raw) == 0 {
		data, err := persistence.LoadBlob(name)
		if err != nil {
			if !errors.Is(err, persistence.ErrBlobNotFound) {
				log.Warn("cannot read seeded data blob", "blob", name, "err", err)
			}
			return map[string]any{}
		}
		raw, source = data, "data dir"
	}

	blob, err := ParseBlob(raw)
	if err != nil {
		log.Warn("ignoring malformed data blob", "key", key, "source", source, "err", err)
		return map[string]any{}
	}
	return blob
}

var objectSchema = gojsonschema.NewStringLoader(`{"type":"object"}`)

// ParseBlob decodes raw as a JSON object.
func ParseBlob(raw []byte) (map[string]any, error) {
	result, err := gojsonschema.Validate(objectSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, fmt.Errorf("not a JSON object: %s", strings.Join(msgs, ", "))
	}

	var blob map[string]any
	if err := json.Unmarshal(raw, &blob); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return blob, nil
}
