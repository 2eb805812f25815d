// Package cmd implements the cost-optimization-server command line: serving
// a stdio session, listing tools, seeding data blobs and printing the
// version.
package cmd

import (
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openops/cost-optimization-server/internal/config"
	"github.com/openops/cost-optimization-server/internal/observe"
	"github.com/openops/cost-optimization-server/internal/persistence"
	"github.com/openops/cost-optimization-server/internal/router"
)

// options carries state shared by every subcommand.
type options struct {
	v         *viper.Viper
	cfgFile   string
	cfg       *config.Config
	log       *slog.Logger
	transport mcp.Transport
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		return 1
	}
	return 0
}

// NewRootCommand returns the root command. Without a subcommand it serves a
// stdio session.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&options{transport: &mcp.StdioTransport{}})
}

func newRootCommand(o *options) *cobra.Command {
	o.v = config.New()

	root := &cobra.Command{
		Use:          "cost-optimization-server",
		Short:        "MCP server exposing cloud cost-optimization tools",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.load(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.serve(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&o.cfgFile, "config", "c", "", "config file (YAML or JSON); defaults to config.yaml in the data dir when present")
	flags.String("project-id", "", "project identifier reported by the tools")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.Bool("strict", false, "reject tool arguments that fail schema validation")
	flags.Duration("call-timeout", router.DefaultCallTimeout, "maximum duration of a single tool call")
	flags.String("metrics-addr", "", "address for the /healthz, /readyz and /metrics listener; empty disables it")

	_ = o.v.BindPFlag(config.KeyProjectID, flags.Lookup("project-id"))
	_ = o.v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = o.v.BindPFlag(config.KeyStrictValidation, flags.Lookup("strict"))
	_ = o.v.BindPFlag(config.KeyCallTimeout, flags.Lookup("call-timeout"))
	_ = o.v.BindPFlag(config.KeyMetricsAddr, flags.Lookup("metrics-addr"))

	root.AddCommand(
		newServeCommand(o),
		newListCommand(o),
		newSeedCommand(o),
		newVersionCommand(o),
	)
	return root
}

// load reads the config file, builds the stderr logger and resolves the
// configuration.
func (o *options) load(cmd *cobra.Command) error {
	if o.cfgFile != "" {
		if err := config.ReadFile(o.v, o.cfgFile, true); err != nil {
			return err
		}
	} else {
		layout, err := persistence.DefaultLayout()
		if err != nil {
			return err
		}
		if err := config.ReadFile(o.v, layout.ConfigPath(), false); err != nil {
			return err
		}
	}

	o.log = observe.NewLogger(cmd.ErrOrStderr(), o.v.GetString(config.KeyLogLevel))
	slog.SetDefault(o.log)

	cfg, err := config.Load(o.v, o.log)
	if err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}
