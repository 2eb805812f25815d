package persistence

import (
	"fmt"
	"os"
	"path/filepath"
)

// DataDirEnv names the environment variable that relocates the data
// directory.
const DataDirEnv = "COSTOPT_DATA_DIR"

const (
	defaultDirName = ".cost-optimization-server"
	blobsDirName   = "blobs"
	configFileName = "config.yaml"
)

// Layout places the server's on-disk state under a single root: the optional
// config file beside a blobs/ directory holding one JSON file per seeded
// blob. Nothing is created until a blob is written.
type Layout struct {
	Root string
}

// DefaultLayout roots the layout at $COSTOPT_DATA_DIR, or at
// ~/.cost-optimization-server when the variable is unset.
func DefaultLayout() (Layout, error) {
	if root := os.Getenv(DataDirEnv); root != "" {
		return Layout{Root: root}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return Layout{}, fmt.Errorf("resolve data dir: %w", err)
	}
	return Layout{Root: filepath.Join(home, defaultDirName)}, nil
}

// ConfigPath is where an implicit config file is looked up.
func (l Layout) ConfigPath() string { return filepath.Join(l.Root, configFileName) }

// BlobsDir holds the seeded blobs.
func (l Layout) BlobsDir() string { return filepath.Join(l.Root, blobsDirName) }

func (l Layout) blobFile(name string) string {
	return filepath.Join(l.BlobsDir(), name+".json")
}
