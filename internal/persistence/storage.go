// Package persistence stores pre-seeded cost data blobs as JSON files under
// the data directory.
package persistence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
)

// ErrBlobNotFound is returned when no blob has been seeded under a name.
var ErrBlobNotFound = errors.New("blob not found")

// SaveBlob stores data under name. data must be valid JSON; it is written
// indented.
func SaveBlob(name string, data []byte) error {
	if err := validateBlobName(name); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return fmt.Errorf("blob %s is not valid JSON: %w", name, err)
	}
	buf.WriteByte('\n')

	layout, err := DefaultLayout()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(layout.BlobsDir(), 0755); err != nil {
		return fmt.Errorf("failed to create blobs directory: %w", err)
	}
	if err := os.WriteFile(layout.blobFile(name), buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write blob file: %w", err)
	}

	return nil
}

// LoadBlob returns the raw JSON stored under name. It returns an error
// wrapping ErrBlobNotFound when nothing has been seeded.
func LoadBlob(name string) ([]byte, error) {
	if err := validateBlobName(name); err != nil {
		return nil, err
	}

	layout, err := DefaultLayout()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(layout.blobFile(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, name)
		}
		return nil, fmt.Errorf("failed to read blob file: %w", err)
	}

	return data, nil
}

// ListBlobs returns the names of all seeded blobs, sorted. A data dir that
// was never seeded lists nothing.
func ListBlobs() ([]string, error) {
	layout, err := DefaultLayout()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(layout.BlobsDir())
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blobs directory: %w", err)
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)

	return names, nil
}

// DeleteBlob removes the blob stored under name
func DeleteBlob(name string) error {
	if err := validateBlobName(name); err != nil {
		return err
	}

	layout, err := DefaultLayout()
	if err != nil {
		return err
	}
	if err := os.Remove(layout.blobFile(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrBlobNotFound, name)
		}
		return fmt.Errorf("failed to delete blob: %w", err)
	}

	return nil
}

// validateBlobName ensures the blob name is safe for filesystem use
func validateBlobName(name string) error {
	if name == "" {
		return fmt.Errorf("blob name cannot be empty")
	}

	if len(name) > 100 {
		return fmt.Errorf("blob name too long (max 100 characters)")
	}

	unsafe := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|", "..", " "}
	for _, char := range unsafe {
		if strings.Contains(name, char) {
			return fmt.Errorf("blob name contains invalid character: %s", char)
		}
	}

	return nil
}
