// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Key files the pipeline reads. Unknown files are loaded too but only
// these have typed accessors.
const (
	keyGraphToken = "graph-token"
	keyTessdata   = "tessdata-dir"
)

// Secrets maps key file names to their trimmed contents.
type Secrets map[string]string

// GraphToken returns the Microsoft Graph bearer token. A non-empty override
// (environment or config file) wins over the key file.
func (s Secrets) GraphToken(override string) string {
	return s.value(keyGraphToken, override)
}

// TessdataDir returns the tesseract language-data directory, if configured.
func (s Secrets) TessdataDir(override string) string {
	return s.value(keyTessdata, override)
}

func (s Secrets) value(key, override string) string {
	if override != "" {
		return override
	}
	return s[key]
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Secrets)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}
