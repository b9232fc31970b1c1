package config

import (
	"errors"
	"os"
	"path/filepath"
)

const FileName = "config.yml"

// EnsureUserConfig returns the config path inside dataDir, writing the
// defaults there first if the file does not exist yet.
func EnsureUserConfig(dataDir string) (string, error) {
	userPath := filepath.Join(dataDir, FileName)

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	cfg := Default()
	cfg.App.DataDir = dataDir
	if err := SaveAtomic(userPath, cfg); err != nil {
		return "", err
	}
	return userPath, nil
}
