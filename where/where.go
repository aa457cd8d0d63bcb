// Package where implements a cross-platform resolver for application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/anigrab/anigrab/constant"
	"github.com/anigrab/anigrab/filesystem"
	"github.com/samber/lo"
)

// EnvConfigPath is the environment variable identifier used to override the default configuration directory.
const EnvConfigPath = "ANIGRAB_CONFIG_PATH"

// EnvDataPath overrides the directory holding checkpoints and the download queue.
const EnvDataPath = "ANIGRAB_DATA_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the absolute path to the primary application configuration directory.
// The path can be explicitly specified via the ANIGRAB_CONFIG_PATH environment variable.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.App))
}

// Cache resolves the absolute path to the application's persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.App))
}

// Data resolves the directory shared with the external download manager.
// Checkpoints and the pending-downloads queue live below it.
func Data() string {
	if custom, ok := os.LookupEnv(EnvDataPath); ok {
		return ensureDir(custom)
	}

	base, err := os.UserHomeDir()
	if err != nil {
		base = "."
	}
	return ensureDir(filepath.Join(base, constant.App))
}

// Logs resolves the absolute path to the directory used for application diagnostic logs.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Checkpoints resolves the directory holding one harvest checkpoint per series.
func Checkpoints() string {
	return ensureDir(filepath.Join(Data(), "anime"))
}

// Queue resolves the path of the pending-downloads queue file.
func Queue() string {
	return filepath.Join(ensureDir(filepath.Join(Data(), "cache")), "cache.json")
}

// Index resolves the path of the cached series listings.
func Index() string {
	return filepath.Join(Cache(), "index.json")
}

// Temp resolves a volatile filesystem path for transient application artifacts.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.App))
}
