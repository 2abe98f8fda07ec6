package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath names an explicit config file
	EnvConfigPath = "TRIVIA_CONFIG"
	// ConfigFileName is looked up in the working directory
	ConfigFileName = "triviamirror.yaml"

	appDir        = "triviamirror"
	appConfigFile = "config.yaml"
)

// SearchPaths lists the config file candidates in the order Load tries them.
// Locations that cannot be resolved, such as the home file with HOME unset,
// are left out.
func SearchPaths() []string {
	var paths []string
	if p := os.Getenv(EnvConfigPath); p != "" {
		paths = append(paths, p)
	}
	if abs, err := filepath.Abs(ConfigFileName); err == nil {
		paths = append(paths, abs)
	} else {
		paths = append(paths, ConfigFileName)
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", appDir, appConfigFile))
	}
	return append(paths, filepath.Join("/etc", appDir, appConfigFile))
}

// FindConfigPath returns the first search path holding a regular file, or ""
func FindConfigPath() string {
	for _, p := range SearchPaths() {
		if isFile(p) {
			return p
		}
	}
	return ""
}

// EnsureConfigDir creates the directory that will hold configPath
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
