// Package paths resolves where pantry keeps its configuration and data.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user platform directories.
const AppName = "pantry"

// Directory and file names.
const (
	DefaultDataDirName = ".pantry-db"
	ConfigFileName     = "config.yaml"
	EnvFileName        = ".env"
	LegacyMarkerName   = ".legacy-imported"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "PANTRY_CONFIG_DIR"
	EnvDataDir   = "PANTRY_DATA_DIR"
)

// platformDir holds platform lookups; tests swap them out.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// DefaultConfigDir returns the per-user configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/pantry (fallback ~/.config/pantry)
// macOS:   ~/Library/Application Support/pantry
// Windows: %APPDATA%/pantry
func DefaultConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the per-user data directory.
//
// Linux:   $XDG_DATA_HOME/pantry (fallback ~/.local/share/pantry)
// Others:  same as DefaultConfigDir
func DefaultDataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, homeRel string) (string, error) {
	if platformDir.goos != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, AppName), nil
}

// ResolveConfigDir applies flag > PANTRY_CONFIG_DIR > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir applies flag > config data_dir > PANTRY_DATA_DIR >
// $(CWD)/.pantry-db. The per-user DefaultDataDir is not part of the chain;
// a working-directory store keeps separate households apart.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, v := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ConfigFile returns the config.yaml path inside configDir.
func ConfigFile(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}

// EnvFile returns the .env path in the working directory, or "" if the
// working directory is unknown.
func EnvFile() string {
	cwd, err := platformDir.getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, EnvFileName)
}
