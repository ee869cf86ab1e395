package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/pantry/internal/logging"
	"github.com/mesh-intelligence/pantry/internal/paths"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "PANTRY"

	cfgKeyBackend         = "backend"
	cfgKeyDataDir         = "data_dir"
	cfgKeyLogLevel        = "log_level"
	cfgKeyRefreshInterval = "refresh_interval"
	cfgKeyProduct         = "product"

	defaultRefreshInterval = time.Hour
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# pantry configuration

# Storage backend
backend: sqlite

# Data directory (optional; overridable by --data-dir)
# data_dir:

# Log level: debug, info, warn, error
log_level: info

# How often "pantry status --watch" refreshes
refresh_interval: 1h
`

// settings is the resolved configuration.
type settings struct {
	Backend         string
	DataDir         string
	LogLevel        string
	RefreshInterval time.Duration
	Legacy          *types.Product // single-product block from older configs
}

// loadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// loadSettings reads config.yaml from configDir, creating the directory and
// a default file on first run. PANTRY_* environment variables override
// file values.
func loadSettings(configDir string) (*settings, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(paths.ConfigFile(configDir)); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyLogLevel, logging.DefaultLevel)
	v.SetDefault(cfgKeyRefreshInterval, defaultRefreshInterval)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	s := &settings{
		Backend:         v.GetString(cfgKeyBackend),
		DataDir:         v.GetString(cfgKeyDataDir),
		LogLevel:        v.GetString(cfgKeyLogLevel),
		RefreshInterval: v.GetDuration(cfgKeyRefreshInterval),
	}
	if s.RefreshInterval <= 0 {
		s.RefreshInterval = defaultRefreshInterval
	}

	legacy, err := legacyProduct(v)
	if err != nil {
		return nil, err
	}
	s.Legacy = legacy
	return s, nil
}

// legacyProduct decodes the optional "product" block through the same
// record format products.jsonl uses.
func legacyProduct(v *viper.Viper) (*types.Product, error) {
	if !v.IsSet(cfgKeyProduct) {
		return nil, nil
	}
	block := v.GetStringMap(cfgKeyProduct)
	for k, val := range block {
		// YAML may resolve an unquoted date to a timestamp.
		if t, ok := val.(time.Time); ok {
			block[k] = types.FormatDate(t)
		}
	}
	raw, err := json.Marshal(block)
	if err != nil {
		return nil, fmt.Errorf("encode legacy product: %w", err)
	}
	var p types.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode legacy product: %w", err)
	}
	if p.ProductID == "" {
		p.ProductID = types.ProductIDFromName(p.Name)
	}
	if p.ProductID == "" {
		return nil, nil
	}
	return &p, nil
}

// ensureDefaultConfigFile writes defaultConfigYAML to path if no file is
// there yet.
func ensureDefaultConfigFile(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
