package trustreg

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/tfkr-ae/trustreg/db"
	"github.com/tfkr-ae/trustreg/domain"
	"github.com/tfkr-ae/trustreg/xmlstore"
)

const (
	DriverSQLite = "sqlite" // Settings kept in a SQLite database
	DriverXML    = "xml"    // Settings kept in a NuGet.Config style XML file
)

var (
	// ErrUnknownDriver is returned when the configured store driver is not supported.
	ErrUnknownDriver = errors.New("unknown settings store driver")
)

// StoreConfig selects and locates the settings store.
type StoreConfig struct {
	Driver      string `mapstructure:"driver"`       // sqlite or xml
	Path        string `mapstructure:"path"`         // Store file, relative paths resolve against the config dir
	MachineWide bool   `mapstructure:"machine_wide"` // Open the XML file read-only
}

// Config is the registry configuration read from config.yaml in the config dir.
type Config struct {
	viper     *viper.Viper
	ConfigDir string      `mapstructure:"-"` // Current config dir
	Store     StoreConfig `mapstructure:"store"`
}

// DefaultConfigDir returns the trustreg folder under the user configuration directory.
func DefaultConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("getting user config dir : %w", err)
	}
	return filepath.Join(dir, "trustreg"), nil
}

// LoadConfig reads config.yaml from configDir, creating the directory and a default file when missing.
// Values can be overridden with TRUSTREG_ prefixed environment variables, e.g. TRUSTREG_STORE_DRIVER.
//
// Parameters:
//   - configDir: Path to the configuration directory
//
// Returns:
//   - *Config: The loaded configuration
//   - error: Error creating the directory or reading, writing or decoding the file
func LoadConfig(configDir string) (*Config, error) {
	_, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			err := os.MkdirAll(configDir, 0700)
			if err != nil {
				return nil, fmt.Errorf("creating config dir %s: %w", configDir, err)
			}
		} else {
			return nil, fmt.Errorf("checking if directory exists %s: %w", configDir, err)
		}
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.path", "trustreg.db")
	v.SetDefault("store.machine_wide", false)

	v.SetEnvPrefix("trustreg")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err = v.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			err = v.SafeWriteConfig()
			if err != nil {
				return nil, fmt.Errorf("writing config file : %w", err)
			}
		} else {
			return nil, fmt.Errorf("reading config file : %w", err)
		}
	}

	cfg := &Config{viper: v}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config to struct : %w", err)
	}
	cfg.ConfigDir = configDir
	return cfg, nil
}

// SetStore changes the configured store and writes the config file.
func (cfg *Config) SetStore(driver, path string) error {
	switch driver {
	case DriverSQLite, DriverXML:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
	cfg.viper.Set("store.driver", driver)
	cfg.viper.Set("store.path", path)
	if err := cfg.viper.WriteConfig(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	if err := cfg.viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshalling config to struct : %w", err)
	}
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// StorePath returns the configured store path, resolved against the config dir when relative.
func (cfg *Config) StorePath() string {
	if filepath.IsAbs(cfg.Store.Path) {
		return cfg.Store.Path
	}
	return filepath.Join(cfg.ConfigDir, cfg.Store.Path)
}

// OpenSettings opens the configured settings store. The returned closer releases it.
func (cfg *Config) OpenSettings() (domain.SettingsRepository, io.Closer, error) {
	switch strings.ToLower(cfg.Store.Driver) {
	case DriverSQLite:
		repo, err := db.Open(cfg.StorePath())
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store %s: %w", cfg.StorePath(), err)
		}
		return repo, repo, nil
	case DriverXML:
		var options []func(*xmlstore.Store) error
		if cfg.Store.MachineWide {
			options = append(options, xmlstore.WithMachineWide())
		}
		store, err := xmlstore.Open(cfg.StorePath(), options...)
		if err != nil {
			return nil, nil, fmt.Errorf("opening xml store %s: %w", cfg.StorePath(), err)
		}
		return store, nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Store.Driver)
	}
}
