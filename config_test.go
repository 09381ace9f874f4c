package trustreg

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tfkr-ae/trustreg/db"
	"github.com/tfkr-ae/trustreg/domain"
	"github.com/tfkr-ae/trustreg/xmlstore"
)

func TestLoadConfig(t *testing.T) {
	t.Run("should create the config dir and default file", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "trustreg")

		cfg, err := LoadConfig(dir)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if cfg.Store.Driver != DriverSQLite {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", DriverSQLite, cfg.Store.Driver)
		}
		if want := filepath.Join(dir, "trustreg.db"); cfg.StorePath() != want {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", want, cfg.StorePath())
		}
		if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
			t.Fatalf("\nwanted:\nconfig.yaml written\ngot:\n%v", err)
		}
	})

	t.Run("should read an existing config file", func(t *testing.T) {
		dir := t.TempDir()
		content := "store:\n  driver: xml\n  path: /etc/nuget/NuGet.Config\n  machine_wide: true\n"
		if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0600); err != nil {
			t.Fatalf("writing config: %v", err)
		}

		cfg, err := LoadConfig(dir)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		want := StoreConfig{Driver: DriverXML, Path: "/etc/nuget/NuGet.Config", MachineWide: true}
		if cfg.Store != want {
			t.Fatalf("\nwanted:\n%+v\ngot:\n%+v", want, cfg.Store)
		}
		if cfg.StorePath() != "/etc/nuget/NuGet.Config" {
			t.Fatalf("\nwanted:\n/etc/nuget/NuGet.Config\ngot:\n%s", cfg.StorePath())
		}
	})

	t.Run("should honor environment overrides", func(t *testing.T) {
		t.Setenv("TRUSTREG_STORE_DRIVER", "xml")

		cfg, err := LoadConfig(t.TempDir())
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if cfg.Store.Driver != DriverXML {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", DriverXML, cfg.Store.Driver)
		}
	})
}

func TestConfig_SetStore(t *testing.T) {
	t.Run("should persist the new store", func(t *testing.T) {
		dir := t.TempDir()
		cfg, err := LoadConfig(dir)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if err := cfg.SetStore(DriverXML, "NuGet.Config"); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		reloaded, err := LoadConfig(dir)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if reloaded.Store.Driver != DriverXML || reloaded.Store.Path != "NuGet.Config" {
			t.Fatalf("\nwanted:\nxml NuGet.Config\ngot:\n%+v", reloaded.Store)
		}
	})

	t.Run("should reject an unknown driver", func(t *testing.T) {
		cfg, err := LoadConfig(t.TempDir())
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		err = cfg.SetStore("postgres", "x")
		if !errors.Is(err, ErrUnknownDriver) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", ErrUnknownDriver, err)
		}
	})
}

func TestConfig_OpenSettings(t *testing.T) {
	tests := []struct {
		name   string
		store  StoreConfig
		assert func(t *testing.T, settings domain.SettingsRepository)
	}{
		{
			name:  "sqlite",
			store: StoreConfig{Driver: DriverSQLite, Path: "trustreg.db"},
			assert: func(t *testing.T, settings domain.SettingsRepository) {
				if _, ok := settings.(*db.Repository); !ok {
					t.Fatalf("\nwanted:\n*db.Repository\ngot:\n%T", settings)
				}
			},
		},
		{
			name:  "machine-wide xml",
			store: StoreConfig{Driver: "XML", Path: "NuGet.Config", MachineWide: true},
			assert: func(t *testing.T, settings domain.SettingsRepository) {
				store, ok := settings.(*xmlstore.Store)
				if !ok {
					t.Fatalf("\nwanted:\n*xmlstore.Store\ngot:\n%T", settings)
				}
				if !store.MachineWide {
					t.Fatalf("\nwanted:\nmachine-wide store\ngot:\nwritable store")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{ConfigDir: t.TempDir(), Store: tt.store}

			settings, closer, err := cfg.OpenSettings()
			if err != nil {
				t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
			}
			defer closer.Close()

			tt.assert(t, settings)
		})
	}

	t.Run("should reject an unknown driver", func(t *testing.T) {
		cfg := &Config{ConfigDir: t.TempDir(), Store: StoreConfig{Driver: "postgres"}}

		_, _, err := cfg.OpenSettings()
		if !errors.Is(err, ErrUnknownDriver) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", ErrUnknownDriver, err)
		}
	})
}
