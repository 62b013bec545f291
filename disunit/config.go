package disunit

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/disgoorg/disunit/disunit/database"
	"github.com/disgoorg/disunit/disunit/guard"
	"github.com/disgoorg/disunit/disunit/loader"
	"github.com/disgoorg/disunit/disunit/logger"
	"github.com/disgoorg/disunit/disunit/manager"
)

const (
	SourceFile   = "file"
	SourceSpaces = "spaces"
)

// LoadConfig decodes the toml file at path, then applies environment overrides. A .env file
// next to the config, if any, is loaded into the environment first without replacing
// variables that are already set.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	cfg := DefaultConfig()
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	dotenv := filepath.Join(filepath.Dir(path), ".env")
	if err = godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", dotenv, err)
	}
	if err = env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func DefaultConfig() Config {
	return Config{
		Log: logger.Config{
			Format:    "color",
			MaxSizeMB: 50,
			MaxAgeDay: 14,
		},
		Units: UnitsConfig{
			Source: SourceFile,
			Roots: manager.Roots{
				Slash:       "units/slash",
				ContextMenu: "units/context",
				Events:      "units/events",
			},
			CacheSize:   256,
			Concurrency: 8,
			DebounceMS:  300,
		},
		DB: database.DBConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "disunit",
			PoolSize: 10,
		},
	}
}

type Config struct {
	Log    logger.Config           `toml:"log"`
	Bot    BotConfig               `toml:"bot"`
	Units  UnitsConfig             `toml:"units"`
	Spaces loader.SpacesConfig     `toml:"spaces"`
	DB     database.DBConfig       `toml:"db"`
	Access guard.StaticEnvironment `toml:"access"`
}

type BotConfig struct {
	Token             string         `toml:"token" env:"DISUNIT_TOKEN"`
	ApplicationID     snowflake.ID   `toml:"application_id"`
	DevGuilds         []snowflake.ID `toml:"dev_guilds"`
	DeployConcurrency int            `toml:"deploy_concurrency"`
}

type UnitsConfig struct {
	// Source is "file" or "spaces".
	Source      string        `toml:"source" env:"DISUNIT_UNITS_SOURCE"`
	Roots       manager.Roots `toml:"roots"`
	CacheSize   int           `toml:"cache_size"`
	Concurrency int           `toml:"concurrency"`
	Watch       bool          `toml:"watch"`
	DebounceMS  int           `toml:"debounce_ms"`
}

func (c Config) Validate() error {
	switch c.Units.Source {
	case SourceFile, SourceSpaces:
	default:
		return fmt.Errorf("units.source must be %q or %q, got %q", SourceFile, SourceSpaces, c.Units.Source)
	}
	if c.Units.Source == SourceSpaces && c.Spaces.Bucket == "" {
		return errors.New("spaces.bucket is required when units.source is \"spaces\"")
	}
	if c.Units.Watch && c.Units.Source != SourceFile {
		return errors.New("units.watch only works with the file source")
	}
	return nil
}
