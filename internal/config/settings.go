package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"threadstate/internal/types"
)

const (
	defaultLogLevel      = "info"
	defaultThreadName    = "New Agent"
	defaultNameMaxRunes  = 38
	defaultSortKey       = "activity"
	defaultCommandBuffer = 64
	defaultStoreBackend  = "bbolt"
)

type CoreConfig struct {
	Logging CoreLoggingConfig `toml:"logging" json:"logging"`
	Threads CoreThreadsConfig `toml:"threads" json:"threads"`
	Engine  CoreEngineConfig  `toml:"engine" json:"engine"`
	Store   CoreStoreConfig   `toml:"store" json:"store"`

	Notifications types.NotificationSettings `toml:"notifications" json:"notifications"`
}

type CoreLoggingConfig struct {
	Level string `toml:"level" json:"level"`
}

type CoreThreadsConfig struct {
	DefaultName  string `toml:"default_name" json:"default_name"`
	NameMaxRunes int    `toml:"name_max_runes" json:"name_max_runes"`
	Sort         string `toml:"sort" json:"sort"`
}

type CoreEngineConfig struct {
	CommandBuffer int  `toml:"command_buffer" json:"command_buffer"`
	Journal       bool `toml:"journal" json:"journal"`
}

type CoreStoreConfig struct {
	Backend string `toml:"backend" json:"backend"`
	Path    string `toml:"path" json:"path"`
}

func DefaultCoreConfig() CoreConfig {
	return CoreConfig{
		Logging: CoreLoggingConfig{
			Level: defaultLogLevel,
		},
		Threads: CoreThreadsConfig{
			DefaultName:  defaultThreadName,
			NameMaxRunes: defaultNameMaxRunes,
			Sort:         defaultSortKey,
		},
		Engine: CoreEngineConfig{
			CommandBuffer: defaultCommandBuffer,
			Journal:       true,
		},
		Store: CoreStoreConfig{
			Backend: defaultStoreBackend,
		},
		Notifications: types.DefaultNotificationSettings(),
	}
}

func LoadCoreConfig() (CoreConfig, error) {
	path, err := CoreConfigPath()
	if err != nil {
		return CoreConfig{}, err
	}
	return LoadCoreConfigFromPath(path)
}

// LoadCoreConfigFromPath reads path over the defaults. A missing or empty
// file yields the defaults.
func LoadCoreConfigFromPath(path string) (CoreConfig, error) {
	cfg := DefaultCoreConfig()
	if err := readTOML(path, &cfg); err != nil {
		return CoreConfig{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Encode renders the config as TOML.
func (c CoreConfig) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

func (c CoreConfig) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return defaultLogLevel
	}
	return level
}

func (c CoreConfig) DefaultThreadName() string {
	name := strings.TrimSpace(c.Threads.DefaultName)
	if name == "" {
		return defaultThreadName
	}
	return name
}

func (c CoreConfig) NameMaxRunes() int {
	if c.Threads.NameMaxRunes <= 0 {
		return defaultNameMaxRunes
	}
	return c.Threads.NameMaxRunes
}

func (c CoreConfig) SortKey() string {
	key := strings.ToLower(strings.TrimSpace(c.Threads.Sort))
	if key == "" {
		return defaultSortKey
	}
	return key
}

func (c CoreConfig) CommandBuffer() int {
	if c.Engine.CommandBuffer <= 0 {
		return defaultCommandBuffer
	}
	return c.Engine.CommandBuffer
}

func (c CoreConfig) JournalEnabled() bool {
	return c.Engine.Journal
}

func (c CoreConfig) NotificationSettings() types.NotificationSettings {
	return types.NormalizeNotificationSettings(c.Notifications)
}

func (c CoreConfig) StoreBackend() string {
	backend := strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if backend == "" {
		return defaultStoreBackend
	}
	return backend
}

// StorePath resolves the configured database path. Relative paths are taken
// from the data directory.
func (c CoreConfig) StorePath() (string, error) {
	path := strings.TrimSpace(c.Store.Path)
	if path == "" {
		if c.StoreBackend() == "file" {
			return JournalPath()
		}
		return StorePath()
	}
	return resolveConfigPath(path)
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}

func resolveConfigPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("path is required")
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, path), nil
}
