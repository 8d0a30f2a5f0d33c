package main

import (
	"errors"
	"flag"
	"io"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"threadstate/internal/config"
)

type ConfigCommand struct {
	stdout     io.Writer
	stderr     io.Writer
	loadConfig func() (config.CoreConfig, error)
}

const (
	configFormatJSON = "json"
	configFormatTOML = "toml"
)

type configOutput struct {
	CoreConfigPath string            `json:"core_config_path,omitempty" toml:"core_config_path,omitempty"`
	DataDir        string            `json:"data_dir,omitempty" toml:"data_dir,omitempty"`
	StorePath      string            `json:"store_path,omitempty" toml:"store_path,omitempty"`
	Config         config.CoreConfig `json:"config" toml:"config"`
}

func NewConfigCommand(stdout, stderr io.Writer, loadConfig func() (config.CoreConfig, error)) *ConfigCommand {
	if loadConfig == nil {
		loadConfig = config.LoadCoreConfig
	}
	return &ConfigCommand{
		stdout:     stdout,
		stderr:     stderr,
		loadConfig: loadConfig,
	}
}

func (c *ConfigCommand) Run(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	defaults := fs.Bool("default", false, "print default config values")
	format := fs.String("format", configFormatJSON, "output format: json|toml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	resolvedFormat, err := resolveConfigFormat(*format)
	if err != nil {
		return err
	}
	payload, err := c.buildOutput(*defaults)
	if err != nil {
		return err
	}
	return writeConfigOutput(c.stdout, resolvedFormat, payload)
}

func (c *ConfigCommand) buildOutput(defaults bool) (configOutput, error) {
	cfg := config.DefaultCoreConfig()
	if !defaults {
		loaded, err := c.loadConfig()
		if err != nil {
			return configOutput{}, err
		}
		cfg = loaded
	}
	cfg.Notifications = cfg.NotificationSettings()
	out := configOutput{Config: cfg}
	var err error
	if out.CoreConfigPath, err = config.CoreConfigPath(); err != nil {
		return configOutput{}, err
	}
	if out.DataDir, err = config.DataDir(); err != nil {
		return configOutput{}, err
	}
	if out.StorePath, err = cfg.StorePath(); err != nil {
		return configOutput{}, err
	}
	return out, nil
}

func resolveConfigFormat(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", configFormatJSON:
		return configFormatJSON, nil
	case configFormatTOML:
		return configFormatTOML, nil
	default:
		return "", errors.New("unsupported format: " + raw)
	}
}

func writeConfigOutput(out io.Writer, format string, payload any) error {
	switch format {
	case configFormatJSON:
		return writeJSON(out, payload)
	case configFormatTOML:
		data, err := toml.Marshal(payload)
		if err != nil {
			return err
		}
		if len(data) == 0 || data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		_, err = out.Write(data)
		return err
	default:
		return errors.New("unsupported format")
	}
}
