package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"routinetimer/internal/config"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

const (
	configFormatJSON = "json"
	configFormatTOML = "toml"
)

type configOutput struct {
	CoreConfigPath string            `json:"core_config_path" toml:"core_config_path"`
	DataDir        string            `json:"data_dir" toml:"data_dir"`
	BaseURL        string            `json:"base_url" toml:"base_url"`
	Config         config.CoreConfig `json:"config" toml:"config"`
}

func newConfigCommand(wiring commandWiring) *cobra.Command {
	var defaults bool
	var format string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print configuration (effective or defaults)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveConfigFormat(format)
			if err != nil {
				return err
			}
			payload, err := buildConfigOutput(defaults)
			if err != nil {
				return err
			}
			return writeConfigOutput(wiring.stdout, resolved, payload)
		},
	}
	cmd.Flags().BoolVar(&defaults, "defaults", false, "print default config values")
	cmd.Flags().StringVar(&format, "format", configFormatTOML, "output format: toml|json")
	return cmd
}

func buildConfigOutput(defaults bool) (configOutput, error) {
	path, err := config.CoreConfigPath()
	if err != nil {
		return configOutput{}, err
	}
	dataDir, err := config.DataDir()
	if err != nil {
		return configOutput{}, err
	}
	cfg := config.DefaultCoreConfig()
	if !defaults {
		cfg, err = config.LoadCoreConfig()
		if err != nil {
			return configOutput{}, err
		}
	}
	return configOutput{
		CoreConfigPath: path,
		DataDir:        dataDir,
		BaseURL:        cfg.DaemonBaseURL(),
		Config:         cfg,
	}, nil
}

func resolveConfigFormat(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", configFormatTOML:
		return configFormatTOML, nil
	case configFormatJSON:
		return configFormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want toml or json)", raw)
	}
}

func writeConfigOutput(out io.Writer, format string, payload any) error {
	switch format {
	case configFormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
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
