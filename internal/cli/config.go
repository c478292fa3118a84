package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configKeys are the settings config set accepts
var configKeys = []string{"server_url", "output", "token"}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value (" + strings.Join(configKeys, ", ") + ")",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := strings.ToLower(args[0]), args[1]
			if !isConfigKey(key) {
				return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(configKeys, ", "))
			}
			if key == "output" && value != "table" && value != "json" && value != "yaml" {
				return fmt.Errorf("output must be table, json or yaml")
			}

			viper.Set(key, value)
			path, err := writeConfig()
			if err != nil {
				return err
			}
			if key == "token" {
				value = maskSecret(value)
			}
			fmt.Fprintf(stdout, "Set %s = %s (%s)\n", key, value, path)
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show all configuration values",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := map[string]string{}
			for _, key := range configKeys {
				val := viper.GetString(key)
				if key == "token" {
					val = maskSecret(val)
				}
				settings[key] = val
			}
			if used := viper.ConfigFileUsed(); used != "" {
				settings["config_file"] = used
			}

			return printOutput(settings, func() {
				keys := make([]string, 0, len(settings))
				for k := range settings {
					keys = append(keys, k)
				}
				sort.Strings(keys)

				table := NewTable("KEY", "VALUE")
				for _, k := range keys {
					table.AddRow(k, settings[k])
				}
				table.Render()
			})
		},
	}
}

func isConfigKey(key string) bool {
	for _, k := range configKeys {
		if k == key {
			return true
		}
	}
	return false
}

func maskSecret(s string) string {
	switch {
	case s == "":
		return "(not set)"
	case len(s) <= 8:
		return "********"
	default:
		return s[:4] + "..." + s[len(s)-4:]
	}
}

func saveToken(token string) error {
	viper.Set("token", token)
	_, err := writeConfig()
	return err
}

func writeConfig() (string, error) {
	path, err := configPath()
	if err != nil {
		return "", err
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}
