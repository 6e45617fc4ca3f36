package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/ghextract/internal/constants"
)

// ErrUnknownConfigKey is returned by "config set" for keys it does not manage.
var ErrUnknownConfigKey = constants.ErrUnknownConfigKey

// settingKeys are the keys shown by "config show" and accepted by "config set".
var settingKeys = []string{
	"hostname",
	"base-url",
	"token",
	"user-agent",
	"page-size",
	"max-retries",
	"max-retry-wait",
	"rate-limit",
	"max-pages",
	"concurrency",
	"redis-addr",
	"redis-key",
	"output",
	"sink",
	"output-file",
	"nats-url",
	"nats-subject",
	"audit.enterprise",
	"audit.date_mode",
}

var secretKeys = []string{"token"}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and update the ghextract configuration file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigPathCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration from flags, environment and config file, with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := effectiveSettings(viper.GetString)

			done, err := encode(cmd.OutOrStdout(), settings)
			if done || err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Property", "Value")

			for _, key := range settingKeys {
				value := settings[key]
				if value == "" {
					value = constants.None
				}

				_ = table.Append([]string{key, value})
			}

			err = table.Render()
			if err != nil {
				return fmt.Errorf("failed to render table: %w", err)
			}

			return nil
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value in the config file",
		Args:  cobra.ExactArgs(2), //nolint:mnd // key and value
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			if !slices.Contains(settingKeys, key) {
				return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
			}

			path, err := configFilePath()
			if err != nil {
				return err
			}

			err = updateConfigFile(path, key, value)
			if err != nil {
				return err
			}

			shown := value
			if slices.Contains(secretKeys, key) {
				shown = constants.MaskedSecret
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", key, shown, path)

			return nil
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath()
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)

			return nil
		},
	}
}

// effectiveSettings resolves every setting key through get, masking secrets.
func effectiveSettings(get func(string) string) map[string]string {
	settings := make(map[string]string, len(settingKeys))

	for _, key := range settingKeys {
		value := get(key)
		if value != "" && slices.Contains(secretKeys, key) {
			value = constants.MaskedSecret
		}

		settings[key] = value
	}

	return settings
}

func configFilePath() (string, error) {
	if path := viper.ConfigFileUsed(); path != "" {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".ghextract", "config.yml"), nil
}

// updateConfigFile sets key in the YAML file at path, creating it when
// missing. Dotted keys address nested sections.
func updateConfigFile(path, key, value string) error {
	document := map[string]any{}

	// path is either the config file viper already loaded or one under the
	// user's home directory.
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if len(data) > 0 {
		err = yaml.Unmarshal(data, &document)
		if err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	setNested(document, strings.Split(key, "."), value)

	out, err := yaml.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	err = os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	err = os.WriteFile(path, out, constants.OutputFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func setNested(document map[string]any, path []string, value string) {
	for _, section := range path[:len(path)-1] {
		next, ok := document[section].(map[string]any)
		if !ok {
			next = map[string]any{}
			document[section] = next
		}

		document = next
	}

	document[path[len(path)-1]] = value
}
