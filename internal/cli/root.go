package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/imovlocal/backend/pkg/client"
)

const configName = ".imovlocal"

var (
	cfgFile      string
	outputFormat string
	serverURL    string
	apiClient    *client.Client
)

var rootCmd = &cobra.Command{
	Use:   "imovlocal",
	Short: "ImovLocal CLI - opportunity board, notifications and plan payments",
	Long: `ImovLocal CLI provides command-line access to the ImovLocal marketplace:
browse and answer opportunity board demands, read notifications, pay for plans
with PIX and, for admins, review receipts, broadcast announcements and run
the plan expiration sweep.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// persistentPreRun is attached to rootCmd in init to avoid an
// initialization cycle through commandGroup.
func persistentPreRun(cmd *cobra.Command, args []string) error {
	switch commandGroup(cmd) {
	case "config", "admin", "help", "completion":
		return nil
	case "plans":
		return initClient()
	}
	return initAuthenticatedClient()
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentPreRunE = persistentPreRun
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.imovlocal.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (overrides config)")

	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newPlansCmd())
	rootCmd.AddCommand(newDemandCmd())
	rootCmd.AddCommand(newNotificationCmd())
	rootCmd.AddCommand(newPaymentCmd())
	rootCmd.AddCommand(newAdminCmd())
	rootCmd.AddCommand(newSchedulerCmd())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("IMOVLOCAL")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("server_url", "http://localhost:8080")
	viper.SetDefault("output", "table")

	_ = viper.ReadInConfig()
}

// configPath is where config set writes
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	if used := viper.ConfigFileUsed(); used != "" {
		return used, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configName+".yaml"), nil
}

// commandGroup returns the top-level command cmd belongs to
func commandGroup(cmd *cobra.Command) string {
	for cmd.HasParent() && cmd.Parent() != rootCmd {
		cmd = cmd.Parent()
	}
	return cmd.Name()
}

func initClient() error {
	url := viper.GetString("server_url")
	if serverURL != "" {
		url = serverURL
	}

	apiClient = client.NewClient(client.Config{
		BaseURL: url,
	})
	return nil
}

func initAuthenticatedClient() error {
	if err := initClient(); err != nil {
		return err
	}

	token := viper.GetString("token")
	if token == "" {
		return fmt.Errorf("not authenticated. Run 'imovlocal config set token <access-token>' first")
	}

	apiClient.SetToken(token)
	return nil
}

func getOutputFormat() string {
	if outputFormat != "" {
		return outputFormat
	}
	return viper.GetString("output")
}
