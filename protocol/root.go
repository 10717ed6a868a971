package protocol

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/datazip-inc/tap-toast/constants"
	"github.com/datazip-inc/tap-toast/drivers/abstract"
	"github.com/datazip-inc/tap-toast/telemetry"
	"github.com/datazip-inc/tap-toast/types"
	"github.com/datazip-inc/tap-toast/utils"
	"github.com/datazip-inc/tap-toast/utils/logger"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configPath    string
	catalogPath   string
	statePath     string
	noSave        bool
	encryptionKey string
	catalog       *types.Catalog
	state         *types.State

	commands  = []*cobra.Command{}
	connector *abstract.AbstractDriver
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "toast",
	Short: "Toast restaurant API connector",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// set global variables
		configFolder := utils.Ternary(configPath == "", os.TempDir(), filepath.Dir(configPath)).(string)
		viper.Set(constants.NoSave, noSave)
		viper.Set(constants.ConfigFolder, configFolder)
		viper.Set(constants.StatePath, utils.Ternary(statePath == "", filepath.Join(configFolder, "state.json"), statePath).(string))
		viper.Set(constants.MetricsPath, utils.Ternary(noSave, "", filepath.Join(configFolder, "metrics", "toast.prom")).(string))
		if encryptionKey != "" {
			viper.Set(constants.EncryptionKey, encryptionKey)
		}

		// logger uses CONFIG_FOLDER
		logger.Init()
		telemetry.Init()
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}

		if ok := utils.IsValidSubcommand(commands, args[0]); !ok {
			return fmt.Errorf("'%s' is an invalid command. Use 'toast --help' to display usage guide", args[0])
		}

		return nil
	},
}

func CreateRootCommand(_ bool, driver abstract.DriverInterface) *cobra.Command {
	if !RootCmd.HasSubCommands() {
		RootCmd.AddCommand(commands...)
	}
	connector = abstract.NewAbstractDriver(RootCmd.Context(), driver)

	return RootCmd
}

// writeMessage prints one protocol message on its own line
func writeMessage(out io.Writer, message any) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal %T: %s", message, err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func init() {
	commands = append(commands, specCmd, checkCmd, discoverCmd, syncCmd)
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "", "", "(Required) Config for connector")
	RootCmd.PersistentFlags().StringVarP(&catalogPath, "catalog", "", "", "Path to the catalog file for the connector")
	RootCmd.PersistentFlags().StringVarP(&catalogPath, "properties", "", "", "Path to the catalog file for the connector, same as --catalog")
	RootCmd.PersistentFlags().StringVarP(&statePath, "state", "", "", "(Optional) State for connector")
	RootCmd.PersistentFlags().BoolVarP(&noSave, "no-save", "", false, "(Optional) Flag to skip logging artifacts in file")
	RootCmd.PersistentFlags().StringVarP(&encryptionKey, "encryption-key", "", "", "(Optional) Decryption key. Provide the ARN of a KMS key or a passphrase for AES-GCM encrypted config files.")
	// Disable Cobra CLI's built-in usage and error handling
	RootCmd.SilenceUsage = true
	RootCmd.SilenceErrors = true
}
