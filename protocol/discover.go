package protocol

import (
	"fmt"

	"github.com/datazip-inc/tap-toast/utils"
	"github.com/datazip-inc/tap-toast/utils/logger"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// discoverCmd prints the catalog of every stream the connector offers
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "discover command",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		if configPath == "" {
			return fmt.Errorf("--config not passed")
		}

		return utils.UnmarshalFile(configPath, connector.GetConfigRef(), true)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := connector.Setup(cmd.Context()); err != nil {
			return err
		}

		catalog, err := connector.Discover(cmd.Context())
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(catalog, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal catalog: %s", err)
		}
		logger.Infof("Discovered %d streams", len(catalog.Streams))
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}
