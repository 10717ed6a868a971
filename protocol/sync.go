/*
 * Copyright 2025 Olake By Datazip
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package protocol

import (
	"fmt"
	"time"

	"github.com/datazip-inc/tap-toast/constants"
	"github.com/datazip-inc/tap-toast/destination"
	"github.com/datazip-inc/tap-toast/telemetry"
	"github.com/datazip-inc/tap-toast/types"
	"github.com/datazip-inc/tap-toast/utils"
	"github.com/datazip-inc/tap-toast/utils/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// syncCmd extracts every selected stream and writes singer messages to stdout
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Toast sync command",
	Long:  `Sync command reads every selected stream of the catalog and writes SCHEMA, RECORD and STATE messages to stdout`,
	Example: `
// Base command:
toast sync --config path/to/config --catalog path/to/catalog

// With State:
toast sync --config path/to/config --catalog path/to/catalog --state /path/to/state
`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		if configPath == "" {
			return fmt.Errorf("--config not passed")
		} else if catalogPath == "" {
			return fmt.Errorf("--catalog not passed")
		}

		if err := utils.UnmarshalFile(configPath, connector.GetConfigRef(), true); err != nil {
			return err
		}

		catalog = &types.Catalog{}
		if err := utils.UnmarshalFile(catalogPath, catalog, false); err != nil {
			return err
		}

		state = types.NewState()
		if statePath != "" {
			if err := utils.UnmarshalFile(statePath, state, false); err != nil {
				return err
			}
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetRunID(utils.ULID())
		startTime := time.Now()

		if err := connector.Setup(cmd.Context()); err != nil {
			return err
		}
		connector.SetupState(state)

		pool, err := destination.NewWriter(types.Singer, cmd.OutOrStdout())
		if err != nil {
			return err
		}

		syncErr := connector.Sync(cmd.Context(), pool, catalog)
		telemetry.TrackSyncResult(syncErr == nil, time.Since(startTime))
		closeErr := utils.ErrExecSequential(pool.Close, func() error {
			return telemetry.Flush(viper.GetString(constants.MetricsPath))
		})
		if syncErr != nil {
			return syncErr
		}
		if closeErr != nil {
			return closeErr
		}

		logger.Infof("Total records read: %d", pool.TotalRecords())
		return nil
	},
}
