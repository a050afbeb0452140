/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package clock

import (
	"fmt"

	"github.com/spf13/cobra"

	"sesame.org.jo/timing/go-evg/pkg/command"
	"sesame.org.jo/timing/go-evg/pkg/config"
)

// NewSyncCommand shows or sets AC synchronization. With no argument the
// current state is printed.
func NewSyncCommand() *cobra.Command {
	var device string
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "sync [on|off]",
		Short: "Show or set AC synchronization",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			if len(args) == 0 {
				enabled, err := apiClient.GetAcSync(device)
				if err != nil {
					return err
				}
				if enabled {
					fmt.Fprintln(cmd.OutOrStdout(), "on")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "off")
				}
				return nil
			}
			switch args[0] {
			case "on":
				return apiClient.SetAcSync(device, true)
			case "off":
				return apiClient.SetAcSync(device, false)
			default:
				return fmt.Errorf("Unknown sync state: %s", args[0])
			}
		},
	}
	cmd.Flags().StringVar(&device, DeviceOptionName, "", "Device name")
	cmd.MarkFlagRequired(DeviceOptionName)
	return cmd
}
