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

package device

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sesame.org.jo/timing/go-evg/pkg/command"
	"sesame.org.jo/timing/go-evg/pkg/config"
)

// NewDividerCommand reads or sets the microsecond divider. With no
// argument the current value is printed.
func NewDividerCommand() *cobra.Command {
	var device string
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "divider [VALUE]",
		Short: "Show or set the microsecond divider",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			if len(args) == 0 {
				divider, err := apiClient.GetDivider(device)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), divider)
				return nil
			}
			divider, err := strconv.ParseUint(args[0], 0, 16)
			if err != nil {
				return err
			}
			return apiClient.SetDivider(device, uint32(divider))
		},
	}
	cmd.Flags().StringVar(&device, DeviceOptionName, "", "Device name")
	cmd.MarkFlagRequired(DeviceOptionName)
	return cmd
}
