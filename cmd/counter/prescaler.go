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

package counter

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sesame.org.jo/timing/go-evg/pkg/command"
	"sesame.org.jo/timing/go-evg/pkg/config"
)

// NewPrescalerCommand shows or sets a multiplexed counter prescaler. With
// no argument the current value is printed.
func NewPrescalerCommand() *cobra.Command {
	var device string
	var counter int
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "prescaler [VALUE]",
		Short: "Show or set a multiplexed counter prescaler",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			if len(args) == 0 {
				prescaler, err := apiClient.GetCounterPrescaler(device, counter)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), prescaler)
				return nil
			}
			prescaler, err := strconv.ParseUint(args[0], 0, 32)
			if err != nil {
				return err
			}
			return apiClient.SetCounterPrescaler(device, counter, uint32(prescaler))
		},
	}
	cmd.Flags().StringVar(&device, DeviceOptionName, "", "Device name")
	cmd.Flags().IntVar(&counter, CounterOptionName, 0, "Counter number: 0 through 7")
	cmd.MarkFlagRequired(DeviceOptionName)
	return cmd
}
