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

package seq

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sesame.org.jo/timing/go-evg/pkg/command"
	"sesame.org.jo/timing/go-evg/pkg/config"
)

// NewTimestampCommand shows or writes the timestamp at a sequencer RAM
// address, in microseconds. With only the address the current timestamp
// is printed.
func NewTimestampCommand() *cobra.Command {
	var device string
	var seq int
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "timestamp ADDR [USEC]",
		Short: "Show or write an event timestamp in sequencer RAM",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			apiClient := command.NewApiClient(cfg)
			if len(args) == 1 {
				timestamp, err := apiClient.GetTimestamp(device, seq, addr)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%g\n", timestamp)
				return nil
			}
			timestamp, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return err
			}
			return apiClient.SetTimestamp(device, seq, addr, timestamp)
		},
	}
	cmd.Flags().StringVar(&device, DeviceOptionName, "", "Device name")
	cmd.Flags().IntVar(&seq, SeqOptionName, 0, "Sequencer number: 0 or 1")
	cmd.MarkFlagRequired(DeviceOptionName)
	return cmd
}
