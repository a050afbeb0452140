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

	"github.com/spf13/cobra"

	"sesame.org.jo/timing/go-evg/pkg/command"
	"sesame.org.jo/timing/go-evg/pkg/config"
)

// NewSourceCommand shows or selects the trigger source of a sequencer.
// With no argument the current source is printed.
func NewSourceCommand() *cobra.Command {
	var device string
	var seq int
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "source [soft|ac]",
		Short: "Show or select a sequencer trigger source",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			if len(args) == 0 {
				source, err := apiClient.GetSeqSource(device, seq)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), source)
				return nil
			}
			return apiClient.SetSeqSource(device, seq, args[0])
		},
	}
	cmd.Flags().StringVar(&device, DeviceOptionName, "", "Device name")
	cmd.Flags().IntVar(&seq, SeqOptionName, 0, "Sequencer number: 0 or 1")
	cmd.MarkFlagRequired(DeviceOptionName)
	return cmd
}
