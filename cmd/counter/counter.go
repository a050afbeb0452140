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
	"github.com/spf13/cobra"
)

const (
	DeviceOptionName  = "device"
	CounterOptionName = "counter"
)

// NewCommand creates the counter command group
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "counter",
		Short: "Operate on the multiplexed counters",
	}
	cmd.AddCommand(NewPrescalerCommand())
	return cmd
}
