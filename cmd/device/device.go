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
	"github.com/spf13/cobra"
)

const (
	DeviceOptionName = "device"
)

// NewCommand creates the device command group
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Operate on a whole device",
	}
	cmd.AddCommand(NewListCommand())
	cmd.AddCommand(NewSetupCommand())
	cmd.AddCommand(NewEnableCommand())
	cmd.AddCommand(NewDisableCommand())
	cmd.AddCommand(NewStatusCommand())
	cmd.AddCommand(NewFirmwareCommand())
	cmd.AddCommand(NewSwEventCommand())
	cmd.AddCommand(NewDividerCommand())
	return cmd
}
