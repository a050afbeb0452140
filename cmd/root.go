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

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"sesame.org.jo/timing/go-evg/cmd/clock"
	"sesame.org.jo/timing/go-evg/cmd/completion"
	"sesame.org.jo/timing/go-evg/cmd/config"
	"sesame.org.jo/timing/go-evg/cmd/counter"
	"sesame.org.jo/timing/go-evg/cmd/device"
	"sesame.org.jo/timing/go-evg/cmd/reg"
	"sesame.org.jo/timing/go-evg/cmd/seq"
	"sesame.org.jo/timing/go-evg/cmd/serve"
	pkgconfig "sesame.org.jo/timing/go-evg/pkg/config"
	"sesame.org.jo/timing/go-evg/pkg/log"
)

const (
	LogLevelOptionName = "log-level"
)

func NewRootCommand(out io.Writer) *cobra.Command {
	var logLevel string
	cfg := pkgconfig.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "go-evg",
		Short: "Tool to work with VME-EVG-230/RF timing cards",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			log.Init(cmd.ErrOrStderr(), cfg.LogLevel)
		},
	}
	cmd.SetOut(out)
	cmd.AddCommand(config.NewCommand())
	cmd.AddCommand(serve.NewCommand())
	cmd.AddCommand(device.NewCommand())
	cmd.AddCommand(clock.NewCommand())
	cmd.AddCommand(seq.NewCommand())
	cmd.AddCommand(counter.NewCommand())
	cmd.AddCommand(reg.NewCommand())
	cmd.AddCommand(completion.NewCommand())
	cmd.PersistentFlags().StringVar(&logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", log.HelpLevels))
	return cmd
}
