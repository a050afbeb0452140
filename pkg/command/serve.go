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

package command

import (
	"context"

	"sesame.org.jo/timing/go-evg/pkg/config"
	"sesame.org.jo/timing/go-evg/pkg/device"
	"sesame.org.jo/timing/go-evg/pkg/srv"
)

// StartServer builds the device registry from the configuration, opens the
// device sockets and serves the API until the listener fails.
func StartServer(cfg *config.Config) error {
	ctx := context.Background()

	registry, err := device.NewRegistry(cfg)
	if err != nil {
		return err
	}
	if err := registry.InitializeAll(); err != nil {
		return err
	}
	defer registry.Close()

	s, err := srv.NewApiServer(ctx, cfg, registry)
	if err != nil {
		return err
	}
	return s.Run()
}
