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
	"sesame.org.jo/timing/go-evg/pkg/config"
	"sesame.org.jo/timing/go-evg/pkg/log"
)

// Registry is the bounded collection of configured devices, keyed by name.
// Devices are registered once and never removed; handles returned by Open
// are borrowed references valid for the registry's lifetime.
type Registry struct {
	capacity int
	devices  []*Device
}

// NewRegistry builds a registry from the configured device list. Every
// entry is validated as it is registered; a bad entry fails the whole
// configuration.
func NewRegistry(cfg *config.Config) (*Registry, error) {
	r := &Registry{capacity: cfg.DeviceCapacity()}
	for _, dc := range cfg.Devices {
		if err := r.Configure(dc); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Configure validates a device entry and appends it to the registry. The
// socket is not opened here, see InitializeAll. On any rejection the
// registry is left unchanged.
func (r *Registry) Configure(dc *config.Device) error {
	if len(r.devices) >= r.capacity {
		return config.ErrDeviceConfig{Name: dc.Name, Reason: "too many devices"}
	}
	if err := dc.Validate(); err != nil {
		return err
	}
	for _, d := range r.devices {
		if d.Name == dc.Name {
			return config.ErrDeviceConfig{Name: dc.Name, Reason: "duplicate name"}
		}
	}
	r.devices = append(r.devices, NewDevice(dc))
	return nil
}

// InitializeAll opens and connects the socket of every registered device.
// Failure on any device aborts initialization; that device's entry remains
// in the registry but is unusable until the process restarts.
func (r *Registry) InitializeAll() error {
	for _, d := range r.devices {
		if err := d.Init(); err != nil {
			log.Error("Unable to initialize device %s: %s", d.Name, err)
			return err
		}
	}
	return nil
}

// Open returns the device with the given name. The registry keeps
// ownership of the device.
func (r *Registry) Open(name string) (*Device, error) {
	for _, d := range r.devices {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, config.ErrDeviceNotFound{Name: name}
}

// Devices returns all registered devices in registration order.
func (r *Registry) Devices() []*Device {
	return r.devices
}

// Close releases the sockets of all initialized devices.
func (r *Registry) Close() {
	for _, d := range r.devices {
		d.Close()
	}
}
