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

package config

import (
	"io/ioutil"
	"net"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"
)

// Device describes one configured EVG card: its name, network endpoint
// and the frequency of its event clock in MHz. The frequency is used to
// convert between microsecond timestamps and event-clock cycles.
type Device struct {
	Name      string `json:"name"`
	IP        string `json:"ip"`
	Port      int    `json:"port"`
	Frequency int    `json:"frequency"`
}

// Validate checks the registration-time rules of a single device entry.
// Duplicate names and the device-table capacity are checked by the owner
// of the device list, see AddDevice and device.Registry.
func (d *Device) Validate() error {
	if d.Name == "" || len(d.Name) >= NameLength {
		return ErrDeviceConfig{Name: d.Name, Reason: "missing or incorrect name"}
	}
	if net.ParseIP(d.IP) == nil {
		return ErrDeviceConfig{Name: d.Name, Reason: "missing or incorrect ip"}
	}
	if d.Port <= 0 || d.Port > 65535 {
		return ErrDeviceConfig{Name: d.Name, Reason: "missing or incorrect port"}
	}
	if d.Frequency <= 0 {
		return ErrDeviceConfig{Name: d.Name, Reason: "missing or incorrect frequency"}
	}
	return nil
}

type Config struct {
	IP       string    `json:"ip,omitempty"`
	LogLevel string    `json:"log_level,omitempty"`
	Capacity int       `json:"capacity,omitempty"`
	Devices  []*Device `json:"devices"`
	filepath string
}

// AddDevice validates a device entry and appends it to the configuration.
func (c *Config) AddDevice(d *Device) error {
	if len(c.Devices) >= c.DeviceCapacity() {
		return ErrDeviceConfig{Name: d.Name, Reason: "too many devices"}
	}
	if err := d.Validate(); err != nil {
		return err
	}
	for _, existing := range c.Devices {
		if existing.Name == d.Name {
			return ErrDeviceConfig{Name: d.Name, Reason: "duplicate name"}
		}
	}
	c.Devices = append(c.Devices, d)
	return nil
}

func (c *Config) GetDeviceByName(name string) (*Device, error) {
	for _, d := range c.Devices {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, ErrDeviceNotFound{Name: name}
}

// DeviceCapacity returns the configured device-table bound, falling back
// to the historical limit of ten devices.
func (c *Config) DeviceCapacity() int {
	if c.Capacity > 0 {
		return c.Capacity
	}
	return DefaultCapacity
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(&c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	return ioutil.WriteFile(c.filepath, data, 0644)
}

func (c *Config) Load() error {
	data, err := ioutil.ReadFile(c.filepath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, ConfigFile)
}

func NewDefaultConfig() *Config {
	return &Config{
		IP:       DefaultIP,
		LogLevel: DefaultLogLevel,
		Capacity: DefaultCapacity,
		Devices: []*Device{
			{
				Name:      "EVG1",
				IP:        "192.0.2.5",
				Port:      DefaultDevicePort,
				Frequency: DefaultFrequency,
			},
		},
		filepath: DefaultConfigPath(),
	}
}

// NewConfig returns an empty configuration bound to the given file path.
func NewConfig(path string) *Config {
	return &Config{
		IP:       DefaultIP,
		LogLevel: DefaultLogLevel,
		filepath: path,
	}
}
