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
	"path/filepath"
	"strings"
	"testing"
)

func validDevice() *Device {
	return &Device{Name: "EVG1", IP: "192.0.2.5", Port: 2000, Frequency: 125}
}

func TestDeviceValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Device)
		ok     bool
	}{
		{"valid", func(d *Device) {}, true},
		{"empty name", func(d *Device) { d.Name = "" }, false},
		{"name too long", func(d *Device) { d.Name = strings.Repeat("x", NameLength) }, false},
		{"bad ip", func(d *Device) { d.IP = "not-an-ip" }, false},
		{"zero port", func(d *Device) { d.Port = 0 }, false},
		{"port too big", func(d *Device) { d.Port = 70000 }, false},
		{"zero frequency", func(d *Device) { d.Frequency = 0 }, false},
	}
	for _, tt := range tests {
		d := validDevice()
		tt.mutate(d)
		err := d.Validate()
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error: %s", tt.name, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("%s: expected error, got nil", tt.name)
		}
	}
}

func TestAddDevice(t *testing.T) {
	cfg := &Config{Capacity: 2}

	if err := cfg.AddDevice(validDevice()); err != nil {
		t.Fatalf("first device rejected: %s", err)
	}

	dup := validDevice()
	if err := cfg.AddDevice(dup); err == nil {
		t.Error("duplicate name accepted")
	}

	second := validDevice()
	second.Name = "EVG2"
	if err := cfg.AddDevice(second); err != nil {
		t.Fatalf("second device rejected: %s", err)
	}

	third := validDevice()
	third.Name = "EVG3"
	if err := cfg.AddDevice(third); err == nil {
		t.Error("device over capacity accepted")
	}
	if len(cfg.Devices) != 2 {
		t.Errorf("device list length %d, want 2", len(cfg.Devices))
	}
}

func TestDeviceCapacityDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.DeviceCapacity(); got != DefaultCapacity {
		t.Errorf("DeviceCapacity: got %d, want %d", got, DefaultCapacity)
	}
	cfg.Capacity = 3
	if got := cfg.DeviceCapacity(); got != 3 {
		t.Errorf("DeviceCapacity: got %d, want 3", got)
	}
}

func TestGetDeviceByName(t *testing.T) {
	cfg := &Config{Capacity: 2}
	cfg.AddDevice(validDevice())

	if _, err := cfg.GetDeviceByName("EVG1"); err != nil {
		t.Errorf("GetDeviceByName(EVG1): %s", err)
	}
	if _, err := cfg.GetDeviceByName("EVG9"); err == nil {
		t.Error("GetDeviceByName(EVG9): expected error, got nil")
	} else if _, ok := err.(ErrDeviceNotFound); !ok {
		t.Errorf("GetDeviceByName(EVG9): got %T, want ErrDeviceNotFound", err)
	}
}

func TestPersistLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")

	cfg := NewConfig(path)
	cfg.Capacity = 5
	if err := cfg.AddDevice(validDevice()); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Persist(false); err != nil {
		t.Fatalf("Persist: %s", err)
	}

	if err := cfg.Persist(false); err == nil {
		t.Error("Persist over existing file without overwrite succeeded")
	} else if _, ok := err.(ErrConfigFileExists); !ok {
		t.Errorf("Persist: got %T, want ErrConfigFileExists", err)
	}
	if err := cfg.Persist(true); err != nil {
		t.Errorf("Persist with overwrite: %s", err)
	}

	loaded := NewConfig(path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load: %s", err)
	}
	if loaded.Capacity != 5 || len(loaded.Devices) != 1 || loaded.Devices[0].Name != "EVG1" {
		t.Errorf("Load: got %+v", loaded)
	}
}
