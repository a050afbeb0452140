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
	"errors"
	"fmt"

	"github.com/imroc/req"

	"sesame.org.jo/timing/go-evg/pkg/config"
	"sesame.org.jo/timing/go-evg/pkg/srv"
)

// ApiClient is the HTTP client side of the API server. Every method maps
// one-to-one to an API route.
type ApiClient struct {
	*config.Config
	ApiPrefix string
}

func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s:%d/api", cfg.IP, srv.ApiPort),
	}
}

func (c *ApiClient) deviceUrl(device, suffix string) string {
	return fmt.Sprintf("%s/device/%s/%s", c.ApiPrefix, device, suffix)
}

func (c *ApiClient) seqUrl(device string, seq int, suffix string) string {
	return c.deviceUrl(device, fmt.Sprintf("seq/%d/%s", seq, suffix))
}

func checkStatus(r *req.Resp) error {
	if r.Response().StatusCode != 200 {
		body := &srv.ApiError{}
		if err := r.ToJSON(body); err == nil && body.Message != "" {
			return errors.New(body.Message)
		}
		return errors.New(r.Response().Status)
	}
	return nil
}

func (c *ApiClient) get(url string, result interface{}) error {
	r, err := req.Get(url)
	if err != nil {
		return err
	}
	if err := checkStatus(r); err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	return r.ToJSON(result)
}

func (c *ApiClient) post(url string, body, result interface{}) error {
	var r *req.Resp
	var err error
	if body == nil {
		r, err = req.Post(url)
	} else {
		r, err = req.Post(url, req.BodyJSON(body))
	}
	if err != nil {
		return err
	}
	if err := checkStatus(r); err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	return r.ToJSON(result)
}

// Devices requests the configured device inventory
func (c *ApiClient) Devices() ([]*srv.DeviceInfo, error) {
	var infos []*srv.DeviceInfo
	err := c.get(fmt.Sprintf("%s/devices", c.ApiPrefix), &infos)
	return infos, err
}

// Setup sends request to put a device into its power-up default state
func (c *ApiClient) Setup(device string) error {
	return c.post(c.deviceUrl(device, "setup"), nil, nil)
}

// Enable sends request to enable or disable event generation
func (c *ApiClient) Enable(device string, enable bool) error {
	return c.post(c.deviceUrl(device, "enable"), &srv.EnableSetting{Enable: enable}, nil)
}

// IsEnabled requests the event generation state
func (c *ApiClient) IsEnabled(device string) (bool, error) {
	state := &srv.EnableState{}
	err := c.get(c.deviceUrl(device, "enable"), state)
	return state.Enabled, err
}

// Firmware requests the firmware version of a device
func (c *ApiClient) Firmware(device string) (string, error) {
	state := &srv.FirmwareState{}
	err := c.get(c.deviceUrl(device, "firmware"), state)
	return state.Firmware, err
}

// SoftwareEvent sends request to inject an event code into the event stream
func (c *ApiClient) SoftwareEvent(device string, code uint8) error {
	return c.post(c.deviceUrl(device, "swevent"), &srv.EventSetting{Code: code}, nil)
}

// GetDivider requests the microsecond divider of a device
func (c *ApiClient) GetDivider(device string) (uint32, error) {
	setting := &srv.PrescalerSetting{}
	err := c.get(c.deviceUrl(device, "divider"), setting)
	return setting.Prescaler, err
}

// SetDivider sends request to set the microsecond divider of a device
func (c *ApiClient) SetDivider(device string, divider uint32) error {
	return c.post(c.deviceUrl(device, "divider"), &srv.PrescalerSetting{Prescaler: divider}, nil)
}

// GetClockSource requests the clock source of the given domain, rf or ac
func (c *ApiClient) GetClockSource(device, domain string) (string, error) {
	setting := &srv.SourceSetting{}
	err := c.get(c.deviceUrl(device, fmt.Sprintf("clock/%s/source", domain)), setting)
	return setting.Source, err
}

// SetClockSource sends request to select the clock source of the given domain
func (c *ApiClient) SetClockSource(device, domain, source string) error {
	return c.post(c.deviceUrl(device, fmt.Sprintf("clock/%s/source", domain)),
		&srv.SourceSetting{Source: source}, nil)
}

// GetClockPrescaler requests the clock prescaler of the given domain
func (c *ApiClient) GetClockPrescaler(device, domain string) (uint32, error) {
	setting := &srv.PrescalerSetting{}
	err := c.get(c.deviceUrl(device, fmt.Sprintf("clock/%s/prescaler", domain)), setting)
	return setting.Prescaler, err
}

// SetClockPrescaler sends request to set the clock prescaler of the given domain
func (c *ApiClient) SetClockPrescaler(device, domain string, prescaler uint32) error {
	return c.post(c.deviceUrl(device, fmt.Sprintf("clock/%s/prescaler", domain)),
		&srv.PrescalerSetting{Prescaler: prescaler}, nil)
}

// GetAcSync requests the AC synchronization state
func (c *ApiClient) GetAcSync(device string) (bool, error) {
	state := &srv.EnableState{}
	err := c.get(c.deviceUrl(device, "ac/sync"), state)
	return state.Enabled, err
}

// SetAcSync sends request to enable or disable AC synchronization
func (c *ApiClient) SetAcSync(device string, enable bool) error {
	return c.post(c.deviceUrl(device, "ac/sync"), &srv.EnableSetting{Enable: enable}, nil)
}

// IsSeqEnabled requests the run state of a sequencer
func (c *ApiClient) IsSeqEnabled(device string, seq int) (bool, error) {
	state := &srv.EnableState{}
	err := c.get(c.seqUrl(device, seq, "enable"), state)
	return state.Enabled, err
}

// EnableSeq sends request to start or stop a sequencer
func (c *ApiClient) EnableSeq(device string, seq int, enable bool) error {
	return c.post(c.seqUrl(device, seq, "enable"), &srv.EnableSetting{Enable: enable}, nil)
}

// GetSeqPrescaler requests a sequencer clock prescaler
func (c *ApiClient) GetSeqPrescaler(device string, seq int) (uint32, error) {
	setting := &srv.PrescalerSetting{}
	err := c.get(c.seqUrl(device, seq, "prescaler"), setting)
	return setting.Prescaler, err
}

// SetSeqPrescaler sends request to set a sequencer clock prescaler
func (c *ApiClient) SetSeqPrescaler(device string, seq int, prescaler uint32) error {
	return c.post(c.seqUrl(device, seq, "prescaler"),
		&srv.PrescalerSetting{Prescaler: prescaler}, nil)
}

// GetSeqSource requests a sequencer trigger source
func (c *ApiClient) GetSeqSource(device string, seq int) (string, error) {
	setting := &srv.SourceSetting{}
	err := c.get(c.seqUrl(device, seq, "source"), setting)
	return setting.Source, err
}

// SetSeqSource sends request to select a sequencer trigger source
func (c *ApiClient) SetSeqSource(device string, seq int, source string) error {
	return c.post(c.seqUrl(device, seq, "source"), &srv.SourceSetting{Source: source}, nil)
}

// TriggerSeq sends request to fire a sequencer by software
func (c *ApiClient) TriggerSeq(device string, seq int) error {
	return c.post(c.seqUrl(device, seq, "trigger"), nil, nil)
}

// GetEvent requests the event code at a sequencer RAM address
func (c *ApiClient) GetEvent(device string, seq, addr int) (uint8, error) {
	setting := &srv.EventSetting{}
	err := c.get(c.seqUrl(device, seq, fmt.Sprintf("event/%d", addr)), setting)
	return setting.Code, err
}

// SetEvent sends request to write an event code into sequencer RAM
func (c *ApiClient) SetEvent(device string, seq, addr int, code uint8) error {
	return c.post(c.seqUrl(device, seq, fmt.Sprintf("event/%d", addr)),
		&srv.EventSetting{Code: code}, nil)
}

// GetTimestamp requests the timestamp at a sequencer RAM address, microseconds
func (c *ApiClient) GetTimestamp(device string, seq, addr int) (float64, error) {
	setting := &srv.TimestampSetting{}
	err := c.get(c.seqUrl(device, seq, fmt.Sprintf("timestamp/%d", addr)), setting)
	return setting.Timestamp, err
}

// SetTimestamp sends request to write a timestamp into sequencer RAM, microseconds
func (c *ApiClient) SetTimestamp(device string, seq, addr int, timestamp float64) error {
	return c.post(c.seqUrl(device, seq, fmt.Sprintf("timestamp/%d", addr)),
		&srv.TimestampSetting{Timestamp: timestamp}, nil)
}

// GetCounterPrescaler requests a multiplexed counter prescaler
func (c *ApiClient) GetCounterPrescaler(device string, counter int) (uint32, error) {
	setting := &srv.PrescalerSetting{}
	err := c.get(c.deviceUrl(device, fmt.Sprintf("counter/%d/prescaler", counter)), setting)
	return setting.Prescaler, err
}

// SetCounterPrescaler sends request to set a multiplexed counter prescaler
func (c *ApiClient) SetCounterPrescaler(device string, counter int, prescaler uint32) error {
	return c.post(c.deviceUrl(device, fmt.Sprintf("counter/%d/prescaler", counter)),
		&srv.PrescalerSetting{Prescaler: prescaler}, nil)
}

// RegRead low level api request to get the value of a register of a device
func (c *ApiClient) RegRead(device, addr string) (string, error) {
	reg := &srv.RegHex{}
	err := c.get(c.deviceUrl(device, fmt.Sprintf("reg/%s", addr)), reg)
	return reg.Value, err
}

// RegWrite low level api request to write a value to a register of a device
func (c *ApiClient) RegWrite(device, addr, value string) error {
	return c.post(c.deviceUrl(device, "reg"), &srv.RegHex{Addr: addr, Value: value}, nil)
}
