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

// go-evg API
//
// # RESTful APIs to control VME-EVG-230/RF timing cards
//
// Schemes: http
// Host: localhost:8000
// Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package srv

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"sesame.org.jo/timing/go-evg/pkg/config"
	"sesame.org.jo/timing/go-evg/pkg/device"
	"sesame.org.jo/timing/go-evg/pkg/log"
)

const (
	ApiPort = 8000
)

// DeviceInfo describes one configured device in inventory listings.
type DeviceInfo struct {
	Name      string `json:"name"`
	IP        string `json:"ip"`
	Port      int    `json:"port"`
	Frequency int    `json:"frequency"`
}

// EnableSetting ...
type EnableSetting struct {
	Enable bool `json:"enable"`
}

// EnableState ...
type EnableState struct {
	Enabled bool `json:"enabled"`
}

// SourceSetting carries a clock or trigger source name.
type SourceSetting struct {
	Source string `json:"source"`
}

// PrescalerSetting ...
type PrescalerSetting struct {
	Prescaler uint32 `json:"prescaler"`
}

// EventSetting ...
type EventSetting struct {
	Code uint8 `json:"code"`
}

// TimestampSetting carries a timestamp in microseconds.
type TimestampSetting struct {
	Timestamp float64 `json:"timestamp"`
}

// FirmwareState ...
type FirmwareState struct {
	Firmware string `json:"firmware"`
}

// RegHex is the raw diagnostic register representation. Addr and Value
// are hexadecimal strings.
type RegHex struct {
	Addr  string `json:"addr"`
	Value string `json:"value"`
}

// ApiError is the body of every non-200 response.
type ApiError struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

type ApiServer struct {
	context.Context
	*config.Config
	*mux.Router
	registry *device.Registry
}

// NewApiServer ...
func NewApiServer(ctx context.Context, cfg *config.Config, registry *device.Registry) (*ApiServer, error) {
	log.Info("Initializing API server with address: %s port: %d", cfg.IP, ApiPort)

	s := &ApiServer{
		Context:  ctx,
		Config:   cfg,
		registry: registry,
	}
	return s, nil
}

// Run configures the router and serves until the listener fails.
func (s *ApiServer) Run() error {
	log.Info("Starting API server: address: %s port: %d", s.Config.IP, ApiPort)
	if err := s.configureRouter(); err != nil {
		return err
	}
	httpServer := &http.Server{
		Handler: handlers.LoggingHandler(os.Stderr, s.Router),
		Addr:    fmt.Sprintf("%s:%d", s.Config.IP, ApiPort),
	}
	return httpServer.ListenAndServe()
}

func (s *ApiServer) configureRouter() error {
	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix("/api").Subrouter()

	subRouter.HandleFunc("/devices", s.handleDevices()).Methods("GET")

	subRouter.HandleFunc("/device/{device}/setup", s.handleSetup()).Methods("POST")
	subRouter.HandleFunc("/device/{device}/enable", s.handleEnableGet()).Methods("GET")
	subRouter.HandleFunc("/device/{device}/enable", s.handleEnableSet()).Methods("POST")
	subRouter.HandleFunc("/device/{device}/firmware", s.handleFirmware()).Methods("GET")
	subRouter.HandleFunc("/device/{device}/swevent", s.handleSoftwareEvent()).Methods("POST")
	subRouter.HandleFunc("/device/{device}/divider", s.handleDividerGet()).Methods("GET")
	subRouter.HandleFunc("/device/{device}/divider", s.handleDividerSet()).Methods("POST")

	subRouter.HandleFunc("/device/{device}/clock/{domain:rf|ac}/source", s.handleClockSourceGet()).Methods("GET")
	subRouter.HandleFunc("/device/{device}/clock/{domain:rf|ac}/source", s.handleClockSourceSet()).Methods("POST")
	subRouter.HandleFunc("/device/{device}/clock/{domain:rf|ac}/prescaler", s.handleClockPrescalerGet()).Methods("GET")
	subRouter.HandleFunc("/device/{device}/clock/{domain:rf|ac}/prescaler", s.handleClockPrescalerSet()).Methods("POST")
	subRouter.HandleFunc("/device/{device}/ac/sync", s.handleAcSyncGet()).Methods("GET")
	subRouter.HandleFunc("/device/{device}/ac/sync", s.handleAcSyncSet()).Methods("POST")

	subRouter.HandleFunc("/device/{device}/seq/{seq:[01]}/enable", s.handleSeqEnableGet()).Methods("GET")
	subRouter.HandleFunc("/device/{device}/seq/{seq:[01]}/enable", s.handleSeqEnableSet()).Methods("POST")
	subRouter.HandleFunc("/device/{device}/seq/{seq:[01]}/prescaler", s.handleSeqPrescalerGet()).Methods("GET")
	subRouter.HandleFunc("/device/{device}/seq/{seq:[01]}/prescaler", s.handleSeqPrescalerSet()).Methods("POST")
	subRouter.HandleFunc("/device/{device}/seq/{seq:[01]}/source", s.handleSeqSourceGet()).Methods("GET")
	subRouter.HandleFunc("/device/{device}/seq/{seq:[01]}/source", s.handleSeqSourceSet()).Methods("POST")
	subRouter.HandleFunc("/device/{device}/seq/{seq:[01]}/trigger", s.handleSeqTrigger()).Methods("POST")
	subRouter.HandleFunc("/device/{device}/seq/{seq:[01]}/event/{addr:[0-9]+}", s.handleEventGet()).Methods("GET")
	subRouter.HandleFunc("/device/{device}/seq/{seq:[01]}/event/{addr:[0-9]+}", s.handleEventSet()).Methods("POST")
	subRouter.HandleFunc("/device/{device}/seq/{seq:[01]}/timestamp/{addr:[0-9]+}", s.handleTimestampGet()).Methods("GET")
	subRouter.HandleFunc("/device/{device}/seq/{seq:[01]}/timestamp/{addr:[0-9]+}", s.handleTimestampSet()).Methods("POST")

	subRouter.HandleFunc("/device/{device}/counter/{counter:[0-7]}/prescaler", s.handleCounterPrescalerGet()).Methods("GET")
	subRouter.HandleFunc("/device/{device}/counter/{counter:[0-7]}/prescaler", s.handleCounterPrescalerSet()).Methods("POST")

	subRouter.HandleFunc("/device/{device}/reg/{addr:0x[0-9a-fA-F]+}", s.handleRegRead()).Methods("GET")
	subRouter.HandleFunc("/device/{device}/reg", s.handleRegWrite()).Methods("POST")

	return s.configureDocs(subRouter)
}

func (s *ApiServer) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Error while encoding API response: %s", err)
	}
}

func (s *ApiServer) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch err.(type) {
	case config.ErrDeviceNotFound:
		code = http.StatusNotFound
	case config.ErrDeviceConfig, device.ErrBadArgument:
		code = http.StatusBadRequest
	case device.ErrNoReply, device.ErrVerifyMismatch, device.ErrNotInitialized:
		code = http.StatusBadGateway
	}
	log.Error("API error: %s", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(&ApiError{Code: code, Message: err.Error()})
}

func (s *ApiServer) openDevice(r *http.Request) (*device.Device, error) {
	return s.registry.Open(mux.Vars(r)["device"])
}

// seq, counter and addr path vars are constrained by the route patterns,
// so Atoi cannot fail on them.
func intVar(r *http.Request, name string) int {
	v, _ := strconv.Atoi(mux.Vars(r)[name])
	return v
}

// swagger:operation GET /devices devices
//
// Lists the configured devices
//
// ---
// produces:
// - application/json
// responses:
//   "200":
//     description: configured devices
func (s *ApiServer) handleDevices() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		infos := []*DeviceInfo{}
		for _, d := range s.registry.Devices() {
			infos = append(infos, &DeviceInfo{
				Name:      d.Name,
				IP:        d.IP,
				Port:      d.Port,
				Frequency: d.Frequency,
			})
		}
		s.writeJSON(w, infos)
	}
}

// swagger:operation POST /device/{device}/setup setup
//
// Puts a device into its power-up default state
//
// ---
// produces:
// - application/json
// parameters:
// - name: device
//   in: path
//   required: true
//   type: string
// responses:
//   "200":
//     description: device initialized
func (s *ApiServer) handleSetup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if err := d.Setup(); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, &ApiError{Code: http.StatusOK})
	}
}

// swagger:operation GET /device/{device}/enable enableGet
//
// Reports whether event generation is enabled
//
// ---
// produces:
// - application/json
// parameters:
// - name: device
//   in: path
//   required: true
//   type: string
// responses:
//   "200":
//     description: enable state
func (s *ApiServer) handleEnableGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		enabled, err := d.IsEnabled()
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, &EnableState{Enabled: enabled})
	}
}

// swagger:operation POST /device/{device}/enable enableSet
//
// Enables or disables event generation
//
// ---
// produces:
// - application/json
// parameters:
// - name: device
//   in: path
//   required: true
//   type: string
// responses:
//   "200":
//     description: enable state applied
func (s *ApiServer) handleEnableSet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		setting := &EnableSetting{}
		if err := json.NewDecoder(r.Body).Decode(setting); err != nil {
			s.writeError(w, device.ErrBadArgument{Op: "enable", What: err.Error()})
			return
		}
		if err := d.Enable(setting.Enable); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, &EnableState{Enabled: setting.Enable})
	}
}

// swagger:operation GET /device/{device}/firmware firmware
//
// Reads the firmware version register
//
// ---
// produces:
// - application/json
// parameters:
// - name: device
//   in: path
//   required: true
//   type: string
// responses:
//   "200":
//     description: firmware version
func (s *ApiServer) handleFirmware() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		version, err := d.FirmwareVersion()
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, &FirmwareState{Firmware: fmt.Sprintf("0x%04x", version)})
	}
}

// swagger:operation POST /device/{device}/swevent swevent
//
// Injects a software event code into the event stream
//
// ---
// produces:
// - application/json
// parameters:
// - name: device
//   in: path
//   required: true
//   type: string
// responses:
//   "200":
//     description: event injected
func (s *ApiServer) handleSoftwareEvent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		setting := &EventSetting{}
		if err := json.NewDecoder(r.Body).Decode(setting); err != nil {
			s.writeError(w, device.ErrBadArgument{Op: "swevent", What: err.Error()})
			return
		}
		if err := d.SetSoftwareEvent(setting.Code); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, setting)
	}
}

func (s *ApiServer) handleDividerGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		divider, err := d.GetUsecDivider()
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, &PrescalerSetting{Prescaler: uint32(divider)})
	}
}

func (s *ApiServer) handleDividerSet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		setting := &PrescalerSetting{}
		if err := json.NewDecoder(r.Body).Decode(setting); err != nil {
			s.writeError(w, device.ErrBadArgument{Op: "divider", What: err.Error()})
			return
		}
		if err := d.SetUsecDivider(uint16(setting.Prescaler)); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, setting)
	}
}

// swagger:operation GET /device/{device}/clock/{domain}/source clockSourceGet
//
// Reports the clock source of the RF or AC domain
//
// ---
// produces:
// - application/json
// parameters:
// - name: device
//   in: path
//   required: true
//   type: string
// - name: domain
//   in: path
//   required: true
//   type: string
//   enum: [rf, ac]
// responses:
//   "200":
//     description: clock source
func (s *ApiServer) handleClockSourceGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		domain, err := device.ParseClockDomain(mux.Vars(r)["domain"])
		if err != nil {
			s.writeError(w, err)
			return
		}
		src, err := d.GetClockSource(domain)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, &SourceSetting{Source: src.String()})
	}
}

func (s *ApiServer) handleClockSourceSet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		domain, err := device.ParseClockDomain(mux.Vars(r)["domain"])
		if err != nil {
			s.writeError(w, err)
			return
		}
		setting := &SourceSetting{}
		if err := json.NewDecoder(r.Body).Decode(setting); err != nil {
			s.writeError(w, device.ErrBadArgument{Op: "clock source", What: err.Error()})
			return
		}
		src, err := device.ParseClockSource(setting.Source)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if err := d.SetClockSource(domain, src); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, setting)
	}
}

func (s *ApiServer) handleClockPrescalerGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		domain, err := device.ParseClockDomain(mux.Vars(r)["domain"])
		if err != nil {
			s.writeError(w, err)
			return
		}
		var prescaler int
		if domain == device.ClockRf {
			prescaler, err = d.GetRfPrescaler()
		} else {
			prescaler, err = d.GetAcPrescaler()
		}
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, &PrescalerSetting{Prescaler: uint32(prescaler)})
	}
}

func (s *ApiServer) handleClockPrescalerSet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		domain, err := device.ParseClockDomain(mux.Vars(r)["domain"])
		if err != nil {
			s.writeError(w, err)
			return
		}
		setting := &PrescalerSetting{}
		if err := json.NewDecoder(r.Body).Decode(setting); err != nil {
			s.writeError(w, device.ErrBadArgument{Op: "clock prescaler", What: err.Error()})
			return
		}
		if domain == device.ClockRf {
			err = d.SetRfPrescaler(int(setting.Prescaler))
		} else {
			err = d.SetAcPrescaler(int(setting.Prescaler))
		}
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, setting)
	}
}

func (s *ApiServer) handleAcSyncGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		enabled, err := d.IsAcTriggerEnabled()
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, &EnableState{Enabled: enabled})
	}
}

func (s *ApiServer) handleAcSyncSet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		setting := &EnableSetting{}
		if err := json.NewDecoder(r.Body).Decode(setting); err != nil {
			s.writeError(w, device.ErrBadArgument{Op: "ac sync", What: err.Error()})
			return
		}
		if err := d.EnableAcTrigger(setting.Enable); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, &EnableState{Enabled: setting.Enable})
	}
}

// swagger:operation GET /device/{device}/seq/{seq}/enable seqEnableGet
//
// Reports whether a sequencer is running
//
// ---
// produces:
// - application/json
// parameters:
// - name: device
//   in: path
//   required: true
//   type: string
// - name: seq
//   in: path
//   required: true
//   type: integer
// responses:
//   "200":
//     description: sequencer state
func (s *ApiServer) handleSeqEnableGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		enabled, err := d.IsSequencerEnabled(intVar(r, "seq"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, &EnableState{Enabled: enabled})
	}
}

func (s *ApiServer) handleSeqEnableSet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		setting := &EnableSetting{}
		if err := json.NewDecoder(r.Body).Decode(setting); err != nil {
			s.writeError(w, device.ErrBadArgument{Op: "sequencer enable", What: err.Error()})
			return
		}
		if err := d.EnableSequencer(intVar(r, "seq"), setting.Enable); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, &EnableState{Enabled: setting.Enable})
	}
}

func (s *ApiServer) handleSeqPrescalerGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		prescaler, err := d.GetSequencerPrescaler(intVar(r, "seq"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, &PrescalerSetting{Prescaler: uint32(prescaler)})
	}
}

func (s *ApiServer) handleSeqPrescalerSet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		setting := &PrescalerSetting{}
		if err := json.NewDecoder(r.Body).Decode(setting); err != nil {
			s.writeError(w, device.ErrBadArgument{Op: "sequencer prescaler", What: err.Error()})
			return
		}
		if err := d.SetSequencerPrescaler(intVar(r, "seq"), uint16(setting.Prescaler)); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, setting)
	}
}

func (s *ApiServer) handleSeqSourceGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		src, err := d.GetSequencerTriggerSource(intVar(r, "seq"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, &SourceSetting{Source: src.String()})
	}
}

func (s *ApiServer) handleSeqSourceSet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		setting := &SourceSetting{}
		if err := json.NewDecoder(r.Body).Decode(setting); err != nil {
			s.writeError(w, device.ErrBadArgument{Op: "trigger source", What: err.Error()})
			return
		}
		src, err := device.ParseTriggerSource(setting.Source)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if err := d.SetSequencerTriggerSource(intVar(r, "seq"), src); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, setting)
	}
}

// swagger:operation POST /device/{device}/seq/{seq}/trigger seqTrigger
//
// Fires a sequencer by software
//
// ---
// produces:
// - application/json
// parameters:
// - name: device
//   in: path
//   required: true
//   type: string
// - name: seq
//   in: path
//   required: true
//   type: integer
// responses:
//   "200":
//     description: sequencer triggered
func (s *ApiServer) handleSeqTrigger() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if err := d.TriggerSequencer(intVar(r, "seq")); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, &ApiError{Code: http.StatusOK})
	}
}

func (s *ApiServer) handleEventGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		code, err := d.GetEvent(intVar(r, "seq"), intVar(r, "addr"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, &EventSetting{Code: code})
	}
}

func (s *ApiServer) handleEventSet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		setting := &EventSetting{}
		if err := json.NewDecoder(r.Body).Decode(setting); err != nil {
			s.writeError(w, device.ErrBadArgument{Op: "event", What: err.Error()})
			return
		}
		if err := d.SetEvent(intVar(r, "seq"), intVar(r, "addr"), setting.Code); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, setting)
	}
}

func (s *ApiServer) handleTimestampGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		timestamp, err := d.GetTimestamp(intVar(r, "seq"), intVar(r, "addr"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, &TimestampSetting{Timestamp: timestamp})
	}
}

func (s *ApiServer) handleTimestampSet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		setting := &TimestampSetting{}
		if err := json.NewDecoder(r.Body).Decode(setting); err != nil {
			s.writeError(w, device.ErrBadArgument{Op: "timestamp", What: err.Error()})
			return
		}
		if err := d.SetTimestamp(intVar(r, "seq"), intVar(r, "addr"), setting.Timestamp); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, setting)
	}
}

func (s *ApiServer) handleCounterPrescalerGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		prescaler, err := d.GetCounterPrescaler(intVar(r, "counter"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, &PrescalerSetting{Prescaler: prescaler})
	}
}

func (s *ApiServer) handleCounterPrescalerSet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		setting := &PrescalerSetting{}
		if err := json.NewDecoder(r.Body).Decode(setting); err != nil {
			s.writeError(w, device.ErrBadArgument{Op: "counter prescaler", What: err.Error()})
			return
		}
		if err := d.SetCounterPrescaler(intVar(r, "counter"), setting.Prescaler); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, setting)
	}
}

// swagger:operation GET /device/{device}/reg/{addr} regRead
//
// Reads a raw register. Diagnostic use only.
//
// ---
// produces:
// - application/json
// parameters:
// - name: device
//   in: path
//   required: true
//   type: string
// - name: addr
//   in: path
//   required: true
//   type: string
// responses:
//   "200":
//     description: register value
func (s *ApiServer) handleRegRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		addr, err := strconv.ParseUint(mux.Vars(r)["addr"], 0, 16)
		if err != nil {
			s.writeError(w, device.ErrBadArgument{Op: "reg read", What: err.Error()})
			return
		}
		value, err := d.RegRead(uint16(addr))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, &RegHex{
			Addr:  fmt.Sprintf("0x%02x", addr),
			Value: fmt.Sprintf("0x%04x", value),
		})
	}
}

// swagger:operation POST /device/{device}/reg regWrite
//
// Writes a raw register without read-back verification. Diagnostic use only.
//
// ---
// produces:
// - application/json
// parameters:
// - name: device
//   in: path
//   required: true
//   type: string
// responses:
//   "200":
//     description: register written
func (s *ApiServer) handleRegWrite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.openDevice(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		reg := &RegHex{}
		if err := json.NewDecoder(r.Body).Decode(reg); err != nil {
			s.writeError(w, device.ErrBadArgument{Op: "reg write", What: err.Error()})
			return
		}
		addr, err := strconv.ParseUint(reg.Addr, 0, 16)
		if err != nil {
			s.writeError(w, device.ErrBadArgument{Op: "reg write", What: err.Error()})
			return
		}
		value, err := strconv.ParseUint(reg.Value, 0, 16)
		if err != nil {
			s.writeError(w, device.ErrBadArgument{Op: "reg write", What: err.Error()})
			return
		}
		if err := d.RegWrite(uint16(addr), uint16(value)); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, reg)
	}
}
