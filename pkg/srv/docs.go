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

package srv

import (
	"encoding/json"
	"net/http"

	"github.com/go-openapi/loads"
	"github.com/go-openapi/runtime/middleware"
	"github.com/gorilla/mux"
)

// swaggerJSON is the API document served at /api/swagger.json and rendered
// at /api/docs. It is validated on startup so a malformed edit fails the
// server early instead of producing a broken docs page.
const swaggerJSON = `{
  "swagger": "2.0",
  "info": {
    "title": "go-evg API",
    "description": "RESTful APIs to control VME-EVG-230/RF timing cards",
    "version": "1.0.0"
  },
  "basePath": "/api",
  "consumes": ["application/json"],
  "produces": ["application/json"],
  "paths": {
    "/devices": {
      "get": {
        "summary": "List the configured devices",
        "responses": {"200": {"description": "configured devices"}}
      }
    },
    "/device/{device}/setup": {
      "post": {
        "summary": "Put a device into its power-up default state",
        "parameters": [{"name": "device", "in": "path", "required": true, "type": "string"}],
        "responses": {
          "200": {"description": "device initialized"},
          "404": {"description": "device not found"},
          "502": {"description": "device unreachable"}
        }
      }
    },
    "/device/{device}/enable": {
      "get": {
        "summary": "Report whether event generation is enabled",
        "parameters": [{"name": "device", "in": "path", "required": true, "type": "string"}],
        "responses": {"200": {"description": "enable state"}}
      },
      "post": {
        "summary": "Enable or disable event generation",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "body", "in": "body", "required": true,
           "schema": {"type": "object", "properties": {"enable": {"type": "boolean"}}}}
        ],
        "responses": {"200": {"description": "enable state applied"}}
      }
    },
    "/device/{device}/firmware": {
      "get": {
        "summary": "Read the firmware version register",
        "parameters": [{"name": "device", "in": "path", "required": true, "type": "string"}],
        "responses": {"200": {"description": "firmware version"}}
      }
    },
    "/device/{device}/swevent": {
      "post": {
        "summary": "Inject a software event code into the event stream",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "body", "in": "body", "required": true,
           "schema": {"type": "object", "properties": {"code": {"type": "integer"}}}}
        ],
        "responses": {"200": {"description": "event injected"}}
      }
    },
    "/device/{device}/divider": {
      "get": {
        "summary": "Read the microsecond divider",
        "parameters": [{"name": "device", "in": "path", "required": true, "type": "string"}],
        "responses": {"200": {"description": "divider value"}}
      },
      "post": {
        "summary": "Set the microsecond divider",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "body", "in": "body", "required": true,
           "schema": {"type": "object", "properties": {"prescaler": {"type": "integer"}}}}
        ],
        "responses": {"200": {"description": "divider applied"}}
      }
    },
    "/device/{device}/clock/{domain}/source": {
      "get": {
        "summary": "Report the clock source of the RF or AC domain",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "domain", "in": "path", "required": true, "type": "string", "enum": ["rf", "ac"]}
        ],
        "responses": {"200": {"description": "clock source"}}
      },
      "post": {
        "summary": "Select the clock source of the RF or AC domain",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "domain", "in": "path", "required": true, "type": "string", "enum": ["rf", "ac"]},
          {"name": "body", "in": "body", "required": true,
           "schema": {"type": "object", "properties": {"source": {"type": "string", "enum": ["internal", "external"]}}}}
        ],
        "responses": {"200": {"description": "clock source applied"}}
      }
    },
    "/device/{device}/clock/{domain}/prescaler": {
      "get": {
        "summary": "Report the RF or AC clock prescaler",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "domain", "in": "path", "required": true, "type": "string", "enum": ["rf", "ac"]}
        ],
        "responses": {"200": {"description": "prescaler value"}}
      },
      "post": {
        "summary": "Set the RF or AC clock prescaler",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "domain", "in": "path", "required": true, "type": "string", "enum": ["rf", "ac"]},
          {"name": "body", "in": "body", "required": true,
           "schema": {"type": "object", "properties": {"prescaler": {"type": "integer"}}}}
        ],
        "responses": {"200": {"description": "prescaler applied"}}
      }
    },
    "/device/{device}/ac/sync": {
      "get": {
        "summary": "Report whether AC synchronization is enabled",
        "parameters": [{"name": "device", "in": "path", "required": true, "type": "string"}],
        "responses": {"200": {"description": "sync state"}}
      },
      "post": {
        "summary": "Enable or disable AC synchronization",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "body", "in": "body", "required": true,
           "schema": {"type": "object", "properties": {"enable": {"type": "boolean"}}}}
        ],
        "responses": {"200": {"description": "sync state applied"}}
      }
    },
    "/device/{device}/seq/{seq}/enable": {
      "get": {
        "summary": "Report whether a sequencer is running",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "seq", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"200": {"description": "sequencer state"}}
      },
      "post": {
        "summary": "Start or stop a sequencer",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "seq", "in": "path", "required": true, "type": "integer"},
          {"name": "body", "in": "body", "required": true,
           "schema": {"type": "object", "properties": {"enable": {"type": "boolean"}}}}
        ],
        "responses": {"200": {"description": "sequencer state applied"}}
      }
    },
    "/device/{device}/seq/{seq}/prescaler": {
      "get": {
        "summary": "Report a sequencer clock prescaler",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "seq", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"200": {"description": "prescaler value"}}
      },
      "post": {
        "summary": "Set a sequencer clock prescaler",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "seq", "in": "path", "required": true, "type": "integer"},
          {"name": "body", "in": "body", "required": true,
           "schema": {"type": "object", "properties": {"prescaler": {"type": "integer"}}}}
        ],
        "responses": {"200": {"description": "prescaler applied"}}
      }
    },
    "/device/{device}/seq/{seq}/source": {
      "get": {
        "summary": "Report a sequencer trigger source",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "seq", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"200": {"description": "trigger source"}}
      },
      "post": {
        "summary": "Select a sequencer trigger source",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "seq", "in": "path", "required": true, "type": "integer"},
          {"name": "body", "in": "body", "required": true,
           "schema": {"type": "object", "properties": {"source": {"type": "string", "enum": ["soft", "ac"]}}}}
        ],
        "responses": {"200": {"description": "trigger source applied"}}
      }
    },
    "/device/{device}/seq/{seq}/trigger": {
      "post": {
        "summary": "Fire a sequencer by software",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "seq", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"200": {"description": "sequencer triggered"}}
      }
    },
    "/device/{device}/seq/{seq}/event/{addr}": {
      "get": {
        "summary": "Read an event code from sequencer RAM",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "seq", "in": "path", "required": true, "type": "integer"},
          {"name": "addr", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"200": {"description": "event code"}}
      },
      "post": {
        "summary": "Write an event code into sequencer RAM",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "seq", "in": "path", "required": true, "type": "integer"},
          {"name": "addr", "in": "path", "required": true, "type": "integer"},
          {"name": "body", "in": "body", "required": true,
           "schema": {"type": "object", "properties": {"code": {"type": "integer"}}}}
        ],
        "responses": {"200": {"description": "event code written"}}
      }
    },
    "/device/{device}/seq/{seq}/timestamp/{addr}": {
      "get": {
        "summary": "Read an event timestamp in microseconds",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "seq", "in": "path", "required": true, "type": "integer"},
          {"name": "addr", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"200": {"description": "timestamp in microseconds"}}
      },
      "post": {
        "summary": "Write an event timestamp in microseconds",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "seq", "in": "path", "required": true, "type": "integer"},
          {"name": "addr", "in": "path", "required": true, "type": "integer"},
          {"name": "body", "in": "body", "required": true,
           "schema": {"type": "object", "properties": {"timestamp": {"type": "number"}}}}
        ],
        "responses": {"200": {"description": "timestamp written"}}
      }
    },
    "/device/{device}/counter/{counter}/prescaler": {
      "get": {
        "summary": "Read a multiplexed counter prescaler",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "counter", "in": "path", "required": true, "type": "integer"}
        ],
        "responses": {"200": {"description": "prescaler value"}}
      },
      "post": {
        "summary": "Set a multiplexed counter prescaler",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "counter", "in": "path", "required": true, "type": "integer"},
          {"name": "body", "in": "body", "required": true,
           "schema": {"type": "object", "properties": {"prescaler": {"type": "integer"}}}}
        ],
        "responses": {"200": {"description": "prescaler applied"}}
      }
    },
    "/device/{device}/reg/{addr}": {
      "get": {
        "summary": "Read a raw register, diagnostic use only",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "addr", "in": "path", "required": true, "type": "string"}
        ],
        "responses": {"200": {"description": "register value"}}
      }
    },
    "/device/{device}/reg": {
      "post": {
        "summary": "Write a raw register without verification, diagnostic use only",
        "parameters": [
          {"name": "device", "in": "path", "required": true, "type": "string"},
          {"name": "body", "in": "body", "required": true,
           "schema": {"type": "object", "properties": {"addr": {"type": "string"}, "value": {"type": "string"}}}}
        ],
        "responses": {"200": {"description": "register written"}}
      }
    }
  }
}`

// configureDocs validates the embedded API document and mounts it together
// with a ReDoc viewer under the given router.
func (s *ApiServer) configureDocs(router *mux.Router) error {
	doc, err := loads.Analyzed(json.RawMessage(swaggerJSON), "")
	if err != nil {
		return err
	}
	raw := doc.Raw()

	router.HandleFunc("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(raw)
	}).Methods("GET")

	docs := middleware.Redoc(middleware.RedocOpts{
		BasePath: "/api",
		Path:     "docs",
		SpecURL:  "/api/swagger.json",
		Title:    "go-evg API",
	}, http.NotFoundHandler())
	router.Handle("/docs", docs).Methods("GET")

	return nil
}
