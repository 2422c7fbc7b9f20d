package config

import (
	"encoding/json"
	"os"

	"github.com/avilks/passvault/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Empty fields
// keep the current value, so the file only needs to name what it overrides.
type JsonConfig struct {
	ServerURL   string `json:"server_url"`
	KeyFile     string `json:"key_file"`
	SessionFile string `json:"session_file"`
	DeviceID    string `json:"device_id"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c/-config, if any. Read or unmarshal errors panic: a half-applied config
// is worse than a refused start.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setIfNotEmpty := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	setIfNotEmpty(&cfg.ServerURL, jc.ServerURL)
	setIfNotEmpty(&cfg.KeyFile, jc.KeyFile)
	setIfNotEmpty(&cfg.SessionFile, jc.SessionFile)
	setIfNotEmpty(&cfg.DeviceID, jc.DeviceID)
}
