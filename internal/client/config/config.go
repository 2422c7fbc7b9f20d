// Package config handles configuration for the vault CLI client:
// development defaults, an optional JSON overlay, and command-line flags,
// applied in that order.
package config

// Config holds runtime settings for the PassVault CLI.
//
// Fields:
//   - ServerURL: base URL of the vault server (scheme included).
//   - KeyFile: path of the PEM private-key file written on register and read
//     for decryption. Created with mode 0600.
//   - SessionFile: path of the saved session cookie.
//   - DeviceID: opaque tag sent as the device header on vault writes and
//     reads; empty disables device filtering.
type Config struct {
	ServerURL   string
	KeyFile     string
	SessionFile string
	DeviceID    string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.KeyFile = "passvault_key.pem"
	c.SessionFile = ".passvault_session"
	c.DeviceID = ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
