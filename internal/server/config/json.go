package config

import (
	"encoding/json"
	"os"

	"github.com/avilks/passvault/internal/flagx"
	"github.com/avilks/passvault/internal/timex"
)

// JsonConfig is the file-format DTO. Durations accept both "15h" strings and
// integer nanoseconds. Empty fields keep the current value, so the file only
// needs to name what it overrides.
type JsonConfig struct {
	EndpointAddrHTTP        string          `json:"endpoint_addr_http"`
	DatabaseDSN             string          `json:"database_dsn"`
	SecretKey               string          `json:"secret_key"`
	SessionValidityDuration *timex.Duration `json:"session_validity_duration"`
	BaseURL                 string          `json:"base_url"`
	SenderEmail             string          `json:"sender_email"`
	PostmarkServerToken     string          `json:"postmark_server_token"`
	PostmarkAccountToken    string          `json:"postmark_account_token"`
	S3RootUser              string          `json:"s3_root_user"`
	S3RootPassword          string          `json:"s3_root_password"`
	S3Bucket                string          `json:"s3_bucket"`
	S3Region                string          `json:"s3_region"`
	S3BaseEndpoint          string          `json:"s3_base_endpoint"`
}

// parseJson overlays values from the JSON file named by -c/-config, if any.
// An unreadable or invalid file panics: a half-applied config is worse than a
// refused start.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setIfNotEmpty := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	setIfNotEmpty(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setIfNotEmpty(&config.DatabaseDSN, c.DatabaseDSN)
	setIfNotEmpty(&config.SecretKey, c.SecretKey)
	if c.SessionValidityDuration != nil {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	setIfNotEmpty(&config.BaseURL, c.BaseURL)
	setIfNotEmpty(&config.SenderEmail, c.SenderEmail)
	setIfNotEmpty(&config.PostmarkServerToken, c.PostmarkServerToken)
	setIfNotEmpty(&config.PostmarkAccountToken, c.PostmarkAccountToken)
	setIfNotEmpty(&config.S3RootUser, c.S3RootUser)
	setIfNotEmpty(&config.S3RootPassword, c.S3RootPassword)
	setIfNotEmpty(&config.S3Bucket, c.S3Bucket)
	setIfNotEmpty(&config.S3Region, c.S3Region)
	setIfNotEmpty(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}
