package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/legacykeeper/internal/flagx"
	"github.com/dmitrijs2005/legacykeeper/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations use timex.Duration,
// so both "1h" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrGRPC              string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                   string         `json:"database_dsn"`
	SecretKey                     string         `json:"secret_key"`
	GrantValidityDuration         timex.Duration `json:"grant_validity_duration"`
	HeartbeatLinkValidityDuration timex.Duration `json:"heartbeat_link_validity_duration"`
	ReleaseTokenValidityDuration  timex.Duration `json:"release_token_validity_duration"`
	SchedulerInterval             timex.Duration `json:"scheduler_interval"`
	CollaboratorTimeout           timex.Duration `json:"collaborator_timeout"`
	S3RootUser                    string         `json:"s3_root_user"`
	S3RootPassword                string         `json:"s3_root_password"`
	S3Bucket                      string         `json:"s3_bucket"`
	S3Region                      string         `json:"s3_region"`
	S3BaseEndpoint                string         `json:"s3_base_endpoint"`
	PublicBaseURL                 string         `json:"public_base_url"`
	DefaultLanguage               string         `json:"default_language"`
	LogLevel                      string         `json:"log_level"`
	LogFormat                     string         `json:"log_format"`
}

// parseJson overlays the file named by -c/-config onto config. Fields that
// are absent or zero in the file keep their current value. A file that
// cannot be read or parsed is fatal and panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.GrantValidityDuration, c.GrantValidityDuration)
	setDuration(&config.HeartbeatLinkValidityDuration, c.HeartbeatLinkValidityDuration)
	setDuration(&config.ReleaseTokenValidityDuration, c.ReleaseTokenValidityDuration)
	setDuration(&config.SchedulerInterval, c.SchedulerInterval)
	setDuration(&config.CollaboratorTimeout, c.CollaboratorTimeout)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.PublicBaseURL, c.PublicBaseURL)
	setString(&config.DefaultLanguage, c.DefaultLanguage)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
