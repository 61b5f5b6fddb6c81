package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/filevault/internal/flagx"
)

// JSONConfig is an intermediate DTO used only for reading JSON configuration
// files. Duration fields are whole seconds. After unmarshalling, its fields
// are copied into the runtime Config struct.
type JSONConfig struct {
	EndpointAddr      string `json:"endpoint_addr"`
	DatabaseDSN       string `json:"database_dsn"`
	RedisURL          string `json:"redis_url"`
	StoragePath       string `json:"storage_path"`
	BlobBackend       string `json:"blob_backend"`
	SessionTTLSeconds int64  `json:"session_ttl_seconds"`
	WorkerConcurrency int    `json:"worker_concurrency"`
	QueueMaxAttempts  int    `json:"queue_max_attempts"`
	QueueRetrySeconds int64  `json:"queue_retry_seconds"`
	S3RootUser        string `json:"s3_root_user"`
	S3RootPassword    string `json:"s3_root_password"`
	S3Bucket          string `json:"s3_bucket"`
	S3Region          string `json:"s3_region"`
	S3BaseEndpoint    string `json:"s3_base_endpoint"`
}

// parseJSON loads configuration values from an optional JSON file into the
// provided Config instance.
//
// The file path is taken from the -c or -config command-line flags; if
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics.
func parseJSON(config *Config) {
	jsonConfigFile := flagx.JSONConfigFlag()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JSONConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.RedisURL != "" {
		config.RedisURL = c.RedisURL
	}
	if c.StoragePath != "" {
		config.StoragePath = c.StoragePath
	}
	if c.BlobBackend != "" {
		config.BlobBackend = c.BlobBackend
	}
	if c.SessionTTLSeconds > 0 {
		config.SessionTTL = time.Duration(c.SessionTTLSeconds) * time.Second
	}
	if c.WorkerConcurrency > 0 {
		config.WorkerConcurrency = c.WorkerConcurrency
	}
	if c.QueueMaxAttempts > 0 {
		config.QueueMaxAttempts = c.QueueMaxAttempts
	}
	if c.QueueRetrySeconds > 0 {
		config.QueueRetryDelay = time.Duration(c.QueueRetrySeconds) * time.Second
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
}
