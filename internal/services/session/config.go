package session

import (
	"time"

	"covertchan/internal/crypto"
	"covertchan/internal/domain"
)

// DefaultConfiguration returns the settings every session starts from.
func DefaultConfiguration() domain.Configuration {
	return domain.Configuration{
		Method:            domain.MethodEndpoint,
		DataType:          domain.DataTypeText,
		ChunkSize:         5000,
		EncryptionEnabled: true,
		PingInterval:      time.Second,
		Debug:             true,
	}
}

// ResolveConfiguration merges o over the defaults (caller values win) and
// validates the result.
func ResolveConfiguration(o domain.Overrides) (domain.Configuration, error) {
	cfg := DefaultConfiguration()
	if o.Method != nil {
		cfg.Method = *o.Method
	}
	if o.DataType != nil {
		cfg.DataType = *o.DataType
	}
	if o.ChunkSize != nil {
		cfg.ChunkSize = *o.ChunkSize
	}
	if o.EncryptionEnabled != nil {
		cfg.EncryptionEnabled = *o.EncryptionEnabled
	}
	if o.PingInterval != nil {
		cfg.PingInterval = *o.PingInterval
	}
	if o.Debug != nil {
		cfg.Debug = *o.Debug
	}
	if o.Key != nil || o.IV != nil {
		cfg.Key = append([]byte(nil), o.Key...)
		cfg.IV = append([]byte(nil), o.IV...)
	}
	if err := Validate(cfg); err != nil {
		return domain.Configuration{}, err
	}
	return cfg, nil
}

// Validate checks cfg against the option contract.
func Validate(cfg domain.Configuration) error {
	switch {
	case !cfg.Method.Valid():
		return &domain.ConfigurationError{Field: "method", Reason: "unknown method " + string(cfg.Method)}
	case !cfg.DataType.Valid():
		return &domain.ConfigurationError{Field: "dataType", Reason: "unknown data type " + string(cfg.DataType)}
	case cfg.ChunkSize <= 0:
		return &domain.ConfigurationError{Field: "chunkSize", Reason: "must be positive"}
	case cfg.PingInterval <= 0:
		return &domain.ConfigurationError{Field: "pingInterval", Reason: "must be positive"}
	}
	if cfg.Key == nil && cfg.IV == nil {
		return nil
	}
	switch {
	case !cfg.EncryptionEnabled:
		return &domain.ConfigurationError{Field: "key", Reason: "supplied while encryption is disabled"}
	case len(cfg.Key) != crypto.KeyBytes:
		return &domain.ConfigurationError{Field: "key", Reason: "has the wrong length"}
	case len(cfg.IV) != crypto.IVBytes:
		return &domain.ConfigurationError{Field: "iv", Reason: "has the wrong length"}
	}
	return nil
}
