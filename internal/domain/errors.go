package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks a missing or malformed option.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrEncryption marks a key generation, encryption or decryption failure.
	ErrEncryption = errors.New("encryption failure")
	// ErrDispatch marks a transfer method with no strategy behind it.
	ErrDispatch = errors.New("no strategy for transfer method")
	// ErrOrderingViolation marks a message that arrived out of sequence or
	// after the session ended. Such messages are discarded.
	ErrOrderingViolation = errors.New("ordering violation")
	// ErrTransferStarted is returned when a second transfer is started on a
	// session that already serves one.
	ErrTransferStarted = errors.New("transfer already started on this session")
)

// ConfigurationError names the offending option.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrConfiguration, e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrConfiguration.
func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }
