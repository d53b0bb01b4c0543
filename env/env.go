package env

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
)

// GetIntEnv gets an integer value from the environment and parses it
func GetIntEnv(name string, varName string) (int, error) {
	value, err := GetEnv(name, varName)
	if err != nil {
		return 0, err
	}

	asInt, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("environment variable value '%s' invalid for the %s ('%s'): %w",
			value, name, varName, err)
	}

	return asInt, nil
}

// GetDurationEnv gets a duration value from the environment and parses it
func GetDurationEnv(name string, varName string) (time.Duration, error) {
	value, err := GetEnv(name, varName)
	if err != nil {
		return 0, err
	}

	asDuration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("environment variable value '%s' invalid for the %s ('%s'): %w",
			value, name, varName, err)
	}

	return asDuration, nil
}

// GetBytesEnv gets a byte size value (such as "512KB") from the environment and parses it
func GetBytesEnv(name string, varName string) (datasize.ByteSize, error) {
	value, err := GetEnv(name, varName)
	if err != nil {
		return 0, err
	}

	var size datasize.ByteSize
	err = size.UnmarshalText([]byte(value))
	if err != nil {
		return 0, fmt.Errorf("environment variable value '%s' invalid for the %s ('%s'): %w",
			value, name, varName, err)
	}

	return size, nil
}

// GetEnv gets a string value from the environment
func GetEnv(name string, varName string) (string, error) {
	value, exists := os.LookupEnv(varName)
	if !exists {
		return "", fmt.Errorf("no environment variable found for the %s ('%s')", name, varName)
	}

	return strings.TrimSpace(value), nil
}

// GetEnvDefault gets a string value from the environment,
// falling back to the given default if it is unset or blank
func GetEnvDefault(varName string, fallback string) string {
	if value, ok := os.LookupEnv(varName); ok {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}

	return fallback
}

// GetIntEnvDefault is GetIntEnv with a fallback for unset variables.
// Set but malformed values are still reported as errors
func GetIntEnvDefault(name string, varName string, fallback int) (int, error) {
	if _, ok := os.LookupEnv(varName); !ok {
		return fallback, nil
	}

	return GetIntEnv(name, varName)
}

// GetDurationEnvDefault is GetDurationEnv with a fallback for unset variables
func GetDurationEnvDefault(name string, varName string, fallback time.Duration) (time.Duration, error) {
	if _, ok := os.LookupEnv(varName); !ok {
		return fallback, nil
	}

	return GetDurationEnv(name, varName)
}

// GetBytesEnvDefault is GetBytesEnv with a fallback for unset variables
func GetBytesEnvDefault(name string, varName string, fallback datasize.ByteSize) (datasize.ByteSize, error) {
	if _, ok := os.LookupEnv(varName); !ok {
		return fallback, nil
	}

	return GetBytesEnv(name, varName)
}
