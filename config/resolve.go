package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables consulted when the image store settings are not configured explicitly.
const (
	EnvImageStoreHost     = "IMAGE_STORE_HOST"
	EnvImageStoreUsername = "IMAGE_STORE_USERNAME"
	EnvImageStorePassword = "IMAGE_STORE_PASSWORD"
)

// ValueSource yields a value and whether it is present.
type ValueSource func() (string, bool)

// Explicit is present when value is non-empty.
func Explicit(value string) ValueSource {
	return func() (string, bool) {
		return value, value != ""
	}
}

// Env is present when the environment variable is set to a non-empty value.
func Env(name string) ValueSource {
	return func() (string, bool) {
		value, ok := os.LookupEnv(name)
		return value, ok && value != ""
	}
}

// Resolve returns the value of the first present source, or "" when none is.
func Resolve(sources ...ValueSource) string {
	for _, source := range sources {
		if value, ok := source(); ok {
			return value
		}
	}
	return ""
}

// LoadEnvFile adds the variables in a dotenv file to the process environment.
// Variables that are already set are not overwritten. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat env file: %w", err)
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}
