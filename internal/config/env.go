package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

// DotEnvFile is read from the working directory before the access token is
// resolved. Variables already set in the environment take precedence.
const DotEnvFile = ".env"

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = DotEnvFile
	}
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
