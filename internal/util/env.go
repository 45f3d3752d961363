package util

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from a .env file in the working directory.
// A missing file is not an error; variables already set in the process win.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
