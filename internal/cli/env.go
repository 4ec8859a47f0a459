// Package cli holds small helpers shared by the command-line entrypoints
package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// EnvFlag registers an -env flag on fs (or flag.CommandLine when nil) and
// returns a loader for it
func EnvFlag(fs *flag.FlagSet) *EnvLoader {
	if fs == nil {
		fs = flag.CommandLine
	}
	return &EnvLoader{
		path: fs.String("env", ".env", "path to an env file; missing default is ignored"),
	}
}

// EnvLoader loads an env file without overriding variables already set in
// the process environment
type EnvLoader struct {
	path *string
}

// Load applies the env file. A missing file is only an error when the path
// was set explicitly
func (l *EnvLoader) Load() error {
	path := *l.path
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && path == ".env" {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}
