package secrets

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// EnvSource reads credentials from the process environment. Files listed in
// DotEnv are loaded first when they exist; they never override variables
// that are already set.
type EnvSource struct {
	DotEnv []string
	Getenv func(string) string
}

func NewEnvSource(dotenv ...string) *EnvSource {
	return &EnvSource{DotEnv: dotenv, Getenv: os.Getenv}
}

func (s *EnvSource) Name() string { return "env" }

func (s *EnvSource) Load(ctx context.Context) (Credentials, error) {
	if err := LoadDotEnv(s.DotEnv...); err != nil {
		return Credentials{}, err
	}
	get := s.Getenv
	if get == nil {
		get = os.Getenv
	}
	return fromLookup(get)
}

// LoadDotEnv loads each existing file into the environment.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return err
		}
	}
	return nil
}
