package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

type Mode string

const (
	ModeEnv Mode = "env"
	ModeAWS Mode = "aws"
)

// ResolveMode picks the backing store. An explicit setting wins; otherwise
// ENVIRONMENT=lambda (set by the deployed function) selects the secret store.
func ResolveMode(explicit string) Mode {
	switch strings.ToLower(strings.TrimSpace(explicit)) {
	case "aws":
		return ModeAWS
	case "env":
		return ModeEnv
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv("ENVIRONMENT")), "lambda") {
		return ModeAWS
	}
	return ModeEnv
}

// Options configures NewSource.
type Options struct {
	Mode     Mode
	SecretID string
	Region   string
	DotEnv   []string
}

// NewSource returns the cached Source for the selected mode.
func NewSource(ctx context.Context, opt Options) (*Cached, error) {
	switch opt.Mode {
	case ModeAWS:
		api, err := NewSecretsClient(ctx, opt.Region)
		if err != nil {
			return nil, &SecretsFetchError{SecretID: opt.SecretID, Err: err}
		}
		return NewCached(NewAWSSource(api, opt.SecretID)), nil
	case ModeEnv, "":
		return NewCached(NewEnvSource(opt.DotEnv...)), nil
	default:
		return nil, fmt.Errorf("unknown secrets mode %q", opt.Mode)
	}
}
