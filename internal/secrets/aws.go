package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsAPI is the part of the Secrets Manager client used here.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	PutSecretValue(ctx context.Context, in *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
}

// NewSecretsClient builds a Secrets Manager client from the default AWS
// credential chain.
func NewSecretsClient(ctx context.Context, region string) (*secretsmanager.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

// ResolveRegion picks the explicit region, then AWS_REGION, then
// AWS_DEFAULT_REGION, then def.
func ResolveRegion(explicit, def string) string {
	for _, r := range []string{explicit, os.Getenv("AWS_REGION"), os.Getenv("AWS_DEFAULT_REGION")} {
		if r = strings.TrimSpace(r); r != "" {
			return r
		}
	}
	return def
}

// AWSSource reads a single JSON secret holding the four credential keys.
type AWSSource struct {
	api      SecretsAPI
	secretID string
}

func NewAWSSource(api SecretsAPI, secretID string) *AWSSource {
	return &AWSSource{api: api, secretID: secretID}
}

func (s *AWSSource) Name() string { return "aws" }

func (s *AWSSource) Load(ctx context.Context) (Credentials, error) {
	out, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.secretID),
	})
	if err != nil {
		return Credentials{}, &SecretsFetchError{SecretID: s.secretID, Err: err}
	}
	raw := aws.ToString(out.SecretString)
	if strings.TrimSpace(raw) == "" {
		return Credentials{}, &SecretsFetchError{SecretID: s.secretID, Err: errors.New("secret has no string value")}
	}

	var blob map[string]any
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		return Credentials{}, &SecretsFetchError{SecretID: s.secretID, Err: fmt.Errorf("decode secret: %w", err)}
	}
	return fromLookup(func(key string) string {
		switch v := blob[key].(type) {
		case string:
			return v
		case float64:
			// chat ids are sometimes stored as JSON numbers
			return strconv.FormatFloat(v, 'f', -1, 64)
		default:
			return ""
		}
	})
}

// Push writes the credentials as the JSON secret value. It is the
// provisioning counterpart of AWSSource.Load.
func Push(ctx context.Context, api SecretsAPI, secretID string, c Credentials) error {
	b, err := json.Marshal(c.Map())
	if err != nil {
		return err
	}
	_, err = api.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(secretID),
		SecretString: aws.String(string(b)),
	})
	if err != nil {
		return fmt.Errorf("put secret %q: %w", secretID, err)
	}
	return nil
}
