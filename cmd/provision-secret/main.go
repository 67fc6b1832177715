// Command provision-secret copies the four credentials from the local
// environment (and .env) into the managed secret store.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"notion-reminder/internal/config"
	"notion-reminder/internal/secrets"
	logx "notion-reminder/pkg/logx"
)

func main() {
	var (
		secretID string
		region   string
		dotenv   string
	)
	flag.StringVar(&secretID, "secret-id", config.DefaultSecretID, "secret name in Secrets Manager")
	flag.StringVar(&region, "region", "", "AWS region (default from AWS_REGION or "+config.DefaultRegion+")")
	flag.StringVar(&dotenv, "env-file", ".env", "dotenv file loaded before reading the environment")
	flag.Parse()

	log := logx.NewConsole("info").With(logx.String("comp", "provision"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, secretID, secrets.ResolveRegion(region, config.DefaultRegion), dotenv, log); err != nil {
		log.Error("provisioning failed", logx.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, secretID, region, dotenv string, log logx.Logger) error {
	creds, err := secrets.NewEnvSource(dotenv).Load(ctx)
	if err != nil {
		return err
	}
	api, err := secrets.NewSecretsClient(ctx, region)
	if err != nil {
		return err
	}
	if err := secrets.Push(ctx, api, secretID, creds); err != nil {
		return err
	}
	log.Info("secret updated", logx.String("secret_id", secretID), logx.String("region", region))
	return nil
}
