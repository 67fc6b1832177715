package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"notion-reminder/internal/app"
)

var version = "dev"

func main() {
	// Credentials are fetched on the first invocation and cached for the
	// lifetime of the instance.
	a, err := app.New(context.Background(), app.Options{
		ConfigPath: os.Getenv("REMINDER_CONFIG"),
		Release:    version,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
	lambda.Start(a.Handle)
}
