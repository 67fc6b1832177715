package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"notion-reminder/internal/app"
	logx "notion-reminder/pkg/logx"
)

var version = "dev"

func main() {
	var (
		cfgPath string
		daemon  bool
	)
	flag.StringVar(&cfgPath, "config", "", "path to settings file (json or yaml)")
	flag.BoolVar(&daemon, "daemon", false, "stay running and trigger on the configured schedule")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, app.Options{ConfigPath: cfgPath, DotEnv: []string{".env"}, Release: version})
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}

	if daemon {
		err = a.RunDaemon(ctx)
	} else {
		_, err = a.RunOnce(ctx)
	}
	if err != nil {
		a.Logger().Error("fatal", logx.Err(err))
		_ = a.Close()
		os.Exit(1)
	}
	_ = a.Close()
}
