package app

import (
	"context"
	"net/http"
	"runtime/debug"

	"github.com/aws/aws-lambda-go/events"

	logx "notion-reminder/pkg/logx"
)

const (
	BodyOK    = "Events processed successfully."
	BodyError = "Internal Server Error"
)

// Response is the function result returned to the cloud runtime.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// Handle is the timer-triggered cloud function entry point. It answers 200
// whenever the run started, even if single selectors failed, and 500 when
// the run could not start or panicked.
func (a *App) Handle(ctx context.Context, ev events.CloudWatchEvent) (resp Response, err error) {
	log := a.log
	if ev.ID != "" {
		log = log.With(logx.String("event_id", ev.ID))
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("run panicked", logx.Any("panic", r), logx.Stack(string(debug.Stack())))
			a.report.CapturePanic(r, map[string]string{"stage": "handler"})
			resp, err = Response{StatusCode: http.StatusInternalServerError, Body: BodyError}, nil
		}
		a.report.Flush(flushTimeout)
	}()

	log.Info("invoked", logx.String("source", ev.Source), logx.Any("time", ev.Time))
	if _, err := a.RunOnce(ctx); err != nil {
		log.Error("run failed", logx.Err(err))
		return Response{StatusCode: http.StatusInternalServerError, Body: BodyError}, nil
	}
	return Response{StatusCode: http.StatusOK, Body: BodyOK}, nil
}
