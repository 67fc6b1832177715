// Package telegram delivers digests through the Telegram Bot API.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"notion-reminder/internal/observability/metrics"
	logx "notion-reminder/pkg/logx"
)

const (
	DefaultAPIURL    = "https://api.telegram.org"
	DefaultParseMode = "Markdown"
)

type Config struct {
	Token  string
	ChatID string

	APIURL     string
	ParseMode  string
	Timeout    time.Duration
	RatePerSec int

	// Extra holds sendMessage parameters added to every message
	// (e.g. "disable_notification": true).
	Extra map[string]any
}

// Options overrides per call. Extra is merged over Config.Extra.
type Options struct {
	ParseMode string
	Extra     map[string]any
}

// DeliveryError reports a failed sendMessage call.
type DeliveryError struct {
	Code        int
	Description string
	Err         error
}

func (e *DeliveryError) Error() string {
	switch {
	case e.Description != "":
		return fmt.Sprintf("failed to send message: %s (code=%d)", e.Description, e.Code)
	case e.Err != nil:
		return "failed to send message: " + e.Err.Error()
	default:
		return "failed to send message"
	}
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Messenger sends text messages to one chat. Sends are paced by a shared
// limiter so concurrent pipelines stay under Telegram's per-chat limits.
type Messenger struct {
	cfg     Config
	bot     *tele.Bot
	limiter *rate.Limiter
	log     logx.Logger
}

func New(cfg Config, log logx.Logger) (*Messenger, error) {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.ParseMode == "" {
		cfg.ParseMode = DefaultParseMode
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	m := &Messenger{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		log:     log,
	}

	if strings.TrimSpace(cfg.Token) == "" {
		return m, nil
	}
	// Offline: the bot is only used to issue API calls, so skip getMe.
	b, err := tele.NewBot(tele.Settings{
		URL:     strings.TrimRight(cfg.APIURL, "/"),
		Token:   cfg.Token,
		Client:  &http.Client{Timeout: cfg.Timeout},
		Offline: true,
	})
	if err != nil {
		return nil, err
	}
	m.bot = b
	return m, nil
}

func (m *Messenger) Send(ctx context.Context, text string) error {
	return m.SendWith(ctx, text, Options{})
}

// SendWith sends text once. Missing credentials or empty text are logged and
// skipped without error; a failed call returns a *DeliveryError.
func (m *Messenger) SendWith(ctx context.Context, text string, opt Options) error {
	if m.bot == nil || strings.TrimSpace(m.cfg.ChatID) == "" {
		m.log.Error("telegram bot token or chat id is missing; message not sent")
		return nil
	}
	if strings.TrimSpace(text) == "" {
		m.log.Error("refusing to send empty message")
		return nil
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return &DeliveryError{Err: err}
	}

	payload := m.payload(text, opt)
	data, err := m.bot.Raw("sendMessage", payload)
	if err == nil {
		err = checkResponse(data)
	}
	if err != nil {
		metrics.MessageSent(false)
		derr := asDeliveryError(err)
		m.log.Error("error sending message to telegram", logx.Err(derr))
		return derr
	}

	metrics.MessageSent(true)
	m.log.Info("message sent", logx.Int("chars", len([]rune(text))))
	return nil
}

func (m *Messenger) payload(text string, opt Options) map[string]any {
	p := make(map[string]any, 3+len(m.cfg.Extra)+len(opt.Extra))
	p["parse_mode"] = m.cfg.ParseMode
	if opt.ParseMode != "" {
		p["parse_mode"] = opt.ParseMode
	}
	for k, v := range m.cfg.Extra {
		p[k] = v
	}
	for k, v := range opt.Extra {
		p[k] = v
	}
	p["chat_id"] = m.cfg.ChatID
	p["text"] = text
	return p
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

func checkResponse(data []byte) error {
	var out apiResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return &DeliveryError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if !out.OK {
		return &DeliveryError{Code: out.ErrorCode, Description: out.Description}
	}
	return nil
}

func asDeliveryError(err error) *DeliveryError {
	var derr *DeliveryError
	if errors.As(err, &derr) {
		return derr
	}
	return &DeliveryError{Err: err}
}
