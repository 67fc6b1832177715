// Package secrets loads the four credentials the reminder needs, either from
// the process environment or from a JSON blob in AWS Secrets Manager.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Credential keys. The same names are used as environment variables and as
// keys of the JSON secret blob.
const (
	KeyBotToken    = "TELEGRAM_BOT_TOKEN"
	KeyChatID      = "TELEGRAM_CHAT_ID"
	KeyNotionToken = "NOTION_TOKEN"
	KeyDatabaseID  = "NOTION_DATABASE_ID"
)

var fields = []struct {
	key  string
	desc string
}{
	{KeyBotToken, "Telegram Bot Token"},
	{KeyChatID, "Telegram Chat ID"},
	{KeyNotionToken, "Notion API Token"},
	{KeyDatabaseID, "Notion Database ID"},
}

// Credentials is immutable once loaded.
type Credentials struct {
	BotToken    string
	ChatID      string
	NotionToken string
	DatabaseID  string
}

// Map returns the credentials keyed like the environment/secret blob.
func (c Credentials) Map() map[string]string {
	return map[string]string{
		KeyBotToken:    c.BotToken,
		KeyChatID:      c.ChatID,
		KeyNotionToken: c.NotionToken,
		KeyDatabaseID:  c.DatabaseID,
	}
}

// ConfigurationError names every required value that was absent or empty.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	parts := make([]string, 0, len(e.Missing))
	for _, key := range e.Missing {
		parts = append(parts, describe(key)+" ("+key+")")
	}
	return "missing required configuration: " + strings.Join(parts, ", ")
}

// SecretsFetchError is returned when the secret store call fails or its
// content cannot be decoded.
type SecretsFetchError struct {
	SecretID string
	Err      error
}

func (e *SecretsFetchError) Error() string {
	return fmt.Sprintf("fetch secret %q: %v", e.SecretID, e.Err)
}

func (e *SecretsFetchError) Unwrap() error { return e.Err }

func describe(key string) string {
	for _, f := range fields {
		if f.key == key {
			return f.desc
		}
	}
	return key
}

// fromLookup builds Credentials from a key lookup, collecting every missing key.
func fromLookup(get func(string) string) (Credentials, error) {
	var missing []string
	val := func(key string) string {
		v := strings.TrimSpace(get(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	c := Credentials{
		BotToken:    val(KeyBotToken),
		ChatID:      val(KeyChatID),
		NotionToken: val(KeyNotionToken),
		DatabaseID:  val(KeyDatabaseID),
	}
	if len(missing) > 0 {
		return Credentials{}, &ConfigurationError{Missing: missing}
	}
	return c, nil
}

// Source produces validated credentials.
type Source interface {
	Name() string
	Load(ctx context.Context) (Credentials, error)
}

// Cached loads from its Source until a load succeeds, then returns that
// result for the rest of the process. A ConfigurationError is kept too;
// fetch failures are retried on the next call.
type Cached struct {
	src Source

	mu     sync.Mutex
	loaded bool
	c      Credentials
	err    error
}

func NewCached(src Source) *Cached { return &Cached{src: src} }

func (c *Cached) Name() string { return c.src.Name() }

func (c *Cached) Load(ctx context.Context) (Credentials, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.c, c.err
	}
	creds, err := c.src.Load(ctx)
	var cerr *ConfigurationError
	if err == nil || errors.As(err, &cerr) {
		c.loaded, c.c, c.err = true, creds, err
	}
	return creds, err
}
