package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapGetenv(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func fullEnv() map[string]string {
	return map[string]string{
		KeyBotToken:    "bot",
		KeyChatID:      "42",
		KeyNotionToken: "secret_x",
		KeyDatabaseID:  "db",
	}
}

func TestEnvSourceLoad(t *testing.T) {
	src := &EnvSource{Getenv: mapGetenv(fullEnv())}
	c, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Credentials{BotToken: "bot", ChatID: "42", NotionToken: "secret_x", DatabaseID: "db"}, c)
}

func TestEnvSourceNamesEveryMissingField(t *testing.T) {
	env := fullEnv()
	delete(env, KeyChatID)
	env[KeyDatabaseID] = "   "

	_, err := (&EnvSource{Getenv: mapGetenv(env)}).Load(context.Background())

	var cerr *ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, []string{KeyChatID, KeyDatabaseID}, cerr.Missing)
	assert.Contains(t, err.Error(), "Telegram Chat ID (TELEGRAM_CHAT_ID)")
	assert.Contains(t, err.Error(), "Notion Database ID (NOTION_DATABASE_ID)")
}

func TestLoadDotEnvSkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("REMINDER_TEST_DOTENV=from-file\n"), 0o600))
	t.Setenv("REMINDER_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("REMINDER_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "absent.env"), path))
	assert.Equal(t, "from-file", os.Getenv("REMINDER_TEST_DOTENV"))
}

type fakeSecrets struct {
	value  *string
	err    error
	calls  int
	putIn  *secretsmanager.PutSecretValueInput
	putErr error
}

func (f *fakeSecrets) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{Name: in.SecretId, SecretString: f.value}, nil
}

func (f *fakeSecrets) PutSecretValue(_ context.Context, in *secretsmanager.PutSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error) {
	f.putIn = in
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &secretsmanager.PutSecretValueOutput{Name: in.SecretId}, nil
}

func TestAWSSourceLoad(t *testing.T) {
	api := &fakeSecrets{value: aws.String(`{"TELEGRAM_BOT_TOKEN":"bot","TELEGRAM_CHAT_ID":-1001,"NOTION_TOKEN":"n","NOTION_DATABASE_ID":"db"}`)}
	c, err := NewAWSSource(api, "lambda/notion-telegram-event-reminder").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "-1001", c.ChatID)
	assert.Equal(t, "db", c.DatabaseID)
}

func TestAWSSourceErrors(t *testing.T) {
	boom := errors.New("access denied")
	tests := []struct {
		name      string
		api       *fakeSecrets
		wantFetch bool
	}{
		{name: "call fails", api: &fakeSecrets{err: boom}, wantFetch: true},
		{name: "no string", api: &fakeSecrets{}, wantFetch: true},
		{name: "not json", api: &fakeSecrets{value: aws.String("TELEGRAM_BOT_TOKEN=x")}, wantFetch: true},
		{name: "missing keys", api: &fakeSecrets{value: aws.String(`{"TELEGRAM_BOT_TOKEN":"bot"}`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAWSSource(tt.api, "id").Load(context.Background())
			require.Error(t, err)
			var ferr *SecretsFetchError
			var cerr *ConfigurationError
			if tt.wantFetch {
				require.ErrorAs(t, err, &ferr)
				assert.Equal(t, "id", ferr.SecretID)
			} else {
				require.ErrorAs(t, err, &cerr)
				assert.Len(t, cerr.Missing, 3)
			}
		})
	}
	_, err := NewAWSSource(&fakeSecrets{err: boom}, "id").Load(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestCachedLoadsOnce(t *testing.T) {
	api := &fakeSecrets{value: aws.String(`{"TELEGRAM_BOT_TOKEN":"a","TELEGRAM_CHAT_ID":"b","NOTION_TOKEN":"c","NOTION_DATABASE_ID":"d"}`)}
	c := NewCached(NewAWSSource(api, "id"))

	first, err := c.Load(context.Background())
	require.NoError(t, err)
	second, err := c.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, api.calls)
	assert.Equal(t, "aws", c.Name())
}

func TestCachedRetriesAfterFetchFailure(t *testing.T) {
	api := &fakeSecrets{err: errors.New("throttled")}
	c := NewCached(NewAWSSource(api, "id"))

	_, err := c.Load(context.Background())
	var ferr *SecretsFetchError
	require.ErrorAs(t, err, &ferr)

	api.err = nil
	api.value = aws.String(`{"TELEGRAM_BOT_TOKEN":"a","TELEGRAM_CHAT_ID":"b","NOTION_TOKEN":"c","NOTION_DATABASE_ID":"d"}`)
	creds, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "d", creds.DatabaseID)
	assert.Equal(t, 2, api.calls)

	_, err = c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, api.calls)
}

func TestCachedKeepsConfigurationError(t *testing.T) {
	api := &fakeSecrets{value: aws.String(`{"TELEGRAM_BOT_TOKEN":"bot"}`)}
	c := NewCached(NewAWSSource(api, "id"))

	_, err := c.Load(context.Background())
	var cerr *ConfigurationError
	require.ErrorAs(t, err, &cerr)

	_, err = c.Load(context.Background())
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 1, api.calls)
}

func TestPush(t *testing.T) {
	api := &fakeSecrets{}
	creds := Credentials{BotToken: "a", ChatID: "b", NotionToken: "c", DatabaseID: "d"}
	require.NoError(t, Push(context.Background(), api, "lambda/notion-telegram-event-reminder", creds))

	require.NotNil(t, api.putIn)
	assert.Equal(t, "lambda/notion-telegram-event-reminder", aws.ToString(api.putIn.SecretId))
	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(api.putIn.SecretString)), &got))
	assert.Equal(t, creds.Map(), got)

	api.putErr = errors.New("throttled")
	assert.Error(t, Push(context.Background(), api, "id", creds))
}

func TestResolveMode(t *testing.T) {
	t.Setenv("ENVIRONMENT", "lambda")
	assert.Equal(t, ModeAWS, ResolveMode(""))
	assert.Equal(t, ModeEnv, ResolveMode("env"))

	t.Setenv("ENVIRONMENT", "local")
	assert.Equal(t, ModeEnv, ResolveMode(""))
	assert.Equal(t, ModeAWS, ResolveMode(" AWS "))
}

func TestResolveRegion(t *testing.T) {
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")
	assert.Equal(t, "eu-north-1", ResolveRegion("", "eu-north-1"))

	t.Setenv("AWS_DEFAULT_REGION", "us-east-1")
	assert.Equal(t, "us-east-1", ResolveRegion("", "eu-north-1"))
	assert.Equal(t, "eu-west-1", ResolveRegion("eu-west-1", "eu-north-1"))
}
