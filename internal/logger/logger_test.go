package logger

import (
	"bytes"
	"log/slog"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLevel(t *testing.T) {
	defer SetLevel("info")

	SetLevel("debug")
	assert.Equal(t, slog.LevelDebug, Level())
	SetLevel("WARNING")
	assert.Equal(t, slog.LevelWarn, Level())
	SetLevel("nonsense")
	assert.Equal(t, slog.LevelInfo, Level())
}

func TestComponentWritesAttribute(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	With("auth").Infof("token refreshed in %dms", 12)

	out := buf.String()
	assert.Contains(t, out, "component=auth")
	assert.Contains(t, out, "token refreshed in 12ms")
}

func TestDebugSuppressedAtInfo(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)
	SetLevel("info")

	Debugf("hidden")
	assert.Empty(t, buf.String())
}

func TestWireDumpRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	SetWireWriter(&buf)
	EnableWireBodyDump(true)
	defer func() {
		SetWireWriter(nil)
		EnableWireBodyDump(false)
	}()

	h := http.Header{}
	h.Set("Authorization", "Basic c2VjcmV0")
	h.Set("Content-Type", "application/x-www-form-urlencoded")
	LogWireRequest("POST", "/v1/oauth/token", h, []byte("grant_type=refresh_token&refresh_token=r-123"))
	LogWireResponse("POST", "/v1/oauth/token", 200, []byte(`{"access_token":"a-456","refresh_token": "r-789","expires_in":1800}`))

	out := buf.String()
	assert.NotContains(t, out, "c2VjcmV0")
	assert.NotContains(t, out, "r-123")
	assert.NotContains(t, out, "a-456")
	assert.NotContains(t, out, "r-789")
	assert.Contains(t, out, "grant_type=refresh_token")
	assert.Contains(t, out, `"expires_in":1800`)
}

func TestWireDumpDisabledByDefault(t *testing.T) {
	SetWireWriter(nil)
	// Must not panic without a writer.
	LogWireRequest("GET", "/x", nil, nil)
}

func TestSetFormatSwitchesHandler(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer func() {
		SetFormat("text")
		SetOutput(os.Stdout)
	}()

	SetFormat("JSON")
	With("trading").Infof("order %s accepted", "1001")
	assert.Contains(t, buf.String(), `"component":"trading"`)
	assert.Contains(t, buf.String(), `"msg":"order 1001 accepted"`)
}

func TestRedactTokensHandlesLayout(t *testing.T) {
	body := `{"access_token" : "a\"b-1", "nested": {"refresh_token":"r-2"}, "list": [{"id_token": "i-3"}], "note": "a\"b-1"}`
	out := redactTokens(body)

	assert.NotContains(t, out, `a\"b-1", "nested"`)
	assert.NotContains(t, out, "r-2")
	assert.NotContains(t, out, "i-3")
	assert.Contains(t, out, `"access_token" : "***"`)
	// A copy of a secret is masked wherever it appears as a value.
	assert.Contains(t, out, `"note": "***"`)
}

func TestRedactTokensKeepsNonJSON(t *testing.T) {
	assert.Equal(t, "<html>bad gateway</html>", redactTokens("<html>bad gateway</html>"))
}
