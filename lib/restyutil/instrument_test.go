package restyutil

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	mutex    sync.Mutex
	messages map[string]string
}

func (o *memoryOutput) Write(id string, contents string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if o.messages == nil {
		o.messages = map[string]string{}
	}
	o.messages[id] = contents
}

func withDebugLogging(t testing.TB) {
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() {
		slog.SetDefault(previous)
	})
}

func TestInstrumentClientWritesExchange(t *testing.T) {
	withDebugLogging(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	output := &memoryOutput{}
	client := resty.New()
	client.SetAuthToken("secret-token")
	InstrumentClient(client, nil, output)

	res, err := client.R().
		SetContext(context.Background()).
		SetBody([]byte(`{"query":"{}"}`)).
		Post(server.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode())

	require.Len(t, output.messages, 1)
	dump := output.messages["1"]
	require.Contains(t, dump, "---- REQUEST ----")
	require.Contains(t, dump, `{"query":"{}"}`)
	require.Contains(t, dump, `{"ok":true}`)
	require.Contains(t, dump, "Authorization: <redacted>")
	require.False(t, strings.Contains(dump, "secret-token"))
}

func TestInstrumentClientWithoutOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	client := resty.New()
	InstrumentClient(client, nil, nil)

	res, err := client.R().Get(server.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusTeapot, res.StatusCode())
}

func TestFormatHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Add("X-B", "2")
	headers.Add("X-A", "1")
	headers.Add("Cookie", "session=abc")

	require.Equal(t, "Cookie: <redacted>\nX-A: 1\nX-B: 2", formatHeaders(headers))
	require.Equal(t, "", formatHeaders(http.Header{}))
}
