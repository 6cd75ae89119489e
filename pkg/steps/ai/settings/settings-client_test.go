package settings

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserAgentServer(t *testing.T) (*httptest.Server, chan string) {
	t.Helper()
	got := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)
	return server, got
}

func TestMakeHTTPClientSetsUserAgent(t *testing.T) {
	server, got := newUserAgentServer(t)

	userAgent := "grillo-test/1.0"
	cs := NewClientSettings()
	cs.UserAgent = &userAgent

	client := cs.MakeHTTPClient()
	assert.Equal(t, 60*time.Second, client.Timeout)

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "grillo-test/1.0", <-got)
}

func TestMakeHTTPClientKeepsConfiguredClient(t *testing.T) {
	server, got := newUserAgentServer(t)

	userAgent := "grillo-test/2.0"
	cs := NewClientSettings()
	cs.HTTPClient = &http.Client{Timeout: 5 * time.Second}
	cs.UserAgent = &userAgent

	client := cs.MakeHTTPClient()
	assert.Equal(t, 5*time.Second, client.Timeout)
	// the configured client itself is not modified
	assert.Nil(t, cs.HTTPClient.Transport)

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "grillo-test/2.0", <-got)
}

func TestMakeHTTPClientWithoutUserAgent(t *testing.T) {
	cs := NewClientSettings()
	client := cs.MakeHTTPClient()
	assert.Nil(t, client.Transport)

	var nilSettings *ClientSettings
	assert.Equal(t, DefaultTimeout, nilSettings.MakeHTTPClient().Timeout)
}

func TestUpdateFromViperUserAgent(t *testing.T) {
	v := viper.New()
	v.Set("user-agent", "grillo/dev")

	s := NewSettings()
	s.UpdateFromViper(v)
	require.NotNil(t, s.Client.UserAgent)
	assert.Equal(t, "grillo/dev", *s.Client.UserAgent)
}
