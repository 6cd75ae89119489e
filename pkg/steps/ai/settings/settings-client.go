package settings

import (
	"net/http"
	"time"

	"github.com/huandu/go-clone"
)

const DefaultTimeout = 60 * time.Second

type ClientSettings struct {
	// TimeoutSeconds bounds a single provider request. Expiry fails the turn, it is not retried.
	TimeoutSeconds *int         `yaml:"timeout,omitempty"`
	UserAgent      *string      `yaml:"user_agent,omitempty"`
	HTTPClient     *http.Client `yaml:"-" json:"-"`
}

func NewClientSettings() *ClientSettings {
	timeout := int(DefaultTimeout.Seconds())
	return &ClientSettings{
		TimeoutSeconds: &timeout,
	}
}

func (cs *ClientSettings) Clone() *ClientSettings {
	httpClient := cs.HTTPClient
	ret := clone.Clone(&ClientSettings{
		TimeoutSeconds: cs.TimeoutSeconds,
		UserAgent:      cs.UserAgent,
	}).(*ClientSettings)
	ret.HTTPClient = httpClient
	return ret
}

func (cs *ClientSettings) GetTimeout() time.Duration {
	if cs == nil || cs.TimeoutSeconds == nil || *cs.TimeoutSeconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(*cs.TimeoutSeconds) * time.Second
}

// MakeHTTPClient returns the configured client, or a new one bounded by the timeout.
// A configured user agent is set on every request of either.
func (cs *ClientSettings) MakeHTTPClient() *http.Client {
	client := &http.Client{Timeout: cs.GetTimeout()}
	if cs != nil && cs.HTTPClient != nil {
		c := *cs.HTTPClient
		client = &c
	}
	if cs != nil && cs.UserAgent != nil && *cs.UserAgent != "" {
		client.Transport = &userAgentTransport{
			userAgent: *cs.UserAgent,
			next:      client.Transport,
		}
	}
	return client
}

type userAgentTransport struct {
	userAgent string
	next      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return next.RoundTrip(req)
}
