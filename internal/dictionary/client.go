package dictionary

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// DefaultBaseURL is the root of the public Free Dictionary API.
const DefaultBaseURL = "https://api.dictionaryapi.dev/api/v2/entries/en"

const userAgent = "dictionary-app/1.0"

// Outcome is the result of a single lookup. At most one of Payload or Failure is set; a
// successful lookup whose body is null carries neither.
type Outcome struct {
	Word     string
	Payload  *Payload
	Failure  *Failure
	Duration time.Duration
}

// Lookuper performs definition lookups.
type Lookuper interface {
	Lookup(ctx context.Context, word string) Outcome
}

// ClientOptions controls how the definition client is initialised.
type ClientOptions struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// Client talks to the definition service over HTTP.
type Client struct {
	http    *resty.Client
	baseURL string
	logger  *logrus.Logger
}

var _ Lookuper = (*Client)(nil)

// NewClient constructs a Client. A zero Timeout leaves requests unbounded.
func NewClient(opts ClientOptions) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, eris.Errorf("dictionary base url must be absolute: %s", baseURL)
	}
	if opts.Timeout < 0 {
		return nil, eris.New("dictionary timeout must not be negative")
	}

	var httpClient *resty.Client
	if opts.HTTPClient != nil {
		httpClient = resty.NewWithClient(opts.HTTPClient)
	} else {
		httpClient = resty.New()
	}

	httpClient.
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)

	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}
	if opts.Logger != nil {
		httpClient.SetLogger(opts.Logger)
	}

	return &Client{
		http:    httpClient,
		baseURL: baseURL,
		logger:  opts.Logger,
	}, nil
}

// BaseURL returns the configured service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Lookup issues GET {baseURL}/{word}. The word is interpolated as-is, without percent-encoding.
func (c *Client) Lookup(ctx context.Context, word string) Outcome {
	start := time.Now()
	outcome := Outcome{Word: word}

	requestURL := c.baseURL + "/" + word
	c.debug(logrus.Fields{"word": word, "url": requestURL}, "definition request")

	resp, err := c.http.R().
		SetContext(ctx).
		Get(requestURL)
	outcome.Duration = time.Since(start)
	if err != nil {
		outcome.Failure = newTransportFailure(eris.Wrap(err, "requesting definition"))
		c.debug(logrus.Fields{"word": word, "error": err.Error()}, "definition request failed")
		return outcome
	}

	body := resp.Body()
	if !json.Valid(body) {
		outcome.Failure = newTransportFailure(eris.Errorf("decoding response body: invalid JSON (status %d)", resp.StatusCode()))
		c.debug(logrus.Fields{"word": word, "status": resp.StatusCode()}, "definition response is not json")
		return outcome
	}

	if resp.IsSuccess() {
		outcome.Payload = newPayload(body)
	} else {
		outcome.Failure = newServiceFailure(resp.StatusCode(), body)
	}

	c.debug(logrus.Fields{
		"word":        word,
		"status":      resp.StatusCode(),
		"duration_ms": float64(outcome.Duration.Microseconds()) / 1000,
	}, "definition response")

	return outcome
}

func (c *Client) debug(fields logrus.Fields, message string) {
	if c.logger == nil {
		return
	}
	c.logger.WithFields(fields).Debug(message)
}
