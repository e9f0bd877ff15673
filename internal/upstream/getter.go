package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

var (
	// ErrNetwork is returned when an upstream provider cannot be reached or the
	// response cannot be read.
	ErrNetwork = errors.New("upstream network error")

	// ErrUpstream is returned when an upstream provider answers with an error status.
	ErrUpstream = errors.New("upstream error status")
)

// Kind names the two upstream providers the service talks to.
type Kind int

const (
	KindWeather Kind = iota + 1
	KindLocation
)

func (k Kind) String() string {
	switch k {
	case KindWeather:
		return "weather"
	case KindLocation:
		return "location"
	default:
		return "unknown"
	}
}

// Response is the status and fully read body of a GET request.
type Response struct {
	StatusCode int
	Body       []byte
}

// Getter issues GET requests. It is the only capability provider clients need.
type Getter interface {
	Get(ctx context.Context, rawURL string) (*Response, error)
}

// HTTPGetter implements Getter over net/http with a fixed timeout.
type HTTPGetter struct {
	client *http.Client
}

// NewHTTPGetter returns an HTTPGetter whose requests time out after timeout.
func NewHTTPGetter(timeout time.Duration) *HTTPGetter {
	return &HTTPGetter{client: &http.Client{Timeout: timeout}}
}

// Get performs the request and reads the whole body. Non-2xx statuses are not
// errors here; provider clients decide what a status means.
// Errors never include rawURL because provider URLs carry credentials.
func (g *HTTPGetter) Get(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", redact(err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, redact(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrNetwork, err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// redact strips the request URL from *url.Error values.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Err
	}
	return err
}
