package marketplace

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Option configures a marketplace client
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	clock      func() time.Time
	logger     *zap.Logger
	recorder   RequestRecorder
}

// WithHTTPClient replaces the HTTP client, e.g. to point at a fake transport
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithClock replaces the clock used for token expiry
func WithClock(clock func() time.Time) Option {
	return func(o *clientOptions) {
		o.clock = clock
	}
}

// WithLogger sets the logger for request failures
func WithLogger(logger *zap.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithMetrics records the latency and outcome of every inventory call
func WithMetrics(recorder RequestRecorder) Option {
	return func(o *clientOptions) {
		o.recorder = recorder
	}
}

func buildOptions(timeoutSeconds int, opts []Option) clientOptions {
	o := clientOptions{
		clock:  time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second}
	}
	return o
}
