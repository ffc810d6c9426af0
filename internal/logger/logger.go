package logger

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// RequestIDHeader is logged with every outbound request when present.
const RequestIDHeader = "X-Request-Id"

func Setup(dev bool) zerolog.Logger {
	var logger zerolog.Logger
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	return logger
}

var _ http.RoundTripper = (*Requests)(nil)

// Requests logs every outbound HTTP request made through it.
// Successful calls are logged at debug, failures and non-2xx responses at warn.
type Requests struct {
	logger zerolog.Logger
	next   http.RoundTripper
}

func NewRequests(logger zerolog.Logger, next http.RoundTripper) *Requests {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Requests{logger: logger, next: next}
}

func (r *Requests) RoundTrip(req *http.Request) (*http.Response, error) {
	started := time.Now()

	logger := r.logger.With().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("request_id", req.Header.Get(RequestIDHeader)).
		Logger()

	resp, err := r.next.RoundTrip(req)
	if err != nil {
		logger.Warn().
			Err(err).
			Dur("duration", time.Since(started)).
			Msg("http call")

		return resp, err
	}

	ev := logger.Debug()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ev = logger.Warn()
	}

	ev.Int("status", resp.StatusCode).
		Bool("cached", resp.Header.Get("X-From-Cache") == "1").
		Dur("duration", time.Since(started)).
		Msg("http call")

	return resp, nil
}
