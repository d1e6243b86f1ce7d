package observability

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger builds the process logger: readable text at debug level in dev,
// JSON at info elsewhere. Use the *Context methods to get trace ids and the
// caller email attached.
func NewLogger(env string) *slog.Logger {
	return newLogger(os.Stdout, env)
}

func newLogger(w io.Writer, env string) *slog.Logger {
	var handler slog.Handler

	if env == "dev" {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	return slog.New(NewContextHandler(handler)).With("service", "doctorportal", "env", env)
}
