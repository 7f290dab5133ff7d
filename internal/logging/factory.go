package logging

import (
	"fmt"
	"io"
)

// New builds a Logger for the named backend: "slog" (text), "json" (slog
// JSON) or "zap".
func New(backend, level string, w io.Writer) (Logger, error) {
	switch backend {
	case "", "slog":
		return NewSlogText(w, level), nil
	case "json":
		return NewSlogJSON(w, level), nil
	case "zap":
		return NewZapProduction(level)
	default:
		return nil, fmt.Errorf("unknown log backend %q", backend)
	}
}
