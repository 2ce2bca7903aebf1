package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/kjannette/fully-web/internal/config"
	"github.com/kjannette/fully-web/internal/db"
)

const (
	statusOK    = "ok"
	statusError = "error"

	unknownErrorMessage = "Unknown error"

	// ISO-8601 with millisecond precision, always rendered in UTC.
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// reportedDatabases are the names included in the health payload.
var reportedDatabases = []string{db.Fully}

var errUnknown = errors.New(unknownErrorMessage)

type healthResponse struct {
	Status      string            `json:"status"`
	Timestamp   string            `json:"timestamp"`
	Databases   map[string]bool   `json:"databases"`
	Environment healthEnvironment `json:"environment"`
	Error       string            `json:"error,omitempty"`
}

// healthEnvironment reports whether each URL is configured, never its value.
type healthEnvironment struct {
	HasFullyURL    bool `json:"hasFullyUrl"`
	HasFallbackURL bool `json:"hasFallbackUrl"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	err := ensureConnections(r.Context(), s.dbs)

	resp := healthResponse{
		Status:    statusOK,
		Timestamp: s.now().UTC().Format(timestampLayout),
		Databases: s.databaseHealth(),
		Environment: healthEnvironment{
			HasFullyURL:    config.IsSet(config.EnvFullyURL),
			HasFallbackURL: config.IsSet(config.EnvFallbackURL),
		},
	}

	if err != nil {
		resp.Status = statusError
		resp.Error = errorMessage(err)
		s.metrics.observeHealth(statusError, resp.Databases)
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	s.metrics.observeHealth(statusOK, resp.Databases)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) databaseHealth() map[string]bool {
	out := make(map[string]bool, len(reportedDatabases))
	for _, name := range reportedDatabases {
		out[name] = s.dbs.IsHealthy(name)
	}
	return out
}

// ensureConnections turns a panic inside the manager into an error so the
// endpoint always answers with the JSON envelope.
func ensureConnections(ctx context.Context, dbs ConnectionManager) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if e, ok := rec.(error); ok && e.Error() != "" {
				err = e
				return
			}
			err = errUnknown
		}
	}()
	return dbs.EnsureConnections(ctx)
}

func errorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return unknownErrorMessage
}
