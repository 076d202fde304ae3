package apperror

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// envelope is the JSON shape of every error response.
type envelope struct {
	Error body `json:"error"`
}

type body struct {
	Status  int            `json:"status"`
	Name    string         `json:"name"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// Write sends err as a JSON error envelope. Internal errors are logged with
// their cause and reported with a generic message.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	appErr := From(err)
	if appErr.Kind == Internal {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", appErr.Internal,
		)
	}

	details := appErr.Details
	if details == nil {
		details = map[string]any{}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.Status())
	json.NewEncoder(w).Encode(envelope{Error: body{
		Status:  appErr.Status(),
		Name:    appErr.Kind.Name(),
		Message: appErr.Message,
		Details: details,
	}})
}
