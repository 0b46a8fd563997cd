package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ritzau/lumen-atlas/pkg/atlas"
	"github.com/ritzau/lumen-atlas/pkg/logging"
)

// paramError is a malformed or missing request parameter, answered with 400.
type paramError struct {
	name  string
	value string
	err   error
}

func (e *paramError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("missing parameter %q", e.name)
	}
	return fmt.Sprintf("invalid parameter %q=%q: %v", e.name, e.value, e.err)
}

// edgeSetParam returns ?edgeSet=, defaulting to the surface set.
func edgeSetParam(r *http.Request) string {
	if name := r.URL.Query().Get("edgeSet"); name != "" {
		return name
	}
	return atlas.EdgeSetSurface
}

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &paramError{name: name, value: raw, err: err}
	}
	return id, nil
}

// requiredID parses a single integer query parameter.
func requiredID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, &paramError{name: name}
	}
	return parseID(name, raw)
}

// idList parses a repeated integer query parameter. Absent means empty.
func idList(r *http.Request, name string) ([]int64, error) {
	values := r.URL.Query()[name]
	ids := make([]int64, 0, len(values))
	for _, raw := range values {
		id, err := parseID(name, raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// optionalInt parses an integer query parameter, returning def when absent.
func optionalInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name: name, value: raw, err: err}
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
