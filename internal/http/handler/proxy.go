package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/projecthub-edu/projecthub-api/internal/auth"
)

// maxProxyBodyBytes caps JSON payloads forwarded upstream
const maxProxyBodyBytes = 1 << 20

// bearerToken returns the caller's upstream access token, or "" for
// unauthenticated requests
func bearerToken(r *http.Request) string {
	if userCtx, ok := auth.FromContext(r.Context()); ok {
		return userCtx.AccessToken
	}
	return ""
}

// readBody drains the request body for forwarding. Returns false after
// writing an error response.
func readBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxProxyBodyBytes))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to read request body")
		return nil, false
	}
	return body, true
}

// withQuery re-attaches the caller's query string to an upstream path
func withQuery(path string, r *http.Request) string {
	if r.URL.RawQuery != "" {
		return path + "?" + r.URL.RawQuery
	}
	return path
}

// respondRaw relays an upstream body. A nil body (204 upstream) becomes a
// 204 here as well.
func respondRaw(w http.ResponseWriter, status int, raw json.RawMessage) {
	if raw == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}
