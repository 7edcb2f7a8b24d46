package common

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// ErrorBody represents a consistent error payload returned by the API.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes v with status as application/json.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError renders an error response using the canonical error shape.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{Code: code, Message: message, Details: details},
	})
}

// WritePage renders one page of a list with its pagination block and the
// X-Total-Count header.
func WritePage(w http.ResponseWriter, data any, p Pagination) {
	if p.PerPage > 0 {
		p.TotalPages = p.TotalItems / p.PerPage
		if p.TotalItems%p.PerPage != 0 {
			p.TotalPages++
		}
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(p.TotalItems))
	JSON(w, http.StatusOK, map[string]any{"data": data, "pagination": p})
}

// ClientIP returns the first valid address of X-Forwarded-For, then X-Real-IP,
// then the connection's remote host.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	for _, hop := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := net.ParseIP(strings.TrimSpace(hop)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	remote := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}
	return remote
}
