package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHeadersMiddlewareSetsSecurityHeaders(t *testing.T) {
	middleware := Headers{
		Enable:                true,
		EnableHSTS:            true,
		HSTSIncludeSubdomains: true,
		NoStorePrefixes:       []string{"/api/v1/carts", "/api/v1/checkout"},
	}
	handler := middleware.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "https://example.com/api/v1/carts/s1", nil)
	req.TLS = &tls.ConnectionState{}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	headers := rr.Result().Header
	if got := headers.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected nosniff header, got %q", got)
	}
	if got := headers.Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Fatalf("unexpected hsts header %q", got)
	}
	if got := headers.Get("Cache-Control"); got != "no-store" {
		t.Fatalf("expected no-store on cart route, got %q", got)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://example.com/api/v1/products", nil))
	if got := rr.Header().Get("Cache-Control"); got != "" {
		t.Fatalf("catalogue route must stay cacheable, got %q", got)
	}
	if got := rr.Header().Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("hsts must not be sent over plain http, got %q", got)
	}
}

func TestHeadersMiddlewareDisabled(t *testing.T) {
	handler := Headers{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := rr.Header().Get("X-Frame-Options"); got != "" {
		t.Fatalf("expected no headers when disabled, got %q", got)
	}
}

func TestNoStoreMatchesPathPrefixes(t *testing.T) {
	h := Headers{NoStorePrefixes: []string{"/api/v1/carts", "/api/v1/checkout"}}
	cases := map[string]bool{
		"/api/v1/carts":          true,
		"/api/v1/carts/s1/items": true,
		"/api/v1/checkout/s1":    true,
		"/api/v1/cart":           false,
		"/api/v1/products":       false,
		"":                       false,
	}
	for path, want := range cases {
		if got := h.noStore(path); got != want {
			t.Fatalf("noStore(%q) = %v, want %v", path, got, want)
		}
	}
}
