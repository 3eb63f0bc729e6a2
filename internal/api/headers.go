package api

import (
	"fmt"
	"net/http"
)

// HeadersConfig holds security headers configuration.
type HeadersConfig struct {
	CSP                 string
	HSTSMaxAge          int
	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	CrossOriginOpener   string
	CrossOriginResource string
}

// DefaultHeadersConfig returns defaults suited to a JSON API.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:                 "default-src 'none'; frame-ancestors 'none'",
		HSTSMaxAge:          15552000, // 180 days
		XFrameOptions:       "DENY",
		XContentTypeOptions: "nosniff",
		ReferrerPolicy:      "no-referrer",
		CrossOriginOpener:   "same-origin",
		CrossOriginResource: "same-origin",
	}
}

// SecurityHeaders applies the configured headers to every response.
func SecurityHeaders(config HeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", config.XContentTypeOptions)
			h.Set("X-Frame-Options", config.XFrameOptions)
			h.Set("Referrer-Policy", config.ReferrerPolicy)
			h.Set("Cross-Origin-Opener-Policy", config.CrossOriginOpener)
			h.Set("Cross-Origin-Resource-Policy", config.CrossOriginResource)
			h.Set("X-DNS-Prefetch-Control", "off")
			if config.CSP != "" {
				h.Set("Content-Security-Policy", config.CSP)
			}
			// HSTS only for HTTPS
			if r.TLS != nil && config.HSTSMaxAge > 0 {
				h.Set("Strict-Transport-Security", fmt.Sprintf("max-age=%d; includeSubDomains", config.HSTSMaxAge))
			}
			next.ServeHTTP(w, r)
		})
	}
}
