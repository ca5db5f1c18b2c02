package middleware

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/tsxrunner/internal/config"
	"github.com/conneroisu/tsxrunner/internal/logging"
)

// SecurityConfig holds security configuration
type SecurityConfig struct {
	CSP                 *CSPConfig
	HSTS                *HSTSConfig
	XFrameOptions       string
	XContentTypeNoSniff bool
	ReferrerPolicy      string
	PermissionsPolicy   *PermissionsPolicyConfig
	// EnableNonce adds a per-request nonce to script-src and exposes it to
	// templ components through the request context.
	EnableNonce bool
}

// CSPConfig holds Content Security Policy configuration
type CSPConfig struct {
	DefaultSrc              []string
	ScriptSrc               []string
	StyleSrc                []string
	ImgSrc                  []string
	ConnectSrc              []string
	FontSrc                 []string
	ObjectSrc               []string
	FrameAncestors          []string
	BaseURI                 []string
	FormAction              []string
	UpgradeInsecureRequests bool
}

// HSTSConfig holds HTTP Strict Transport Security configuration
type HSTSConfig struct {
	MaxAge            int
	IncludeSubDomains bool
}

// PermissionsPolicyConfig holds Permissions Policy configuration
type PermissionsPolicyConfig struct {
	Geolocation []string
	Camera      []string
	Microphone  []string
	Payment     []string
	USB         []string
}

// DefaultSecurityConfig returns a secure default configuration
func DefaultSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		CSP: &CSPConfig{
			DefaultSrc: []string{"'self'"},
			ScriptSrc:  []string{"'self'"},
			// Rendered components carry inline style attributes.
			StyleSrc:       []string{"'self'", "'unsafe-inline'"},
			ImgSrc:         []string{"'self'", "data:"},
			ConnectSrc:     []string{"'self'", "ws:", "wss:"},
			FontSrc:        []string{"'self'"},
			ObjectSrc:      []string{"'none'"},
			FrameAncestors: []string{"'none'"},
			BaseURI:        []string{"'self'"},
			FormAction:     []string{"'self'"},
		},
		HSTS: &HSTSConfig{
			MaxAge:            31536000, // 1 year
			IncludeSubDomains: true,
		},
		XFrameOptions:       "DENY",
		XContentTypeNoSniff: true,
		ReferrerPolicy:      "strict-origin-when-cross-origin",
		PermissionsPolicy:   &PermissionsPolicyConfig{},
		EnableNonce:         true,
	}
}

// DevelopmentSecurityConfig returns a more permissive config for development
func DevelopmentSecurityConfig() *SecurityConfig {
	config := DefaultSecurityConfig()

	// Allow iframe embedding for development tools
	config.XFrameOptions = "SAMEORIGIN"
	config.CSP.FrameAncestors = []string{"'self'"}

	config.HSTS = nil

	return config
}

// ProductionSecurityConfig returns a strict config for production
func ProductionSecurityConfig() *SecurityConfig {
	config := DefaultSecurityConfig()
	config.CSP.ConnectSrc = []string{"'self'", "wss:"}
	config.CSP.UpgradeInsecureRequests = true
	return config
}

// SecurityConfigFromAppConfig creates security config from application config
func SecurityConfigFromAppConfig(cfg *config.Config) *SecurityConfig {
	switch cfg.Server.Environment {
	case "production":
		return ProductionSecurityConfig()
	case "development":
		return DevelopmentSecurityConfig()
	default:
		return DefaultSecurityConfig()
	}
}

// SecurityMiddleware applies security headers and rejects cross-site
// state-changing requests.
func SecurityMiddleware(secConfig *SecurityConfig, origins *OriginValidator, logger logging.Logger) Middleware {
	if secConfig == nil {
		secConfig = DefaultSecurityConfig()
	}
	if logger == nil {
		logger = logging.Nop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nonce := ""
			if secConfig.EnableNonce {
				var err error
				nonce, err = generateNonce()
				if err != nil {
					logger.Error(r.Context(), err, "Failed to generate CSP nonce")
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
				r = r.WithContext(templ.WithNonce(r.Context(), nonce))
			}

			applySecurityHeaders(w, r, secConfig, nonce)

			if isStateChanging(r.Method) && !isValidOrigin(r, origins) {
				logger.Warn(r.Context(),
					fmt.Errorf("cross-origin %s rejected", r.Method),
					"Security: Invalid origin",
					"origin", logging.SanitizeForLog(r.Header.Get("Origin")),
					"referer", logging.SanitizeForLog(r.Header.Get("Referer")),
					"ip", getClientIP(r))
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isStateChanging(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}

func generateNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// applySecurityHeaders applies all configured security headers
func applySecurityHeaders(w http.ResponseWriter, r *http.Request, config *SecurityConfig, nonce string) {
	if config.CSP != nil {
		w.Header().Set("Content-Security-Policy", buildCSPHeader(config.CSP, nonce))
	}

	// HSTS only means something over TLS
	if config.HSTS != nil && r.TLS != nil {
		w.Header().Set("Strict-Transport-Security", buildHSTSHeader(config.HSTS))
	}

	if config.XFrameOptions != "" {
		w.Header().Set("X-Frame-Options", config.XFrameOptions)
	}
	if config.XContentTypeNoSniff {
		w.Header().Set("X-Content-Type-Options", "nosniff")
	}
	if config.ReferrerPolicy != "" {
		w.Header().Set("Referrer-Policy", config.ReferrerPolicy)
	}
	if config.PermissionsPolicy != nil {
		w.Header().Set("Permissions-Policy", buildPermissionsPolicyHeader(config.PermissionsPolicy))
	}

	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
	w.Header().Set("Cross-Origin-Resource-Policy", "same-origin")
}

// buildCSPHeader constructs the Content-Security-Policy header value
func buildCSPHeader(csp *CSPConfig, nonce string) string {
	var directives []string

	addDirective := func(name string, values []string) {
		if len(values) > 0 {
			directives = append(directives, fmt.Sprintf("%s %s", name, strings.Join(values, " ")))
		}
	}

	scriptSrc := csp.ScriptSrc
	if nonce != "" {
		scriptSrc = append(append([]string{}, scriptSrc...), fmt.Sprintf("'nonce-%s'", nonce))
	}

	addDirective("default-src", csp.DefaultSrc)
	addDirective("script-src", scriptSrc)
	addDirective("style-src", csp.StyleSrc)
	addDirective("img-src", csp.ImgSrc)
	addDirective("connect-src", csp.ConnectSrc)
	addDirective("font-src", csp.FontSrc)
	addDirective("object-src", csp.ObjectSrc)
	addDirective("frame-ancestors", csp.FrameAncestors)
	addDirective("base-uri", csp.BaseURI)
	addDirective("form-action", csp.FormAction)

	if csp.UpgradeInsecureRequests {
		directives = append(directives, "upgrade-insecure-requests")
	}

	return strings.Join(directives, "; ")
}

// buildHSTSHeader constructs the Strict-Transport-Security header value
func buildHSTSHeader(hsts *HSTSConfig) string {
	header := fmt.Sprintf("max-age=%d", hsts.MaxAge)
	if hsts.IncludeSubDomains {
		header += "; includeSubDomains"
	}
	return header
}

// buildPermissionsPolicyHeader constructs the Permissions-Policy header value
func buildPermissionsPolicyHeader(pp *PermissionsPolicyConfig) string {
	var policies []string

	addPolicy := func(name string, values []string) {
		policies = append(policies, fmt.Sprintf("%s=(%s)", name, strings.Join(values, " ")))
	}

	addPolicy("geolocation", pp.Geolocation)
	addPolicy("camera", pp.Camera)
	addPolicy("microphone", pp.Microphone)
	addPolicy("payment", pp.Payment)
	addPolicy("usb", pp.USB)

	return strings.Join(policies, ", ")
}

// isValidOrigin accepts same-host requests, allowed origins, and requests
// that carry neither Origin nor Referer (command line clients).
func isValidOrigin(r *http.Request, origins *OriginValidator) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		referer := r.Header.Get("Referer")
		if referer == "" {
			return true
		}
		refererURL, err := url.Parse(referer)
		if err != nil || refererURL.Host == "" {
			return false
		}
		origin = fmt.Sprintf("%s://%s", refererURL.Scheme, refererURL.Host)
	}

	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}

	return origins != nil && origins.IsAllowedOrigin(origin)
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (proxy/load balancer)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip := r.RemoteAddr
	if colonPos := strings.LastIndex(ip, ":"); colonPos != -1 {
		ip = ip[:colonPos]
	}

	return ip
}
