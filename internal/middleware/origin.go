package middleware

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/conneroisu/tsxrunner/internal/config"
)

// OriginValidator decides which browser origins may talk to the server.
// It satisfies the WebSocket manager's validator interface.
type OriginValidator struct {
	allowAll bool
	allowed  map[string]struct{}
}

// NewOriginValidator allows the configured origins plus the local
// addresses of the server itself.
func NewOriginValidator(cfg *config.ServerConfig) *OriginValidator {
	v := &OriginValidator{allowed: make(map[string]struct{})}

	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			v.allowAll = true
			continue
		}
		v.allowed[normalizeOrigin(origin)] = struct{}{}
	}

	for _, host := range []string{"localhost", "127.0.0.1", "[::1]", cfg.Host} {
		if host == "" || host == "0.0.0.0" || host == "::" {
			continue
		}
		for _, scheme := range []string{"http", "https"} {
			v.allowed[fmt.Sprintf("%s://%s:%d", scheme, host, cfg.Port)] = struct{}{}
		}
	}

	return v
}

// IsAllowedOrigin reports whether origin is accepted.
func (v *OriginValidator) IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	if v.allowAll {
		return true
	}
	_, ok := v.allowed[normalizeOrigin(origin)]
	return ok
}

func normalizeOrigin(origin string) string {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.ToLower(strings.TrimRight(origin, "/"))
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}
