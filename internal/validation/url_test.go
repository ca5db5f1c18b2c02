package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr string
	}{
		{name: "playground address", url: "http://localhost:8080"},
		{name: "ipv6 loopback", url: "http://[::1]:8080/"},
		{name: "https with path", url: "https://play.example.com/api/state"},
		{name: "javascript scheme", url: "javascript:alert(1)", wantErr: "scheme"},
		{name: "file scheme", url: "file:///etc/passwd", wantErr: "scheme"},
		{name: "missing scheme", url: "localhost:8080", wantErr: "scheme"},
		{name: "command separator", url: "http://localhost:8080/;rm", wantErr: "dangerous character"},
		{name: "subshell", url: "http://localhost:8080/$(id)", wantErr: "dangerous character"},
		{name: "space", url: "http://localhost:8080/a b", wantErr: "dangerous character"},
		{name: "no host", url: "http:///path", wantErr: "hostname"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
