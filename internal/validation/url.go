// Package validation checks values before they leave the process, such as
// the playground URL handed to the system browser.
package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// shellMeta are characters that change meaning when a URL reaches a shell
// or an opener command.
var shellMeta = []string{";", "&", "|", "`", "$", "(", ")", "<", ">", "\"", "'", "\\", "\n", "\r", " "}

// ValidateURL accepts absolute http and https URLs with a host and no shell
// metacharacters.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (only http/https allowed)", parsed.Scheme)
	}

	for _, char := range shellMeta {
		if strings.Contains(rawURL, char) {
			return fmt.Errorf("URL contains dangerous character: %q", char)
		}
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}

	return nil
}
