//go:build property

package config

import (
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestConfigurationProperties tests configuration validation properties
func TestConfigurationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1234)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("ports in range validate", prop.ForAll(
		func(port int) bool {
			cfg := Default()
			cfg.Server.Port = port
			err := validateConfig(cfg)
			return (port >= 0 && port <= 65535) == (err == nil)
		},
		gen.IntRange(-1000, 70000),
	))

	properties.Property("hosts with shell metacharacters are rejected", prop.ForAll(
		func(prefix string, char string) bool {
			cfg := Default()
			cfg.Server.Host = prefix + char
			return validateConfig(cfg) != nil
		},
		gen.AlphaString(),
		gen.OneConstOf(";", "&", "|", "$", "`", "(", ")", "<", ">"),
	))

	properties.Property("identifiers are accepted as fixture props", prop.ForAll(
		func(name string) bool {
			cfg := Default()
			cfg.Playground.FixtureProp = name
			return validateConfig(cfg) == nil
		},
		gen.Identifier(),
	))

	properties.Property("detailed validation agrees with validateConfig", prop.ForAll(
		func(port int, timeoutMs int, format string) bool {
			cfg := Default()
			cfg.Server.Port = port
			cfg.Playground.Timeout = time.Duration(timeoutMs) * time.Millisecond
			cfg.Log.Format = format

			detailed := ValidateConfigWithDetails(cfg)
			return detailed.Valid == (validateConfig(cfg) == nil)
		},
		gen.IntRange(-10, 70000),
		gen.IntRange(-10, 120000),
		gen.OneConstOf("text", "json", "xml"),
	))

	properties.Property("traversal paths are rejected", prop.ForAll(
		func(depth int, name string) bool {
			path := strings.Repeat("../", depth) + name + ".tsx"
			return (validatePath(path) != nil) == (depth > 0)
		},
		gen.IntRange(0, 3),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
