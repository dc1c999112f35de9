package instance

import (
	"os"
	"strings"
)

// EnvInstanceID overrides the process identity used in logs and lease owners.
const EnvInstanceID = "ECOMARKET_INSTANCE_ID"

// ID returns the configured instance id, falling back to the hostname.
func ID() string {
	if id := strings.TrimSpace(os.Getenv(EnvInstanceID)); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "instance-0"
}
