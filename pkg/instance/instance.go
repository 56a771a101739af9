package instance

import "os"

const EnvInstanceID = "STOREFRONT_INSTANCE_ID"

// GetID identifies this process in logs. Cart sessions live in process
// memory, so knowing which instance served a shopper matters.
func GetID() string {
	if id := os.Getenv(EnvInstanceID); id != "" {
		return id
	}
	if id := os.Getenv("DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
