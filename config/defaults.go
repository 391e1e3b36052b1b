package config

const (
	// DefaultURL is where the Deluge Web UI listens out of the box.
	DefaultURL = "http://localhost:8112"

	DefaultTimeoutSeconds    = 30
	DefaultLogLevel          = "info"
	DefaultMaxResponseSizeKB = 50
)
