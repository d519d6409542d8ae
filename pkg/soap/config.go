package soap

import "time"

const (
	DefaultEndpoint  = "https://webapi.aukro.cz/service.php"
	DefaultNamespace = "https://webapi.aukro.cz/"
	DefaultTimeout   = 30 * time.Second
)

type Config struct {
	Endpoint  string
	Namespace string
	Timeout   time.Duration
	// MaxRetries is the number of extra attempts after a network error. Zero disables retries.
	MaxRetries int
}

func (c Config) withDefaults() Config {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
