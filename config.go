package rincon

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rinconhq/rincon-go/logger"
)

const (
	defaultUsername          = "admin"
	defaultPassword          = "admin"
	defaultTimeout           = 10 * time.Second
	defaultHeartbeatInterval = 10 * time.Second
)

var validate = validator.New()

// Config configures the Rincon client.
type Config struct {
	// BaseURL is the registry server base URL. Trailing slashes are trimmed.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`

	// Username is the basic-auth username for authenticated calls.
	// Defaults to "admin".
	Username string `yaml:"username" mapstructure:"username"`

	// Password is the basic-auth password for authenticated calls.
	// Defaults to "admin".
	Password string `yaml:"password" mapstructure:"password"`

	// Timeout is the per-request timeout. Defaults to 10s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// HeartbeatInterval is the default interval between heartbeat
	// re-registrations. Defaults to 10s. The interval should exceed Timeout
	// so heartbeat requests do not overlap, but this is not enforced.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" mapstructure:"heartbeat_interval"`

	// Logging configures the client logger.
	Logging logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults fills zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Username == "" {
		c.Username = defaultUsername
	}
	if c.Password == "" {
		c.Password = defaultPassword
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = defaultHeartbeatInterval
	}
	c.Logging.ApplyDefaults()
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("rincon: invalid config: %w", err)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("rincon: timeout must be positive")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("rincon: logging: %w", err)
	}
	return nil
}
