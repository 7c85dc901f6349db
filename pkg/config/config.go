// Package config loads engine configuration from YAML.
//
// Example:
//
//	transactions:
//	  max_endpoint_queue_size: 100
//	transport:
//	  network: udp
//	  listen: "127.0.0.1:5683"
//	  max_message_size: 1152
//	  idle_timeout: 60s
//	logging:
//	  level: info
//	  format: text
//	  protocol_log: /var/log/coap/session.clog
//	  protocol_log_rotation:
//	    max_size_mb: 64
//	    max_backups: 5
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coapstack/coap-go/pkg/transaction"
	"github.com/coapstack/coap-go/pkg/transport"
)

// Supported transport networks.
const (
	NetworkUDP = "udp"
	NetworkTCP = "tcp"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the root of the configuration file.
type Config struct {
	Transactions TransactionsConfig `yaml:"transactions"`
	Transport    TransportConfig    `yaml:"transport"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// TransactionsConfig configures the transaction manager.
type TransactionsConfig struct {
	// MaxEndpointQueueSize limits transactions per remote endpoint.
	// Zero leaves the queue unbounded.
	MaxEndpointQueueSize int `yaml:"max_endpoint_queue_size"`
}

// TransportConfig selects and configures the connector.
type TransportConfig struct {
	Network        string        `yaml:"network"`
	// Listen is the UDP bind address. For tcp only its host is used, to
	// bind outgoing connections; the port is ignored.
	Listen         string        `yaml:"listen"`
	MaxMessageSize int           `yaml:"max_message_size"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
}

// LoggingConfig configures operational and protocol logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`

	// ProtocolLog is the path of the CBOR protocol log. Empty disables it.
	ProtocolLog string `yaml:"protocol_log"`

	// Rotation applies to ProtocolLog. A zero MaxSizeMB disables rotation.
	Rotation RotationConfig `yaml:"protocol_log_rotation"`
}

// RotationConfig configures size-based rotation of the protocol log.
type RotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
}

// Enabled reports whether the protocol log rotates.
func (r RotationConfig) Enabled() bool {
	return r.MaxSizeMB > 0
}

// LoadError reports a configuration file that could not be used.
type LoadError struct {
	// File is the path to the file that failed to load (empty for Parse).
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.File == "" {
		return msg
	}
	return e.File + ": " + msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Transport: TransportConfig{
			Network:        NetworkUDP,
			Listen:         ":5683",
			MaxMessageSize: transport.DefaultMaxMessageSize,
			DialTimeout:    transport.DefaultDialTimeout,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &LoadError{Message: "failed to parse YAML", Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, &LoadError{Message: "validation failed", Cause: err}
	}
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}

	cfg, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
			return Config{}, le
		}
		return Config{}, &LoadError{File: path, Message: err.Error()}
	}
	return cfg, nil
}

// Validate checks value ranges. Queue size failures also match
// transaction.ErrInvalidQueueSize.
func (c Config) Validate() error {
	var errs []error

	if n := c.Transactions.MaxEndpointQueueSize; n != 0 &&
		(n < transaction.MinEndpointQueueSize || n > transaction.MaxEndpointQueueSize) {
		errs = append(errs, fmt.Errorf("%w: transactions.max_endpoint_queue_size: %w: %d",
			ErrInvalidConfig, transaction.ErrInvalidQueueSize, n))
	}

	switch c.Transport.Network {
	case NetworkUDP, NetworkTCP:
	default:
		errs = append(errs, fmt.Errorf("%w: transport.network: unsupported %q", ErrInvalidConfig, c.Transport.Network))
	}
	if c.Transport.Network == NetworkUDP && c.Transport.Listen == "" {
		errs = append(errs, fmt.Errorf("%w: transport.listen is required for udp", ErrInvalidConfig))
	}
	if n := c.Transport.MaxMessageSize; n < 0 || n > transport.MaxFrameSize {
		errs = append(errs, fmt.Errorf("%w: transport.max_message_size: %d out of range", ErrInvalidConfig, n))
	}
	if c.Transport.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("%w: transport.idle_timeout must not be negative", ErrInvalidConfig))
	}
	if c.Transport.DialTimeout < 0 {
		errs = append(errs, fmt.Errorf("%w: transport.dial_timeout must not be negative", ErrInvalidConfig))
	}

	if _, err := ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: logging.level: %w", ErrInvalidConfig, err))
	}
	if r := c.Logging.Rotation; r.MaxSizeMB < 0 || r.MaxBackups < 0 || r.MaxAgeDays < 0 {
		errs = append(errs, fmt.Errorf("%w: logging.protocol_log_rotation: values must not be negative", ErrInvalidConfig))
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: logging.format: unsupported %q", ErrInvalidConfig, c.Logging.Format))
	}

	return errors.Join(errs...)
}

// ParseLevel converts a level name to a slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown level %q", s)
	}
}

// NewLogger builds an operational logger writing to w.
func (c LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	level, _ := ParseLevel(c.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
