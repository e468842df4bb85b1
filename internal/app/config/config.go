package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvServer       = "IMAP_SERVER"
	EnvUser         = "IMAP_USER"
	EnvPassword     = "IMAP_PASS"
	EnvMailboxes    = "MAILBOXES"
	EnvTimeout      = "IMAP_TIMEOUT"
	EnvPreviewLimit = "PREVIEW_LIMIT"
	EnvLogLevel     = "LOG_LEVEL"

	defaultIMAPSPort = "993"
)

type Config struct {
	Server          string        `yaml:"imap_server"`      // Mail server host, optionally with port.
	User            string        `yaml:"imap_user"`        // Login identity.
	Password        string        `yaml:"imap_pass"`        // Login secret.
	Mailboxes       []string      `yaml:"mailboxes"`        // Mailboxes scanned in order.
	Timeout         time.Duration `yaml:"timeout"`          // Deadline for a whole run, 0 disables it.
	PreviewLimit    int           `yaml:"preview_limit"`    // Number of messages shown in the tooltip.
	Glyph           string        `yaml:"glyph"`            // Badge glyph put in front of the unread count.
	WarningGlyph    string        `yaml:"warning_glyph"`    // Badge shown when the run fails.
	TooltipTemplate string        `yaml:"tooltip_template"` // Optional text/template for a single tooltip block.
	LogLevel        string        `yaml:"log_level"`        // debug, info, warn or error.
}

// ConfigError is returned when configuration is incomplete or malformed.
// It is always raised before any connection to the mail server is made.
type ConfigError struct {
	Missing []string
	Err     error
}

func (e *ConfigError) Error() string {
	switch {
	case len(e.Missing) > 0 && e.Err != nil:
		return fmt.Sprintf("config: missing %s: %s", strings.Join(e.Missing, ", "), e.Err)
	case len(e.Missing) > 0:
		return fmt.Sprintf("config: missing %s", strings.Join(e.Missing, ", "))
	case e.Err != nil:
		return fmt.Sprintf("config: %s", e.Err)
	default:
		return "config: invalid configuration"
	}
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func Default() Config {
	return Config{
		Timeout:      30 * time.Second,
		PreviewLimit: 5,
		Glyph:        "󰶍",
		WarningGlyph: "⚠",
		LogLevel:     "warn",
	}
}

// LoadConfig builds configuration from an optional .env file, an optional
// YAML file and the process environment, in that order of precedence
// (environment wins).
func LoadConfig(cfgFilepath, envFilepath string) (Config, error) {
	cfg := Default()

	if envFilepath != "" {
		if _, err := os.Stat(envFilepath); err == nil {
			if err = godotenv.Load(envFilepath); err != nil {
				return cfg, &ConfigError{Err: fmt.Errorf("load environment file: %w", err)}
			}
		}
	}

	if cfgFilepath != "" {
		if err := loadFile(&cfg, cfgFilepath); err != nil {
			return cfg, &ConfigError{Err: err}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, &ConfigError{Err: err}
	}

	return cfg, cfg.Validate()
}

func loadFile(cfg *Config, cfgFilepath string) error {
	//nolint:gosec
	fileBytes, err := os.ReadFile(cfgFilepath)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			return fmt.Errorf("configuration file doesn't exist: %w", err)
		case errors.Is(err, os.ErrPermission):
			return fmt.Errorf("permission denied for accessing configuration file: %w", err)
		default:
			return fmt.Errorf("read configuration file: %w", err)
		}
	}

	envExpanded := os.ExpandEnv(string(fileBytes))
	if err = yaml.Unmarshal([]byte(envExpanded), cfg); err != nil {
		return fmt.Errorf("unmarshal configuration file: %w", err)
	}

	cfg.Mailboxes = splitMailboxes(cfg.Mailboxes...)
	return nil
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvServer); ok {
		cfg.Server = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(EnvUser); ok {
		cfg.User = v
	}
	if v, ok := os.LookupEnv(EnvPassword); ok {
		cfg.Password = v
	}
	if v, ok := os.LookupEnv(EnvMailboxes); ok {
		cfg.Mailboxes = splitMailboxes(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}

	if v := os.Getenv(EnvTimeout); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s must be a valid duration: %w", EnvTimeout, err)
		}
		cfg.Timeout = timeout
	}

	if v := os.Getenv(EnvPreviewLimit); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be a valid integer: %w", EnvPreviewLimit, err)
		}
		cfg.PreviewLimit = limit
	}

	return nil
}

// splitMailboxes splits comma separated mailbox lists, trimming
// surrounding whitespace and dropping empty names.
func splitMailboxes(values ...string) []string {
	var mailboxes []string
	for _, value := range values {
		for _, name := range strings.Split(value, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			mailboxes = append(mailboxes, name)
		}
	}

	return mailboxes
}

// Validate checks that everything required for a run is present.
func (c Config) Validate() error {
	var missing []string
	if c.Server == "" {
		missing = append(missing, EnvServer)
	}
	if c.User == "" {
		missing = append(missing, EnvUser)
	}
	if c.Password == "" {
		missing = append(missing, EnvPassword)
	}
	if len(c.Mailboxes) == 0 {
		missing = append(missing, EnvMailboxes)
	}

	var errs []error
	if c.PreviewLimit < 1 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", EnvPreviewLimit, c.PreviewLimit))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %s", EnvTimeout, c.Timeout))
	}

	if len(missing) == 0 && len(errs) == 0 {
		return nil
	}

	return &ConfigError{Missing: missing, Err: errors.Join(errs...)}
}

// Address returns the server address in host:port form.
func (c Config) Address() string {
	if _, _, err := net.SplitHostPort(c.Server); err == nil {
		return c.Server
	}

	return net.JoinHostPort(strings.Trim(c.Server, "[]"), defaultIMAPSPort)
}
