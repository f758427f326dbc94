package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/selfheal/auth"
	"github.com/jonwraymond/selfheal/heal"
	"github.com/jonwraymond/selfheal/health"
	"github.com/jonwraymond/selfheal/observe"
	"github.com/jonwraymond/selfheal/recovery"
	"github.com/jonwraymond/selfheal/resilience"
)

// BackupDir is the default backup directory, relative to Root.
const BackupDir = ".selfheal/backups"

// Config is the complete selfheal configuration.
type Config struct {
	// Root is the project root fixes and reports are relative to.
	// Default: "."
	Root string `yaml:"root"`

	// BackupDir holds file backups taken before fixes.
	// Default: <root>/.selfheal/backups
	BackupDir string `yaml:"backup_dir"`

	// Addr is the listen address of the operator HTTP surface.
	// Default: ":8080"
	Addr string `yaml:"addr"`

	// DiagnoseLimit throttles POST /diagnose.
	// Default: 1 per second, burst 3
	DiagnoseLimit resilience.RateLimiterConfig `yaml:"diagnose_limit"`

	Observe  observe.Config         `yaml:"observe"`
	Engine   health.EngineConfig    `yaml:"engine"`
	Healer   heal.ManagerConfig     `yaml:"healer"`
	Recovery recovery.HandlerConfig `yaml:"recovery"`
	Auth     auth.Config            `yaml:"auth"`
}

// Default returns the configuration used when a file sets nothing.
func Default() Config {
	return Config{
		Root: ".",
		Addr: ":8080",
		DiagnoseLimit: resilience.RateLimiterConfig{
			Rate:  1,
			Burst: 3,
		},
		Observe: observe.Config{
			ServiceName: "selfheal",
			Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
		},
		Engine:   health.DefaultEngineConfig(),
		Healer:   heal.DefaultManagerConfig(),
		Recovery: recovery.DefaultHandlerConfig(),
	}
}

// Option configures loading.
type Option func(*loader)

type loader struct {
	providers []SecretProvider
}

// WithProvider adds a secret provider for secretref values.
func WithProvider(p SecretProvider) Option {
	return func(l *loader) {
		l.providers = append(l.providers, p)
	}
}

// Load reads and parses the configuration file at path.
func Load(ctx context.Context, path string, opts ...Option) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(ctx, data, opts...)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse expands, decodes and validates a YAML document. Durations are Go
// duration strings such as "30s" or "5m". An empty document yields Default().
func Parse(ctx context.Context, data []byte, opts ...Option) (Config, error) {
	var l loader
	for _, opt := range opts {
		opt(&l)
	}

	expanded, err := ExpandEnvStrict(string(data))
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.resolveSecrets(ctx, NewResolver(l.providers...)); err != nil {
		return Config{}, err
	}
	cfg.fillPaths()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("%w: root is required", ErrInvalidConfig)
	}
	if c.DiagnoseLimit.Rate < 0 || c.DiagnoseLimit.Burst < 0 || c.DiagnoseLimit.MaxWait < 0 {
		return fmt.Errorf("%w: diagnose_limit must not be negative", ErrInvalidConfig)
	}
	if err := c.Observe.Validate(); err != nil {
		return fmt.Errorf("%w: observe: %w", ErrInvalidConfig, err)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("%w: engine: %w", ErrInvalidConfig, err)
	}
	if err := c.Healer.Validate(); err != nil {
		return fmt.Errorf("%w: healer: %w", ErrInvalidConfig, err)
	}
	if err := c.Recovery.Validate(); err != nil {
		return fmt.Errorf("%w: recovery: %w", ErrInvalidConfig, err)
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("%w: auth: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) resolveSecrets(ctx context.Context, r *Resolver) error {
	if c.Auth.JWT == nil {
		return nil
	}
	secret, err := r.Resolve(ctx, c.Auth.JWT.Secret)
	if err != nil {
		return fmt.Errorf("config: auth.jwt.secret: %w", err)
	}
	c.Auth.JWT.Secret = secret
	return nil
}

func (c *Config) fillPaths() {
	if c.Root == "" {
		return
	}
	if c.BackupDir == "" {
		c.BackupDir = filepath.Join(c.Root, BackupDir)
	}
	if c.Recovery.Root == "" {
		c.Recovery.Root = c.Root
	}
}
