package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/giantswarm/mcp-ocm/internal/logging"
)

// DefaultAPIBase is the production OCM API.
const DefaultAPIBase = "https://api.openshift.com"

// Errors returned by Validate. They may be joined when several are missing.
var (
	ErrMissingClientID     = errors.New("OCM client id is required (OCM_CLIENT_ID)")
	ErrMissingOfflineToken = errors.New("OCM offline token is required (OCM_OFFLINE_TOKEN)")
	ErrMissingTokenURL     = errors.New("access token URL is required (ACCESS_TOKEN_URL)")
)

// envKeys maps the recognised environment variables to configuration keys.
var envKeys = map[string]string{
	"OCM_CLIENT_ID":     "ocm.client_id",
	"OCM_OFFLINE_TOKEN": "ocm.offline_token",
	"ACCESS_TOKEN_URL":  "ocm.token_url",
	"OCM_API_BASE":      "ocm.api_base",
}

// Config is the credential and upstream configuration of the server.
type Config struct {
	OCM OCM `koanf:"ocm"`
}

// OCM holds what is needed to talk to the OCM API.
type OCM struct {
	ClientID     string `koanf:"client_id"`
	OfflineToken string `koanf:"offline_token"`
	TokenURL     string `koanf:"token_url"`
	APIBase      string `koanf:"api_base"`
}

// LogValue keeps the offline token out of logs.
func (o OCM) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("client_id", o.ClientID),
		slog.String("offline_token", logging.SanitizeToken(o.OfflineToken)),
		slog.String("token_url", logging.SanitizeHost(o.TokenURL)),
		slog.String("api_base", logging.SanitizeHost(o.APIBase)),
	)
}

// Option configures Load.
type Option func(*loader)

type loader struct {
	k        *koanf.Koanf
	filePath string
}

// WithConfigFile adds a YAML file as a configuration source. Environment
// variables still take precedence over values from the file.
func WithConfigFile(path string) Option {
	return func(l *loader) {
		l.filePath = path
	}
}

// Load reads configuration from defaults, the optional YAML file and the
// environment, in that order of increasing precedence. It does not validate.
func Load(opts ...Option) (*Config, error) {
	l := &loader{k: koanf.New(".")}
	for _, opt := range opts {
		opt(l)
	}

	if err := l.k.Load(mapProvider{"ocm": map[string]any{"api_base": DefaultAPIBase}}, nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if l.filePath != "" {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", l.filePath, err)
		}
	}

	// Only known, non-empty variables are picked up. An empty key skips the
	// variable, so OCM_OFFLINE_TOKEN= leaves a value from the file alone.
	if err := l.k.Load(env.ProviderWithValue("", ".", func(name, value string) (string, any) {
		if value == "" {
			return "", nil
		}
		return envKeys[name], value
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.OCM.APIBase = strings.TrimRight(cfg.OCM.APIBase, "/")
	if cfg.OCM.APIBase == "" {
		cfg.OCM.APIBase = DefaultAPIBase
	}

	return &cfg, nil
}

// Validate reports every missing required value.
func (c *Config) Validate() error {
	var errs []error
	if c.OCM.ClientID == "" {
		errs = append(errs, ErrMissingClientID)
	}
	if c.OCM.OfflineToken == "" {
		errs = append(errs, ErrMissingOfflineToken)
	}
	if c.OCM.TokenURL == "" {
		errs = append(errs, ErrMissingTokenURL)
	}
	return errors.Join(errs...)
}

// mapProvider feeds a nested map into koanf.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("config: map provider does not support ReadBytes")
}

func (m mapProvider) Read() (map[string]any, error) {
	return m, nil
}
