package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("google-signup version %s, commit %s, built at %s", version, commit, date)
}

// GetVersion returns the bare version string.
func GetVersion() string {
	return version
}

const (
	// EnvPrefix is prepended to every derived environment variable name.
	EnvPrefix = "GOOGLE_SIGNUP"

	// GoogleIssuer is the issuer whose discovery document is used by default.
	GoogleIssuer = "https://accounts.google.com"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	OAuth     OAuthConfig     `mapstructure:"oauth" yaml:"oauth"`
	Session   SessionConfig   `mapstructure:"session" yaml:"session"`
	Audit     AuditConfig     `mapstructure:"audit" yaml:"audit"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

type ServerConfig struct {
	Host              string        `mapstructure:"host" yaml:"host"`
	Port              int           `mapstructure:"port" yaml:"port" validate:"gte=0,lte=65535"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"gte=0"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
	TrustProxyHeaders bool          `mapstructure:"trust_proxy_headers" yaml:"trust_proxy_headers"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LoggingConfig struct {
	Level             string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error dpanic panic fatal"`
	Format            string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=console json"`
	Color             bool   `mapstructure:"color" yaml:"color"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace" yaml:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path" yaml:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file" yaml:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console" yaml:"disable_console"`
}

type OAuthConfig struct {
	IssuerURL         string        `mapstructure:"issuer_url" yaml:"issuer_url" validate:"required,url"`
	ClientID          string        `mapstructure:"client_id" yaml:"client_id" validate:"required"`
	ClientSecret      Secret        `mapstructure:"client_secret" yaml:"client_secret" validate:"required"`
	Scopes            []string      `mapstructure:"scopes" yaml:"scopes" validate:"required,min=1,dive,required"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout" yaml:"request_timeout" validate:"gt=0"`
	DiscoveryCacheTTL time.Duration `mapstructure:"discovery_cache_ttl" yaml:"discovery_cache_ttl" validate:"gte=0"`
	EnforceState      bool          `mapstructure:"enforce_state" yaml:"enforce_state"`
	StateTTL          time.Duration `mapstructure:"state_ttl" yaml:"state_ttl" validate:"gt=0"`
}

type SessionConfig struct {
	SecretKey Secret `mapstructure:"secret_key" yaml:"secret_key" validate:"required"`
}

type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path" validate:"required_if=Enabled true"`
}

type TelemetryConfig struct {
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled"`
	ServiceName string  `mapstructure:"service_name" yaml:"service_name"`
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint" validate:"required_if=Enabled true"`
	Insecure    bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate" yaml:"sample_rate" validate:"gte=0,lte=1"`
}

// Secret is an opaque configuration value that never prints itself.
type Secret string

const redacted = "[REDACTED]"

// Value returns the raw secret.
func (s Secret) Value() string { return string(s) }

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

func (s Secret) GoString() string { return s.String() }

// MarshalYAML keeps secrets out of config dumps.
func (s Secret) MarshalYAML() (interface{}, error) { return s.String(), nil }

// MarshalText keeps secrets out of JSON and text encodings.
func (s Secret) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Options controls where Load looks for its inputs.
type Options struct {
	// ConfigFile is an explicit config path; empty means search . and /etc/google-signup.
	ConfigFile string
	// EnvFile is the dotenv file loaded before reading the environment.
	EnvFile string
	// Flags are bound on top of file and environment values when non-nil.
	Flags *pflag.FlagSet
}

// ErrMissingSecret is returned when a required credential is absent at startup.
var ErrMissingSecret = errors.New("required secret is not configured")

// InitFlags registers the command line flags understood by Load.
func InitFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to the config file")
	fs.String("env-file", ".env", "Path to a dotenv file loaded before the environment")
	fs.String("server.host", "", "Listen host")
	fs.Int("server.port", 0, "Listen port")
	fs.String("logging.level", "", "Log level (debug|info|warn|error)")
	fs.String("logging.format", "", "Log format (console|json)")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.trust_proxy_headers", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)

	v.SetDefault("oauth.issuer_url", GoogleIssuer)
	v.SetDefault("oauth.scopes", []string{"openid", "email", "profile"})
	v.SetDefault("oauth.request_timeout", 5*time.Second)
	v.SetDefault("oauth.discovery_cache_ttl", time.Duration(0))
	v.SetDefault("oauth.enforce_state", false)
	v.SetDefault("oauth.state_ttl", 10*time.Minute)

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.path", "data/audit.db")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "google-signup")
	v.SetDefault("telemetry.endpoint", "localhost:4318")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.sample_rate", 1.0)
}

// Load resolves the configuration from defaults, an optional YAML file, a dotenv
// file, the environment and flags, in increasing order of precedence.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if opts.Flags != nil {
		if err := v.BindPFlags(opts.Flags); err != nil {
			return nil, err
		}
		if opts.ConfigFile == "" {
			opts.ConfigFile = v.GetString("config")
		}
		if opts.EnvFile == "" {
			opts.EnvFile = v.GetString("env-file")
		}
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// The deployment contract names these variables without the prefix.
	bindings := map[string][]string{
		"oauth.client_id":     {"GOOGLE_CLIENT_ID", EnvPrefix + "_OAUTH_CLIENT_ID"},
		"oauth.client_secret": {"GOOGLE_CLIENT_SECRET", EnvPrefix + "_OAUTH_CLIENT_SECRET"},
		"session.secret_key":  {"SECRET_KEY", EnvPrefix + "_SESSION_SECRET_KEY"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, err
		}
	}

	v.SetConfigType("yaml")
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/google-signup")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// viper may hand back a single comma or space separated string from the environment
	if len(cfg.OAuth.Scopes) == 1 {
		cfg.OAuth.Scopes = strings.FieldsFunc(cfg.OAuth.Scopes[0], func(r rune) bool {
			return r == ',' || r == ' '
		})
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration and fails fast on missing credentials.
func (c *Config) Validate() error {
	var missing []string
	if c.OAuth.ClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}
	if c.OAuth.ClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}
	if c.Session.SecretKey == "" {
		missing = append(missing, "SECRET_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSecret, strings.Join(missing, ", "))
	}
	return validateStruct(c)
}
