// Package config carga la configuración del servidor desde YAML o TOML,
// aplica defaults y overrides por variables de entorno (OLYMPUS_*).
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvPrefix antecede a todas las variables de entorno que pisan la config.
const EnvPrefix = "OLYMPUS_"

type Config struct {
	App struct {
		// dev | staging | prod
		Env     string `yaml:"env" toml:"env"`
		Name    string `yaml:"name" toml:"name"`
		Version string `yaml:"version" toml:"version"`
	} `yaml:"app" toml:"app"`

	Server struct {
		Addr        string `yaml:"addr" toml:"addr"`
		MetricsAddr string `yaml:"metrics_addr" toml:"metrics_addr"` // vacío = /metrics en el server principal
		ReadTimeout string `yaml:"read_timeout" toml:"read_timeout"`
		// Nombre de la cookie de sesión además del header Authorization: Bearer.
		CookieName   string `yaml:"cookie_name" toml:"cookie_name"`
		CookieSecure bool   `yaml:"cookie_secure" toml:"cookie_secure"`
	} `yaml:"server" toml:"server"`

	Storage struct {
		Driver   string `yaml:"driver" toml:"driver"` // memory | postgres
		DSN      string `yaml:"dsn" toml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns" toml:"max_open_conns"`
			MinConns        int    `yaml:"min_conns" toml:"min_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime" toml:"conn_max_lifetime"`
		} `yaml:"postgres" toml:"postgres"`
		AutoMigrate bool `yaml:"auto_migrate" toml:"auto_migrate"`
	} `yaml:"storage" toml:"storage"`

	Sessions struct {
		Driver string `yaml:"driver" toml:"driver"` // memory | redis
		Redis  struct {
			Addr     string `yaml:"addr" toml:"addr"`
			Password string `yaml:"password" toml:"password"`
			DB       int    `yaml:"db" toml:"db"`
			Prefix   string `yaml:"prefix" toml:"prefix"`
		} `yaml:"redis" toml:"redis"`
		TTL         string `yaml:"ttl" toml:"ttl"`
		Grace       string `yaml:"grace" toml:"grace"`
		CookieBytes int    `yaml:"cookie_bytes" toml:"cookie_bytes"`
	} `yaml:"sessions" toml:"sessions"`

	MFA struct {
		Issuer        string `yaml:"issuer" toml:"issuer"`
		TimeoutPeriod string `yaml:"timeout_period" toml:"timeout_period"`
		Skew          uint   `yaml:"skew" toml:"skew"`
		// EnableDummy registra el autenticador "dummy" (secreto predecible).
		// Sólo para desarrollo y tests; prohibido en prod.
		EnableDummy bool `yaml:"enable_dummy" toml:"enable_dummy"`
	} `yaml:"mfa" toml:"mfa"`

	Auth struct {
		Scheme         string `yaml:"scheme" toml:"scheme"` // password | threshold-oprf
		ThrottlePeriod string `yaml:"throttle_period" toml:"throttle_period"`
	} `yaml:"auth" toml:"auth"`

	Threshold struct {
		// base64 (std o url) de la clave compartida entre nodos.
		SharedMFAKey string `yaml:"shared_mfa_key" toml:"shared_mfa_key"`
		ProofWindow  string `yaml:"proof_window" toml:"proof_window"`
	} `yaml:"threshold" toml:"threshold"`

	JWT struct {
		Issuer  string `yaml:"issuer" toml:"issuer"`
		TTL     string `yaml:"ttl" toml:"ttl"`
		KeyPath string `yaml:"key_path" toml:"key_path"`
	} `yaml:"jwt" toml:"jwt"`

	Provers struct {
		JWT struct {
			Enabled       bool   `yaml:"enabled" toml:"enabled"`
			Issuer        string `yaml:"issuer" toml:"issuer"`
			PublicKeyPath string `yaml:"public_key_path" toml:"public_key_path"` // PEM del emisor confiable
		} `yaml:"jwt" toml:"jwt"`
	} `yaml:"provers" toml:"provers"`

	Rate struct {
		Enabled     bool   `yaml:"enabled" toml:"enabled"`
		Window      string `yaml:"window" toml:"window"`
		MaxRequests int    `yaml:"max_requests" toml:"max_requests"`
		Login       struct {
			Limit  int    `yaml:"limit" toml:"limit"`
			Window string `yaml:"window" toml:"window"`
		} `yaml:"login" toml:"login"`
	} `yaml:"rate" toml:"rate"`

	Security struct {
		SecretBoxKey   string `yaml:"secretbox_key" toml:"secretbox_key"`
		PasswordPolicy struct {
			MinLength     int  `yaml:"min_length" toml:"min_length"`
			RequireUpper  bool `yaml:"require_upper" toml:"require_upper"`
			RequireLower  bool `yaml:"require_lower" toml:"require_lower"`
			RequireDigit  bool `yaml:"require_digit" toml:"require_digit"`
			RequireSymbol bool `yaml:"require_symbol" toml:"require_symbol"`
		} `yaml:"password_policy" toml:"password_policy"`
		PasswordBlacklistPath string `yaml:"password_blacklist_path" toml:"password_blacklist_path"`
	} `yaml:"security" toml:"security"`

	Logging struct {
		Level string `yaml:"level" toml:"level"`
	} `yaml:"logging" toml:"logging"`
}

// Load lee path (YAML, o TOML si termina en .toml). Un path vacío arranca
// sólo con defaults + env.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		if err := decodeFile(path, &c); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	c.applyDefaults()
	c.applyEnvOverrides()

	// Normalizar rutas relativas respecto al directorio del archivo
	if path != "" {
		base := filepath.Dir(path)
		c.Security.PasswordBlacklistPath = resolve(base, c.Security.PasswordBlacklistPath)
		c.JWT.KeyPath = resolve(base, c.JWT.KeyPath)
		c.Provers.JWT.PublicKeyPath = resolve(base, c.Provers.JWT.PublicKeyPath)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func decodeFile(path string, c *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err := toml.DecodeFile(path, c)
		return err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, c)
}

func resolve(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "olympus"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.CookieName == "" {
		c.Server.CookieName = "olympus_session"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Sessions.Driver == "" {
		c.Sessions.Driver = "memory"
	}
	if c.Sessions.Redis.Prefix == "" {
		c.Sessions.Redis.Prefix = "olympus:"
	}
	if c.Sessions.TTL == "" {
		c.Sessions.TTL = "1h"
	}
	if c.Sessions.Grace == "" {
		c.Sessions.Grace = "0s"
	}
	if c.Sessions.CookieBytes == 0 {
		c.Sessions.CookieBytes = 64
	}
	if c.MFA.Issuer == "" {
		c.MFA.Issuer = c.App.Name
	}
	if c.MFA.TimeoutPeriod == "" {
		c.MFA.TimeoutPeriod = "30s"
	}
	if c.MFA.Skew == 0 {
		c.MFA.Skew = 1
	}
	if c.Auth.Scheme == "" {
		c.Auth.Scheme = "password"
	}
	if c.Auth.ThrottlePeriod == "" {
		c.Auth.ThrottlePeriod = "1s"
	}
	if c.Threshold.ProofWindow == "" {
		c.Threshold.ProofWindow = "2m"
	}
	if c.JWT.TTL == "" {
		c.JWT.TTL = "5m"
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}
	if c.Rate.Login.Limit == 0 {
		c.Rate.Login.Limit = 10
	}
	if c.Rate.Login.Window == "" {
		c.Rate.Login.Window = "1m"
	}
	if c.Security.PasswordPolicy.MinLength == 0 {
		c.Security.PasswordPolicy.MinLength = 10
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(EnvPrefix + key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides pisa el archivo con OLYMPUS_*.
func (c *Config) applyEnvOverrides() {
	strs := map[string]*string{
		"APP_ENV":                 &c.App.Env,
		"SERVER_ADDR":             &c.Server.Addr,
		"SERVER_METRICS_ADDR":     &c.Server.MetricsAddr,
		"STORAGE_DRIVER":          &c.Storage.Driver,
		"STORAGE_DSN":             &c.Storage.DSN,
		"SESSIONS_DRIVER":         &c.Sessions.Driver,
		"SESSIONS_TTL":            &c.Sessions.TTL,
		"REDIS_ADDR":              &c.Sessions.Redis.Addr,
		"REDIS_PASSWORD":          &c.Sessions.Redis.Password,
		"REDIS_PREFIX":            &c.Sessions.Redis.Prefix,
		"MFA_ISSUER":              &c.MFA.Issuer,
		"MFA_TIMEOUT_PERIOD":      &c.MFA.TimeoutPeriod,
		"AUTH_SCHEME":             &c.Auth.Scheme,
		"AUTH_THROTTLE_PERIOD":    &c.Auth.ThrottlePeriod,
		"THRESHOLD_SHARED_KEY":    &c.Threshold.SharedMFAKey,
		"JWT_ISSUER":              &c.JWT.Issuer,
		"JWT_TTL":                 &c.JWT.TTL,
		"JWT_KEY_PATH":            &c.JWT.KeyPath,
		"SECRETBOX_KEY":           &c.Security.SecretBoxKey,
		"PASSWORD_BLACKLIST_PATH": &c.Security.PasswordBlacklistPath,
		"LOG_LEVEL":               &c.Logging.Level,
	}
	for k, dst := range strs {
		if v, ok := getEnvStr(k); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	c.App.Env = strings.ToLower(c.App.Env)

	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Sessions.Redis.DB = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvBool("STORAGE_AUTO_MIGRATE"); ok {
		c.Storage.AutoMigrate = v
	}
	if v, ok := getEnvBool("SERVER_COOKIE_SECURE"); ok {
		c.Server.CookieSecure = v
	}
	if v, ok := getEnvBool("MFA_ENABLE_DUMMY"); ok {
		c.MFA.EnableDummy = v
	}
}

// Validate revisa duraciones, drivers y las combinaciones que el arranque necesita.
func (c *Config) Validate() error {
	var errs []error
	durations := map[string]string{
		"server.read_timeout":                c.Server.ReadTimeout,
		"storage.postgres.conn_max_lifetime": c.Storage.Postgres.ConnMaxLifetime,
		"sessions.ttl":                       c.Sessions.TTL,
		"sessions.grace":                     c.Sessions.Grace,
		"mfa.timeout_period":                 c.MFA.TimeoutPeriod,
		"auth.throttle_period":               c.Auth.ThrottlePeriod,
		"threshold.proof_window":             c.Threshold.ProofWindow,
		"jwt.ttl":                            c.JWT.TTL,
		"rate.window":                        c.Rate.Window,
		"rate.login.window":                  c.Rate.Login.Window,
	}
	for name, v := range durations {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	switch strings.ToLower(c.Storage.Driver) {
	case "memory", "mem":
	case "postgres", "pg", "postgresql":
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unsupported %q", c.Storage.Driver))
	}

	switch strings.ToLower(c.Sessions.Driver) {
	case "memory", "mem":
	case "redis":
		if c.Sessions.Redis.Addr == "" {
			errs = append(errs, errors.New("sessions.redis.addr required for redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("sessions.driver: unsupported %q", c.Sessions.Driver))
	}

	switch c.Auth.Scheme {
	case "password":
	case "threshold-oprf":
		if _, err := c.SharedMFAKey(); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("auth.scheme: unsupported %q", c.Auth.Scheme))
	}

	if c.Sessions.CookieBytes < 16 {
		errs = append(errs, errors.New("sessions.cookie_bytes must be >= 16"))
	}
	if c.Provers.JWT.Enabled && c.Provers.JWT.PublicKeyPath == "" {
		errs = append(errs, errors.New("provers.jwt.public_key_path required when enabled"))
	}
	if c.App.Env == "prod" && c.Storage.Driver != "memory" && c.Security.SecretBoxKey == "" {
		errs = append(errs, errors.New("security.secretbox_key required in prod"))
	}
	if c.App.Env == "prod" && c.MFA.EnableDummy {
		errs = append(errs, errors.New("mfa.enable_dummy not allowed in prod"))
	}
	return errors.Join(errs...)
}

// SharedMFAKey decodifica threshold.shared_mfa_key.
func (c *Config) SharedMFAKey() ([]byte, error) {
	s := strings.TrimSpace(c.Threshold.SharedMFAKey)
	if s == "" {
		return nil, errors.New("threshold.shared_mfa_key required for threshold-oprf")
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(s); err == nil {
			if len(b) < 16 {
				return nil, errors.New("threshold.shared_mfa_key must decode to >= 16 bytes")
			}
			return b, nil
		}
	}
	return nil, errors.New("threshold.shared_mfa_key: invalid base64")
}

// Duration parsea un campo ya validado. Devuelve 0 si está vacío.
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
