package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "100KB"

	// Signing keys shorter than this are rejected at startup.
	minSigningKeyBytes = 32
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres *PostgresConfig `json:"postgres" yaml:"postgres"`

	JWT *JWTConfig `json:"jwt" yaml:"jwt"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	RateLimit *RateLimitConfig `json:"rateLimit" yaml:"rateLimit"`

	PasswordPolicy *PasswordPolicyConfig `json:"passwordPolicy" yaml:"passwordPolicy"`

	OAuth *OAuthConfig `json:"oauth" yaml:"oauth"`

	Mail *MailConfig `json:"mail" yaml:"mail"`

	// TestRoutes gates endpoints that only exist for testing and demos
	// (e.g. manual email verification).
	TestRoutes *TestRoutesConfig `json:"testRoutes" yaml:"testRoutes"`
}

// PostgresConfig defines the PostgreSQL connection settings.
type PostgresConfig struct {
	Host            string        `json:"host" yaml:"host"`
	Port            string        `json:"port" yaml:"port"`
	UserName        string        `json:"userName" yaml:"userName"`
	Password        string        `json:"password" yaml:"password"`
	DBName          string        `json:"dbName" yaml:"dbName"`
	SSLMode         string        `json:"sslMode" yaml:"sslMode"`
	MaxOpenConns    int           `json:"maxOpenConns" yaml:"maxOpenConns"`
	MaxIdleConns    int           `json:"maxIdleConns" yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime" yaml:"connMaxLifetime"`
}

// DSN builds the PostgreSQL connection string.
func (c *PostgresConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.UserName, c.Password, c.DBName, sslMode)
}

// JWTConfig defines token signing and lifetime settings.
// Secret is a Base64-encoded symmetric key; it must decode to at least
// minSigningKeyBytes bytes or the token codec refuses to start.
type JWTConfig struct {
	Secret     string        `json:"secret" yaml:"secret"`
	Issuer     string        `json:"issuer" yaml:"issuer"`
	Audience   string        `json:"audience" yaml:"audience"`
	AccessTTL  time.Duration `json:"accessTtl" yaml:"accessTtl"`
	RefreshTTL time.Duration `json:"refreshTtl" yaml:"refreshTtl"`
}

// MinSigningKeyBytes returns the minimum decoded signing key length.
func MinSigningKeyBytes() int {
	return minSigningKeyBytes
}

// AuthConfig defines authentication-related configuration.
type AuthConfig struct {
	BcryptCost      int           `json:"bcryptCost" yaml:"bcryptCost"`
	MaxFailedLogins int           `json:"maxFailedLogins" yaml:"maxFailedLogins"`
	VerificationTTL time.Duration `json:"verificationTtl" yaml:"verificationTtl"`
}

// RateLimitClassConfig defines a single token-bucket class.
type RateLimitClassConfig struct {
	Capacity     int64         `json:"capacity" yaml:"capacity"`
	RefillTokens int64         `json:"refillTokens" yaml:"refillTokens"`
	RefillPeriod time.Duration `json:"refillPeriod" yaml:"refillPeriod"`
}

// RateLimitConfig defines the per-class token-bucket rate limits and the
// bucket cache dimensions.
type RateLimitConfig struct {
	Enabled     bool          `json:"enabled" yaml:"enabled"`
	CacheSize   int           `json:"cacheSize" yaml:"cacheSize"`
	CacheExpiry time.Duration `json:"cacheExpiry" yaml:"cacheExpiry"`

	Global            RateLimitClassConfig `json:"global" yaml:"global"`
	Login             RateLimitClassConfig `json:"login" yaml:"login"`
	Register          RateLimitClassConfig `json:"register" yaml:"register"`
	EmailVerification RateLimitClassConfig `json:"emailVerification" yaml:"emailVerification"`
	PasswordReset     RateLimitClassConfig `json:"passwordReset" yaml:"passwordReset"`
	Admin             RateLimitClassConfig `json:"admin" yaml:"admin"`
}

// PasswordPolicyConfig defines password composition, history and expiry rules.
type PasswordPolicyConfig struct {
	Enabled          bool   `json:"enabled" yaml:"enabled"`
	EnforcementLevel string `json:"enforcementLevel" yaml:"enforcementLevel"`

	MinLength int `json:"minLength" yaml:"minLength"`
	MaxLength int `json:"maxLength" yaml:"maxLength"`

	RequireUppercase bool `json:"requireUppercase" yaml:"requireUppercase"`
	RequireLowercase bool `json:"requireLowercase" yaml:"requireLowercase"`
	RequireDigits    bool `json:"requireDigits" yaml:"requireDigits"`
	RequireSpecial   bool `json:"requireSpecial" yaml:"requireSpecial"`
	MinDigits        int  `json:"minDigits" yaml:"minDigits"`
	MinSpecialChars  int  `json:"minSpecialChars" yaml:"minSpecialChars"`

	PreventCommonPasswords  bool `json:"preventCommonPasswords" yaml:"preventCommonPasswords"`
	PreventPersonalInfo     bool `json:"preventPersonalInfo" yaml:"preventPersonalInfo"`
	PreventKeyboardPatterns bool `json:"preventKeyboardPatterns" yaml:"preventKeyboardPatterns"`
	MaxRepeatedChars        int  `json:"maxRepeatedChars" yaml:"maxRepeatedChars"`

	HistoryCount      int `json:"historyCount" yaml:"historyCount"`
	ExpiryDays        int `json:"expiryDays" yaml:"expiryDays"`
	ExpiryWarningDays int `json:"expiryWarningDays" yaml:"expiryWarningDays"`
}

// OAuthConfig holds the federated login provider settings.
type OAuthConfig struct {
	Google *OAuthProviderConfig `json:"google" yaml:"google"`

	// RedirectURL is the frontend URL that receives tokens after a
	// successful federated login. Empty means the callback answers with JSON.
	RedirectURL string `json:"redirectUrl" yaml:"redirectUrl"`
}

// OAuthProviderConfig holds per-provider verification settings.
type OAuthProviderConfig struct {
	ClientID string `json:"clientId" yaml:"clientId"`
}

// MailConfig defines outgoing mail settings for verification emails.
type MailConfig struct {
	From string `json:"from" yaml:"from"`
	// BaseURL is prepended to verification links, e.g. https://app.localbite.dev
	BaseURL string `json:"baseUrl" yaml:"baseUrl"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// TestRoutesConfig defines configuration for testing endpoints
type TestRoutesConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: POSTGRES_SSLMODE -> postgres.sslMode (not postgres.sslmode)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults fills in zero values with the service defaults so that a
// minimal YAML file still yields a fully working configuration.
func applyDefaults(cfg *Config) {
	if cfg.JWT == nil {
		cfg.JWT = &JWTConfig{}
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "LocalBite"
	}
	if cfg.JWT.Audience == "" {
		cfg.JWT.Audience = "LocalBite-Users"
	}
	if cfg.JWT.AccessTTL <= 0 {
		cfg.JWT.AccessTTL = time.Hour
	}
	if cfg.JWT.RefreshTTL <= 0 {
		cfg.JWT.RefreshTTL = 7 * 24 * time.Hour
	}

	if cfg.Auth == nil {
		cfg.Auth = &AuthConfig{}
	}
	if cfg.Auth.MaxFailedLogins <= 0 {
		cfg.Auth.MaxFailedLogins = 5
	}
	if cfg.Auth.VerificationTTL <= 0 {
		cfg.Auth.VerificationTTL = 24 * time.Hour
	}

	if cfg.RateLimit == nil {
		cfg.RateLimit = &RateLimitConfig{Enabled: true}
	}
	applyRateLimitDefaults(cfg.RateLimit)

	if cfg.PasswordPolicy == nil {
		cfg.PasswordPolicy = &PasswordPolicyConfig{
			Enabled:                 true,
			RequireUppercase:        true,
			RequireLowercase:        true,
			RequireDigits:           true,
			RequireSpecial:          true,
			PreventCommonPasswords:  true,
			PreventPersonalInfo:     true,
			PreventKeyboardPatterns: true,
		}
	}
	applyPasswordPolicyDefaults(cfg.PasswordPolicy)
}

func applyRateLimitDefaults(rl *RateLimitConfig) {
	if rl.CacheSize <= 0 {
		rl.CacheSize = 10000
	}
	if rl.CacheExpiry <= 0 {
		rl.CacheExpiry = time.Hour
	}

	applyClassDefaults(&rl.Global, 100, 100, time.Minute)
	applyClassDefaults(&rl.Login, 5, 2, 5*time.Minute)
	applyClassDefaults(&rl.Register, 3, 1, 10*time.Minute)
	applyClassDefaults(&rl.EmailVerification, 3, 1, 15*time.Minute)
	applyClassDefaults(&rl.PasswordReset, 2, 1, 30*time.Minute)
	applyClassDefaults(&rl.Admin, 50, 25, time.Minute)
}

func applyClassDefaults(class *RateLimitClassConfig, capacity, refillTokens int64, refillPeriod time.Duration) {
	if class.Capacity <= 0 {
		class.Capacity = capacity
	}
	if class.RefillTokens <= 0 {
		class.RefillTokens = refillTokens
	}
	if class.RefillPeriod <= 0 {
		class.RefillPeriod = refillPeriod
	}
}

func applyPasswordPolicyDefaults(pp *PasswordPolicyConfig) {
	if pp.EnforcementLevel == "" {
		pp.EnforcementLevel = "STRICT"
	}
	if pp.MinLength <= 0 {
		pp.MinLength = 8
	}
	if pp.MaxLength <= 0 {
		pp.MaxLength = 128
	}
	if pp.MinDigits <= 0 {
		pp.MinDigits = 1
	}
	if pp.MinSpecialChars <= 0 {
		pp.MinSpecialChars = 1
	}
	if pp.MaxRepeatedChars <= 0 {
		pp.MaxRepeatedChars = 3
	}
	if pp.HistoryCount <= 0 {
		pp.HistoryCount = 5
	}
	if pp.ExpiryDays == 0 {
		pp.ExpiryDays = 90
	}
	if pp.ExpiryWarningDays <= 0 {
		pp.ExpiryWarningDays = 7
	}
}

// validate rejects configurations that cannot produce a working service.
// A misconfigured deployment must fail at startup, not at the first request.
func validate(cfg *Config) error {
	if cfg.Postgres == nil {
		return errors.New("postgres configuration is required")
	}
	if cfg.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}

	switch strings.ToUpper(cfg.PasswordPolicy.EnforcementLevel) {
	case "DISABLED", "LENIENT", "MODERATE", "STRICT":
	default:
		return errors.Errorf("unknown password policy enforcement level: %s", cfg.PasswordPolicy.EnforcementLevel)
	}

	if cfg.PasswordPolicy.MinLength > cfg.PasswordPolicy.MaxLength {
		return errors.Errorf("password policy minLength %d exceeds maxLength %d",
			cfg.PasswordPolicy.MinLength, cfg.PasswordPolicy.MaxLength)
	}

	return nil
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}
