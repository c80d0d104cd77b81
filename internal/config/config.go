package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Corpus backends selectable through corpus.source.
const (
	CorpusStatic = "static" // Bundles embedded in the binary
	CorpusFile   = "file"   // YAML bundles on disk (corpus.files)
	CorpusMongo  = "mongo"  // exercise_templates collection
	CorpusS3     = "s3"     // YAML bundles under s3.corpus_prefix
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	S3          S3Config          `mapstructure:"s3"`
	Redis       RedisConfig       `mapstructure:"redis"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Corpus      CorpusConfig      `mapstructure:"corpus"`
	Enhancement EnhancementConfig `mapstructure:"enhancement"`
	Program     ProgramConfig     `mapstructure:"program"`
	Log         LogConfig         `mapstructure:"log"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string        `mapstructure:"endpoint"`
	Region          string        `mapstructure:"region"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	BucketName      string        `mapstructure:"bucket_name"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	CorpusPrefix    string        `mapstructure:"corpus_prefix"`  // Bundles live at <prefix><version>.yaml
	PresignExpiry   time.Duration `mapstructure:"presign_expiry"` // Lifetime of media URLs
}

// RedisConfig configures the shared corpus cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// JWTConfig configures bearer-token checks on the program endpoints.
type JWTConfig struct {
	Secret   string `mapstructure:"secret"`
	Required bool   `mapstructure:"required"`
}

type CorpusConfig struct {
	Source         string   `mapstructure:"source"`
	Files          []string `mapstructure:"files"`
	ScoringVersion string   `mapstructure:"scoring_version"` // Exact version, semver constraint or "latest"
}

// EnhancementConfig selects the optional model provider. With no provider or
// API key, programs are returned exactly as generated.
type EnhancementConfig struct {
	Provider       string        `mapstructure:"provider"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	QuotaPerMinute int           `mapstructure:"quota_per_minute"`
}

type ProgramConfig struct {
	DefaultBudgetMinutes   int  `mapstructure:"default_budget_minutes"`
	LowConfidenceThreshold int  `mapstructure:"low_confidence_threshold"`
	PresignMedia           bool `mapstructure:"presign_media"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"` // "dev" or "prod"
}

// LoadConfig reads config.yaml from path (optional) and environment variables.
// Nested keys map to env names with "." replaced by "_", e.g. ENHANCEMENT_API_KEY.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil // Env vars and defaults only
	} else if err != nil {
		return
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}
	return config, config.Validate()
}

// Every key gets a default so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "movement_program")

	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.corpus_prefix", "corpus/")
	v.SetDefault("s3.presign_expiry", "15m")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", "1h")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.required", false)

	v.SetDefault("corpus.source", CorpusStatic)
	v.SetDefault("corpus.files", []string{})
	v.SetDefault("corpus.scoring_version", "latest")

	v.SetDefault("enhancement.provider", "")
	v.SetDefault("enhancement.api_key", "")
	v.SetDefault("enhancement.model", "")
	v.SetDefault("enhancement.base_url", "")
	v.SetDefault("enhancement.timeout", "5s")
	v.SetDefault("enhancement.quota_per_minute", 60)

	v.SetDefault("program.default_budget_minutes", 20)
	v.SetDefault("program.low_confidence_threshold", 40)
	v.SetDefault("program.presign_media", false)

	v.SetDefault("log.mode", "dev")
}

// Validate checks cross-field requirements of the selected backends.
func (c Config) Validate() error {
	var errs []error
	switch c.Corpus.Source {
	case CorpusStatic:
	case CorpusFile:
		if len(c.Corpus.Files) == 0 {
			errs = append(errs, errors.New("corpus.files is required for the file corpus"))
		}
	case CorpusMongo:
		if c.Database.URI == "" || c.Database.Name == "" {
			errs = append(errs, errors.New("database.uri and database.name are required for the mongo corpus"))
		}
	case CorpusS3:
		if c.S3.BucketName == "" {
			errs = append(errs, errors.New("s3.bucket_name is required for the s3 corpus"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown corpus.source %q", c.Corpus.Source))
	}
	if c.Program.PresignMedia && c.S3.BucketName == "" {
		errs = append(errs, errors.New("s3.bucket_name is required when program.presign_media is set"))
	}
	if c.JWT.Required && c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required when jwt.required is set"))
	}
	if c.Program.DefaultBudgetMinutes < 0 {
		errs = append(errs, errors.New("program.default_budget_minutes cannot be negative"))
	}
	return errors.Join(errs...)
}
