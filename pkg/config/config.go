package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrUnreadableConfigFile = errors.New("config file cannot be read")

// Config is the full service configuration. Every field has a working
// default, so an empty file (or no file at all) yields a runnable
// local setup serving from ./storage into ./cache.
type Config struct {
	ListenAddress string `yaml:"listenAddress"`

	Storage   StorageConfig   `yaml:"storage"`
	Cache     CacheConfig     `yaml:"cache"`
	Signing   SigningConfig   `yaml:"signing"`
	Params    ParamsConfig    `yaml:"params"`
	Lock      LockConfig      `yaml:"lock"`
	Transform TransformConfig `yaml:"transform"`
}

type StorageConfig struct {
	Root string `yaml:"root"`
}

type CacheConfig struct {
	// Backend selects the artifact store: "fs" or "minio".
	Backend string `yaml:"backend"`
	Root    string `yaml:"root"`

	Minio MinioConfig `yaml:"minio"`

	// MongoConnectionString enables the durable entry registry. When
	// empty the registry is kept in-process only and purge-by-source
	// is unavailable across restarts.
	MongoConnectionString string `yaml:"mongoConnectionString"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Location  string `yaml:"location"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"useSSL"`
}

type SigningConfig struct {
	// Required rejects unsigned requests. The salt itself always comes
	// from SaltEnvVariable, never from the config file.
	Required        bool   `yaml:"required"`
	SaltEnvVariable string `yaml:"saltEnvVariable"`
}

type ParamsConfig struct {
	AllowPlainQuery    bool     `yaml:"allowPlainQuery"`
	AllowedFormats     []string `yaml:"allowedFormats"`
	AllowedAspectModes []string `yaml:"allowedAspectModes"`
	MinDimension       int      `yaml:"minDimension"`
	MaxDimension       int      `yaml:"maxDimension"`
	DefaultQuality     int      `yaml:"defaultQuality"`
}

type LockConfig struct {
	MaxRetries int      `yaml:"maxRetries"`
	Backoff    Duration `yaml:"backoff"`
}

// Duration decodes YAML scalars like "250ms" or "2s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}

	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type TransformConfig struct {
	MaxConcurrent   int64 `yaml:"maxConcurrent"`
	MaxSourceBytes  int64 `yaml:"maxSourceBytes"`
	MaxSourcePixels int   `yaml:"maxSourcePixels"`
}

// Load reads the YAML file at path, applies environment overrides and
// fills defaults. A missing file is not an error when path is empty;
// an explicitly named file must exist.
func Load(path string) (Config, error) {
	var config Config

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrUnreadableConfigFile, err)
		}
		if err := yaml.Unmarshal(raw, &config); err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrUnreadableConfigFile, err)
		}
	}

	config.applyEnvOverrides()
	config.applyDefaults()
	return config, nil
}

func (c *Config) applyEnvOverrides() {
	overrideString(&c.ListenAddress, "IMAGECACHE_LISTEN_ADDRESS")
	overrideString(&c.Storage.Root, "IMAGECACHE_STORAGE_ROOT")
	overrideString(&c.Cache.Backend, "IMAGECACHE_CACHE_BACKEND")
	overrideString(&c.Cache.Root, "IMAGECACHE_CACHE_ROOT")
	overrideString(&c.Cache.MongoConnectionString, "IMAGECACHE_MONGO_CONNECTION_STRING")
	overrideString(&c.Cache.Minio.Endpoint, "IMAGECACHE_MINIO_ENDPOINT")
	overrideString(&c.Cache.Minio.AccessKey, "IMAGECACHE_MINIO_ACCESS_KEY")
	overrideString(&c.Cache.Minio.SecretKey, "IMAGECACHE_MINIO_SECRET_KEY")
	overrideString(&c.Cache.Minio.Location, "IMAGECACHE_MINIO_LOCATION")
	overrideString(&c.Cache.Minio.Bucket, "IMAGECACHE_MINIO_BUCKET")
	overrideBool(&c.Cache.Minio.UseSSL, "IMAGECACHE_MINIO_SSL")
	overrideBool(&c.Signing.Required, "IMAGECACHE_SIGNATURE_REQUIRED")
}

func (c *Config) applyDefaults() {
	if c.ListenAddress == "" {
		c.ListenAddress = ":8080"
	}
	if c.Storage.Root == "" {
		c.Storage.Root = "./storage"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "fs"
	}
	if c.Cache.Root == "" {
		c.Cache.Root = "./cache"
	}
	if c.Signing.SaltEnvVariable == "" {
		c.Signing.SaltEnvVariable = "IMAGECACHE_SIGNATURE_SALT"
	}
}

func overrideString(target *string, variableName string) {
	if value, ok := os.LookupEnv(variableName); ok {
		*target = value
	}
}

func overrideBool(target *bool, variableName string) {
	if value, ok := os.LookupEnv(variableName); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			*target = parsed
		}
	}
}
