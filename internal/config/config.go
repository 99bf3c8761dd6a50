package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config captures the runtime configuration for the dashboard service.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	AWS           AWSConfig           `mapstructure:"aws"`
	Identity      IdentityConfig      `mapstructure:"identity"`
	Services      []ServiceEntry      `mapstructure:"services"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	ListenAddr            string        `mapstructure:"listen_addr"`
	ReadTimeout           time.Duration `mapstructure:"read_timeout"`
	WriteTimeout          time.Duration `mapstructure:"write_timeout"`
	GracefulShutdownDelay time.Duration `mapstructure:"graceful_shutdown_delay"`
}

type AWSConfig struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// IdentityConfig describes the Cognito user pool plus the per-service user
// directory tables used for email lookup.
type IdentityConfig struct {
	UserPoolID string            `mapstructure:"user_pool_id"`
	UserTables map[string]string `mapstructure:"user_tables"`
}

// ServiceEntry is one registered micro-service and its storage key scheme.
type ServiceEntry struct {
	ID                 string         `mapstructure:"id"`
	Name               string         `mapstructure:"name"`
	DisplayName        string         `mapstructure:"display_name"`
	UsageTable         string         `mapstructure:"usage_table"`
	ConversationsTable string         `mapstructure:"conversations_table"`
	Engines            []string       `mapstructure:"engines"`
	Active             bool           `mapstructure:"active"`
	Keys               KeyEncodingRaw `mapstructure:"keys"`
}

// KeyEncodingRaw mirrors the wide-column key layout of a usage table. The
// pattern fields use "#"-delimited segment descriptions, e.g.
// "user#userId" or "engine#engineType#yearMonth"; a pattern without "#" names
// a flat attribute.
type KeyEncodingRaw struct {
	PartitionKeyField   string `mapstructure:"partition_key_field"`
	SortKeyField        string `mapstructure:"sort_key_field"`
	PartitionKeyPattern string `mapstructure:"partition_key_pattern"`
	SortKeyPattern      string `mapstructure:"sort_key_pattern"`
}

type ObservabilityConfig struct {
	EnableMetrics bool   `mapstructure:"enable_metrics"`
	EnableOTLP    bool   `mapstructure:"enable_otlp"`
	OTLPEndpoint  string `mapstructure:"otlp_endpoint"`
	OTLPInsecure  bool   `mapstructure:"otlp_insecure"`
}

// Options controls config loading behavior.
type Options struct {
	ConfigFile string
	EnvFile    string
}

func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		_ = godotenv.Load(opts.EnvFile)
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	explicitFile := false
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		explicitFile = true
	} else if cfg := os.Getenv("USAGE_CONFIG_FILE"); cfg != "" {
		v.SetConfigFile(cfg)
		explicitFile = true
	}

	if !explicitFile {
		// Allow standard lookup locations when no explicit file is provided.
		v.SetConfigName("usage")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("USAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(timeStringToDurationHook())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.Services) == 0 {
		cfg.Services = DefaultServices()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures required values are set and service entries are coherent.
func (c *Config) Validate() error {
	if c.AWS.Region == "" {
		return fmt.Errorf("aws.region is required")
	}
	seen := make(map[string]struct{}, len(c.Services))
	for i := range c.Services {
		svc := &c.Services[i]
		if svc.ID == "" {
			return fmt.Errorf("services[%d]: id is required", i)
		}
		if _, dup := seen[svc.ID]; dup {
			return fmt.Errorf("services[%d]: duplicate id %q", i, svc.ID)
		}
		seen[svc.ID] = struct{}{}
		if svc.UsageTable == "" {
			return fmt.Errorf("service %q: usage_table is required", svc.ID)
		}
		if svc.DisplayName == "" {
			svc.DisplayName = svc.Name
		}
		if svc.Keys.PartitionKeyField == "" {
			svc.Keys.PartitionKeyField = "PK"
		}
		if svc.Keys.SortKeyField == "" {
			svc.Keys.SortKeyField = "SK"
		}
	}
	return nil
}

func timeStringToDurationHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case time.Duration:
			return v, nil
		case string:
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, err
			}
			return d, nil
		default:
			return nil, fmt.Errorf("cannot decode %T into time.Duration", data)
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.graceful_shutdown_delay", "5s")

	v.SetDefault("aws.region", "us-east-1")

	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.enable_otlp", false)
	v.SetDefault("observability.otlp_endpoint", "localhost:4317")
}
