package config

import (
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// MigrationsConfig MigrationsConfig.
type MigrationsConfig struct {
	DSN string `yaml:"dsn" mapstructure:"dsn"`
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// RestConfig public HTTP listener.
type RestConfig struct {
	Listen string   `yaml:"listen" mapstructure:"listen"`
	Cors   []string `yaml:"cors"   mapstructure:"cors"`
}

// SpamConfig external classifier and heuristic thresholds.
type SpamConfig struct {
	ClassifierURL       string  `yaml:"classifier-url"        mapstructure:"classifier-url"`
	ClassifierToken     string  `yaml:"classifier-token"      mapstructure:"classifier-token"`
	ClassifierTimeout   int     `yaml:"classifier-timeout"    mapstructure:"classifier-timeout"`
	SpamThreshold       float64 `yaml:"spam-threshold"        mapstructure:"spam-threshold"`
	AutoActionThreshold float64 `yaml:"auto-action-threshold" mapstructure:"auto-action-threshold"`
	CacheTTL            int     `yaml:"cache-ttl"             mapstructure:"cache-ttl"`
}

// VotesConfig quadratic voting credits.
type VotesConfig struct {
	StartingCredits int32 `yaml:"starting-credits" mapstructure:"starting-credits"`
	RefreshCredits  int32 `yaml:"refresh-credits"  mapstructure:"refresh-credits"`
	RefreshDays     int   `yaml:"refresh-days"     mapstructure:"refresh-days"`
	MaxVoteWeight   int32 `yaml:"max-vote-weight"  mapstructure:"max-vote-weight"`
}

// FlagsConfig flag submission limits.
type FlagsConfig struct {
	SubmitIntervalSeconds int `yaml:"submit-interval-seconds" mapstructure:"submit-interval-seconds"`
}

// Config Application config definition.
type Config struct {
	Driver          string           `yaml:"driver"           mapstructure:"driver"`
	DSN             string           `yaml:"dsn"              mapstructure:"dsn"`
	Migrations      MigrationsConfig `yaml:"migrations"       mapstructure:"migrations"`
	Redis           string           `yaml:"redis"            mapstructure:"redis"`
	RabbitMQ        string           `yaml:"rabbitmq"         mapstructure:"rabbitmq"`
	ModerationQueue string           `yaml:"moderation-queue" mapstructure:"moderation-queue"`
	Rest            RestConfig       `yaml:"rest"             mapstructure:"rest"`
	Spam            SpamConfig       `yaml:"spam"             mapstructure:"spam"`
	Votes           VotesConfig      `yaml:"votes"            mapstructure:"votes"`
	Flags           FlagsConfig      `yaml:"flags"            mapstructure:"flags"`
	GinMode         string           `yaml:"gin-mode"         mapstructure:"gin-mode"`
}

// LoadConfig LoadConfig.
func LoadConfig(dir string) Config {
	cfg := Config{}

	viper.SetConfigName("defaults")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(dir)
	viper.SetEnvPrefix("TOOLGRID")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	err = viper.Unmarshal(&cfg)
	if err != nil {
		logrus.Fatal(err)
	}

	return cfg
}
