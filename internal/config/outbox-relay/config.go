package outboxrelayconfig

import (
	"github.com/NordCoder/Vidrate/internal/obs"
	"github.com/NordCoder/Vidrate/internal/outbox"
	"github.com/NordCoder/Vidrate/internal/repository/kafka"
	pg "github.com/NordCoder/Vidrate/internal/repository/postgres"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type Kafka struct {
	kafka.ProducerConfig `mapstructure:",squash"`

	Partitions        int `mapstructure:"partitions"`
	ReplicationFactor int `mapstructure:"replication_factor"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Config struct {
	App    App           `mapstructure:"app"`
	Server Server        `mapstructure:"server"`
	DB     pg.Config     `mapstructure:"db"`
	Kafka  Kafka         `mapstructure:"kafka"`
	Outbox outbox.Config `mapstructure:"outbox"`
	OTEL   OTEL          `mapstructure:"otel"`
	Log    Log           `mapstructure:"log"`
}

func (c *Config) LoggerConfig() obs.LogConfig {
	return obs.LogConfig{Level: c.Log.Level, Pretty: c.Log.Pretty, App: c.App.Name, Env: c.App.Env, Ver: c.App.Version}
}

func (c *Config) OTELConfig() obs.OTELConfig {
	return obs.OTELConfig{
		Enable:         c.OTEL.Enable,
		Endpoint:       c.OTEL.OTLPEndpoint,
		ServiceName:    c.OTEL.ServiceName,
		ServiceVersion: c.App.Version,
		Env:            c.App.Env,
		SampleRatio:    c.OTEL.SampleRatio,
	}
}

func (c *Config) TopicSpec() kafka.TopicSpec {
	return kafka.TopicSpec{
		Name:              c.Kafka.Topic,
		NumPartitions:     c.Kafka.Partitions,
		ReplicationFactor: c.Kafka.ReplicationFactor,
	}
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
