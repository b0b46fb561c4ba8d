package apiconfig

import (
	"time"

	"github.com/NordCoder/Vidrate/internal/obs"
	"github.com/NordCoder/Vidrate/internal/oembed"
	pg "github.com/NordCoder/Vidrate/internal/repository/postgres"
	redisrepo "github.com/NordCoder/Vidrate/internal/repository/redis"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
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

type Auth struct {
	TokenSigningSecret string        `mapstructure:"token_signing_secret"`
	TokenTTL           time.Duration `mapstructure:"token_ttl"`
	Issuer             string        `mapstructure:"issuer"`
	BcryptCost         int           `mapstructure:"bcrypt_cost"`
}

const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Revocation selects where logged-out tokens are kept. The memory backend
// only suits a single API instance.
type Revocation struct {
	redisrepo.Config `mapstructure:",squash"`

	Backend      string        `mapstructure:"backend"`
	CheckTimeout time.Duration `mapstructure:"check_timeout"`
}

type CORS struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimit struct {
	LoginRPS   float64 `mapstructure:"login_rps"`
	LoginBurst int     `mapstructure:"login_burst"`

	// TrustedProxies are IPs or CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type Config struct {
	App        App           `mapstructure:"app"`
	Server     Server        `mapstructure:"server"`
	DB         pg.Config     `mapstructure:"db"`
	OTEL       OTEL          `mapstructure:"otel"`
	Log        Log           `mapstructure:"log"`
	Auth       Auth          `mapstructure:"auth"`
	Revocation Revocation    `mapstructure:"revocation"`
	CORS       CORS          `mapstructure:"cors"`
	RateLimit  RateLimit     `mapstructure:"ratelimit"`
	OEmbed     oembed.Config `mapstructure:"oembed"`
}

func (c *Config) LoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:  c.Log.Level,
		Pretty: c.Log.Pretty,
		App:    c.App.Name,
		Env:    c.App.Env,
		Ver:    c.App.Version,
	}
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

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
