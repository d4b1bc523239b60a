package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
)

// Config holds the gateway settings. Values come from the environment (optionally seeded from a
// .env file) and are overridden by command-line flags.
type Config struct {
	Port           int    `env:"PORT,default=7000"`
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`
	AuthTokenValue string `env:"AUTH_TOKEN"`
	AuthTokenFile  string `env:"AUTH_TOKEN_FILE,default=auth_token"`
	Debug          bool   `env:"DEBUG,default=false"`
	Nickname       string `env:"NICKNAME,default=briar-gateway"`

	DBDSN        string `env:"DB_DSN,required=true"`
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE,default=briar.gateway"`
	AMQPQueue    string `env:"AMQP_QUEUE,default=briar-gateway.core-events"`

	OTLPEndpoint   string `env:"OTLP_ENDPOINT"`
	ServiceName    string `env:"SERVICE_NAME,default=briar-gateway"`
	Environment    string `env:"ENVIRONMENT,default=development"`
	GRPCHealthAddr string `env:"GRPC_HEALTH_ADDR"`

	AllowedOrigins  string        `env:"ALLOWED_ORIGINS"`
	WSAuthTimeout   time.Duration `env:"WS_AUTH_TIMEOUT,default=10s"`
	WSOutboxSize    int           `env:"WS_OUTBOX_SIZE,default=64"`
	WSWriteTimeout  time.Duration `env:"WS_WRITE_TIMEOUT,default=10s"`
	EventBufferSize int           `env:"EVENT_BUFFER_SIZE,default=256"`
}

// Load parses args, applies the env file named by --env-file (default .env, missing is fine)
// and reads the environment. It returns pflag.ErrHelp when --help was requested.
func Load(args []string) (Config, error) {
	var (
		envFile  string
		port     int
		logLevel string
		debug    bool
	)
	flagSet := pflag.NewFlagSet("briar-gateway", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "file of KEY=VALUE lines loaded into the environment")
	flagSet.IntVarP(&port, "port", "p", 7000, "HTTP listen port")
	flagSet.StringVar(&logLevel, "log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")
	flagSet.BoolVar(&debug, "debug", false, "enable debug routes")
	if err := flagSet.Parse(args); err != nil {
		return Config{}, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return Config{}, fmt.Errorf("unexpected argument: %s", rest[0])
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}

	if flagSet.Changed("port") {
		cfg.Port = port
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flagSet.Changed("debug") {
		cfg.Debug = debug
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DBDSN == "" {
		return errors.New("DB_DSN must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.WSAuthTimeout <= 0 {
		return fmt.Errorf("WS_AUTH_TIMEOUT must be positive")
	}
	if c.WSOutboxSize <= 0 {
		return fmt.Errorf("WS_OUTBOX_SIZE must be positive")
	}
	if c.EventBufferSize < 0 {
		return fmt.Errorf("EVENT_BUFFER_SIZE must not be negative")
	}
	return nil
}

// Addr is the HTTP listen address. The gateway only listens on loopback.
func (c Config) Addr() string {
	return fmt.Sprintf("127.0.0.1:%d", c.Port)
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c Config) Origins() []string {
	return lo.Compact(lo.Map(strings.Split(c.AllowedOrigins, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
}
