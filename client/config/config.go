// Package config loads the cabinet settings from flags, the environment
// and an optional .env file, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/cbodonnell/cabinet/client/network"
	"github.com/cbodonnell/cabinet/pkg/log"
	"github.com/joho/godotenv"
)

const (
	EnvPrefix = "CABINET_"

	DefaultSocketURL        = "ws://localhost:8080/ws"
	DefaultDatabaseURL      = "sqlite://cabinet.db"
	DefaultAPIPort          = 8090
	DefaultLogLevel         = "info"
	DefaultEndScreenTimeout = 30 * time.Second
)

type Config struct {
	// SocketURL is the controller's WebSocket endpoint.
	SocketURL string
	// SerialPort is the device opened at startup when present. Empty means
	// the socket is used until a device is requested.
	SerialPort string
	BaudRate   int
	// DatabaseURL selects the score storage, see repositories.Open.
	DatabaseURL string
	// APIPort is the operator API port, 0 disables it.
	APIPort          int
	LogLevel         log.LogLevel
	Headless         bool
	EndScreenTimeout time.Duration
}

// Load parses args. Unset flags fall back to CABINET_* variables, which
// may come from envFile; a missing envFile is not an error.
func Load(args []string, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %v", envFile, err)
		}
	}

	baudRate, err := envInt("BAUD_RATE", network.DefaultBaudRate)
	if err != nil {
		return nil, err
	}
	apiPort, err := envInt("API_PORT", DefaultAPIPort)
	if err != nil {
		return nil, err
	}
	headless, err := envBool("HEADLESS", false)
	if err != nil {
		return nil, err
	}
	endScreenTimeout, err := envDuration("END_SCREEN_TIMEOUT", DefaultEndScreenTimeout)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	var logLevel string
	flags := flag.NewFlagSet("cabinet", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.StringVar(&cfg.SocketURL, "socket-url", envString("SOCKET_URL", DefaultSocketURL), "controller WebSocket URL")
	flags.StringVar(&cfg.SerialPort, "serial-port", envString("SERIAL_PORT", ""), "serial device to open when present")
	flags.IntVar(&cfg.BaudRate, "baud-rate", baudRate, "serial baud rate")
	flags.StringVar(&cfg.DatabaseURL, "database-url", envString("DATABASE_URL", DefaultDatabaseURL), "score storage URL (sqlite://, postgres://, memory://)")
	flags.IntVar(&cfg.APIPort, "api-port", apiPort, "operator API port, 0 disables it")
	flags.StringVar(&logLevel, "log-level", envString("LOG_LEVEL", DefaultLogLevel), "log level")
	flags.BoolVar(&cfg.Headless, "headless", headless, "run without a display")
	flags.DurationVar(&cfg.EndScreenTimeout, "end-screen-timeout", endScreenTimeout, "how long the end screen waits for a name")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %v", err)
	}

	cfg.LogLevel, err = log.ParseLogLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.SocketURL)
	if err != nil {
		return fmt.Errorf("invalid socket url %q: %v", c.SocketURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid socket url %q: scheme must be ws or wss", c.SocketURL)
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.BaudRate)
	}
	if c.APIPort < 0 || c.APIPort > 65535 {
		return fmt.Errorf("invalid api port %d", c.APIPort)
	}
	if c.EndScreenTimeout <= 0 {
		return fmt.Errorf("invalid end screen timeout %s", c.EndScreenTimeout)
	}
	return nil
}

func envString(name, def string) string {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok && v != "" {
		return v
	}
	return def
}

func envInt(name string, def int) (int, error) {
	v := envString(name, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s%s: %v", EnvPrefix, name, err)
	}
	return n, nil
}

func envBool(name string, def bool) (bool, error) {
	v := envString(name, "")
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s%s: %v", EnvPrefix, name, err)
	}
	return b, nil
}

func envDuration(name string, def time.Duration) (time.Duration, error) {
	v := envString(name, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s%s: %v", EnvPrefix, name, err)
	}
	return d, nil
}
