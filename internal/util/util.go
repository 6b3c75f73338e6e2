// internal/util/util.go
package util

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/erilali/jimclient/internal/logger"
	"github.com/erilali/jimclient/internal/queue"
	"github.com/erilali/jimclient/internal/session"
	"github.com/erilali/jimclient/internal/transport"
)

// Config is the client configuration. Values come from DefaultConfig, then
// the JSON file, then the environment.
type Config struct {
	Host          string `json:"host" env:"JIM_HOST"`
	Port          int    `json:"port" env:"JIM_PORT"`
	Transport     string `json:"transport" env:"JIM_TRANSPORT"` // tcp or websocket
	WSPath        string `json:"ws_path" env:"JIM_WS_PATH"`
	QueueSize     int    `json:"queue_size" env:"JIM_QUEUE_SIZE"`
	EventBuffer   int    `json:"event_buffer" env:"JIM_EVENT_BUFFER"`
	QuitGraceMS   int    `json:"quit_grace_ms" env:"JIM_QUIT_GRACE_MS"`
	DialTimeoutMS int    `json:"dial_timeout_ms" env:"JIM_DIAL_TIMEOUT_MS"`
	StatusAddr    string `json:"status_addr" env:"JIM_STATUS_ADDR"` // empty disables the status server
	NATSURL       string `json:"nats_url" env:"NATS_URL"`           // empty disables the transcript archive

	Log logger.LogConfig `json:"log"`
}

func DefaultConfig() Config {
	return Config{
		Host:          "localhost",
		Port:          7777,
		Transport:     string(transport.KindTCP),
		WSPath:        "/ws",
		QueueSize:     queue.DefaultCapacity,
		EventBuffer:   session.DefaultEventBuffer,
		QuitGraceMS:   int(session.DefaultQuitGrace / time.Millisecond),
		DialTimeoutMS: 5000,
		Log:           logger.DefaultLogConfig(),
	}
}

// LoadConfig loads the configuration from a JSON file, if present, and applies
// environment overrides on top.
func LoadConfig(filePath string) (Config, error) {
	config := DefaultConfig()
	if err := loadFile(filePath, &config); err != nil {
		return config, fmt.Errorf("config file %s: %w", filePath, err)
	}
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return config, fmt.Errorf("config env: %w", err)
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func loadFile(filePath string, config *Config) error {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()
	return json.NewDecoder(file).Decode(config)
}

func (c Config) Validate() error {
	switch transport.Kind(c.Transport) {
	case transport.KindTCP, transport.KindWebSocket:
	default:
		return fmt.Errorf("%w: %q", transport.ErrUnknownTransport, c.Transport)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// SessionConfig maps the file and environment settings onto a session config.
func (c Config) SessionConfig() session.Config {
	return session.Config{
		Endpoint: transport.Endpoint{
			Host:        c.Host,
			Port:        c.Port,
			Kind:        transport.Kind(c.Transport),
			Path:        c.WSPath,
			DialTimeout: time.Duration(c.DialTimeoutMS) * time.Millisecond,
		},
		QueueSize:   c.QueueSize,
		EventBuffer: c.EventBuffer,
		QuitGrace:   time.Duration(c.QuitGraceMS) * time.Millisecond,
	}
}
