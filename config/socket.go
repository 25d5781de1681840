package config

import (
	"os"
	"strconv"
)

// Config holds WebSocket server configuration.
type Config struct {
	Addr            string `json:"addr"`
	MaxConnections  int    `json:"max_connections"`
	PingInterval    int    `json:"ping_interval_seconds"`
	WriteTimeout    int    `json:"write_timeout_seconds"`
	ReadBufferSize  int    `json:"read_buffer_size"`
	WriteBufferSize int    `json:"write_buffer_size"`
	SendQueueSize   int    `json:"send_queue_size"`
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8080",
		MaxConnections:  1000,
		PingInterval:    30,
		WriteTimeout:    10,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendQueueSize:   256,
	}
}

// FromEnv loads configuration from environment variables, falling back
// to defaults for any missing values.
func FromEnv() *Config {
	cfg := DefaultConfig()

	if addr := os.Getenv("NOTIFY_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	readInt("NOTIFY_MAX_CONNECTIONS", &cfg.MaxConnections)
	readInt("NOTIFY_PING_INTERVAL", &cfg.PingInterval)
	readInt("NOTIFY_WRITE_TIMEOUT", &cfg.WriteTimeout)
	readInt("NOTIFY_READ_BUFFER", &cfg.ReadBufferSize)
	readInt("NOTIFY_WRITE_BUFFER", &cfg.WriteBufferSize)
	readInt("NOTIFY_SEND_QUEUE", &cfg.SendQueueSize)
	return cfg
}

func readInt(key string, dst *int) {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			*dst = v
		}
	}
}
