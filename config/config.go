// Package config reads broker and client settings from the environment,
// an optional .env file and command line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DefaultPort      = "8765"
	DefaultPath      = "/ws"
	DefaultServerURL = "ws://localhost:" + DefaultPort + DefaultPath

	serverURLKey = "CHAT_SERVER_URL"
)

type Server struct {
	Port           string
	Path           string
	LogLevel       slog.Level
	MaxMessageSize int64
	SendBuffer     int
}

type Client struct {
	ServerURL string
	Sound     string
	StateFile string
	LogLevel  slog.Level
}

// LoadEnv merges .env into the process environment. A missing file is not
// an error.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}
}

func LoadServer() (Server, error) {
	cfg := Server{
		Port:     getenv("PORT", DefaultPort),
		Path:     getenv("WS_PATH", DefaultPath),
		LogLevel: ParseLevel(os.Getenv("LOG_LEVEL"), slog.LevelInfo),
	}

	var err error
	if cfg.MaxMessageSize, err = intEnv("MAX_MESSAGE_SIZE", 0); err != nil {
		return Server{}, err
	}
	size, err := intEnv("SEND_BUFFER", 0)
	if err != nil {
		return Server{}, err
	}
	cfg.SendBuffer = int(size)
	return cfg, nil
}

// LoadClient resolves the client settings. Flags win over the environment,
// and the last endpoint saved in the state file is used when neither names
// one.
func LoadClient(args []string) (Client, error) {
	flags := flag.NewFlagSet("chat", flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	cfg := Client{}
	flags.StringVar(&cfg.ServerURL, "server", os.Getenv(serverURLKey), "broker websocket url")
	flags.StringVar(&cfg.Sound, "sound", os.Getenv("CHAT_SOUND"), "notification sound file")
	flags.StringVar(&cfg.StateFile, "state", getenv("CHAT_STATE_FILE", defaultStateFile()), "file remembering the last endpoint")
	level := flags.String("log-level", getenv("LOG_LEVEL", "warn"), "debug, info, warn or error")
	if err := flags.Parse(args); err != nil {
		return Client{}, fmt.Errorf("parse flags: %w", err)
	}
	cfg.LogLevel = ParseLevel(*level, slog.LevelWarn)

	if cfg.ServerURL == "" {
		cfg.ServerURL = LastEndpoint(cfg.StateFile)
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	return cfg, nil
}

// LastEndpoint returns the endpoint stored by SaveEndpoint, or "".
func LastEndpoint(path string) string {
	if path == "" {
		return ""
	}
	env, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("read state file", "path", path, "error", err)
		}
		return ""
	}
	return env[serverURLKey]
}

func SaveEndpoint(path, url string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := godotenv.Write(map[string]string{serverURLKey: url}, path); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

func ParseLevel(s string, fallback slog.Level) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return fallback
}

func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func defaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "chatrelay", "last.env")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
