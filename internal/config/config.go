// Package config handles loading and validating the ttsbroker configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Engine names accepted by tts.engine.
const (
	EngineSay  = "say"
	EngineGTTS = "gtts"
)

// DefaultPort is the HTTP listening port when neither PORT nor a CLI
// argument is given.
const DefaultPort = 8765

// Config is the root configuration for the ttsbroker daemon.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	TTS       TTSConfig       `mapstructure:"tts"`
	Transcode TranscodeConfig `mapstructure:"transcode"`
	Scratch   ScratchConfig   `mapstructure:"scratch"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds the listener settings.
type ServerConfig struct {
	// Address is the host to bind. Empty picks loopback for the say engine
	// and all interfaces for gtts.
	Address      string `mapstructure:"address"`
	Port         int    `mapstructure:"port"`
	OpsPort      int    `mapstructure:"ops_port"`  // /healthz, /readyz, /metrics; 0 disables
	GRPCPort     int    `mapstructure:"grpc_port"` // gRPC health service; 0 disables
	Swagger      bool   `mapstructure:"swagger"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes"`
}

// TTSConfig selects and configures the text-to-speech engine.
type TTSConfig struct {
	Engine string     `mapstructure:"engine"` // "say" or "gtts"
	Say    SayConfig  `mapstructure:"say"`
	GTTS   GTTSConfig `mapstructure:"gtts"`
}

// SayConfig holds macOS say settings.
type SayConfig struct {
	Command string            `mapstructure:"command"`
	Rate    int               `mapstructure:"rate"`   // words per minute
	Voices  map[string]string `mapstructure:"voices"` // ISO-639-1 code -> say voice name
}

// GTTSConfig holds gtts-cli settings.
type GTTSConfig struct {
	Command   string            `mapstructure:"command"`
	Slow      bool              `mapstructure:"slow"`
	TLD       string            `mapstructure:"tld"`
	Languages map[string]string `mapstructure:"languages"` // ISO-639-1 code -> gTTS language
}

// TranscodeConfig selects the audio converter used after say.
type TranscodeConfig struct {
	Tool       string `mapstructure:"tool"`    // "afconvert" or "ffmpeg"
	Command    string `mapstructure:"command"` // defaults to the tool name
	SampleRate int    `mapstructure:"sample_rate"`
}

// ScratchConfig controls where per-request temporary files live.
type ScratchConfig struct {
	Dir string `mapstructure:"dir"` // empty uses the OS temp dir
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./ttsbroker.yaml, ./configs/ttsbroker.yaml, /etc/ttsbroker/ttsbroker.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.address", "")
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.ops_port", 0)
	v.SetDefault("server.grpc_port", 0)
	v.SetDefault("server.swagger", true)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("tts.engine", EngineSay)
	v.SetDefault("tts.say.command", "say")
	v.SetDefault("tts.say.rate", 165)
	v.SetDefault("tts.gtts.command", "gtts-cli")
	v.SetDefault("tts.gtts.slow", false)
	v.SetDefault("transcode.tool", "afconvert")
	v.SetDefault("transcode.sample_rate", 22050)
	v.SetDefault("scratch.dir", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("ttsbroker")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/ttsbroker")
	}

	// Environment variables: TTSBROKER_TTS_ENGINE, TTSBROKER_SERVER_OPS_PORT, etc.
	// The listening port also honours the conventional PORT variable.
	v.SetEnvPrefix("TTSBROKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.port", "TTSBROKER_SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("binding port env: %w", err)
	}

	// Read config file (optional; env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}

// SetPortArg overrides the listening port with a command-line argument.
func (c *Config) SetPortArg(arg string) error {
	port, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", arg, err)
	}
	c.Server.Port = port
	return nil
}

// Validate checks that cfg contains a coherent set of values.
func (c *Config) Validate() error {
	var errs []error

	switch c.TTS.Engine {
	case EngineSay, EngineGTTS:
	default:
		errs = append(errs, fmt.Errorf("tts.engine %q is invalid; valid values: %s, %s", c.TTS.Engine, EngineSay, EngineGTTS))
	}
	switch c.Transcode.Tool {
	case "", "afconvert", "ffmpeg":
	default:
		errs = append(errs, fmt.Errorf("transcode.tool %q is invalid; valid values: afconvert, ffmpeg", c.Transcode.Tool))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if c.Server.OpsPort < 0 || c.Server.OpsPort > 65535 {
		errs = append(errs, fmt.Errorf("server.ops_port %d is out of range", c.Server.OpsPort))
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("server.grpc_port %d is out of range", c.Server.GRPCPort))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes must be positive"))
	}
	if c.Scratch.Dir != "" {
		if info, err := os.Stat(c.Scratch.Dir); err != nil || !info.IsDir() {
			errs = append(errs, fmt.Errorf("scratch.dir %q is not a directory", c.Scratch.Dir))
		}
	}
	return errors.Join(errs...)
}

// ListenAddr returns the host:port the HTTP transport binds to.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.host(), strconv.Itoa(c.Server.Port))
}

// OpsAddr returns the host:port of the ops server, on the same host as the
// HTTP transport.
func (c *Config) OpsAddr() string {
	return net.JoinHostPort(c.host(), strconv.Itoa(c.Server.OpsPort))
}

// GRPCAddr returns the host:port of the gRPC transport, on the same host as
// the HTTP transport.
func (c *Config) GRPCAddr() string {
	return net.JoinHostPort(c.host(), strconv.Itoa(c.Server.GRPCPort))
}

// host is the bind host. Empty picks loopback for say and all interfaces
// for gtts.
func (c *Config) host() string {
	if c.Server.Address == "" && c.TTS.Engine != EngineGTTS {
		return "127.0.0.1"
	}
	return c.Server.Address
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
