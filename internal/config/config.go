// Package config loads configuration for the spotlight daemon.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr    = "127.0.0.1:8788"
	defaultDataDir       = "./data"
	defaultLogLevel      = "info"
	defaultLogFormat     = "console"
	defaultDimOnStart    = false
	defaultSocketWaitMs  = 0
	defaultUnixMPVSocket = "/tmp/mpvsocket"
	defaultPipeMPVSocket = `\\.\pipe\mpvsocket`

	envPrefix = "SPOTLIGHT_"
	fileName  = "config.yaml"
)

// Config holds runtime configuration values.
type Config struct {
	ListenAddr   string
	UIPassword   string
	DataDir      string
	MPVSocket    string
	LogLevel     string
	LogFormat    string
	DimOnStart   bool
	SocketWaitMs int
}

// fileConfig mirrors config.yaml. Absent keys keep earlier values.
type fileConfig struct {
	ListenAddr   *string `yaml:"listen_addr"`
	UIPassword   *string `yaml:"ui_password"`
	MPVSocket    *string `yaml:"mpv_socket"`
	LogLevel     *string `yaml:"log_level"`
	LogFormat    *string `yaml:"log_format"`
	DimOnStart   *bool   `yaml:"dim_on_start"`
	SocketWaitMs *int    `yaml:"socket_wait_ms"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:   defaultListenAddr,
		DataDir:      defaultDataDir,
		MPVSocket:    DefaultMPVSocket(),
		LogLevel:     defaultLogLevel,
		LogFormat:    defaultLogFormat,
		DimOnStart:   defaultDimOnStart,
		SocketWaitMs: defaultSocketWaitMs,
	}
}

// DefaultMPVSocket returns the platform's conventional mpv IPC path.
func DefaultMPVSocket() string {
	if runtime.GOOS == "windows" {
		return defaultPipeMPVSocket
	}
	return defaultUnixMPVSocket
}

// Load reads configuration from <data>/.env, <data>/config.yaml and SPOTLIGHT_* variables,
// later sources overriding earlier ones.
func Load() (Config, error) {
	cfg := Default()
	cfg.DataDir = envString("DATA_DIR", cfg.DataDir)

	if err := loadEnvFile(filepath.Join(cfg.DataDir, ".env")); err != nil {
		return Config{}, err
	}
	if err := loadFile(filepath.Join(cfg.DataDir, fileName), &cfg); err != nil {
		return Config{}, err
	}

	cfg.ListenAddr = envString("LISTEN_ADDR", cfg.ListenAddr)
	cfg.UIPassword = envString("UI_PASSWORD", cfg.UIPassword)
	cfg.MPVSocket = envString("MPV_SOCKET", cfg.MPVSocket)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envString("LOG_FORMAT", cfg.LogFormat)
	cfg.DimOnStart = envBool("DIM_ON_START", cfg.DimOnStart)

	wait, err := envInt("SOCKET_WAIT_MS", cfg.SocketWaitMs)
	if err != nil {
		return Config{}, err
	}
	if wait < 0 {
		return Config{}, fmt.Errorf("%sSOCKET_WAIT_MS must be >= 0", envPrefix)
	}
	cfg.SocketWaitMs = wait

	if cfg.ListenAddr == "" {
		return Config{}, errors.New("listen address is required")
	}
	return cfg, nil
}

// loadFile merges config.yaml into cfg. A missing file is not an error.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var raw fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	setString(&cfg.ListenAddr, raw.ListenAddr)
	setString(&cfg.UIPassword, raw.UIPassword)
	setString(&cfg.MPVSocket, raw.MPVSocket)
	setString(&cfg.LogLevel, raw.LogLevel)
	setString(&cfg.LogFormat, raw.LogFormat)
	if raw.DimOnStart != nil {
		cfg.DimOnStart = *raw.DimOnStart
	}
	if raw.SocketWaitMs != nil {
		cfg.SocketWaitMs = *raw.SocketWaitMs
	}
	return nil
}

// setString copies a trimmed, non-empty file value into dst.
func setString(dst *string, v *string) {
	if v == nil {
		return
	}
	if s := strings.TrimSpace(*v); s != "" {
		*dst = s
	}
}

// envString returns an env override when present, otherwise a default.
func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(envPrefix + key)); v != "" {
		return v
	}
	return def
}

// envInt returns an int env override when present, otherwise a default.
func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(envPrefix + key))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s%s must be an integer: %w", envPrefix, key, err)
	}
	return value, nil
}

// envBool returns a bool env override when present, otherwise a default.
func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(envPrefix + key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

// loadEnvFile loads KEY=VALUE pairs from a .env file. Variables already set win.
func loadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := parseEnvLine(line)
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); !exists {
			if err := os.Setenv(key, value); err != nil {
				return err
			}
		}
	}

	return nil
}

// parseEnvLine parses a single .env line into key/value.
func parseEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return key, strings.Trim(strings.TrimSpace(value), `"'`), true
}
