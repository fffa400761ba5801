package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-covid-qr/internal/pdf"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "COVID_QR"
)

// Config holds all configuration for the certificate MCP server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Certificate configuration
	CertDirectory string
	PublicKey     string // PEM file; empty selects the embedded issuer key
	PDFBackend    string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum input file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:          ModeStdio,
		Host:          DefaultHost,
		Port:          DefaultPort,
		CertDirectory: currentDir,
		PDFBackend:    string(pdf.DefaultBackend),
		Version:       "1.0.0",
		ServerName:    "mcp-covid-qr",
		LogLevel:      DefaultLogLevel,
		MaxFileSize:   DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	if cfg.CertDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.CertDirectory); err == nil {
			cfg.CertDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.CertDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("publickey", cfg.PublicKey)
	viper.SetDefault("pdfbackend", cfg.PDFBackend)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.CertDirectory, "Directory containing certificate files")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum input file size in bytes")
	pflag.String("publickey", cfg.PublicKey, "Issuer public key in PEM format (default: embedded key)")
	pflag.String("pdfbackend", cfg.PDFBackend, "PDF library used to extract images (pdfcpu, ledongthuc)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{"mode", "host", "port", "dir", "loglevel", "maxfilesize", "publickey", "pdfbackend"} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP COVID QR - A Model Context Protocol server for verifying vaccination certificates\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                          "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/certs                     "+
			"# stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --dir=/path/to/certs       # server mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --publickey=issuer.pem                   # custom issuer key\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  COVID_QR_MODE        Server mode\n")
		fmt.Fprintf(os.Stderr, "  COVID_QR_HOST        Server host\n")
		fmt.Fprintf(os.Stderr, "  COVID_QR_PORT        Server port\n")
		fmt.Fprintf(os.Stderr, "  COVID_QR_DIR         Certificate directory\n")
		fmt.Fprintf(os.Stderr, "  COVID_QR_LOGLEVEL    Log level\n")
		fmt.Fprintf(os.Stderr, "  COVID_QR_MAXFILESIZE Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  COVID_QR_PUBLICKEY   Issuer public key\n")
		fmt.Fprintf(os.Stderr, "  COVID_QR_PDFBACKEND  PDF backend\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.CertDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.PublicKey = viper.GetString("publickey")
	cfg.PDFBackend = viper.GetString("pdfbackend")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.CertDirectory == "" {
		return errors.New("certificate directory cannot be empty")
	}

	// Create the certificate directory if it does not exist yet
	if _, err := os.Stat(c.CertDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.CertDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create certificate directory %s: %w", c.CertDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access certificate directory %s: %w", c.CertDirectory, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if _, err := pdf.ParseBackend(c.PDFBackend); err != nil {
		return err
	}

	if c.PublicKey != "" {
		info, err := os.Stat(c.PublicKey)
		if err != nil {
			return fmt.Errorf("cannot access public key %s: %w", c.PublicKey, err)
		}
		if info.IsDir() {
			return fmt.Errorf("public key %s is a directory", c.PublicKey)
		}
	}

	return nil
}

// Backend returns the configured PDF backend. Call Validate first.
func (c *Config) Backend() pdf.Backend {
	b, err := pdf.ParseBackend(c.PDFBackend)
	if err != nil {
		return pdf.DefaultBackend
	}
	return b
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	key := c.PublicKey
	if key == "" {
		key = "embedded"
	}
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, CertDirectory: %s, LogLevel: %s, "+
		"MaxFileSize: %d, PublicKey: %s, PDFBackend: %s}",
		c.Mode, c.Host, c.Port, c.CertDirectory, c.LogLevel, c.MaxFileSize, key, c.PDFBackend)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
