package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "stdio" {
		t.Errorf("Expected default mode to be 'stdio', got '%s'", cfg.Mode)
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}

	if cfg.ServerName != "mcp-covid-qr" {
		t.Errorf("Expected default server name to be 'mcp-covid-qr', got '%s'", cfg.ServerName)
	}

	if cfg.PDFBackend != "pdfcpu" {
		t.Errorf("Expected default PDF backend to be 'pdfcpu', got '%s'", cfg.PDFBackend)
	}

	if cfg.PublicKey != "" {
		t.Errorf("Expected default public key to be empty, got '%s'", cfg.PublicKey)
	}

	currentDir, _ := os.Getwd()
	if cfg.CertDirectory != currentDir {
		t.Errorf("Expected default certificate directory to be '%s', got '%s'", currentDir, cfg.CertDirectory)
	}
}

func TestConfigValidate(t *testing.T) {
	tempDir := t.TempDir()
	keyFile := filepath.Join(tempDir, "issuer.pem")
	if err := os.WriteFile(keyFile, []byte("key"), 0o600); err != nil {
		t.Fatal(err)
	}

	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.CertDirectory = tempDir
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config - stdio mode", mutate: func(*Config) {}},
		{name: "valid config - server mode", mutate: func(c *Config) { c.Mode = ModeServer; c.Port = 3000 }},
		{name: "stdio mode ignores port", mutate: func(c *Config) { c.Port = 0 }},
		{name: "custom public key", mutate: func(c *Config) { c.PublicKey = keyFile }},
		{name: "empty backend selects default", mutate: func(c *Config) { c.PDFBackend = "" }},
		{name: "invalid mode", mutate: func(c *Config) { c.Mode = "http" }, wantErr: true},
		{name: "server mode port too high", mutate: func(c *Config) { c.Mode = ModeServer; c.Port = 70000 }, wantErr: true},
		{name: "empty directory", mutate: func(c *Config) { c.CertDirectory = "" }, wantErr: true},
		{name: "zero max file size", mutate: func(c *Config) { c.MaxFileSize = 0 }, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.PDFBackend = "poppler" }, wantErr: true},
		{name: "public key is a directory", mutate: func(c *Config) { c.PublicKey = tempDir }, wantErr: true},
		{name: "missing public key", mutate: func(c *Config) { c.PublicKey = filepath.Join(tempDir, "nope.pem") }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateDirectoryCreation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "non-existent", "certs")

	cfg := DefaultConfig()
	cfg.CertDirectory = dir

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Config.Validate() unexpected error: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Directory should have been created: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("%s is not a directory", dir)
	}
}

func TestConfigValidateLogLevels(t *testing.T) {
	validLevels := []string{"debug", "info", "warn", "error"}
	invalidLevels := []string{"DEBUG", "trace", "fatal", ""}
	tempDir := t.TempDir()

	for _, level := range validLevels {
		cfg := DefaultConfig()
		cfg.CertDirectory = tempDir
		cfg.LogLevel = level
		if err := cfg.Validate(); err != nil {
			t.Errorf("Config.Validate() with log level %q: unexpected error %v", level, err)
		}
	}

	for _, level := range invalidLevels {
		cfg := DefaultConfig()
		cfg.CertDirectory = tempDir
		cfg.LogLevel = level
		err := cfg.Validate()
		if err == nil {
			t.Errorf("Config.Validate() with log level %q: expected error", level)
			continue
		}
		if !strings.Contains(err.Error(), "invalid log level") {
			t.Errorf("Config.Validate() error = %v, want log level error", err)
		}
	}
}

func TestConfigAccessors(t *testing.T) {
	cfg := &Config{Mode: ModeServer, Host: "localhost", Port: 9000, LogLevel: "debug", PDFBackend: "LEDONGTHUC"}

	if got := cfg.Address(); got != "localhost:9000" {
		t.Errorf("Address() = %v, want localhost:9000", got)
	}
	if !cfg.IsDebug() {
		t.Error("IsDebug() = false, want true")
	}
	if !cfg.IsServerMode() || cfg.IsStdioMode() {
		t.Error("expected server mode")
	}
	if got := cfg.Backend(); got != "ledongthuc" {
		t.Errorf("Backend() = %v, want ledongthuc", got)
	}

	cfg.PDFBackend = "bogus"
	if got := cfg.Backend(); got != "pdfcpu" {
		t.Errorf("Backend() with invalid name = %v, want pdfcpu", got)
	}
}

func TestConfigString(t *testing.T) {
	cfg := &Config{
		Mode:          ModeStdio,
		Host:          "127.0.0.1",
		Port:          8080,
		CertDirectory: "/certs",
		LogLevel:      "info",
		MaxFileSize:   1024,
		PDFBackend:    "pdfcpu",
	}

	want := "Config{Mode: stdio, Host: 127.0.0.1, Port: 8080, CertDirectory: /certs, LogLevel: info, " +
		"MaxFileSize: 1024, PublicKey: embedded, PDFBackend: pdfcpu}"
	if got := cfg.String(); got != want {
		t.Errorf("String() = %v, want %v", got, want)
	}

	cfg.PublicKey = "/keys/issuer.pem"
	if !strings.Contains(cfg.String(), "PublicKey: /keys/issuer.pem") {
		t.Errorf("String() = %v, want custom key path", cfg.String())
	}
}
