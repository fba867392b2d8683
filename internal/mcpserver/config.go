package mcpserver

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the MCP server configuration loaded from mcp.yaml.
type Config struct {
	// APIURL is the base URL of the provisioner REST API.
	APIURL string `yaml:"api_url"`
	// APIKey authenticates proxied calls when the MCP client does not
	// present its own key.
	APIKey string `yaml:"api_key"`
}

// LoadConfig reads and parses the mcp.yaml configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig parses mcp.yaml configuration from raw bytes.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse mcp config: %w", err)
	}

	if cfg.APIURL == "" {
		cfg.APIURL = "http://127.0.0.1:8090"
	}

	return &cfg, nil
}
