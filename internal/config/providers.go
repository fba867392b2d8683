package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DeployProvider is one entry in the deploy section of the providers file.
// Only the fields relevant to the named provider are read.
type DeployProvider struct {
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`

	// s3
	Endpoint  string `yaml:"endpoint,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	PublicURL string `yaml:"public_url,omitempty"`

	// docker
	Host    string `yaml:"host,omitempty"`
	Image   string `yaml:"image,omitempty"`
	Network string `yaml:"network,omitempty"`

	// rest
	URL   string `yaml:"url,omitempty"`
	Token string `yaml:"token,omitempty"`
}

// Providers is the parsed providers file. Deploy providers are ranked by
// list order: the first enabled one handles every deployment.
type Providers struct {
	Deploy []DeployProvider `yaml:"deploy"`
}

// LoadProviders parses the providers file at path. A missing file is not an
// error; it yields an empty config, which disables deployment.
func LoadProviders(path string) (*Providers, error) {
	if path == "" {
		return &Providers{}, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Providers{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read providers config: %w", err)
	}

	var p Providers
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse providers config %s: %w", path, err)
	}

	for i, dp := range p.Deploy {
		if dp.Name == "" {
			return nil, fmt.Errorf("providers config %s: deploy[%d] has no name", path, i)
		}
	}

	return &p, nil
}
