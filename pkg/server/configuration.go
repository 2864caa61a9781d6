package server

import (
	"os"

	"github.com/cadsweep/cadsweep/pkg/models"
	"gopkg.in/yaml.v3"
)

// Part studio stub configuration
type Configuration struct {
	// IP address and port to listen on
	Listen string `yaml:"listen"`
	// Keys clients must present
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	// Document served, any document when omitted
	Document models.Document `yaml:"document"`
	// Initial variables, name to expression or attributes
	Variables models.Variables `yaml:"variables"`
	// Part ids that can be selected in exports
	Parts []string `yaml:"parts"`
	// Log level (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`
}

// Load a YAML configuration file
func ReadConfiguration(path string) (*Configuration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c := Configuration{}
	err = yaml.NewDecoder(f).Decode(&c)
	if err != nil {
		return nil, err
	}

	if len(c.Listen) == 0 {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3502"
		}
		c.Listen = "0.0.0.0:" + port
	}

	if len(c.Parts) == 0 {
		c.Parts = []string{"JHD"}
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	return &c, nil
}

func (c *Configuration) Credentials() models.Credentials {
	return models.Credentials{AccessKey: c.AccessKey, SecretKey: c.SecretKey}
}

func (c *Configuration) Studio() *Studio {
	return NewStudio(c.Document, c.Variables, c.Parts)
}
