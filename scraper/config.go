package scraper

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"teamform-scraper/fetch"
	"teamform-scraper/output"
)

// Config defines the overall structure of the scraper configuration.
// Values will be taken from a config yml file or environment variables
// or both.
type Config struct {
	Writer    output.WriterConfig `yaml:"writer"`
	Fetcher   fetch.FetcherConfig `yaml:"fetcher"`
	Scraper   Scraper             `yaml:"scraper"`
	LinksPath string              `yaml:"links_path" env:"LINKS_PATH" env-default:"_credentials/links.json"`
	LogFile   string              `yaml:"log_file" env:"LOG_FILE"`
}

func NewConfig(configPath string) (*Config, error) {
	var config Config
	if err := cleanenv.ReadConfig(configPath, &config); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", configPath, err)
	}
	return &config, nil
}

// Dump renders the effective configuration as yaml.
func (c *Config) Dump() (string, error) {
	yamlData, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("error while marshaling. %v", err)
	}
	return string(yamlData), nil
}
