package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	EnvFilesRoot    = "SITESTORE_FILES_ROOT"
	EnvAnalysisRoot = "SITESTORE_ANALYSIS_ROOT"
	EnvRedisURL     = "SITESTORE_REDIS_URL"
)

type StorageConfig struct {
	FilesRoot          string            `yaml:"files_root"`
	AnalysisRoot       string            `yaml:"analysis_root"`
	FilesCategories    map[string]string `yaml:"files_categories"`
	AnalysisCategories map[string]string `yaml:"analysis_categories"`
}

type Config struct {
	LogLevel string        `yaml:"log_level"`
	RedisURL string        `yaml:"redis_url"`
	Storage  StorageConfig `yaml:"storage"`
}

func (c *Config) SetDefaults() {
	c.LogLevel = LogLevelInfo
	c.Storage.FilesRoot = "data/files"
	c.Storage.AnalysisRoot = "data/sites"
	c.Storage.FilesCategories = map[string]string{
		"documents": "documents",
		"images":    "images",
		"archives":  "archives",
		"data":      "data",
		"other":     "other",
	}
	c.Storage.AnalysisCategories = map[string]string{
		"graphs":         "graphs",
		"reports":        "reports",
		"databases":      "databases",
		"exports":        "exports",
		"visualizations": "visualizations",
		"logs":           "logs",
		"cache":          "cache",
		"metadata":       "metadata",
	}
}

// MustLoad reads the YAML config on top of the defaults. A missing file is
// fine (defaults plus environment apply), an unreadable or invalid one is
// not. Environment overrides win over the file.
func MustLoad(fileName string) *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.SetDefaults()

	data, err := os.ReadFile(fileName)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			panic(fmt.Sprintf("cannot parse config file %s: %s", fileName, err))
		}
	case !os.IsNotExist(err):
		panic(fmt.Sprintf("cannot read config file %s: %s", fileName, err))
	}

	if v := os.Getenv(EnvFilesRoot); v != "" {
		cfg.Storage.FilesRoot = v
	}
	if v := os.Getenv(EnvAnalysisRoot); v != "" {
		cfg.Storage.AnalysisRoot = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		cfg.RedisURL = v
	}

	return cfg
}
