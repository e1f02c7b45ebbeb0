package structures

import (
	"net/http"
	"time"
)

// CliFlags carries the command-line arguments into the DI graph.
type CliFlags struct {
	ConfigPath string
	DebugMode  bool
}

// Route binds one URL to its method-checked handler.
type Route struct {
	Url     string
	Handler http.Handler
}

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	FilePath     string        `yaml:"filePath" validate:"required|unixPath"`
	SaveInterval time.Duration `yaml:"saveInterval" validate:"required|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type SnippetsConfig struct {
	// QuotaBytes caps the serialized size of the whole snippet collection.
	QuotaBytes int64 `yaml:"quotaBytes" validate:"required|min:1"`
}

type DatasetsConfig struct {
	DBPath       string        `yaml:"dbPath" validate:"required|unixPath"`
	FetchTimeout time.Duration `yaml:"fetchTimeout"`
}

type SettingsConfig struct {
	AutosaveDebounce time.Duration `yaml:"autosaveDebounce" validate:"required|min:1"`
	RenderDebounce   time.Duration `yaml:"renderDebounce" validate:"required|min:1"`
	DateFormat       string        `yaml:"dateFormat"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	WebServer   Server         `yaml:"webServer"`
	Persistence Persistence    `yaml:"persistence"`
	Snippets    SnippetsConfig `yaml:"snippets"`
	Datasets    DatasetsConfig `yaml:"datasets"`
	Settings    SettingsConfig `yaml:"settings"`
	Logger      LoggerConfig   `yaml:"logger"`
	Cache       CacheConfig    `yaml:"cache"`
	Metrics     MetricsConfig  `yaml:"metrics"`
}
