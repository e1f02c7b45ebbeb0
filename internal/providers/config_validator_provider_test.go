package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"vsd/internal/structures"
)

func validConfig() *structures.Config {
	return &structures.Config{
		WebServer: structures.Server{
			Host: "127.0.0.1",
			Port: 18091,
		},
		Persistence: structures.Persistence{
			FilePath:     "/tmp/snippets.bin",
			SaveInterval: 30 * time.Second,
		},
		Snippets: structures.SnippetsConfig{
			QuotaBytes: 5 * 1024 * 1024,
		},
		Datasets: structures.DatasetsConfig{
			DBPath:       "/tmp/datasets.db",
			FetchTimeout: 15 * time.Second,
		},
		Settings: structures.SettingsConfig{
			AutosaveDebounce: 500 * time.Millisecond,
			RenderDebounce:   300 * time.Millisecond,
		},
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0644,
			Dir:   "/tmp/logs",
		},
	}
}

func TestConfigValidator_ValidConfig(t *testing.T) {
	v := NewCnfValidator(validConfig())
	assert.NoError(t, v.Validate())
}

func TestConfigValidator_EmptyHost(t *testing.T) {
	c := validConfig()
	c.WebServer.Host = ""
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_ZeroPort(t *testing.T) {
	c := validConfig()
	c.WebServer.Port = 0
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_ZeroQuota(t *testing.T) {
	c := validConfig()
	c.Snippets.QuotaBytes = 0
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_EmptyDBPath(t *testing.T) {
	c := validConfig()
	c.Datasets.DBPath = ""
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_InvalidLogLevel(t *testing.T) {
	c := validConfig()
	c.Logger.Level = "verbose"
	assert.Error(t, NewCnfValidator(c).Validate())
}
