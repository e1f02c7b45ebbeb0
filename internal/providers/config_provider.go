package providers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"vsd/internal/structures"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.BindEnv("logger.level", "VSD_LOG_LEVEL")
	viper.BindEnv("persistence.saveInterval", "VSD_SAVE_INTERVAL")
	viper.BindEnv("snippets.quotaBytes", "VSD_SNIPPET_QUOTA_BYTES")
	viper.BindEnv("settings.autosaveDebounce", "VSD_AUTOSAVE_DEBOUNCE")
	viper.BindEnv("settings.renderDebounce", "VSD_RENDER_DEBOUNCE")
	viper.BindEnv("cache.enabled", "VSD_CACHE_ENABLED")
	viper.BindEnv("cache.size", "VSD_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "VizSnippetDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
