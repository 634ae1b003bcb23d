package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "tank_agent.cfg.json"

// AgentConfig holds the per-vehicle tuning knobs.
type AgentConfig struct {
	CellSize       float64 `json:"cellSize" mapstructure:"cellSize"`
	SearchRadius   int     `json:"searchRadius" mapstructure:"searchRadius"`
	ReplanCooldown int     `json:"replanCooldown" mapstructure:"replanCooldown"`
	StatusEvery    int     `json:"statusEvery" mapstructure:"statusEvery"`
	VisionRange    float64 `json:"visionRange" mapstructure:"visionRange"`
	ArrivalRadius  float64 `json:"arrivalRadius" mapstructure:"arrivalRadius"`
	FireThreshold  float64 `json:"fireThreshold" mapstructure:"fireThreshold"`
	Seed           int64   `json:"seed" mapstructure:"seed"`
}

// InfluxConfig holds the decision telemetry sink settings.
type InfluxConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	URL     string `json:"url" mapstructure:"url"`
	Token   string `json:"token" mapstructure:"token"`
	Org     string `json:"org" mapstructure:"org"`
	Bucket  string `json:"bucket" mapstructure:"bucket"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file. Defaults stay in
// effect when the file cannot be read.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")

	viper.SetDefault("listen.network", "unix")
	viper.SetDefault("listen.address", "/tmp/tank-agent.sock")
	viper.SetDefault("listen.idleTimeout", "30s")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("store.enabled", false)
	viper.SetDefault("store.path", "./tank_agent.db")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.url", "http://localhost:8086")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "tank-agent")
	viper.SetDefault("influx.bucket", "ticks")

	viper.SetDefault("map.path", "")

	viper.SetDefault("agent.cellSize", 10.0)
	viper.SetDefault("agent.searchRadius", 18)
	viper.SetDefault("agent.replanCooldown", 30)
	viper.SetDefault("agent.statusEvery", 60)
	viper.SetDefault("agent.visionRange", 70.0)
	viper.SetDefault("agent.arrivalRadius", 3.0)
	viper.SetDefault("agent.fireThreshold", 0.6)
	viper.SetDefault("agent.seed", 0)

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// Agent returns the agent section.
func Agent() (AgentConfig, error) {
	var cfg AgentConfig
	if err := viper.UnmarshalKey("agent", &cfg); err != nil {
		return AgentConfig{}, fmt.Errorf("decode agent config: %w", err)
	}
	return cfg, nil
}

// Influx returns the influx section.
func Influx() (InfluxConfig, error) {
	var cfg InfluxConfig
	if err := viper.UnmarshalKey("influx", &cfg); err != nil {
		return InfluxConfig{}, fmt.Errorf("decode influx config: %w", err)
	}
	return cfg, nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration config value such as "30s".
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
