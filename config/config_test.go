package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{
		"logLevel": "debug",
		"listen": { "network": "tcp", "address": "127.0.0.1:7000" },
		"agent": { "searchRadius": 24, "seed": 42 }
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(cfg), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "tcp", viper.GetString("listen.network"))
	assert.Equal(t, "127.0.0.1:7000", viper.GetString("listen.address"))

	agent, err := Agent()
	require.NoError(t, err)
	assert.Equal(t, 24, agent.SearchRadius)
	assert.Equal(t, int64(42), agent.Seed)
	// Unset keys keep their defaults.
	assert.Equal(t, 30, agent.ReplanCooldown)
	assert.Equal(t, 10.0, agent.CellSize)
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{}`), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "unix", viper.GetString("listen.network"))
	assert.Equal(t, "/tmp/tank-agent.sock", viper.GetString("listen.address"))
	assert.Equal(t, 30*time.Second, GetDuration("listen.idleTimeout"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, "localhost:12201", viper.GetString("graylog.address"))
	assert.Equal(t, false, viper.GetBool("store.enabled"))
	assert.Equal(t, "./tank_agent.db", viper.GetString("store.path"))
	assert.Equal(t, "", viper.GetString("map.path"))

	agent, err := Agent()
	require.NoError(t, err)
	assert.Equal(t, AgentConfig{
		CellSize:       10,
		SearchRadius:   18,
		ReplanCooldown: 30,
		StatusEvery:    60,
		VisionRange:    70,
		ArrivalRadius:  3,
		FireThreshold:  0.6,
	}, agent)

	influx, err := Influx()
	require.NoError(t, err)
	assert.False(t, influx.Enabled)
	assert.Equal(t, "http://localhost:8086", influx.URL)
	assert.Equal(t, "tank-agent", influx.Org)
	assert.Equal(t, "ticks", influx.Bucket)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
	// Defaults are still registered.
	assert.Equal(t, 18, viper.GetInt("agent.searchRadius"))
}

func TestGetters(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("s", "v")
	viper.Set("i", 3)
	viper.Set("b", true)
	assert.Equal(t, "v", GetString("s"))
	assert.Equal(t, 3, GetInt("i"))
	assert.True(t, GetBool("b"))
}
