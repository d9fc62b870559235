// Package common provides shared utilities for the KI7MT FTRT lab applications.
package common

import (
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

// Config holds common configuration for all applications.
type Config struct {
	ClickHouseHost     string
	ClickHousePort     int
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	IndicesTable       string
	FTRTTable          string
	DataDir            string
	PlanetTable        string // YAML constants file; empty selects the built-in table
	PeakThreshold      float64
	LogLevel           string
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ClickHouseHost:     getEnv("CLICKHOUSE_HOST", "localhost"),
		ClickHousePort:     getEnvInt("CLICKHOUSE_PORT", 9000),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "solar"),
		ClickHouseUser:     getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),
		IndicesTable:       getEnv("SOLAR_INDICES_TABLE", "indices_raw"),
		FTRTTable:          getEnv("FTRT_TABLE", "ftrt_daily"),
		DataDir:            getEnv("KI7MT_DATA_DIR", "/var/lib/ki7mt-ai-lab"),
		PlanetTable:        getEnv("FTRT_PLANET_TABLE", ""),
		PeakThreshold:      getEnvFloat("FTRT_PEAK_THRESHOLD", 0.7),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
}

// LoadConfig loads the given .env files (missing files are ignored) and then
// builds the configuration from the environment. Variables already set in the
// process environment take precedence over file values.
func LoadConfig(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, errors.Wrapf(err, "load env file %s", f)
		}
	}
	return DefaultConfig(), nil
}

// ClickHouseAddr returns the host:port address of the native protocol endpoint.
func (c *Config) ClickHouseAddr() string {
	return c.ClickHouseHost + ":" + strconv.Itoa(c.ClickHousePort)
}

// SetClickHouseAddr overrides host and port from a host:port string.
func (c *Config) SetClickHouseAddr(addr string) error {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return errors.Wrapf(err, "parse address %q", addr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return errors.Errorf("bad port in %q", addr)
	}
	c.ClickHouseHost = host
	c.ClickHousePort = port
	return nil
}

// SolarDataDir returns the solar data directory path.
func (c *Config) SolarDataDir() string {
	return filepath.Join(c.DataDir, "solar")
}

// ExportDir returns the directory Parquet exports are written to.
func (c *Config) ExportDir() string {
	return filepath.Join(c.DataDir, "ftrt")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}
