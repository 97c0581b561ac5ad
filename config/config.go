// Package config reads volume settings from the environment.
package config

import (
	"os"
	"strconv"

	"github.com/mit-pdos/go-rsfs/util"
)

type Config struct {
	Image       string // image file path
	Sectors     uint64 // size of a newly created image, in sectors
	MaxFileSize uint64 // write staging capacity, in bytes
	Debug       uint64 // util.DPrintf level
}

func Load() *Config {
	return &Config{
		Image:       getEnv("RSFS_IMAGE", "rsfs.img"),
		Sectors:     getEnvUint("RSFS_SECTORS", 4096),
		MaxFileSize: getEnvUint("RSFS_MAX_FILE", 1<<20),
		Debug:       getEnvUint("RSFS_DEBUG", 0),
	}
}

// Apply installs the process-wide settings.
func (c *Config) Apply() {
	util.Debug = c.Debug
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvUint(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseUint(value, 0, 64); err == nil {
			return i
		}
	}
	return defaultValue
}
