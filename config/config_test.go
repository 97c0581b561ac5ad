package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mit-pdos/go-rsfs/util"
)

func TestDefaults(t *testing.T) {
	t.Setenv("RSFS_IMAGE", "")
	t.Setenv("RSFS_SECTORS", "")
	c := Load()
	assert.Equal(t, "rsfs.img", c.Image)
	assert.Equal(t, uint64(4096), c.Sectors)
	assert.Equal(t, uint64(1<<20), c.MaxFileSize)
}

func TestEnvironment(t *testing.T) {
	assert := assert.New(t)
	t.Setenv("RSFS_IMAGE", "/tmp/v.img")
	t.Setenv("RSFS_SECTORS", "0x100")
	t.Setenv("RSFS_MAX_FILE", "not a number")
	t.Setenv("RSFS_DEBUG", "5")
	c := Load()
	assert.Equal("/tmp/v.img", c.Image)
	assert.Equal(uint64(256), c.Sectors)
	assert.Equal(uint64(1<<20), c.MaxFileSize, "bad value falls back")

	old := util.Debug
	defer func() { util.Debug = old }()
	c.Apply()
	assert.Equal(uint64(5), util.Debug)
}
