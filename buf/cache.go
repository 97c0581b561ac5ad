package buf

import (
	"github.com/mit-pdos/go-rsfs/common"
	"github.com/mit-pdos/go-rsfs/util"
)

// Cache holds the whole content of the most recently read file and the read
// cursor into it.
type Cache struct {
	owner  common.Slot
	valid  bool
	data   []byte
	cursor uint64
}

func MkCache() *Cache {
	return &Cache{}
}

func (c *Cache) Owns(slot common.Slot) bool {
	return c.valid && c.owner == slot
}

// Load replaces the cache content and rewinds the cursor.
func (c *Cache) Load(slot common.Slot, data []byte) {
	c.owner = slot
	c.valid = true
	c.data = data
	c.cursor = 0
}

func (c *Cache) Invalidate() {
	c.valid = false
	c.data = nil
	c.cursor = 0
}

// Remaining is the number of unread bytes.
func (c *Cache) Remaining() uint64 {
	return uint64(len(c.data)) - c.cursor
}

// Take returns up to max bytes at the cursor and advances past them.
func (c *Cache) Take(max uint64) []byte {
	n := util.Min(max, c.Remaining())
	p := util.CloneByteSlice(c.data[c.cursor : c.cursor+n])
	c.cursor += n
	return p
}
