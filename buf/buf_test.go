package buf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/go-rsfs/disk"
)

func TestStagingOwnership(t *testing.T) {
	assert := assert.New(t)
	s := MkStaging(100)
	_, ok := s.Owner()
	assert.False(ok)

	assert.True(s.Acquire(3))
	assert.False(s.Acquire(4), "single writer")
	o, ok := s.Owner()
	assert.True(ok)
	assert.EqualValues(3, o)

	require.NoError(t, s.Append([]byte("hello")))
	s.Release()
	assert.True(s.Acquire(4))
	assert.Equal(uint64(0), s.Len(), "acquire starts empty")
}

func TestStagingCapacity(t *testing.T) {
	s := MkStaging(10)
	s.Acquire(0)
	require.NoError(t, s.Append(make([]byte, 6)))
	assert.ErrorIs(t, s.Append(make([]byte, 5)), ErrTooLarge)
	assert.Equal(t, uint64(6), s.Len(), "rejected append adds nothing")
	assert.NoError(t, s.Append(make([]byte, 4)))
}

func TestStagingBlocks(t *testing.T) {
	assert := assert.New(t)
	s := MkStaging(4 * disk.BlockSize)
	s.Acquire(0)
	assert.Equal(uint64(1), s.NumBlocks(), "empty file still has a block")

	data := bytes.Repeat([]byte{7}, int(disk.BlockSize)+3)
	s.Append(data)
	assert.Equal(uint64(2), s.NumBlocks())
	assert.Equal(data[:disk.BlockSize], []byte(s.Block(0)))
	last := s.Block(1)
	assert.Equal([]byte{7, 7, 7, 0}, []byte(last[:4]), "last block zero padded")
	assert.Len(last, int(disk.BlockSize))
}

func TestCache(t *testing.T) {
	assert := assert.New(t)
	c := MkCache()
	assert.False(c.Owns(0))

	c.Load(2, []byte("hellohello"))
	assert.True(c.Owns(2))
	assert.False(c.Owns(1))
	assert.Equal([]byte("hel"), c.Take(3))
	assert.Equal([]byte("lohello"), c.Take(100))
	assert.Equal(uint64(0), c.Remaining())
	assert.Empty(c.Take(5))

	c.Invalidate()
	assert.False(c.Owns(2))
}
