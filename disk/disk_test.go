package disk

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gdisk "github.com/tchajed/goose/machine/disk"
)

func mkBlock(b byte) Block {
	block := make(Block, BlockSize)
	for i := range block {
		block[i] = b
	}
	return block
}

func testReadWrite(t *testing.T, d Disk) {
	assert := assert.New(t)
	n, err := d.Size()
	require.NoError(t, err)
	assert.Equal(uint64(8), n)

	require.NoError(t, d.Write(3, mkBlock(3)))
	require.NoError(t, d.Write(7, mkBlock(7)))
	b, err := d.Read(3)
	require.NoError(t, err)
	assert.Equal(mkBlock(3), b)
	b, err = d.Read(7)
	require.NoError(t, err)
	assert.Equal(mkBlock(7), b)
	b, err = d.Read(0)
	require.NoError(t, err)
	assert.Equal(mkBlock(0), b, "unwritten block should be zero")

	assert.Error(d.Write(8, mkBlock(1)), "out-of-bounds write")
	_, err = d.Read(8)
	assert.Error(err, "out-of-bounds read")
	assert.Error(d.Write(1, make(Block, 10)), "short block")
	assert.NoError(d.Barrier())
}

func TestMemDisk(t *testing.T) {
	d := NewMemDisk(8)
	testReadWrite(t, d)
	assert.ErrorIs(t, d.Write(8, mkBlock(1)), ErrOutOfBounds)
	assert.ErrorIs(t, d.Write(0, make(Block, 1)), ErrBlockSize)
}

func TestFileDisk(t *testing.T) {
	dir, err := ioutil.TempDir("", "rsfs-disk")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "disk.img")

	d, err := NewFileDisk(path, 8)
	require.NoError(t, err)
	testReadWrite(t, d)
	require.NoError(t, d.Close())

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(8*BlockSize), st.Size())

	d2, err := OpenFileDisk(path)
	require.NoError(t, err)
	defer d2.Close()
	b, err := d2.Read(7)
	require.NoError(t, err)
	assert.Equal(t, mkBlock(7), b, "contents survive reopen")
}

func TestGooseDisk(t *testing.T) {
	d := FromGoose(gdisk.NewMemDisk(8))
	testReadWrite(t, d)
}

func TestFaultDisk(t *testing.T) {
	assert := assert.New(t)
	f := NewFaultDisk(NewMemDisk(8))

	f.FailAfter(1)
	assert.NoError(f.Write(1, mkBlock(1)))
	assert.ErrorIs(f.Write(2, mkBlock(2)), ErrInjected)
	b, _ := f.Read(2)
	assert.Equal(mkBlock(0), b, "failed write must not reach the disk")

	f.Heal()
	f.FailBlock(5)
	assert.NoError(f.Write(2, mkBlock(2)))
	assert.ErrorIs(f.Write(5, mkBlock(5)), ErrInjected)
	assert.Equal(uint64(2), f.Writes())
}
