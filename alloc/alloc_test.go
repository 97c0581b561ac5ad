package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/go-rsfs/common"
)

const nblocks = 64

func mkTable() *Table {
	t := MkTable(nblocks)
	t.Reset()
	return t
}

func TestEntryCodes(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(uint16(1), Free().raw())
	assert.Equal(uint16(2), End().raw())
	assert.Equal(uint16(3), Reserved(RegionTable).raw())
	assert.Equal(uint16(4), Reserved(RegionDir).raw())
	assert.Equal(uint16(40), Next(40).raw())

	assert.Equal(Free(), fromRaw(1))
	assert.Equal(Reserved(RegionDir), fromRaw(4))
	n, ok := fromRaw(uint16(common.DATASTART)).Next()
	assert.True(ok)
	assert.Equal(common.DATASTART, n)
	assert.Equal("next(40)", Next(40).String())
}

func TestReset(t *testing.T) {
	assert := assert.New(t)
	tb := mkTable()
	assert.NoError(tb.CheckReserved())
	assert.Equal(uint64(nblocks)-common.NRESERVED, tb.NumFree())
	assert.Equal(uint64(nblocks), tb.Limit())

	tb.set(0, Free())
	assert.ErrorIs(tb.CheckReserved(), ErrBadReserved)
	tb.Reset()
	tb.set(common.DIRSECTOR, Reserved(RegionTable))
	assert.ErrorIs(tb.CheckReserved(), ErrBadReserved, "directory code checked")
}

func TestFindFree(t *testing.T) {
	assert := assert.New(t)
	tb := mkTable()

	bn, err := tb.FindFree(common.NULLBNUM)
	require.NoError(t, err)
	assert.Equal(common.DATASTART, bn, "lowest data block first")

	bn, err = tb.FindFree(common.DATASTART)
	require.NoError(t, err)
	assert.Equal(common.DATASTART+1, bn, "exclude skips")

	for b := common.DATASTART; b < nblocks; b++ {
		tb.Claim(b)
	}
	_, err = tb.FindFree(common.NULLBNUM)
	assert.ErrorIs(err, ErrNoSpace)
}

func TestFindFreeBoundedByDevice(t *testing.T) {
	tb := MkTable(common.DATASTART + 1)
	tb.Reset()
	tb.Claim(common.DATASTART)
	_, err := tb.FindFree(common.NULLBNUM)
	assert.ErrorIs(t, err, ErrNoSpace, "entries past the device are unusable")
}

func TestExtendAndRelease(t *testing.T) {
	assert := assert.New(t)
	tb := mkTable()
	free := tb.NumFree()

	first, _ := tb.FindFree(common.NULLBNUM)
	tb.Claim(first)
	tail := first
	for i := 0; i < 4; i++ {
		bn, err := tb.Extend(tail)
		require.NoError(t, err)
		next, ok := tb.Get(tail).Next()
		assert.True(ok)
		assert.Equal(bn, next)
		assert.True(tb.Get(bn).IsEnd())
		tail = bn
	}

	chain, err := tb.Walk(first)
	require.NoError(t, err)
	assert.Len(chain, 5)
	assert.Equal(free-5, tb.NumFree())

	require.NoError(t, tb.Release(first))
	assert.Equal(free, tb.NumFree())
	for _, bn := range chain {
		assert.True(tb.Get(bn).IsFree())
	}
}

func TestReleaseSingleBlock(t *testing.T) {
	tb := mkTable()
	free := tb.NumFree()
	bn, _ := tb.FindFree(common.NULLBNUM)
	tb.Claim(bn)
	require.NoError(t, tb.Release(bn))
	assert.Equal(t, free, tb.NumFree())
}

func TestWalkRejectsMalformed(t *testing.T) {
	assert := assert.New(t)
	tb := mkTable()
	a := common.DATASTART
	b := a + 1

	tb.set(a, Next(b))
	tb.set(b, Next(a))
	_, err := tb.Walk(a)
	assert.ErrorIs(err, ErrBadChain, "cycle")
	assert.ErrorIs(tb.Release(a), ErrBadChain)
	assert.False(tb.Get(a).IsFree(), "malformed chain left intact")

	tb.set(b, Free())
	_, err = tb.Walk(a)
	assert.ErrorIs(err, ErrBadChain, "free entry in chain")

	tb.set(b, Next(3))
	_, err = tb.Walk(a)
	assert.ErrorIs(err, ErrBadChain, "pointer into reserved region")

	tb.set(b, Next(nblocks+5))
	_, err = tb.Walk(a)
	assert.ErrorIs(err, ErrBadChain, "pointer past the device")

	_, err = tb.Walk(0)
	assert.ErrorIs(err, ErrBadChain, "chain starting in reserved region")
}

func TestSectorCodec(t *testing.T) {
	assert := assert.New(t)
	tb := mkTable()
	first, _ := tb.FindFree(common.NULLBNUM)
	tb.Claim(first)
	second, _ := tb.Extend(first)
	assert.Len(tb.DirtySectors(), int(common.FATSECTORS), "reset dirties every sector")

	blk := tb.EncodeSector(0)
	assert.Equal(byte(3), blk[0], "little-endian table code")
	assert.Equal(byte(0), blk[1])
	assert.Equal(byte(4), blk[2*common.DIRSECTOR])
	assert.Equal(byte(second), blk[2*first])
	assert.Equal(byte(2), blk[2*second])

	tb2 := MkTable(nblocks)
	tb2.DecodeSector(0, blk)
	assert.Equal(tb.Get(first), tb2.Get(first))
	assert.Equal(tb.Get(second), tb2.Get(second))
	assert.NoError(tb2.CheckReserved())
}

func TestDirtyTracking(t *testing.T) {
	tb := mkTable()
	for _, sec := range tb.DirtySectors() {
		tb.MarkClean(sec)
	}
	assert.Empty(t, tb.DirtySectors())
	tb.Claim(common.DATASTART)
	assert.Equal(t, []uint64{0}, tb.DirtySectors())
}
