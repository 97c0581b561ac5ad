package alloc

import (
	"fmt"

	"github.com/mit-pdos/go-rsfs/common"
)

// Raw on-disk codes. Any other value is a next-block pointer; the data region
// starts above all of them, so a valid pointer never collides with a code.
const (
	rawFree     uint16 = 1
	rawEnd      uint16 = 2
	rawTableRsv uint16 = 3
	rawDirRsv   uint16 = 4
)

type Kind uint8

const (
	KindFree Kind = iota
	KindEnd
	KindReserved
	KindNext
)

// Region names the metadata structure a reserved block holds.
type Region uint8

const (
	RegionTable Region = iota
	RegionDir
)

// Entry is one allocation table slot: Free, EndOfChain, Reserved(region) or
// Next(block).
type Entry struct {
	kind   Kind
	region Region
	next   common.Bnum
}

func Free() Entry {
	return Entry{kind: KindFree}
}

func End() Entry {
	return Entry{kind: KindEnd}
}

func Reserved(r Region) Entry {
	return Entry{kind: KindReserved, region: r}
}

func Next(bn common.Bnum) Entry {
	return Entry{kind: KindNext, next: bn}
}

func (e Entry) Kind() Kind {
	return e.kind
}

func (e Entry) IsFree() bool {
	return e.kind == KindFree
}

func (e Entry) IsEnd() bool {
	return e.kind == KindEnd
}

// Region is only meaningful for reserved entries.
func (e Entry) Region() (Region, bool) {
	return e.region, e.kind == KindReserved
}

// Next returns the following block of the chain, if e is a pointer.
func (e Entry) Next() (common.Bnum, bool) {
	return e.next, e.kind == KindNext
}

func (e Entry) String() string {
	switch e.kind {
	case KindFree:
		return "free"
	case KindEnd:
		return "end"
	case KindReserved:
		if e.region == RegionTable {
			return "reserved(table)"
		}
		return "reserved(dir)"
	default:
		return fmt.Sprintf("next(%d)", e.next)
	}
}

func (e Entry) raw() uint16 {
	switch e.kind {
	case KindFree:
		return rawFree
	case KindEnd:
		return rawEnd
	case KindReserved:
		if e.region == RegionTable {
			return rawTableRsv
		}
		return rawDirRsv
	default:
		return uint16(e.next)
	}
}

func fromRaw(v uint16) Entry {
	switch v {
	case rawFree:
		return Free()
	case rawEnd:
		return End()
	case rawTableRsv:
		return Reserved(RegionTable)
	case rawDirRsv:
		return Reserved(RegionDir)
	default:
		return Next(common.Bnum(v))
	}
}
