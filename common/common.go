package common

import (
	"github.com/tchajed/goose/machine/disk"
)

const (
	FATCLUSTERS uint64 = 65536 // allocation table entries
	FATENTRYSZ  uint64 = 2     // on-disk bytes per entry
	FATSECTORS  uint64 = FATCLUSTERS * FATENTRYSZ / disk.BlockSize

	DIRENTRIES uint64 = 128
	DIRENTSZ   uint64 = 32 // on-disk size
	NAMELEN    uint64 = 24

	DIRSECTOR = Bnum(FATSECTORS)
	DATASTART = Bnum(FATSECTORS + 1)

	// NRESERVED counts the table sectors plus the directory sector.
	NRESERVED uint64 = FATSECTORS + 1
)

type Bnum = uint64

// Slot is a directory index; it doubles as the file handle.
type Slot uint64

const NULLBNUM Bnum = 0
