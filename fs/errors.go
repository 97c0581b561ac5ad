package fs

import (
	"errors"
	"fmt"

	"github.com/mit-pdos/go-rsfs/alloc"
	"github.com/mit-pdos/go-rsfs/buf"
	"github.com/mit-pdos/go-rsfs/dir"
)

var (
	ErrNotFormatted     = errors.New("volume not formatted")
	ErrNameTooLong      = errors.New("file name too long")
	ErrInvalidName      = errors.New("invalid file name")
	ErrDuplicateName    = errors.New("file exists")
	ErrDirectoryFull    = errors.New("directory full")
	ErrNoFreeBlock      = errors.New("no free block")
	ErrDiskFull         = errors.New("disk full")
	ErrFileTooLarge     = errors.New("file too large")
	ErrFileNotFound     = errors.New("file not found")
	ErrHandleInvalid    = errors.New("invalid file handle")
	ErrWrongSessionMode = errors.New("file not open in this mode")
	ErrWriteSessionBusy = errors.New("another file is open for writing")
	ErrDeviceIO         = errors.New("device I/O error")
	ErrCorrupt          = errors.New("volume corrupt")
	ErrDeviceTooSmall   = errors.New("device too small")
)

// Structure names the metadata a persist failed on.
type Structure int

const (
	StructTable Structure = iota
	StructDir
	StructBarrier
)

func (s Structure) String() string {
	switch s {
	case StructTable:
		return "allocation table"
	case StructDir:
		return "directory"
	default:
		return "barrier"
	}
}

// PersistError reports which structure failed to reach the device. It
// matches ErrDeviceIO under errors.Is.
type PersistError struct {
	Structure Structure
	Sector    uint64
	Err       error
}

func (e *PersistError) Error() string {
	if e.Structure == StructBarrier {
		return fmt.Sprintf("%v: barrier: %v", ErrDeviceIO, e.Err)
	}
	return fmt.Sprintf("%v: writing %v (sector %d): %v",
		ErrDeviceIO, e.Structure, e.Sector, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

func (e *PersistError) Is(target error) bool {
	return target == ErrDeviceIO
}

func ioError(op string, bn uint64, err error) error {
	return fmt.Errorf("%w: %s block %d: %w", ErrDeviceIO, op, bn, err)
}

var lowerErrs = []struct {
	lower error
	upper error
}{
	{dir.ErrNameTooLong, ErrNameTooLong},
	{dir.ErrBadName, ErrInvalidName},
	{dir.ErrDuplicate, ErrDuplicateName},
	{dir.ErrFull, ErrDirectoryFull},
	{dir.ErrNotFound, ErrFileNotFound},
	{dir.ErrSlotRange, ErrHandleInvalid},
	{dir.ErrSizeTooLarge, ErrFileTooLarge},
	{alloc.ErrNoSpace, ErrNoFreeBlock},
	{alloc.ErrBadChain, ErrCorrupt},
	{alloc.ErrBadReserved, ErrNotFormatted},
	{buf.ErrTooLarge, ErrFileTooLarge},
}

// translate maps an alloc, dir or buf error onto the filesystem's errors,
// keeping the original as the cause.
func translate(err error) error {
	if err == nil {
		return nil
	}
	for _, m := range lowerErrs {
		if errors.Is(err, m.lower) {
			return fmt.Errorf("%w: %w", m.upper, err)
		}
	}
	return err
}
