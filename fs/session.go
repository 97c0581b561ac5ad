package fs

import (
	"fmt"

	"github.com/mit-pdos/go-rsfs/util"
)

type session uint8

const (
	closed session = iota
	reading
	writing
)

func (s session) String() string {
	switch s {
	case reading:
		return "open for read"
	case writing:
		return "open for write"
	default:
		return "closed"
	}
}

// Mode selects how Open opens a file.
type Mode uint8

const (
	ModeRead Mode = iota
	ModeWrite
)

// Open starts a session on name.
//
// ModeRead requires the file to exist. ModeWrite truncates an existing file
// (by removing and recreating it) or creates a new one; only one file can
// be open for writing at a time.
func (fs *Fs) Open(name string, mode Mode) (Handle, error) {
	if err := fs.checkReady(); err != nil {
		return 0, err
	}
	switch mode {
	case ModeRead:
		return fs.openRead(name)
	case ModeWrite:
		return fs.openWrite(name)
	default:
		return 0, fmt.Errorf("%w: mode %d", ErrWrongSessionMode, mode)
	}
}

func (fs *Fs) openRead(name string) (Handle, error) {
	s, ok := fs.dir.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrFileNotFound, name)
	}
	if fs.sessions[s] == writing {
		return 0, fmt.Errorf("%w: %q is open for writing", ErrWriteSessionBusy, name)
	}
	fs.sessions[s] = reading
	fs.cache.Invalidate()
	util.DPrintf(3, "Open: %q slot %d for read\n", name, s)
	return s, nil
}

func (fs *Fs) openWrite(name string) (Handle, error) {
	if owner, busy := fs.staging.Owner(); busy {
		return 0, fmt.Errorf("%w: slot %d", ErrWriteSessionBusy, owner)
	}
	if old, ok := fs.dir.Lookup(name); ok {
		if err := fs.remove(old); err != nil {
			return 0, err
		}
	}
	s, err := fs.create(name)
	if err != nil {
		return 0, err
	}
	fs.sessions[s] = writing
	fs.staging.Acquire(s)
	util.DPrintf(3, "Open: %q slot %d for write\n", name, s)
	return s, nil
}

// handle checks that h names a used slot with an open session.
func (fs *Fs) handle(h Handle) (session, error) {
	if !fs.dir.InUse(h) {
		return closed, fmt.Errorf("%w: %d", ErrHandleInvalid, h)
	}
	return fs.sessions[h], nil
}

// Close ends a session. Closing a write session flushes the staged bytes to
// the device; if that fails the file is removed and the error returned.
func (fs *Fs) Close(h Handle) error {
	if err := fs.checkReady(); err != nil {
		return err
	}
	st, err := fs.handle(h)
	if err != nil {
		return err
	}
	switch st {
	case reading:
		fs.sessions[h] = closed
		if fs.cache.Owns(h) {
			fs.cache.Invalidate()
		}
		return nil
	case writing:
		err := fs.flush(h)
		fs.staging.Release()
		fs.sessions[h] = closed
		if err != nil {
			util.DPrintf(0, "Close: flush of slot %d failed: %v\n", h, err)
			if rerr := fs.remove(h); rerr != nil {
				return fmt.Errorf("%w (removing file: %v)", err, rerr)
			}
			return err
		}
		return nil
	default:
		return fmt.Errorf("%w: %d is not open", ErrHandleInvalid, h)
	}
}
