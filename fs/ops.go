package fs

import (
	"fmt"

	"github.com/mit-pdos/go-rsfs/common"
	"github.com/mit-pdos/go-rsfs/dir"
	"github.com/mit-pdos/go-rsfs/util"
)

// Create makes an empty file holding one block and returns its (closed)
// handle.
func (fs *Fs) Create(name string) (Handle, error) {
	if err := fs.checkReady(); err != nil {
		return 0, err
	}
	return fs.create(name)
}

func (fs *Fs) create(name string) (Handle, error) {
	if err := dir.ValidName(name); err != nil {
		return 0, translate(err)
	}
	if _, ok := fs.dir.Lookup(name); ok {
		return 0, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	if fs.dir.Full() {
		return 0, ErrDirectoryFull
	}
	bn, err := fs.fat.FindFree(common.NULLBNUM)
	if err != nil {
		return 0, translate(err)
	}
	s, err := fs.dir.Alloc(name, bn)
	if err != nil {
		return 0, translate(err)
	}
	fs.fat.Claim(bn)
	if err := fs.persist(); err != nil {
		fs.dir.Free(s)
		fs.fat.Unlink(bn)
		return 0, err
	}
	util.DPrintf(3, "Create: %q slot %d block %d\n", name, s, bn)
	return s, nil
}

// Remove deletes a file and frees its blocks. A file being written cannot
// be removed; a file being read has its read session closed.
func (fs *Fs) Remove(name string) error {
	if err := fs.checkReady(); err != nil {
		return err
	}
	s, ok := fs.dir.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrFileNotFound, name)
	}
	if fs.sessions[s] == writing {
		return fmt.Errorf("%w: %q is open for writing", ErrWriteSessionBusy, name)
	}
	return fs.remove(s)
}

func (fs *Fs) remove(s Handle) error {
	e, err := fs.dir.Get(s)
	if err != nil {
		return translate(err)
	}
	if !e.Used {
		return fmt.Errorf("%w: slot %d", ErrFileNotFound, s)
	}
	if err := fs.fat.Release(e.First); err != nil {
		return translate(err)
	}
	fs.dir.Free(s)
	fs.sessions[s] = closed
	if fs.cache.Owns(s) {
		fs.cache.Invalidate()
	}
	util.DPrintf(3, "Remove: %q slot %d\n", e.Name, s)
	return fs.persist()
}

// List returns every file's name and size in directory order.
func (fs *Fs) List() ([]dir.Info, error) {
	if err := fs.checkReady(); err != nil {
		return nil, err
	}
	return fs.dir.List(), nil
}

// FreeSpace is the data region's size less the whole blocks charged to
// files.
func (fs *Fs) FreeSpace() (uint64, error) {
	if err := fs.checkReady(); err != nil {
		return 0, err
	}
	return fs.freeSpace(), nil
}

// Stat returns the size of the named file.
func (fs *Fs) Stat(name string) (uint64, error) {
	if err := fs.checkReady(); err != nil {
		return 0, err
	}
	s, ok := fs.dir.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrFileNotFound, name)
	}
	e, _ := fs.dir.Get(s)
	return e.Size, nil
}
