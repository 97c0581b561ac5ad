package disk

import (
	"errors"
	"sync"
)

var ErrInjected = errors.New("injected disk fault")

// FaultDisk wraps a Disk and fails writes on demand.
type FaultDisk struct {
	Disk

	mu         sync.Mutex
	failAfter  int64 // remaining successful writes; negative disables
	failBlocks map[uint64]bool
	writes     uint64
}

func NewFaultDisk(d Disk) *FaultDisk {
	return &FaultDisk{
		Disk:       d,
		failAfter:  -1,
		failBlocks: make(map[uint64]bool),
	}
}

// FailAfter lets n more writes succeed, then fails every write until Heal.
func (f *FaultDisk) FailAfter(n int64) {
	f.mu.Lock()
	f.failAfter = n
	f.mu.Unlock()
}

// FailBlock fails every write to block a until Heal.
func (f *FaultDisk) FailBlock(a uint64) {
	f.mu.Lock()
	f.failBlocks[a] = true
	f.mu.Unlock()
}

func (f *FaultDisk) Heal() {
	f.mu.Lock()
	f.failAfter = -1
	f.failBlocks = make(map[uint64]bool)
	f.mu.Unlock()
}

// Writes reports how many writes reached the underlying disk.
func (f *FaultDisk) Writes() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *FaultDisk) Write(a uint64, v Block) error {
	f.mu.Lock()
	fail := f.failBlocks[a]
	if f.failAfter == 0 {
		fail = true
	} else if f.failAfter > 0 {
		f.failAfter--
	}
	if !fail {
		f.writes++
	}
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.Disk.Write(a, v)
}
