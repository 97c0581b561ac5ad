package disk

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds = errors.New("block address out of bounds")
	ErrBlockSize   = errors.New("buffer is not block-sized")
)

func checkAccess(a uint64, n uint64, buf Block) error {
	if uint64(len(buf)) != BlockSize {
		return fmt.Errorf("%w (%d bytes)", ErrBlockSize, len(buf))
	}
	if a >= n {
		return fmt.Errorf("%w: %d >= %d", ErrOutOfBounds, a, n)
	}
	return nil
}
