package buffer

import "errors"

// ErrNoVictim is returned when every frame in the pool is pinned.
var ErrNoVictim = errors.New("nothing is unpinned")

type IReplacer interface {
	Pin(frameID int)
	Unpin(frameID int)
	ChooseVictim() (frameID int, err error)
}

const (
	pinnedBit       uint8 = 1 << 7
	secondChanceBit uint8 = 1 << 6
)

// ClockReplacer picks eviction victims with the clock (second chance)
// algorithm. Callers synchronize access.
type ClockReplacer struct {
	frames []uint8
	hand   int
}

var _ IReplacer = &ClockReplacer{}

func NewClockReplacer(size int) *ClockReplacer {
	return &ClockReplacer{frames: make([]uint8, size)}
}

func (c *ClockReplacer) Pin(frameID int) {
	c.frames[frameID] |= pinnedBit | secondChanceBit
}

func (c *ClockReplacer) Unpin(frameID int) {
	if c.frames[frameID]&pinnedBit == 0 {
		panic("unpinning a frame which is not pinned")
	}
	c.frames[frameID] &= ^pinnedBit
}

func (c *ClockReplacer) ChooseVictim() (int, error) {
	// two full sweeps: the first clears second chance bits, the second picks
	for pass := 0; pass < 2*len(c.frames); pass++ {
		f := c.frames[c.hand]
		if f&pinnedBit == 0 {
			if f&secondChanceBit != 0 {
				c.frames[c.hand] &= ^secondChanceBit
			} else {
				victim := c.hand
				c.hand = (c.hand + 1) % len(c.frames)
				return victim, nil
			}
		}
		c.hand = (c.hand + 1) % len(c.frames)
	}
	return 0, ErrNoVictim
}
