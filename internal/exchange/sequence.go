package exchange

import "sync/atomic"

// NotificationSequence is carried by unsolicited notification frames. Command
// sequences never use it.
const NotificationSequence uint16 = 0

// Sequencer hands out command sequence numbers. After 0xFFFF it wraps to 1.
type Sequencer struct {
	next atomic.Uint32
}

func NewSequencer(start uint16) *Sequencer {
	s := &Sequencer{}
	if start == NotificationSequence {
		start = 1
	}
	s.next.Store(uint32(start))
	return s
}

func (s *Sequencer) Next() uint16 {
	for {
		cur := s.next.Load()
		n := cur + 1
		if n > 0xFFFF {
			n = 1
		}
		if s.next.CompareAndSwap(cur, n) {
			return uint16(cur)
		}
	}
}
