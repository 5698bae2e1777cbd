package snowflake

import (
	"errors"
	"sync"
	"time"

	snflake "github.com/disgoorg/snowflake/v2"
)

const (
	// Epoch is the custom epoch (January 1, 2024 00:00:00 UTC) in
	// milliseconds.
	Epoch int64 = 1704067200000

	workerIDBits uint8 = 10
	sequenceBits uint8 = 12
)

var (
	ErrInvalidWorkerID     = errors.New("worker ID exceeds maximum value")
	ErrClockMovedBackwards = errors.New("clock moved backwards")
)

// Generator mints unique snowflake IDs. The demo feed and the tests use it
// to fabricate entity IDs with realistic bit layout.
type Generator struct {
	mu sync.Mutex

	epoch    int64
	workerID int64

	sequence      int64
	lastTimestamp int64
}

// NewGenerator creates a generator for the given worker ID.
func NewGenerator(workerID int64) (*Generator, error) {
	maxWorkerID := int64(-1 ^ (-1 << workerIDBits))
	if workerID < 0 || workerID > maxWorkerID {
		return nil, ErrInvalidWorkerID
	}
	return &Generator{
		epoch:         Epoch,
		workerID:      workerID,
		lastTimestamp: -1,
	}, nil
}

// NextID returns the next unique ID. Safe for concurrent use.
func (g *Generator) NextID() (snflake.ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UnixMilli()
	if now < g.lastTimestamp {
		return 0, ErrClockMovedBackwards
	}

	sequenceMask := int64(-1 ^ (-1 << sequenceBits))
	if now == g.lastTimestamp {
		g.sequence = (g.sequence + 1) & sequenceMask
		if g.sequence == 0 {
			// Sequence exhausted within this millisecond; spin to the next.
			for now <= g.lastTimestamp {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		g.sequence = 0
	}
	g.lastTimestamp = now

	id := (now-g.epoch)<<(workerIDBits+sequenceBits) |
		g.workerID<<sequenceBits |
		g.sequence
	return snflake.ID(uint64(id)), nil
}
