package snowflake

import (
	"errors"
	"sync"
	"time"
)

const (
	// Epoch is the custom epoch (January 1, 2024 00:00:00 UTC)
	Epoch int64 = 1704067200000 // milliseconds

	workerIDBits uint8 = 10
	sequenceBits uint8 = 12
)

var (
	ErrInvalidWorkerID     = errors.New("worker ID exceeds maximum value")
	ErrClockMovedBackwards = errors.New("clock moved backwards")
)

// Generator produces unique, strictly increasing message IDs using the
// Snowflake layout: 41 bits of milliseconds since Epoch, 10 bits of worker
// ID, 12 bits of per-millisecond sequence. Monotonicity within a process
// is what cursor pagination depends on.
type Generator struct {
	mu sync.Mutex

	epoch    int64
	workerID int64

	sequenceMask int64
	workerIDMask int64

	sequence      int64
	lastTimestamp int64
}

// NewGenerator creates a generator for the given worker ID.
func NewGenerator(workerID int64) (*Generator, error) {
	g := &Generator{
		epoch:        Epoch,
		workerID:     workerID,
		sequenceMask: -1 ^ (-1 << sequenceBits),
		workerIDMask: -1 ^ (-1 << workerIDBits),
	}
	if workerID > g.workerIDMask || workerID < 0 {
		return nil, ErrInvalidWorkerID
	}
	return g, nil
}

// NextID generates the next unique ID.
func (g *Generator) NextID() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	timestamp := currentTimestamp()
	if timestamp < g.lastTimestamp {
		return 0, ErrClockMovedBackwards
	}

	if timestamp == g.lastTimestamp {
		g.sequence = (g.sequence + 1) & g.sequenceMask
		// Sequence overflow - wait for next millisecond
		if g.sequence == 0 {
			timestamp = waitNextMillis(g.lastTimestamp)
		}
	} else {
		g.sequence = 0
	}

	g.lastTimestamp = timestamp

	id := ((timestamp - g.epoch) << (workerIDBits + sequenceBits)) |
		(g.workerID << sequenceBits) |
		g.sequence

	return id, nil
}

// Timestamp extracts the creation time encoded in an ID.
func (g *Generator) Timestamp(id int64) time.Time {
	ms := (id >> (workerIDBits + sequenceBits)) + g.epoch
	return time.UnixMilli(ms)
}

func currentTimestamp() int64 {
	return time.Now().UnixMilli()
}

func waitNextMillis(lastTimestamp int64) int64 {
	timestamp := currentTimestamp()
	for timestamp <= lastTimestamp {
		timestamp = currentTimestamp()
	}
	return timestamp
}
