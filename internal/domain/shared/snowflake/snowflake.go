// Package snowflake allocates unique, time-ordered 64-bit identifiers without
// a central sequence.
//
// Bit layout, most significant first:
//
//	1 bit unused | 40 bits timestamp | 8 bits node | 15 bits step
//
// The unused bit is always zero, so ids stay positive when stored as a signed
// BIGINT. The timestamp is measured in milliseconds since Epoch, which gives
// roughly 34.8 years of range.
package snowflake

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"
)

const (
	UnusedBits    = 1
	TimestampBits = 40
	NodeBits      = 8
	StepBits      = 15

	MaxNode      int64 = 1<<NodeBits - 1
	MaxStep      int64 = 1<<StepBits - 1
	MaxTimestamp int64 = 1<<TimestampBits - 1

	nodeShift      = StepBits
	timestampShift = NodeBits + StepBits

	// Epoch is 2025-01-01T00:00:00Z in Unix milliseconds.
	Epoch int64 = 1735689600000
)

// ErrInvalidNode matches any *InvalidNodeError via errors.Is
var ErrInvalidNode = errors.New("invalid node id")

// InvalidNodeError is returned by New when the node id is outside 0..MaxNode.
// It is a startup misconfiguration and must not be retried.
type InvalidNodeError struct {
	Node int64
}

// Error implements the error interface
func (e *InvalidNodeError) Error() string {
	return fmt.Sprintf("invalid node id: %d, must be 0-%d", e.Node, MaxNode)
}

// Is reports whether target is ErrInvalidNode
func (e *InvalidNodeError) Is(target error) bool {
	return target == ErrInvalidNode
}

// IDGenerator is the contract services depend on for new entity ids.
type IDGenerator interface {
	Generate() (int64, error)
}

// Option configures a Generator
type Option func(*Generator)

// WithClock replaces the wall clock used to read the current millisecond
func WithClock(clock Clock) Option {
	return func(g *Generator) {
		if clock != nil {
			g.clock = clock
		}
	}
}

// Generator is a snowflake id allocator bound to a single node id.
// It is safe for concurrent use.
type Generator struct {
	node  int64
	clock Clock

	mu            sync.Mutex
	lastTimestamp int64
	step          int64
}

// New creates a Generator for the given node id (0..255)
func New(node int64, opts ...Option) (*Generator, error) {
	if node < 0 || node > MaxNode {
		return nil, &InvalidNodeError{Node: node}
	}

	g := &Generator{
		node:  node,
		clock: SystemClock,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Node returns the node id this generator was created with
func (g *Generator) Node() int64 {
	return g.node
}

// Generate returns the next id. Successive calls on one Generator never return
// a smaller or equal value, even if the clock moves backward. When the step
// counter is exhausted within one millisecond the caller waits, outside the
// lock, until the clock advances.
//
// The error return is reserved; it is always nil today.
func (g *Generator) Generate() (int64, error) {
	for {
		g.mu.Lock()

		timestamp := g.elapsed()
		if timestamp < g.lastTimestamp {
			timestamp = g.lastTimestamp
		}

		step := int64(0)
		if timestamp == g.lastTimestamp {
			step = (g.step + 1) & MaxStep
			if step == 0 {
				// Leave the state at MaxStep so concurrent callers in the
				// same millisecond also wait instead of reusing low steps.
				last := g.lastTimestamp
				g.mu.Unlock()
				g.waitNextMillis(last)
				continue
			}
		}

		g.lastTimestamp = timestamp
		g.step = step
		id := compose(timestamp, g.node, step)
		g.mu.Unlock()

		return id, nil
	}
}

// elapsed returns milliseconds since Epoch according to the configured clock
func (g *Generator) elapsed() int64 {
	return g.clock.NowMillis() - Epoch
}

// waitNextMillis spins until the clock reports a millisecond after last
func (g *Generator) waitNextMillis(last int64) {
	for g.elapsed() <= last {
		runtime.Gosched()
	}
}

func compose(timestamp, node, step int64) int64 {
	return timestamp<<timestampShift | node<<nodeShift | step
}

// ExtractTimestamp returns the Unix millisecond timestamp encoded in id
func ExtractTimestamp(id int64) int64 {
	return int64(uint64(id)>>timestampShift) + Epoch
}

// ExtractNode returns the node id encoded in id
func ExtractNode(id int64) int64 {
	return int64(uint64(id)>>nodeShift) & MaxNode
}

// ExtractStep returns the per-millisecond sequence encoded in id
func ExtractStep(id int64) int64 {
	return id & MaxStep
}

// ExtractTime returns the allocation time encoded in id, in UTC
func ExtractTime(id int64) time.Time {
	return time.UnixMilli(ExtractTimestamp(id)).UTC()
}
