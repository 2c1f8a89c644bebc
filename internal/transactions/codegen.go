package transactions

import (
	"fmt"
	"sync"
	"time"
)

const suffixModulus = 1_000_000

// CodeGenerator produces document codes: the kind's prefix followed by the
// last six digits of the posting timestamp in milliseconds. Two movements of
// the same kind posted within the same millisecond would collide, so the
// generator bumps the suffix past the last one it handed out; a unique index
// on the code column backstops collisions across processes.
type CodeGenerator struct {
	mu   sync.Mutex
	last map[Kind]int64
	now  func() time.Time
}

// NewCodeGenerator constructs CodeGenerator.
func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{
		last: map[Kind]int64{},
		now:  time.Now,
	}
}

// Next returns the next document code for the kind.
func (g *CodeGenerator) Next(kind Kind) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	suffix := g.now().UnixMilli() % suffixModulus
	if prev, ok := g.last[kind]; ok && suffix <= prev {
		suffix = (prev + 1) % suffixModulus
	}
	g.last[kind] = suffix
	return fmt.Sprintf("%s%06d", kind.CodePrefix(), suffix)
}
