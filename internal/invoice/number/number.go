// Package number generates human-sortable invoice numbers.
package number

import (
	"fmt"
	"math/rand"
	"regexp"
	"sync"
	"time"

	"github.com/smallbiznis/gomart/internal/clock"
)

// Prefix is the literal prefix of every invoice number.
const Prefix = "INV"

// timestampLayout renders the issue time as yyyyMMddHHmmss.
const timestampLayout = "20060102150405"

var pattern = regexp.MustCompile(`^INV\d{14}\d{4}$`)

// Generator produces invoice numbers of the form
// INV<14-digit timestamp><4-digit suffix>. The suffix is random, so the
// caller must still enforce uniqueness against the persistence layer and
// ask for another candidate on collision.
type Generator struct {
	clock clock.Clock

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator builds a Generator seeded from the wall clock. One shared
// instance serves the whole process.
func NewGenerator(clk clock.Clock) *Generator {
	return NewGeneratorWithSource(clk, rand.NewSource(time.Now().UnixNano()))
}

// NewGeneratorWithSource builds a Generator with a caller-supplied source.
// Tests pass a fixed seed to make the suffix sequence deterministic.
func NewGeneratorWithSource(clk clock.Clock, src rand.Source) *Generator {
	return &Generator{
		clock: clk,
		rnd:   rand.New(src),
	}
}

// Next returns a fresh candidate number.
func (g *Generator) Next() string {
	g.mu.Lock()
	suffix := g.rnd.Intn(10000)
	g.mu.Unlock()

	return fmt.Sprintf("%s%s%04d", Prefix, g.clock.Now().Format(timestampLayout), suffix)
}

// Valid reports whether s has the invoice number format.
func Valid(s string) bool {
	return pattern.MatchString(s)
}
