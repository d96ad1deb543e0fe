package allocation

import (
	"fmt"
	"iter"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// DefaultStep 기본 이산화 단위 (10%)
const DefaultStep = 0.1

// Allocation is a portfolio weight vector, one weight per symbol.
// Produced by the Generator and never mutated afterwards.
type Allocation []float64

// Sum returns the total weight
func (a Allocation) Sum() float64 {
	var sum float64
	for _, w := range a {
		sum += w
	}
	return sum
}

// Clone returns an independent copy
func (a Allocation) Clone() Allocation {
	out := make(Allocation, len(a))
	copy(out, a)
	return out
}

// String formats the weights as "[0.1 0.2 0.7]"
func (a Allocation) String() string {
	parts := make([]string, len(a))
	for i, w := range a {
		parts[i] = strconv.FormatFloat(w, 'f', -1, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Generator enumerates the discretized weight simplex
// ⭐ SSOT: 후보 배분 벡터는 여기서만 생성
type Generator struct {
	step  float64
	units int // 1/step
}

// NewGenerator creates a generator for multiples of step.
// step must divide 1 evenly (0.1, 0.25, 0.5, ...).
func NewGenerator(step float64) (*Generator, error) {
	if !(step > 0 && step <= 1) {
		return nil, fmt.Errorf("allocation step must be in (0, 1], got %v", step)
	}

	ratio := 1 / step
	units := math.Round(ratio)
	if math.Abs(ratio-units) > 1e-9 {
		return nil, fmt.Errorf("allocation step %v does not divide 1 evenly", step)
	}

	return &Generator{step: step, units: int(units)}, nil
}

// Step returns the discretization step
func (g *Generator) Step() float64 {
	return g.step
}

// All lazily yields every allocation over n symbols.
// Order: first weight ascending, then the second, and so on.
// For n=2, step=0.5: [0 1], [0.5 0.5], [1 0].
func (g *Generator) All(n int) iter.Seq[Allocation] {
	return func(yield func(Allocation) bool) {
		if n <= 0 {
			return
		}
		counts := make([]int, n)
		g.fill(counts, 0, g.units, yield)
	}
}

// fill assigns remaining units to counts[pos:]; returns false once yield stops
func (g *Generator) fill(counts []int, pos, remaining int, yield func(Allocation) bool) bool {
	if pos == len(counts)-1 {
		counts[pos] = remaining
		return yield(g.toAllocation(counts))
	}

	for u := 0; u <= remaining; u++ {
		counts[pos] = u
		if !g.fill(counts, pos+1, remaining-u, yield) {
			return false
		}
	}
	return true
}

func (g *Generator) toAllocation(counts []int) Allocation {
	alloc := make(Allocation, len(counts))
	for i, c := range counts {
		alloc[i] = float64(c) / float64(g.units)
	}
	return alloc
}

// generateCap bounds the capacity Generate preallocates
const generateCap = 1 << 20

// Generate materializes All(n)
func (g *Generator) Generate(n int) []Allocation {
	out := make([]Allocation, 0, min(g.Count(n), generateCap))
	for alloc := range g.All(n) {
		out = append(out, alloc)
	}
	return out
}

// Count returns the number of allocations over n symbols: C(units+n-1, n-1).
// Counts beyond int saturate at math.MaxInt.
func (g *Generator) Count(n int) int {
	if n <= 0 {
		return 0
	}
	total := new(big.Int).Binomial(int64(g.units+n-1), int64(n-1))
	if !total.IsInt64() || total.Int64() > math.MaxInt {
		return math.MaxInt
	}
	return int(total.Int64())
}
