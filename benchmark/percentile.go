package main

import (
	"fmt"
	"slices"
	"time"
)

const percentileSize = 100 * 10000

// Percentile keeps the most recent samples in a ring.
type Percentile struct {
	data []float64 // insertion order
	pos  int

	// sorted copy of data, nil after Add.
	sorted []float64
}

func NewPercentile(data ...float64) *Percentile {
	p := &Percentile{
		data: make([]float64, 0, percentileSize),
	}
	for _, d := range data {
		p.Add(d)
	}
	return p
}

// Add
func (p *Percentile) Add(data float64) {
	p.sorted = nil
	if len(p.data) == percentileSize {
		p.data[p.pos] = data
		p.pos = (p.pos + 1) % percentileSize
	} else {
		p.data = append(p.data, data)
	}
}

func (p *Percentile) sort() []float64 {
	if p.sorted == nil {
		p.sorted = slices.Clone(p.data)
		slices.Sort(p.sorted)
	}
	return p.sorted
}

// Percentile
func (p *Percentile) Percentile(percentile float64) float64 {
	sorted := p.sort()
	i := int((percentile / 100) * float64(len(sorted)))
	return sorted[min(i, len(sorted)-1)]
}

// Min
func (p *Percentile) Min() float64 {
	return p.sort()[0]
}

// Max
func (p *Percentile) Max() float64 {
	sorted := p.sort()
	return sorted[len(sorted)-1]
}

// Avg
func (p *Percentile) Avg() float64 {
	var sum float64
	for _, v := range p.data {
		sum += v
	}
	return sum / float64(len(p.data))
}

// Print prints latency percentiles, samples are nanoseconds.
func (p *Percentile) Print() {
	for _, n := range []float64{50, 90, 99} {
		fmt.Printf("%.0fth = %v\n", n, time.Duration(p.Percentile(n)))
	}
	fmt.Printf("max = %v\n", time.Duration(p.Max()))
}
