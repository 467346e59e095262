// Package magnitude converts interleaved 8-bit I/Q sample pairs into
// envelope magnitude scalars via a precomputed lookup table.
package magnitude

import "math"

const tableSize = 0x10000

// center is the DC offset subtracted from each raw I/Q byte before scaling.
// The SDR's ADC is unsigned 8-bit with its zero point at roughly 127.4,
// not the 127.5 midpoint, matching the hardware this table was derived for.
const center = 127.4

// scale normalizes the Euclidean I/Q distance into a 0..~1 envelope range.
const scale = 1.0 / 128.0

// Table is a precomputed 65536-entry magnitude lookup, indexed by
// (Q<<8)|I, the same byte order raw SDR buffers deliver.
type Table struct {
	values [tableSize]float32
}

// NewTable builds the lookup table once; the result is immutable and safe
// for concurrent reads from multiple goroutines.
func NewTable() *Table {
	t := &Table{}
	for i := 0; i < tableSize; i++ {
		sampleI := float64(i & 0xFF)
		sampleQ := float64(i >> 8)
		di := (sampleI - center) * scale
		dq := (sampleQ - center) * scale
		t.values[i] = float32(math.Sqrt(di*di + dq*dq))
	}
	return t
}

// Lookup returns the magnitude for a raw (I,Q) byte pair.
func (t *Table) Lookup(i, q byte) float32 {
	return t.values[uint16(q)<<8|uint16(i)]
}

// Process runs every I/Q pair in buf (interleaved I,Q,I,Q,...) through the
// table and calls emit for each resulting magnitude, in order. Any trailing
// unpaired byte is ignored, matching the "len/2 samples per call" contract.
func (t *Table) Process(buf []byte, emit func(mag float32)) {
	n := len(buf) / 2
	for i := 0; i < n; i++ {
		emit(t.Lookup(buf[i*2], buf[i*2+1]))
	}
}
