// internal/model/scratch.go
package model

// Scratch holds the transient buffers one forward or training pass needs:
// activations, pre-activations, and backprop deltas for every layer. Pooling
// them through Network.AcquireScratch keeps peak memory bounded under
// repeated or batched calls; the release function zeroes the buffers so no
// inference data lingers between users.
type Scratch struct {
	acts   [][]float64 // Per layer activations; acts[0] is the input copy.
	pre    [][]float64 // Pre-activation sums per computed layer.
	deltas [][]float64 // Backprop deltas per computed layer.
}

func newScratch(sizes []int) *Scratch {
	s := &Scratch{
		acts:   make([][]float64, len(sizes)),
		pre:    make([][]float64, len(sizes)-1),
		deltas: make([][]float64, len(sizes)-1),
	}
	for i, width := range sizes {
		s.acts[i] = make([]float64, width)
		if i > 0 {
			s.pre[i-1] = make([]float64, width)
			s.deltas[i-1] = make([]float64, width)
		}
	}
	return s
}

func (s *Scratch) zero() {
	for _, buf := range s.acts {
		clearFloats(buf)
	}
	for _, buf := range s.pre {
		clearFloats(buf)
	}
	for _, buf := range s.deltas {
		clearFloats(buf)
	}
}

func clearFloats(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}
