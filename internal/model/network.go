// internal/model/network.go
package model

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xkilldash9x/scaletuner/api/schemas"
)

const (
	// InputSize matches the fixed feature vector width.
	InputSize = schemas.FeatureVectorSize

	// OutputSize is the width of the prediction head.
	OutputSize = 16

	// TokenOutputSlots is how many leading head slots carry token value
	// suggestions. The remaining slots are named aspect scores.
	TokenOutputSlots = 8
)

// outputAspects names the non-token half of the prediction head, in slot
// order starting at TokenOutputSlots.
var outputAspects = [...]string{
	"renderTime",
	"bundleSize",
	"memory",
	"layoutShift",
	"engagement",
	"accessibility",
	"satisfaction",
	"devExperience",
}

// OutputNames returns the stable name of every head slot: positional token
// slots first, then the aspect scores.
func OutputNames() []string {
	names := make([]string, 0, OutputSize)
	for i := 0; i < TokenOutputSlots; i++ {
		names = append(names, "token."+strconv.Itoa(i))
	}
	names = append(names, outputAspects[:]...)
	return names
}

// AspectSlot returns the head index of a named aspect score, or -1 when the
// aspect is unknown.
func AspectSlot(name string) int {
	for i, a := range outputAspects {
		if a == name {
			return TokenOutputSlots + i
		}
	}
	return -1
}

// TokenSlots maps token names onto the positional head slots: sorted
// ascending, truncated to the slot count. Training targets and prediction
// decoding both use this order so a token always meets the same slot.
func TokenSlots(names []string) []string {
	ordered := make([]string, len(names))
	copy(ordered, names)
	sort.Strings(ordered)
	if len(ordered) > TokenOutputSlots {
		ordered = ordered[:TokenOutputSlots]
	}
	return ordered
}

// Layer is one dense layer stored in flat slices. Weights are row-major by
// output unit: the weight from input j to unit i sits at i*In+j.
type Layer struct {
	In      int       `json:"in"`
	Out     int       `json:"out"`
	Weights []float64 `json:"weights"`
	Biases  []float64 `json:"biases"`
}

// Network is a small feed-forward regression network over the fixed feature
// vector. Hidden layers use ReLU; the head is linear for token slots and
// sigmoid for aspect slots, so aspect scores land in (0,1) while token
// values stay unbounded for post-processing to constrain.
//
// Weights are mutated only by TrainStep. Concurrent readers (Forward,
// ForwardMasked) are safe as long as no TrainStep runs; serializing training
// is the caller's responsibility.
type Network struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Sizes holds every layer width, input first.
	Sizes  []int   `json:"sizes"`
	Layers []Layer `json:"layers"`

	// Steps counts training examples applied over the network's lifetime,
	// across process restarts.
	Steps int64 `json:"steps"`

	scratch sync.Pool
}

// NewNetwork builds a network with the given hidden layer widths. A zero
// seed draws one from the clock; any other value makes initialization
// reproducible.
func NewNetwork(hidden []int, seed int64) (*Network, error) {
	if len(hidden) == 0 {
		return nil, fmt.Errorf("network needs at least one hidden layer")
	}
	for i, w := range hidden {
		if w <= 0 {
			return nil, fmt.Errorf("hidden layer %d must have positive width, got %d", i, w)
		}
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	sizes := make([]int, 0, len(hidden)+2)
	sizes = append(sizes, InputSize)
	sizes = append(sizes, hidden...)
	sizes = append(sizes, OutputSize)

	n := &Network{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
		Sizes:     sizes,
	}
	for l := 1; l < len(sizes); l++ {
		in, out := sizes[l-1], sizes[l]
		layer := Layer{
			In:      in,
			Out:     out,
			Weights: make([]float64, in*out),
			Biases:  make([]float64, out),
		}
		// He initialization keeps ReLU activations from collapsing or
		// exploding at this depth.
		scale := math.Sqrt(2.0 / float64(in))
		for i := range layer.Weights {
			layer.Weights[i] = rng.NormFloat64() * scale
		}
		n.Layers = append(n.Layers, layer)
	}
	n.initScratchPool()
	return n, nil
}

func (n *Network) initScratchPool() {
	n.scratch.New = func() interface{} {
		return newScratch(n.Sizes)
	}
}

// AcquireScratch hands out a pooled buffer set sized for this network along
// with its release function. Callers must release on every path, typically
// via defer, so repeated inference stays allocation-free.
func (n *Network) AcquireScratch() (*Scratch, func()) {
	s := n.scratch.Get().(*Scratch)
	return s, func() {
		s.zero()
		n.scratch.Put(s)
	}
}

// Forward runs one deterministic inference pass. The returned slice is a
// fresh copy owned by the caller.
func (n *Network) Forward(input []float64, s *Scratch) ([]float64, error) {
	return n.forward(input, s, 0, nil)
}

// ForwardMasked runs one stochastic pass: after every hidden activation,
// units are dropped with probability dropRate and survivors are scaled by
// 1/(1-dropRate). The rng is owned and serialized by the caller.
func (n *Network) ForwardMasked(input []float64, s *Scratch, dropRate float64, rng *rand.Rand) ([]float64, error) {
	if dropRate < 0 || dropRate >= 1 {
		return nil, fmt.Errorf("drop rate must be in [0, 1), got %g", dropRate)
	}
	return n.forward(input, s, dropRate, rng)
}

func (n *Network) forward(input []float64, s *Scratch, dropRate float64, rng *rand.Rand) ([]float64, error) {
	if len(input) != InputSize {
		return nil, fmt.Errorf("%w: expected %d inputs, got %d", ErrDimension, InputSize, len(input))
	}
	if s == nil {
		return nil, fmt.Errorf("scratch buffers are required")
	}

	copy(s.acts[0], input)
	last := len(n.Layers) - 1
	for l, layer := range n.Layers {
		prev := s.acts[l]
		pre := s.pre[l]
		act := s.acts[l+1]

		for i := 0; i < layer.Out; i++ {
			sum := layer.Biases[i]
			row := layer.Weights[i*layer.In : (i+1)*layer.In]
			for j, w := range row {
				sum += w * prev[j]
			}
			pre[i] = sum
			if l < last {
				act[i] = relu(sum)
			} else {
				act[i] = headActivation(i, sum)
			}
		}

		if l < last && dropRate > 0 {
			keep := 1 / (1 - dropRate)
			for i := range act {
				if rng.Float64() < dropRate {
					act[i] = 0
				} else {
					act[i] *= keep
				}
			}
		}
	}

	out := make([]float64, OutputSize)
	copy(out, s.acts[len(s.acts)-1])
	return out, nil
}

// TrainStep applies one SGD update for a single example and returns its mean
// squared error before the update. Only this method mutates weights.
func (n *Network) TrainStep(input, target []float64, lr float64, s *Scratch) (float64, error) {
	if len(target) != OutputSize {
		return 0, fmt.Errorf("%w: expected %d targets, got %d", ErrDimension, OutputSize, len(target))
	}
	if lr <= 0 {
		return 0, fmt.Errorf("learning rate must be positive, got %g", lr)
	}
	if _, err := n.forward(input, s, 0, nil); err != nil {
		return 0, err
	}

	last := len(n.Layers) - 1
	out := s.acts[len(s.acts)-1]

	// Output deltas: d = (a - y), through the sigmoid derivative on aspect
	// slots. MSE is reported against the pre-update activations.
	var mse float64
	delta := s.deltas[last]
	for i := 0; i < OutputSize; i++ {
		diff := out[i] - target[i]
		mse += diff * diff
		if i < TokenOutputSlots {
			delta[i] = diff
		} else {
			delta[i] = diff * out[i] * (1 - out[i])
		}
	}
	mse /= OutputSize

	// Backpropagate through the hidden layers.
	for l := last - 1; l >= 0; l-- {
		next := n.Layers[l+1]
		cur := s.deltas[l]
		nextDelta := s.deltas[l+1]
		for j := 0; j < next.In; j++ {
			var sum float64
			for i := 0; i < next.Out; i++ {
				sum += next.Weights[i*next.In+j] * nextDelta[i]
			}
			if s.pre[l][j] > 0 {
				cur[j] = sum
			} else {
				cur[j] = 0
			}
		}
	}

	// Descend.
	for l := range n.Layers {
		layer := &n.Layers[l]
		prev := s.acts[l]
		d := s.deltas[l]
		for i := 0; i < layer.Out; i++ {
			layer.Biases[i] -= lr * d[i]
			row := layer.Weights[i*layer.In : (i+1)*layer.In]
			for j := range row {
				row[j] -= lr * d[i] * prev[j]
			}
		}
	}

	n.Steps++
	n.UpdatedAt = time.Now().UTC()
	return mse, nil
}

// Params returns the total trainable parameter count.
func (n *Network) Params() int {
	var total int
	for _, l := range n.Layers {
		total += len(l.Weights) + len(l.Biases)
	}
	return total
}

// Architecture renders the layer widths as a dash-joined summary, input
// first (e.g. "128-64-32-16").
func (n *Network) Architecture() string {
	parts := make([]string, len(n.Sizes))
	for i, s := range n.Sizes {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, "-")
}

// Info snapshots the network shape for read-only callers.
func (n *Network) Info() schemas.ModelInfo {
	layers := make([]int, len(n.Sizes))
	copy(layers, n.Sizes)
	return schemas.ModelInfo{
		Architecture:  n.Architecture(),
		Parameters:    n.Params(),
		Layers:        layers,
		IsInitialized: true,
	}
}

// PlannedInfo describes the shape a network built from the given hidden
// widths would have. Callers reporting on a model that has not been
// constructed yet use it to answer info requests without one.
func PlannedInfo(hidden []int) schemas.ModelInfo {
	sizes := make([]int, 0, len(hidden)+2)
	sizes = append(sizes, InputSize)
	sizes = append(sizes, hidden...)
	sizes = append(sizes, OutputSize)

	parts := make([]string, len(sizes))
	var params int
	for i, s := range sizes {
		parts[i] = strconv.Itoa(s)
		if i > 0 {
			params += sizes[i-1]*s + s
		}
	}
	return schemas.ModelInfo{
		Architecture:  strings.Join(parts, "-"),
		Parameters:    params,
		Layers:        sizes,
		IsInitialized: false,
	}
}

func relu(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

// headActivation applies the per-slot output activation: identity for token
// slots, sigmoid for aspect scores.
func headActivation(slot int, x float64) float64 {
	if slot < TokenOutputSlots {
		return x
	}
	return 1 / (1 + math.Exp(-x))
}
