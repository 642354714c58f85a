package graph

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"
)

// Simulation defaults, matching d3-force.
const (
	DefaultAlphaMin      = 0.001
	DefaultVelocityDecay = 0.4
	DefaultTicks         = 300

	initialRadius = 10.0
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// Force is applied once per tick with the current alpha.
type Force interface {
	Initialize(nodes []*Node, random func() float64)
	Apply(alpha float64)
}

// Simulation is a velocity Verlet force simulation with d3-force semantics.
type Simulation struct {
	nodes         []*Node
	forces        []Force
	alpha         float64
	alphaMin      float64
	alphaDecay    float64
	alphaTarget   float64
	velocityDecay float64
	random        *rand.Rand
	ticks         int
	stopped       atomic.Bool
}

// NewSimulation creates a simulation over nodes. Nodes at the origin are
// placed on a phyllotaxis spiral. The seed makes jiggle deterministic.
func NewSimulation(nodes []*Node, seed int64) *Simulation {
	s := &Simulation{
		nodes:         nodes,
		alpha:         1,
		alphaMin:      DefaultAlphaMin,
		alphaDecay:    1 - math.Pow(DefaultAlphaMin, 1.0/DefaultTicks),
		velocityDecay: 1 - DefaultVelocityDecay,
		random:        rand.New(rand.NewSource(seed)),
	}
	for i, n := range nodes {
		n.Index = i
		if n.X == 0 && n.Y == 0 {
			r := initialRadius * math.Sqrt(0.5+float64(i))
			a := float64(i) * initialAngle
			n.X = r * math.Cos(a)
			n.Y = r * math.Sin(a)
		}
	}
	return s
}

// AddForce registers a force. Forces apply in registration order.
func (s *Simulation) AddForce(f Force) *Simulation {
	f.Initialize(s.nodes, s.random.Float64)
	s.forces = append(s.forces, f)
	return s
}

// Alpha returns the current alpha.
func (s *Simulation) Alpha() float64 {
	return s.alpha
}

// Ticks returns the number of ticks run so far.
func (s *Simulation) Ticks() int {
	return s.ticks
}

// Nodes returns the simulated nodes.
func (s *Simulation) Nodes() []*Node {
	return s.nodes
}

// Tick advances the simulation one step.
func (s *Simulation) Tick() {
	s.alpha += (s.alphaTarget - s.alpha) * s.alphaDecay
	for _, f := range s.forces {
		f.Apply(s.alpha)
	}
	for _, n := range s.nodes {
		n.VX *= s.velocityDecay
		n.X += n.VX
		n.VY *= s.velocityDecay
		n.Y += n.VY
	}
	s.ticks++
}

// Run ticks until alpha falls below alphaMin, Stop is called, or ctx is done.
func (s *Simulation) Run(ctx context.Context) error {
	for s.alpha >= s.alphaMin {
		if s.stopped.Load() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		s.Tick()
	}
	return nil
}

// Stop ends a running simulation after the current tick.
func (s *Simulation) Stop() {
	s.stopped.Store(true)
}

func jiggle(random func() float64) float64 {
	return (random() - 0.5) * 1e-6
}
