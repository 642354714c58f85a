package graph

import (
	"context"
	"time"

	"holdermap/internal/domain"
	"holdermap/internal/observability"
)

// Force parameters of the holder graph.
const (
	LinkDistance     = 150.0
	LinkStrength     = 0.3
	ChargeStrength   = -400.0
	CollidePadding   = 10.0
	PositionStrength = 0.05

	layoutSeed = 1
)

// Layout is a positioned holder graph.
type Layout struct {
	Viewport Viewport `json:"viewport"`
	Nodes    []*Node  `json:"nodes"`
	Links    []Link   `json:"links"`
	Ticks    int      `json:"ticks"`
}

// NodeByID returns the node with id, or nil.
func (l *Layout) NodeByID(id string) *Node {
	for _, n := range l.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// NewHolderSimulation wires the holder graph forces for a viewport.
func NewHolderSimulation(nodes []*Node, links []Link, vp Viewport) *Simulation {
	cx, cy := vp.Center()
	return NewSimulation(nodes, layoutSeed).
		AddForce(NewLinkForce(links, LinkDistance, LinkStrength)).
		AddForce(NewManyBodyForce(ChargeStrength)).
		AddForce(NewCenterForce(cx, cy)).
		AddForce(NewCollideForce(CollidePadding)).
		AddForce(NewXForce(cx, PositionStrength)).
		AddForce(NewYForce(cy, PositionStrength))
}

// Compute builds nodes and links from holders and runs the simulation to
// completion. Every call starts from scratch.
func Compute(ctx context.Context, holders []domain.Holder, vp Viewport) (*Layout, error) {
	if vp.IsZero() {
		vp = DefaultViewport
	}
	start := time.Now()

	nodes := BuildNodes(holders)
	links := BuildLinks(holders)
	sim := NewHolderSimulation(nodes, links, vp)
	if err := sim.Run(ctx); err != nil {
		return nil, err
	}

	observability.RecordLayout(len(nodes), time.Since(start).Seconds())
	return &Layout{
		Viewport: vp,
		Nodes:    nodes,
		Links:    links,
		Ticks:    sim.Ticks(),
	}, nil
}
