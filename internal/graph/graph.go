// Package graph lays out token holders as a force-directed graph and renders it.
package graph

import (
	"holdermap/internal/domain"
)

// Node radius bounds in pixels.
const (
	MinRadius = 10.0
	MaxRadius = 45.0
)

// Node is a holder placed in the simulation.
type Node struct {
	ID          string            `json:"id"`
	Index       int               `json:"index"`
	Balance     float64           `json:"balance"`
	Connections []string          `json:"connections"`
	Kind        domain.HolderKind `json:"kind"`
	Radius      float64           `json:"radius"`
	X           float64           `json:"x"`
	Y           float64           `json:"y"`
	VX          float64           `json:"vx"`
	VY          float64           `json:"vy"`
}

// Link connects two nodes by index.
type Link struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

// Viewport is the drawing area.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultViewport is used when the caller does not know its size.
var DefaultViewport = Viewport{Width: 960, Height: 640}

// Center returns the viewport midpoint.
func (v Viewport) Center() (float64, float64) {
	return v.Width / 2, v.Height / 2
}

// IsZero reports whether either dimension is unset.
func (v Viewport) IsZero() bool {
	return v.Width <= 0 || v.Height <= 0
}

// BuildNodes creates one node per holder. Radius grows linearly with
// balance/maxBalance from MinRadius to MaxRadius; when no balance is
// positive every node gets MinRadius.
func BuildNodes(holders []domain.Holder) []*Node {
	maxBalance := 0.0
	for _, h := range holders {
		if h.Balance > maxBalance {
			maxBalance = h.Balance
		}
	}

	nodes := make([]*Node, len(holders))
	for i, h := range holders {
		radius := MinRadius
		if maxBalance > 0 && h.Balance > 0 {
			radius = MinRadius + (h.Balance/maxBalance)*(MaxRadius-MinRadius)
		}
		nodes[i] = &Node{
			ID:          h.Address,
			Index:       i,
			Balance:     h.Balance,
			Connections: append([]string(nil), h.Connections...),
			Kind:        h.Kind,
			Radius:      radius,
		}
	}
	return nodes
}

// BuildLinks creates one link per (holder, connection) pair whose target is
// also a holder. Self references are dropped.
func BuildLinks(holders []domain.Holder) []Link {
	index := make(map[string]int, len(holders))
	for i, h := range holders {
		if _, ok := index[h.Address]; !ok {
			index[h.Address] = i
		}
	}

	var links []Link
	for i, h := range holders {
		for _, conn := range h.Connections {
			j, ok := index[conn]
			if !ok || j == i {
				continue
			}
			links = append(links, Link{Source: i, Target: j})
		}
	}
	return links
}
