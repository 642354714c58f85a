package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fixedRandom() float64 { return 0.75 }

func TestPositionForce(t *testing.T) {
	n := &Node{X: 0, Y: 200}
	fx := NewXForce(100, 0.05)
	fy := NewYForce(100, 0.05)
	fx.Initialize([]*Node{n}, fixedRandom)
	fy.Initialize([]*Node{n}, fixedRandom)

	fx.Apply(1)
	fy.Apply(0.5)

	assert.InDelta(t, 5.0, n.VX, 1e-9)
	assert.InDelta(t, -2.5, n.VY, 1e-9)
}

func TestCenterForce(t *testing.T) {
	a, b := &Node{X: 0, Y: 0}, &Node{X: 10, Y: 0}
	f := NewCenterForce(100, 100)
	f.Initialize([]*Node{a, b}, fixedRandom)
	f.Apply(1)

	assert.InDelta(t, 95.0, a.X, 1e-9)
	assert.InDelta(t, 105.0, b.X, 1e-9)
	assert.InDelta(t, 100.0, a.Y, 1e-9)
}

func TestLinkForce(t *testing.T) {
	a, b := &Node{X: 0, Y: 0}, &Node{X: 300, Y: 0}
	f := NewLinkForce([]Link{{Source: 0, Target: 1}}, 150, 0.3)
	f.Initialize([]*Node{a, b}, fixedRandom)
	f.Apply(1)

	assert.InDelta(t, 22.5, a.VX, 1e-6)
	assert.InDelta(t, -22.5, b.VX, 1e-6)
}

func TestLinkForce_DegreeBias(t *testing.T) {
	hub, x, y := &Node{}, &Node{X: 300}, &Node{Y: 300}
	f := NewLinkForce([]Link{{Source: 0, Target: 1}, {Source: 0, Target: 2}}, 150, 0.3)
	f.Initialize([]*Node{hub, x, y}, fixedRandom)

	// hub has degree 2, leaves degree 1: leaves absorb two thirds
	assert.InDelta(t, 2.0/3.0, f.bias[0], 1e-9)
	assert.InDelta(t, 2.0/3.0, f.bias[1], 1e-9)
}

func TestManyBodyForce(t *testing.T) {
	a, b := &Node{X: 0, Y: 0}, &Node{X: 10, Y: 0}
	f := NewManyBodyForce(-400)
	f.Initialize([]*Node{a, b}, fixedRandom)
	f.Apply(1)

	assert.InDelta(t, -40.0, a.VX, 1e-3)
	assert.InDelta(t, 40.0, b.VX, 1e-3)
}

func TestCollideForce(t *testing.T) {
	a, b := &Node{X: 0, Radius: 10}, &Node{X: 10, Radius: 10}
	f := NewCollideForce(0)
	f.Initialize([]*Node{a, b}, fixedRandom)
	f.Apply(1)

	assert.InDelta(t, -5.0, a.VX, 1e-3)
	assert.InDelta(t, 5.0, b.VX, 1e-3)
}

func TestCollideForce_NoOverlap(t *testing.T) {
	a, b := &Node{X: 0, Radius: 10}, &Node{X: 100, Radius: 10}
	f := NewCollideForce(10)
	f.Initialize([]*Node{a, b}, fixedRandom)
	f.Apply(1)

	assert.Zero(t, a.VX)
	assert.Zero(t, b.VX)
}

func TestJiggle(t *testing.T) {
	v := jiggle(fixedRandom)
	assert.InDelta(t, 0.25e-6, v, 1e-12)
	assert.Less(t, math.Abs(jiggle(func() float64 { return 0 })), 1e-6)
}
