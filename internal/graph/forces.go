package graph

import "math"

// LinkForce pulls linked nodes toward a target distance.
type LinkForce struct {
	links    []Link
	distance float64
	strength float64
	nodes    []*Node
	bias     []float64
	random   func() float64
}

// NewLinkForce creates a link force.
func NewLinkForce(links []Link, distance, strength float64) *LinkForce {
	return &LinkForce{links: links, distance: distance, strength: strength}
}

func (f *LinkForce) Initialize(nodes []*Node, random func() float64) {
	f.nodes = nodes
	f.random = random
	count := make([]int, len(nodes))
	for _, l := range f.links {
		count[l.Source]++
		count[l.Target]++
	}
	f.bias = make([]float64, len(f.links))
	for i, l := range f.links {
		f.bias[i] = float64(count[l.Source]) / float64(count[l.Source]+count[l.Target])
	}
}

func (f *LinkForce) Apply(alpha float64) {
	for i, l := range f.links {
		source, target := f.nodes[l.Source], f.nodes[l.Target]
		x := target.X + target.VX - source.X - source.VX
		if x == 0 {
			x = jiggle(f.random)
		}
		y := target.Y + target.VY - source.Y - source.VY
		if y == 0 {
			y = jiggle(f.random)
		}
		d := math.Sqrt(x*x + y*y)
		d = (d - f.distance) / d * alpha * f.strength
		x *= d
		y *= d

		b := f.bias[i]
		target.VX -= x * b
		target.VY -= y * b
		b = 1 - b
		source.VX += x * b
		source.VY += y * b
	}
}

// ManyBodyForce applies a pairwise charge between all nodes.
// Negative strength repels.
type ManyBodyForce struct {
	strength     float64
	distanceMin2 float64
	nodes        []*Node
	random       func() float64
}

// NewManyBodyForce creates a many-body force.
func NewManyBodyForce(strength float64) *ManyBodyForce {
	return &ManyBodyForce{strength: strength, distanceMin2: 1}
}

func (f *ManyBodyForce) Initialize(nodes []*Node, random func() float64) {
	f.nodes = nodes
	f.random = random
}

func (f *ManyBodyForce) Apply(alpha float64) {
	for _, node := range f.nodes {
		for _, other := range f.nodes {
			if other == node {
				continue
			}
			x := other.X - node.X
			y := other.Y - node.Y
			l := x*x + y*y
			if x == 0 {
				x = jiggle(f.random)
				l += x * x
			}
			if y == 0 {
				y = jiggle(f.random)
				l += y * y
			}
			if l < f.distanceMin2 {
				l = math.Sqrt(f.distanceMin2 * l)
			}
			node.VX += x * f.strength * alpha / l
			node.VY += y * f.strength * alpha / l
		}
	}
}

// CenterForce translates all nodes so their mean sits on a point.
type CenterForce struct {
	x, y  float64
	nodes []*Node
}

// NewCenterForce creates a centering force.
func NewCenterForce(x, y float64) *CenterForce {
	return &CenterForce{x: x, y: y}
}

func (f *CenterForce) Initialize(nodes []*Node, _ func() float64) {
	f.nodes = nodes
}

func (f *CenterForce) Apply(_ float64) {
	n := len(f.nodes)
	if n == 0 {
		return
	}
	var sx, sy float64
	for _, node := range f.nodes {
		sx += node.X
		sy += node.Y
	}
	sx = sx/float64(n) - f.x
	sy = sy/float64(n) - f.y
	for _, node := range f.nodes {
		node.X -= sx
		node.Y -= sy
	}
}

// CollideForce keeps nodes from overlapping. Each node occupies its radius
// plus padding.
type CollideForce struct {
	padding float64
	nodes   []*Node
	radii   []float64
	random  func() float64
}

// NewCollideForce creates a collision force.
func NewCollideForce(padding float64) *CollideForce {
	return &CollideForce{padding: padding}
}

func (f *CollideForce) Initialize(nodes []*Node, random func() float64) {
	f.nodes = nodes
	f.random = random
	f.radii = make([]float64, len(nodes))
	for i, n := range nodes {
		f.radii[i] = n.Radius + f.padding
	}
}

func (f *CollideForce) Apply(_ float64) {
	for i, node := range f.nodes {
		ri := f.radii[i]
		ri2 := ri * ri
		xi := node.X + node.VX
		yi := node.Y + node.VY
		for j := i + 1; j < len(f.nodes); j++ {
			other := f.nodes[j]
			rj := f.radii[j]
			r := ri + rj
			x := xi - other.X - other.VX
			y := yi - other.Y - other.VY
			l := x*x + y*y
			if l >= r*r {
				continue
			}
			if x == 0 {
				x = jiggle(f.random)
				l += x * x
			}
			if y == 0 {
				y = jiggle(f.random)
				l += y * y
			}
			l = math.Sqrt(l)
			l = (r - l) / l
			x *= l
			y *= l
			rj2 := rj * rj
			w := rj2 / (ri2 + rj2)
			node.VX += x * w
			node.VY += y * w
			other.VX -= x * (1 - w)
			other.VY -= y * (1 - w)
		}
	}
}

// PositionForce nudges nodes toward a coordinate on one axis.
type PositionForce struct {
	target   float64
	strength float64
	vertical bool
	nodes    []*Node
}

// NewXForce pulls nodes toward x.
func NewXForce(x, strength float64) *PositionForce {
	return &PositionForce{target: x, strength: strength}
}

// NewYForce pulls nodes toward y.
func NewYForce(y, strength float64) *PositionForce {
	return &PositionForce{target: y, strength: strength, vertical: true}
}

func (f *PositionForce) Initialize(nodes []*Node, _ func() float64) {
	f.nodes = nodes
}

func (f *PositionForce) Apply(alpha float64) {
	for _, n := range f.nodes {
		if f.vertical {
			n.VY += (f.target - n.Y) * f.strength * alpha
		} else {
			n.VX += (f.target - n.X) * f.strength * alpha
		}
	}
}

var (
	_ Force = (*LinkForce)(nil)
	_ Force = (*ManyBodyForce)(nil)
	_ Force = (*CenterForce)(nil)
	_ Force = (*CollideForce)(nil)
	_ Force = (*PositionForce)(nil)
)
