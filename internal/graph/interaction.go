package graph

import "math"

// Zoom scale bounds.
const (
	MinScale = 0.4
	MaxScale = 2.5
)

// Highlight opacities and stroke widths.
const (
	NodeOpacityActive   = 1.0
	NodeOpacityDimmed   = 0.3
	LinkOpacityIdle     = 0.4
	LinkOpacityIncident = 0.9
	LinkOpacityDimmed   = 0.15
	LinkWidthIdle       = 2.0
	LinkWidthIncident   = 3.0
)

// Transform is the zoom/pan state applied to the graph group.
type Transform struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	K float64 `json:"k"`
}

// Interaction holds the hover, selection and zoom state of one view.
type Interaction struct {
	Hovered   string    `json:"hovered,omitempty"`
	Selected  string    `json:"selected,omitempty"`
	Transform Transform `json:"transform"`
}

// NewInteraction returns an idle interaction at scale 1.
func NewInteraction() *Interaction {
	return &Interaction{Transform: Transform{K: 1}}
}

// Hover marks id as hovered.
func (s *Interaction) Hover(id string) {
	s.Hovered = id
}

// Leave clears the hover unless id is the selected node.
func (s *Interaction) Leave(id string) {
	if s.Selected == "" || s.Selected != id {
		s.Hovered = ""
	}
}

// Select marks id as selected.
func (s *Interaction) Select(id string) {
	s.Selected = id
}

// ClickBackground clears selection and hover.
func (s *Interaction) ClickBackground() {
	s.Selected = ""
	s.Hovered = ""
}

// Focus returns the selected node if any, otherwise the hovered node.
func (s *Interaction) Focus() string {
	if s.Selected != "" {
		return s.Selected
	}
	return s.Hovered
}

// SetScale sets the zoom scale, clamped to [MinScale, MaxScale].
func (s *Interaction) SetScale(k float64) {
	s.Transform.K = ClampScale(k)
}

// ZoomAt multiplies the scale by factor keeping the point (px, py) fixed.
func (s *Interaction) ZoomAt(factor, px, py float64) {
	k0 := s.Transform.K
	if k0 == 0 {
		k0 = 1
	}
	k1 := ClampScale(k0 * factor)
	s.Transform.X = px - (px-s.Transform.X)*k1/k0
	s.Transform.Y = py - (py-s.Transform.Y)*k1/k0
	s.Transform.K = k1
}

// Pan translates the view. Panning is unconstrained.
func (s *Interaction) Pan(dx, dy float64) {
	s.Transform.X += dx
	s.Transform.Y += dy
}

// ClampScale bounds k to [MinScale, MaxScale]. NaN maps to 1.
func ClampScale(k float64) float64 {
	if math.IsNaN(k) {
		return 1
	}
	return math.Min(MaxScale, math.Max(MinScale, k))
}

// LinkStyle is the visual state of one link.
type LinkStyle struct {
	Opacity float64 `json:"opacity"`
	Width   float64 `json:"width"`
}

// Highlight is the visual state of a layout under an interaction.
type Highlight struct {
	Focus string             `json:"focus,omitempty"`
	Nodes map[string]float64 `json:"nodes"` // opacity by node id
	Links []LinkStyle        `json:"links"` // parallel to Layout.Links
}

// Highlight computes opacities for layout. With a focus, the focused node
// and its direct neighbours stay opaque and incident links are emphasised.
// A focus that is not in the layout is ignored.
func (s *Interaction) Highlight(layout *Layout) Highlight {
	h := Highlight{
		Nodes: make(map[string]float64, len(layout.Nodes)),
		Links: make([]LinkStyle, len(layout.Links)),
	}

	focus := layout.NodeByID(s.Focus())
	if focus == nil {
		for _, n := range layout.Nodes {
			h.Nodes[n.ID] = NodeOpacityActive
		}
		for i := range h.Links {
			h.Links[i] = LinkStyle{Opacity: LinkOpacityIdle, Width: LinkWidthIdle}
		}
		return h
	}
	h.Focus = focus.ID

	neighbours := map[int]bool{focus.Index: true}
	for i, l := range layout.Links {
		incident := l.Source == focus.Index || l.Target == focus.Index
		if incident {
			neighbours[l.Source] = true
			neighbours[l.Target] = true
			h.Links[i] = LinkStyle{Opacity: LinkOpacityIncident, Width: LinkWidthIncident}
		} else {
			h.Links[i] = LinkStyle{Opacity: LinkOpacityDimmed, Width: LinkWidthIdle}
		}
	}
	for _, n := range layout.Nodes {
		if neighbours[n.Index] {
			h.Nodes[n.ID] = NodeOpacityActive
		} else {
			h.Nodes[n.ID] = NodeOpacityDimmed
		}
	}
	return h
}
