package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func linkedLayout() *Layout {
	hs := holders(4, 3, 2, 1)
	hs[0].Connections = []string{"B"}
	hs[2].Connections = []string{"A"}
	hs[3].Connections = []string{"C"}
	return &Layout{Nodes: BuildNodes(hs), Links: BuildLinks(hs), Viewport: DefaultViewport}
}

func TestInteraction_Focus(t *testing.T) {
	s := NewInteraction()
	assert.Empty(t, s.Focus())

	s.Hover("A")
	assert.Equal(t, "A", s.Focus())

	s.Select("B")
	assert.Equal(t, "B", s.Focus())

	s.Leave("A")
	assert.Empty(t, s.Hovered)
	assert.Equal(t, "B", s.Focus())

	s.Hover("B")
	s.Leave("B")
	assert.Equal(t, "B", s.Hovered)

	s.ClickBackground()
	assert.Empty(t, s.Focus())
	assert.Empty(t, s.Hovered)
}

func TestInteraction_ZoomClamp(t *testing.T) {
	s := NewInteraction()
	s.SetScale(10)
	assert.Equal(t, MaxScale, s.Transform.K)
	s.SetScale(0.01)
	assert.Equal(t, MinScale, s.Transform.K)
	s.SetScale(math.NaN())
	assert.Equal(t, 1.0, s.Transform.K)

	for i := 0; i < 20; i++ {
		s.ZoomAt(1.5, 0, 0)
	}
	assert.Equal(t, MaxScale, s.Transform.K)
}

func TestInteraction_ZoomAtKeepsPoint(t *testing.T) {
	s := NewInteraction()
	s.Pan(10, 20)
	s.ZoomAt(2, 100, 100)

	// graph point under (100,100) before zoom: ((100-10)/1, (100-20)/1)
	gx, gy := 90.0, 80.0
	assert.InDelta(t, 100, s.Transform.X+gx*s.Transform.K, 1e-9)
	assert.InDelta(t, 100, s.Transform.Y+gy*s.Transform.K, 1e-9)
}

func TestInteraction_PanUnconstrained(t *testing.T) {
	s := NewInteraction()
	s.Pan(-1e6, 1e6)
	assert.Equal(t, Transform{X: -1e6, Y: 1e6, K: 1}, s.Transform)
}

func TestHighlight_NoFocus(t *testing.T) {
	layout := linkedLayout()
	h := NewInteraction().Highlight(layout)

	assert.Empty(t, h.Focus)
	for _, n := range layout.Nodes {
		assert.Equal(t, NodeOpacityActive, h.Nodes[n.ID])
	}
	for _, l := range h.Links {
		assert.Equal(t, LinkStyle{Opacity: LinkOpacityIdle, Width: LinkWidthIdle}, l)
	}
}

func TestHighlight_Focused(t *testing.T) {
	layout := linkedLayout()
	s := NewInteraction()
	s.Select("A")
	h := s.Highlight(layout)

	assert.Equal(t, "A", h.Focus)
	assert.Equal(t, NodeOpacityActive, h.Nodes["A"])
	assert.Equal(t, NodeOpacityActive, h.Nodes["B"])
	assert.Equal(t, NodeOpacityActive, h.Nodes["C"]) // incoming link C->A
	assert.Equal(t, NodeOpacityDimmed, h.Nodes["D"])

	// links: A->B, C->A, D->C
	assert.Equal(t, LinkStyle{Opacity: LinkOpacityIncident, Width: LinkWidthIncident}, h.Links[0])
	assert.Equal(t, LinkStyle{Opacity: LinkOpacityIncident, Width: LinkWidthIncident}, h.Links[1])
	assert.Equal(t, LinkStyle{Opacity: LinkOpacityDimmed, Width: LinkWidthIdle}, h.Links[2])
}

func TestHighlight_HoverWhileSelected(t *testing.T) {
	layout := linkedLayout()
	s := NewInteraction()
	s.Select("D")
	s.Hover("A")
	h := s.Highlight(layout)

	assert.Equal(t, "D", h.Focus)
	assert.Equal(t, NodeOpacityDimmed, h.Nodes["A"])
}

func TestHighlight_StaleFocus(t *testing.T) {
	layout := linkedLayout()
	s := NewInteraction()
	s.Select("gone")
	h := s.Highlight(layout)

	assert.Empty(t, h.Focus)
	assert.Equal(t, NodeOpacityActive, h.Nodes["D"])
}
