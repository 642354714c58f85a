package graph

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArcPath(t *testing.T) {
	assert.Equal(t, "M0.00,0.00A75.00,75.00 0 0,1 30.00,40.00", ArcPath(0, 0, 30, 40))
}

func TestRenderSVG(t *testing.T) {
	hs := holders(5, 4, 3, 2, 1)
	hs[0].Connections = []string{"B"}
	layout := &Layout{Nodes: BuildNodes(hs), Links: BuildLinks(hs), Viewport: Viewport{Width: 400, Height: 300}}

	s := NewInteraction()
	s.Hover("A")
	s.SetScale(2)

	var buf bytes.Buffer
	require.NoError(t, RenderSVG(&buf, layout, s))
	out := buf.String()

	assert.Contains(t, out, `<svg`)
	assert.Contains(t, out, `viewBox="0 0 400 300"`)
	assert.Equal(t, 5, strings.Count(out, "<radialGradient"))
	assert.Contains(t, out, `id="node-gradient-4"`)
	assert.Contains(t, out, `stop-color="#9d4edd"`)
	assert.Contains(t, out, `<filter id="glow"`)
	assert.Contains(t, out, `scale(2.00)`)
	assert.Contains(t, out, `stroke-width="3.00" fill="none" opacity="0.90"`)
	assert.Contains(t, out, `data-id="C" class="node wallet"`)
	assert.Contains(t, out, `opacity="0.30" style="cursor:pointer"`)
	assert.Contains(t, out, `r="60"`)
	assert.Contains(t, out, `class="glow-ring" fill="none"`)
	assert.Contains(t, out, `<title>A</title>`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "</svg>"))
	assert.Equal(t, 1, strings.Count(out, "<path"))
}

func TestRenderSVG_NilInteraction(t *testing.T) {
	layout := &Layout{Nodes: BuildNodes(holders(1)), Viewport: DefaultViewport}
	var buf bytes.Buffer
	require.NoError(t, RenderSVG(&buf, layout, nil))
	assert.Contains(t, buf.String(), `scale(1.00)`)
	assert.Contains(t, buf.String(), `opacity="1.00" style="cursor:pointer"`)
}
