package graph

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
)

// Palette is an inner/outer radial gradient color pair.
type Palette struct {
	Inner string
	Outer string
}

// NodePalettes cycle by node index.
var NodePalettes = []Palette{
	{Inner: "#00ffff", Outer: "#0891b2"},
	{Inner: "#ff00ff", Outer: "#c026d3"},
	{Inner: "#9d4edd", Outer: "#6d28d9"},
	{Inner: "#a3e635", Outer: "#65a30d"},
}

// ArcPath returns the SVG path of a link drawn as an arc whose radius is
// 1.5 times the chord length.
func ArcPath(sx, sy, tx, ty float64) string {
	dx, dy := tx-sx, ty-sy
	dr := math.Sqrt(dx*dx+dy*dy) * 1.5
	return fmt.Sprintf("M%s,%sA%s,%s 0 0,1 %s,%s", num(sx), num(sy), num(dr), num(dr), num(tx), num(ty))
}

func num(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// RenderSVG writes layout as a standalone SVG document with the highlight
// and zoom transform of s applied.
func RenderSVG(w io.Writer, layout *Layout, s *Interaction) error {
	if s == nil {
		s = NewInteraction()
	}
	hl := s.Highlight(layout)
	bw := bufio.NewWriter(w)
	canvas := svg.New(bw)

	width, height := int(math.Round(layout.Viewport.Width)), int(math.Round(layout.Viewport.Height))
	canvas.Startview(width, height, 0, 0, width, height)

	canvas.Def()
	canvas.LinearGradient("link-gradient", 0, 0, 100, 0, []svg.Offcolor{
		{Offset: 0, Color: "#00ffff", Opacity: 0},
		{Offset: 50, Color: "#00ffff", Opacity: 0.6},
		{Offset: 100, Color: "#9d4edd", Opacity: 0},
	})
	canvas.Filter("glow", `x="-50%"`, `y="-50%"`, `width="200%"`, `height="200%"`)
	canvas.FeGaussianBlur(svg.Filterspec{Result: "coloredBlur"}, 4, 4)
	canvas.FeMerge([]string{"coloredBlur", "SourceGraphic"})
	canvas.Fend()
	for i := range layout.Nodes {
		p := NodePalettes[i%len(NodePalettes)]
		canvas.RadialGradient(fmt.Sprintf("node-gradient-%d", i), 50, 50, 50, 50, 50, []svg.Offcolor{
			{Offset: 0, Color: p.Inner, Opacity: 1},
			{Offset: 100, Color: p.Outer, Opacity: 0.7},
		})
	}
	canvas.DefEnd()

	t := s.Transform
	canvas.Gtransform(fmt.Sprintf("translate(%s,%s) scale(%s)", num(t.X), num(t.Y), num(t.K)))

	canvas.Group(`class="links"`)
	for i, l := range layout.Links {
		src, dst := layout.Nodes[l.Source], layout.Nodes[l.Target]
		st := hl.Links[i]
		canvas.Path(ArcPath(src.X, src.Y, dst.X, dst.Y),
			`stroke="url(#link-gradient)"`,
			fmt.Sprintf(`stroke-width="%s" fill="none" opacity="%s"`, num(st.Width), num(st.Opacity)))
	}
	canvas.Gend()

	canvas.Group(`class="nodes"`)
	for i, n := range layout.Nodes {
		ringR, ringOpacity, mainR := n.Radius+8, 0.0, n.Radius
		if n.ID == s.Hovered {
			ringR, ringOpacity, mainR = n.Radius+15, 0.8, n.Radius*1.15
		}
		gradient := fmt.Sprintf("url(#node-gradient-%d)", i)

		canvas.Group(
			fmt.Sprintf(`data-id="%s" class="node %s"`, html.EscapeString(n.ID), n.Kind),
			fmt.Sprintf(`transform="translate(%s,%s)" opacity="%s" style="cursor:pointer"`, num(n.X), num(n.Y), num(hl.Nodes[n.ID])),
		)
		canvas.Title(n.ID)
		canvas.Circle(0, 0, radius(ringR), `class="glow-ring" fill="none"`,
			fmt.Sprintf(`stroke="%s" stroke-width="2" opacity="%s"`, gradient, num(ringOpacity)))
		canvas.Circle(0, 0, radius(mainR), `class="main-node"`, fmt.Sprintf(`fill="%s" filter="url(#glow)"`, gradient))
		canvas.Circle(0, 0, radius(n.Radius*0.5), `class="core" fill="white" opacity="0.3"`)
		canvas.Gend()
	}
	canvas.Gend()
	canvas.Gend()
	canvas.End()

	return bw.Flush()
}

// radius rounds r to whole pixels, keeping at least 1.
func radius(r float64) int {
	if v := int(math.Round(r)); v > 1 {
		return v
	}
	return 1
}
