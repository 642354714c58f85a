package dashboard

import (
	"context"
	"fmt"
	"hash/fnv"
	"html/template"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"holdermap/internal/domain"
	"holdermap/internal/graph"
	"holdermap/internal/risk"
)

// TopHolderCount is the number of holders shown in the top-holder panel.
const TopHolderCount = 5

// Viewport bounds accepted from query parameters.
const (
	minViewport = 100
	maxViewport = 4000
)

// TokenView is the token panel: metadata, risk signals and top holders.
type TokenView struct {
	Token      *domain.TokenMetadata `json:"token"`
	Risk       risk.Signals          `json:"risk"`
	TopHolders []risk.TopHolder      `json:"topHolders"`
}

// NewTokenView derives the panel view from published token data.
func NewTokenView(m *domain.TokenMetadata) *TokenView {
	return &TokenView{
		Token:      m,
		Risk:       risk.Assess(m),
		TopHolders: risk.TopHolders(m, TopHolderCount),
	}
}

// SelectedWallet describes the holder picked in the graph.
type SelectedWallet struct {
	Address     string            `json:"address"`
	Balance     float64           `json:"balance"`
	Percent     float64           `json:"percent"`
	Connections int               `json:"connections"`
	Kind        domain.HolderKind `json:"kind"`
}

func selectedWallet(m *domain.TokenMetadata, id string) *SelectedWallet {
	if m == nil || id == "" {
		return nil
	}
	for _, h := range m.Holders {
		if h.Address != id {
			continue
		}
		var pct float64
		if m.TotalSupply > 0 {
			pct = h.Balance / m.TotalSupply * 100
		}
		return &SelectedWallet{
			Address:     h.Address,
			Balance:     h.Balance,
			Percent:     pct,
			Connections: len(h.Connections),
			Kind:        h.Kind,
		}
	}
	return nil
}

// viewportFromQuery reads width and height, falling back to the default viewport.
func viewportFromQuery(c *gin.Context) graph.Viewport {
	vp := graph.DefaultViewport
	if w, ok := floatParam(c, "width"); ok && w >= minViewport && w <= maxViewport {
		vp.Width = w
	}
	if h, ok := floatParam(c, "height"); ok && h >= minViewport && h <= maxViewport {
		vp.Height = h
	}
	return vp
}

// interactionFromQuery rebuilds a view interaction from hover, selected,
// scale, x and y parameters.
func interactionFromQuery(c *gin.Context) *graph.Interaction {
	it := graph.NewInteraction()
	it.Hover(c.Query("hover"))
	it.Select(c.Query("selected"))
	if k, ok := floatParam(c, "scale"); ok {
		it.SetScale(k)
	}
	x, _ := floatParam(c, "x")
	y, _ := floatParam(c, "y")
	it.Pan(x, y)
	return it
}

func floatParam(c *gin.Context, name string) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// layoutCache keeps the most recent layout. Layouts are deterministic for a
// given holder set and viewport, so a matching key can be reused.
type layoutCache struct {
	mu     sync.Mutex
	key    string
	layout *graph.Layout
}

// layoutKey fingerprints every holder field the layout reads, so any
// refreshed balance or connection forces a recompute.
func layoutKey(m *domain.TokenMetadata, vp graph.Viewport) string {
	h := fnv.New64a()
	for _, holder := range m.Holders {
		fmt.Fprintf(h, "%s|%g|%s|", holder.Address, holder.Balance, holder.Kind)
		for _, c := range holder.Connections {
			fmt.Fprintf(h, "%s,", c)
		}
		h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%s|%d|%x|%gx%g", m.Address, len(m.Holders), h.Sum64(), vp.Width, vp.Height)
}

// get returns the layout of m in vp, computing it on a miss.
// Returned layouts are shared and must not be modified.
func (c *layoutCache) get(ctx context.Context, m *domain.TokenMetadata, vp graph.Viewport) (*graph.Layout, error) {
	key := layoutKey(m, vp)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.layout != nil && c.key == key {
		return c.layout, nil
	}
	layout, err := graph.Compute(ctx, m.Holders, vp)
	if err != nil {
		return nil, err
	}
	c.key = key
	c.layout = layout
	return layout, nil
}

// templateFuncs are the helpers available to page templates.
var templateFuncs = template.FuncMap{
	"shorten":   shortenAddress,
	"millions":  millions,
	"percent":   func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
	"riskColor": func(l risk.Label) string { return risk.Color(l) },
	"riskBadge": func(l risk.Label) string { return risk.Badge(l) },
	"initial":   initial,
	"upper":     strings.ToUpper,
	"deref":     derefString,
	"explorer":  explorerURL,
}

// shortenAddress keeps the first six and last four characters.
func shortenAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// millions formats v in millions with the given precision.
func millions(v float64, precision int) string {
	return strconv.FormatFloat(v/1e6, 'f', precision, 64) + "M"
}

func initial(s string) string {
	for _, r := range s {
		return strings.ToUpper(string(r))
	}
	return "?"
}

func explorerURL(addr string) string {
	return "https://solscan.io/account/" + addr
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
