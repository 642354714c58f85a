package dashboard

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"holdermap/internal/graph"
	"holdermap/internal/tokenstore"
)

type indexPage struct {
	State tokenstore.State
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", indexPage{State: s.store.State()})
}

type tokenPage struct {
	Mint     string
	State    tokenstore.State
	View     *TokenView
	Graph    template.HTML
	Selected *SelectedWallet
	Hovered  *SelectedWallet
}

// handleToken renders the dashboard for ?mint=, fetching it first unless it
// is already the published token. Loading and error states render inline.
func (s *Server) handleToken(c *gin.Context) {
	mint := strings.TrimSpace(c.Query("mint"))
	if mint == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}

	st := s.store.State()
	if st.TokenData == nil || st.TokenData.Address != mint {
		err := s.store.FetchTokenData(context.WithoutCancel(c.Request.Context()), mint)
		if err != nil && !errors.Is(err, tokenstore.ErrSuperseded) {
			_ = c.Error(err)
		}
		st = s.store.State()
	}

	page := tokenPage{Mint: mint, State: st}
	if st.TokenData != nil && st.TokenData.Address == mint {
		page.View = NewTokenView(st.TokenData)
		it := interactionFromQuery(c)
		page.Selected = selectedWallet(st.TokenData, it.Selected)
		if page.Selected == nil {
			page.Hovered = selectedWallet(st.TokenData, it.Hovered)
		}

		layout, err := s.layouts.get(c.Request.Context(), st.TokenData, viewportFromQuery(c))
		if err == nil {
			var buf bytes.Buffer
			if err := graph.RenderSVG(&buf, layout, it); err == nil {
				// RenderSVG escapes every attribute value it writes.
				page.Graph = template.HTML(buf.String())
			} else {
				_ = c.Error(err)
			}
		} else {
			_ = c.Error(err)
		}
	}
	c.HTML(http.StatusOK, "token.html", page)
}
