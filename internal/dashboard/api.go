package dashboard

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"holdermap/internal/domain"
	"holdermap/internal/graph"
	"holdermap/internal/storage"
	"holdermap/internal/tokenstore"
)

type addressRequest struct {
	Address string `json:"address" binding:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// fetchStatus maps a fetch error to an HTTP status.
func fetchStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, tokenstore.ErrInvalidAddress):
		return http.StatusBadRequest
	case errors.Is(err, tokenstore.ErrNoHolders):
		return http.StatusNotFound
	case errors.Is(err, tokenstore.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		// provider status, transport and decode failures
		return http.StatusBadGateway
	}
}

// handleFetch runs a fetch and responds with the resulting state.
// The fetch outlives the request so a disconnecting client does not
// publish a cancellation error; a newer fetch still supersedes it.
func (s *Server) handleFetch(c *gin.Context) {
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	err := s.store.FetchTokenData(context.WithoutCancel(c.Request.Context()), req.Address)
	if err != nil {
		_ = c.Error(err)
	}
	c.JSON(fetchStatus(err), s.store.State())
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.State())
}

func (s *Server) handleClearToken(c *gin.Context) {
	s.store.ClearTokenData()
	c.JSON(http.StatusOK, s.store.State())
}

func (s *Server) handleClearError(c *gin.Context) {
	s.store.ClearError()
	c.JSON(http.StatusOK, s.store.State())
}

func (s *Server) handleSetMint(c *gin.Context) {
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s.store.SetMintAddress(req.Address)
	c.JSON(http.StatusOK, s.store.State())
}

func (s *Server) handleTokenView(c *gin.Context) {
	st := s.store.State()
	if st.TokenData == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "no token data"})
		return
	}
	c.JSON(http.StatusOK, NewTokenView(st.TokenData))
}

type recentResponse struct {
	RecentSearches []string `json:"recentSearches"`
}

func (s *Server) recent(c *gin.Context) {
	c.JSON(http.StatusOK, recentResponse{RecentSearches: s.store.State().RecentSearches})
}

func (s *Server) handleRecent(c *gin.Context) {
	s.recent(c)
}

func (s *Server) handleAddRecent(c *gin.Context) {
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := tokenstore.ValidateAddress(req.Address); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s.store.AddToRecentSearches(req.Address)
	s.recent(c)
}

func (s *Server) handleRemoveRecent(c *gin.Context) {
	s.store.RemoveFromRecentSearches(c.Param("address"))
	s.recent(c)
}

func (s *Server) handleClearRecent(c *gin.Context) {
	for _, addr := range s.store.State().RecentSearches {
		s.store.RemoveFromRecentSearches(addr)
	}
	s.recent(c)
}

// GraphResponse is the JSON graph view.
type GraphResponse struct {
	Layout      *graph.Layout      `json:"layout"`
	Interaction *graph.Interaction `json:"interaction"`
	Highlight   graph.Highlight    `json:"highlight"`
}

// currentLayout returns the layout of the published token for the request viewport.
func (s *Server) currentLayout(c *gin.Context) (*graph.Layout, bool) {
	st := s.store.State()
	if st.TokenData == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "no token data"})
		return nil, false
	}
	layout, err := s.layouts.get(c.Request.Context(), st.TokenData, viewportFromQuery(c))
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "layout cancelled"})
		return nil, false
	}
	return layout, true
}

func (s *Server) handleGraph(c *gin.Context) {
	layout, ok := s.currentLayout(c)
	if !ok {
		return
	}
	it := interactionFromQuery(c)
	c.JSON(http.StatusOK, GraphResponse{
		Layout:      layout,
		Interaction: it,
		Highlight:   it.Highlight(layout),
	})
}

func (s *Server) handleGraphSVG(c *gin.Context) {
	layout, ok := s.currentLayout(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := graph.RenderSVG(&buf, layout, interactionFromQuery(c)); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "render failed"})
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", buf.Bytes())
}

// HistoryResponse is the JSON snapshot history of a mint.
type HistoryResponse struct {
	Mint      string             `json:"mint"`
	Snapshots []*domain.Snapshot `json:"snapshots"`
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.snapshots == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "snapshot history disabled"})
		return
	}
	mint := c.Param("mint")
	if err := tokenstore.ValidateAddress(mint); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	limit := storage.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	if c.Query("latest") == "true" {
		snap, err := s.snapshots.Latest(c.Request.Context(), mint)
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorResponse{Error: "no snapshots"})
			return
		}
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, errorResponse{Error: "history unavailable"})
			return
		}
		c.JSON(http.StatusOK, snap)
		return
	}

	list, err := s.snapshots.History(c.Request.Context(), mint, limit)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "history unavailable"})
		return
	}
	c.JSON(http.StatusOK, HistoryResponse{Mint: mint, Snapshots: list})
}
