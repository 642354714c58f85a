package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"holdermap/internal/tokenstore"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
	wsMaxMessage = 4096
)

// Websocket command types accepted from clients.
const (
	cmdFetch      = "fetch"
	cmdClearError = "clearError"
	cmdClearToken = "clearToken"
	cmdRemove     = "removeRecent"
)

// wsCommand is a client message.
type wsCommand struct {
	Type    string `json:"type"`
	Address string `json:"address,omitempty"`
}

// wsMessage is a server message carrying the store state.
type wsMessage struct {
	Type  string           `json:"type"`
	State tokenstore.State `json:"state"`
}

// handleWS streams store state to the client and applies its commands.
func (s *Server) handleWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	updates, unsubscribe := s.store.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go s.readCommands(conn, done)

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case st, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(wsWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(wsMessage{Type: "state", State: st}); err != nil {
				s.logger.Debug().Err(err).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// readCommands reads client commands until the connection fails, then closes done.
func (s *Server) readCommands(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug().Err(err).Msg("websocket closed")
			}
			return
		}
		s.applyCommand(cmd)
	}
}

func (s *Server) applyCommand(cmd wsCommand) {
	switch cmd.Type {
	case cmdFetch:
		go func() {
			err := s.store.FetchTokenData(context.Background(), cmd.Address)
			if err != nil && !errors.Is(err, tokenstore.ErrSuperseded) {
				s.logger.Debug().Err(err).Str("mint", cmd.Address).Msg("websocket fetch failed")
			}
		}()
	case cmdClearError:
		s.store.ClearError()
	case cmdClearToken:
		s.store.ClearTokenData()
	case cmdRemove:
		s.store.RemoveFromRecentSearches(cmd.Address)
	default:
		s.logger.Debug().Str("type", cmd.Type).Msg("unknown websocket command")
	}
}
