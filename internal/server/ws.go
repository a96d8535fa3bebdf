package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

// wsPushInterval is how often scrape progress is pushed to connected
// clients.
const wsPushInterval = time.Second

// handleScrapeStatusWS streams scrape progress snapshots over a
// websocket. A snapshot is sent immediately on connect and then every
// second until the client disconnects.
func (s *Server) handleScrapeStatusWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// We never read application data; CloseRead surfaces client
	// disconnects through the returned context.
	ctx := conn.CloseRead(r.Context())

	if err := s.pushSnapshot(ctx, conn); err != nil {
		return
	}

	ticker := time.NewTicker(wsPushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.pushSnapshot(ctx, conn); err != nil {
				if !errors.Is(err, context.Canceled) {
					s.logger.Debug("websocket push failed", zap.Error(err))
				}
				return
			}
		}
	}
}

func (s *Server) pushSnapshot(ctx context.Context, conn *websocket.Conn) error {
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return wsjson.Write(writeCtx, conn, s.deps.Tracker.Snapshot())
}
