package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"nhooyr.io/websocket"
)

// wsConn adapts a WebSocket to the hub's Conn interface. Each delivery
// becomes one text message; multi-line deliveries keep their newlines so
// clients split messages exactly like the TCP stream.
type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Write(data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func (c *wsConn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}

// handleWS upgrades the request and runs the same protocol as a TCP
// client, with lines carried inside text messages.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow all origins in dev; tighten in production.
	})
	if err != nil {
		s.logger.Debug().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	conn.SetReadLimit(int64(s.cfg.MaxLineBytes))

	ip := remoteIP(r.RemoteAddr)
	id, ok := s.connect(&wsConn{conn: conn}, ip)
	if !ok {
		return
	}
	defer s.disconnect(id)

	idle := time.Duration(s.cfg.IdleTimeout)
	for {
		data, err := readWS(r.Context(), conn, idle)
		if err != nil {
			return
		}
		for _, ln := range strings.Split(string(data), "\n") {
			ln = strings.TrimSuffix(ln, "\r")
			if ln == "" {
				continue
			}
			if !s.limiter.Allow(ip) {
				s.logger.Debug().Uint32("user", id).Str("ip", ip).Msg("rate limited line dropped")
				continue
			}
			s.dispatch(id, ln)
		}
	}
}

func readWS(ctx context.Context, conn *websocket.Conn, idle time.Duration) ([]byte, error) {
	if idle > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, idle)
		defer cancel()
	}
	_, data, err := conn.Read(ctx)
	return data, err
}
