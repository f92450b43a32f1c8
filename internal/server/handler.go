package server

import (
	"bufio"
	"errors"
	"net"
	"os"
	"time"
)

// tcpConn adapts a raw TCP connection to the hub's Conn interface.
type tcpConn struct {
	conn net.Conn
}

func (c *tcpConn) Write(data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := c.conn.Write(data)
	return err
}

func (c *tcpConn) Close() error {
	return c.conn.Close()
}

// handleConn runs the read loop for one TCP client until the connection
// drops, the client idles past the configured timeout, or a line exceeds
// the size limit.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	ip := remoteIP(conn.RemoteAddr().String())

	id, ok := s.connect(&tcpConn{conn: conn}, ip)
	if !ok {
		return
	}
	defer s.disconnect(id)

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 4096), s.cfg.MaxLineBytes)
	idle := time.Duration(s.cfg.IdleTimeout)
	for {
		if idle > 0 {
			conn.SetReadDeadline(time.Now().Add(idle))
		}
		if !sc.Scan() {
			break
		}
		if !s.limiter.Allow(ip) {
			s.logger.Debug().Uint32("user", id).Str("ip", ip).Msg("rate limited line dropped")
			continue
		}
		s.dispatch(id, sc.Text())
	}

	switch err := sc.Err(); {
	case err == nil, errors.Is(err, net.ErrClosed):
	case errors.Is(err, os.ErrDeadlineExceeded):
		s.logger.Info().Uint32("user", id).Msg("idle client disconnected")
	case errors.Is(err, bufio.ErrTooLong):
		s.logger.Warn().Uint32("user", id).Msg("oversized line, disconnecting")
	default:
		s.logger.Debug().Uint32("user", id).Err(err).Msg("read ended")
	}
}

func remoteIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return addr
	}
	return host
}
