// Package hub owns the per-client output channels. Every registered client
// gets a bounded outbox drained by its own write pump, so broadcasting is a
// non-blocking enqueue for the sender no matter how slow the receiving
// connection is. A client whose outbox overflows is disconnected rather
// than skipped: dropping a single message would leave that client with a
// silent gap in a board's edit order.
package hub

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Conn is the transport an outbox writes to. Write delivers one or more
// newline-terminated protocol lines as a unit.
type Conn interface {
	Write(data []byte) error
	Close() error
}

// ErrClosed is returned by Add after Shutdown.
var ErrClosed = errors.New("hub closed")

type outbox struct {
	id   uint32
	conn Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

// stop closes the done channel exactly once. The send channel is never
// closed; enqueuers race with removal and a close here would panic them.
func (o *outbox) stop() {
	o.once.Do(func() { close(o.done) })
}

// Hub is the table of live client outboxes, keyed by user ID.
type Hub struct {
	mu     sync.Mutex
	outs   map[uint32]*outbox
	closed bool
	buffer int
	logger zerolog.Logger
	wg     sync.WaitGroup

	kicked atomic.Int64
}

// New creates a Hub whose outboxes buffer up to buffer pending writes.
func New(buffer int, logger zerolog.Logger) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		outs:   make(map[uint32]*outbox),
		buffer: buffer,
		logger: logger,
	}
}

// Add registers a client connection under id and starts its write pump.
func (h *Hub) Add(id uint32, conn Conn) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return ErrClosed
	}
	o := &outbox{
		id:   id,
		conn: conn,
		send: make(chan []byte, h.buffer),
		done: make(chan struct{}),
	}
	h.outs[id] = o
	h.wg.Add(1)
	h.mu.Unlock()

	go h.writePump(o)
	return nil
}

// Send enqueues data for the client without blocking. A full outbox means
// the client cannot keep up with the board it is watching; it is removed
// and its connection closed. Returns false if the client is gone or was
// just kicked.
func (h *Hub) Send(id uint32, data []byte) bool {
	h.mu.Lock()
	o, ok := h.outs[id]
	h.mu.Unlock()
	if !ok {
		return false
	}

	select {
	case o.send <- data:
		return true
	case <-o.done:
		return false
	default:
		h.kicked.Add(1)
		h.logger.Warn().Uint32("user_id", id).Msg("outbox full, disconnecting slow client")
		h.Remove(id)
		return false
	}
}

// Remove stops the client's write pump and closes its connection.
// Removing an absent client is a no-op.
func (h *Hub) Remove(id uint32) {
	h.mu.Lock()
	o, ok := h.outs[id]
	if ok {
		delete(h.outs, id)
	}
	h.mu.Unlock()

	if ok {
		o.stop()
		o.conn.Close()
	}
}

// Count returns the number of live outboxes.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.outs)
}

// Kicked returns how many clients have been disconnected for falling
// behind.
func (h *Hub) Kicked() int64 {
	return h.kicked.Load()
}

// Shutdown closes every connection and waits for the write pumps to exit.
// The hub accepts no new clients afterwards.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	outs := make([]*outbox, 0, len(h.outs))
	for _, o := range h.outs {
		outs = append(outs, o)
	}
	h.outs = make(map[uint32]*outbox)
	h.mu.Unlock()

	for _, o := range outs {
		o.stop()
		o.conn.Close()
	}
	h.wg.Wait()
}

// writePump drains the outbox to the connection. A write failure removes
// the client; queued data after a stop is discarded.
func (h *Hub) writePump(o *outbox) {
	defer h.wg.Done()
	for {
		select {
		case <-o.done:
			return
		case data := <-o.send:
			if err := o.conn.Write(data); err != nil {
				h.logger.Debug().Uint32("user_id", o.id).Err(err).Msg("write failed, disconnecting client")
				h.Remove(o.id)
				return
			}
		}
	}
}
