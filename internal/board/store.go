package board

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/aadah/Multiuser-Whiteboard/internal/canvas"
	"github.com/aadah/Multiuser-Whiteboard/internal/wire"
)

// Sink delivers protocol lines to a user's outbox. Send must not block;
// the store calls it while holding its lock.
type Sink interface {
	Send(id uint32, data []byte) bool
}

// Store is the concurrency-safe board table. Appends and joins serialize on
// one lock, and both enqueue their outbound lines before releasing it: an
// edit appended before a join is part of the join's replay and goes only
// there, an edit appended after goes to the joiner's outbox as a live line,
// and nothing is ever delivered twice or skipped.
type Store struct {
	mu     sync.Mutex
	boards map[string]*Board
	order  []string
	byUser map[uint32]string
	sink   Sink
	logger zerolog.Logger
}

// NewStore creates a board table containing the default board, which every
// new connection joins first.
func NewStore(sink Sink, logger zerolog.Logger, defaultBoard string, width, height int) *Store {
	s := &Store{
		boards: make(map[string]*Board),
		byUser: make(map[uint32]string),
		sink:   sink,
		logger: logger,
	}
	s.boards[defaultBoard] = newBoard(defaultBoard, width, height)
	s.order = append(s.order, defaultBoard)
	return s
}

// Create adds an empty board. It returns false and mutates nothing if the
// name is already taken.
func (s *Store) Create(name string, width, height int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(name, width, height)
}

func (s *Store) createLocked(name string, width, height int) bool {
	if _, exists := s.boards[name]; exists {
		return false
	}
	s.boards[name] = newBoard(name, width, height)
	s.order = append(s.order, name)
	s.logger.Info().Str("board", name).Int("width", width).Int("height", height).Msg("board created")
	return true
}

// Join moves the user onto the named board and enqueues the full replay on
// their outbox. The replay snapshot and the membership registration share
// one critical section with the append path, which is what guarantees the
// joiner a gapless, duplicate-free view of the board. Returns the board the
// user came from ("" for a first join) and false if the target board does
// not exist.
func (s *Store) Join(userID uint32, to string) (former string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.joinLocked(userID, to)
}

func (s *Store) joinLocked(userID uint32, to string) (string, bool) {
	target, exists := s.boards[to]
	if !exists {
		return "", false
	}

	former := s.byUser[userID]
	if former != "" {
		delete(s.boards[former].members, userID)
	}

	s.sink.Send(userID, target.replay())
	target.members[userID] = struct{}{}
	s.byUser[userID] = to

	s.logger.Debug().Uint32("user_id", userID).Str("board", to).Str("former", former).Msg("user joined board")
	return former, true
}

// CreateAndJoin creates a board and moves the creator onto it in one step,
// replaying the (empty) new board to them. It returns false and mutates
// nothing if the name is taken, so a lost creation race leaves the loser
// exactly where they were.
func (s *Store) CreateAndJoin(userID uint32, name string, width, height int) (former string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.createLocked(name, width, height) {
		return "", false
	}
	return s.joinLocked(userID, name)
}

// Leave removes the user from whatever board currently holds them and
// returns that board's name.
func (s *Store) Leave(userID uint32) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	former, ok := s.byUser[userID]
	if !ok {
		return "", false
	}
	delete(s.byUser, userID)
	delete(s.boards[former].members, userID)
	s.logger.Debug().Uint32("user_id", userID).Str("board", former).Msg("user left board")
	return former, true
}

// AppendEdit appends the edit to its board's log and enqueues the canonical
// DRAW line on every member's outbox, sender included. Returns false if the
// board does not exist; well-behaved clients never send one.
func (s *Store) AppendEdit(e canvas.Edit) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, exists := s.boards[e.BoardName()]
	if !exists {
		return false
	}
	b.edits = append(b.edits, e)

	line := append([]byte(wire.DrawLine(e)), '\n')
	for id := range b.members {
		s.sink.Send(id, line)
	}
	return true
}

// AppendChat appends the chat record to its board's log and enqueues the
// canonical CHAT line on every member's outbox.
func (s *Store) AppendChat(c wire.Chat) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, exists := s.boards[c.Board]
	if !exists {
		return false
	}
	b.chats = append(b.chats, c)

	line := append([]byte(wire.ChatLine(c)), '\n')
	for id := range b.members {
		s.sink.Send(id, line)
	}
	return true
}

// Names returns every board name in creation order.
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Members returns the IDs of the users currently on the board.
func (s *Store) Members(name string) []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, exists := s.boards[name]
	if !exists {
		return nil
	}
	return b.memberIDs()
}

// BoardOf returns the board currently holding the user.
func (s *Store) BoardOf(userID uint32) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.byUser[userID]
	return name, ok
}

// Snapshot returns the board's dimensions and a copy of its edit log, for
// rendering.
func (s *Store) Snapshot(name string) (width, height int, edits []canvas.Edit, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, exists := s.boards[name]
	if !exists {
		return 0, 0, nil, false
	}
	edits = make([]canvas.Edit, len(b.edits))
	copy(edits, b.edits)
	return b.width, b.height, edits, true
}

// List describes every board in creation order, for the admin API.
func (s *Store) List() []Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]Info, 0, len(s.order))
	for _, name := range s.order {
		b := s.boards[name]
		infos = append(infos, Info{
			Name:    b.name,
			Width:   b.width,
			Height:  b.height,
			Members: len(b.members),
			Edits:   len(b.edits),
			Chats:   len(b.chats),
		})
	}
	return infos
}
