package server

import (
	"fmt"

	"github.com/aadah/Multiuser-Whiteboard/internal/hub"
	"github.com/aadah/Multiuser-Whiteboard/internal/wire"
)

func line(msg string) []byte {
	return append([]byte(msg), '\n')
}

// connect registers a new user, attaches their connection to the hub, and
// puts them on the default board. The join replays the board before any
// later edit can reach the outbox, so the client always sees history
// first. Returns false while shutting down.
func (s *Server) connect(conn hub.Conn, ip string) (uint32, bool) {
	u := s.registry.Register()
	if err := s.hub.Add(u.ID, conn); err != nil {
		s.registry.Remove(u.ID)
		return 0, false
	}
	if _, ok := s.store.Join(u.ID, s.cfg.DefaultBoard.Name); !ok {
		s.logger.Error().Str("board", s.cfg.DefaultBoard.Name).Msg("default board missing")
		s.registry.Remove(u.ID)
		s.hub.Remove(u.ID)
		return 0, false
	}

	s.hub.Send(u.ID, line(wire.AllBoards(s.store.Names())))
	s.hub.Send(u.ID, line(wire.AllUsers(s.registry.Names())))
	s.broadcastAllUsers()
	s.broadcastBoardUsers(s.cfg.DefaultBoard.Name)

	s.logger.Info().Uint32("user", u.ID).Str("name", u.Name).Str("ip", ip).Msg("client connected")
	return u.ID, true
}

// disconnect tears down a user in the reverse of connect. The remaining
// clients learn the new user and board rosters.
func (s *Server) disconnect(id uint32) {
	name, _ := s.registry.Name(id)
	former, _ := s.store.Leave(id)
	s.registry.Remove(id)
	s.broadcastAllUsers()
	if former != "" {
		s.broadcastBoardUsers(former)
	}
	s.hub.Remove(id)
	s.logger.Info().Uint32("user", id).Str("name", name).Msg("client disconnected")
}

// dispatch applies one parsed protocol line from user id. Lines that
// name a missing board are dropped, matching how malformed input is
// treated, rather than failing the connection.
func (s *Server) dispatch(id uint32, input string) {
	cmd, err := wire.ParseCommand(input)
	if err != nil {
		s.logger.Debug().Uint32("user", id).Str("line", input).Msg("ignoring malformed line")
		return
	}

	switch c := cmd.(type) {
	case wire.ChangeName:
		s.rename(id, c.Name)
	case wire.ChangeBoard:
		s.switchBoard(id, c.To)
	case wire.AddBoard:
		s.addBoard(id, c)
	case wire.Draw:
		if !s.store.AppendEdit(c.Edit) {
			s.logger.Debug().Uint32("user", id).Str("board", c.Edit.BoardName()).Msg("edit for unknown board dropped")
		}
	case wire.Chat:
		if !s.store.AppendChat(c) {
			s.logger.Debug().Uint32("user", id).Str("board", c.Board).Msg("chat for unknown board dropped")
		}
	default:
		panic(fmt.Sprintf("unhandled command type %T", cmd))
	}
}

func (s *Server) rename(id uint32, name string) {
	if !s.registry.Rename(id, name) {
		return
	}
	s.broadcastAllUsers()
	if b, ok := s.store.BoardOf(id); ok {
		s.broadcastBoardUsers(b)
	}
}

// switchBoard moves the user from their tracked board, which may differ
// from the board the client claims to be leaving.
func (s *Server) switchBoard(id uint32, to string) {
	former, ok := s.store.Join(id, to)
	if !ok {
		s.logger.Debug().Uint32("user", id).Str("board", to).Msg("switch to unknown board dropped")
		return
	}
	if former != "" && former != to {
		s.broadcastBoardUsers(former)
	}
	s.broadcastBoardUsers(to)
}

func (s *Server) addBoard(id uint32, c wire.AddBoard) {
	former, ok := s.store.CreateAndJoin(id, c.Name, c.Width, c.Height)
	if !ok {
		s.logger.Debug().Uint32("user", id).Str("board", c.Name).Msg("create of existing board dropped")
		return
	}
	s.broadcastAllBoards()
	if former != "" {
		s.broadcastBoardUsers(former)
	}
	s.broadcastBoardUsers(c.Name)
}

// broadcastAllUsers sends the user roster to every connected client.
func (s *Server) broadcastAllUsers() {
	users := s.registry.Users()
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Name
	}
	data := line(wire.AllUsers(names))
	for _, u := range users {
		s.hub.Send(u.ID, data)
	}
}

// broadcastAllBoards sends the board roster to every connected client.
func (s *Server) broadcastAllBoards() {
	data := line(wire.AllBoards(s.store.Names()))
	for _, u := range s.registry.Users() {
		s.hub.Send(u.ID, data)
	}
}

// broadcastBoardUsers sends the member roster of one board to its members.
func (s *Server) broadcastBoardUsers(name string) {
	members := s.store.Members(name)
	data := line(wire.UsersOnBoard(name, s.registry.NamesOf(members)))
	for _, id := range members {
		s.hub.Send(id, data)
	}
}
