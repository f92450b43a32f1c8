// Package board owns the board table: per-board dimensions, the append-only
// edit and chat logs, and current membership. Its store is also where the
// join-replay consistency contract lives: history snapshot, replay delivery,
// and membership registration happen in one critical section, so a joining
// user can never see a gap in or a duplicate of a board's history.
package board

import (
	"bytes"

	"github.com/aadah/Multiuser-Whiteboard/internal/canvas"
	"github.com/aadah/Multiuser-Whiteboard/internal/wire"
)

// Board is one named drawing surface. All fields are guarded by the owning
// Store's lock.
type Board struct {
	name    string
	width   int
	height  int
	edits   []canvas.Edit
	chats   []wire.Chat
	members map[uint32]struct{}
}

func newBoard(name string, width, height int) *Board {
	return &Board{
		name:    name,
		width:   width,
		height:  height,
		members: make(map[uint32]struct{}),
	}
}

// replay renders the full join replay for the board: the NEWBOARD header,
// every edit in append order, the ENDEDITS terminator, then the chat
// history. Must be called while holding the store lock.
func (b *Board) replay() []byte {
	var buf bytes.Buffer
	buf.WriteString(wire.NewBoard(b.name, b.width, b.height))
	buf.WriteByte('\n')
	for _, e := range b.edits {
		buf.WriteString(wire.DrawLine(e))
		buf.WriteByte('\n')
	}
	buf.WriteString(wire.EndEdits)
	buf.WriteByte('\n')
	for _, c := range b.chats {
		buf.WriteString(wire.ChatLine(c))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// memberIDs copies the membership set. Must be called while holding the
// store lock.
func (b *Board) memberIDs() []uint32 {
	ids := make([]uint32, 0, len(b.members))
	for id := range b.members {
		ids = append(ids, id)
	}
	return ids
}

// Info is a point-in-time description of a board, for the admin API.
type Info struct {
	Name    string `json:"name"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Members int    `json:"members"`
	Edits   int    `json:"edits"`
	Chats   int    `json:"chats"`
}
