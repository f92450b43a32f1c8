package wire

import (
	"fmt"
	"strings"

	"github.com/aadah/Multiuser-Whiteboard/internal/canvas"
)

// EndEdits terminates the edit replay that follows a NewBoard line.
const EndEdits = "ENDEDITS"

// NewBoard formats the line that opens a board replay.
func NewBoard(name string, width, height int) string {
	return fmt.Sprintf("NEWBOARD %s %d %d", name, width, height)
}

// AllBoards formats the full board-name list message.
func AllBoards(names []string) string {
	return join("ALLBOARDS", names)
}

// AllUsers formats the full username list message.
func AllUsers(names []string) string {
	return join("ALLUSERS", names)
}

// UsersOnBoard formats the membership list message for one board.
func UsersOnBoard(board string, names []string) string {
	return join("USERSONBOARD "+board, names)
}

// DrawLine formats the canonical DRAW line for an edit, identical for
// storage, replay, and live broadcast. An unknown edit type is a
// programming error.
func DrawLine(e canvas.Edit) string {
	switch e := e.(type) {
	case canvas.SegmentEdit:
		return fmt.Sprintf("DRAW SEGMENT %s %s %d %d %d %d %d %d",
			e.Board, e.User, e.X1, e.Y1, e.X2, e.Y2, e.Color, e.Width)
	case canvas.FillEdit:
		return fmt.Sprintf("DRAW FILL %s %s %d %d %d",
			e.Board, e.User, e.X, e.Y, e.Color)
	default:
		panic(fmt.Sprintf("wire: unknown edit type %T", e))
	}
}

// ChatLine formats the canonical CHAT line. The message field is appended
// as-is, so a message that began with a space round-trips unchanged.
func ChatLine(c Chat) string {
	line := "CHAT " + c.Board + " " + c.User + " " + c.Clock
	if c.Message == "" {
		return line
	}
	return line + " " + c.Message
}

func join(prefix string, names []string) string {
	if len(names) == 0 {
		return prefix
	}
	return prefix + " " + strings.Join(names, " ")
}
