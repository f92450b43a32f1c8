// Package wire implements the line protocol spoken between clients and the
// server: one command per line, space-separated tokens. Inbound lines are
// parsed into typed commands; outbound messages are formatted canonically
// (single spaces, fixed field order), so a well-formed inbound DRAW or CHAT
// line is stored and rebroadcast byte-identical.
package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aadah/Multiuser-Whiteboard/internal/canvas"
)

// ErrMalformed is returned for any line that does not parse as a known
// command. The protocol treats such lines as silently ignorable, not as
// connection errors.
var ErrMalformed = errors.New("malformed line")

const (
	// MaxCoord bounds every coordinate and stroke width on the wire.
	// Keeping deltas under 2^14 lets the stroke capsule test stay in
	// exact int64 arithmetic.
	MaxCoord = 16383

	// MaxBoardDim bounds the dimensions a client may request for a new
	// board.
	MaxBoardDim = 4096
)

// Command is a parsed client-to-server line. The concrete types are
// ChangeName, ChangeBoard, AddBoard, Draw, and Chat.
type Command interface {
	isCommand()
}

// ChangeName renames the sending user.
type ChangeName struct {
	Name string
}

// ChangeBoard moves the sending user from one board to another.
type ChangeBoard struct {
	From string
	To   string
}

// AddBoard creates a new board and moves the sending user onto it.
type AddBoard struct {
	From   string
	Name   string
	Width  int
	Height int
}

// Draw carries one edit for the edit's board.
type Draw struct {
	Edit canvas.Edit
}

// Chat is a chat message for a board. Clock is the client-supplied
// HH:MM:SS token; Message is everything after it and may contain spaces
// or be empty.
type Chat struct {
	Board   string
	User    string
	Clock   string
	Message string
}

func (ChangeName) isCommand()  {}
func (ChangeBoard) isCommand() {}
func (AddBoard) isCommand()    {}
func (Draw) isCommand()        {}
func (Chat) isCommand()        {}

// ParseCommand parses one inbound line. Any unknown verb, wrong token
// count, or out-of-range numeric field yields an error wrapping
// ErrMalformed.
func ParseCommand(line string) (Command, error) {
	verb, rest, _ := strings.Cut(line, " ")
	switch verb {
	case "USERCHANGENAME":
		return parseChangeName(rest)
	case "USERCHANGEBOARD":
		return parseChangeBoard(rest)
	case "ADDBOARD":
		return parseAddBoard(rest)
	case "DRAW":
		return parseDraw(rest)
	case "CHAT":
		return parseChat(rest)
	default:
		return nil, fmt.Errorf("%w: unknown command %q", ErrMalformed, verb)
	}
}

func parseChangeName(rest string) (Command, error) {
	name, _, _ := strings.Cut(rest, " ")
	if name == "" {
		return nil, fmt.Errorf("%w: USERCHANGENAME needs a name", ErrMalformed)
	}
	return ChangeName{Name: name}, nil
}

func parseChangeBoard(rest string) (Command, error) {
	parts := strings.Split(rest, " ")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w: USERCHANGEBOARD needs from and to boards", ErrMalformed)
	}
	return ChangeBoard{From: parts[0], To: parts[1]}, nil
}

func parseAddBoard(rest string) (Command, error) {
	parts := strings.Split(rest, " ")
	if len(parts) != 4 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w: ADDBOARD needs from, name, width, height", ErrMalformed)
	}
	w, err := parseDim(parts[2])
	if err != nil {
		return nil, err
	}
	h, err := parseDim(parts[3])
	if err != nil {
		return nil, err
	}
	return AddBoard{From: parts[0], Name: parts[1], Width: w, Height: h}, nil
}

func parseDraw(rest string) (Command, error) {
	parts := strings.Split(rest, " ")
	switch {
	case len(parts) == 9 && parts[0] == "SEGMENT":
		return parseSegment(parts[1:])
	case len(parts) == 6 && parts[0] == "FILL":
		return parseFill(parts[1:])
	default:
		return nil, fmt.Errorf("%w: unrecognized DRAW shape", ErrMalformed)
	}
}

// parseSegment parses "board user x1 y1 x2 y2 color width".
func parseSegment(parts []string) (Command, error) {
	if parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w: SEGMENT needs board and user", ErrMalformed)
	}
	var coords [4]int
	for i, tok := range parts[2:6] {
		v, err := parseCoord(tok)
		if err != nil {
			return nil, err
		}
		coords[i] = v
	}
	color, err := parseColor(parts[6])
	if err != nil {
		return nil, err
	}
	width, err := strconv.Atoi(parts[7])
	if err != nil || width < 1 || width > MaxCoord {
		return nil, fmt.Errorf("%w: bad stroke width %q", ErrMalformed, parts[7])
	}
	return Draw{Edit: canvas.SegmentEdit{
		Board: parts[0],
		User:  parts[1],
		X1:    coords[0],
		Y1:    coords[1],
		X2:    coords[2],
		Y2:    coords[3],
		Color: color,
		Width: width,
	}}, nil
}

// parseFill parses "board user x y color".
func parseFill(parts []string) (Command, error) {
	if parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w: FILL needs board and user", ErrMalformed)
	}
	x, err := parseCoord(parts[2])
	if err != nil {
		return nil, err
	}
	y, err := parseCoord(parts[3])
	if err != nil {
		return nil, err
	}
	color, err := parseColor(parts[4])
	if err != nil {
		return nil, err
	}
	return Draw{Edit: canvas.FillEdit{
		Board: parts[0],
		User:  parts[1],
		X:     x,
		Y:     y,
		Color: color,
	}}, nil
}

func parseChat(rest string) (Command, error) {
	parts := strings.SplitN(rest, " ", 4)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, fmt.Errorf("%w: CHAT needs board, user, time", ErrMalformed)
	}
	c := Chat{Board: parts[0], User: parts[1], Clock: parts[2]}
	if len(parts) == 4 {
		c.Message = parts[3]
	}
	return c, nil
}

func parseCoord(tok string) (int, error) {
	v, err := strconv.Atoi(tok)
	if err != nil || v < 0 || v > MaxCoord {
		return 0, fmt.Errorf("%w: bad coordinate %q", ErrMalformed, tok)
	}
	return v, nil
}

func parseDim(tok string) (int, error) {
	v, err := strconv.Atoi(tok)
	if err != nil || v < 1 || v > MaxBoardDim {
		return 0, fmt.Errorf("%w: bad board dimension %q", ErrMalformed, tok)
	}
	return v, nil
}

func parseColor(tok string) (int32, error) {
	v, err := strconv.ParseInt(tok, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: bad color %q", ErrMalformed, tok)
	}
	return int32(v), nil
}
