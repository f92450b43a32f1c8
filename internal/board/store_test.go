package board

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aadah/Multiuser-Whiteboard/internal/canvas"
	"github.com/aadah/Multiuser-Whiteboard/internal/wire"
)

// fakeSink records delivered lines per user, split on newlines.
type fakeSink struct {
	mu    sync.Mutex
	lines map[uint32][]string
}

func newFakeSink() *fakeSink {
	return &fakeSink{lines: make(map[uint32][]string)}
}

func (f *fakeSink) Send(id uint32, data []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, line := range strings.Split(strings.TrimSuffix(string(data), "\n"), "\n") {
		f.lines[id] = append(f.lines[id], line)
	}
	return true
}

func (f *fakeSink) linesFor(id uint32) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.lines[id]))
	copy(out, f.lines[id])
	return out
}

func newTestStore(sink Sink) *Store {
	return NewStore(sink, zerolog.Nop(), "IHTFP", 640, 480)
}

func seg(board string, x1 int) canvas.Edit {
	return canvas.SegmentEdit{Board: board, User: "u", X1: x1, Y1: 0, X2: x1, Y2: 5, Color: -16777216, Width: 1}
}

func TestCreateRejectsDuplicate(t *testing.T) {
	s := newTestStore(newFakeSink())

	if !s.Create("room2", 300, 300) {
		t.Fatal("expected first create to succeed")
	}
	if s.Create("room2", 999, 999) {
		t.Fatal("expected duplicate create to fail")
	}

	w, h, _, ok := s.Snapshot("room2")
	if !ok || w != 300 || h != 300 {
		t.Fatalf("expected dimensions from the first create, got %dx%d", w, h)
	}
}

func TestCreateDefaultBoardNameFails(t *testing.T) {
	s := newTestStore(newFakeSink())
	if s.Create("IHTFP", 100, 100) {
		t.Fatal("expected create of the default board name to fail")
	}
}

func TestJoinReplaysHistoryInOrder(t *testing.T) {
	sink := newFakeSink()
	s := newTestStore(sink)

	s.Join(1, "IHTFP")
	s.AppendEdit(seg("IHTFP", 0))
	s.AppendEdit(seg("IHTFP", 1))
	s.AppendChat(wire.Chat{Board: "IHTFP", User: "u", Clock: "10:00:00", Message: "hi there"})

	former, ok := s.Join(2, "IHTFP")
	if !ok || former != "" {
		t.Fatalf("expected fresh join, got former=%q ok=%v", former, ok)
	}

	want := []string{
		"NEWBOARD IHTFP 640 480",
		"DRAW SEGMENT IHTFP u 0 0 0 5 -16777216 1",
		"DRAW SEGMENT IHTFP u 1 0 1 5 -16777216 1",
		"ENDEDITS",
		"CHAT IHTFP u 10:00:00 hi there",
	}
	if got := sink.linesFor(2); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected replay %v, got %v", want, got)
	}
}

func TestJoinUnknownBoard(t *testing.T) {
	sink := newFakeSink()
	s := newTestStore(sink)

	if _, ok := s.Join(1, "nowhere"); ok {
		t.Fatal("expected join of unknown board to fail")
	}
	if len(sink.linesFor(1)) != 0 {
		t.Fatal("expected no delivery on failed join")
	}
}

func TestAppendEditFansOutToMembersOnly(t *testing.T) {
	sink := newFakeSink()
	s := newTestStore(sink)
	s.Create("room2", 300, 300)
	s.Join(1, "IHTFP")
	s.Join(2, "IHTFP")
	s.Join(3, "room2")

	if !s.AppendEdit(seg("IHTFP", 7)) {
		t.Fatal("expected append to succeed")
	}

	line := "DRAW SEGMENT IHTFP u 7 0 7 5 -16777216 1"
	for _, id := range []uint32{1, 2} {
		lines := sink.linesFor(id)
		if lines[len(lines)-1] != line {
			t.Fatalf("expected member %d to receive %q, got %v", id, line, lines)
		}
	}
	for _, l := range sink.linesFor(3) {
		if l == line {
			t.Fatal("expected room2 member not to receive IHTFP edits")
		}
	}
}

func TestAppendUnknownBoard(t *testing.T) {
	s := newTestStore(newFakeSink())

	if s.AppendEdit(seg("nowhere", 0)) {
		t.Fatal("expected append to unknown board to fail")
	}
	if s.AppendChat(wire.Chat{Board: "nowhere", User: "u", Clock: "10:00:00"}) {
		t.Fatal("expected chat to unknown board to fail")
	}
}

func TestJoinMovesMembership(t *testing.T) {
	sink := newFakeSink()
	s := newTestStore(sink)
	s.Create("room2", 300, 300)
	s.Join(1, "IHTFP")

	former, ok := s.Join(1, "room2")
	if !ok || former != "IHTFP" {
		t.Fatalf("expected move from IHTFP, got former=%q ok=%v", former, ok)
	}

	if got := s.Members("IHTFP"); len(got) != 0 {
		t.Fatalf("expected IHTFP empty, got %v", got)
	}
	if got := s.Members("room2"); len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected room2 to hold user 1, got %v", got)
	}
	if b, _ := s.BoardOf(1); b != "room2" {
		t.Fatalf("expected BoardOf room2, got %q", b)
	}
}

func TestCreateAndJoin(t *testing.T) {
	sink := newFakeSink()
	s := newTestStore(sink)
	s.Join(1, "IHTFP")

	former, ok := s.CreateAndJoin(1, "room2", 300, 300)
	if !ok || former != "IHTFP" {
		t.Fatalf("expected creator moved from IHTFP, got former=%q ok=%v", former, ok)
	}

	want := []string{"NEWBOARD room2 300 300", "ENDEDITS"}
	lines := sink.linesFor(1)
	if !reflect.DeepEqual(lines[len(lines)-2:], want) {
		t.Fatalf("expected new-board replay %v at the end, got %v", want, lines)
	}
}

func TestCreateAndJoinCollisionLeavesCreatorPut(t *testing.T) {
	sink := newFakeSink()
	s := newTestStore(sink)
	s.Create("room2", 300, 300)
	s.Join(1, "IHTFP")
	before := len(sink.linesFor(1))

	if _, ok := s.CreateAndJoin(1, "room2", 500, 500); ok {
		t.Fatal("expected collision to fail")
	}
	if b, _ := s.BoardOf(1); b != "IHTFP" {
		t.Fatalf("expected creator to stay on IHTFP, got %q", b)
	}
	if len(sink.linesFor(1)) != before {
		t.Fatal("expected no delivery on failed create")
	}
}

func TestLeave(t *testing.T) {
	s := newTestStore(newFakeSink())
	s.Join(1, "IHTFP")

	former, ok := s.Leave(1)
	if !ok || former != "IHTFP" {
		t.Fatalf("expected leave from IHTFP, got former=%q ok=%v", former, ok)
	}
	if _, ok := s.Leave(1); ok {
		t.Fatal("expected second leave to fail")
	}
	if len(s.Members("IHTFP")) != 0 {
		t.Fatal("expected empty membership after leave")
	}
}

func TestNamesInCreationOrder(t *testing.T) {
	s := newTestStore(newFakeSink())
	s.Create("beta", 10, 10)
	s.Create("alpha", 10, 10)

	want := []string{"IHTFP", "beta", "alpha"}
	if got := s.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestListCounts(t *testing.T) {
	s := newTestStore(newFakeSink())
	s.Join(1, "IHTFP")
	s.AppendEdit(seg("IHTFP", 0))
	s.AppendChat(wire.Chat{Board: "IHTFP", User: "u", Clock: "10:00:00", Message: "x"})

	infos := s.List()
	if len(infos) != 1 {
		t.Fatalf("expected 1 board, got %d", len(infos))
	}
	got := infos[0]
	if got.Name != "IHTFP" || got.Width != 640 || got.Height != 480 || got.Members != 1 || got.Edits != 1 || got.Chats != 1 {
		t.Fatalf("unexpected info: %+v", got)
	}
}

// TestJoinSeesNoGapAndNoDuplicate drives concurrent appends against a join
// and checks the replay contract from the joiner's perspective: every
// edit appears exactly once, edits before ENDEDITS are a prefix of the
// append order, and edits after it are the remaining suffix in order.
func TestJoinSeesNoGapAndNoDuplicate(t *testing.T) {
	const total = 200
	sink := newFakeSink()
	s := newTestStore(sink)
	s.Join(1, "IHTFP")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < total; i++ {
			s.AppendEdit(seg("IHTFP", i))
		}
	}()
	s.Join(2, "IHTFP")
	<-done

	var replay, live []int
	afterEnd := false
	for _, line := range sink.linesFor(2) {
		if line == "ENDEDITS" {
			afterEnd = true
			continue
		}
		var x int
		if n, _ := fmt.Sscanf(line, "DRAW SEGMENT IHTFP u %d", &x); n != 1 {
			continue
		}
		if afterEnd {
			live = append(live, x)
		} else {
			replay = append(replay, x)
		}
	}

	if len(replay)+len(live) != total {
		t.Fatalf("expected %d edits total, got %d replayed + %d live", total, len(replay), len(live))
	}
	for i, x := range replay {
		if x != i {
			t.Fatalf("replay out of order at %d: got edit %d", i, x)
		}
	}
	for i, x := range live {
		if x != len(replay)+i {
			t.Fatalf("live edits have a gap or duplicate at %d: got edit %d", i, x)
		}
	}
}
