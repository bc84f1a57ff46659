package record

import (
	"errors"
	"testing"

	"github.com/dshills/keymelody/internal/input/key"
)

func TestNewBufferCapacity(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, DefaultCapacity},
		{-3, DefaultCapacity},
		{4, 4},
	}
	for _, tt := range tests {
		if got := NewBuffer(tt.in).Cap(); got != tt.want {
			t.Errorf("NewBuffer(%d).Cap() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestBufferAppend(t *testing.T) {
	b := NewBuffer(2)

	if err := b.Append(key.NewPress(key.Pos(0, 1), 10)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := b.Append(key.NewRelease(key.Pos(0, 1), 20)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !b.Full() {
		t.Error("buffer should be full")
	}

	err := b.Append(key.NewPress(key.Pos(0, 2), 30))
	if !errors.Is(err, ErrBufferFull) {
		t.Errorf("Append on full buffer = %v, want ErrBufferFull", err)
	}
	if b.Len() != 2 {
		t.Errorf("Len() = %d after failed append, want 2", b.Len())
	}
}

func TestBufferEventsIsCopy(t *testing.T) {
	b := NewBuffer(4)
	_ = b.Append(key.NewPress(key.Pos(1, 1), 5))

	events := b.Events()
	events[0] = key.NewRelease(key.Pos(9, 9), 0)

	if got := b.Events()[0]; got.Position != key.Pos(1, 1) {
		t.Errorf("buffer modified through Events(): %v", got)
	}
}

func TestBufferLast(t *testing.T) {
	b := NewBuffer(4)
	if _, ok := b.Last(); ok {
		t.Error("Last() on empty buffer should report false")
	}

	_ = b.Append(key.NewPress(key.Pos(0, 0), 1))
	_ = b.Append(key.NewPress(key.Pos(0, 1), 2))

	last, ok := b.Last()
	if !ok || last.Position != key.Pos(0, 1) {
		t.Errorf("Last() = %v, %v", last, ok)
	}
}

func TestBufferReplayOffset(t *testing.T) {
	b := NewBuffer(8)
	_ = b.Append(key.NewPress(key.Pos(0, 1), 100))
	_ = b.Append(key.NewRelease(key.Pos(0, 1), 150))
	_ = b.Append(key.NewPress(key.Pos(0, 2), 170))

	var got []key.Event
	n := b.Replay(400, func(ev key.Event) { got = append(got, ev) })

	if n != 3 {
		t.Fatalf("Replay() = %d, want 3", n)
	}
	wantTimes := []key.Timestamp{330, 380, 400}
	for i, ev := range got {
		if ev.Time != wantTimes[i] {
			t.Errorf("event %d time = %d, want %d", i, ev.Time, wantTimes[i])
		}
	}
	if !got[0].Pressed || got[1].Pressed || got[2].Position != key.Pos(0, 2) {
		t.Errorf("replay changed order or content: %v", got)
	}
	if b.Len() != 0 {
		t.Errorf("Len() after Replay = %d, want 0", b.Len())
	}
}

func TestBufferReplayAcrossWrap(t *testing.T) {
	b := NewBuffer(4)
	_ = b.Append(key.NewPress(key.Pos(0, 1), 65500))
	_ = b.Append(key.NewRelease(key.Pos(0, 1), 65530))

	var got []key.Event
	b.Replay(20, func(ev key.Event) { got = append(got, ev) })

	if got[0].Time != 65526 || got[1].Time != 20 {
		t.Errorf("times = %d, %d; want 65526, 20", got[0].Time, got[1].Time)
	}
}

func TestBufferReplayEmpty(t *testing.T) {
	b := NewBuffer(4)
	called := false
	if n := b.Replay(10, func(key.Event) { called = true }); n != 0 || called {
		t.Error("Replay on empty buffer should deliver nothing")
	}
}

func TestBufferReplayReentrant(t *testing.T) {
	b := NewBuffer(4)
	_ = b.Append(key.NewPress(key.Pos(0, 1), 1))
	_ = b.Append(key.NewRelease(key.Pos(0, 1), 2))

	b.Replay(2, func(ev key.Event) {
		_ = b.Append(ev)
	})

	if b.Len() != 2 {
		t.Errorf("Len() = %d, want 2 events appended during replay", b.Len())
	}
}

func TestBufferReset(t *testing.T) {
	b := NewBuffer(4)
	_ = b.Append(key.NewPress(key.Pos(0, 1), 1))
	b.Reset()
	if b.Len() != 0 || b.Full() {
		t.Error("Reset did not empty the buffer")
	}
}
