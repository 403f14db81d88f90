package timectrl

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestTimeControllerSetTime(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Second, RealTime)

	newNow := start.Add(42 * time.Second)
	tc.SetTime(newNow)

	if got := tc.Now(); !got.Equal(newNow) {
		t.Fatalf("Now() = %v, want %v", got, newNow)
	}
}

func TestTimeControllerStartUpdatesNow(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, 5*time.Millisecond, RealTime)

	done := tc.Start(context.Background(), 15*time.Millisecond)
	<-done

	expected := start.Add(15 * time.Millisecond)
	if got := tc.Now(); !got.Equal(expected) {
		t.Fatalf("Now() = %v, want %v", got, expected)
	}
}

func TestTimeControllerAcceleratedNotifiesListeners(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Minute, Accelerated)

	var (
		mu    sync.Mutex
		ticks []time.Time
	)
	tc.AddListener(func(sim, _ time.Time) {
		mu.Lock()
		defer mu.Unlock()
		ticks = append(ticks, sim)
	})

	<-tc.Start(context.Background(), 90*time.Minute)

	mu.Lock()
	defer mu.Unlock()
	if len(ticks) != 90 {
		t.Fatalf("got %d ticks, want 90", len(ticks))
	}
	if want := start.Add(time.Minute); !ticks[0].Equal(want) {
		t.Fatalf("first tick = %v, want %v", ticks[0], want)
	}
	if want := start.Add(90 * time.Minute); !ticks[89].Equal(want) {
		t.Fatalf("last tick = %v, want %v", ticks[89], want)
	}
}

func TestTimeControllerStopsOnCancel(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Millisecond, RealTime)

	ctx, cancel := context.WithCancel(context.Background())
	done := tc.Start(ctx, 0)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("controller did not stop after cancel")
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": RealTime, "realtime": RealTime, "accelerated": Accelerated} {
		got, ok := ParseMode(in)
		if !ok || got != want {
			t.Fatalf("ParseMode(%q) = %v, %v; want %v", in, got, ok, want)
		}
	}
	if _, ok := ParseMode("warp"); ok {
		t.Fatalf("ParseMode accepted an unknown mode")
	}
}
