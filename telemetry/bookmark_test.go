package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, kind BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == kind {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_Flooding(t *testing.T) {
	bd := NewBookmarkDetector(10, 2000)

	for i := 0; i < 3; i++ {
		bookmarks := bd.Check(WindowStats{
			WindowEndTick: int32(i * 600),
			Population:    100 * (i + 1),
			Spawned:       200,
			Absorbed:      20,
		})
		if hasBookmark(bookmarks, BookmarkFlooding) {
			t.Fatalf("flooding reported after only %d windows", i+1)
		}
	}

	bookmarks := bd.Check(WindowStats{
		WindowEndTick: 1800,
		Population:    400,
		Spawned:       200,
		Absorbed:      20,
	})
	if !hasBookmark(bookmarks, BookmarkFlooding) {
		t.Error("expected flooding bookmark")
	}
}

func TestBookmarkDetector_NoFloodingWhenSinksKeepUp(t *testing.T) {
	bd := NewBookmarkDetector(10, 2000)

	for i := 0; i < 6; i++ {
		bookmarks := bd.Check(WindowStats{
			WindowEndTick: int32(i * 600),
			Population:    100 + i,
			Spawned:       200,
			Absorbed:      199,
		})
		if hasBookmark(bookmarks, BookmarkFlooding) {
			t.Fatalf("flooding reported at window %d while sinks absorb most inflow", i)
		}
	}
}

func TestBookmarkDetector_Drained(t *testing.T) {
	bd := NewBookmarkDetector(10, 2000)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 600), Population: 500})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 3000, Population: 100})
	if !hasBookmark(bookmarks, BookmarkDrained) {
		t.Error("expected drained bookmark")
	}

	// Peak resets after triggering, so the same level does not fire again.
	bookmarks = bd.Check(WindowStats{WindowEndTick: 3600, Population: 100})
	if hasBookmark(bookmarks, BookmarkDrained) {
		t.Error("drained bookmark fired twice")
	}
}

func TestBookmarkDetector_AtCapacityLatches(t *testing.T) {
	bd := NewBookmarkDetector(10, 1000)

	tests := []struct {
		population int
		want       bool
	}{
		{900, false},
		{1000, true},
		{1000, false}, // latched
		{950, false},  // releases the latch
		{1000, true},
	}

	for i, tt := range tests {
		bookmarks := bd.Check(WindowStats{WindowEndTick: int32(i * 600), Population: tt.population})
		if got := hasBookmark(bookmarks, BookmarkAtCapacity); got != tt.want {
			t.Errorf("window %d population %d: at_capacity = %v, want %v", i, tt.population, got, tt.want)
		}
	}
}

func TestBookmarkDetector_SteadyState(t *testing.T) {
	bd := NewBookmarkDetector(10, 2000)

	fired := 0
	for i := 0; i < 12; i++ {
		bookmarks := bd.Check(WindowStats{
			WindowEndTick: int32(i * 600),
			Population:    300 + i%2, // tiny jitter
			Spawned:       100,
			Absorbed:      100,
		})
		if hasBookmark(bookmarks, BookmarkSteadyState) {
			fired++
		}
	}
	if fired != 1 {
		t.Errorf("steady_state fired %d times, want exactly 1", fired)
	}
}

func TestBookmarkDetector_OscillatingIsNotSteady(t *testing.T) {
	bd := NewBookmarkDetector(10, 2000)

	// Mean 300, population std dev 40: CV² is 0.018, above the 0.01 bar.
	for i := 0; i < 12; i++ {
		bookmarks := bd.Check(WindowStats{
			WindowEndTick: int32(i * 600),
			Population:    260 + 80*(i%2),
		})
		if hasBookmark(bookmarks, BookmarkSteadyState) {
			t.Fatalf("window %d: steady_state fired for an oscillating population", i)
		}
	}
}

func TestBookmarkDetector_Unstable(t *testing.T) {
	bd := NewBookmarkDetector(10, 2000)

	bookmarks := bd.Check(WindowStats{WindowEndTick: 600, Population: 10, NonFinite: 3})
	if !hasBookmark(bookmarks, BookmarkUnstable) {
		t.Error("expected unstable bookmark on the first window")
	}
}
