package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkAtCapacity  BookmarkType = "at_capacity"
	BookmarkFlooding    BookmarkType = "flooding"
	BookmarkDrained     BookmarkType = "drained"
	BookmarkSteadyState BookmarkType = "steady_state"
	BookmarkUnstable    BookmarkType = "unstable"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the flow.
type BookmarkDetector struct {
	maxParticles int

	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentPeak         int  // peak population since the last drain
	atCapacity         bool // latched until the population drops below the cap
	stableWindowsCount int  // consecutive windows with stable population

	populations []float64 // scratch for the steady-state check
}

// NewBookmarkDetector creates a detector with the given history size.
// maxParticles is the emitter's population cap.
func NewBookmarkDetector(historySize, maxParticles int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for steady state detection
	}
	return &BookmarkDetector{
		maxParticles: maxParticles,
		history:      make([]WindowStats, historySize),
		historySize:  historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	// Non-finite state is reported even on the first window.
	if stats.NonFinite > 0 {
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkUnstable,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d particles with non-finite state", stats.NonFinite),
		})
	}

	if b := bd.checkAtCapacity(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	if bd.historyFull || bd.historyIdx > 0 {
		// Flooding: population rose every window while sinks kept up with under half the inflow
		if b := bd.checkFlooding(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Drained: dropped >50% from recent peak
		if b := bd.checkDrained(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Steady state: population present with low variance over 5+ windows
		if b := bd.checkSteadyState(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	if stats.Population > bd.recentPeak {
		bd.recentPeak = stats.Population
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// getHistory returns the stored windows oldest first.
func (bd *BookmarkDetector) getHistory() []WindowStats {
	if !bd.historyFull {
		return bd.history[:bd.historyIdx]
	}
	ordered := make([]WindowStats, 0, bd.historySize)
	ordered = append(ordered, bd.history[bd.historyIdx:]...)
	return append(ordered, bd.history[:bd.historyIdx]...)
}

func (bd *BookmarkDetector) checkAtCapacity(stats WindowStats) *Bookmark {
	if bd.maxParticles <= 0 {
		return nil
	}
	if stats.Population < bd.maxParticles {
		bd.atCapacity = false
		return nil
	}
	if bd.atCapacity {
		return nil
	}
	bd.atCapacity = true
	return &Bookmark{
		Type:        BookmarkAtCapacity,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Population reached the cap of %d, emitter paused", bd.maxParticles),
	}
}

func (bd *BookmarkDetector) checkFlooding(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	recent := history[len(history)-3:]
	prev := recent[0].Population
	for _, h := range recent[1:] {
		if h.Population <= prev {
			return nil
		}
		prev = h.Population
	}
	if stats.Population <= prev {
		return nil
	}
	if stats.Spawned == 0 || stats.Absorbed*2 >= stats.Spawned {
		return nil
	}

	return &Bookmark{
		Type:        BookmarkFlooding,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Population rising for 4 windows to %d, sinks absorbed %d of %d", stats.Population, stats.Absorbed, stats.Spawned),
	}
}

func (bd *BookmarkDetector) checkDrained(stats WindowStats) *Bookmark {
	if bd.recentPeak < 20 {
		return nil
	}

	dropPercent := 1.0 - float64(stats.Population)/float64(bd.recentPeak)
	if dropPercent > 0.50 {
		// Reset peak after drain
		oldPeak := bd.recentPeak
		bd.recentPeak = stats.Population

		return &Bookmark{
			Type:        BookmarkDrained,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Population drained %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.Population),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkSteadyState(stats WindowStats) *Bookmark {
	if stats.Population < 10 {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	bd.populations = bd.populations[:0]
	for _, h := range history[len(history)-4:] {
		bd.populations = append(bd.populations, float64(h.Population))
	}
	mean, variance := stat.PopMeanVariance(bd.populations, nil)

	// CV^2 < 0.01 means the population varies by under 10%
	if mean > 0 && variance/(mean*mean) < 0.01 {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkSteadyState,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Steady flow with %d particles over 5+ windows", stats.Population),
		}
	}

	return nil
}
