package main

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/sirupsen/logrus"
)

// player is the capability set the monitor needs from the MPD connection.
// Satisfied by mpdPlayer; tests substitute a fake.
type player interface {
	// CurrentSong returns the playing track; ok is false when MPD reports
	// no current song (stopped, playlist exhausted).
	CurrentSong() (t Track, ok bool, err error)
	// PlaylistTracks returns the full playlist snapshot in order.
	PlaylistTracks() ([]Track, error)
	// Play starts playback at a playlist position.
	Play(pos int) error
	// Reset re-establishes the command connection after a protocol error.
	Reset() error
}

const (
	// Window for gathering the burst of subsystem names one idle return can
	// produce. Streams report player and playlist together on song change;
	// the playlist-only case must be told apart from that.
	idleBurstWindow = 100 * time.Millisecond

	reconnectDelay = 2 * time.Second

	// A track that ends within this many seconds of its reported length is
	// taken to have ended on its own.
	boundarySlack = 5.0
)

/* ---------------- playback monitor ---------------- */

// Monitor is the daemon's event loop. It blocks on MPD idle notifications,
// watches for the last track of an album block finishing, and then hands off
// to the queue (or the random selector) to start the next album.
//
// Everything runs on the loop goroutine; mu only covers the fields the
// status endpoint reads from outside.
type Monitor struct {
	p     player
	queue *albumQueue
	sel   *selector
	gate  suspendGate

	passive  bool
	shutdown <-chan struct{}
	watch    func() (*mpd.Watcher, error)
	now      func() time.Time

	timeSongStart time.Time

	mu        sync.Mutex
	dir       *albumDirectory
	lastAlbum string
	rotations int
}

func newMonitor(p player, queue *albumQueue, sel *selector, gate suspendGate, passive bool, shutdown <-chan struct{}) *Monitor {
	return &Monitor{
		p:        p,
		queue:    queue,
		sel:      sel,
		gate:     gate,
		passive:  passive,
		shutdown: shutdown,
		now:      time.Now,
		dir:      newAlbumDirectory(),
	}
}

// RefreshDirectory rebuilds the album directory from the current playlist.
func (m *Monitor) RefreshDirectory() error {
	tracks, err := m.p.PlaylistTracks()
	if err != nil {
		return fmt.Errorf("playlist snapshot: %w", err)
	}
	m.mu.Lock()
	m.dir.Refresh(tracks)
	m.mu.Unlock()
	return nil
}

// Run drives the idle loop until shutdown. Failing to establish the first
// watcher connection is fatal and returned to the caller; anything after
// that is logged, survived, and retried.
func (m *Monitor) Run() error {
	w, err := m.watch()
	if err != nil {
		return fmt.Errorf("connect to MPD for idle: %w", err)
	}

	for {
		go drainWatcherErrors(w)
		logrus.Info("monitor: MPD connection established, entering idle loop")

		err := m.run(w.Event)
		w.Close()
		if err == nil {
			return nil // shutdown
		}
		logrus.Errorf("monitor: idle loop exited: %v, reconnecting in %s", err, reconnectDelay)

		for {
			select {
			case <-m.shutdown:
				return nil
			case <-time.After(reconnectDelay):
			}
			w, err = m.watch()
			if err == nil {
				break
			}
			logrus.Errorf("monitor: watcher init failed: %v, retrying in %s", err, reconnectDelay)
		}
	}
} // func (m *Monitor) Run

// run handles wake cycles on one watcher connection. Returns nil on
// shutdown, an error when the watcher dies and a reconnect is needed.
func (m *Monitor) run(events <-chan string) error {
	m.timeSongStart = m.now()
	for {
		// Snapshot before blocking: once the next track has started it is
		// too late to ask whether the previous one closed its album.
		prev, prevOK, err := m.p.CurrentSong()
		if err != nil {
			m.cycleFailure(err)
			select {
			case <-m.shutdown:
				return nil
			case <-time.After(reconnectDelay):
			}
			continue
		}
		atLast := false
		if prevOK {
			atLast = m.isLastInAlbum(prev)
		}

		select {
		case <-m.shutdown:
			logrus.Info("monitor: idle loop received shutdown")
			return nil
		case first, open := <-events:
			if !open {
				return fmt.Errorf("watcher closed")
			}
			changed := collectChanged(events, first)
			logrus.Debugf("monitor: idle wakeup, changed subsystems: %v", changed)
			if err := m.evaluate(changed, prev, prevOK, atLast); err != nil {
				m.cycleFailure(err)
			}
		}
	}
} // func (m *Monitor) run

// evaluate classifies one wake cycle and decides whether to rotate.
func (m *Monitor) evaluate(changed []string, prev Track, prevOK, atLast bool) error {
	if len(changed) == 1 && changed[0] == "playlist" {
		// Only the playlist itself changed; resync and re-arm.
		return m.RefreshDirectory()
	}

	if !atLast {
		// Ignore everything unless the previous song closed its album.
		// This deliberately swallows the user skipping around mid-album;
		// the goal is catching the end of the album, nothing else.
		return nil
	}

	curr, ok, err := m.p.CurrentSong()
	if err != nil {
		return fmt.Errorf("currentsong: %w", err)
	}

	if !ok {
		logrus.Info("monitor: end of playlist detected")
		m.rotate(prev.Album)
		return nil
	}

	if curr.Pos != prev.Pos && curr.Album != prev.Album {
		logrus.Debugf("monitor: song change detected: prev %s curr %s", songInfo(prev), songInfo(curr))
		if m.boundaryAccepted(prev) {
			m.rotate(prev.Album)
			m.timeSongStart = m.now()
		}
	}
	return nil
} // func (m *Monitor) evaluate

// boundaryAccepted applies the timing heuristic that tells a track ending on
// its own apart from the user jumping albums during the last track. Without
// a known duration there is nothing to compare against, so the boundary is
// taken at face value.
func (m *Monitor) boundaryAccepted(prev Track) bool {
	if !prev.HasDuration {
		return true
	}
	elapsed := m.now().Sub(m.timeSongStart).Seconds()
	diff := float64(prev.Duration) - elapsed
	if math.Abs(diff) < boundarySlack || math.Abs(diff) > float64(prev.Duration) {
		logrus.Debugf("monitor: album change accepted, time_diff %d-%.0f=%.0f", prev.Duration, elapsed, diff)
		return true
	}
	logrus.Debugf("monitor: user changed song at end of album, not rotating, time_diff %d-%.0f=%.0f", prev.Duration, elapsed, diff)
	return false
}

// rotate picks and starts the next album: suspend gate first, then the
// queue, then a random pick avoiding avoidAlbum. A selection that no longer
// resolves against the directory abandons this attempt without touching
// playback.
func (m *Monitor) rotate(avoidAlbum string) {
	if m.gate.Suspended() {
		logrus.Infof("rotate: suspended by presence of %s, not choosing next album", m.gate.path)
		return
	}

	m.mu.Lock()
	names := append([]string(nil), m.dir.AlbumNames()...)
	m.mu.Unlock()

	album, matched, err := m.queue.ConsumeNext(names)
	if err != nil {
		logrus.Errorf("rotate: album queue: %v", err)
	}
	if !matched {
		album = m.sel.Choose(avoidAlbum, names)
	}
	if album == "" {
		logrus.Error("rotate: could not find an album to play")
		return
	}

	m.mu.Lock()
	known := m.dir.Contains(album)
	first, hasFirst := m.dir.FirstPosition(album)
	m.mu.Unlock()
	if !known {
		logrus.Errorf("rotate: album %q not found in stored list", album)
		return
	}
	if !hasFirst {
		logrus.Errorf("rotate: no first position recorded for album %q", album)
		return
	}

	m.mu.Lock()
	m.lastAlbum = album
	m.rotations++
	m.mu.Unlock()

	if m.passive {
		logrus.Infof("rotate: passive mode, would play %q at position %d", album, first)
		return
	}
	if err := m.p.Play(first); err != nil {
		logrus.Errorf("rotate: play %d failed: %v", first, err)
		return
	}
	logrus.Infof("rotate: playing album %q from position %d", album, first)
} // func (m *Monitor) rotate

// cycleFailure is the catch for anything unexpected inside a cycle: log it,
// refresh the command connection, and force a rotation with no avoid hint.
// Better to pick some album than to wedge the loop.
func (m *Monitor) cycleFailure(err error) {
	logrus.Errorf("monitor: unexpected error in cycle: %v", err)
	if rerr := m.p.Reset(); rerr != nil {
		logrus.Errorf("monitor: reconnect failed: %v", rerr)
	}
	m.rotate("")
}

func (m *Monitor) isLastInAlbum(t Track) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dir.IsLastInAlbum(t)
}

// collectChanged gathers the burst of subsystem names a single idle return
// can produce. The watcher delivers them one by one on the same channel, so
// a short window is left open before classifying the wake.
func collectChanged(events <-chan string, first string) []string {
	changed := []string{first}
	timer := time.NewTimer(idleBurstWindow)
	defer timer.Stop()
	for {
		select {
		case s, ok := <-events:
			if !ok {
				return changed
			}
			changed = append(changed, s)
		case <-timer.C:
			return changed
		}
	}
}

// drainWatcherErrors logs lower-level watcher errors (EOF, broken pipe).
// They do not necessarily stop the event channel, so they are surfaced for
// correlation only.
func drainWatcherErrors(w *mpd.Watcher) {
	for err := range w.Error {
		logrus.Errorf("monitor: watcher error: %v", err)
	}
}
