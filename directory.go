package main

import (
	"github.com/sirupsen/logrus"
)

/* ---------------- album directory ---------------- */

// albumDirectory derives album blocks from a playlist snapshot: the
// deduplicated album-name list in first-seen order plus the first and last
// playlist position of each album's block.
//
// The playlist is assumed to be sorted by album. If the same album name
// reappears in a later, disjoint block, the later block overwrites the
// earlier positions. Known limitation, kept as-is.
type albumDirectory struct {
	albums     []string
	firstPos   map[string]int
	lastPos    map[string]int
	boundaries int
}

func newAlbumDirectory() *albumDirectory {
	return &albumDirectory{
		firstPos: make(map[string]int),
		lastPos:  make(map[string]int),
	}
}

// Refresh rebuilds the directory from a playlist snapshot. A boundary is
// recorded whenever the album tag changes between adjacent tracks; the
// snapshot's first and last tracks open and close the outermost blocks.
// Tracks without an album tag are ignored.
func (d *albumDirectory) Refresh(tracks []Track) {
	d.albums = d.albums[:0]
	d.firstPos = make(map[string]int)
	d.lastPos = make(map[string]int)
	d.boundaries = 0

	seen := make(map[string]bool)
	var prev *Track
	for i := range tracks {
		t := &tracks[i]
		if t.Album == "" {
			logrus.Debugf("directory: no album tag, ignoring entry at pos %d", t.Pos)
			continue
		}
		if !seen[t.Album] {
			seen[t.Album] = true
			d.albums = append(d.albums, t.Album)
		}
		if prev == nil {
			d.firstPos[t.Album] = t.Pos
		} else if prev.Album != t.Album {
			d.lastPos[prev.Album] = prev.Pos
			d.firstPos[t.Album] = t.Pos
			d.boundaries++
		}
		prev = t
	}
	if prev != nil {
		d.lastPos[prev.Album] = prev.Pos
	}

	logrus.Infof("directory: resynced, %d albums, %d boundaries", len(d.albums), d.boundaries)
} // func (d *albumDirectory) Refresh

// IsLastInAlbum reports whether t sits at the recorded last position of its
// album. Tracks without an album tag are never last; this absorbs streams
// and untagged files without erroring.
func (d *albumDirectory) IsLastInAlbum(t Track) bool {
	if t.Album == "" {
		logrus.Debugf("directory: track has no album tag, ignoring: %s", songInfo(t))
		return false
	}
	last, ok := d.lastPos[t.Album]
	if !ok {
		logrus.Debugf("directory: no last position recorded for album %q", t.Album)
		return false
	}
	if t.Pos == last {
		logrus.Infof("directory: at last song of %q: %s", t.Album, songInfo(t))
		return true
	}
	logrus.Debugf("directory: not last song: %s, pos %d / last %d", songInfo(t), t.Pos, last)
	return false
}

// AlbumNames returns the album names in first-seen playlist order.
func (d *albumDirectory) AlbumNames() []string {
	return d.albums
}

// FirstPosition returns the recorded first playlist position for an album.
func (d *albumDirectory) FirstPosition(album string) (int, bool) {
	pos, ok := d.firstPos[album]
	return pos, ok
}

// LastPosition returns the recorded last playlist position for an album.
func (d *albumDirectory) LastPosition(album string) (int, bool) {
	pos, ok := d.lastPos[album]
	return pos, ok
}

// Contains reports whether an album name is present in the directory.
func (d *albumDirectory) Contains(album string) bool {
	_, ok := d.firstPos[album]
	if ok {
		return true
	}
	for _, a := range d.albums {
		if a == album {
			return true
		}
	}
	return false
}

// Boundaries returns the number of album transitions seen in the last
// snapshot.
func (d *albumDirectory) Boundaries() int {
	return d.boundaries
}
