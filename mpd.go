package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/sirupsen/logrus"
)

/* ---------------- mpd connection ---------------- */

type mpdEnv struct {
	host   string
	port   int
	socket string
	pass   string
}

// parseMPDEnv reads MPD_HOST and MPD_PORT the way mpc does: the host part
// may be password@host, a /path or @abstract unix socket, or password@@abstract.
func parseMPDEnv() mpdEnv {
	var env mpdEnv
	if v := os.Getenv("MPD_HOST"); v != "" {
		switch {
		case strings.HasPrefix(v, "@"):
			// abstract socket, no password
			env.socket = v
		case strings.Contains(v, "@@"):
			// password@@abstract
			parts := strings.SplitN(v, "@@", 2)
			env.pass = parts[0]
			env.socket = "@" + parts[1]
		case strings.Contains(v, "@"):
			// password@tcp or password@socket
			parts := strings.SplitN(v, "@", 2)
			env.pass = parts[0]
			if strings.Contains(parts[1], "/") {
				env.socket = parts[1]
			} else {
				env.host = parts[1]
			}
		case strings.Contains(v, "/"):
			env.socket = v
		default:
			env.host = v
		}
	}
	if p := os.Getenv("MPD_PORT"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			env.port = n
		}
	}
	return env
} // func parseMPDEnv

// mpdAddr returns the network and address for the configured MPD endpoint,
// preferring the unix socket when one is set.
func mpdAddr(cfg settings) (network, addr string) {
	if cfg.mpdSocket != "" {
		return "unix", cfg.mpdSocket
	}
	return "tcp", fmt.Sprintf("%s:%d", cfg.mpdHost, cfg.mpdPort)
}

// dialMPD returns a connected, authenticated MPD client.
func dialMPD(cfg settings) (*mpd.Client, error) {
	network, addr := mpdAddr(cfg)
	c, err := mpd.Dial(network, addr)
	if err != nil {
		return nil, err
	}
	if cfg.mpdPass != "" {
		if err := c.Command("password %s", cfg.mpdPass).OK(); err != nil {
			c.Close()
			return nil, fmt.Errorf("password auth failed: %w", err)
		}
	}
	return c, nil
}

// newWatcher returns an MPD watcher subscribed to the player and playlist
// subsystems, the two the rotation engine cares about.
func newWatcher(cfg settings) (*mpd.Watcher, error) {
	network, addr := mpdAddr(cfg)
	return mpd.NewWatcher(network, addr, cfg.mpdPass, "player", "playlist")
}

/* ---------------- player adapter ---------------- */

// mpdPlayer adapts a gompd client to the monitor's player interface. The
// command connection is persistent and reused across cycles; Reset redials
// it after a protocol failure.
type mpdPlayer struct {
	c   *mpd.Client
	cfg settings
}

// dialPlayer establishes the command connection. A failure here is the
// fatal startup case.
func dialPlayer(cfg settings) (*mpdPlayer, error) {
	c, err := dialMPD(cfg)
	if err != nil {
		return nil, err
	}
	return &mpdPlayer{c: c, cfg: cfg}, nil
}

func (p *mpdPlayer) CurrentSong() (Track, bool, error) {
	attrs, err := p.c.CurrentSong()
	if err != nil {
		return Track{}, false, err
	}
	if len(attrs) == 0 {
		return Track{}, false, nil
	}
	return trackFromAttrs(attrs), true, nil
}

func (p *mpdPlayer) PlaylistTracks() ([]Track, error) {
	attrs, err := p.c.PlaylistInfo(-1, -1)
	if err != nil {
		return nil, err
	}
	tracks := make([]Track, 0, len(attrs))
	for _, a := range attrs {
		tracks = append(tracks, trackFromAttrs(a))
	}
	return tracks, nil
}

// AlbumTracks returns the playlist entries for one album, in playlist
// order, via playlistfind.
func (p *mpdPlayer) AlbumTracks(album string) ([]Track, error) {
	attrs, err := p.c.Command("playlistfind album %s", album).AttrsList("file")
	if err != nil {
		return nil, err
	}
	tracks := make([]Track, 0, len(attrs))
	for _, a := range attrs {
		tracks = append(tracks, trackFromAttrs(a))
	}
	return tracks, nil
}

func (p *mpdPlayer) Play(pos int) error {
	return p.c.Play(pos)
}

// Reset tears down and redials the command connection.
func (p *mpdPlayer) Reset() error {
	p.c.Close()
	c, err := dialMPD(p.cfg)
	if err != nil {
		return err
	}
	p.c = c
	logrus.Debug("mpd: command connection re-established")
	return nil
}

func (p *mpdPlayer) Close() {
	p.c.Close()
}
