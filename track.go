package main

import (
	"fmt"
	"strconv"

	"github.com/fhs/gompd/v2/mpd"
)

// Track is one playlist entry as reported by MPD. Album and Duration are
// optional: MPD omits the tags for untagged files and streams, and not every
// format reports a length.
type Track struct {
	Pos         int    // position in the current playlist, zero-indexed
	Album       string // empty when the file has no album tag
	Title       string
	Num         string // track number tag, kept verbatim
	Duration    int    // seconds
	HasDuration bool
}

// trackFromAttrs builds a Track from the raw attribute map gompd returns.
// MPD sends "Time" (integer seconds) and, on newer servers, "duration"
// (fractional seconds); either one is accepted.
func trackFromAttrs(attrs mpd.Attrs) Track {
	t := Track{
		Album: attrs["Album"],
		Title: attrs["Title"],
		Num:   attrs["Track"],
	}
	t.Pos, _ = strconv.Atoi(attrs["Pos"])

	if v, err := strconv.Atoi(attrs["Time"]); err == nil && v > 0 {
		t.Duration = v
		t.HasDuration = true
	} else if f, err := strconv.ParseFloat(attrs["duration"], 64); err == nil && f > 0 {
		t.Duration = int(f)
		t.HasDuration = true
	}
	return t
} // func trackFromAttrs

// songInfo formats a track for log lines.
func songInfo(t Track) string {
	return fmt.Sprintf("[%s-%s-%s]", t.Num, t.Title, t.Album)
}
