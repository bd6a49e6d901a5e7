package main

import (
	"testing"

	"github.com/fhs/gompd/v2/mpd"
)

func TestTrackFromAttrs(t *testing.T) {
	tr := trackFromAttrs(mpd.Attrs{
		"Pos":   "4",
		"Album": "Spiderland",
		"Title": "Good Morning, Captain",
		"Track": "6",
		"Time":  "457",
	})
	want := Track{Pos: 4, Album: "Spiderland", Title: "Good Morning, Captain", Num: "6", Duration: 457, HasDuration: true}
	if tr != want {
		t.Fatalf("trackFromAttrs = %+v, want %+v", tr, want)
	}
}

func TestTrackFromAttrs_FractionalDuration(t *testing.T) {
	tr := trackFromAttrs(mpd.Attrs{"Pos": "0", "duration": "457.893"})
	if !tr.HasDuration || tr.Duration != 457 {
		t.Fatalf("duration = %d (has %v), want 457", tr.Duration, tr.HasDuration)
	}
}

func TestTrackFromAttrs_NoDuration(t *testing.T) {
	tr := trackFromAttrs(mpd.Attrs{"Pos": "2", "Album": "KEXP Stream"})
	if tr.HasDuration {
		t.Fatalf("stream entry should have no duration: %+v", tr)
	}
}
