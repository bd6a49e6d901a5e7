package main

import (
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

/* ---------------- random selector ---------------- */

// selector picks the next album at random, doing its best to avoid an
// immediate repeat of the current one.
type selector struct {
	rnd *rand.Rand
}

func newSelector() *selector {
	return &selector{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Choose returns the next album name. With no albums it returns current
// unchanged; with one it returns that album. Otherwise it makes up to three
// uniform draws, accepting the first that differs from current, and tolerates
// a repeat when all three draws land on it.
//
// The draw range excludes the final index of the list, so the last album in
// first-seen order is never reachable by random pick. Historical behavior,
// kept pending a deliberate decision.
func (s *selector) Choose(current string, albums []string) string {
	switch len(albums) {
	case 0:
		logrus.Warnf("selector: no albums found")
		return current
	case 1:
		logrus.Debugf("selector: only one album: %q", albums[0])
		return albums[0]
	}

	var name string
	for i := 0; i < 3; i++ {
		name = albums[s.rnd.Intn(len(albums)-1)]
		if name != current {
			break
		}
	}
	logrus.Infof("selector: picked album %q", name)
	return name
} // func (s *selector) Choose
