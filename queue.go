package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

/* ---------------- album queue ---------------- */

// albumQueue consumes a plain-text FIFO of album matchers, one per line.
// A matcher prefixed with '!' requires full equality with an album name;
// anything else matches as a contiguous substring. Consumed matchers are
// appended to the archive file when one is configured.
type albumQueue struct {
	path        string
	archivePath string // empty disables the archive
}

// newAlbumQueue opens the queue at path, creating an empty queue file when
// none exists yet. This is the only place the file is created implicitly.
func newAlbumQueue(path, archivePath string) *albumQueue {
	q := &albumQueue{path: path, archivePath: archivePath}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logrus.Infof("queue: creating album queue file %q", path)
		if werr := q.writeQueue(nil); werr != nil {
			logrus.Errorf("queue: create failed: %v", werr)
		}
	}
	return q
}

// ConsumeNext scans matchers front to back and returns the first album from
// known that any matcher selects. The winning matcher is removed; matchers
// ahead of it are consumed by the scan, so a fruitless pass drains the file.
// Whatever remains is written back on every return path, match or not.
func (q *albumQueue) ConsumeNext(known []string) (album string, matched bool, err error) {
	data, rerr := os.ReadFile(q.path)
	if rerr != nil {
		if os.IsNotExist(rerr) {
			logrus.Warnf("queue: album queue file does not exist %q", q.path)
			return "", false, nil
		}
		return "", false, fmt.Errorf("read album queue: %w", rerr)
	}

	remaining := splitLines(string(data))
	if len(remaining) == 0 {
		return "", false, nil
	}
	logrus.Infof("queue: scanning %q", q.path)

	defer func() {
		if werr := q.writeQueue(remaining); werr != nil && err == nil {
			err = werr
		}
	}()

	for len(remaining) > 0 {
		matcher := strings.TrimSpace(remaining[0])
		remaining = remaining[1:]
		if matcher == "" {
			continue
		}
		for _, name := range known {
			if !matcherMatches(matcher, name) {
				continue
			}
			logrus.Infof("queue: matched %q against album %q", matcher, name)
			if aerr := q.appendArchive(matcher); aerr != nil {
				logrus.Errorf("queue: archive write failed: %v", aerr)
			}
			return name, true, nil
		}
	}

	logrus.Infof("queue: no matching album found in %q", q.path)
	return "", false, nil
} // func (q *albumQueue) ConsumeNext

// Depth returns the number of pending matcher lines.
func (q *albumQueue) Depth() int {
	data, err := os.ReadFile(q.path)
	if err != nil {
		return 0
	}
	n := 0
	for _, line := range splitLines(string(data)) {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

// matcherMatches applies the matcher's mode: '!'-prefixed exact, else
// substring.
func matcherMatches(matcher, album string) bool {
	if strings.HasPrefix(matcher, "!") {
		return strings.TrimLeft(matcher, "!") == album
	}
	return strings.Contains(album, matcher)
}

// writeQueue replaces the queue file contents with the given lines. The
// write goes through a temp file and rename so a crash mid-rewrite cannot
// truncate the queue.
func (q *albumQueue) writeQueue(lines []string) error {
	dir := filepath.Dir(q.path)
	tmp, err := os.CreateTemp(dir, ".albumq-*")
	if err != nil {
		return fmt.Errorf("write album queue: %w", err)
	}
	defer os.Remove(tmp.Name())

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		return fmt.Errorf("write album queue: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write album queue: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("write album queue: %w", err)
	}
	if err := os.Rename(tmp.Name(), q.path); err != nil {
		return fmt.Errorf("write album queue: %w", err)
	}
	logrus.Debugf("queue: wrote %d matchers to %q", len(lines), q.path)
	return nil
} // func (q *albumQueue) writeQueue

// appendArchive records a consumed matcher, verbatim, in the archive file.
func (q *albumQueue) appendArchive(matcher string) error {
	if q.archivePath == "" {
		return nil
	}
	f, err := os.OpenFile(q.archivePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(matcher + "\n")
	return err
}

// splitLines splits file contents into lines, dropping the trailing empty
// segment a final newline produces.
func splitLines(data string) []string {
	if data == "" {
		return nil
	}
	lines := strings.Split(data, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
