package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearRotationEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MPD_HOST", "")
	t.Setenv("MPD_PORT", "")
	os.Unsetenv("MPD_HOST")
	os.Unsetenv("MPD_PORT")
	for _, v := range []string{queueEnvVar, archiveEnvVar, suspendEnvVar} {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}

func TestLoadConfig_MissingFileIsNotAnError(t *testing.T) {
	fc, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if fc.MPDHost != "" || fc.MPDPort != 0 {
		t.Fatalf("missing config produced values: %+v", fc)
	}
}

func TestLoadConfig_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mpdgoalbum.yaml")
	err := os.WriteFile(path, []byte(strings.Join([]string{
		"mpdhost: jukebox",
		"mpdport: 6601",
		"queuefile: /var/lib/mpd/albumq",
		`archivefile: ""`,
		"wsport: 8008",
	}, "\n")), 0644)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	fc, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if fc.MPDHost != "jukebox" || fc.MPDPort != 6601 {
		t.Fatalf("config = %+v, want jukebox:6601", fc)
	}
	if fc.QueueFile != "/var/lib/mpd/albumq" {
		t.Fatalf("QueueFile = %q", fc.QueueFile)
	}
	if fc.ArchiveFile == nil || *fc.ArchiveFile != "" {
		t.Fatalf("ArchiveFile = %v, want explicit empty string", fc.ArchiveFile)
	}
	if fc.WSPort != 8008 {
		t.Fatalf("WSPort = %d, want 8008", fc.WSPort)
	}
}

func TestResolveSettings_Defaults(t *testing.T) {
	clearRotationEnv(t)
	t.Setenv("HOME", t.TempDir())

	cfg := resolveSettings(flagValues{}, fileConfig{}, parseMPDEnv())

	if cfg.mpdHost != defaultMPDHost || cfg.mpdPort != defaultMPDPort {
		t.Fatalf("mpd endpoint = %s:%d, want %s:%d", cfg.mpdHost, cfg.mpdPort, defaultMPDHost, defaultMPDPort)
	}
	if cfg.queuePath != filepath.Join(os.TempDir(), "mpd.albumq") {
		t.Fatalf("queuePath = %q, want temp-dir default", cfg.queuePath)
	}
	if cfg.suspendPath != filepath.Join(os.TempDir(), "mpd.norandom") {
		t.Fatalf("suspendPath = %q, want temp-dir default", cfg.suspendPath)
	}
	if cfg.archivePath != cfg.queuePath+".archive" {
		t.Fatalf("archivePath = %q, want derived from queue path", cfg.archivePath)
	}
}

func TestResolveSettings_QueuePathPrefersMPDConfigDir(t *testing.T) {
	clearRotationEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	if err := os.MkdirAll(filepath.Join(home, ".config", "mpd"), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	cfg := resolveSettings(flagValues{}, fileConfig{}, parseMPDEnv())
	want := filepath.Join(home, ".config", "mpd", "mpd.albumq")
	if cfg.queuePath != want {
		t.Fatalf("queuePath = %q, want %q", cfg.queuePath, want)
	}
}

func TestResolveSettings_Precedence(t *testing.T) {
	clearRotationEnv(t)
	t.Setenv("MPD_HOST", "envhost")
	t.Setenv(queueEnvVar, "/tmp/env.albumq")

	arch := "/tmp/conf.archive"
	fc := fileConfig{MPDHost: "confhost", MPDPort: 7000, ArchiveFile: &arch}
	fv := flagValues{mpdHost: "flaghost"}

	cfg := resolveSettings(fv, fc, parseMPDEnv())

	if cfg.mpdHost != "flaghost" {
		t.Fatalf("mpdHost = %q, want the flag to win", cfg.mpdHost)
	}
	if cfg.mpdPort != 7000 {
		t.Fatalf("mpdPort = %d, want the config value", cfg.mpdPort)
	}
	if cfg.queuePath != "/tmp/env.albumq" {
		t.Fatalf("queuePath = %q, want the environment value", cfg.queuePath)
	}
	if cfg.archivePath != "/tmp/conf.archive" {
		t.Fatalf("archivePath = %q, want the config value", cfg.archivePath)
	}
}

func TestResolveSettings_ArchiveDisabled(t *testing.T) {
	clearRotationEnv(t)

	// Explicit empty flag value disables.
	cfg := resolveSettings(flagValues{archivePath: "", archiveChanged: true}, fileConfig{}, mpdEnv{})
	if cfg.archivePath != "" {
		t.Fatalf("archivePath = %q, want disabled via flag", cfg.archivePath)
	}

	// Environment set to empty disables too.
	t.Setenv(archiveEnvVar, "")
	cfg = resolveSettings(flagValues{}, fileConfig{}, mpdEnv{})
	if cfg.archivePath != "" {
		t.Fatalf("archivePath = %q, want disabled via env", cfg.archivePath)
	}
}

func TestParseMPDEnv(t *testing.T) {
	cases := []struct {
		name string
		host string
		port string
		want mpdEnv
	}{
		{"plain host", "jukebox", "", mpdEnv{host: "jukebox"}},
		{"password and host", "secret@jukebox", "", mpdEnv{host: "jukebox", pass: "secret"}},
		{"unix socket", "/run/mpd/socket", "", mpdEnv{socket: "/run/mpd/socket"}},
		{"password and socket", "secret@/run/mpd/socket", "", mpdEnv{socket: "/run/mpd/socket", pass: "secret"}},
		{"abstract socket", "@mpd", "", mpdEnv{socket: "@mpd"}},
		{"password and abstract", "secret@@mpd", "", mpdEnv{socket: "@mpd", pass: "secret"}},
		{"port", "jukebox", "6601", mpdEnv{host: "jukebox", port: 6601}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("MPD_HOST", tc.host)
			if tc.port != "" {
				t.Setenv("MPD_PORT", tc.port)
			} else {
				t.Setenv("MPD_PORT", "")
				os.Unsetenv("MPD_PORT")
			}
			if got := parseMPDEnv(); got != tc.want {
				t.Fatalf("parseMPDEnv() = %+v, want %+v", got, tc.want)
			}
		})
	}
}
