package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	defaultMPDHost = "localhost"
	defaultMPDPort = 6600

	queueEnvVar   = "MPD_RANDOM_ALBUM_QUEUE_FILE"
	archiveEnvVar = "MPD_RANDOM_ALBUM_QUEUE_ARCHIVE_FILE"
	suspendEnvVar = "MPD_RANDOM_SUSPEND_FILE"
)

// settings is the engine configuration, assembled once in main and handed
// to the components at construction. No ambient mutable state.
type settings struct {
	mpdHost   string
	mpdPort   int
	mpdPass   string
	mpdSocket string

	queuePath   string
	archivePath string // empty disables the archive
	suspendPath string

	passive bool
	wsPort  int // 0 disables the status endpoint
}

// fileConfig is the on-disk YAML config. Every field is optional; anything
// unset falls through to environment and defaults. ArchiveFile is a pointer
// so an explicit empty string can disable the archive.
type fileConfig struct {
	MPDHost     string  `yaml:"mpdhost"`
	MPDPort     int     `yaml:"mpdport"`
	MPDPass     string  `yaml:"mpdpass"`
	MPDSocket   string  `yaml:"mpdsocket"`
	QueueFile   string  `yaml:"queuefile"`
	ArchiveFile *string `yaml:"archivefile"`
	SuspendFile string  `yaml:"suspendfile"`
	WSPort      int     `yaml:"wsport"`
	Log         string  `yaml:"log"`
}

// loadConfig reads the YAML config from path, defaulting to
// ~/.config/mpdgoalbum.yaml. A missing file is not an error.
func loadConfig(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fc, nil
		}
		path = filepath.Join(home, ".config", "mpdgoalbum.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fc, nil
		}
		return fc, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config %s: %w", path, err)
	}
	logrus.Debugf("config: loaded %s", path)
	return fc, nil
} // func loadConfig

// flagValues carries what was given on the command line, with Changed
// markers where an explicit empty value means something.
type flagValues struct {
	mpdHost   string
	mpdPort   int
	mpdPass   string
	mpdSocket string

	queuePath      string
	archivePath    string
	archiveChanged bool
	suspendPath    string

	passive bool
	wsPort  int
}

// resolveSettings applies the precedence flag > config file > environment >
// default, field by field.
func resolveSettings(fv flagValues, fc fileConfig, env mpdEnv) settings {
	var cfg settings

	cfg.mpdHost = firstNonEmpty(fv.mpdHost, fc.MPDHost, env.host, defaultMPDHost)
	cfg.mpdPort = firstNonZero(fv.mpdPort, fc.MPDPort, env.port, defaultMPDPort)
	cfg.mpdPass = firstNonEmpty(fv.mpdPass, fc.MPDPass, env.pass)
	cfg.mpdSocket = firstNonEmpty(fv.mpdSocket, fc.MPDSocket, env.socket)

	cfg.queuePath = firstNonEmpty(fv.queuePath, fc.QueueFile, os.Getenv(queueEnvVar), defaultQueuePath())
	cfg.suspendPath = firstNonEmpty(fv.suspendPath, fc.SuspendFile, os.Getenv(suspendEnvVar), defaultSuspendPath())
	cfg.archivePath = resolveArchivePath(fv, fc, cfg.queuePath)

	cfg.passive = fv.passive
	cfg.wsPort = firstNonZero(fv.wsPort, fc.WSPort)

	return cfg
} // func resolveSettings

// resolveArchivePath follows the same precedence as the other paths, except
// that "set to empty" at any level disables the archive instead of falling
// through.
func resolveArchivePath(fv flagValues, fc fileConfig, queuePath string) string {
	if fv.archiveChanged {
		return fv.archivePath
	}
	if fc.ArchiveFile != nil {
		return *fc.ArchiveFile
	}
	if v, ok := os.LookupEnv(archiveEnvVar); ok {
		return v
	}
	return queuePath + ".archive"
}

// defaultQueuePath prefers the user's mpd config directory when one exists,
// else the system temp dir.
func defaultQueuePath() string {
	if home, err := os.UserHomeDir(); err == nil {
		if dirExists(filepath.Join(home, ".config", "mpd")) {
			return filepath.Join(home, ".config", "mpd", "mpd.albumq")
		}
		if dirExists(filepath.Join(home, ".mpd")) {
			return filepath.Join(home, ".mpd", "mpd.albumq")
		}
	}
	return filepath.Join(os.TempDir(), "mpd.albumq")
}

func defaultSuspendPath() string {
	return filepath.Join(os.TempDir(), "mpd.norandom")
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
