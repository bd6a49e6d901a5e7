package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

var version = "dev"

var (
	shutdown     = make(chan struct{})
	shutdownOnce sync.Once
)

func requestShutdown() {
	shutdownOnce.Do(func() {
		close(shutdown)
	})
}

func initShutdownHandler() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		requestShutdown()
	}()
}

func main() {
	var (
		fv          flagValues
		daemonMode  bool
		infoMode    bool
		debugMode   bool
		showVersion bool
		configFlag  string
		logPath     string
	)

	flag.BoolVarP(&daemonMode, "daemon", "d", false, "monitor MPD and rotate albums as they finish")
	flag.BoolVarP(&fv.passive, "passive", "p", false, "testing only: never change playback")
	flag.BoolVarP(&debugMode, "debug", "D", false, "enable debug logging")
	flag.BoolVarP(&infoMode, "info", "i", false, "print the album directory and current song, then exit")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.StringVar(&configFlag, "config", "", "path to config file")
	flag.StringVar(&logPath, "log", "", "write logs to file instead of stderr")
	flag.StringVar(&fv.mpdHost, "mpdhost", "", "MPD host <address>")
	flag.IntVar(&fv.mpdPort, "mpdport", 0, "MPD host <port>")
	flag.StringVar(&fv.mpdPass, "mpdpass", "", "MPD server password")
	flag.StringVar(&fv.mpdSocket, "mpdsocket", "", "MPD unix socket <path>")
	flag.StringVar(&fv.queuePath, "queue", "", "album queue file <path>")
	flag.StringVar(&fv.archivePath, "archive", "", "album queue archive <path> (empty disables)")
	flag.StringVar(&fv.suspendPath, "suspend", "", "suspend flag file <path>")
	flag.IntVar(&fv.wsPort, "wsport", 0, "status websocket port (0 disables)")
	flag.Parse()
	fv.archiveChanged = flag.CommandLine.Changed("archive")

	if showVersion {
		fmt.Printf("mpdgoalbum version %s\n", version)
		return
	}

	if debugMode {
		logrus.SetLevel(logrus.DebugLevel)
	}

	// --------------------------------------------------------------
	// Config precedence: flag > config file > environment > default
	// --------------------------------------------------------------
	fc, err := loadConfig(configFlag)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	env := parseMPDEnv()
	cfg := resolveSettings(fv, fc, env)

	if logPath == "" {
		logPath = fc.Log
	}
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			logrus.Fatalf("failed to open log file %s: %v", logPath, err)
		}
		logrus.SetOutput(f)
	}

	if cfg.passive {
		logrus.Info("passive mode: will not change playback")
	}

	// --------------------------------------------------------------
	// Connect. Failure here is the one fatal error.
	// --------------------------------------------------------------
	p, err := dialPlayer(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to MPD: %v", err)
	}
	defer p.Close()

	queue := newAlbumQueue(cfg.queuePath, cfg.archivePath)
	gate := suspendGate{path: cfg.suspendPath}
	mon := newMonitor(p, queue, newSelector(), gate, cfg.passive, shutdown)
	mon.watch = func() (*mpd.Watcher, error) { return newWatcher(cfg) }

	if err := mon.RefreshDirectory(); err != nil {
		logrus.Fatalf("initial playlist fetch failed: %v", err)
	}

	if infoMode {
		printInfo(p, mon)
		return
	}

	if !daemonMode {
		// One-shot: jump to the next album immediately.
		mon.rotate("")
		return
	}

	if cfg.wsPort > 0 {
		startStatusServer(cfg.wsPort, mon)
	}

	initShutdownHandler()
	if err := mon.Run(); err != nil {
		logrus.Fatalf("%v", err)
	}
	logrus.Info("shutdown complete")
} // func main

// printInfo dumps the derived album directory and the current song.
func printInfo(p *mpdPlayer, mon *Monitor) {
	fmt.Println("Albums:")
	for _, name := range mon.dir.AlbumNames() {
		first, _ := mon.dir.FirstPosition(name)
		last, _ := mon.dir.LastPosition(name)
		fmt.Printf("  %q  first=%d last=%d", name, first, last)
		if tracks, err := p.AlbumTracks(name); err == nil {
			fmt.Printf("  tracks=%d", len(tracks))
		}
		fmt.Println()
	}
	if t, ok, err := p.CurrentSong(); err == nil && ok {
		fmt.Printf("Current song: %s pos=%d\n", songInfo(t), t.Pos)
	} else {
		fmt.Println("Current song: none")
	}
} // func printInfo
