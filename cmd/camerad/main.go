package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/multierr"

	"github.com/lanikai/camerahal"
	"github.com/lanikai/camerahal/internal/config"
	"github.com/lanikai/camerahal/internal/fbdev"
	"github.com/lanikai/camerahal/internal/logging"
	"github.com/lanikai/camerahal/internal/memory"
	"github.com/lanikai/camerahal/internal/wsview"
)

// Populated via -ldflags="-X ...".
var GitRevisionId = "dev"

var log = logging.DefaultLogger.WithTag("camerad")

func loadConfig() *config.Config {
	cfg := config.Default()
	if flagConfig != "" {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			log.Fatal(err)
		}
		cfg = *loaded
	}

	// Options given on the command line override the file.
	set := flag.CommandLine.Changed
	if set("input") {
		cfg.Source = flagInput
	}
	if set("display") {
		cfg.Display.Kind = flagDisplay
	}
	if set("address") {
		cfg.Display.Address = flagAddress
	}
	if set("framebuffer") {
		cfg.Display.Framebuffer = flagFB
	}
	if set("record") {
		cfg.Recording.Enabled = flagRecord
	}
	if set("allocator") {
		cfg.Recording.Allocator = flagAllocator
	}
	if set("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if err := config.Validate(&cfg); err != nil {
		log.Fatal(err)
	}
	return &cfg
}

func main() {
	flag.Parse()
	if flagHelp {
		help()
		os.Exit(0)
	}
	if flagVersion {
		version()
		os.Exit(0)
	}

	cfg := loadConfig()
	if err := logging.Configure(cfg.LogLevel); err != nil {
		log.Fatal(err)
	}

	dev, err := camerahal.Open(cfg.Source, deviceConfig(cfg))
	if err != nil {
		log.Fatal(err)
	}
	log.Info("camera session %v", dev.Session())

	var shutdown []func() error
	switch cfg.Display.Kind {
	case config.DisplayWebsocket:
		s := wsview.NewSurface()
		srv := wsview.NewServer(cfg.Display.Address, s)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warn("viewer server: %v", err)
			}
		}()
		shutdown = append(shutdown, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		})
		if err := dev.SetPreviewWindow(s); err != nil {
			log.Fatal(err)
		}
	case config.DisplayFramebuffer:
		fb, err := fbdev.Open(cfg.Display.Framebuffer)
		if err != nil {
			log.Fatal(err)
		}
		shutdown = append(shutdown, fb.Close)
		if err := dev.SetPreviewWindow(fb); err != nil {
			log.Fatal(err)
		}
	}

	var videoFrames, videoBytes uint64
	if cfg.Recording.Enabled {
		var alloc camerahal.Allocator = memory.HeapAllocator{}
		if cfg.Recording.Allocator == config.AllocatorMmap {
			alloc = memory.MmapAllocator{}
		}
		dev.SetCallbacks(camerahal.Callbacks{
			Notify: func(msg camerahal.MsgType, ext1, ext2 int32) {
				log.Warn("camera reported %v (%d, %d)", msg, ext1, ext2)
			},
			DataTimestamp: func(ts time.Duration, msg camerahal.MsgType, mem *camerahal.Memory) {
				atomic.AddUint64(&videoFrames, 1)
				atomic.AddUint64(&videoBytes, uint64(mem.Len()))
				dev.ReleaseRecordingFrame(mem.Bytes())
			},
		}, alloc)
		dev.EnableMsgType(camerahal.MsgVideoFrame | camerahal.MsgError)
		if err := dev.StartRecording(); err != nil {
			log.Fatal(err)
		}
	}

	if err := dev.StartPreview(); err != nil {
		log.Fatal(err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	var tick <-chan time.Time
	if cfg.StatsInterval > 0 {
		ticker := time.NewTicker(cfg.StatsInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

loop:
	for {
		select {
		case s := <-sig:
			log.Info("%v received, shutting down", s)
			break loop
		case <-tick:
			st := dev.PreviewStats()
			log.Info("preview: %d shown, %d cancelled, %d dropped, %d lock retries; video: %d frames, %d bytes",
				st.Enqueued, st.Cancelled, st.Dropped, st.LockRetries,
				atomic.LoadUint64(&videoFrames), atomic.LoadUint64(&videoBytes))
		}
	}

	dev.StopPreview()
	dev.StopRecording()
	if err := teardown(dev, shutdown); err != nil {
		log.Warn("shutdown: %v", err)
	}
}

// deviceConfig maps the file's preview settings onto camerahal.Config, where
// zero means "use the default" rather than "none".
func deviceConfig(cfg *config.Config) camerahal.Config {
	dc := camerahal.Config{
		LockRetries:  cfg.Preview.LockRetries,
		LockInterval: cfg.Preview.LockInterval,
	}
	if dc.LockRetries == 0 {
		dc.LockRetries = -1
	}
	if dc.LockInterval == 0 {
		dc.LockInterval = -1
	}
	return dc
}

// teardown closes the camera before the display it feeds, then runs every
// display shutdown even if an earlier step failed.
func teardown(dev io.Closer, shutdown []func() error) error {
	err := dev.Close()
	for _, fn := range shutdown {
		err = multierr.Append(err, fn())
	}
	return err
}
