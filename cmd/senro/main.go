package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gizak/termui/v3"
	"go.uber.org/zap"
	"nyiyui.ca/hato/senro/config"
	"nyiyui.ca/hato/senro/kujo"
	"nyiyui.ca/hato/senro/layout"
	"nyiyui.ca/hato/senro/layout/preset/kato"
	"nyiyui.ca/hato/senro/store"
)

func main() {
	level := zap.LevelFlag("log-level", zap.InfoLevel, "set log level")
	configPath := flag.String("config", "senro.yaml", "path to config file")
	dbPath := flag.String("db-path", "", "path to database (overrides config)")
	listen := flag.String("listen", "", "address to serve events on (overrides config)")
	tui := flag.Bool("tui", false, "show the switch monitor (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db-path":
			cfg.DBPath = *dbPath
		case "listen":
			cfg.Listen = *listen
		case "tui":
			cfg.TUI = *tui
		}
	})

	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(*level)
	if cfg.TUI {
		zcfg.OutputPaths = []string{"senro.log"}
		zcfg.ErrorOutputPaths = []string{"senro.log"}
	}
	dev, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(dev)
	defer zap.S().Sync()

	err = run(cfg)
	if err != nil {
		zap.S().Fatalf("%s", err)
	}
}

func mapOptions(g config.Gauge) []layout.Option {
	switch g {
	case config.GaugeKato:
		return []layout.Option{kato.Scale()}
	default:
		return nil
	}
}

func loadMap(s *store.Store, cfg config.Config) (*layout.Map, error) {
	opts := mapOptions(cfg.Gauge)
	m, err := s.Load(cfg.MapID, opts...)
	if err == nil {
		zap.S().Infow("loaded map", "map", cfg.MapID, "tracks", len(m.Tracks()), "connections", len(m.Connections()))
		return m, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	m = layout.NewMap(opts...)
	if cfg.Demo {
		err = kato.Oval(m)
		if err != nil {
			return nil, fmt.Errorf("demo: %w", err)
		}
	}
	zap.S().Infow("created map", "map", cfg.MapID, "demo", cfg.Demo)
	return m, s.Save(cfg.MapID, m)
}

func run(cfg config.Config) error {
	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.DBPath, err)
	}
	defer s.Close()
	m, err := loadMap(s, cfg)
	if err != nil {
		return err
	}
	a := store.NewAutosaver(s, cfg.MapID, m)
	defer a.Close()

	zap.S().Infof("starting kujo…")
	k := kujo.NewServer()
	defer k.Close()
	k.Attach(m)
	k.PublishSnapshot(m.Snapshot())
	go func() {
		err := http.ListenAndServe(cfg.Listen, k.Handler())
		zap.S().Errorw("kujo stopped", "err", err)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var events <-chan termui.Event
	var mon *monitor
	if cfg.TUI {
		mon, err = newMonitor(m)
		if err != nil {
			return err
		}
		defer mon.close()
		events = termui.PollEvents()
		mon.render()
	}

	ticker := time.NewTicker(time.Duration(cfg.Tick))
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			zap.S().Infof("interrupted")
			return nil
		case now := <-ticker.C:
			m.Tick(now.Sub(last).Seconds())
			last = now
		case e := <-events:
			if mon.handle(e) {
				return nil
			}
		}
		if snap, ok := a.Sync(); ok {
			k.PublishSnapshot(snap)
		}
		if mon != nil {
			mon.render()
		}
	}
}
