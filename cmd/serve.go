package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v3"

	"github.com/droneguard/droneguard/pkg/api"
	"github.com/droneguard/droneguard/pkg/broker"
	"github.com/droneguard/droneguard/pkg/config"
	"github.com/droneguard/droneguard/pkg/controller"
	"github.com/droneguard/droneguard/pkg/eventlog"
	"github.com/droneguard/droneguard/pkg/log"
	"github.com/droneguard/droneguard/pkg/mission"
	"github.com/droneguard/droneguard/pkg/ratelimit"
	"github.com/droneguard/droneguard/pkg/realtime"
	"github.com/droneguard/droneguard/pkg/uploads"
)

// ledgerSweepInterval bounds how long unacked command records survive.
const ledgerSweepInterval = time.Hour

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the coordination hub",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Override the configured listen address",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c.String("config"), c.String("listen"))
		},
	}
}

func serve(ctx context.Context, configPath, listenOverride string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if listenOverride != "" {
		cfg.ListenAddr = listenOverride
	}

	logger := log.ForService("serve")

	var events *eventlog.Store
	if path := cfg.EventStorePath(); path != "" {
		events, err = eventlog.Open(path)
		if err != nil {
			return fmt.Errorf("opening event store: %w", err)
		}
		defer func() {
			if err := events.Close(); err != nil {
				logger.Warnf("closing event store: %v", err)
			}
		}()
	} else {
		logger.Infof("event store disabled (no path configured)")
	}

	uploadStore, err := uploads.NewStore(cfg.Uploads.Dir)
	if err != nil {
		return fmt.Errorf("preparing upload directory: %w", err)
	}

	hub := realtime.NewHub(0)
	brk := broker.New(broker.Options{
		QueueCapacity: cfg.Broker.QueueCapacity,
		Hub:           hub,
	})
	defer brk.Close()

	// Commands and acks reach the event store through the hub so mission
	// dispatch is captured alongside operator commands. Intrusions and
	// uploads are recorded at their HTTP handlers, which carry more detail
	// than the hub frame.
	if events != nil {
		go recordActivity(hub, events)
	}

	limiter := ratelimit.New(cfg.RateLimit.Window.Duration, cfg.RateLimit.MaxEvents)

	advertisedHost := cfg.Mission.AdvertisedHost
	if advertisedHost == "" {
		advertisedHost = cfg.ListenAddr
	}
	dispatcher := mission.NewDispatcher(brk, cfg.Mission.DeviceID, advertisedHost)

	var ctrl controller.Client
	var runner *controller.MoveRunner
	if cfg.Controller.BaseURL != "" {
		httpCtrl, err := controller.NewHTTPClient(cfg.Controller.BaseURL, cfg.Controller.APIKey, cfg.Controller.Timeout.Duration)
		if err != nil {
			return fmt.Errorf("configuring controller client: %w", err)
		}
		ctrl = httpCtrl
		runner = controller.NewMoveRunner(ctrl)
		logger.Infof("direct control enabled against %s", httpCtrl.BaseURL())
	}

	server := api.NewServer(api.Options{
		Broker:         brk,
		Hub:            hub,
		Limiter:        limiter,
		Uploads:        uploadStore,
		Events:         events,
		Dispatcher:     dispatcher,
		Controller:     ctrl,
		Runner:         runner,
		APIKey:         cfg.APIKey,
		LanOnly:        cfg.IsLanOnly(),
		DeviceID:       cfg.Mission.DeviceID,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		Keepalive:      cfg.Broker.Keepalive.Duration,
		MoveFreqHz:     cfg.Controller.MoveFreqHz,
		RTMPIngestBase: cfg.Livestream.RTMPIngestBase,
		PlayBase:       cfg.Livestream.PlayBase,
	})

	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s (device_id=%s lan_only=%t)", cfg.ListenAddr, cfg.Mission.DeviceID, cfg.IsLanOnly())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	// Watch the config file so gate and rate-limit changes apply without a
	// restart. Editors replace files atomically, so rename/remove count as
	// changes too.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warnf("failed to create config file watcher: %v", err)
	} else {
		defer func() {
			if err := watcher.Close(); err != nil {
				logger.Warnf("failed to close config file watcher: %v", err)
			}
		}()
		if err := watcher.Add(configPath); err != nil {
			logger.Warnf("failed to watch config file %s: %v", configPath, err)
		} else {
			logger.Infof("watching config file for changes: %s", configPath)
		}
	}

	sweep := time.NewTicker(ledgerSweepInterval)
	defer sweep.Stop()

	var watchEvents chan fsnotify.Event
	var watchErrors chan error
	if watcher != nil {
		watchEvents = watcher.Events
		watchErrors = watcher.Errors
	}

	for {
		select {
		case err := <-serveErr:
			return fmt.Errorf("http server: %w", err)

		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				logger.Infof("received SIGHUP, reloading configuration")
				if err := reloadConfiguration(configPath, server, limiter); err != nil {
					logger.Errorf("reload failed: %v", err)
				}
			case syscall.SIGINT, syscall.SIGTERM:
				logger.Infof("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					logger.Warnf("shutdown: %v", err)
				}
				return nil
			}

		case <-sweep.C:
			if n := brk.SweepLedger(ledgerSweepInterval); n > 0 {
				logger.Infof("swept %d stale pending command(s)", n)
			}

		case event, ok := <-watchEvents:
			if !ok {
				watchEvents = nil
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				logger.Infof("config file changed (%s), reloading", event.Op.String())

				if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
					time.Sleep(200 * time.Millisecond)
					if _, err := os.Stat(configPath); os.IsNotExist(err) {
						logger.Warnf("config file removed and not replaced, skipping reload")
						continue
					}
					if err := watcher.Add(configPath); err != nil {
						logger.Warnf("failed to re-add config file to watcher: %v", err)
					}
				} else {
					time.Sleep(100 * time.Millisecond)
				}

				if err := reloadConfiguration(configPath, server, limiter); err != nil {
					logger.Errorf("reload after file change failed: %v", err)
				}
			}

		case err, ok := <-watchErrors:
			if !ok {
				watchErrors = nil
				continue
			}
			logger.Warnf("config file watcher error: %v", err)

		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Warnf("shutdown: %v", err)
			}
			return nil
		}
	}
}

// recordActivity drains hub command and ack events into the event store.
// Runs for the life of the process.
func recordActivity(hub *realtime.Hub, events *eventlog.Store) {
	logger := log.ForService("eventlog")
	_, ch := hub.Register()
	for ev := range ch {
		var err error
		switch ev.Kind {
		case realtime.KindCommand:
			err = events.RecordCommand(ev.DeviceID, ev.CommandID, ev.CmdType)
		case realtime.KindAck:
			ok, _ := ev.Detail["ok"].(bool)
			errMsg, _ := ev.Detail["error"].(string)
			err = events.RecordAck(ev.DeviceID, ev.CommandID, ok, errMsg)
		}
		if err != nil {
			logger.Warnf("recording %s event: %v", ev.Kind, err)
		}
	}
}

// reloadConfiguration re-reads the config and applies the hot-reloadable
// parts: the access gate and the intrusion rate limit. Listen address,
// storage paths, and controller wiring need a restart.
func reloadConfiguration(configPath string, server *api.Server, limiter *ratelimit.Limiter) error {
	newCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading new config: %w", err)
	}

	server.UpdateGate(newCfg.APIKey, newCfg.IsLanOnly())
	limiter.Update(newCfg.RateLimit.Window.Duration, newCfg.RateLimit.MaxEvents)

	log.ForService("serve").Infof("configuration reloaded")
	return nil
}
