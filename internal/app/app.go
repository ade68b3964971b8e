// Package app wires the bot together: config, logging, catalog, stock
// client, monitor, notifier, history and the Telegram transport.
package app

import (
	"context"
	"sync"

	"github.com/coreos/go-systemd/v22/daemon"

	"restockbot/internal/bot"
	"restockbot/internal/catalog"
	"restockbot/internal/config"
	"restockbot/internal/history"
	"restockbot/internal/monitor"
	"restockbot/internal/notify"
	"restockbot/internal/stock"
	"restockbot/internal/transport"
	"restockbot/internal/transport/telegram"
	"restockbot/pkg/logx"
)

type App struct {
	cfg *config.Config
	log logx.Logger

	logClose func() error

	adapter *telegram.Adapter
	store   *catalog.Store
	hist    *history.Store
	notif   *notify.Service
	mon     *monitor.Monitor
	router  *bot.Router

	messages chan transport.Message

	bg     sync.WaitGroup
	cancel context.CancelFunc
}

func New(cfg *config.Config) (*App, error) {
	log, logClose, err := logx.New(logx.Config{
		Level:   cfg.LogLevel,
		Console: true,
		File:    logx.FileConfig{Enabled: cfg.LogFile != "", Path: cfg.LogFile},
	})
	if err != nil {
		return nil, err
	}

	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.Token,
		PollTimeout: cfg.PollTimeout,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		_ = logClose()
		return nil, err
	}

	store := catalog.NewStore(cfg.ProductsFile, log.With(logx.String("comp", "catalog")))
	if err := store.Load(); err != nil {
		// Unreadable configuration at startup is the one fatal error class.
		_ = logClose()
		return nil, err
	}

	// History is an aid, not a dependency: run without it if the DB won't open.
	hist, err := history.Open(cfg.HistoryDB, log.With(logx.String("comp", "history")))
	if err != nil {
		log.Warn("alert history disabled", logx.Err(err), logx.String("path", cfg.HistoryDB))
		hist = nil
	}

	notif := notify.New(notify.Config{Channel: cfg.ChannelID}, adapter, log.With(logx.String("comp", "notify")))

	client := stock.NewClient("", cfg.StockTimeout, log.With(logx.String("comp", "stock")))
	mon := monitor.New(store, client, notif, hist, log.With(logx.String("comp", "monitor")))

	router := bot.NewRouter(adapter, cfg.OperatorID, log.With(logx.String("comp", "commands")))
	bot.RegisterCommands(router, bot.Deps{Store: store, Monitor: mon, History: hist})

	return &App{
		cfg:      cfg,
		log:      log.With(logx.String("comp", "app")),
		logClose: logClose,
		adapter:  adapter,
		store:    store,
		hist:     hist,
		notif:    notif,
		mon:      mon,
		router:   router,
		messages: make(chan transport.Message, 256),
	}, nil
}

func (a *App) Start(ctx context.Context) error {
	sched, err := monitor.ParseSchedule(a.cfg.Schedule)
	if err != nil {
		return err
	}

	rctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.adapter.Start(rctx, a.messages); err != nil {
		cancel()
		return err
	}
	a.notif.Start(rctx)

	a.bg.Add(2)
	go func() {
		defer a.bg.Done()
		if err := a.store.Watch(rctx); err != nil {
			a.log.Warn("catalog watcher stopped", logx.Err(err))
		}
	}()
	go func() {
		defer a.bg.Done()
		_ = a.router.DispatchLoop(rctx, a.messages)
	}()

	if err := a.mon.Start(rctx, sched); err != nil {
		cancel()
		return err
	}

	a.log.Info("restock monitoring started",
		logx.Int("products", a.store.Len()),
		logx.String("schedule", a.cfg.Schedule),
		logx.Int64("channel", a.cfg.ChannelID),
	)

	// Under systemd Type=notify this flips the unit to active; elsewhere it is a no-op.
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Debug("sd_notify failed", logx.Err(err))
	}
	return nil
}

// Stop shuts down in dependency order: stop triggering new work, let the
// in-flight cycle finish, then close the sinks.
func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	a.mon.Stop()
	if a.cancel != nil {
		a.cancel()
	}
	a.bg.Wait()

	a.notif.Stop(ctx)
	err := a.adapter.Stop(ctx)

	if a.hist != nil {
		if cerr := a.hist.Close(); cerr != nil {
			a.log.Warn("history close failed", logx.Err(cerr))
		}
	}
	a.log.Info("shutdown complete")
	if a.logClose != nil {
		_ = a.logClose()
	}
	return err
}
