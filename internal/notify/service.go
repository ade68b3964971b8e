// Package notify formats availability records into alert messages and
// delivers them to the fixed alert channel.
package notify

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"restockbot/internal/transport"
	"restockbot/pkg/logx"
)

type Config struct {
	// Channel is the fixed destination chat for restock alerts.
	Channel int64
	// RatePerSec bounds outbound sends (Telegram flood control). Default 3.
	RatePerSec int
	// QueueSize bounds the pending alert queue. Default 64.
	QueueSize int
}

// Service is an async delivery pipeline: bounded queue, one worker, token
// bucket rate limit. Delivery failures are logged and not retried; if the
// product stays in stock the dedup layer suppresses re-alerts anyway, so a
// retry here would either duplicate or race the next cycle.
type Service struct {
	log     logx.Logger
	adapter transport.Adapter
	channel transport.ChatTarget
	limiter *rate.Limiter

	queue chan string

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

func New(cfg Config, adapter transport.Adapter, log logx.Logger) *Service {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 3
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		log:     log,
		adapter: adapter,
		channel: transport.ChatTarget{ChatID: cfg.Channel},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		queue:   make(chan string, cfg.QueueSize),
		done:    make(chan struct{}),
	}
}

func (s *Service) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		go s.workerLoop(ctx)
	})
}

func (s *Service) workerLoop(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-s.queue:
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}
			sctx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := s.adapter.SendText(sctx, s.channel, text, &transport.SendOptions{DisablePreview: true})
			cancel()
			if err != nil {
				// Not retried: the next availability transition will alert again.
				s.log.Error("alert delivery failed", logx.Err(err), logx.Int64("chat", s.channel.ChatID))
			}
		}
	}
}

// Alert enqueues a message for the fixed alert channel. It never blocks: when
// the queue is full the message is dropped with an error log.
func (s *Service) Alert(text string) {
	select {
	case s.queue <- text:
	default:
		s.log.Error("alert queue full; dropping alert", logx.Int("queue_cap", cap(s.queue)))
	}
}

// Stop waits briefly for the worker to finish the in-flight send.
func (s *Service) Stop(ctx context.Context) {
	s.stopOnce.Do(func() {
		select {
		case <-s.done:
		case <-ctx.Done():
		case <-time.After(3 * time.Second):
		}
	})
}
