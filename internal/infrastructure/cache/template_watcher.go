// Package cache keeps in-memory lookups in sync with the database through
// PostgreSQL LISTEN/NOTIFY.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"physio/internal/domain/physio"
	"physio/pkg/logger"
)

// InvalidationListener is called after a reload triggered by a notification.
type InvalidationListener func(channel string, payload string)

// TemplateWatcher reloads a TemplateRegistry whenever a template reference is
// saved, so a seed run is picked up without restarting the server.
type TemplateWatcher struct {
	pool     *pgxpool.Pool
	channel  string
	registry *physio.TemplateRegistry
	store    physio.TemplateStore

	listeners   []InvalidationListener
	listenersMu sync.RWMutex

	reloads int64
	statsMu sync.Mutex

	// Lifecycle
	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewTemplateWatcher creates a watcher on channel. pool may be nil in tests
// that drive notifications directly.
func NewTemplateWatcher(pool *pgxpool.Pool, channel string, registry *physio.TemplateRegistry, store physio.TemplateStore) *TemplateWatcher {
	return &TemplateWatcher{
		pool:     pool,
		channel:  channel,
		registry: registry,
		store:    store,
	}
}

// Start loads the registry and begins listening.
func (w *TemplateWatcher) Start(ctx context.Context) error {
	w.lifecycleMu.Lock()
	if w.started {
		w.lifecycleMu.Unlock()
		return nil
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.started = true
	w.lifecycleMu.Unlock()

	if err := w.registry.Load(w.ctx, w.store); err != nil {
		w.Stop()
		return fmt.Errorf("load templates: %w", err)
	}

	w.wg.Add(1)
	go w.listenLoop()
	logger.Info(w.ctx, "template watcher started", "channel", w.channel)
	return nil
}

// Stop gracefully stops the listener.
func (w *TemplateWatcher) Stop() {
	w.lifecycleMu.Lock()
	if !w.started {
		w.lifecycleMu.Unlock()
		return
	}
	cancel := w.cancel
	w.started = false
	w.cancel = nil
	w.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
	logger.Info(context.Background(), "template watcher stopped")
}

func (w *TemplateWatcher) listenLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		conn, err := w.pool.Acquire(w.ctx)
		if err != nil {
			logger.Error(w.ctx, "failed to acquire connection for LISTEN", "error", err)
			time.Sleep(time.Second)
			continue
		}

		_, err = conn.Exec(w.ctx, "LISTEN "+w.channel)
		if err != nil {
			logger.Error(w.ctx, "failed to LISTEN", "channel", w.channel, "error", err)
			conn.Release()
			time.Sleep(time.Second)
			continue
		}

		// Refs saved while no listener was attached would otherwise be missed.
		w.reload(w.ctx, "")

		w.waitForNotifications(conn)
		conn.Release()
	}
}

func (w *TemplateWatcher) waitForNotifications(conn *pgxpool.Conn) {
	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		ctx, cancel := context.WithTimeout(w.ctx, 30*time.Second)
		notification, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if w.ctx.Err() != nil {
				return
			}
			if ctx.Err() != nil {
				continue // timeout
			}
			logger.Warn(w.ctx, "template listener connection lost", "error", err)
			return
		}

		logger.Debug(w.ctx, "received notification",
			"channel", notification.Channel,
			"payload", notification.Payload)

		w.HandleNotification(w.ctx, notification.Channel, notification.Payload)
	}
}

// HandleNotification reloads the registry and fans out to listeners.
// Listener panics are recovered.
func (w *TemplateWatcher) HandleNotification(ctx context.Context, channel, payload string) {
	if channel != w.channel {
		return
	}
	w.reload(ctx, payload)

	w.listenersMu.RLock()
	defer w.listenersMu.RUnlock()
	for _, listener := range w.listeners {
		func(l InvalidationListener) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error(ctx, "listener panic recovered", "channel", channel, "panic", r)
				}
			}()
			l(channel, payload)
		}(listener)
	}
}

func (w *TemplateWatcher) reload(ctx context.Context, key string) {
	if err := w.registry.Load(ctx, w.store); err != nil {
		logger.Error(ctx, "failed to reload templates", "key", key, "error", err)
		return
	}
	w.statsMu.Lock()
	w.reloads++
	w.statsMu.Unlock()
	logger.Info(ctx, "templates reloaded", "key", key, "templates", len(w.registry.Keys()))
}

// OnInvalidation registers a callback run after each notification.
func (w *TemplateWatcher) OnInvalidation(listener InvalidationListener) {
	w.listenersMu.Lock()
	w.listeners = append(w.listeners, listener)
	w.listenersMu.Unlock()
}

// Reloads returns how many reloads succeeded.
func (w *TemplateWatcher) Reloads() int64 {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	return w.reloads
}
