package config

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce coalesces the bursts of write events editors produce for
// one save.
const DefaultDebounce = 50 * time.Millisecond

// Holder owns the live configuration of a process. Readers call Get; the
// file watcher, SIGHUP or an explicit Reload swap in a new value when it
// validates, and keep the old one otherwise.
type Holder struct {
	path     string
	logger   zerolog.Logger
	debounce time.Duration

	mu       sync.RWMutex
	current  *Config
	onChange []func(*Config)
	onError  []func(error)

	reloadMu sync.Mutex
	watcher  *fsnotify.Watcher
	stop     chan struct{}
	stopOnce sync.Once
}

// NewHolder loads path and returns a Holder serving it.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	cfg, err := Load(abs)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &Holder{
		path:     abs,
		logger:   logger.With().Str("config", abs).Logger(),
		debounce: DefaultDebounce,
		current:  cfg,
		stop:     make(chan struct{}),
	}, nil
}

// Get returns the current configuration. The value must not be modified.
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// OnChange registers fn to run after every successful reload.
func (h *Holder) OnChange(fn func(*Config)) {
	h.mu.Lock()
	h.onChange = append(h.onChange, fn)
	h.mu.Unlock()
}

// OnError registers fn to run when a reload is rejected.
func (h *Holder) OnError(fn func(error)) {
	h.mu.Lock()
	h.onError = append(h.onError, fn)
	h.mu.Unlock()
}

// Reload reads the file again. On failure the previous configuration stays
// in place and the error is returned after OnError listeners ran.
func (h *Holder) Reload() error {
	// Serialise reloads so listeners observe them in order.
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	next, err := Load(h.path)
	if err != nil {
		h.logger.Error().Err(err).Msg("config rejected, keeping previous")
		h.mu.RLock()
		listeners := append([]func(error){}, h.onError...)
		h.mu.RUnlock()
		for _, fn := range listeners {
			fn(err)
		}
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	prev := h.current
	h.current = next
	listeners := append([]func(*Config){}, h.onChange...)
	h.mu.Unlock()

	h.logChanges(prev, next)
	for _, fn := range listeners {
		fn(next)
	}
	h.logger.Info().Msg("config reloaded")
	return nil
}

// WatchFile reloads whenever the file is written or replaced. The parent
// directory is watched so atomic renames by editors are seen.
func (h *Holder) WatchFile() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(h.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(h.path), err)
	}
	h.watcher = w

	go h.watch(w)
	h.logger.Info().Msg("watching config file")
	return nil
}

// WatchSignals reloads on SIGHUP until Stop.
func (h *Holder) WatchSignals() {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)

	go func() {
		defer signal.Stop(hup)
		for {
			select {
			case <-hup:
				h.logger.Info().Msg("SIGHUP received")
				_ = h.Reload()
			case <-h.stop:
				return
			}
		}
	}()
}

// Stop ends file and signal watching. Calling it again has no effect.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
}

func (h *Holder) watch(w *fsnotify.Watcher) {
	name := filepath.Base(h.path)
	var pending *time.Timer
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			h.logger.Debug().Str("op", ev.Op.String()).Msg("config file event")
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(h.debounce, func() {
				select {
				case <-h.stop:
				default:
					_ = h.Reload()
				}
			})

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("config watcher error")

		case <-h.stop:
			return
		}
	}
}

func (h *Holder) logChanges(prev, next *Config) {
	if prev.Logging.Level != next.Logging.Level {
		h.logger.Info().
			Str("old", prev.Logging.Level).
			Str("new", next.Logging.Level).
			Msg("log level changed")
	}
	if prev.Database != next.Database {
		h.logger.Warn().
			Int("old_max_connections", prev.Database.MaxConnections).
			Int("new_max_connections", next.Database.MaxConnections).
			Msg("database settings changed, restart required")
	}
	if prev.Server != next.Server || prev.Metrics != next.Metrics || prev.Logging.Format != next.Logging.Format {
		h.logger.Warn().Msg("server, metrics or log format changed, restart required")
	}
}

// ReloadableFields lists the settings applied without a restart.
func ReloadableFields() []string {
	return []string{"logging.level"}
}

// NonReloadableFields lists the settings read once at startup.
func NonReloadableFields() []string {
	return []string{
		"database.driver",
		"database.url",
		"database.max_connections",
		"database.pool_timeout",
		"database.queue_capacity",
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"logging.format",
		"metrics.enabled",
		"metrics.path",
	}
}
