// Package config loads a typed configuration file through viper, overlays environment
// variables and reloads the value when the file changes.
package config

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// DefaultDebounce groups bursts of file events (editors often write twice) into one reload.
const DefaultDebounce = 100 * time.Millisecond

// Config holds the current value of T decoded from a file.
type Config[T any] struct {
	v        *viper.Viper
	value    *T
	mu       sync.RWMutex
	watchers []func(old, new T)
	// reloading orders reloads so watchers see old/new pairs in sequence.
	reloading sync.Mutex

	watch    bool
	debounce time.Duration
	logger   zerolog.Logger
}

type Option[T any] func(*Config[T])

// WithDefaults registers values used when neither the file nor the environment sets a key.
// Nested keys use dots ("headers.x-tenant").
func WithDefaults[T any](defaults map[string]any) Option[T] {
	return func(c *Config[T]) {
		for k, v := range defaults {
			c.v.SetDefault(k, v)
		}
	}
}

// WithEnv lets PREFIX_KEY environment variables override keys. Dots and dashes in key
// names map to underscores, so "api-url" is read from PREFIX_API_URL.
func WithEnv[T any](prefix string) Option[T] {
	return func(c *Config[T]) {
		c.v.SetEnvPrefix(prefix)
		c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		c.v.AutomaticEnv()
	}
}

// WithoutWatch disables reloading on file changes.
func WithoutWatch[T any]() Option[T] {
	return func(c *Config[T]) { c.watch = false }
}

func WithDebounce[T any](d time.Duration) Option[T] {
	return func(c *Config[T]) { c.debounce = d }
}

// WithLogger reports reload failures and applied reloads.
func WithLogger[T any](l zerolog.Logger) Option[T] {
	return func(c *Config[T]) { c.logger = l }
}

// Load reads path (format picked from its extension) and starts watching it.
func Load[T any](path string, opts ...Option[T]) (*Config[T], error) {
	v := viper.New()
	v.SetConfigFile(path)

	c := &Config[T]{
		v:        v,
		watch:    true,
		debounce: DefaultDebounce,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	val, err := c.decode()
	if err != nil {
		return nil, errors.Wrapf(err, "decode config %s", path)
	}
	c.value = &val

	if c.watch {
		c.startWatch()
	}
	return c, nil
}

// Get returns a deep copy of the current value; it is safe for concurrent use.
func (c *Config[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return deepCopy(*c.value)
}

// OnChange registers a callback run after a reload that changed the value.
// A panicking callback does not stop the others.
func (c *Config[T]) OnChange(callback func(old, new T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watchers = append(c.watchers, callback)
}

// Path returns the file the value is read from.
func (c *Config[T]) Path() string {
	return c.v.ConfigFileUsed()
}

// Reload re-reads the file now and notifies watchers when the value changed. Watchers
// must not call Reload.
func (c *Config[T]) Reload() error {
	c.reloading.Lock()
	defer c.reloading.Unlock()

	old, val, watchers, err := c.reload()
	if err != nil {
		return err
	}
	c.notify(old, val, watchers)
	return nil
}

// Changed reports whether two values differ.
func Changed[T any](old, new T) bool {
	return !reflect.DeepEqual(old, new)
}

func (c *Config[T]) decode() (T, error) {
	var val T
	if err := c.v.Unmarshal(&val); err != nil {
		return val, err
	}
	return val, nil
}

// deepCopy round-trips src through JSON so callers never share maps or slices with the
// stored value.
func deepCopy[T any](src T) T {
	var dst T
	data, err := json.Marshal(src)
	if err != nil {
		return src
	}
	if err := json.Unmarshal(data, &dst); err != nil {
		return src
	}
	return dst
}

func (c *Config[T]) startWatch() {
	var (
		timer *time.Timer
		mu    sync.Mutex
	)

	c.v.OnConfigChange(func(ev fsnotify.Event) {
		if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(c.debounce, func() {
			if err := c.Reload(); err != nil {
				c.logger.Warn().Err(err).Str("path", c.Path()).Msg("config reload failed")
			}
		})
	})

	c.v.WatchConfig()
}

func (c *Config[T]) notify(old, val T, watchers []func(old, new T)) {
	if reflect.DeepEqual(old, val) {
		return
	}
	c.logger.Info().Str("path", c.Path()).Msg("config reloaded")
	for _, cb := range watchers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error().Interface("panic", r).Msg("config watcher panicked")
				}
			}()
			cb(old, val)
		}()
	}
}

// reload swaps in the new value and returns copies of the previous and new values with a
// snapshot of the watchers, all taken under one write lock. The previous value stays in
// place when reading or decoding fails.
func (c *Config[T]) reload() (T, T, []func(old, new T), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	if err := c.v.ReadInConfig(); err != nil {
		return zero, zero, nil, errors.Wrap(err, "read config")
	}
	val, err := c.decode()
	if err != nil {
		return zero, zero, nil, errors.Wrap(err, "decode config")
	}
	old := deepCopy(*c.value)
	c.value = &val

	watchers := make([]func(old, new T), len(c.watchers))
	copy(watchers, c.watchers)

	return old, deepCopy(val), watchers, nil
}
