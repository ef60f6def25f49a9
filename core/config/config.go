// Package config loads framework parameters from a file and can apply
// thread-count changes to a running framework when the file changes.
//
// Any format viper understands works; keys:
//
//	name: billing
//	workers: 8
//	min_workers: 4
//	max_workers: 16
//	node_mask: 0x1
//	processor_mask: 0xffffffff
//	yield: polite
package config

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/codewandler/actr-go/core/framework"
	"github.com/codewandler/actr-go/core/sched"
)

// Config is the file representation of framework parameters.
type Config struct {
	Name          string `mapstructure:"name"`
	Workers       uint32 `mapstructure:"workers"`
	MinWorkers    uint32 `mapstructure:"min_workers"`
	MaxWorkers    uint32 `mapstructure:"max_workers"`
	NodeMask      uint32 `mapstructure:"node_mask"`
	ProcessorMask uint32 `mapstructure:"processor_mask"`
	Yield         string `mapstructure:"yield"`
}

// Load reads and validates a config file.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if _, err := sched.ParseYieldStrategy(c.Yield); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Params converts the file representation into framework parameters.
func (c Config) Params() (framework.Params, error) {
	yield, err := sched.ParseYieldStrategy(c.Yield)
	if err != nil {
		return framework.Params{}, err
	}
	return framework.Params{
		Name:          c.Name,
		Workers:       c.Workers,
		NodeMask:      c.NodeMask,
		ProcessorMask: c.ProcessorMask,
		Yield:         yield,
	}, nil
}

// Watch applies min_workers and max_workers from path to fw every time the
// file changes. It returns a stop function releasing the watcher.
func Watch(path string, fw *framework.Framework, log *slog.Logger) (func(), error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("config", path))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: watch: %w", err)
	}
	// Watch the directory: editors replace files rather than write in
	// place, which drops watches on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}

	apply := func() {
		c, err := Load(path)
		if err != nil {
			log.Warn("reload failed", slog.Any("error", err))
			return
		}
		if c.MinWorkers > 0 {
			fw.SetMinWorkers(c.MinWorkers)
		}
		if c.MaxWorkers > 0 {
			fw.SetMaxWorkers(c.MaxWorkers)
		}
		log.Info("applied worker bounds",
			slog.Uint64("min", uint64(c.MinWorkers)),
			slog.Uint64("max", uint64(c.MaxWorkers)))
	}

	done := make(chan struct{})
	go func() {
		target := filepath.Clean(path)
		for {
			select {
			case <-done:
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) {
					apply()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("watch error", slog.Any("error", err))
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
