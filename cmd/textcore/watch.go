package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/dshills/textcore/internal/config"
	"github.com/dshills/textcore/internal/engine"
	"github.com/dshills/textcore/internal/logging"
	"github.com/dshills/textcore/internal/script"
)

// watch reloads the input file into eng and reports again on every change
// until ctx is done. With a config file, log level changes take effect
// without a restart.
func watch(ctx context.Context, opts options, eng *engine.Engine, rt *script.Runtime, logger *logging.Logger, out io.Writer) error {
	log := logger.WithComponent("cli")

	var wg sync.WaitGroup
	if opts.ConfigPath != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := config.Watch(ctx, opts.ConfigPath, logger, func(cfg *config.Config) {
				if opts.LogLevel != "" {
					return
				}
				if level, ok := logging.ParseLevel(cfg.Log.Level); ok {
					logger.SetLevel(level)
					log.Info("log level set to %s", level)
				}
			})
			if err != nil {
				log.Warn("config watch stopped: %v", err)
			}
		}()
	}
	defer wg.Wait()

	log.Info("watching %s", opts.File)
	return config.WatchFile(ctx, opts.File, config.DefaultDebounce, logger, func() {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			log.Warn("reload failed: %v", err)
			return
		}
		if opts.NFC {
			data = norm.NFC.Bytes(data)
		}
		if err := eng.Reload(string(data)); err != nil {
			log.Warn("reload failed: %v", err)
			return
		}
		fmt.Fprintln(out)
		if err := writeReport(out, eng, rt, opts.Lines); err != nil {
			log.Warn("report failed: %v", err)
		}
	})
}
