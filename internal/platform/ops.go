package platform

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/aretw0/quicknote/pkg/adapters/badger"
	"github.com/aretw0/quicknote/pkg/adapters/cache"
	"github.com/aretw0/quicknote/pkg/adapters/fs"
	"github.com/aretw0/quicknote/pkg/adapters/memory"
	"github.com/aretw0/quicknote/pkg/core"
)

// New opens the store at uri and returns the note/todo service over it.
// The uri is adapter-specific: a directory for "fs" and "badger", ignored
// for "memory".
func New(uri string, opts ...Option) (*core.Service, error) {
	storage, err := Init(uri, opts...)
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	serviceOpts := []core.ServiceOption{core.WithServiceLogger(o.logger)}
	if o.notifier != nil {
		serviceOpts = append(serviceOpts, core.WithNotifier(o.notifier))
	}
	if size, ok := o.config["event_buffer"].(int); ok {
		serviceOpts = append(serviceOpts, core.WithEventBuffer(size))
	}
	if now, ok := o.config["now"].(func() time.Time); ok && now != nil {
		serviceOpts = append(serviceOpts, core.WithNow(now))
	}
	return core.NewService(storage, serviceOpts...), nil
}

// Init builds and initializes the storage selected by the options.
func Init(uri string, opts ...Option) (core.Storage, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	storage := o.storage
	if storage == nil {
		var err error
		switch o.adapter {
		case "fs", "":
			storage = initFS(uri, o)
		case "badger":
			storage = initBadger(uri, o)
		case "memory":
			if readOnly, _ := o.config["read_only"].(bool); readOnly {
				storage = memory.NewReadOnly()
			} else {
				storage = memory.New()
			}
		default:
			err = fmt.Errorf("unknown adapter: %s", o.adapter)
		}
		if err != nil {
			return nil, err
		}
	}

	if size, _ := o.config["cache_size"].(int); size > 0 {
		cached, err := cache.New(storage, size, cache.WithLogger(o.logger))
		if err != nil {
			return nil, err
		}
		storage = cached
	}

	if err := storage.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return storage, nil
}

// resolvePath applies the dev sandbox rules to a directory uri.
func resolvePath(uri string, o *options) string {
	tempDir, _ := o.config["temp_dir"].(bool)
	readOnly, _ := o.config["read_only"].(bool)
	devSafety := true
	if val, ok := o.config["dev_safety"].(bool); ok {
		devSafety = val
	}

	bypassSafety := readOnly || !devSafety
	useTemp := tempDir || (IsDevRun() && !bypassSafety)
	resolved := ResolveStorePath(uri, useTemp)

	if o.logger != nil && useTemp {
		o.logger.Warn("running in SAFE MODE (dev sandbox)", "original_path", uri, "resolved_path", resolved)
	}
	return resolved
}

func initFS(uri string, o *options) core.Storage {
	mustExist, _ := o.config["must_exist"].(bool)
	readOnly, _ := o.config["read_only"].(bool)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))

	return fs.NewRepository(fs.Config{
		Path:         resolvePath(uri, o),
		MustExist:    mustExist,
		ReadOnly:     readOnly,
		Logger:       o.logger,
		ErrorHandler: errorHandler,
	})
}

func initBadger(uri string, o *options) core.Storage {
	readOnly, _ := o.config["read_only"].(bool)

	cfg := badger.DefaultConfig(filepath.Clean(resolvePath(uri, o)))
	cfg.ReadOnly = readOnly
	cfg.Logger = o.logger
	return badger.NewRepository(cfg)
}
