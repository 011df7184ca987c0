// Package policy supplies the tier policy that bounds session creation, auto-restore and
// ephemeral mode.
package policy

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/tabvault/sessiond/src/sessiond/entity"
	"github.com/tabvault/sessiond/src/sessiond/internal/fs"
	"github.com/uber-go/tally"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:generate mockgen -destination=policymock/policy_mock.go -package=policymock . Provider

const _configKey = "policy"

// Module provides the policy Provider.
var Module = fx.Provide(New)

// Provider returns the policy currently in force.
type Provider interface {
	Policy(ctx context.Context) entity.Policy
}

// Config selects the policy source. When File is set the policy is read from that YAML file
// and reloaded whenever it changes. The inline values apply until the first successful read
// and fill any key the file omits.
type Config struct {
	File     string        `yaml:"file"`
	Defaults entity.Policy `yaml:"defaults"`
}

// Params are inbound parameters to initialize a new Provider.
type Params struct {
	fx.In

	Config    config.Provider
	Lifecycle fx.Lifecycle
	Logger    *zap.SugaredLogger
	Stats     tally.Scope
	FS        fs.SessiondFS
}

type static struct {
	policy entity.Policy
}

// NewStatic returns a Provider that always returns p.
func NewStatic(p entity.Policy) Provider {
	return static{policy: p}
}

func (s static) Policy(context.Context) entity.Policy {
	return s.policy
}

type fileProvider struct {
	path   string
	fs     fs.SessiondFS
	logger *zap.SugaredLogger
	stats  tally.Scope

	defaults entity.Policy

	mu     sync.RWMutex
	policy entity.Policy

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// New returns the configured Provider.
func New(p Params) (Provider, error) {
	var cfg Config
	if err := p.Config.Get(_configKey).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKey, err)
	}
	if cfg.File == "" {
		p.Logger.Infow("using static tier policy", "policy", cfg.Defaults)
		return NewStatic(cfg.Defaults), nil
	}

	fp := &fileProvider{
		path:     cfg.File,
		fs:       p.FS,
		logger:   p.Logger.With("component", "policy"),
		stats:    p.Stats.SubScope("policy"),
		defaults: cfg.Defaults,
		policy:   cfg.Defaults,
		done:     make(chan struct{}),
	}
	p.Lifecycle.Append(fx.Hook{
		OnStart: fp.start,
		OnStop:  fp.stop,
	})
	return fp, nil
}

func (f *fileProvider) Policy(context.Context) entity.Policy {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.policy
}

func (f *fileProvider) start(ctx context.Context) error {
	if err := f.reload(); err != nil {
		f.logger.Warnf("initial policy load failed, using defaults: %v", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create policy file watcher: %w", err)
	}
	// Watch the directory: editors commonly replace the file rather than write in place.
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch policy directory: %w", err)
	}
	f.watcher = watcher

	f.wg.Add(1)
	go f.watch()
	return nil
}

func (f *fileProvider) stop(ctx context.Context) error {
	if f.watcher == nil {
		return nil
	}
	close(f.done)
	err := f.watcher.Close()
	f.wg.Wait()
	return err
}

func (f *fileProvider) watch() {
	defer f.wg.Done()
	for {
		select {
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(f.path) {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if err := f.reload(); err != nil {
				f.logger.Warnf("policy reload failed, keeping previous policy: %v", err)
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.logger.Warnf("policy file watcher error: %v", err)
		case <-f.done:
			return
		}
	}
}

func (f *fileProvider) reload() error {
	data, err := f.fs.ReadFile(f.path)
	if err != nil {
		f.stats.Counter("reload_errors").Inc(1)
		return fmt.Errorf("reading %q: %w", f.path, err)
	}

	// Keys absent from the file fall back to the configured defaults.
	next := f.defaults
	if err := yaml.Unmarshal(data, &next); err != nil {
		f.stats.Counter("reload_errors").Inc(1)
		return fmt.Errorf("parsing %q: %w", f.path, err)
	}

	f.mu.Lock()
	f.policy = next
	f.mu.Unlock()
	f.stats.Counter("reloads").Inc(1)
	f.logger.Infow("tier policy loaded", "policy", next)
	return nil
}
