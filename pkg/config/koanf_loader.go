package config

import (
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoaderOptions configures one Loader. Genesis only ever reads config
// from a local YAML file; the teacher's consul/etcd/zookeeper providers
// are not wired here (see DESIGN.md).
type LoaderOptions struct {
	Path string

	// Watch, when true, reloads Config on file changes via fsnotify and
	// invokes OnChange with the newly loaded value.
	Watch    bool
	OnChange func(*Config) error
}

// Loader loads and optionally watches a YAML config file.
type Loader struct {
	koanf   *koanf.Koanf
	options LoaderOptions
	parser  *yaml.YAML
}

// NewLoader builds a Loader for opts.Path.
func NewLoader(opts LoaderOptions) (*Loader, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("config: path is required")
	}
	return &Loader{
		koanf:   koanf.New("."),
		options: opts,
		parser:  yaml.Parser(),
	}, nil
}

// Load reads the config file, expands environment variable references,
// applies defaults, and validates the result.
func (l *Loader) Load() (*Config, error) {
	if err := l.koanf.Load(file.Provider(l.options.Path), l.parser); err != nil {
		return nil, fmt.Errorf("config: loading %s: %w", l.options.Path, err)
	}
	cfg, err := l.unmarshal()
	if err != nil {
		return nil, err
	}

	if l.options.Watch {
		go l.watch()
	}

	return cfg, nil
}

func (l *Loader) unmarshal() (*Config, error) {
	raw := l.koanf.Raw()
	expanded, ok := ExpandEnvVarsInData(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("config: unexpected shape after env expansion")
	}

	reloaded := koanf.New(".")
	if err := reloaded.Load(confmap.Provider(expanded, "."), nil); err != nil {
		return nil, fmt.Errorf("config: reloading expanded values: %w", err)
	}

	cfg := &Config{}
	if err := reloaded.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}

	cfg.LLM.APIKey = GetProviderAPIKey(cfg.LLM.Provider)

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// watch reloads the config whenever the underlying file changes,
// invoking OnChange with the freshly parsed value. Errors are logged,
// never fatal, since a bad reload should not take down a running server.
func (l *Loader) watch() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("config: failed to start file watcher", "error", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(l.options.Path); err != nil {
		slog.Warn("config: failed to watch config file", "path", l.options.Path, "error", err)
		return
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			l.koanf = koanf.New(".")
			cfg, err := l.Load()
			if err != nil {
				slog.Warn("config: reload failed", "error", err)
				continue
			}
			if l.options.OnChange != nil {
				if err := l.options.OnChange(cfg); err != nil {
					slog.Warn("config: OnChange callback failed", "error", err)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("config: watcher error", "error", err)
		}
	}
}

// LoadConfig is a one-shot convenience wrapper around NewLoader and Load;
// cmd/genesis calls those two directly.
func LoadConfig(opts LoaderOptions) (*Config, error) {
	loader, err := NewLoader(opts)
	if err != nil {
		return nil, err
	}
	return loader.Load()
}
