package modelcache

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"accentscope/internal/logging"
	"accentscope/internal/services"
)

// Cache subdirectories.
const (
	HuggingFaceDir  = "huggingface"
	TransformersDir = "transformers"
	TorchDir        = "torch"
	SpeechBrainDir  = "speechbrain"
	locksDir        = "locks"
)

// lockRetryDelay is how often a blocked Acquire polls the model lock.
const lockRetryDelay = 250 * time.Millisecond

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Cache is the model cache configuration shared by all classifiers.
type Cache struct {
	root     string
	registry *Registry
	logger   *slog.Logger
}

// Open prepares the cache directory and its registry.
func Open(root string, logger *slog.Logger) (*Cache, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, services.Wrap(services.ErrConfiguration, "modelcache", "open", "cache root is empty", nil)
	}
	for _, dir := range []string{root, filepath.Join(root, locksDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "modelcache", "create directory", dir, err)
		}
	}
	registry, err := OpenRegistry(filepath.Join(root, RegistryFileName))
	if err != nil {
		return nil, err
	}
	return &Cache{
		root:     root,
		registry: registry,
		logger:   logging.NewComponentLogger(logger, "modelcache"),
	}, nil
}

// Close releases the registry.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.registry.Close()
}

// Root returns the cache directory.
func (c *Cache) Root() string {
	return c.root
}

// Registry exposes the cache bookkeeping.
func (c *Cache) Registry() *Registry {
	return c.registry
}

// Env returns the environment entries that point model libraries at the cache.
// Entries are appended to a single command's environment, never the process's.
func (c *Cache) Env() []string {
	hf := filepath.Join(c.root, HuggingFaceDir)
	return []string{
		"HF_HOME=" + hf,
		"HUGGINGFACE_HUB_CACHE=" + filepath.Join(hf, "hub"),
		"TRANSFORMERS_CACHE=" + filepath.Join(c.root, TransformersDir),
		"TORCH_HOME=" + filepath.Join(c.root, TorchDir),
	}
}

// ModelDir returns the directory where a model's local copy is saved.
func (c *Cache) ModelDir(name string) string {
	return filepath.Join(c.root, SpeechBrainDir, SanitizeName(name))
}

// SanitizeName turns a model source such as "speechbrain/lang-id" into a
// filesystem-safe directory name.
func SanitizeName(name string) string {
	cleaned := unsafeNameChars.ReplaceAllString(strings.TrimSpace(name), "_")
	cleaned = strings.Trim(cleaned, "._")
	if cleaned == "" {
		return "model"
	}
	return cleaned
}

// Lease is a held model lock. Release must be called when the model run finishes.
type Lease struct {
	Dir       string
	FirstUse  bool
	lock      *flock.Flock
	cache     *Cache
	name      string
	source    string
	succeeded bool
}

// Done marks the model run as successful so Release records the use.
func (l *Lease) Done() {
	l.succeeded = true
}

// Release unlocks the model and, when Done was called, updates the registry.
func (l *Lease) Release(ctx context.Context) {
	if l == nil {
		return
	}
	if l.succeeded {
		if err := l.cache.registry.Touch(context.WithoutCancel(ctx), l.name, l.source, l.Dir); err != nil {
			logging.WarnWithContext(l.cache.logger, "model registry update failed", "model_registry_failed",
				logging.String("model", l.name),
				logging.Error(err),
				logging.String(logging.FieldImpact, "cache listing may be stale"),
			)
		}
	}
	if err := l.lock.Unlock(); err != nil {
		l.cache.logger.Debug("model lock release failed", logging.String("model", l.name), logging.Error(err))
	}
}

// Acquire locks the named model for use. A model that has never been
// populated is locked exclusively so only one process downloads the weights;
// populated models take a shared lock.
func (c *Cache) Acquire(ctx context.Context, name, source string) (*Lease, error) {
	entry, err := c.registry.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	dir := c.ModelDir(name)
	lock := flock.New(filepath.Join(c.root, locksDir, SanitizeName(name)+".lock"))

	firstUse := entry == nil
	if firstUse {
		_, err = lock.TryLockContext(ctx, lockRetryDelay)
	} else {
		_, err = lock.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrTimeout, "modelcache", "lock model", name, err)
	}
	if firstUse {
		c.logger.Info("populating model cache",
			logging.String("model", name),
			logging.String("source", source),
			logging.String("dir", dir),
			logging.String(logging.FieldEventType, "model_populate"),
		)
	}
	return &Lease{Dir: dir, FirstUse: firstUse, lock: lock, cache: c, name: name, source: source}, nil
}

// DirUsage reports the size of one cache subdirectory.
type DirUsage struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Bytes int64  `json:"bytes"`
	Files int    `json:"files"`
}

// Usage walks the cache and reports per-subdirectory sizes, largest first.
func (c *Cache) Usage() ([]DirUsage, error) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return nil, fmt.Errorf("read cache root: %w", err)
	}
	var usage []DirUsage
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == locksDir {
			continue
		}
		path := filepath.Join(c.root, entry.Name())
		size, files, err := dirSize(path)
		if err != nil {
			return nil, err
		}
		usage = append(usage, DirUsage{Name: entry.Name(), Path: path, Bytes: size, Files: files})
	}
	sort.SliceStable(usage, func(i, j int) bool { return usage[i].Bytes > usage[j].Bytes })
	return usage, nil
}

// Clear removes all cached weights and resets the registry. It returns the
// number of bytes freed.
func (c *Cache) Clear(ctx context.Context) (int64, error) {
	usage, err := c.Usage()
	if err != nil {
		return 0, err
	}
	var freed int64
	for _, dir := range usage {
		if err := os.RemoveAll(dir.Path); err != nil {
			return freed, fmt.Errorf("remove %s: %w", dir.Path, err)
		}
		freed += dir.Bytes
		c.logger.Info("cache directory removed",
			logging.String("path", dir.Path),
			logging.Int64("bytes", dir.Bytes),
			logging.String(logging.FieldEventType, "cache_cleared"),
		)
	}
	if err := c.registry.Reset(ctx); err != nil {
		return freed, err
	}
	return freed, nil
}

func dirSize(root string) (int64, int, error) {
	var (
		total int64
		files int
	)
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		files++
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("measure %s: %w", root, err)
	}
	return total, files, nil
}
