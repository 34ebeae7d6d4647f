package assets

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/frameflow/internal/logging"
	"github.com/gogpu/frameflow/scheduler"
)

// Loader turns asset preparation into scheduler tasks.
//
// Thread safety: Loader is safe for concurrent use.
type Loader struct {
	sched  *scheduler.Scheduler
	store  *Store
	device hal.Device
	log    *slog.Logger
}

// Option configures a Loader.
type Option func(*loaderOptions)

type loaderOptions struct {
	store    *Store
	capacity int
	device   hal.Device
	logger   *slog.Logger
}

// WithStore makes the loader publish into an existing store.
func WithStore(s *Store) Option {
	return func(o *loaderOptions) { o.store = s }
}

// WithCapacity sets the per-kind bound of the loader's own store.
// Ignored when WithStore is given.
func WithCapacity(n int) Option {
	return func(o *loaderOptions) { o.capacity = n }
}

// WithShaderDevice makes the loader create a HAL shader module for every
// compiled shader. Modules of evicted shaders are destroyed.
func WithShaderDevice(dev hal.Device) Option {
	return func(o *loaderOptions) { o.device = dev }
}

// WithLogger sets the loader's logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *loaderOptions) { o.logger = l }
}

// NewLoader creates a loader enqueuing onto s.
func NewLoader(s *scheduler.Scheduler, opts ...Option) *Loader {
	o := loaderOptions{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(&o)
	}
	store := o.store
	if store == nil {
		store = NewStore(o.capacity)
	}
	if o.device != nil {
		store.releaseModules(o.device)
	}
	return &Loader{
		sched:  s,
		store:  store,
		device: o.device,
		log:    logging.Or(o.logger),
	}
}

// Store returns the store prepared assets are published to.
func (l *Loader) Store() *Store { return l.store }

// LoadShader enqueues WGSL compilation of the named shader. The task runs
// after deps.
func (l *Loader) LoadShader(name, wgsl string, priority int, deps ...scheduler.TaskID) (scheduler.TaskID, error) {
	if name == "" {
		return 0, ErrEmptyName
	}
	if wgsl == "" {
		return 0, fmt.Errorf("%w: shader %q", ErrEmptySource, name)
	}

	return l.sched.Enqueue(scheduler.ActionFunc(func(context.Context) error {
		sh, err := CompileShader(name, wgsl)
		if err != nil {
			return err
		}
		if l.device != nil {
			if err := sh.createModule(l.device); err != nil {
				return err
			}
		}
		l.store.PutShader(sh)
		l.log.Debug("assets: shader ready", "name", name, "words", len(sh.SPIRV))
		return nil
	}), priority, deps...)
}

// LoadTexture enqueues decoding of the named image followed by a dependent
// mipmap task, and returns the id of the mipmap task. mipLevels <= 0
// requests the full chain.
//
// The decode task runs at priority, the mipmap task one step later so
// decodes of other textures are not held back by mip generation.
func (l *Loader) LoadTexture(name string, data []byte, priority, mipLevels int) (scheduler.TaskID, error) {
	if name == "" {
		return 0, ErrEmptyName
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: texture %q", ErrEmptySource, name)
	}

	var (
		base   *image.RGBA
		format string
	)
	decode, err := l.sched.Enqueue(scheduler.ActionFunc(func(context.Context) error {
		img, f, err := DecodeTexture(data)
		if err != nil {
			return fmt.Errorf("texture %q: %w", name, err)
		}
		base, format = img, f
		return nil
	}), priority)
	if err != nil {
		return 0, err
	}

	// The mip task only runs after decode finished, so base is safe to read.
	mips, err := l.sched.Enqueue(scheduler.ActionFunc(func(context.Context) error {
		if base == nil {
			return fmt.Errorf("%w: texture %q", ErrNotDecoded, name)
		}
		tex := &Texture{Name: name, Format: format, Levels: GenerateMips(base, mipLevels)}
		l.store.PutTexture(tex)
		l.log.Debug("assets: texture ready", "name", name, "format", format,
			"width", tex.Width(), "height", tex.Height(), "levels", len(tex.Levels))
		return nil
	}), priority+1, decode)
	if err != nil {
		l.sched.Cancel(decode)
		return 0, err
	}
	return mips, nil
}

// LoadFont enqueues parsing of the named font and caches the advances of
// every rune in charset.
func (l *Loader) LoadFont(name string, data []byte, charset string, priority int) (scheduler.TaskID, error) {
	if name == "" {
		return 0, ErrEmptyName
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: font %q", ErrEmptySource, name)
	}

	return l.sched.Enqueue(scheduler.ActionFunc(func(context.Context) error {
		f, err := ParseFont(name, data, charset)
		if err != nil {
			return err
		}
		l.store.PutFont(f)
		if len(f.Missing) > 0 {
			l.log.Warn("assets: font lacks glyphs", "name", name, "missing", string(f.Missing))
		}
		l.log.Debug("assets: font ready", "name", name, "glyphs", len(f.Advances))
		return nil
	}), priority)
}
