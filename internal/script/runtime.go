package script

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/textcore/internal/engine"
	"github.com/dshills/textcore/internal/engine/document"
	"github.com/dshills/textcore/internal/engine/segment"
	"github.com/dshills/textcore/internal/logging"
)

// Default limits for a runtime.
const (
	DefaultCallStackSize = 256
	DefaultTimeout       = 5 * time.Second
)

// Runtime is a Lua state bound to an engine.
//
// gopher-lua states are not goroutine-safe; Runtime serialises its own
// methods but scripts always run on the calling goroutine.
type Runtime struct {
	mu sync.Mutex
	L  *lua.LState

	eng      *engine.Engine
	segments *segment.Collection[string]
	anchors  []*engine.Anchor
	log      *logging.Logger
	out      io.Writer

	callStackSize int
	timeout       time.Duration
	closed        bool
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithCallStackSize limits the Lua call depth.
func WithCallStackSize(n int) Option {
	return func(r *Runtime) {
		if n > 0 {
			r.callStackSize = n
		}
	}
}

// WithTimeout bounds every Run call. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(r *Runtime) {
		if d >= 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger for doc.log and runtime messages.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.log = l
		}
	}
}

// WithOutput redirects print. The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Runtime) {
		r.out = w
	}
}

// New creates a runtime for eng.
func New(eng *engine.Engine, opts ...Option) *Runtime {
	r := &Runtime{
		eng:           eng,
		log:           logging.NullLogger,
		out:           os.Stdout,
		callStackSize: DefaultCallStackSize,
		timeout:       DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.WithComponent("script")
	r.segments = engine.NewSegments[string](eng)

	r.L = lua.NewState(lua.Options{
		SkipOpenLibs:  true,
		CallStackSize: r.callStackSize,
	})
	openSafeLibraries(r.L)
	r.L.SetGlobal("print", r.L.NewFunction(r.print))
	registerTypes(r.L)
	r.L.SetGlobal("doc", newDocModule(r).table(r.L))
	return r
}

// openSafeLibraries opens the libraries that cannot reach the host.
func openSafeLibraries(L *lua.LState) {
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// Run executes the script file at path.
func (r *Runtime) Run(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading script: %w", err)
	}
	return r.RunString(ctx, path, string(data))
}

// RunString executes code; name identifies it in errors.
func (r *Runtime) RunString(ctx context.Context, name, code string) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	r.L.SetContext(ctx)
	defer r.L.RemoveContext()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("script %s: lua panic: %v", name, p)
		}
	}()

	start := time.Now()
	fn, err := r.L.Load(strings.NewReader(code), name)
	if err != nil {
		return fmt.Errorf("script %s: %w", name, err)
	}
	r.L.Push(fn)
	defer r.L.SetTop(0)
	if err := r.L.PCall(0, lua.MultRet, nil); err != nil {
		r.log.Warn("%s failed after %v: %v", name, time.Since(start), err)
		return fmt.Errorf("script %s: %w", name, err)
	}
	r.log.Debug("%s finished in %v", name, time.Since(start))
	return nil
}

// Global returns a global Lua value, for inspection by the host.
func (r *Runtime) Global(name string) lua.LValue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.L.GetGlobal(name)
}

// Anchors returns the anchors created by scripts, in creation order.
func (r *Runtime) Anchors() []*engine.Anchor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*engine.Anchor(nil), r.anchors...)
}

// Segments returns the collection of segments created by scripts.
func (r *Runtime) Segments() *segment.Collection[string] {
	return r.segments
}

// Close releases the Lua state and detaches the segments from the engine.
func (r *Runtime) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	_ = r.eng.Exclusive(func(_ *document.Document) error {
		r.segments.Disconnect()
		return nil
	})
	r.L.Close()
}

func (r *Runtime) print(L *lua.LState) int {
	n := L.GetTop()
	for i := 1; i <= n; i++ {
		if i > 1 {
			fmt.Fprint(r.out, "\t")
		}
		fmt.Fprint(r.out, L.ToStringMeta(L.Get(i)).String())
	}
	fmt.Fprintln(r.out)
	return 0
}
