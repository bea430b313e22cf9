// Package lua runs drawing scripts against a VectorCanvas. It wraps a Golua
// runtime with CPU and memory limits and exposes the canvas to Lua through
// the vg_* functions registered by CanvasBindings.
package lua

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/arnodel/golua/lib"
	rt "github.com/arnodel/golua/runtime"
)

// RuntimeConfig contains configuration options for the Lua runtime.
type RuntimeConfig struct {
	// CPULimit is the instruction budget of a single Execute or
	// CallFunction. 0 means unlimited.
	CPULimit uint64
	// MemoryLimit is the allocation budget in bytes of a single Execute or
	// CallFunction. 0 means unlimited.
	MemoryLimit uint64
	// Stdout receives Lua print output. If nil, output is captured and
	// read back with Output.
	Stdout io.Writer
}

// DefaultConfig returns a RuntimeConfig with a 10M instruction budget, a
// 50 MB memory budget and print output on os.Stdout.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		CPULimit:    10_000_000,
		MemoryLimit: 50 * 1024 * 1024,
		Stdout:      os.Stdout,
	}
}

// Runtime is a Golua runtime with the standard library loaded. Execution
// methods are serialized; Go functions registered with SetGoFunction run
// while the runtime is locked and must not call back into it.
type Runtime struct {
	config  RuntimeConfig
	runtime *rt.Runtime
	output  *bytes.Buffer
	cleanup func()
	closed  bool
	mu      sync.RWMutex
}

// New creates a Runtime with the Lua standard libraries loaded.
func New(config RuntimeConfig) (*Runtime, error) {
	output := &bytes.Buffer{}
	var stdout io.Writer = output
	if config.Stdout != nil {
		stdout = config.Stdout
	}

	runtime := rt.New(stdout)
	cleanup := lib.LoadAll(runtime)

	return &Runtime{
		config:  config,
		runtime: runtime,
		output:  output,
		cleanup: cleanup,
	}, nil
}

// LoadString compiles a chunk of Lua source. The returned closure runs
// with Execute.
func (r *Runtime) LoadString(name, code string) (*rt.Closure, error) {
	return r.LoadBytes(name, []byte(code))
}

// LoadBytes compiles a chunk of Lua source held in a byte slice.
func (r *Runtime) LoadBytes(name string, code []byte) (*rt.Closure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRuntimeClosed
	}

	closure, err := r.runtime.CompileAndLoadLuaChunk(
		name,
		code,
		rt.TableValue(r.runtime.GlobalEnv()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load Lua chunk %s: %w", name, err)
	}
	return closure, nil
}

// LoadFile reads and compiles a Lua file.
func (r *Runtime) LoadFile(path string) (*rt.Closure, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read Lua file %s: %w", path, err)
	}
	return r.LoadBytes(path, content)
}

func (r *Runtime) limits() rt.RuntimeContextDef {
	return rt.RuntimeContextDef{
		HardLimits: rt.RuntimeResources{
			Cpu:    r.config.CPULimit,
			Memory: r.config.MemoryLimit,
		},
	}
}

// Execute runs a compiled closure within the configured limits.
func (r *Runtime) Execute(closure *rt.Closure) (rt.Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return rt.NilValue, ErrRuntimeClosed
	}

	result, err := r.call(rt.FunctionValue(closure))
	if err != nil {
		return rt.NilValue, fmt.Errorf("lua execution error: %w", err)
	}
	return result, nil
}

// call runs fn in a fresh resource context. A script that exhausts its CPU
// or memory budget comes back as an error.
func (r *Runtime) call(fn rt.Value, args ...rt.Value) (rt.Value, error) {
	result := rt.NilValue
	t := r.runtime.MainThread()
	_, err := t.CallContext(r.limits(), func() error {
		v, err := rt.Call1(t, fn, args...)
		result = v
		return err
	})
	if err != nil {
		return rt.NilValue, err
	}
	return result, nil
}

// ExecuteString compiles and runs a chunk of Lua source.
func (r *Runtime) ExecuteString(name, code string) (rt.Value, error) {
	closure, err := r.LoadString(name, code)
	if err != nil {
		return rt.NilValue, err
	}
	return r.Execute(closure)
}

// ExecuteFile compiles and runs a Lua file.
func (r *Runtime) ExecuteFile(path string) (rt.Value, error) {
	closure, err := r.LoadFile(path)
	if err != nil {
		return rt.NilValue, err
	}
	return r.Execute(closure)
}

// GetGlobal returns a global variable, or nil.
func (r *Runtime) GetGlobal(name string) rt.Value {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.runtime.GlobalEnv().Get(rt.StringValue(name))
}

// SetGlobal sets a global variable.
func (r *Runtime) SetGlobal(name string, value rt.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runtime.GlobalEnv().Set(rt.StringValue(name), value)
}

// SetGoFunction registers fn as a global Lua function. The function is
// declared CPU- and memory-safe so it can run under resource limits.
func (r *Runtime) SetGoFunction(name string, fn rt.GoFunctionFunc, nArgs int, hasVarArgs bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	goFunc := rt.NewGoFunction(fn, name, nArgs, hasVarArgs)
	rt.SolemnlyDeclareCompliance(rt.ComplyMemSafe|rt.ComplyCpuSafe, goFunc)
	r.runtime.GlobalEnv().Set(rt.StringValue(name), rt.FunctionValue(goFunc))
}

// HasFunction reports whether the global name holds a function.
func (r *Runtime) HasFunction(name string) bool {
	fn := r.GetGlobal(name)
	return !fn.IsNil() && fn.Type() == rt.FunctionType
}

// CallFunction calls the global function name within the configured limits.
func (r *Runtime) CallFunction(name string, args ...rt.Value) (rt.Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return rt.NilValue, ErrRuntimeClosed
	}

	fn := r.runtime.GlobalEnv().Get(rt.StringValue(name))
	if fn.IsNil() {
		return rt.NilValue, fmt.Errorf("function %s: %w", name, ErrFunctionNotFound)
	}
	if fn.Type() != rt.FunctionType {
		return rt.NilValue, fmt.Errorf("global %s: %w", name, ErrNotFunction)
	}

	result, err := r.call(fn, args...)
	if err != nil {
		return rt.NilValue, fmt.Errorf("failed to call function %s: %w", name, err)
	}
	return result, nil
}

// Output returns everything Lua has printed since the last ClearOutput. It
// is empty when the runtime was configured with a Stdout writer.
func (r *Runtime) Output() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.output.String()
}

// ClearOutput empties the print capture buffer.
func (r *Runtime) ClearOutput() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.output.Reset()
}

// Config returns the runtime configuration.
func (r *Runtime) Config() RuntimeConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config
}

// Close releases the standard library resources. Execution fails with
// ErrRuntimeClosed afterwards; closing twice is a no-op.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cleanup != nil {
		r.cleanup()
		r.cleanup = nil
	}
	r.closed = true
	return nil
}
