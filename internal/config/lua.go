package config

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"sync"

	"github.com/arnodel/golua/lib"
	rt "github.com/arnodel/golua/runtime"
)

// LuaConfigParser parses Lua configuration files. The file is executed in
// a Golua runtime and the vgcanvas.config table is read back:
//
//	vgcanvas.config = {
//	    width = 800, height = 600,
//	    backend = "gg",
//	    script = "clock.lua",
//	}
type LuaConfigParser struct {
	runtime *rt.Runtime
	cleanup func()
	mu      sync.Mutex
}

// NewLuaConfigParser creates a new LuaConfigParser with a fresh Lua runtime.
func NewLuaConfigParser() (*LuaConfigParser, error) {
	return NewLuaConfigParserWithOutput(io.Discard)
}

// NewLuaConfigParserWithOutput creates a LuaConfigParser whose print output
// goes to stdout.
func NewLuaConfigParserWithOutput(stdout io.Writer) (*LuaConfigParser, error) {
	if stdout == nil {
		stdout = os.Stdout
	}

	runtime := rt.New(stdout)
	cleanup := lib.LoadAll(runtime)

	return &LuaConfigParser{
		runtime: runtime,
		cleanup: cleanup,
	}, nil
}

// luaConfigPattern matches "vgcanvas.config =" at the start of a line.
var luaConfigPattern = regexp.MustCompile(`(?m)^\s*vgcanvas\.config\s*=`)

// isLuaConfig reports whether content assigns the vgcanvas.config table.
func isLuaConfig(content []byte) bool {
	return luaConfigPattern.Match(content)
}

// Parse executes content and extracts the vgcanvas.config table.
func (p *LuaConfigParser) Parse(content []byte) (*Config, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cleanup == nil {
		return nil, fmt.Errorf("lua config parser is closed")
	}

	p.initGlobal()

	closure, err := p.runtime.CompileAndLoadLuaChunk(
		"config",
		content,
		rt.TableValue(p.runtime.GlobalEnv()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile Lua configuration: %w", err)
	}

	ctx := rt.RuntimeContextDef{
		HardLimits: rt.RuntimeResources{
			Cpu:    DefaultCPULimit,
			Memory: DefaultMemoryLimit,
		},
	}
	// CallContext turns a script that runs past its budget into an error.
	t := p.runtime.MainThread()
	if _, err := t.CallContext(ctx, func() error {
		_, err := rt.Call1(t, rt.FunctionValue(closure))
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to execute Lua configuration: %w", err)
	}

	raw, err := p.extract()
	if err != nil {
		return nil, err
	}
	return raw.apply()
}

// initGlobal resets the vgcanvas global to an empty config table.
func (p *LuaConfigParser) initGlobal() {
	vg := rt.NewTable()
	vg.Set(rt.StringValue("config"), rt.TableValue(rt.NewTable()))
	p.runtime.GlobalEnv().Set(rt.StringValue("vgcanvas"), rt.TableValue(vg))
}

// extract reads the flat vgcanvas.config table.
func (p *LuaConfigParser) extract() (*rawConfig, error) {
	raw := &rawConfig{}

	vgVal := p.runtime.GlobalEnv().Get(rt.StringValue("vgcanvas"))
	if vgVal.IsNil() {
		return raw, nil
	}
	vg, ok := vgVal.TryTable()
	if !ok {
		return nil, fmt.Errorf("vgcanvas is not a table")
	}
	table, ok := vg.Get(rt.StringValue("config")).TryTable()
	if !ok {
		return nil, fmt.Errorf("vgcanvas.config is not a table")
	}

	raw.Canvas.Width = getTableInt(table, "width")
	raw.Canvas.Height = getTableInt(table, "height")
	raw.Canvas.Strict = getTableBool(table, "strict")
	raw.Canvas.Background = getTableString(table, "background")

	raw.Backend.Name = getTableString(table, "backend")
	raw.Backend.AntiAlias = getTableBool(table, "anti_alias")

	raw.Font.Name = getTableString(table, "font")
	raw.Font.Path = getTableString(table, "font_path")

	raw.Script.Path = getTableString(table, "script")
	raw.Script.Entry = getTableString(table, "entry")
	raw.Script.CPULimit = getTableUint(table, "cpu_limit")
	raw.Script.MemoryLimit = getTableUint(table, "memory_limit")

	raw.Output.Path = getTableString(table, "output")
	raw.Output.Frames = getTableInt(table, "frames")
	raw.Output.Golden = getTableString(table, "golden")
	raw.Output.Tolerance = getTableFloat(table, "tolerance")

	raw.Window.Title = getTableString(table, "window_title")
	raw.Window.TPS = getTableInt(table, "tps")
	raw.Window.Resizable = getTableBool(table, "resizable")

	return raw, nil
}

// Close releases resources associated with the parser's Lua runtime.
func (p *LuaConfigParser) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cleanup != nil {
		p.cleanup()
		p.cleanup = nil
	}
	return nil
}

// getTableBool retrieves a boolean value from a Lua table.
// Strings such as "yes" and "true" are accepted too.
func getTableBool(table *rt.Table, key string) *bool {
	val := table.Get(rt.StringValue(key))
	if val.IsNil() {
		return nil
	}
	if b, ok := val.TryBool(); ok {
		return &b
	}
	if s, ok := val.TryString(); ok {
		b := parseBool(s)
		return &b
	}
	return nil
}

// getTableString retrieves a string value from a Lua table.
func getTableString(table *rt.Table, key string) *string {
	val := table.Get(rt.StringValue(key))
	if val.IsNil() {
		return nil
	}
	if s, ok := val.TryString(); ok {
		return &s
	}
	return nil
}

// getTableFloat retrieves a number from a Lua table.
func getTableFloat(table *rt.Table, key string) *float64 {
	val := table.Get(rt.StringValue(key))
	if val.IsNil() {
		return nil
	}
	if n, ok := val.TryFloat(); ok {
		return &n
	}
	if n, ok := val.TryInt(); ok {
		f := float64(n)
		return &f
	}
	return nil
}

// getTableInt retrieves an integer from a Lua table, truncating floats.
func getTableInt(table *rt.Table, key string) *int {
	val := table.Get(rt.StringValue(key))
	if val.IsNil() {
		return nil
	}
	if n, ok := val.TryInt(); ok {
		i := int(n)
		return &i
	}
	if f, ok := val.TryFloat(); ok {
		i := int(f)
		return &i
	}
	return nil
}

// getTableUint retrieves a non-negative integer from a Lua table. Negative
// values are ignored.
func getTableUint(table *rt.Table, key string) *uint64 {
	i := getTableInt(table, key)
	if i == nil || *i < 0 {
		return nil
	}
	u := uint64(*i)
	return &u
}
