package config

import (
	"bytes"
	"strings"
	"testing"
)

func TestLuaConfigParserParse(t *testing.T) {
	p, err := NewLuaConfigParser()
	if err != nil {
		t.Fatalf("NewLuaConfigParser failed: %v", err)
	}
	defer p.Close()

	content := `
local base = 100
vgcanvas.config = {
    width = base * 2,
    height = base,
    strict = 'no',
    backend = 'ebiten',
    anti_alias = false,
    font = 'mono',
    font_path = '/usr/share/fonts/mono.ttf',
    script = 'demo.lua',
    entry = 'render',
    memory_limit = 1024,
    golden = 'golden.png',
    resizable = true,
}
`
	cfg, err := p.Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Canvas.Width != 200 || cfg.Canvas.Height != 100 {
		t.Errorf("size = %dx%d, want 200x100", cfg.Canvas.Width, cfg.Canvas.Height)
	}
	if cfg.Canvas.Strict {
		t.Error("strict = 'no' parsed as true")
	}
	if cfg.Backend.Name != "ebiten" || cfg.Backend.AntiAlias {
		t.Errorf("backend = %+v", cfg.Backend)
	}
	if cfg.Font.Name != "mono" || cfg.Font.Path != "/usr/share/fonts/mono.ttf" {
		t.Errorf("font = %+v", cfg.Font)
	}
	if cfg.Script.Entry != "render" || cfg.Script.MemoryLimit != 1024 {
		t.Errorf("script = %+v", cfg.Script)
	}
	if cfg.Script.CPULimit != DefaultCPULimit {
		t.Errorf("cpu limit default lost: %d", cfg.Script.CPULimit)
	}
	if cfg.Output.Golden != "golden.png" || !cfg.Window.Resizable {
		t.Errorf("output/window = %+v %+v", cfg.Output, cfg.Window)
	}
}

func TestLuaConfigParserIgnoresWrongTypes(t *testing.T) {
	p, _ := NewLuaConfigParser()
	defer p.Close()

	cfg, err := p.Parse([]byte(`vgcanvas.config = { width = {}, backend = true, cpu_limit = -5 }`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Canvas.Width != DefaultWidth {
		t.Errorf("width = %d", cfg.Canvas.Width)
	}
	if cfg.Backend.Name != DefaultBackend {
		t.Errorf("backend = %q", cfg.Backend.Name)
	}
	if cfg.Script.CPULimit != DefaultCPULimit {
		t.Errorf("negative cpu limit applied: %d", cfg.Script.CPULimit)
	}
}

func TestLuaConfigParserResetsBetweenParses(t *testing.T) {
	p, _ := NewLuaConfigParser()
	defer p.Close()

	if _, err := p.Parse([]byte(`vgcanvas.config = { width = 10 }`)); err != nil {
		t.Fatal(err)
	}
	cfg, err := p.Parse([]byte(`vgcanvas.config.height = 20`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Canvas.Width != DefaultWidth || cfg.Canvas.Height != 20 {
		t.Errorf("second parse = %dx%d", cfg.Canvas.Width, cfg.Canvas.Height)
	}
}

func TestLuaConfigParserCPULimit(t *testing.T) {
	p, _ := NewLuaConfigParser()
	defer p.Close()

	_, err := p.Parse([]byte(`while true do end`))
	if err == nil {
		t.Fatal("Parse of an endless loop succeeded")
	}
	if !strings.Contains(err.Error(), "CPU limit") {
		t.Errorf("Parse() error = %v, want CPU limit error", err)
	}

	// The parser stays usable after a terminated script.
	cfg, err := p.Parse([]byte(`vgcanvas.config = { width = 30 }`))
	if err != nil {
		t.Fatalf("Parse after limit error: %v", err)
	}
	if cfg.Canvas.Width != 30 {
		t.Errorf("width = %d, want 30", cfg.Canvas.Width)
	}
}

func TestLuaConfigParserOutput(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewLuaConfigParserWithOutput(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if _, err := p.Parse([]byte(`print("loading"); vgcanvas.config = {}`)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "loading") {
		t.Errorf("print output = %q", buf.String())
	}
}

func TestLuaConfigParserClose(t *testing.T) {
	p, _ := NewLuaConfigParser()
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if _, err := p.Parse([]byte("vgcanvas.config = {}")); err == nil {
		t.Error("Parse after Close succeeded")
	}
}

func TestIsLuaConfig(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"vgcanvas.config = {}", true},
		{"\t vgcanvas.config\t=\n{}", true},
		{"-- vgcanvas.config = {}", false},
		{"local c = vgcanvas.config", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isLuaConfig([]byte(tt.content)); got != tt.want {
			t.Errorf("isLuaConfig(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}
