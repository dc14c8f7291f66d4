package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/keyviz/internal/config"
	"github.com/verte-zerg/keyviz/internal/model"
	"github.com/verte-zerg/keyviz/internal/store"
)

func TestValidateConfig(t *testing.T) {
	valid := model.Config{LogRows: 300, PatternLength: 80, ReleaseAfter: time.Second}
	if err := validateConfig(valid); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	cases := []struct {
		mutate func(*model.Config)
		flag   string
	}{
		{func(c *model.Config) { c.LogRows = 0 }, "--log-rows"},
		{func(c *model.Config) { c.PatternLength = -1 }, "--pattern-length"},
	}
	for _, c := range cases {
		cfg := valid
		c.mutate(&cfg)
		err := validateConfig(cfg)
		if err == nil || !strings.Contains(err.Error(), c.flag) {
			t.Fatalf("expected error naming %s, got %v", c.flag, err)
		}
	}
}

func TestReleaseWindowOnlyValidatedForTerminal(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	cfgDir := filepath.Join(dir, "keyviz")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	data := "[terminal]\nrelease-after-ms = 0\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "config.toml"), []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	root := newRootCmd()
	for _, name := range []string{"serve", "replay"} {
		sub, _, err := root.Find([]string{name})
		if err != nil {
			t.Fatalf("find %s: %v", name, err)
		}
		if _, _, err := loadSettings(sub); err != nil {
			t.Fatalf("%s must ignore the terminal release window, got %v", name, err)
		}
	}

	cfg, _, err := loadSettings(root)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if err := validateTerminalConfig(cfg); err == nil || !strings.Contains(err.Error(), "--release-after") {
		t.Fatalf("expected release window error for the terminal, got %v", err)
	}
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	var cfg config.FileConfig
	if _, err := toml.Decode(defaultConfigTemplate(), &cfg); err != nil {
		t.Fatalf("template must be valid TOML: %v", err)
	}
	if cfg.Session.LogRows != nil || cfg.Web.Addr != nil {
		t.Fatalf("template values must be commented out")
	}
}

func TestLoadSettingsFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	cfgDir := filepath.Join(dir, "keyviz")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	data := "[session]\nlog-rows = 50\npattern-length = 10\n[terminal]\nrelease-after-ms = 250\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "config.toml"), []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	root := newRootCmd()
	if err := root.Flags().Set("log-rows", "5"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	cfg, _, err := loadSettings(root)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if cfg.LogRows != 5 {
		t.Fatalf("expected flag to win, got %d", cfg.LogRows)
	}
	if cfg.PatternLength != 10 {
		t.Fatalf("expected file pattern length, got %d", cfg.PatternLength)
	}
	if cfg.ReleaseAfter != 250*time.Millisecond {
		t.Fatalf("expected 250ms release window, got %v", cfg.ReleaseAfter)
	}
	if !cfg.AltScreen {
		t.Fatalf("expected alt screen by default")
	}
}

func TestTracesAndReplayCommands(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dataDir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataDir)

	st, err := store.Open(config.DefaultTraceDBPath())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	rec, err := store.NewRecorder(context.Background(), st, "warmup", "terminal", 0)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	for _, a := range []model.Action{
		{Kind: model.ActionKeyDown, Key: "a", Code: "KeyA", TS: 10},
		{Kind: model.ActionKeyDown, Key: "a", Code: "KeyA", Repeat: true, TS: 40},
		{Kind: model.ActionKeyUp, Key: "a", Code: "KeyA", TS: 90},
	} {
		if err := rec.Record(a); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := rec.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"traces"})
	if err := root.Execute(); err != nil {
		t.Fatalf("traces: %v", err)
	}
	if !strings.Contains(out.String(), "warmup") {
		t.Fatalf("expected trace listed, got %q", out.String())
	}

	out.Reset()
	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"replay", "1"})
	if err := root.Execute(); err != nil {
		t.Fatalf("replay: %v", err)
	}
	got := out.String()
	for _, want := range []string{"3 actions applied", "KeyA", "keyup", "50 ms"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in replay output:\n%s", want, got)
		}
	}

	root = newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"replay", "99"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}
