package cli

import (
	"testing"

	"github.com/matzehuels/boardviz/pkg/config"
	errs "github.com/matzehuels/boardviz/pkg/errors"
)

func TestNewSource(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*config.Config)
		wantName string
		wantCode errs.Code
	}{
		{"random", func(*config.Config) {}, "random", ""},
		{"tail", func(c *config.Config) {
			c.Source.Kind = config.SourceTail
			c.Source.Path = "/tmp/probe.log"
		}, "tail", ""},
		{"redis", func(c *config.Config) { c.Source.Kind = config.SourceRedis }, "redis", ""},
		{"unknown", func(c *config.Config) { c.Source.Kind = "serial" }, "", errs.ErrCodeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.setup(cfg)
			src, err := newSource(cfg, quietLogger())
			if tt.wantCode != "" {
				if !errs.Is(err, tt.wantCode) {
					t.Errorf("newSource() error = %v, want %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("newSource() error = %v", err)
			}
			defer src.Stop()
			if got := src.Name(); got != tt.wantName {
				t.Errorf("Name() = %q, want %q", got, tt.wantName)
			}
		})
	}
}

func TestSourceFlagsApply(t *testing.T) {
	cfg := config.Default()
	f := sourceFlags{kind: config.SourceTail, interval: "250ms", path: "/tmp/probe.log"}
	if err := f.apply(cfg); err != nil {
		t.Fatalf("apply() error = %v", err)
	}
	if cfg.Source.Kind != config.SourceTail || cfg.Source.Path != "/tmp/probe.log" {
		t.Errorf("source = %+v", cfg.Source)
	}
	if got := cfg.Interval().String(); got != "250ms" {
		t.Errorf("Interval() = %s, want 250ms", got)
	}

	bad := sourceFlags{kind: config.SourceTail}
	if err := bad.apply(config.Default()); !errs.Is(err, errs.ErrCodeInvalidConfig) {
		t.Errorf("apply() without tail path error = %v, want INVALID_CONFIG", err)
	}
}
