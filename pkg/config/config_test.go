package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() does not validate: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero batch", func(c *Config) { c.BatchSize = 0 }},
		{"zero window", func(c *Config) { c.WindowLen = 0 }},
		{"zero hidden", func(c *Config) { c.HiddenSize = 0 }},
		{"zero layers", func(c *Config) { c.NumLayers = 0 }},
		{"negative lr", func(c *Config) { c.LearnRate = -1 }},
		{"keep prob zero", func(c *Config) { c.KeepProb = 0 }},
		{"keep prob above one", func(c *Config) { c.KeepProb = 1.1 }},
		{"negative clip", func(c *Config) { c.ClipNorm = -1 }},
		{"zero epochs", func(c *Config) { c.Epochs = 0 }},
		{"zero save interval", func(c *Config) { c.SaveEveryN = 0 }},
		{"train frac zero", func(c *Config) { c.TrainFrac = 0 }},
		{"train frac above one", func(c *Config) { c.TrainFrac = 1.5 }},
		{"zero top_k", func(c *Config) { c.TopK = 0 }},
		{"no checkpoint dir", func(c *Config) { c.CheckpointDir = "" }},
	}
	for _, tc := range cases {
		cfg := Default()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoadMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"hidden_size": 128, "epochs": 3}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HiddenSize != 128 || cfg.Epochs != 3 {
		t.Errorf("overrides not applied: hidden=%d epochs=%d", cfg.HiddenSize, cfg.Epochs)
	}
	if cfg.BatchSize != Default().BatchSize {
		t.Errorf("unset field lost its default: batch=%d", cfg.BatchSize)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("missing config file accepted")
	}
}

func TestModelMapping(t *testing.T) {
	cfg := Default()
	mcfg := cfg.Model(97)
	if mcfg.VocabSize != 97 {
		t.Errorf("vocab size = %d, want 97", mcfg.VocabSize)
	}
	if mcfg.HiddenSize != cfg.HiddenSize || mcfg.NumLayers != cfg.NumLayers ||
		mcfg.BatchSize != cfg.BatchSize || mcfg.WindowLen != cfg.WindowLen ||
		mcfg.KeepProb != cfg.KeepProb || mcfg.LearnRate != cfg.LearnRate ||
		mcfg.ClipNorm != cfg.ClipNorm {
		t.Error("model config does not mirror run config")
	}
	if err := mcfg.Validate(); err != nil {
		t.Errorf("mapped config invalid: %v", err)
	}
}
