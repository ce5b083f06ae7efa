package training_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/agglutrain/latticecore/training"
)

func TestLoadConfigParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
training:
  beam_size: 8
  feature_number_exponent: 20
  learning_rate: 0.05
  global_beam:
    left_beam: 4
    right_check: 2
    right_beam: 4
data_path: ./data/train.txt
checkpoint_path: ./checkpoints
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := training.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Training.BeamSize != 8 {
		t.Fatalf("BeamSize = %d, want 8", cfg.Training.BeamSize)
	}
	if cfg.Training.FeatureNumberExponent != 20 {
		t.Fatalf("FeatureNumberExponent = %d, want 20", cfg.Training.FeatureNumberExponent)
	}
	if cfg.Training.GlobalBeam == nil || cfg.Training.GlobalBeam.LeftBeam != 4 {
		t.Fatalf("GlobalBeam = %+v, want LeftBeam=4", cfg.Training.GlobalBeam)
	}
	if cfg.DataPath != "./data/train.txt" {
		t.Fatalf("DataPath = %q, want ./data/train.txt", cfg.DataPath)
	}
}

func TestLoadConfigRejectsMissingBeamSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("training:\n  feature_number_exponent: 10\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := training.LoadConfig(path); err == nil {
		t.Fatalf("LoadConfig did not reject a config with beam_size <= 0")
	}
}

func TestLoadConfigRejectsMissingFile(t *testing.T) {
	if _, err := training.LoadConfig("/nonexistent/path/config.yaml"); err == nil {
		t.Fatalf("LoadConfig did not reject a missing file")
	}
}
