package training

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// GlobalBeamTrainConfig mirrors analysis.GlobalBeam in a serializable
// form for config files.
type GlobalBeamTrainConfig struct {
	LeftBeam   int `yaml:"left_beam"`
	RightCheck int `yaml:"right_check"`
	RightBeam  int `yaml:"right_beam"`
}

// TrainingConfig configures beam width and feature-hash table sizing for
// a training run.
type TrainingConfig struct {
	BeamSize              int                    `yaml:"beam_size"`
	FeatureNumberExponent uint                   `yaml:"feature_number_exponent"`
	LearningRate          float32                `yaml:"learning_rate"`
	GlobalBeam            *GlobalBeamTrainConfig `yaml:"global_beam,omitempty"`
}

// TrainerFullConfig is the top-level shape of a training run's config
// file: training hyperparameters plus where its data and checkpoints
// live.
type TrainerFullConfig struct {
	Training       TrainingConfig `yaml:"training"`
	DataPath       string         `yaml:"data_path"`
	CheckpointPath string         `yaml:"checkpoint_path"`
}

// LoadConfig reads and parses a YAML training config from path.
func LoadConfig(path string) (*TrainerFullConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Kind: InvalidInput, Err: fmt.Errorf("read config %s: %w", path, err)}
	}
	var cfg TrainerFullConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &Error{Kind: InvalidInput, Err: fmt.Errorf("parse config %s: %w", path, err)}
	}
	if cfg.Training.BeamSize <= 0 {
		return nil, &Error{Kind: InvalidInput, Err: fmt.Errorf("config %s: training.beam_size must be positive", path)}
	}
	return &cfg, nil
}
