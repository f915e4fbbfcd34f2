package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/djeday123/charlstm/nn"
)

// Config holds every hyperparameter of a training or sampling run.
type Config struct {
	BatchSize  int     `json:"batch_size"`
	WindowLen  int     `json:"window_len"` // characters per truncated-BPTT window
	HiddenSize int     `json:"hidden_size"`
	NumLayers  int     `json:"num_layers"`
	LearnRate  float64 `json:"learning_rate"`
	KeepProb   float64 `json:"dropout_keep_prob"`
	ClipNorm   float64 `json:"gradient_clip_norm"`
	Epochs     int     `json:"epochs"`
	SaveEveryN int     `json:"save_every_n"`
	TrainFrac  float64 `json:"train_fraction"`
	TopK       int     `json:"top_k"`

	CheckpointDir   string `json:"checkpoint_dir"`
	KeepCheckpoints int    `json:"keep_checkpoints"`
	Seed            int64  `json:"seed"`
}

// Default returns the standard character-LSTM configuration.
func Default() Config {
	return Config{
		BatchSize:       100,
		WindowLen:       100,
		HiddenSize:      512,
		NumLayers:       2,
		LearnRate:       0.001,
		KeepProb:        0.5,
		ClipNorm:        5.0,
		Epochs:          20,
		SaveEveryN:      200,
		TrainFrac:       0.9,
		TopK:            5,
		CheckpointDir:   "checkpoints",
		KeepCheckpoints: 4,
		Seed:            1,
	}
}

// Load reads a JSON config file and fills unset fields from Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports configuration errors before any work begins.
func (c Config) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("config: batch size %d must be positive", c.BatchSize)
	}
	if c.WindowLen < 1 {
		return fmt.Errorf("config: window length %d must be positive", c.WindowLen)
	}
	if c.HiddenSize < 1 {
		return fmt.Errorf("config: hidden size %d must be positive", c.HiddenSize)
	}
	if c.NumLayers < 1 {
		return fmt.Errorf("config: number of layers %d must be positive", c.NumLayers)
	}
	if c.LearnRate <= 0 {
		return fmt.Errorf("config: learning rate %g must be positive", c.LearnRate)
	}
	if c.KeepProb <= 0 || c.KeepProb > 1 {
		return fmt.Errorf("config: dropout keep probability %g out of range (0, 1]", c.KeepProb)
	}
	if c.ClipNorm < 0 {
		return fmt.Errorf("config: gradient clip norm %g must not be negative", c.ClipNorm)
	}
	if c.Epochs < 1 {
		return fmt.Errorf("config: epochs %d must be positive", c.Epochs)
	}
	if c.SaveEveryN < 1 {
		return fmt.Errorf("config: save_every_n %d must be positive", c.SaveEveryN)
	}
	if c.TrainFrac <= 0 || c.TrainFrac > 1 {
		return fmt.Errorf("config: train fraction %g out of range (0, 1]", c.TrainFrac)
	}
	if c.TopK < 1 {
		return fmt.Errorf("config: top_k %d must be positive", c.TopK)
	}
	if c.CheckpointDir == "" {
		return fmt.Errorf("config: checkpoint directory must be set")
	}
	return nil
}

// Model maps the run configuration onto a model configuration for the
// vocabulary observed in the corpus.
func (c Config) Model(vocabSize int) nn.Config {
	return nn.Config{
		VocabSize:  vocabSize,
		HiddenSize: c.HiddenSize,
		NumLayers:  c.NumLayers,
		BatchSize:  c.BatchSize,
		WindowLen:  c.WindowLen,
		KeepProb:   c.KeepProb,
		LearnRate:  c.LearnRate,
		ClipNorm:   c.ClipNorm,
	}
}
