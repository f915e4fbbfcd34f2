package nn

import "fmt"

// Config defines the architecture and training hyperparameters of a model.
type Config struct {
	VocabSize  int     `json:"vocab_size"`
	HiddenSize int     `json:"hidden_size"`
	NumLayers  int     `json:"num_layers"`
	BatchSize  int     `json:"batch_size"`
	WindowLen  int     `json:"window_len"`
	KeepProb   float64 `json:"keep_prob"`
	LearnRate  float64 `json:"learn_rate"`
	ClipNorm   float64 `json:"clip_norm"`
}

// Sampling returns a copy of the config shaped for one-character-at-a-time
// inference: batch size and window length both forced to 1.
func (c Config) Sampling() Config {
	c.BatchSize = 1
	c.WindowLen = 1
	return c
}

// Validate reports configuration errors before any expensive work begins.
func (c Config) Validate() error {
	if c.VocabSize < 1 {
		return fmt.Errorf("nn: empty vocabulary")
	}
	if c.HiddenSize < 1 {
		return fmt.Errorf("nn: hidden size %d must be positive", c.HiddenSize)
	}
	if c.NumLayers < 1 {
		return fmt.Errorf("nn: number of layers %d must be positive", c.NumLayers)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("nn: batch size %d must be positive", c.BatchSize)
	}
	if c.WindowLen < 1 {
		return fmt.Errorf("nn: window length %d must be positive", c.WindowLen)
	}
	if c.KeepProb <= 0 || c.KeepProb > 1 {
		return fmt.Errorf("nn: keep probability %g out of range (0, 1]", c.KeepProb)
	}
	if c.LearnRate <= 0 {
		return fmt.Errorf("nn: learning rate %g must be positive", c.LearnRate)
	}
	if c.ClipNorm < 0 {
		return fmt.Errorf("nn: clip norm %g must not be negative", c.ClipNorm)
	}
	return nil
}
