package sample

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/djeday123/charlstm/checkpoint"
	"github.com/djeday123/charlstm/nn"
	"github.com/djeday123/charlstm/tokenizer"
)

// Sampler generates text autoregressively from a frozen model: feed one
// character, take the next-character distribution, draw from its top-k
// entries, feed the draw back. The loop-carried values are exactly the
// current character id and the hidden state.
type Sampler struct {
	Model *nn.Model
	Tok   *tokenizer.CharTokenizer

	rng *rand.Rand
}

// New wraps an existing sampling-mode model. The model must be configured
// with batch size 1 and window length 1.
func New(model *nn.Model, tok *tokenizer.CharTokenizer, rng *rand.Rand) (*Sampler, error) {
	cfg := model.Config()
	if cfg.BatchSize != 1 || cfg.WindowLen != 1 {
		return nil, fmt.Errorf("sample: model must be in sampling mode (batch=1, window=1), have batch=%d window=%d",
			cfg.BatchSize, cfg.WindowLen)
	}
	if tok.VocabSize() != cfg.VocabSize {
		return nil, fmt.Errorf("sample: tokenizer has %d characters, model vocabulary is %d", tok.VocabSize(), cfg.VocabSize)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Sampler{Model: model, Tok: tok, rng: rng}, nil
}

// FromCheckpoint loads a snapshot into a fresh frozen model reshaped for
// sampling, together with the vocabulary persisted in the snapshot.
func FromCheckpoint(path string, rng *rand.Rand) (*Sampler, error) {
	snap, err := checkpoint.Load(path)
	if err != nil {
		return nil, err
	}

	tok := tokenizer.FromChars([]rune(snap.Vocab))
	cfg := snap.Config.Sampling()
	if tok.VocabSize() != cfg.VocabSize {
		return nil, fmt.Errorf("sample: checkpoint %s has %d vocabulary characters but config says %d",
			path, tok.VocabSize(), cfg.VocabSize)
	}

	model, err := nn.NewModel(cfg, nil, rng)
	if err != nil {
		return nil, err
	}
	if err := checkpoint.Apply(snap.Params, model.Parameters()); err != nil {
		return nil, err
	}
	return New(model, tok, rng)
}

// Generate warms the recurrent state over prime, then samples n characters
// with top-k truncation. Returns prime followed by the sampled text.
func (s *Sampler) Generate(prime string, n, topK int) (string, error) {
	vocab := s.Tok.VocabSize()
	if prime == "" {
		return "", fmt.Errorf("sample: prime text must not be empty")
	}
	if topK < 1 || topK > vocab {
		return "", fmt.Errorf("sample: top_k %d out of range [1, %d]", topK, vocab)
	}
	if n < 0 {
		return "", fmt.Errorf("sample: sample count %d must not be negative", n)
	}

	st := nn.NewZeroState(s.Model.Config().NumLayers, 1, s.Model.Config().HiddenSize)
	var probs []float64
	var err error
	for _, r := range prime {
		id, ok := s.Tok.ID(r)
		if !ok {
			return "", fmt.Errorf("sample: prime character %q is not in the model vocabulary", r)
		}
		probs, st, err = s.Model.ForwardInfer(id, st)
		if err != nil {
			return "", err
		}
	}

	var sb strings.Builder
	sb.WriteString(prime)
	for i := 0; i < n; i++ {
		id := TopK(probs, topK, s.rng)
		sb.WriteString(s.Tok.DecodeID(id))
		probs, st, err = s.Model.ForwardInfer(id, st)
		if err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// TopK draws one index from probs after zeroing all but the k highest
// entries and renormalizing the remainder. k == len(probs) degenerates to
// unrestricted categorical sampling.
func TopK(probs []float64, k int, rng *rand.Rand) int {
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return probs[idx[a]] > probs[idx[b]] })
	if k > len(idx) {
		k = len(idx)
	}
	top := idx[:k]

	total := 0.0
	for _, i := range top {
		total += probs[i]
	}

	r := rng.Float64() * total
	cum := 0.0
	for _, i := range top {
		cum += probs[i]
		if r < cum {
			return i
		}
	}
	return top[k-1]
}
