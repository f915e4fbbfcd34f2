package train

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/djeday123/charlstm/checkpoint"
	"github.com/djeday123/charlstm/data"
	"github.com/djeday123/charlstm/nn"
	"github.com/djeday123/charlstm/optim"
	"github.com/djeday123/charlstm/pkg/config"
	"github.com/djeday123/charlstm/tokenizer"
)

// Trainer drives epochs of truncated-BPTT training over a character corpus,
// carrying hidden state across windows within each epoch and persisting
// checkpoints as it goes. Each Trainer owns its model instance; the model's
// parameters are never shared with a Sampler.
type Trainer struct {
	Model *nn.Model
	Tok   *tokenizer.CharTokenizer
	Store *checkpoint.Store
	Cfg   config.Config

	log     *logrus.Logger
	encoded []int
}

// New builds a trainer for a raw corpus. All configuration errors — an empty
// corpus, a corpus too short for one window, bad hyperparameters, an
// unusable checkpoint directory — are reported here, before any training.
func New(text string, cfg config.Config, log *logrus.Logger) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.New()
	}

	tok := tokenizer.NewCharTokenizer(text)
	if tok.VocabSize() == 0 {
		return nil, fmt.Errorf("train: corpus is empty, vocabulary has no characters")
	}
	encoded := tok.Encode(text)
	if len(encoded) < cfg.BatchSize*cfg.WindowLen {
		return nil, fmt.Errorf("train: corpus of %d characters too short for batch size %d and window length %d",
			len(encoded), cfg.BatchSize, cfg.WindowLen)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	model, err := nn.NewModel(cfg.Model(tok.VocabSize()), optim.NewAdam(cfg.LearnRate, cfg.ClipNorm), rng)
	if err != nil {
		return nil, err
	}

	store, err := checkpoint.NewStore(cfg.CheckpointDir, cfg.KeepCheckpoints)
	if err != nil {
		return nil, err
	}

	return &Trainer{
		Model:   model,
		Tok:     tok,
		Store:   store,
		Cfg:     cfg,
		log:     log,
		encoded: encoded,
	}, nil
}

// Train runs the configured number of epochs. Hidden state resets to zero at
// every epoch boundary and is threaded from window to window inside an
// epoch. Every SaveEveryN global iterations, and once more at the end, the
// full validation split is swept with a fresh zero state and a checkpoint
// is written.
func (t *Trainer) Train() error {
	cfg := t.Cfg
	trainSet, valSet, err := data.Split(t.encoded, cfg.BatchSize, cfg.WindowLen, cfg.TrainFrac)
	if err != nil {
		return err
	}

	t.log.WithFields(logrus.Fields{
		"characters":    len(t.encoded),
		"vocab_size":    t.Tok.VocabSize(),
		"parameters":    t.Model.CountParameters(),
		"train_windows": trainSet.NumWindows(cfg.WindowLen),
		"val_windows":   valSet.NumWindows(cfg.WindowLen),
	}).Info("training started")

	iter := 0
	lastSaved := 0
	smooth := 0.0

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		st := t.Model.ZeroState()
		windows := trainSet.Windows(cfg.WindowLen)
		for {
			x, y, ok := windows.Next()
			if !ok {
				break
			}
			iter++
			start := time.Now()

			loss, next, err := t.Model.ForwardTrain(x, y, st)
			if err != nil {
				return fmt.Errorf("train: iteration %d: %w", iter, err)
			}
			st = next

			if smooth == 0 {
				smooth = loss
			} else {
				smooth = 0.95*smooth + 0.05*loss
			}

			t.log.WithFields(logrus.Fields{
				"epoch":     epoch,
				"iteration": iter,
				"loss":      loss,
				"smooth":    smooth,
				"sec/batch": time.Since(start).Seconds(),
			}).Info("train step")

			if iter%cfg.SaveEveryN == 0 {
				if err := t.validateAndSave(valSet, iter); err != nil {
					return err
				}
				lastSaved = iter
			}
		}
	}

	if iter == 0 {
		return fmt.Errorf("train: no full training window for batch size %d and window length %d", cfg.BatchSize, cfg.WindowLen)
	}
	if lastSaved != iter {
		if err := t.validateAndSave(valSet, iter); err != nil {
			return err
		}
	}
	return nil
}

// validateAndSave sweeps the entire validation split with dropout disabled
// and a fresh zero state, then persists a checkpoint tagged with the
// iteration and the mean validation loss.
func (t *Trainer) validateAndSave(valSet *data.Set, iter int) error {
	valLoss, nWindows, err := t.validationLoss(valSet)
	if err != nil {
		return fmt.Errorf("train: validation at iteration %d: %w", iter, err)
	}

	snap := &checkpoint.Snapshot{
		Iteration: iter,
		ValLoss:   valLoss,
		Config:    t.Model.Config(),
		Vocab:     string(t.Tok.Chars()),
		Params:    checkpoint.FromParams(t.Model.Parameters()),
	}
	path, err := t.Store.Save(snap)
	if err != nil {
		return err
	}

	t.log.WithFields(logrus.Fields{
		"iteration":   iter,
		"val_loss":    valLoss,
		"val_windows": nWindows,
		"checkpoint":  path,
	}).Info("checkpoint saved")
	return nil
}

func (t *Trainer) validationLoss(valSet *data.Set) (float64, int, error) {
	st := t.Model.ZeroState()
	total := 0.0
	count := 0
	windows := valSet.Windows(t.Cfg.WindowLen)
	for {
		x, y, ok := windows.Next()
		if !ok {
			break
		}
		loss, next, err := t.Model.ForwardEval(x, y, st)
		if err != nil {
			return 0, 0, err
		}
		st = next
		total += loss
		count++
	}
	if count == 0 {
		return 0, 0, nil
	}
	return total / float64(count), count, nil
}
