package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/djeday123/charlstm/nn"
)

// ParamState is one parameter matrix in serializable form.
type ParamState struct {
	Name string    `json:"name"`
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

// Snapshot is a complete checkpoint: all learnable parameters plus the
// metadata needed to pick among snapshots and to rebuild the exact model
// and vocabulary that produced them. The vocabulary travels with every
// checkpoint because ids are assigned by corpus scan order; reloading
// weights against a differently ordered vocabulary would silently corrupt
// every sampled character.
type Snapshot struct {
	Iteration int          `json:"iteration"`
	ValLoss   float64      `json:"val_loss"`
	Config    nn.Config    `json:"config"`
	Vocab     string       `json:"vocab"` // id-ordered characters
	Params    []ParamState `json:"params"`
}

// FromParams captures the current parameter values.
func FromParams(params []*nn.Parameter) []ParamState {
	states := make([]ParamState, len(params))
	for i, p := range params {
		rows, cols := p.Dims()
		data := make([]float64, 0, rows*cols)
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				data = append(data, p.Value.At(r, c))
			}
		}
		states[i] = ParamState{Name: p.Name, Rows: rows, Cols: cols, Data: data}
	}
	return states
}

// Apply copies saved values back into matching parameters by name,
// validating shapes.
func Apply(states []ParamState, params []*nn.Parameter) error {
	byName := make(map[string]ParamState, len(states))
	for _, s := range states {
		byName[s.Name] = s
	}
	for _, p := range params {
		s, ok := byName[p.Name]
		if !ok {
			return fmt.Errorf("checkpoint: no saved value for parameter %q", p.Name)
		}
		rows, cols := p.Dims()
		if s.Rows != rows || s.Cols != cols {
			return fmt.Errorf("checkpoint: parameter %q has shape (%d,%d), snapshot has (%d,%d)",
				p.Name, rows, cols, s.Rows, s.Cols)
		}
		idx := 0
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				p.Value.Set(r, c, s.Data[idx])
				idx++
			}
		}
	}
	return nil
}

// Store persists snapshots under a directory, keeping at most Keep of the
// most recent ones; older files are evicted oldest first. Keep <= 0 keeps
// everything.
type Store struct {
	Dir  string
	Keep int

	saved []string
}

// NewStore creates the checkpoint directory if needed.
func NewStore(dir string, keep int) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("checkpoint: creating %s: %w", dir, err)
	}
	return &Store{Dir: dir, Keep: keep}, nil
}

// Save writes a snapshot as i{iteration}_l{hidden}_{valLoss}.json and
// returns the file path. The filename carries the validation loss so a
// snapshot can be picked by eye.
func (s *Store) Save(snap *Snapshot) (string, error) {
	name := fmt.Sprintf("i%d_l%d_%.3f.json", snap.Iteration, snap.Config.HiddenSize, snap.ValLoss)
	path := filepath.Join(s.Dir, name)

	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("checkpoint: encoding %s: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("checkpoint: writing %s: %w", path, err)
	}

	s.saved = append(s.saved, path)
	for s.Keep > 0 && len(s.saved) > s.Keep {
		oldest := s.saved[0]
		s.saved = s.saved[1:]
		if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("checkpoint: evicting %s: %w", oldest, err)
		}
	}
	return path, nil
}

// Load reads a snapshot from a file.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: reading %s: %w", path, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("checkpoint: decoding %s: %w", path, err)
	}
	return &snap, nil
}

var checkpointName = regexp.MustCompile(`^i(\d+)_l\d+_.*\.json$`)

// Latest returns the path of the snapshot with the highest iteration number
// in the store directory.
func (s *Store) Latest() (string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return "", fmt.Errorf("checkpoint: reading %s: %w", s.Dir, err)
	}
	best := -1
	bestPath := ""
	for _, e := range entries {
		m := checkpointName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		iter, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if iter > best {
			best = iter
			bestPath = filepath.Join(s.Dir, e.Name())
		}
	}
	if best < 0 {
		return "", fmt.Errorf("checkpoint: no snapshots in %s", s.Dir)
	}
	return bestPath, nil
}
