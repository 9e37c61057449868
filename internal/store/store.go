package store

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/san-kum/rrk/internal/relax"
	"github.com/san-kum/rrk/internal/sim"
)

// Store persists runs under baseDir, one directory per run holding
// metadata.json and a zstd-compressed states.csv.zst. The CSV carries
// time, the state components and the relaxation parameter of each
// accepted step.
type Store struct {
	baseDir string
	enc     *zstd.Encoder
	dec     *zstd.Decoder
}

func New(baseDir string) (*Store, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &Store{baseDir: baseDir, enc: enc, dec: dec}, nil
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Problem    string             `json:"problem"`
	Method     string             `json:"method"`
	Solver     string             `json:"solver,omitempty"`
	Relaxed    bool               `json:"relaxed"`
	Timestamp  time.Time          `json:"timestamp"`
	Duration   float64            `json:"duration"`
	Steps      int                `json:"steps"`
	ErrRejects int                `json:"err_rejects"`
	FnEvals    int64              `json:"fn_evals"`
	Checksum   string             `json:"checksum"`
	Metrics    map[string]float64 `json:"metrics"`
	RelaxStats map[string]int64   `json:"relax_stats,omitempty"`
}

// Stats reconstructs the relaxation counters recorded in the metadata.
func (m *RunMetadata) Stats() relax.Stats {
	return relax.Stats{
		FnEvals:     m.RelaxStats["fn_evals"],
		JacEvals:    m.RelaxStats["jac_evals"],
		SolverIters: m.RelaxStats["solver_iters"],
		SolverFails: m.RelaxStats["solver_fails"],
		BoundFails:  m.RelaxStats["bound_fails"],
		TotalFails:  m.RelaxStats["total_fails"],
	}
}

// RunInfo names the run being saved; the counters come from the result.
type RunInfo struct {
	Problem  string
	Method   string
	Solver   string
	Relaxed  bool
	Duration float64
}

func (s *Store) Save(info RunInfo, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d_%s", info.Problem, time.Now().Unix(), uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	payload, err := encodeStates(result)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Problem:    info.Problem,
		Method:     info.Method,
		Solver:     info.Solver,
		Relaxed:    info.Relaxed,
		Timestamp:  time.Now(),
		Duration:   info.Duration,
		Steps:      result.Steps,
		ErrRejects: result.ErrRejects,
		FnEvals:    result.FnEvals,
		Checksum:   fmt.Sprintf("%016x", xxhash.Sum64(payload)),
		Metrics:    result.Metrics,
	}
	if info.Relaxed {
		meta.RelaxStats = statsMap(result)
	}

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	compressed := s.enc.EncodeAll(payload, nil)
	statesPath := filepath.Join(runDir, "states.csv.zst")
	if err := os.WriteFile(statesPath, compressed, 0644); err != nil {
		return "", err
	}

	return runID, nil
}

func encodeStates(result *sim.Result) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if len(result.States) == 0 {
		w.Flush()
		return buf.Bytes(), w.Error()
	}

	header := []string{"time"}
	for i := range result.States[0] {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	header = append(header, "r")
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for i := range result.States {
		row := []string{strconv.FormatFloat(result.Times[i], 'g', 17, 64)}
		for _, val := range result.States[i] {
			row = append(row, strconv.FormatFloat(val, 'g', 17, 64))
		}
		param := 1.0
		if i < len(result.Params) {
			param = result.Params[i]
		}
		row = append(row, strconv.FormatFloat(param, 'g', 17, 64))
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

func statsMap(result *sim.Result) map[string]int64 {
	st := result.RelaxStats
	return map[string]int64{
		"fn_evals":     st.FnEvals,
		"jac_evals":    st.JacEvals,
		"solver_iters": st.SolverIters,
		"solver_fails": st.SolverFails,
		"bound_fails":  st.BoundFails,
		"total_fails":  st.TotalFails,
	}
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadStates reads back the trajectory of a run: states, times and the
// per-step relaxation parameters, in step order.
func (s *Store) LoadStates(runID string) ([][]float64, []float64, []float64, error) {
	raw, err := s.readPayload(runID)
	if err != nil {
		return nil, nil, nil, err
	}

	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, nil, err
	}

	if len(records) < 2 {
		return [][]float64{}, []float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([][]float64, 0, len(records)-1)
	params := make([]float64, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) < 2 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}

		state := make([]float64, 0, len(record)-2)
		for j := 1; j < len(record)-1; j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				continue
			}
			state = append(state, val)
		}

		param, err := strconv.ParseFloat(record[len(record)-1], 64)
		if err != nil {
			param = 1.0
		}

		times = append(times, t)
		states = append(states, state)
		params = append(params, param)
	}

	return states, times, params, nil
}

// Verify recomputes the checksum of the stored trajectory and compares
// it against the metadata.
func (s *Store) Verify(runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	raw, err := s.readPayload(runID)
	if err != nil {
		return err
	}
	sum := fmt.Sprintf("%016x", xxhash.Sum64(raw))
	if sum != meta.Checksum {
		return fmt.Errorf("store: checksum mismatch for %s: %s != %s", runID, sum, meta.Checksum)
	}
	return nil
}

func (s *Store) readPayload(runID string) ([]byte, error) {
	statesPath := filepath.Join(s.baseDir, runID, "states.csv.zst")
	compressed, err := os.ReadFile(statesPath)
	if err != nil {
		return nil, err
	}
	return s.dec.DecodeAll(compressed, nil)
}
