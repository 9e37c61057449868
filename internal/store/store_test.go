package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/rrk/internal/ode"
	"github.com/san-kum/rrk/internal/relax"
	"github.com/san-kum/rrk/internal/sim"
)

func sampleResult() *sim.Result {
	return &sim.Result{
		States: []ode.State{
			{1.0, 0.0},
			{0.9, -0.1},
		},
		Times:  []float64{0.0, 0.01},
		Params: []float64{1.0, 0.9999999},
		Steps:  2,
		Metrics: map[string]float64{
			"entropy_drift": 1.5e-13,
		},
		RelaxStats: relax.Stats{FnEvals: 6, JacEvals: 4, SolverIters: 2},
	}
}

func sampleInfo() RunInfo {
	return RunInfo{
		Problem:  "conserved_exp",
		Method:   "dormand_prince",
		Solver:   "newton",
		Relaxed:  true,
		Duration: 1.0,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(sampleInfo(), sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Problem != "conserved_exp" {
		t.Errorf("expected problem 'conserved_exp', got '%s'", meta.Problem)
	}
	if meta.Solver != "newton" {
		t.Errorf("expected solver 'newton', got '%s'", meta.Solver)
	}
	if !meta.Relaxed {
		t.Error("expected relaxed run")
	}
	if meta.Steps != 2 {
		t.Errorf("expected 2 steps, got %d", meta.Steps)
	}
	if meta.Metrics["entropy_drift"] != 1.5e-13 {
		t.Errorf("expected entropy_drift 1.5e-13, got %g", meta.Metrics["entropy_drift"])
	}
	if meta.RelaxStats["fn_evals"] != 6 {
		t.Errorf("expected 6 fn evals, got %d", meta.RelaxStats["fn_evals"])
	}
	if meta.Checksum == "" {
		t.Error("expected non-empty checksum")
	}

	states, times, params, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states failed: %v", err)
	}
	if len(states) != 2 || len(times) != 2 || len(params) != 2 {
		t.Fatalf("expected 2 rows, got %d states, %d times, %d params",
			len(states), len(times), len(params))
	}
	if states[1][0] != 0.9 || states[1][1] != -0.1 {
		t.Errorf("state did not roundtrip: %v", states[1])
	}
	if times[1] != 0.01 {
		t.Errorf("time did not roundtrip: %v", times[1])
	}
	if params[1] != 0.9999999 {
		t.Errorf("param did not roundtrip: %v", params[1])
	}
}

func TestStoreList(t *testing.T) {
	st, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if _, err := st.Save(sampleInfo(), sampleResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStoreFileStructure(t *testing.T) {
	dir := t.TempDir()
	st, err := New(dir)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(sampleInfo(), sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(dir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}
	if _, err := os.Stat(filepath.Join(runDir, "states.csv.zst")); os.IsNotExist(err) {
		t.Error("states.csv.zst not created")
	}
}

func TestStoreVerify(t *testing.T) {
	dir := t.TempDir()
	st, err := New(dir)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(sampleInfo(), sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if err := st.Verify(runID); err != nil {
		t.Errorf("verify failed on intact run: %v", err)
	}

	statesPath := filepath.Join(dir, runID, "states.csv.zst")
	if err := os.WriteFile(statesPath, []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := st.Verify(runID); err == nil {
		t.Error("expected verify error on corrupted file")
	}
}

func TestStoreLoadStates_Empty(t *testing.T) {
	st, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	empty := &sim.Result{Metrics: map[string]float64{}}
	runID, err := st.Save(sampleInfo(), empty)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	states, times, params, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states failed: %v", err)
	}
	if len(states) != 0 || len(times) != 0 || len(params) != 0 {
		t.Errorf("expected empty trajectory, got %d states", len(states))
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")

	if err := ExportJSON(path, sampleInfo(), sampleResult()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if data.Problem != "conserved_exp" {
		t.Errorf("expected problem conserved_exp, got %s", data.Problem)
	}
	if data.Steps != 2 || len(data.States) != 2 {
		t.Errorf("expected 2 steps, got steps=%d states=%d", data.Steps, len(data.States))
	}
	if data.States[1][1] != -0.1 {
		t.Errorf("state did not survive export: %v", data.States[1])
	}
	if data.RelaxStats["jac_evals"] != 4 {
		t.Errorf("expected 4 jac evals, got %d", data.RelaxStats["jac_evals"])
	}
}
