package store

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/rrk/internal/sim"
)

type ExportData struct {
	Problem    string             `json:"problem"`
	Method     string             `json:"method"`
	Solver     string             `json:"solver,omitempty"`
	Relaxed    bool               `json:"relaxed"`
	Duration   float64            `json:"duration"`
	Steps      int                `json:"steps"`
	Times      []float64          `json:"times"`
	States     [][]float64        `json:"states"`
	Params     []float64          `json:"params"`
	Metrics    map[string]float64 `json:"metrics"`
	RelaxStats map[string]int64   `json:"relax_stats,omitempty"`
}

func buildExport(info RunInfo, result *sim.Result) ExportData {
	data := ExportData{
		Problem:  info.Problem,
		Method:   info.Method,
		Solver:   info.Solver,
		Relaxed:  info.Relaxed,
		Duration: info.Duration,
		Steps:    result.Steps,
		Times:    result.Times,
		States:   make([][]float64, len(result.States)),
		Params:   result.Params,
		Metrics:  result.Metrics,
	}
	for i, s := range result.States {
		data.States[i] = s
	}
	if info.Relaxed {
		data.RelaxStats = statsMap(result)
	}
	return data
}

func writeExport(w io.Writer, info RunInfo, result *sim.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildExport(info, result))
}

func ExportJSON(path string, info RunInfo, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return writeExport(file, info, result)
}

func ExportJSONStdout(info RunInfo, result *sim.Result) error {
	return writeExport(os.Stdout, info, result)
}
