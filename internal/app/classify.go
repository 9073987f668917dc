package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/models"
)

// ClassifyOptions configure the classify command.
type ClassifyOptions struct {
	// Path to a JSON waveform window, "-" for stdin
	Path string
	In   io.Reader
	Out  io.Writer
}

// Classify predicts one waveform window read from a file and prints the verdict as JSON.
func (a *App) Classify(opts ClassifyOptions) error {
	engine, err := a.NewEngine()
	if err != nil {
		return err
	}

	window, err := readWindow(opts)
	if err != nil {
		return err
	}

	result, err := engine.Predict(window)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(opts.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func readWindow(opts ClassifyOptions) (models.WaveformWindow, error) {
	var r io.Reader = opts.In
	if opts.Path != "-" {
		f, err := os.Open(opts.Path)
		if err != nil {
			return models.WaveformWindow{}, fmt.Errorf("open waveform file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var window models.WaveformWindow
	if err := json.NewDecoder(r).Decode(&window); err != nil {
		return models.WaveformWindow{}, fmt.Errorf("decode waveform window: %w", err)
	}
	return window, nil
}
