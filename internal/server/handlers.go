package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/oblinof/AI-Sampler-Sequencer/internal/audio"
	"github.com/oblinof/AI-Sampler-Sequencer/internal/engine"
	apperrors "github.com/oblinof/AI-Sampler-Sequencer/internal/errors"
	"github.com/oblinof/AI-Sampler-Sequencer/internal/pattern"
)

// Tempo bounds accepted from the UI
const (
	minBPM = 20
	maxBPM = 300
)

// effectColors is the display palette of the step grid. Presentation only;
// the engine never sees these.
var effectColors = map[pattern.Effect]string{
	pattern.Normal:      "#4caf50",
	pattern.Reverb:      "#7e57c2",
	pattern.Delay:       "#42a5f5",
	pattern.Reverse:     "#ef5350",
	pattern.Glitch:      "#ff7043",
	pattern.Lowpass:     "#8d6e63",
	pattern.Highpass:    "#fdd835",
	pattern.Bandpass:    "#ffb300",
	pattern.Phaser:      "#26c6da",
	pattern.Stutter:     "#ec407a",
	pattern.PitchUp:     "#9ccc65",
	pattern.PitchDown:   "#66bb6a",
	pattern.AutoPan:     "#5c6bc0",
	pattern.Gate:        "#78909c",
	pattern.Bitcrusher:  "#d4e157",
	pattern.PingPong:    "#29b6f6",
	pattern.FilterSweep: "#ab47bc",
	pattern.Vibrato:     "#26a69a",
	pattern.TapeStop:    "#8e24aa",
	pattern.StereoWiden: "#00acc1",
}

// handleIndex serves the sampler page
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, "index.html", map[string]any{
		"Effects": s.effectList(),
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// handleGenerate starts a generation job
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string  `json:"prompt"`
		BPM    float64 `json:"bpm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "bad request body", http.StatusBadRequest)
		return
	}
	if req.Prompt == "" {
		s.jsonError(w, "prompt is required", http.StatusBadRequest)
		return
	}
	if req.BPM == 0 {
		req.BPM = s.eng.Tempo()
	}
	if req.BPM < minBPM || req.BPM > maxBPM {
		s.jsonError(w, fmt.Sprintf("bpm must be between %d and %d", minBPM, maxBPM), http.StatusBadRequest)
		return
	}

	s.eng.SetTempo(req.BPM)
	job := s.jobs.Create(req.Prompt, req.BPM)
	go s.jobs.Process(job)

	s.writeJSON(w, map[string]string{"id": job.ID})
}

// handleStatus streams job progress via SSE
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job := s.jobs.Get(chi.URLParam(r, "id"))
	if job == nil {
		s.jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case update, ok := <-job.Updates:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: progress\n")
			fmt.Fprintf(w, "data: %s\n\n", update)
			flusher.Flush()

			if job.Status == StatusComplete || job.Status == StatusFailed {
				fmt.Fprintf(w, "event: done\n")
				fmt.Fprintf(w, "data: %s\n\n", job.Status)
				flusher.Flush()
				return
			}
		}
	}
}

// handleWaveform returns min/max peak pairs of the loaded loop
func (s *Server) handleWaveform(w http.ResponseWriter, r *http.Request) {
	loop := s.eng.Loop()
	if loop == nil {
		s.jsonError(w, "no loop loaded", http.StatusNotFound)
		return
	}

	bins := 200
	if q := r.URL.Query().Get("bins"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 || n > 4096 {
			s.jsonError(w, "bad bins value", http.StatusBadRequest)
			return
		}
		bins = n
	}

	s.writeJSON(w, map[string]any{
		"duration": loop.Duration(),
		"peaks":    audio.Peaks(loop, bins),
	})
}

// handleSelect sets the active sample region
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "bad request body", http.StatusBadRequest)
		return
	}
	if s.eng.Loop() == nil {
		s.jsonError(w, "no loop loaded", http.StatusConflict)
		return
	}

	s.eng.Select(req.Start, req.End)
	s.writeJSON(w, map[string]bool{"selected": s.eng.Sample() != nil})
}

// handleEffects lists the available effects with display colors
func (s *Server) handleEffects(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.effectList())
}

// handleToggle sets or clears one pattern step
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Step   int    `json:"step"`
		Effect string `json:"effect"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "bad request body", http.StatusBadRequest)
		return
	}
	if req.Step < 0 || req.Step >= pattern.Steps {
		s.jsonError(w, "step out of range", http.StatusBadRequest)
		return
	}
	fx, err := pattern.ParseEffect(req.Effect)
	if err != nil {
		s.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.eng.Toggle(req.Step, fx)
	s.writeState(w)
}

// handleRandomize replaces the pattern with a random one
func (s *Server) handleRandomize(w http.ResponseWriter, r *http.Request) {
	s.eng.Randomize()
	s.writeState(w)
}

// handlePlay starts the transport
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	if err := s.eng.Play(); err != nil {
		if errors.Is(err, apperrors.ErrNoSample) {
			s.jsonError(w, "select a sample region first", http.StatusConflict)
			return
		}
		s.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeState(w)
}

// handleStop stops the transport
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.eng.Stop()
	s.writeState(w)
}

// handleTempo changes the session tempo
func (s *Server) handleTempo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BPM float64 `json:"bpm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "bad request body", http.StatusBadRequest)
		return
	}
	if req.BPM < minBPM || req.BPM > maxBPM {
		s.jsonError(w, fmt.Sprintf("bpm must be between %d and %d", minBPM, maxBPM), http.StatusBadRequest)
		return
	}

	s.eng.SetTempo(req.BPM)
	s.writeState(w)
}

// handleState returns the session snapshot
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeState(w)
}

// handleExport renders the current pattern and serves the WAV
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name := engine.ExportFilename(s.eng.Tempo())
	path := filepath.Join(os.TempDir(), name)
	if err := s.eng.Export(path); err != nil {
		if errors.Is(err, apperrors.ErrNoSample) {
			s.jsonError(w, "select a sample region first", http.StatusConflict)
			return
		}
		s.logger.Error("export failed", "error", err)
		s.jsonError(w, "export failed", http.StatusInternalServerError)
		return
	}
	defer os.Remove(path)

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

// effectList builds the id/name/color rows for the UI
func (s *Server) effectList() []map[string]string {
	var out []map[string]string
	for _, fx := range pattern.Effects() {
		out = append(out, map[string]string{
			"name":  fx.String(),
			"color": effectColors[fx],
		})
	}
	return out
}

// writeState writes the session snapshot as JSON
func (s *Server) writeState(w http.ResponseWriter) {
	p := s.eng.Pattern()
	steps := make([]string, pattern.Steps)
	for i := 0; i < pattern.Steps; i++ {
		if fx := p.At(i); fx != pattern.None {
			steps[i] = fx.String()
		}
	}
	s.writeJSON(w, map[string]any{
		"playing":   s.eng.Playing(),
		"step":      s.eng.CurrentStep(),
		"tempo":     s.eng.Tempo(),
		"pattern":   steps,
		"hasLoop":   s.eng.Loop() != nil,
		"hasSample": s.eng.Sample() != nil,
	})
}

// render executes a named template
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("render template", "error", err)
	}
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// jsonError writes a JSON error response
func (s *Server) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
