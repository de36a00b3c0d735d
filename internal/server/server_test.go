package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oblinof/AI-Sampler-Sequencer/internal/audio"
	"github.com/oblinof/AI-Sampler-Sequencer/internal/engine"
	"github.com/oblinof/AI-Sampler-Sequencer/internal/gen"
)

func newTestServer(t *testing.T) (*Server, *engine.Engine) {
	t.Helper()
	eng := engine.New(48000)
	s, err := New(Config{Addr: ":0"}, eng, gen.NewClient(gen.Config{URL: "ws://localhost:1/ws"}))
	if err != nil {
		t.Fatal(err)
	}
	return s, eng
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("bad JSON response %q: %v", rec.Body.String(), err)
	}
}

func loadTestLoop(eng *engine.Engine) {
	data := make([][2]float64, 96000)
	for i := range data {
		data[i] = [2]float64{0.25, 0.25}
	}
	eng.SetLoop(audio.NewBuffer(data, 48000))
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestIndexRenders(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("waveform")) {
		t.Error("index page missing the waveform panel")
	}
}

func TestEffectsList(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/effects", nil)

	var effects []map[string]string
	decode(t, rec, &effects)
	if len(effects) != 20 {
		t.Fatalf("%d effects listed, want 20", len(effects))
	}
	for _, e := range effects {
		if e["name"] == "" || e["color"] == "" {
			t.Errorf("incomplete effect row: %v", e)
		}
	}
}

func TestStateAndToggle(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/pattern/toggle", map[string]any{"step": 2, "effect": "reverb"})
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle status = %d: %s", rec.Code, rec.Body.String())
	}

	var state struct {
		Playing bool     `json:"playing"`
		Step    int      `json:"step"`
		Tempo   float64  `json:"tempo"`
		Pattern []string `json:"pattern"`
	}
	decode(t, rec, &state)
	if state.Pattern[2] != "reverb" {
		t.Errorf("step 2 = %q, want reverb", state.Pattern[2])
	}
	if state.Playing || state.Step != -1 {
		t.Errorf("fresh session: playing=%v step=%d", state.Playing, state.Step)
	}
	if state.Tempo != 120 {
		t.Errorf("tempo = %v, want 120", state.Tempo)
	}
}

func TestToggleValidation(t *testing.T) {
	s, _ := newTestServer(t)

	if rec := do(t, s, http.MethodPost, "/pattern/toggle", map[string]any{"step": 16, "effect": "reverb"}); rec.Code != http.StatusBadRequest {
		t.Errorf("step 16 accepted: %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/pattern/toggle", map[string]any{"step": 0, "effect": "megaboost"}); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown effect accepted: %d", rec.Code)
	}
}

func TestTempoValidation(t *testing.T) {
	s, eng := newTestServer(t)

	if rec := do(t, s, http.MethodPost, "/tempo", map[string]any{"bpm": 10}); rec.Code != http.StatusBadRequest {
		t.Errorf("bpm 10 accepted: %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/tempo", map[string]any{"bpm": 999}); rec.Code != http.StatusBadRequest {
		t.Errorf("bpm 999 accepted: %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/tempo", map[string]any{"bpm": 140}); rec.Code != http.StatusOK {
		t.Errorf("bpm 140 rejected: %d", rec.Code)
	}
	if eng.Tempo() != 140 {
		t.Errorf("engine tempo = %v, want 140", eng.Tempo())
	}
}

func TestPlayWithoutSample(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/transport/play", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("play without sample = %d, want 409", rec.Code)
	}
}

func TestSelectAndPlay(t *testing.T) {
	s, eng := newTestServer(t)
	loadTestLoop(eng)

	rec := do(t, s, http.MethodPost, "/sample/select", map[string]any{"start": 0.0, "end": 0.5})
	if rec.Code != http.StatusOK {
		t.Fatalf("select status = %d: %s", rec.Code, rec.Body.String())
	}
	var sel map[string]bool
	decode(t, rec, &sel)
	if !sel["selected"] {
		t.Fatal("selection not registered")
	}

	rec = do(t, s, http.MethodPost, "/transport/play", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("play status = %d: %s", rec.Code, rec.Body.String())
	}
	eng.Stop()
}

func TestSelectTinySpan(t *testing.T) {
	s, eng := newTestServer(t)
	loadTestLoop(eng)

	do(t, s, http.MethodPost, "/sample/select", map[string]any{"start": 0.0, "end": 0.5})
	rec := do(t, s, http.MethodPost, "/sample/select", map[string]any{"start": 0.2, "end": 0.205})

	var sel map[string]bool
	decode(t, rec, &sel)
	if sel["selected"] {
		t.Fatal("sub-10ms span kept a selection")
	}
}

func TestWaveform(t *testing.T) {
	s, eng := newTestServer(t)

	if rec := do(t, s, http.MethodGet, "/waveform", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("waveform without loop = %d, want 404", rec.Code)
	}

	loadTestLoop(eng)
	rec := do(t, s, http.MethodGet, "/waveform?bins=64", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("waveform status = %d", rec.Code)
	}
	var wf struct {
		Duration float64      `json:"duration"`
		Peaks    []audio.Peak `json:"peaks"`
	}
	decode(t, rec, &wf)
	if wf.Duration != 2.0 {
		t.Errorf("duration = %v, want 2.0", wf.Duration)
	}
	if len(wf.Peaks) != 64 {
		t.Errorf("%d peaks, want 64", len(wf.Peaks))
	}
}

func TestExport(t *testing.T) {
	s, eng := newTestServer(t)

	if rec := do(t, s, http.MethodGet, "/export", nil); rec.Code != http.StatusConflict {
		t.Fatalf("export without sample = %d, want 409", rec.Code)
	}

	loadTestLoop(eng)
	do(t, s, http.MethodPost, "/sample/select", map[string]any{"start": 0.0, "end": 0.5})
	do(t, s, http.MethodPost, "/pattern/toggle", map[string]any{"step": 0, "effect": "normal"})

	rec := do(t, s, http.MethodGet, "/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "audio/wav" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !bytes.Contains([]byte(cd), []byte("sequence_120bpm.wav")) {
		t.Errorf("content disposition = %q", cd)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty export body")
	}
}

func TestGenerateValidation(t *testing.T) {
	s, _ := newTestServer(t)

	if rec := do(t, s, http.MethodPost, "/generate", map[string]any{"prompt": ""}); rec.Code != http.StatusBadRequest {
		t.Errorf("empty prompt accepted: %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/generate", map[string]any{"prompt": "x", "bpm": 500}); rec.Code != http.StatusBadRequest {
		t.Errorf("bpm 500 accepted: %d", rec.Code)
	}
}

func TestStatusUnknownJob(t *testing.T) {
	s, _ := newTestServer(t)
	if rec := do(t, s, http.MethodGet, "/status/12345", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown job = %d, want 404", rec.Code)
	}
}
