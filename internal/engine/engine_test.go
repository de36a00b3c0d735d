package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/oblinof/AI-Sampler-Sequencer/internal/audio"
	apperrors "github.com/oblinof/AI-Sampler-Sequencer/internal/errors"
	"github.com/oblinof/AI-Sampler-Sequencer/internal/pattern"
)

func testLoop(seconds float64, sampleRate int) *audio.Buffer {
	data := make([][2]float64, int(seconds*float64(sampleRate)))
	for i := range data {
		data[i] = [2]float64{0.25, 0.25}
	}
	return audio.NewBuffer(data, sampleRate)
}

func TestPlayRequiresSample(t *testing.T) {
	e := New(48000)
	if err := e.Play(); !errors.Is(err, apperrors.ErrNoSample) {
		t.Fatalf("Play without sample = %v, want ErrNoSample", err)
	}

	e.SetLoop(testLoop(2, 48000))
	if err := e.Play(); !errors.Is(err, apperrors.ErrNoSample) {
		t.Fatalf("Play with loop but no selection = %v, want ErrNoSample", err)
	}

	e.Select(0.5, 1.0)
	if err := e.Play(); err != nil {
		t.Fatalf("Play with selection failed: %v", err)
	}
	e.Stop()
}

func TestSelect(t *testing.T) {
	e := New(48000)

	t.Run("NoLoop", func(t *testing.T) {
		e.Select(0, 1)
		if e.Sample() != nil {
			t.Fatal("selection exists without a loop")
		}
	})

	e.SetLoop(testLoop(2, 48000))

	t.Run("Region", func(t *testing.T) {
		e.Select(0.5, 1.0)
		s := e.Sample()
		if s == nil {
			t.Fatal("no sample after selection")
		}
		if got, want := s.FrameCount(), 24000; got != want {
			t.Fatalf("selection holds %d frames, want %d", got, want)
		}
	})

	t.Run("TinySpanClears", func(t *testing.T) {
		e.Select(0.5, 1.0)
		e.Select(0.5, 0.505)
		if e.Sample() != nil {
			t.Fatal("sub-10ms span should clear the selection")
		}
	})

	t.Run("NewLoopClears", func(t *testing.T) {
		e.Select(0.5, 1.0)
		e.SetLoop(testLoop(1, 48000))
		if e.Sample() != nil {
			t.Fatal("loading a loop should drop the old selection")
		}
	})
}

func TestTransportStateMachine(t *testing.T) {
	e := New(48000)
	e.SetLoop(testLoop(2, 48000))
	e.Select(0, 0.5)

	if e.Playing() {
		t.Fatal("fresh engine reports playing")
	}
	if e.CurrentStep() != -1 {
		t.Fatalf("stopped current step = %d, want -1", e.CurrentStep())
	}

	// step 0 carries an effect so the first firing is observable
	e.Toggle(0, pattern.Normal)

	if err := e.Play(); err != nil {
		t.Fatal(err)
	}
	if !e.Playing() {
		t.Fatal("engine not playing after Play")
	}

	deadline := time.After(time.Second)
	for e.CurrentStep() != 0 {
		select {
		case <-deadline:
			t.Fatal("step 0 never scheduled")
		case <-time.After(5 * time.Millisecond):
		}
	}

	e.Stop()
	if e.Playing() {
		t.Fatal("engine still playing after Stop")
	}
	if e.CurrentStep() != -1 {
		t.Fatalf("current step after Stop = %d, want -1", e.CurrentStep())
	}

	// stop is idempotent
	e.Stop()
}

func TestStopHaltsScheduling(t *testing.T) {
	e := New(48000)
	e.SetLoop(testLoop(2, 48000))
	e.Select(0, 0.5)

	if err := e.Play(); err != nil {
		t.Fatal(err)
	}
	e.Stop()

	// the bus keeps streaming; the clock advances but no new steps land
	buf := make([][2]float64, 4800)
	for i := 0; i < 20; i++ {
		e.Bus().Stream(buf)
	}
	if e.CurrentStep() != -1 {
		t.Fatalf("steps scheduled after Stop: current = %d", e.CurrentStep())
	}
}

func TestRestartRewindsToStepZero(t *testing.T) {
	e := New(48000)
	e.SetLoop(testLoop(2, 48000))
	e.Select(0, 0.5)
	e.Toggle(0, pattern.Normal)

	if err := e.Play(); err != nil {
		t.Fatal(err)
	}
	// advance the bus clock well past the first step, then restart
	buf := make([][2]float64, 48000)
	e.Bus().Stream(buf)
	if err := e.Play(); err != nil {
		t.Fatal(err)
	}
	defer e.Stop()

	deadline := time.After(time.Second)
	for e.CurrentStep() != 0 {
		select {
		case <-deadline:
			t.Fatal("restart did not rewind to step 0")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestPatternOps(t *testing.T) {
	e := New(48000)

	e.Toggle(3, pattern.Reverb)
	pat := e.Pattern()
	if got := pat.At(3); got != pattern.Reverb {
		t.Fatalf("step 3 = %v, want reverb", got)
	}
	e.Toggle(3, pattern.Reverb)
	pat = e.Pattern()
	if got := pat.At(3); got != pattern.None {
		t.Fatalf("retoggle left step 3 = %v, want empty", got)
	}

	e.Randomize()
	p := e.Pattern()
	if p.Empty() {
		t.Fatal("randomize produced an empty pattern")
	}

	e.SetTempo(90)
	if got := e.Tempo(); got != 90 {
		t.Fatalf("tempo = %v, want 90", got)
	}
}
