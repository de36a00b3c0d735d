package pattern

import (
	"math/rand"
	"strings"
)

// Steps is the fixed number of slots in a pattern; each slot covers a
// sixteenth note (1/4 of a beat).
const Steps = 16

// nullWeight is the randomizer's weight for drawing an empty slot,
// relative to weight 1 for each individual effect.
const nullWeight = 6

// Pattern is a 16-slot step pattern. Each slot holds an effect or None.
// Slot identity is its index; index 0 is the sequencer's anchor step.
type Pattern [Steps]Effect

// StepDuration returns the length of one step in seconds at the given
// tempo: a sixteenth note, 60/bpm/4.
func StepDuration(bpm float64) float64 {
	return 60.0 / bpm / 4.0
}

// PassDuration returns the length of one full 16-step pass in seconds.
func PassDuration(bpm float64) float64 {
	return Steps * StepDuration(bpm)
}

// Toggle sets slot i to fx, or clears it when the slot already holds fx.
// Toggling the same index with the same effect twice restores the slot.
func (p *Pattern) Toggle(i int, fx Effect) {
	i = ((i % Steps) + Steps) % Steps
	if p[i] == fx {
		p[i] = None
		return
	}
	p[i] = fx
}

// At returns the slot at index i, wrapping modulo 16.
func (p *Pattern) At(i int) Effect {
	return p[((i%Steps)+Steps)%Steps]
}

// Empty reports whether every slot is None.
func (p *Pattern) Empty() bool {
	for _, fx := range p {
		if fx != None {
			return false
		}
	}
	return true
}

// Clear resets every slot to None.
func (p *Pattern) Clear() {
	for i := range p {
		p[i] = None
	}
}

// Randomize replaces the pattern with a random one. Each slot is drawn
// independently from the effect set with a heavy null weighting; the whole
// draw is retried until the result is neither all-empty nor identical to
// the current pattern.
func (p *Pattern) Randomize(rng *rand.Rand) {
	total := numEffects + nullWeight
	for {
		var next Pattern
		for i := range next {
			r := rng.Intn(total)
			if r < nullWeight {
				next[i] = None
			} else {
				next[i] = Effect(r - nullWeight + 1)
			}
		}
		if next.Empty() || next == *p {
			continue
		}
		*p = next
		return
	}
}

// String renders the pattern as comma-separated effect names with empty
// slots left blank, e.g. "normal,,reverb,...".
func (p *Pattern) String() string {
	names := make([]string, Steps)
	for i, fx := range p {
		names[i] = fx.String()
	}
	return strings.Join(names, ",")
}

// Parse builds a pattern from the comma-separated form produced by String.
// Missing trailing slots stay empty.
func Parse(s string) (Pattern, error) {
	var p Pattern
	if strings.TrimSpace(s) == "" {
		return p, nil
	}
	parts := strings.Split(s, ",")
	for i, part := range parts {
		if i >= Steps {
			break
		}
		fx, err := ParseEffect(strings.TrimSpace(part))
		if err != nil {
			return Pattern{}, err
		}
		p[i] = fx
	}
	return p, nil
}
