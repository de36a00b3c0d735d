package pattern

import "fmt"

// Effect identifies one synthesis recipe from the closed effect set. The
// zero value None marks an empty pattern slot.
type Effect int

const (
	None Effect = iota
	Normal
	Reverb
	Delay
	Reverse
	Glitch
	Lowpass
	Highpass
	Bandpass
	Phaser
	Stutter
	PitchUp
	PitchDown
	AutoPan
	Gate
	Bitcrusher
	PingPong
	FilterSweep
	Vibrato
	TapeStop
	StereoWiden

	numEffects = int(StereoWiden) // count excluding None
)

var effectNames = map[Effect]string{
	None:        "",
	Normal:      "normal",
	Reverb:      "reverb",
	Delay:       "delay",
	Reverse:     "reverse",
	Glitch:      "glitch",
	Lowpass:     "lowpass",
	Highpass:    "highpass",
	Bandpass:    "bandpass",
	Phaser:      "phaser",
	Stutter:     "stutter",
	PitchUp:     "pitchUp",
	PitchDown:   "pitchDown",
	AutoPan:     "autoPan",
	Gate:        "gate",
	Bitcrusher:  "bitcrusher",
	PingPong:    "pingPong",
	FilterSweep: "filterSweep",
	Vibrato:     "vibrato",
	TapeStop:    "tapeStop",
	StereoWiden: "stereoWiden",
}

// String returns the canonical effect name; the empty string for None.
func (e Effect) String() string {
	if name, ok := effectNames[e]; ok {
		return name
	}
	return fmt.Sprintf("effect(%d)", int(e))
}

// Valid reports whether e is a member of the effect set (None included).
func (e Effect) Valid() bool {
	return e >= None && int(e) <= numEffects
}

// ParseEffect resolves a canonical name to its Effect. The empty string
// parses to None.
func ParseEffect(name string) (Effect, error) {
	for e, n := range effectNames {
		if n == name {
			return e, nil
		}
	}
	return None, fmt.Errorf("unknown effect %q", name)
}

// Effects returns all effects in declaration order, excluding None.
func Effects() []Effect {
	out := make([]Effect, 0, numEffects)
	for e := Normal; int(e) <= numEffects; e++ {
		out = append(out, e)
	}
	return out
}
