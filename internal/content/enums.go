package content

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownIcon = errors.New("unknown icon")
	ErrUnknownTone = errors.New("unknown tone")
)

// Icon names a glyph the frontend knows how to draw.
type Icon int

const (
	IconFileText Icon = iota + 1
	IconShieldCheck
	IconGitMerge
	IconFactory
	IconWrench
	IconPlane
	IconCar
	IconMicroscope
	IconSparkles
	IconUtensils
	IconFlaskConical
	IconStethoscope
	IconPill
)

var iconNames = map[Icon]string{
	IconFileText:     "file-text",
	IconShieldCheck:  "shield-check",
	IconGitMerge:     "git-merge",
	IconFactory:      "factory",
	IconWrench:       "wrench",
	IconPlane:        "plane",
	IconCar:          "car",
	IconMicroscope:   "microscope",
	IconSparkles:     "sparkles",
	IconUtensils:     "utensils",
	IconFlaskConical: "flask-conical",
	IconStethoscope:  "stethoscope",
	IconPill:         "pill",
}

func (i Icon) String() string {
	if name, ok := iconNames[i]; ok {
		return name
	}
	return fmt.Sprintf("Icon(%d)", int(i))
}

func (i Icon) MarshalText() ([]byte, error) {
	name, ok := iconNames[i]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownIcon, int(i))
	}
	return []byte(name), nil
}

func (i *Icon) UnmarshalText(b []byte) error {
	for icon, name := range iconNames {
		if name == string(b) {
			*i = icon
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownIcon, b)
}

// Tone is the colour family of a product card.
type Tone int

const (
	ToneBlue Tone = iota + 1
	ToneEmerald
	ToneBrand
	ToneAmber
	TonePurple
)

// Style is what the frontend needs to paint a card in a given tone.
type Style struct {
	Gradient string `json:"gradient"`
	Accent   string `json:"accent"`
}

type toneEntry struct {
	name  string
	style Style
}

var tones = map[Tone]toneEntry{
	ToneBlue:    {"blue", Style{Gradient: "from-blue-50 to-blue-100", Accent: "text-blue-600"}},
	ToneEmerald: {"emerald", Style{Gradient: "from-emerald-50 to-emerald-100", Accent: "text-emerald-600"}},
	ToneBrand:   {"brand", Style{Gradient: "from-blue-50 to-blue-100", Accent: "text-[#0667FF]"}},
	ToneAmber:   {"amber", Style{Gradient: "from-amber-50 to-amber-100", Accent: "text-amber-600"}},
	TonePurple:  {"purple", Style{Gradient: "from-purple-50 to-purple-100", Accent: "text-purple-600"}},
}

// Style returns the descriptor for t. ok is false for values outside the enumeration.
func (t Tone) Style() (Style, bool) {
	e, ok := tones[t]
	return e.style, ok
}

func (t Tone) String() string {
	if e, ok := tones[t]; ok {
		return e.name
	}
	return fmt.Sprintf("Tone(%d)", int(t))
}

func (t Tone) MarshalText() ([]byte, error) {
	e, ok := tones[t]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTone, int(t))
	}
	return []byte(e.name), nil
}
