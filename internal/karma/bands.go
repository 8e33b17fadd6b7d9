package karma

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// BandWidth is the width of every mood band.
const BandWidth = 100

// Tone is the tier a band belongs to, most negative first.
type Tone int

const (
	Hostile Tone = iota
	Toxic
	Cold
	Normal
	Warm
	Kind
	Saintly
)

var toneNames = [...]string{"hostile", "toxic", "cold", "normal", "warm", "kind", "saintly"}

func (t Tone) String() string {
	if t < Hostile || t > Saintly {
		return "unknown"
	}
	return toneNames[t]
}

// RestrictedBias scales how eager a tone is to use restricted vocabulary.
func (t Tone) RestrictedBias() float64 {
	switch t {
	case Hostile:
		return 2
	case Toxic:
		return 1.5
	case Cold, Normal:
		return 1
	case Warm:
		return 0.5
	default:
		return 0
	}
}

// Band is the tone profile of one 100-wide slice of the mood range.
type Band struct {
	Floor  int      `yaml:"floor" json:"floor"`
	Name   string   `yaml:"name" json:"name"`
	Traits []string `yaml:"traits" json:"traits"`
	Tone   Tone     `yaml:"-" json:"tone"`
}

// Equal reports whether two bands describe the same slice.
func (b Band) Equal(o Band) bool { return b.Floor == o.Floor }

func toneForFloor(floor int) Tone {
	switch {
	case floor <= -700:
		return Hostile
	case floor <= -400:
		return Toxic
	case floor <= -200:
		return Cold
	case floor <= 0:
		return Normal
	case floor <= 200:
		return Warm
	case floor <= 600:
		return Kind
	default:
		return Saintly
	}
}

var defaultBands = []Band{
	{Floor: -1000, Name: "👹 Abyss", Traits: []string{"merciless", "screaming", "vengeful"}},
	{Floor: -900, Name: "🔥 Inferno", Traits: []string{"furious", "cruel"}},
	{Floor: -800, Name: "💢 Rage", Traits: []string{"furious", "insulting"}},
	{Floor: -700, Name: "😡 Wrath", Traits: []string{"hostile", "loud"}},
	{Floor: -600, Name: "☠️ Venom", Traits: []string{"toxic", "spiteful"}},
	{Floor: -500, Name: "🐍 Spite", Traits: []string{"toxic", "mocking"}},
	{Floor: -400, Name: "😒 Scorn", Traits: []string{"dismissive", "sarcastic"}},
	{Floor: -300, Name: "🥶 Frost", Traits: []string{"cold", "curt"}},
	{Floor: -200, Name: "😑 Chill", Traits: []string{"reserved", "dry"}},
	{Floor: -100, Name: "😐 Grumpy", Traits: []string{"neutral", "grumbling"}},
	{Floor: 0, Name: "🙂 Calm", Traits: []string{"neutral", "plain"}},
	{Floor: 100, Name: "😊 Friendly", Traits: []string{"friendly", "light"}},
	{Floor: 200, Name: "😄 Cheerful", Traits: []string{"cheerful", "playful"}},
	{Floor: 300, Name: "🤗 Warm", Traits: []string{"kind", "supportive"}},
	{Floor: 400, Name: "💐 Caring", Traits: []string{"kind", "attentive"}},
	{Floor: 500, Name: "💖 Gentle", Traits: []string{"gentle", "tender"}},
	{Floor: 600, Name: "🌸 Tender", Traits: []string{"tender", "patient"}},
	{Floor: 700, Name: "😇 Blessed", Traits: []string{"saintly", "forgiving"}},
	{Floor: 800, Name: "🕊️ Serene", Traits: []string{"saintly", "calm"}},
	{Floor: 900, Name: "✨ Radiant", Traits: []string{"saintly", "radiant"}},
	{Floor: 1000, Name: "👼 Saint", Traits: []string{"saintly", "angelic", "flawless"}},
}

// Bands maps mood values to tone profiles. It is immutable after creation.
type Bands struct {
	byFloor map[int]Band
}

// DefaultBands returns the built-in band table.
func DefaultBands() *Bands {
	b := &Bands{byFloor: make(map[int]Band, len(defaultBands))}
	for _, band := range defaultBands {
		band.Tone = toneForFloor(band.Floor)
		band.Traits = append([]string(nil), band.Traits...)
		b.byFloor[band.Floor] = band
	}
	return b
}

// LoadBands reads display names and traits from a YAML list and lays them
// over the defaults. Floors must exist in the table and appear once.
func LoadBands(path string) (*Bands, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bands file: %w", err)
	}
	var overrides []Band
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse bands file: %w", err)
	}

	b := DefaultBands()
	seen := make(map[int]bool)
	for _, o := range overrides {
		cur, ok := b.byFloor[o.Floor]
		if !ok {
			return nil, fmt.Errorf("band floor %d is not a multiple of %d within [%d,%d]", o.Floor, BandWidth, Min, Max)
		}
		if seen[o.Floor] {
			return nil, fmt.Errorf("band floor %d defined twice", o.Floor)
		}
		seen[o.Floor] = true
		if o.Name != "" {
			cur.Name = o.Name
		}
		if len(o.Traits) > 0 {
			cur.Traits = o.Traits
		}
		b.byFloor[o.Floor] = cur
	}
	return b, nil
}

// Floor returns floor(value/100)*100 limited to the mood range.
func Floor(value int) int {
	f := int(math.Floor(float64(value)/BandWidth)) * BandWidth
	return clamp(f)
}

// For returns the band value falls into.
func (b *Bands) For(value int) Band {
	band := b.byFloor[Floor(value)]
	band.Traits = append([]string(nil), band.Traits...)
	return band
}

// All returns every band, most negative first.
func (b *Bands) All() []Band {
	out := make([]Band, 0, len(b.byFloor))
	for f := Min; f <= Max; f += BandWidth {
		out = append(out, b.For(f))
	}
	return out
}

var builtin = DefaultBands()

// BandFor maps value to its built-in band. Pure, no I/O.
func BandFor(value int) Band {
	return builtin.For(value)
}
