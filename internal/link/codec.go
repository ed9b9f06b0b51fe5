package link

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/coreman2200/moodlight/internal/mood"
	"github.com/coreman2200/moodlight/internal/strip"
)

var (
	// ErrMalformed marks a short, garbled or out-of-grammar line.
	ErrMalformed = errors.New("malformed line")
	// ErrUnknownTarget marks a strip identifier outside the grammar.
	ErrUnknownTarget = errors.New("unknown strip")
)

// Fields normalizes the pipe separator to a comma and returns the trimmed
// fields. Empty fields are dropped.
func Fields(line string) []string {
	s := strings.ReplaceAll(strings.TrimSpace(line), "|", ",")
	raw := strings.Split(s, ",")
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ParseMode decodes a mode-switch line. A "mode:" style prefix is accepted.
func ParseMode(line string) (mood.Mood, error) {
	s := strings.TrimSpace(line)
	if _, rest, ok := strings.Cut(s, ":"); ok {
		s = rest
	}
	return mood.Parse(s)
}

// IsAck reports whether line is the DONE handshake.
func IsAck(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), AckLine)
}

// Decode parses line against the grammar of the active mood. Mode lines and
// acks are recognized under every mood.
func Decode(m mood.Mood, line string) (Message, error) {
	if IsAck(line) {
		return Ack{}, nil
	}
	if md, err := ParseMode(line); err == nil {
		return ModeLine{Mood: md}, nil
	}
	switch m {
	case mood.Energy:
		return ParseEnergy(line)
	case mood.Focus:
		return ParseFocus(line)
	case mood.Love:
		return ParseLove(line)
	case mood.Healing:
		return ParseHealing(line)
	case mood.Relief:
		return ParseRelief(line)
	default:
		return nil, fmt.Errorf("%w: %q", mood.ErrUnknown, m)
	}
}

// ParseEnergy decodes "<C|D>,<r>,<g>,<b>".
func ParseEnergy(line string) (EnergyData, error) {
	f := Fields(line)
	if len(f) != 4 {
		return EnergyData{}, malformed(line)
	}
	t, err := parseTarget(f[0], false)
	if err != nil {
		return EnergyData{}, err
	}
	var ch [3]uint8
	for i := range ch {
		v, err := strconv.Atoi(f[i+1])
		if err != nil || v < 0 || v > 255 {
			return EnergyData{}, malformed(line)
		}
		ch[i] = uint8(v)
	}
	return EnergyData{Target: t, Color: strip.Color{R: ch[0], G: ch[1], B: ch[2]}}, nil
}

// ParseFocus decodes "<C|D>,<level>".
func ParseFocus(line string) (FocusData, error) {
	t, lvl, err := parseTargetLevel(line)
	return FocusData{Target: t, Level: lvl}, err
}

// ParseLove decodes "<C|D>,<level>".
func ParseLove(line string) (LoveData, error) {
	t, lvl, err := parseTargetLevel(line)
	return LoveData{Target: t, Level: lvl}, err
}

// ParseHealing decodes "<C|D|ALL|*>,<level>[%],<color_name>". The level may
// be fractional and is clamped to 0..100; the color name is lowercased.
func ParseHealing(line string) (HealingData, error) {
	f := Fields(line)
	if len(f) != 3 {
		return HealingData{}, malformed(line)
	}
	t, err := parseTarget(f[0], true)
	if err != nil {
		return HealingData{}, err
	}
	lvl, err := parseLevel(f[1])
	if err != nil {
		return HealingData{}, malformed(line)
	}
	return HealingData{Target: t, Level: lvl, ColorName: strings.ToLower(f[2])}, nil
}

// ParseRelief decodes "<C|D>,<color_name>".
func ParseRelief(line string) (ReliefData, error) {
	f := Fields(line)
	if len(f) != 2 {
		return ReliefData{}, malformed(line)
	}
	t, err := parseTarget(f[0], false)
	if err != nil {
		return ReliefData{}, err
	}
	return ReliefData{Target: t, ColorName: strings.ToLower(f[1])}, nil
}

func parseTargetLevel(line string) (Target, int, error) {
	f := Fields(line)
	if len(f) != 2 {
		return "", 0, malformed(line)
	}
	t, err := parseTarget(f[0], false)
	if err != nil {
		return "", 0, err
	}
	lvl, err := parseLevel(f[1])
	if err != nil {
		return "", 0, malformed(line)
	}
	return t, lvl, nil
}

func parseTarget(s string, allowAll bool) (Target, error) {
	switch up := strings.ToUpper(strings.TrimSpace(s)); up {
	case "C", "D":
		return Target(up), nil
	case "ALL", "*":
		if allowAll {
			return TargetAll, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTarget, s)
}

func parseLevel(s string) (int, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("level out of range: %q", s)
	}
	return int(clampLevel(v)), nil
}

func clampLevel(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func malformed(line string) error {
	return fmt.Errorf("%w: %q", ErrMalformed, line)
}
