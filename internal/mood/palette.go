package mood

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/coreman2200/moodlight/internal/strip"
)

// Feeling labels produced by the emotion classifier.
const (
	Happy = "happy"
	Sad   = "sad"
	Angry = "angry"
)

// DefaultColorName is used for unknown feelings and unsupported color names.
const DefaultColorName = "white"

// Entry pairs the RGB used for local rendering with the lowercase name sent
// on the wire. The receiving node re-resolves the name.
type Entry struct {
	Color strip.Color
	Name  string
}

var colorsByName = map[string]strip.Color{
	"yellow": {R: 255, G: 255, B: 0},
	"blue":   {R: 0, G: 0, B: 255},
	"red":    {R: 255, G: 0, B: 0},
	"white":  {R: 255, G: 255, B: 255},
}

var nameByFeeling = map[string]string{
	Happy: "yellow",
	Sad:   "blue",
	Angry: "red",
}

// ForFeeling resolves a feeling label. Unknown labels map to white.
func ForFeeling(feeling string) Entry {
	name, ok := nameByFeeling[strings.ToLower(strings.TrimSpace(feeling))]
	if !ok {
		name = DefaultColorName
	}
	return Entry{Color: colorsByName[name], Name: name}
}

// ColorByName resolves a wire color name. ok is false when the name is not
// supported; the returned color is white in that case.
func ColorByName(name string) (strip.Color, bool) {
	c, ok := colorsByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return colorsByName[DefaultColorName], false
	}
	return c, true
}

// FeelingForLabel maps the classifier's integer output to a feeling label.
func FeelingForLabel(label int) (string, error) {
	switch label {
	case 0:
		return Happy, nil
	case 1:
		return Sad, nil
	case 2:
		return Angry, nil
	default:
		return "", fmt.Errorf("unknown emotion label: %d", label)
	}
}

// ReadFeeling returns the last non-empty line of path.
func ReadFeeling(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	last := ""
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			last = line
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("read feeling file: %w", err)
	}
	return last, nil
}
