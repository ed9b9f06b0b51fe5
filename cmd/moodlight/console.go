package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/coreman2200/moodlight/internal/mood"
)

type verb int

const (
	verbStart verb = iota
	verbStop
	verbQuit
	verbStatus
)

// command is one line typed at the driver console.
type command struct {
	verb    verb
	mood    string
	feeling string
}

var errEmpty = errors.New("empty command")

// parseCommand accepts "<mood> [feeling]", "stop", "status" and "quit".
// A feeling may also be given as a classifier label such as "label=1".
func parseCommand(line string) (command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return command{}, errEmpty
	}
	switch fields[0] {
	case "stop":
		return command{verb: verbStop}, nil
	case "quit", "exit":
		return command{verb: verbQuit}, nil
	case "status":
		return command{verb: verbStatus}, nil
	}
	if len(fields) > 2 {
		return command{}, fmt.Errorf("too many words in %q", line)
	}
	if _, err := mood.Parse(fields[0]); err != nil {
		return command{}, err
	}
	c := command{verb: verbStart, mood: fields[0]}
	if len(fields) == 2 {
		feeling, err := feelingArg(fields[1])
		if err != nil {
			return command{}, err
		}
		c.feeling = feeling
	}
	return c, nil
}

func feelingArg(s string) (string, error) {
	v, ok := strings.CutPrefix(s, "label=")
	if !ok {
		return s, nil
	}
	var label int
	if _, err := fmt.Sscanf(v, "%d", &label); err != nil {
		return "", fmt.Errorf("bad label %q", v)
	}
	return mood.FeelingForLabel(label)
}

// controller is what the console drives.
type controller interface {
	RunEffect(feeling, wanted string) error
	StopEffect()
	Active() (mood.Mood, bool)
}

// console reads commands from in until quit or EOF and answers on out.
func console(in io.Reader, out io.Writer, c controller) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		cmd, err := parseCommand(sc.Text())
		if errors.Is(err, errEmpty) {
			continue
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		switch cmd.verb {
		case verbQuit:
			return nil
		case verbStop:
			c.StopEffect()
			fmt.Fprintln(out, "stopped")
		case verbStatus:
			if m, ok := c.Active(); ok {
				fmt.Fprintf(out, "running %s\n", m)
			} else {
				fmt.Fprintln(out, "idle")
			}
		case verbStart:
			if err := c.RunEffect(cmd.feeling, cmd.mood); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "running %s\n", cmd.mood)
		}
	}
	return sc.Err()
}
