package display

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// TextRenderer prints one line per state change to a terminal.
type TextRenderer struct {
	mu   sync.Mutex
	out  io.Writer
	last *Snapshot

	warn  *color.Color
	value *color.Color
}

func NewTextRenderer(out io.Writer) *TextRenderer {
	return &TextRenderer{
		out:   out,
		warn:  color.New(color.FgRed, color.Bold),
		value: color.New(color.FgBlue),
	}
}

// Render skips snapshots that would print the same line again, so an idle
// answer does not scroll the terminal every poll.
func (r *TextRenderer) Render(snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.last != nil && sameLine(*r.last, snap) {
		return
	}
	r.last = &snap

	switch snap.State {
	case Loading:
		fmt.Fprintln(r.out, "Loading...")
	case Ready:
		fmt.Fprintf(r.out, "The most recent data received: %s\n", r.value.Sprint(snap.Value))
	case Failed:
		if snap.Unreachable {
			r.warn.Fprintf(r.out, "Cannot reach the server, retrying in %s\n", snap.Next)
		} else {
			r.warn.Fprintf(r.out, "%s: %v (retrying in %s)\n", snap.Value, snap.Err, snap.Next)
		}
	}
}

func sameLine(a, b Snapshot) bool {
	if a.State != b.State {
		return false
	}
	switch a.State {
	case Ready:
		return a.Value == b.Value
	case Failed:
		return false
	default:
		return true
	}
}
