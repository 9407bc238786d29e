package visualizer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ErrNoTTY is returned when the input stream isn't a terminal, mirroring
// tty.Console's contract: the raw-mode key-driven loop only makes sense
// interactively, so a non-terminal input falls back to a single static
// render instead.
var ErrNoTTY = errors.New("visualizer: not a TTY")

// Console drives the pane switcher against a real terminal: raw input
// mode so individual keys (not lines) reach the loop, restored on exit.
// Grounded on tty.Console's MakeRaw/Restore lifecycle, simplified since
// the visualizer has no device goroutines to manage, only a single
// synchronous read-render loop.
type Console struct {
	in    *os.File
	out   io.Writer
	fd    int
	state *term.State
}

// NewConsole wraps in/out for raw-mode key-driven rendering. Returns
// ErrNoTTY if in is not a terminal.
func NewConsole(in *os.File, out io.Writer) (*Console, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNoTTY
	}
	saved, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoTTY, err)
	}
	return &Console{in: in, out: out, fd: fd, state: saved}, nil
}

// Restore returns the terminal to its original mode.
func (c *Console) Restore() {
	_ = term.Restore(c.fd, c.state)
}

// Run drives the pane switcher until the user quits ('q') or in reaches
// EOF. Key bindings: Tab/'l' next pane, 'h' previous pane, 'j'/'k' move
// the Execution cursor, 'b' toggles a breakpoint at the cursor, 'q' or
// Ctrl-C quits. Shift-Tab and the arrow keys are not recognised.
func (c *Console) Run(s *State) error {
	width, _, err := term.GetSize(c.fd)
	if err != nil || width <= 0 {
		width = 80
	}

	r := bufio.NewReader(c.in)
	for {
		clearScreen(c.out)
		s.Render(c.out, width)

		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		switch b {
		case 'q', 3: // 'q' or Ctrl-C
			return nil
		case '\t', 'l':
			s.NextTab()
		case 'h':
			s.PrevTab()
		case 'j':
			s.MoveCursor(1)
		case 'k':
			s.MoveCursor(-1)
		case 'b':
			s.ToggleBreakpointAtCursor()
		}
	}
}

func clearScreen(w io.Writer) {
	fmt.Fprint(w, "\x1b[2J\x1b[H")
}

// RenderOnce writes a single static render of s to w, for non-TTY
// invocations (piped stdout, --stdout file) where a key-driven loop
// cannot run.
func RenderOnce(w io.Writer, s *State) {
	s.Render(w, 80)
}
