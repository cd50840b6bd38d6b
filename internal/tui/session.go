// Package tui runs the interactive read-reply loop over an assistant.
package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/smileynet/addrbook/internal/assistant"
)

// Welcome is printed when a session starts.
const Welcome = "Welcome to the assistant bot!"

// DefaultPrompt is shown before each command line.
const DefaultPrompt = "Enter a command: "

// Session reads command lines until the user leaves or input ends.
type Session interface {
	Run(ctx context.Context) error
}

// SessionOptions configures session creation.
type SessionOptions struct {
	In         io.Reader // Command source (default: os.Stdin).
	Out        io.Writer // Reply destination (default: os.Stdout).
	ForcePlain bool      // Force the line loop even on a TTY.
	Prompt     string    // Prompt text (default: DefaultPrompt).
}

// NewSession returns a Bubble Tea session when Out is a TTY, or a plain
// line loop otherwise. ForcePlain overrides TTY detection.
func NewSession(a *assistant.Assistant, opts SessionOptions) Session {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Prompt == "" {
		opts.Prompt = DefaultPrompt
	}

	if opts.ForcePlain || !isTTY(opts.Out) {
		return &PlainSession{a: a, in: opts.In, out: opts.Out, prompt: opts.Prompt}
	}
	return &TUISession{a: a, in: opts.In, out: opts.Out, prompt: opts.Prompt}
}

// isTTY reports whether w is connected to a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// PlainSession prompts and replies line by line.
type PlainSession struct {
	a      *assistant.Assistant
	in     io.Reader
	out    io.Writer
	prompt string
}

// Run prints the welcome banner, then handles lines until an exit command,
// end of input, or cancellation. Returns the context error if cancelled.
func (s *PlainSession) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(s.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	_, _ = fmt.Fprintln(s.out, Welcome)
	for {
		_, _ = fmt.Fprint(s.out, s.prompt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				_, _ = fmt.Fprintln(s.out)
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			reply := s.a.Handle(line)
			if reply.Text != "" {
				_, _ = fmt.Fprintln(s.out, reply.Text)
			}
			if reply.Exit {
				return nil
			}
		}
	}
}

// TUISession runs the assistant inside a Bubble Tea program.
// Falls back to PlainSession if the program fails to start.
type TUISession struct {
	a      *assistant.Assistant
	in     io.Reader
	out    io.Writer
	prompt string
}

// Run starts the program and blocks until the user leaves.
func (s *TUISession) Run(ctx context.Context) error {
	p := tea.NewProgram(
		NewModel(s.a, WithPrompt(s.prompt)),
		tea.WithInput(s.in),
		tea.WithOutput(s.out),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, tea.ErrProgramKilled):
		return err
	}

	plain := &PlainSession{a: s.a, in: s.in, out: s.out, prompt: s.prompt}
	return plain.Run(ctx)
}
