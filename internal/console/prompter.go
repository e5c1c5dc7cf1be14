// Package console reads operator input line by line and renders results.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

// Prompter reads one answer per prompt.  Both methods return io.EOF once
// the input is exhausted or the operator interrupts.
type Prompter interface {
	ReadLine(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
	Close() error
}

// NewPrompter returns a readline prompter with history when in is a
// terminal and a plain line reader otherwise (piped input, tests).
func NewPrompter(in io.Reader, out io.Writer, historyFile string) (Prompter, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return NewReadlinePrompter(f, out, historyFile)
	}
	return NewLinePrompter(in, out), nil
}

// ReadlinePrompter prompts through chzyer/readline.
type ReadlinePrompter struct {
	rl *readline.Instance
}

// NewReadlinePrompter configures readline on the given terminal.
func NewReadlinePrompter(in *os.File, out io.Writer, historyFile string) (*ReadlinePrompter, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "> ",
		HistoryFile:       historyFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdin:             in,
		Stdout:            out,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prompt: %w", err)
	}
	return &ReadlinePrompter{rl: rl}, nil
}

// ReadLine implements Prompter.
func (p *ReadlinePrompter) ReadLine(prompt string) (string, error) {
	p.rl.SetPrompt(prompt)
	line, err := p.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", io.EOF
	}
	return line, err
}

// ReadPassword implements Prompter; typed characters echo as '*'.
func (p *ReadlinePrompter) ReadPassword(prompt string) (string, error) {
	p.rl.SetMaskRune('*')
	pw, err := p.rl.ReadPassword(prompt)
	if errors.Is(err, readline.ErrInterrupt) {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// Close implements Prompter.
func (p *ReadlinePrompter) Close() error { return p.rl.Close() }

// LinePrompter reads newline-terminated answers from a reader that is not
// a terminal (piped input, tests), so passwords are read as plain lines.
// Lines have no length limit.
type LinePrompter struct {
	r   *bufio.Reader
	out io.Writer
}

// NewLinePrompter returns a prompter over in that writes prompts to out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{r: bufio.NewReader(in), out: out}
}

// ReadLine implements Prompter.  A final line without a newline is still
// returned; io.EOF follows on the next call.
func (p *LinePrompter) ReadLine(prompt string) (string, error) {
	_, _ = fmt.Fprint(p.out, prompt)
	line, err := p.r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadPassword implements Prompter.
func (p *LinePrompter) ReadPassword(prompt string) (string, error) {
	return p.ReadLine(prompt)
}

// Close implements Prompter.
func (p *LinePrompter) Close() error { return nil }
