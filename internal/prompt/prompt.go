// Package prompt asks the user for values on the terminal during
// `twsync init`.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// Prompter reads answers line by line from one input stream.
type Prompter struct {
	w      io.Writer
	r      *bufio.Reader
	marker string
}

// New creates a Prompter writing questions to w and reading answers from r.
// color styles the "[+]" marker.
func New(w io.Writer, r io.Reader, color bool) *Prompter {
	marker := "+"
	if color {
		marker = lipgloss.NewRenderer(w).NewStyle().Bold(true).Foreground(lipgloss.Color("33")).Render("+")
	}
	return &Prompter{w: w, r: bufio.NewReader(r), marker: marker}
}

// Ask prints "[+] label [def]: " and returns the trimmed answer, or def
// when the answer is empty or input has ended.
func (p *Prompter) Ask(label, def string) (string, error) {
	_, _ = fmt.Fprintf(p.w, "[%s] %s [%s]: ", p.marker, label, def)

	input, err := p.readLine()
	if err != nil {
		return def, err
	}
	if input == "" {
		return def, nil
	}
	return input, nil
}

// Confirm asks a yes/no question. An empty answer selects def.
func (p *Prompter) Confirm(question string, def bool) (bool, error) {
	choices := "y/N"
	if def {
		choices = "Y/n"
	}
	_, _ = fmt.Fprintf(p.w, "[%s] %s [%s]: ", p.marker, question, choices)

	input, err := p.readLine()
	if err != nil {
		return def, err
	}

	switch strings.ToLower(input) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return false, fmt.Errorf("invalid choice: %s", input)
	}
}

// readLine returns the next line without its terminator. A final line
// without a newline is still returned; a bare EOF yields "".
func (p *Prompter) readLine() (string, error) {
	line, err := p.r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	if errors.Is(err, io.EOF) {
		// keep the prompt line terminated
		_, _ = fmt.Fprintln(p.w)
	}
	return strings.TrimSpace(line), nil
}
