package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrAborted is returned when the user leaves a prompt without answering.
var ErrAborted = errors.New("aborted")

// Prompter asks the user questions.
type Prompter interface {
	// Ask returns the answer to label, or def when the answer is empty.
	Ask(label, def string) (string, error)
	// Choose returns the index of the picked option.
	Choose(title string, options []string) (int, error)
}

// LinePrompter reads answers line by line. It backs non-interactive runs and
// piped input.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

func (p *LinePrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", ErrAborted
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *LinePrompter) Ask(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	answer, err := p.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

func (p *LinePrompter) Choose(title string, options []string) (int, error) {
	for {
		fmt.Fprintln(p.out, title)
		for i, o := range options {
			fmt.Fprintf(p.out, "  %d. %s\n", i+1, o)
		}
		fmt.Fprintf(p.out, "Choose (1-%d): ", len(options))
		answer, err := p.readLine()
		if err != nil {
			return -1, err
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		fmt.Fprintln(p.out, ErrorStyle.Render("Invalid choice."))
	}
}
