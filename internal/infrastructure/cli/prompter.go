package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/doeshing/scriptgate/internal/infrastructure/cli/helpers"
	"github.com/doeshing/scriptgate/internal/ports"
)

// NewPrompter returns arrow-key prompts on a terminal and numbered line
// prompts otherwise.
func NewPrompter(interactive bool) ports.Prompter {
	if interactive {
		return NewSurveyPrompter()
	}
	return NewLinePrompter(os.Stdin, os.Stdout)
}

// SurveyPrompter implements ports.Prompter with survey widgets.
type SurveyPrompter struct {
	in  terminal.FileReader
	out terminal.FileWriter
	err io.Writer
}

// NewSurveyPrompter binds the widgets to the process stdio.
func NewSurveyPrompter() *SurveyPrompter {
	return &SurveyPrompter{in: os.Stdin, out: os.Stdout, err: os.Stderr}
}

// Select implements ports.Prompter.
func (p *SurveyPrompter) Select(message string, options []string, defaultIndex int) (int, error) {
	prompt := &survey.Select{Message: message, Options: options}
	if defaultIndex >= 0 && defaultIndex < len(options) {
		prompt.Default = options[defaultIndex]
	}
	var idx int
	if err := survey.AskOne(prompt, &idx, p.stdio()); err != nil {
		return defaultIndex, err
	}
	return idx, nil
}

// Confirm implements ports.Prompter.
func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	answer := defaultValue
	if err := survey.AskOne(&survey.Confirm{Message: message, Default: defaultValue}, &answer, p.stdio()); err != nil {
		return defaultValue, err
	}
	return answer, nil
}

// Input implements ports.Prompter.
func (p *SurveyPrompter) Input(message, defaultValue string) (string, error) {
	answer := defaultValue
	if err := survey.AskOne(&survey.Input{Message: message, Default: defaultValue}, &answer, p.stdio()); err != nil {
		return defaultValue, err
	}
	return answer, nil
}

func (p *SurveyPrompter) stdio() survey.AskOpt {
	return survey.WithStdio(p.in, p.out, p.err)
}

// LinePrompter implements ports.Prompter over plain line input.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLinePrompter constructs a prompter referencing the given streams.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

// Select prints numbered options and reads a 1-based choice. Empty input
// selects the default.
func (p *LinePrompter) Select(message string, options []string, defaultIndex int) (int, error) {
	fmt.Fprintf(p.out, "\n%s\n", message)
	for i, option := range options {
		marker := " "
		if i == defaultIndex {
			marker = ">"
		}
		fmt.Fprintf(p.out, " %s %d) %s\n", marker, i+1, option)
	}
	fmt.Fprintf(p.out, "Choice [%d]: ", defaultIndex+1)

	line, err := p.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		if err != nil && err != io.EOF {
			return defaultIndex, err
		}
		return defaultIndex, nil
	}
	n, convErr := strconv.Atoi(line)
	if convErr != nil || n < 1 || n > len(options) {
		return defaultIndex, fmt.Errorf("invalid choice %q", line)
	}
	return n - 1, nil
}

// Confirm implements ports.Prompter.
func (p *LinePrompter) Confirm(message string, defaultValue bool) (bool, error) {
	return helpers.AskYesNo(p.out, p.in, message, defaultValue)
}

// Input implements ports.Prompter.
func (p *LinePrompter) Input(message, defaultValue string) (string, error) {
	return helpers.AskString(p.out, p.in, message, defaultValue)
}

var (
	_ ports.Prompter = (*SurveyPrompter)(nil)
	_ ports.Prompter = (*LinePrompter)(nil)
)
