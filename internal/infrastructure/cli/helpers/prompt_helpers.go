package helpers

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ReadAnswer reads one line and trims it. Hitting EOF is not an error, so a
// closed stdin reads as an empty answer.
func ReadAnswer(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// AskYesNo prints question with a [y/N] or [Y/n] hint. An empty answer
// selects def; anything other than y or yes is a no.
func AskYesNo(out io.Writer, reader *bufio.Reader, question string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Fprintf(out, "%s [%s]: ", question, hint)

	answer, err := ReadAnswer(reader)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// AskString returns def when the answer is empty.
func AskString(out io.Writer, reader *bufio.Reader, question, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(out, "%s: ", question)
	}

	answer, err := ReadAnswer(reader)
	if err != nil || answer == "" {
		return def, err
	}
	return answer, nil
}

// ConfirmRemoval asks before deleting what lives at target. A failed read
// counts as no.
func ConfirmRemoval(in io.Reader, out io.Writer, what, target string) bool {
	ok, err := AskYesNo(out, bufio.NewReader(in), fmt.Sprintf("Delete %s at %s?", what, target), false)
	return err == nil && ok
}
