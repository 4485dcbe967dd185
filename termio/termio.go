// Package termio abstracts terminal input/output so the chat loops can be
// driven by scripted input in tests.
package termio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// IO is the boundary between the chat loops and the terminal.
type IO interface {
	// Read prints the prompt and returns one line of input without the
	// trailing newline. io.EOF signals end of input.
	Read(prompt string) (string, error)
	// ReadSecret reads a line without echoing it.
	ReadSecret(prompt string) (string, error)
	Write(text string)
}

// StdIO binds to the process standard streams.
type StdIO struct {
	reader *bufio.Reader
}

func NewStdIO() *StdIO {
	return &StdIO{reader: bufio.NewReader(os.Stdin)}
}

func (s *StdIO) Read(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := s.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (s *StdIO) ReadSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(secret), nil
}

func (s *StdIO) Write(text string) {
	fmt.Println(text)
}

// BufferedIO consumes scripted input and captures all output for assertions.
type BufferedIO struct {
	inputs  []string
	Outputs []string
}

func NewBufferedIO(inputs ...string) *BufferedIO {
	return &BufferedIO{inputs: append([]string(nil), inputs...)}
}

func (b *BufferedIO) Read(prompt string) (string, error) {
	b.Outputs = append(b.Outputs, prompt)
	if len(b.inputs) == 0 {
		return "", io.EOF
	}
	line := b.inputs[0]
	b.inputs = b.inputs[1:]
	return line, nil
}

func (b *BufferedIO) ReadSecret(prompt string) (string, error) {
	return b.Read(prompt)
}

func (b *BufferedIO) Write(text string) {
	b.Outputs = append(b.Outputs, text)
}

// Contains reports whether any captured output line contains the substring.
func (b *BufferedIO) Contains(substr string) bool {
	for _, line := range b.Outputs {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
