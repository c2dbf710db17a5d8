package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/n2code/tagger"
	"github.com/n2code/tagger/internal/output"
)

const searchPrompt = "Search (white-space separated): "

// LineReader reads answers line by line, with line editing if the input is a terminal.
type LineReader struct {
	in       io.Reader
	out      io.Writer
	buffered *bufio.Reader
	terminal bool
}

func NewLineReader(in io.Reader, out io.Writer, allowRawMode bool) *LineReader {
	reader := &LineReader{in: in, out: out, buffered: bufio.NewReader(in)}
	if file, ok := in.(*os.File); ok && allowRawMode {
		reader.terminal = term.IsTerminal(int(file.Fd()))
	}
	return reader
}

// ReadLine shows the prompt and returns the entered line without its line break.
// Ctrl+C, Ctrl+D, or the end of input yield io.EOF.
func (r *LineReader) ReadLine(prompt string) (string, error) {
	if r.terminal {
		fd := int(r.in.(*os.File).Fd())
		if oldTermState, err := term.MakeRaw(fd); err == nil {
			defer term.Restore(fd, oldTermState)
			line, err := term.NewTerminal(struct {
				io.Reader
				io.Writer
			}{r.in, r.out}, prompt).ReadLine()
			return line, err
		} // else line editing is unavailable, plain reading is an acceptable fallback
	}

	fmt.Fprint(r.out, prompt)
	line, err := r.buffered.ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		err = nil
	}
	return strings.TrimRight(line, "\r\n"), err
}

// PromptTags asks for white-space separated tags for every path.
func PromptTags(reader *LineReader, styles output.Styles) tagger.RequestTags {
	return func(request tagger.PromptRequest) (tags []string, aborted bool) {
		prompt := fmt.Sprintf("%s %s %s", styles.Path(request.Display), styles.Dim("["+request.Kind.String()+"]"), styles.Prompt("tags (empty to skip): "))
		line, err := reader.ReadLine(prompt)
		if err != nil {
			fmt.Fprint(reader.out, "<CANCELLED>\r\n")
			return nil, true
		}
		return strings.Fields(line), false
	}
}

// ReadSearch asks for the query terms.
func ReadSearch(reader *LineReader) ([]string, error) {
	line, err := reader.ReadLine(searchPrompt)
	if err != nil {
		return nil, err
	}
	return tagger.SplitTerms(line), nil
}

// WaitForEnter keeps the result visible until the user confirms.
func WaitForEnter(reader *LineReader) {
	fmt.Fprint(reader.out, "\npress enter to quit\n")
	_, _ = reader.ReadLine("")
}
