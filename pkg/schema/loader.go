package schema

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
)

// Load reads the schema file at path.
func Load(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	defer f.Close()

	s, err := parse(f)
	if err != nil {
		var malformed *MalformedLineError
		if errors.As(err, &malformed) {
			return nil, err
		}
		return nil, &ReadError{Path: path, Err: err}
	}
	return s, nil
}

// Parse reads "NAME:TYPE" lines from r. Blank lines are skipped and each remaining line
// is split on its first colon. Type tags are kept verbatim; unknown tags are reported by
// the generator, not here.
func Parse(r io.Reader) (*Schema, error) {
	return parse(r)
}

func parse(r io.Reader) (*Schema, error) {
	s := New()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		name, tag, ok := strings.Cut(line, ":")
		if !ok || name == "" {
			return nil, &MalformedLineError{Line: lineNo, Text: line}
		}
		s.add(Field{Name: name, Type: TypeTag(tag)})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return s, nil
}
