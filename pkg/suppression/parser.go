package suppression

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/praetorian-inc/suppcheck/pkg/types"
)

// maxLineLength bounds a single suppression-file line.
const maxLineLength = 1024 * 1024

// Block is the content of one "{" ... "}" region of a suppression file.
type Block struct {
	Source string
	Line   int      // line of the opening '{'
	Lines  []string // trimmed content lines, comments and blanks removed
}

// Tokenize splits suppression-file text into blocks. Lines starting with '#'
// are ignored everywhere. Blank lines are ignored except directly after a
// block's name, where the error type is expected.
func Tokenize(r io.Reader, source string) ([]Block, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	var blocks []Block
	var cur *Block
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		if line == "" {
			// The line after the name must carry the error type.
			if cur != nil && len(cur.Lines) == 1 {
				return nil, malformed(source, lineNo, fmt.Sprintf("suppression %q has an empty error type", cur.Lines[0]))
			}
			continue
		}

		switch {
		case cur == nil && line == "{":
			cur = &Block{Source: source, Line: lineNo}
		case cur == nil:
			return nil, malformed(source, lineNo, fmt.Sprintf(`expected "{", got %q`, line))
		case line == "}":
			blocks = append(blocks, *cur)
			cur = nil
		case line == "{":
			return nil, malformed(source, lineNo, fmt.Sprintf(`unexpected "{" inside block opened at line %d`, cur.Line))
		default:
			cur.Lines = append(cur.Lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}

	if cur != nil {
		return nil, malformed(source, cur.Line, `missing closing "}"`)
	}
	return blocks, nil
}

// ParseBlock converts a block into a suppression. The first line is the name,
// the second the error type and the rest are frame patterns.
func ParseBlock(b Block) (*types.Suppression, error) {
	switch len(b.Lines) {
	case 0:
		return nil, malformed(b.Source, b.Line, "empty block")
	case 1:
		return nil, malformed(b.Source, b.Line, fmt.Sprintf("suppression %q has no error type", b.Lines[0]))
	}
	if b.Lines[1] == "" {
		return nil, malformed(b.Source, b.Line, fmt.Sprintf("suppression %q has an empty error type", b.Lines[0]))
	}

	s, err := types.NewSuppression(b.Lines[0], b.Lines[1], b.Lines[2:])
	if err != nil {
		return nil, &MalformedSuppressionError{
			Source: b.Source,
			Line:   b.Line,
			Reason: fmt.Sprintf("suppression %q", b.Lines[0]),
			Err:    err,
		}
	}
	s.Source = b.Source
	s.Line = b.Line
	return s, nil
}

// Parse reads every suppression in data, in file order.
func Parse(data []byte, source string) ([]*types.Suppression, error) {
	return ParseReader(bytes.NewReader(data), source)
}

// ParseReader is like Parse but reads from r.
func ParseReader(r io.Reader, source string) ([]*types.Suppression, error) {
	blocks, err := Tokenize(r, source)
	if err != nil {
		return nil, err
	}

	supps := make([]*types.Suppression, 0, len(blocks))
	for _, b := range blocks {
		s, err := ParseBlock(b)
		if err != nil {
			return nil, err
		}
		supps = append(supps, s)
	}
	return supps, nil
}
