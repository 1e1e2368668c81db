// Package reportlog reads error reports out of analysis-tool logs.
//
// Logs are usually captured from a build waterfall, so lines may carry HTML
// span fragments and escaped angle brackets. Each report is a suppression-style
// block emitted by the tool, optionally preceded by a line naming its hash:
//
//	Suppression (error hash=#0123456789ABCDEF#):
//	{
//	   <insert_a_suppression_name_here>
//	   Memcheck:Leak
//	   fun:malloc
//	}
//
// The last line of a waterfall log is the URL of the build step.
package reportlog

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

const (
	hashPrefix = "Suppression (error hash=#"
	hashLength = 16
	indent     = "   "
)

// lineCleaner strips waterfall span fragments and decodes the escaped angle
// brackets around report placeholders. Other entities are kept verbatim.
var lineCleaner = strings.NewReplacer(
	`</span><span class="stdout">`, "",
	`</span><span class="stderr">`, "",
	"&lt;", "<",
	"&gt;", ">",
)

// Entry is one report block found in a log.
type Entry struct {
	Hash string // empty when no hash line preceded the block
	Text string // "{", indented body lines, "}" joined by newlines
}

// Log is the parsed content of one log file.
type Log struct {
	Origin       string  // build URL, or the log path when the log names none
	Entries      []Entry // report blocks in file order
	Unterminated bool    // the log ended inside a block; that block was dropped
}

// Clean trims a raw log line, strips waterfall span fragments and decodes
// "&lt;" and "&gt;".
func Clean(line string) string {
	return strings.TrimSpace(lineCleaner.Replace(line))
}

// Parse reads a log. path names the log and becomes its origin when the last
// line is not a URL.
func Parse(r io.Reader, path string) (*Log, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	log := &Log{}
	var (
		inBlock  bool
		block    []string
		lastHash string
		lastLine string
	)

	for scanner.Scan() {
		line := Clean(scanner.Text())
		if line != "" {
			lastLine = line
		}

		switch {
		case inBlock && line == "}":
			block = append(block, "}")
			log.Entries = append(log.Entries, Entry{
				Hash: lastHash,
				Text: strings.Join(block, "\n"),
			})
			inBlock = false
			block = nil
			lastHash = ""
		case inBlock:
			block = append(block, indent+line)
		case line == "{":
			inBlock = true
			block = []string{"{"}
		case strings.HasPrefix(line, hashPrefix):
			lastHash = extractHash(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	log.Unterminated = inBlock
	log.Origin = path
	if IsURL(lastLine) {
		log.Origin = lastLine
	}
	return log, nil
}

// ParseBytes parses an in-memory log.
func ParseBytes(data []byte, path string) (*Log, error) {
	return Parse(bytes.NewReader(data), path)
}

// IsURL reports whether a log line looks like a build URL.
func IsURL(line string) bool {
	return strings.Contains(line, "://") && !strings.ContainsAny(line, " \t")
}

func extractHash(line string) string {
	rest := line[len(hashPrefix):]
	if len(rest) > hashLength {
		rest = rest[:hashLength]
	}
	return rest
}
