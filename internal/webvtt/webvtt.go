// Package webvtt parses WebVTT-style caption documents into cues.
//
// The parser is line oriented and forgiving: the WEBVTT header, header
// metadata, NOTE/STYLE/REGION blocks and cue identifiers are ignored, cue
// settings after the end timestamp are dropped, and a cue whose timing line
// cannot be parsed is skipped and reported while the rest of the document is
// still read.
package webvtt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"cuetrack/internal/cue"
)

const (
	header     = "WEBVTT"
	arrow      = "-->"
	notePrefix = "NOTE"
	// maxLineBytes bounds a single line; caption documents with longer lines
	// are rejected as malformed input.
	maxLineBytes = 1 << 20
)

// SkippedCue records a cue dropped during parsing.
type SkippedCue struct {
	Line int
	Err  error
}

func (s SkippedCue) Error() string {
	return fmt.Sprintf("line %d: %v", s.Line, s.Err)
}

func (s SkippedCue) Unwrap() error { return s.Err }

// Document is the result of parsing a caption document.
type Document struct {
	Cues    []cue.Cue
	Skipped []SkippedCue
}

// SkipErrors joins the skipped cue errors, or returns nil when none were skipped.
func (d *Document) SkipErrors() error {
	if d == nil || len(d.Skipped) == 0 {
		return nil
	}
	errs := make([]error, len(d.Skipped))
	for i, s := range d.Skipped {
		errs[i] = s
	}
	return errors.Join(errs...)
}

// Parse reads a caption document. Text may be UTF-8 with or without a byte
// order mark, or UTF-16 with a byte order mark. The only returned error is a
// read failure; malformed cues are listed in Document.Skipped.
func Parse(r io.Reader) (*Document, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	p := &parser{doc: &Document{}}
	for scanner.Scan() {
		p.line(strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read caption document: %w", err)
	}
	p.flush()
	return p.doc, nil
}

// ParseString parses an in-memory caption document.
func ParseString(text string) (*Document, error) {
	return Parse(strings.NewReader(text))
}

type parserState int

const (
	stateOutside parserState = iota
	stateInCue
	stateSkipping
)

type parser struct {
	doc    *Document
	lineNo int
	state  parserState

	start, end float64
	text       []string
	cueLine    int
	lastStart  float64
	haveLast   bool
}

func (p *parser) line(line string) {
	p.lineNo++
	trimmed := strings.TrimSpace(line)

	if p.lineNo == 1 && strings.HasPrefix(trimmed, header) {
		return
	}

	if trimmed == "" {
		p.flush()
		return
	}

	if strings.Contains(trimmed, arrow) {
		// A timing line without a preceding blank line still starts a new cue.
		p.flush()
		p.timing(trimmed)
		return
	}

	switch p.state {
	case stateInCue:
		if strings.HasPrefix(trimmed, notePrefix) {
			return
		}
		p.text = append(p.text, trimmed)
	default:
		// Header metadata, NOTE/STYLE/REGION blocks, cue identifiers, or text
		// belonging to a skipped cue.
	}
}

func (p *parser) timing(line string) {
	startText, rest, _ := strings.Cut(line, arrow)
	fields := strings.Fields(rest)
	endText := ""
	if len(fields) > 0 {
		endText = fields[0]
	}

	start, err := cue.ParseTimestamp(startText)
	if err != nil {
		p.skip(fmt.Errorf("start: %w", err))
		return
	}
	end, err := cue.ParseTimestamp(endText)
	if err != nil {
		p.skip(fmt.Errorf("end: %w", err))
		return
	}
	if end >= OpenEnd-0.0005 {
		end = math.Inf(1)
	}
	p.state = stateInCue
	p.start, p.end = start, end
	p.cueLine = p.lineNo
	p.text = p.text[:0]
}

func (p *parser) skip(err error) {
	p.doc.Skipped = append(p.doc.Skipped, SkippedCue{Line: p.lineNo, Err: err})
	p.state = stateSkipping
}

func (p *parser) flush() {
	defer func() {
		p.state = stateOutside
		p.text = p.text[:0]
	}()
	if p.state != stateInCue {
		return
	}
	c := cue.Cue{
		Start: p.start,
		End:   p.end,
		Text:  cue.Normalize(strings.Join(p.text, " ")),
	}
	if err := c.Validate(); err != nil {
		p.doc.Skipped = append(p.doc.Skipped, SkippedCue{Line: p.cueLine, Err: err})
		return
	}
	if p.haveLast && c.Start < p.lastStart {
		p.doc.Skipped = append(p.doc.Skipped, SkippedCue{
			Line: p.cueLine,
			Err:  fmt.Errorf("%w: start %s", cue.ErrOutOfOrder, cue.FormatTimestamp(c.Start)),
		})
		return
	}
	p.lastStart, p.haveLast = c.Start, true
	p.doc.Cues = append(p.doc.Cues, c)
}
