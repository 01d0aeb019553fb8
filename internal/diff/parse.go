package diff

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Origin classifies an addressable line. Only added lines are addressable.
type Origin string

const OriginAdded Origin = "added"

// Line is an added line and the 1-based line number it occupies in the new file.
type Line struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
	Origin  Origin `json:"origin"`
}

// Hunk describes one parsed hunk header. Counts default to 1 when omitted.
type Hunk struct {
	OldStart int    `json:"oldStart"`
	OldCount int    `json:"oldCount"`
	NewStart int    `json:"newStart"`
	NewCount int    `json:"newCount"`
	Header   string `json:"header"`
}

// DiagnosticKind names a recoverable problem found while parsing.
type DiagnosticKind string

const (
	KindMalformedHunkHeader DiagnosticKind = "malformed-hunk-header"
	KindOrphanLine          DiagnosticKind = "orphan-line"
	KindTruncatedHunk       DiagnosticKind = "truncated-hunk"
)

// Diagnostic records a non-fatal parse problem. Line is the 1-based physical
// line within the patch text.
type Diagnostic struct {
	Kind DiagnosticKind `json:"kind"`
	Line int            `json:"line"`
	Text string         `json:"text"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s at patch line %d: %s", d.Kind, d.Line, d.Text)
}

// Result is the outcome of parsing one file's patch.
type Result struct {
	Lines       []Line       `json:"lines"`
	Hunks       []Hunk       `json:"hunks"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	// Skipped counts added lines dropped for lack of a trustworthy line number.
	Skipped int `json:"skipped"`
}

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// ParseHunkHeader parses a "@@ -a[,b] +c[,d] @@" line.
func ParseHunkHeader(line string) (Hunk, bool) {
	m := hunkHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return Hunk{}, false
	}
	h := Hunk{OldCount: 1, NewCount: 1, Header: line}
	fields := []struct {
		text string
		dst  *int
	}{{m[1], &h.OldStart}, {m[2], &h.OldCount}, {m[3], &h.NewStart}, {m[4], &h.NewCount}}
	for _, f := range fields {
		if f.text == "" {
			continue
		}
		n, err := strconv.Atoi(f.text)
		if err != nil {
			// Out of range: no line number derived from it can be trusted.
			return Hunk{}, false
		}
		*f.dst = n
	}
	return h, true
}

// cursor is the fold state carried through the line loop.
type cursor struct {
	line   int
	valid  bool
	inBody bool
	remOld int
	remNew int
	header int
}

// ParsePatch returns the addressable lines of a single-file unified diff.
// It never fails: malformed input shrinks the result and adds diagnostics.
func ParsePatch(patch string) Result {
	res := Result{Lines: []Line{}}
	if patch == "" {
		return res
	}

	lines := strings.Split(patch, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	var c cursor
	closeHunk := func() {
		if c.inBody && (c.remOld > 0 || c.remNew > 0) {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Kind: KindTruncatedHunk,
				Line: c.header,
				Text: fmt.Sprintf("%d old and %d new lines missing", max(c.remOld, 0), max(c.remNew, 0)),
			})
		}
		c.inBody = false
	}

	for i, raw := range lines {
		physical := i + 1
		line := strings.TrimSuffix(raw, "\r")

		if strings.HasPrefix(line, "@@") {
			closeHunk()
			h, ok := ParseHunkHeader(line)
			if !ok {
				c.valid = false
				res.Diagnostics = append(res.Diagnostics, Diagnostic{
					Kind: KindMalformedHunkHeader,
					Line: physical,
					Text: line,
				})
				continue
			}
			res.Hunks = append(res.Hunks, h)
			c = cursor{
				line:   h.NewStart,
				valid:  true,
				inBody: h.OldCount > 0 || h.NewCount > 0,
				remOld: h.OldCount,
				remNew: h.NewCount,
				header: physical,
			}
			continue
		}

		if c.inBody {
			switch {
			case strings.HasPrefix(line, "+"):
				// A "+++" line still occupies a new-file line but is never
				// reported, since it cannot be told apart from a file header.
				if !strings.HasPrefix(line, "+++") {
					res.Lines = append(res.Lines, Line{Number: c.line, Content: line[1:], Origin: OriginAdded})
				}
				c.line++
				c.remNew--
			case strings.HasPrefix(line, "-"):
				c.remOld--
			case strings.HasPrefix(line, `\`):
			default:
				c.line++
				c.remOld--
				c.remNew--
			}
			if c.remOld <= 0 && c.remNew <= 0 {
				c.inBody = false
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			if !c.valid {
				res.Skipped++
				res.Diagnostics = append(res.Diagnostics, Diagnostic{
					Kind: KindOrphanLine,
					Line: physical,
					Text: "added line without a valid hunk header",
				})
				continue
			}
			res.Lines = append(res.Lines, Line{Number: c.line, Content: line[1:], Origin: OriginAdded})
			c.line++
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, `\`):
		default:
			c.line++
		}
	}
	closeHunk()

	return res
}
