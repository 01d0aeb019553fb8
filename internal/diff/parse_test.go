package diff

import (
	"reflect"
	"testing"
)

func TestParsePatch_LineNumbers(t *testing.T) {
	patch := "@@ -10,3 +10,4 @@\n context line\n+added line one\n+added line two\n-removed line\n context line 2"

	res := ParsePatch(patch)

	want := []Line{
		{Number: 11, Content: "added line one", Origin: OriginAdded},
		{Number: 12, Content: "added line two", Origin: OriginAdded},
	}
	if !reflect.DeepEqual(res.Lines, want) {
		t.Errorf("Lines = %+v, want %+v", res.Lines, want)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %v, want none", res.Diagnostics)
	}
}

func TestParsePatch_CursorEndsAtNewStartPlusCount(t *testing.T) {
	// The last added line sits at newStart+newCount-1 when the hunk ends on it.
	patch := "@@ -1,2 +1,4 @@\n a\n+b\n b2\n+c\n"
	res := ParsePatch(patch)
	if len(res.Hunks) != 1 {
		t.Fatalf("Hunks = %d, want 1", len(res.Hunks))
	}
	h := res.Hunks[0]
	last := res.Lines[len(res.Lines)-1]
	if last.Number != h.NewStart+h.NewCount-1 {
		t.Errorf("last added line = %d, want %d", last.Number, h.NewStart+h.NewCount-1)
	}
}

func TestParsePatch_Empty(t *testing.T) {
	res := ParsePatch("")
	if len(res.Lines) != 0 {
		t.Errorf("Lines = %v, want empty", res.Lines)
	}
	if res.Lines == nil {
		t.Error("Lines should be an empty slice, not nil")
	}
}

func TestParsePatch_HeaderOnly(t *testing.T) {
	res := ParsePatch("--- a/x.js\n+++ b/x.js\n")
	if len(res.Lines) != 0 {
		t.Errorf("Lines = %v, want empty", res.Lines)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %v, want none", res.Diagnostics)
	}
}

func TestParsePatch_NoHunkHeaderSkipsAddedLines(t *testing.T) {
	res := ParsePatch("+eval(x)\n+more\n")
	if len(res.Lines) != 0 {
		t.Errorf("Lines = %v, want none", res.Lines)
	}
	if res.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", res.Skipped)
	}
	for _, d := range res.Diagnostics {
		if d.Kind != KindOrphanLine {
			t.Errorf("Kind = %q, want %q", d.Kind, KindOrphanLine)
		}
	}
}

func TestParsePatch_MalformedHeaderInvalidatesCursor(t *testing.T) {
	patch := "@@ -1,1 +1,2 @@\n a\n+first\n@@ garbage @@\n+lost\n@@ -20,0 +30 @@\n+found\n"
	res := ParsePatch(patch)

	want := []Line{
		{Number: 2, Content: "first", Origin: OriginAdded},
		{Number: 30, Content: "found", Origin: OriginAdded},
	}
	if !reflect.DeepEqual(res.Lines, want) {
		t.Errorf("Lines = %+v, want %+v", res.Lines, want)
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}

	var kinds []DiagnosticKind
	for _, d := range res.Diagnostics {
		kinds = append(kinds, d.Kind)
	}
	wantKinds := []DiagnosticKind{KindMalformedHunkHeader, KindOrphanLine}
	if !reflect.DeepEqual(kinds, wantKinds) {
		t.Errorf("diagnostic kinds = %v, want %v", kinds, wantKinds)
	}
	if res.Diagnostics[0].Line != 4 {
		t.Errorf("malformed header line = %d, want 4", res.Diagnostics[0].Line)
	}
}

func TestParsePatch_NoNewlineMarkerDoesNotMoveCursor(t *testing.T) {
	patch := "@@ -1,1 +1,2 @@\n-old\n\\ No newline at end of file\n+new\n+next\n"
	res := ParsePatch(patch)
	want := []Line{
		{Number: 1, Content: "new", Origin: OriginAdded},
		{Number: 2, Content: "next", Origin: OriginAdded},
	}
	if !reflect.DeepEqual(res.Lines, want) {
		t.Errorf("Lines = %+v, want %+v", res.Lines, want)
	}
}

func TestParsePatch_TripleMarkersInsideHunkBody(t *testing.T) {
	// "+++" inside a hunk takes a line number but is not emitted; "---" is a
	// removed line and leaves the cursor alone.
	patch := "@@ -1,2 +1,3 @@\n--- old sql comment\n+++i;\n+next\n context\n"
	res := ParsePatch(patch)
	want := []Line{{Number: 2, Content: "next", Origin: OriginAdded}}
	if !reflect.DeepEqual(res.Lines, want) {
		t.Errorf("Lines = %+v, want %+v", res.Lines, want)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %v, want none", res.Diagnostics)
	}
}

func TestParsePatch_OverflowingHeaderIsMalformed(t *testing.T) {
	res := ParsePatch("@@ -1 +99999999999999999999,1 @@\n+secret\n")
	if len(res.Lines) != 0 {
		t.Errorf("Lines = %+v, want none", res.Lines)
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}
	kinds := make([]DiagnosticKind, len(res.Diagnostics))
	for i, d := range res.Diagnostics {
		kinds[i] = d.Kind
	}
	want := []DiagnosticKind{KindMalformedHunkHeader, KindOrphanLine}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("Diagnostic kinds = %v, want %v", kinds, want)
	}
}

func TestParsePatch_OmittedCountsDefaultToOne(t *testing.T) {
	res := ParsePatch("@@ -3 +3 @@\n-a\n+b\n")
	if len(res.Hunks) != 1 {
		t.Fatalf("Hunks = %d, want 1", len(res.Hunks))
	}
	if res.Hunks[0].OldCount != 1 || res.Hunks[0].NewCount != 1 {
		t.Errorf("counts = %d,%d want 1,1", res.Hunks[0].OldCount, res.Hunks[0].NewCount)
	}
	if len(res.Lines) != 1 || res.Lines[0].Number != 3 {
		t.Errorf("Lines = %+v, want [{3 b}]", res.Lines)
	}
}

func TestParsePatch_TruncatedHunk(t *testing.T) {
	res := ParsePatch("@@ -1,5 +1,5 @@\n a\n+b\n")
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Kind != KindTruncatedHunk {
		t.Fatalf("Diagnostics = %v, want one truncated-hunk", res.Diagnostics)
	}
	if res.Diagnostics[0].Line != 1 {
		t.Errorf("Line = %d, want 1", res.Diagnostics[0].Line)
	}
}

func TestParsePatch_MultipleHunks(t *testing.T) {
	patch := "@@ -1,2 +1,3 @@\n a\n+b\n c\n@@ -40,2 +41,2 @@\n x\n-y\n+z\n"
	res := ParsePatch(patch)
	want := []Line{
		{Number: 2, Content: "b", Origin: OriginAdded},
		{Number: 42, Content: "z", Origin: OriginAdded},
	}
	if !reflect.DeepEqual(res.Lines, want) {
		t.Errorf("Lines = %+v, want %+v", res.Lines, want)
	}
}

func TestParsePatch_CRLF(t *testing.T) {
	res := ParsePatch("@@ -1,1 +1,1 @@\r\n-a\r\n+b\r\n")
	if len(res.Lines) != 1 || res.Lines[0].Content != "b" {
		t.Errorf("Lines = %+v, want content %q", res.Lines, "b")
	}
}

func TestParsePatch_Idempotent(t *testing.T) {
	patch := "@@ -1,3 +1,4 @@\n a\n+b\n+c\n-d\n e\n"
	first := ParsePatch(patch)
	second := ParsePatch(patch)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("ParsePatch not idempotent: %+v vs %+v", first, second)
	}
}

func TestParseHunkHeader(t *testing.T) {
	tests := []struct {
		line string
		ok   bool
		want Hunk
	}{
		{"@@ -10,3 +10,4 @@", true, Hunk{10, 3, 10, 4, "@@ -10,3 +10,4 @@"}},
		{"@@ -1 +1 @@ func main() {", true, Hunk{1, 1, 1, 1, "@@ -1 +1 @@ func main() {"}},
		{"@@ -0,0 +1,12 @@", true, Hunk{0, 0, 1, 12, "@@ -0,0 +1,12 @@"}},
		{"@@ -1,2 @@", false, Hunk{}},
		{"@@ bogus @@", false, Hunk{}},
		{"@@@ -1,2 -1,2 +1,3 @@@", false, Hunk{}},
		{"@@ -1 +99999999999999999999,1 @@", false, Hunk{}},
		{"@@ -1,99999999999999999999 +1 @@", false, Hunk{}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseHunkHeader(tt.line)
			if ok != tt.ok {
				t.Fatalf("ParseHunkHeader(%q) ok = %v, want %v", tt.line, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ParseHunkHeader(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}
