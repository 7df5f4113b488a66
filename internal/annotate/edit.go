package annotate

import (
	"bytes"
	"sort"
)

// edit replaces src[start:end] with text.
type edit struct {
	start, end int
	text       string
}

// applyEdits applies non-overlapping edits to a copy of src.
func applyEdits(src []byte, edits []edit) []byte {
	sorted := make([]edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start > sorted[j].start })

	out := append([]byte(nil), src...)
	for _, e := range sorted {
		var buf bytes.Buffer
		buf.Grow(len(out) - (e.end - e.start) + len(e.text))
		buf.Write(out[:e.start])
		buf.WriteString(e.text)
		buf.Write(out[e.end:])
		out = buf.Bytes()
	}
	return out
}

// insertAfterBrace returns the edit that puts stmt at the top of a block
// whose opening brace is at offset lbrace. When the brace ends its line the
// statement goes on a line of its own after it; otherwise it is inserted right
// after the brace and terminated with a semicolon so the rest of the line
// still parses.
func insertAfterBrace(src []byte, lbrace int, stmt string) edit {
	eol := bytes.IndexByte(src[lbrace:], '\n')
	if eol < 0 {
		eol = len(src)
	} else {
		eol += lbrace
	}

	rest := bytes.TrimSpace(src[lbrace+1 : eol])
	if len(rest) == 0 || bytes.HasPrefix(rest, []byte("//")) {
		return edit{start: eol, end: eol, text: "\n\t" + stmt}
	}
	return edit{start: lbrace + 1, end: lbrace + 1, text: "\n\t" + stmt + ";"}
}

// removeStatement returns the edit deleting src[start:end]. When the statement
// is alone on its line the whole line goes, newline included.
func removeStatement(src []byte, start, end int) edit {
	e := end
	for e < len(src) && (src[e] == ' ' || src[e] == '\t' || src[e] == ';') {
		e++
	}
	s := start
	for s > 0 && (src[s-1] == ' ' || src[s-1] == '\t') {
		s--
	}

	if s > 0 && src[s-1] == '\n' && e < len(src) && src[e] == '\n' {
		return edit{start: s, end: e + 1}
	}
	return edit{start: start, end: e}
}
