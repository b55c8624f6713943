package sdk

import "unicode/utf8"

// Range is a half-open byte range [Start, End) into document content.
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// IsEmpty reports whether the range covers no bytes.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// EditorContext is the read-only view of the active document handed to
// plugins each frame. It is a value: changing a copy never affects the
// document, and plugins request edits by returning an Action instead.
type EditorContext struct {
	// Content is the full text of the active document.
	Content string

	selection    Range
	hasSelection bool
}

// NewEditorContext returns a context for content with no selection.
func NewEditorContext(content string) EditorContext {
	return EditorContext{Content: content}
}

// WithSelection returns a copy of the context with the byte range
// [start, end) selected.
func (e EditorContext) WithSelection(start, end int) EditorContext {
	e.selection = Range{Start: start, End: end}
	e.hasSelection = true
	return e
}

// Selection returns the selected byte range, if any.
func (e EditorContext) Selection() (Range, bool) {
	return e.selection, e.hasSelection
}

// SelectedText returns the selected text. It reports false when there is no
// selection or the range does not describe a valid slice of Content on rune
// boundaries. An empty selection yields ("", true).
func (e EditorContext) SelectedText() (string, bool) {
	if !e.hasSelection {
		return "", false
	}
	r := e.selection
	if r.Start < 0 || r.End < r.Start || r.End > len(e.Content) {
		return "", false
	}
	if !onRuneBoundary(e.Content, r.Start) || !onRuneBoundary(e.Content, r.End) {
		return "", false
	}
	return e.Content[r.Start:r.End], true
}

// HasNonEmptySelection reports whether a non-empty selection is present.
func (e EditorContext) HasNonEmptySelection() bool {
	return e.hasSelection && !e.selection.IsEmpty()
}

func onRuneBoundary(s string, i int) bool {
	return i == len(s) || utf8.RuneStart(s[i])
}
