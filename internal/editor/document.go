// Package editor holds the text document plugins operate on.
package editor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dshills/notos/pkg/sdk"
)

// DefaultUndoLimit is the number of undo steps kept.
const DefaultUndoLimit = 256

// ErrNoPath is returned when saving a document that has no file path.
var ErrNoPath = errors.New("document has no file path")

// Document is a single text buffer with a cursor, an optional selection and
// an undo history. Offsets are byte offsets into the content and always
// fall on rune boundaries.
//
// Document is not safe for concurrent use.
type Document struct {
	// Path is the file path (empty for scratch buffers).
	path string

	content  string
	modified bool

	cursor int

	// Selection anchor; the selection spans anchor..cursor
	anchor    int
	hasAnchor bool

	undo      []snapshot
	undoLimit int
}

type snapshot struct {
	content string
	cursor  int
}

// NewDocument creates a document for path with the given content.
func NewDocument(path, content string) *Document {
	return &Document{
		path:      path,
		content:   content,
		undoLimit: DefaultUndoLimit,
	}
}

// NewScratchDocument creates an empty document without a path.
func NewScratchDocument() *Document {
	return NewDocument("", "")
}

// Open reads path into a new document. A missing file yields an empty
// document that is created on first save.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDocument(path, ""), nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("open %s: not valid UTF-8", path)
	}
	return NewDocument(path, string(data)), nil
}

// Path returns the document's file path.
func (d *Document) Path() string {
	return d.path
}

// Name returns the display name (file name or "Untitled").
func (d *Document) Name() string {
	if d.path == "" {
		return "Untitled"
	}
	return filepath.Base(d.path)
}

// IsScratch returns true if the document has no file path.
func (d *Document) IsScratch() bool {
	return d.path == ""
}

// Content returns the full document content.
func (d *Document) Content() string {
	return d.content
}

// IsModified returns true if the document has unsaved changes.
func (d *Document) IsModified() bool {
	return d.modified
}

// Cursor returns the cursor offset.
func (d *Document) Cursor() int {
	return d.cursor
}

// Selection returns the selected range. The range may be empty.
func (d *Document) Selection() (sdk.Range, bool) {
	if !d.hasAnchor {
		return sdk.Range{}, false
	}
	return sdk.Range{Start: min(d.anchor, d.cursor), End: max(d.anchor, d.cursor)}, true
}

// Snapshot returns the read-only context handed to plugins.
func (d *Document) Snapshot() sdk.EditorContext {
	ed := sdk.NewEditorContext(d.content)
	if r, ok := d.Selection(); ok {
		ed = ed.WithSelection(r.Start, r.End)
	}
	return ed
}

// SetCursor moves the cursor to off and clears the selection.
func (d *Document) SetCursor(off int) {
	d.cursor = d.clamp(off)
	d.hasAnchor = false
}

// Select selects [start, end) and places the cursor at end.
func (d *Document) Select(start, end int) {
	d.anchor = d.clamp(start)
	d.cursor = d.clamp(end)
	d.hasAnchor = true
}

// SelectAll selects the whole document.
func (d *Document) SelectAll() {
	d.Select(0, len(d.content))
}

// ClearSelection drops the selection and keeps the cursor.
func (d *Document) ClearSelection() {
	d.hasAnchor = false
}

// Apply performs a plugin action and reports whether an edit was applied.
//
// ReplaceAll replaces the content and keeps the cursor where it still fits.
// ReplaceSelection replaces a non-empty selection, or inserts at the cursor
// when nothing is selected; the cursor ends after the inserted text.
// Every edit is recorded for Undo and marks the document modified, even
// when the text is unchanged. Only None is ignored.
func (d *Document) Apply(a sdk.Action) bool {
	switch a.Kind {
	case sdk.ActionReplaceAll:
		d.pushUndo()
		d.content = a.Text
		d.modified = true
		d.hasAnchor = false
		d.cursor = d.clamp(d.cursor)
		return true
	case sdk.ActionReplaceSelection:
		start, end := d.cursor, d.cursor
		if r, ok := d.Selection(); ok {
			start, end = r.Start, r.End
		}
		d.replace(start, end, a.Text)
		return true
	default:
		return false
	}
}

// Insert types text at the cursor, replacing the selection.
func (d *Document) Insert(text string) {
	start, end := d.cursor, d.cursor
	if r, ok := d.Selection(); ok {
		start, end = r.Start, r.End
	}
	if text == "" && start == end {
		return
	}
	d.replace(start, end, text)
}

// Backspace deletes the selection, or the rune before the cursor.
func (d *Document) Backspace() {
	if r, ok := d.Selection(); ok && !r.IsEmpty() {
		d.replace(r.Start, r.End, "")
		return
	}
	d.hasAnchor = false
	if d.cursor == 0 {
		return
	}
	_, size := utf8.DecodeLastRuneInString(d.content[:d.cursor])
	d.replace(d.cursor-size, d.cursor, "")
}

// Delete deletes the selection, or the rune after the cursor.
func (d *Document) Delete() {
	if r, ok := d.Selection(); ok && !r.IsEmpty() {
		d.replace(r.Start, r.End, "")
		return
	}
	d.hasAnchor = false
	if d.cursor >= len(d.content) {
		return
	}
	_, size := utf8.DecodeRuneInString(d.content[d.cursor:])
	d.replace(d.cursor, d.cursor+size, "")
}

// replace swaps [start, end) for text and leaves the cursor after it.
func (d *Document) replace(start, end int, text string) {
	d.pushUndo()
	d.content = d.content[:start] + text + d.content[end:]
	d.cursor = start + len(text)
	d.hasAnchor = false
	d.modified = true
}

// MoveLeft moves the cursor one rune left. With extend the selection grows.
func (d *Document) MoveLeft(extend bool) {
	d.beginMove(extend)
	if d.cursor > 0 {
		_, size := utf8.DecodeLastRuneInString(d.content[:d.cursor])
		d.cursor -= size
	}
}

// MoveRight moves the cursor one rune right.
func (d *Document) MoveRight(extend bool) {
	d.beginMove(extend)
	if d.cursor < len(d.content) {
		_, size := utf8.DecodeRuneInString(d.content[d.cursor:])
		d.cursor += size
	}
}

// MoveHome moves the cursor to the start of its line.
func (d *Document) MoveHome(extend bool) {
	d.beginMove(extend)
	d.cursor = d.lineStart(d.cursor)
}

// MoveEnd moves the cursor to the end of its line.
func (d *Document) MoveEnd(extend bool) {
	d.beginMove(extend)
	d.cursor = d.lineEnd(d.cursor)
}

// MoveUp moves the cursor to the same column on the previous line.
func (d *Document) MoveUp(extend bool) {
	d.beginMove(extend)
	start := d.lineStart(d.cursor)
	if start == 0 {
		d.cursor = 0
		return
	}
	col := utf8.RuneCountInString(d.content[start:d.cursor])
	prev := d.lineStart(start - 1)
	d.cursor = d.advance(prev, start-1, col)
}

// MoveDown moves the cursor to the same column on the next line.
func (d *Document) MoveDown(extend bool) {
	d.beginMove(extend)
	end := d.lineEnd(d.cursor)
	if end == len(d.content) {
		d.cursor = end
		return
	}
	col := utf8.RuneCountInString(d.content[d.lineStart(d.cursor):d.cursor])
	next := end + 1
	d.cursor = d.advance(next, d.lineEnd(next), col)
}

// beginMove starts or drops the selection before a cursor move.
func (d *Document) beginMove(extend bool) {
	if extend && !d.hasAnchor {
		d.anchor = d.cursor
		d.hasAnchor = true
	} else if !extend {
		d.hasAnchor = false
	}
}

// advance returns the offset col runes after from, stopping at limit.
func (d *Document) advance(from, limit, col int) int {
	off := from
	for i := 0; i < col && off < limit; i++ {
		_, size := utf8.DecodeRuneInString(d.content[off:])
		off += size
	}
	return off
}

func (d *Document) lineStart(off int) int {
	return strings.LastIndexByte(d.content[:off], '\n') + 1
}

func (d *Document) lineEnd(off int) int {
	if i := strings.IndexByte(d.content[off:], '\n'); i >= 0 {
		return off + i
	}
	return len(d.content)
}

// clamp limits off to the content and moves it back to a rune boundary.
func (d *Document) clamp(off int) int {
	if off < 0 {
		return 0
	}
	if off >= len(d.content) {
		return len(d.content)
	}
	for off > 0 && !utf8.RuneStart(d.content[off]) {
		off--
	}
	return off
}

// Undo restores the state before the last edit. It returns false when there
// is nothing to undo.
func (d *Document) Undo() bool {
	if len(d.undo) == 0 {
		return false
	}
	last := d.undo[len(d.undo)-1]
	d.undo = d.undo[:len(d.undo)-1]

	d.content = last.content
	d.cursor = d.clamp(last.cursor)
	d.hasAnchor = false
	d.modified = true
	return true
}

// CanUndo returns true if Undo has something to restore.
func (d *Document) CanUndo() bool {
	return len(d.undo) > 0
}

func (d *Document) pushUndo() {
	if d.undoLimit > 0 && len(d.undo) >= d.undoLimit {
		d.undo = append(d.undo[:0], d.undo[1:]...)
	}
	d.undo = append(d.undo, snapshot{content: d.content, cursor: d.cursor})
}

// Save writes the document to its path.
func (d *Document) Save() error {
	if d.path == "" {
		return ErrNoPath
	}
	return d.SaveAs(d.path)
}

// SaveAs writes the document to path and makes path the document's path.
func (d *Document) SaveAs(path string) error {
	if err := os.WriteFile(path, []byte(d.content), 0644); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	d.path = path
	d.modified = false
	return nil
}
