package sdk

import "fmt"

// ActionKind identifies the edit a plugin asks the editor to perform.
type ActionKind int

const (
	// ActionNone requests nothing.
	ActionNone ActionKind = iota

	// ActionReplaceAll replaces the whole content of the active document.
	ActionReplaceAll

	// ActionReplaceSelection replaces the current selection of the active
	// document, or inserts at the cursor when nothing is selected.
	ActionReplaceSelection
)

// String returns a string representation of the kind.
func (k ActionKind) String() string {
	switch k {
	case ActionNone:
		return "none"
	case ActionReplaceAll:
		return "replace_all"
	case ActionReplaceSelection:
		return "replace_selection"
	default:
		return "unknown"
	}
}

// Action is an edit requested by a plugin. It is consumed by the editor in
// the same frame it is returned and never stored.
//
// The zero value is None.
type Action struct {
	Kind ActionKind
	Text string
}

// None returns the action that requests nothing.
func None() Action {
	return Action{}
}

// ReplaceAll returns an action replacing the whole document with text.
func ReplaceAll(text string) Action {
	return Action{Kind: ActionReplaceAll, Text: text}
}

// ReplaceSelection returns an action replacing the selection with text.
func ReplaceSelection(text string) Action {
	return Action{Kind: ActionReplaceSelection, Text: text}
}

// IsNone reports whether the action requests nothing.
func (a Action) IsNone() bool {
	return a.Kind == ActionNone
}

// String returns a short description of the action for logs.
func (a Action) String() string {
	if a.Kind == ActionNone {
		return "none"
	}
	return fmt.Sprintf("%s(%d bytes)", a.Kind, len(a.Text))
}

// Transform runs fn over the text a command should act on and returns the
// action that writes the result back.
//
// With a non-empty selection fn receives the selected text and the result
// replaces the selection. Otherwise fn receives the whole content and the
// result replaces it. Transform returns None without calling fn when the
// content is empty or the selection does not fit the content. An error
// from fn is returned with a None action.
func Transform(ed EditorContext, fn func(text string) (string, error)) (Action, error) {
	if ed.HasNonEmptySelection() {
		text, ok := ed.SelectedText()
		if !ok {
			return None(), nil
		}
		out, err := fn(text)
		if err != nil {
			return None(), err
		}
		return ReplaceSelection(out), nil
	}

	if ed.Content == "" {
		return None(), nil
	}
	out, err := fn(ed.Content)
	if err != nil {
		return None(), err
	}
	return ReplaceAll(out), nil
}
