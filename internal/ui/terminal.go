package ui

import (
	"strconv"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/notos/pkg/sdk"
)

// DocumentView is the document state the terminal draws beneath plugin UI.
type DocumentView struct {
	Title    string
	Content  string
	Modified bool

	// Cursor is a byte offset into Content.
	Cursor int

	// Selection is drawn highlighted when HasSelection is set.
	Selection    sdk.Range
	HasSelection bool

	// Status is shown in the status line.
	Status string
}

// InputKind identifies an editor input decoded from terminal events.
type InputKind int

const (
	// InputNone is returned for events consumed by the UI itself.
	InputNone InputKind = iota
	InputRune
	InputEnter
	InputTab
	InputBackspace
	InputDelete
	InputLeft
	InputRight
	InputUp
	InputDown
	InputHome
	InputEnd
	InputSelectAll
	InputSave
	InputUndo
	InputQuit
)

// Input is an editing command for the host.
type Input struct {
	Kind  InputKind
	Rune  rune
	Shift bool
}

// Styles used by the terminal surface.
var (
	styleDefault   = tcell.StyleDefault
	styleBar       = tcell.StyleDefault.Reverse(true)
	styleBarOpen   = tcell.StyleDefault.Bold(true)
	styleItem      = tcell.StyleDefault.Reverse(true)
	styleItemSel   = tcell.StyleDefault.Bold(true)
	styleSelection = tcell.StyleDefault.Reverse(true)
	styleBorder    = tcell.StyleDefault.Dim(true)
	styleHeading   = tcell.StyleDefault.Bold(true).Underline(true)
	styleButton    = tcell.StyleDefault.Bold(true)
	styleFocus     = tcell.StyleDefault.Reverse(true).Bold(true)
	styleStatus    = tcell.StyleDefault.Reverse(true)
)

// closeLabel is the path element of a window's close box.
const closeLabel = "\x00close"

type itemKind int

const (
	itemButton itemKind = iota
	itemSubmenu
)

type menuItem struct {
	label string
	kind  itemKind
}

type windowLine struct {
	kind  WidgetKind
	text  string
	width int
}

type window struct {
	title    string
	closable bool
	lines    []windowLine
}

// hit is a clickable screen region from the last drawn frame.
type hit struct {
	x0, x1, y int
	kind      itemKind
	level     int
	path      []string
}

// Terminal is a Surface drawn on a tcell screen.
//
// The menu bar takes the first row and the status line the last. The
// document fills the rows between them, and plugin windows are stacked
// along the right edge on top of it.
//
// F10 opens the menu bar. Arrow keys move through menus, Enter activates
// and Esc backs out. Tab cycles focus through window buttons. Mouse clicks
// work on menus, buttons and close boxes.
type Terminal struct {
	screen tcell.Screen

	tabWidth int

	view DocumentView
	top  int // first document line shown

	// Open menu path; empty when the bar is closed
	open []string
	sel  int

	// Per-frame menu contents by level. Level 0 is the bar.
	levels    [][]menuItem
	lastItems [][]menuItem

	windows []window

	// Clickable regions and focusable window buttons from the last frame
	hits       []hit
	focus      int // index into focusables, -1 when the document has focus
	focusables [][]string

	// Pending activations for the next frame, keyed by joined path
	activate   map[string]bool
	closes     map[string]bool
	closeMenus bool
}

var _ Surface = (*Terminal)(nil)

// NewTerminal creates a terminal surface on the real terminal.
func NewTerminal(tabWidth int) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewTerminalWithScreen(screen, tabWidth), nil
}

// NewTerminalWithScreen creates a terminal surface on screen. The screen is
// initialized by Init.
func NewTerminalWithScreen(screen tcell.Screen, tabWidth int) *Terminal {
	if tabWidth <= 0 {
		tabWidth = 4
	}
	return &Terminal{
		screen:   screen,
		tabWidth: tabWidth,
		focus:    -1,
		activate: make(map[string]bool),
		closes:   make(map[string]bool),
	}
}

// Init initializes the screen and enables the mouse.
func (t *Terminal) Init() error {
	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.EnableMouse()
	t.screen.Clear()
	return nil
}

// Shutdown restores the terminal.
func (t *Terminal) Shutdown() {
	t.screen.Fini()
}

// Screen returns the underlying tcell screen.
func (t *Terminal) Screen() tcell.Screen {
	return t.screen
}

// SetView sets the document drawn by the next EndFrame.
func (t *Terminal) SetView(v DocumentView) {
	t.view = v
}

// MenuOpen reports whether a menu is open.
func (t *Terminal) MenuOpen() bool {
	return len(t.open) > 0
}

// OpenMenu opens the menu at path.
func (t *Terminal) OpenMenu(path ...string) {
	t.open = append([]string(nil), path...)
	t.sel = 0
}

// CloseMenus closes every open menu.
func (t *Terminal) CloseMenus() {
	t.open = nil
	t.sel = 0
}

// Activate schedules a click on the button at path for the next frame.
func (t *Terminal) Activate(path ...string) {
	t.activate[JoinPath(path...)] = true
}

// BeginFrame starts a new frame.
func (t *Terminal) BeginFrame() {
	t.levels = make([][]menuItem, len(t.open)+1)
	t.windows = t.windows[:0]
	t.closeMenus = false
}

// Render returns the window context for the current frame.
func (t *Terminal) Render() sdk.RenderContext {
	return termRender{t: t}
}

// Menu returns the menu bar context for the current frame.
func (t *Terminal) Menu() sdk.MenuContext {
	return termMenu{t: t}
}

// EndFrame draws the frame and presents it.
func (t *Terminal) EndFrame() {
	if t.closeMenus {
		t.CloseMenus()
	}

	// Activations are valid for a single frame.
	clear(t.activate)

	t.lastItems = t.levels
	if n := len(t.open); n > 0 && n < len(t.lastItems) {
		if items := t.lastItems[n]; t.sel >= len(items) {
			t.sel = max(len(items)-1, 0)
		}
	}

	t.draw()
}

// draw renders the whole screen from the current frame's state.
func (t *Terminal) draw() {
	t.screen.Clear()
	t.hits = t.hits[:0]
	t.focusables = t.focusables[:0]

	width, height := t.screen.Size()
	if width <= 0 || height <= 0 {
		return
	}

	t.drawDocument(width, height)
	t.drawWindows(width, height)
	t.drawMenuBar(width)
	t.drawDropdowns(width, height)
	t.drawStatus(width, height)

	if t.focus >= len(t.focusables) {
		t.focus = -1
	}

	t.screen.Show()
}

// drawDocument draws the document text and places the cursor.
func (t *Terminal) drawDocument(width, height int) {
	rows := height - 2
	if rows <= 0 {
		return
	}

	content := t.view.Content
	cursorLine, cursorCol := t.position(content, t.view.Cursor)

	if cursorLine < t.top {
		t.top = cursorLine
	}
	if cursorLine >= t.top+rows {
		t.top = cursorLine - rows + 1
	}

	line, col := 0, 0
	for i := 0; i < len(content); {
		r, size := utf8.DecodeRuneInString(content[i:])

		style := styleDefault
		if t.view.HasSelection && i >= t.view.Selection.Start && i < t.view.Selection.End {
			style = styleSelection
		}

		switch r {
		case '\n':
			line++
			col = 0
		case '\t':
			n := t.tabWidth - col%t.tabWidth
			for k := 0; k < n; k++ {
				t.setCell(col, line-t.top+1, ' ', style, width, rows)
				col++
			}
		default:
			t.setCell(col, line-t.top+1, r, style, width, rows)
			col += runeWidth(r)
		}
		i += size
	}

	y := cursorLine - t.top + 1
	if !t.MenuOpen() && t.focus < 0 && cursorCol < width && y >= 1 && y <= rows {
		t.screen.ShowCursor(cursorCol, y)
	} else {
		t.screen.HideCursor()
	}
}

// setCell draws r inside the document area only.
func (t *Terminal) setCell(x, y int, r rune, style tcell.Style, width, rows int) {
	if x < 0 || x >= width || y < 1 || y > rows {
		return
	}
	t.screen.SetContent(x, y, r, nil, style)
}

// position returns the line and display column of byte offset off.
func (t *Terminal) position(content string, off int) (int, int) {
	if off > len(content) {
		off = len(content)
	}
	line, col := 0, 0
	for _, r := range content[:max(off, 0)] {
		switch r {
		case '\n':
			line++
			col = 0
		case '\t':
			col += t.tabWidth - col%t.tabWidth
		default:
			col += runeWidth(r)
		}
	}
	return line, col
}

// drawMenuBar draws the top-level menus.
func (t *Terminal) drawMenuBar(width int) {
	t.fill(0, 0, width, styleBar)
	if len(t.lastItems) == 0 {
		return
	}

	x := 1
	for _, item := range t.lastItems[0] {
		label := " " + item.label + " "
		style := styleBar
		if len(t.open) > 0 && t.open[0] == item.label {
			style = styleBarOpen
		}
		end := t.text(x, 0, label, style, width)
		t.hits = append(t.hits, hit{x0: x, x1: end, y: 0, kind: item.kind, level: 0, path: []string{item.label}})
		x = end
	}
}

// drawDropdowns draws one dropdown per open menu level.
func (t *Terminal) drawDropdowns(width, height int) {
	x, y := 1, 1
	for _, h := range t.hits {
		if h.level == 0 && len(t.open) > 0 && h.path[0] == t.open[0] {
			x = h.x0
		}
	}

	for level := 1; level <= len(t.open) && level < len(t.lastItems); level++ {
		items := t.lastItems[level]
		w := 0
		for _, item := range items {
			w = max(w, uniseg.StringWidth(item.label)+4)
		}

		for i, item := range items {
			row := y + i
			if row >= height-1 {
				break
			}
			style := styleItem
			if level == len(t.open) && i == t.sel {
				style = styleItemSel
			} else if level < len(t.open) && item.label == t.open[level] {
				style = styleItemSel
			}

			label := " " + item.label
			if item.kind == itemSubmenu {
				label += " >"
			}
			t.fillRange(x, x+w, row, style, width)
			t.text(x, row, label, style, width)

			path := appendPath(t.open[:level], item.label)
			t.hits = append(t.hits, hit{x0: x, x1: x + w, y: row, kind: item.kind, level: level, path: path})
		}

		// The next level opens beside the selected submenu entry.
		if level < len(t.open) {
			for i, item := range items {
				if item.label == t.open[level] {
					y += i
				}
			}
		}
		x += w
	}
}

// drawWindows stacks plugin windows along the right edge.
func (t *Terminal) drawWindows(width, height int) {
	y := 1
	for _, win := range t.windows {
		w := uniseg.StringWidth(win.title) + 8
		for _, l := range win.lines {
			w = max(w, l.width+4)
		}
		w = min(w, width)
		h := len(win.lines) + 2
		if y+h > height-1 {
			break
		}
		x := width - w

		// Frame
		t.fillRect(x, y, w, h, styleDefault)
		t.box(x, y, w, h)
		t.text(x+2, y, " "+win.title+" ", styleHeading, x+w-1)
		if win.closable {
			t.text(x+w-4, y, "[x]", styleButton, width)
			t.hits = append(t.hits, hit{x0: x + w - 4, x1: x + w - 1, y: y, kind: itemButton, level: -1, path: []string{win.title, closeLabel}})
		}

		for i, l := range win.lines {
			row := y + 1 + i
			switch l.kind {
			case WidgetHeading:
				t.text(x+2, row, l.text, styleHeading, x+w-1)
			case WidgetSeparator:
				for cx := x + 1; cx < x+w-1; cx++ {
					t.screen.SetContent(cx, row, tcell.RuneHLine, nil, styleBorder)
				}
			case WidgetButton:
				path := []string{win.title, l.text}
				style := styleButton
				if t.focus == len(t.focusables) {
					style = styleFocus
				}
				t.focusables = append(t.focusables, path)
				end := t.text(x+2, row, "[ "+l.text+" ]", style, x+w-1)
				t.hits = append(t.hits, hit{x0: x + 2, x1: end, y: row, kind: itemButton, level: -1, path: path})
			default:
				t.text(x+2, row, l.text, styleDefault, x+w-1)
			}
		}
		y += h
	}
}

// drawStatus draws the status line.
func (t *Terminal) drawStatus(width, height int) {
	y := height - 1
	t.fill(0, y, width, styleStatus)

	title := t.view.Title
	if title == "" {
		title = "[untitled]"
	}
	if t.view.Modified {
		title += " [+]"
	}
	left := " " + title
	if t.view.Status != "" {
		left += "  " + t.view.Status
	}
	t.text(0, y, left, styleStatus, width)

	line, col := t.position(t.view.Content, t.view.Cursor)
	right := strconv.Itoa(line+1) + ":" + strconv.Itoa(col+1) + " "
	t.text(width-uniseg.StringWidth(right), y, right, styleStatus, width)
}

// text draws s at (x, y), clipped at limit, and returns the next column.
func (t *Terminal) text(x, y int, s string, style tcell.Style, limit int) int {
	for _, r := range s {
		w := runeWidth(r)
		if x+w > limit {
			break
		}
		if x >= 0 {
			t.screen.SetContent(x, y, r, nil, style)
		}
		x += w
	}
	return x
}

func (t *Terminal) fill(x, y, width int, style tcell.Style) {
	t.fillRange(x, width, y, style, width)
}

func (t *Terminal) fillRange(x0, x1, y int, style tcell.Style, width int) {
	for x := max(x0, 0); x < x1 && x < width; x++ {
		t.screen.SetContent(x, y, ' ', nil, style)
	}
}

func (t *Terminal) fillRect(x, y, w, h int, style tcell.Style) {
	for row := y; row < y+h; row++ {
		t.fillRange(x, x+w, row, style, x+w)
	}
}

// box draws a single-line border.
func (t *Terminal) box(x, y, w, h int) {
	x1, y1 := x+w-1, y+h-1
	for cx := x + 1; cx < x1; cx++ {
		t.screen.SetContent(cx, y, tcell.RuneHLine, nil, styleBorder)
		t.screen.SetContent(cx, y1, tcell.RuneHLine, nil, styleBorder)
	}
	for cy := y + 1; cy < y1; cy++ {
		t.screen.SetContent(x, cy, tcell.RuneVLine, nil, styleBorder)
		t.screen.SetContent(x1, cy, tcell.RuneVLine, nil, styleBorder)
	}
	t.screen.SetContent(x, y, tcell.RuneULCorner, nil, styleBorder)
	t.screen.SetContent(x1, y, tcell.RuneURCorner, nil, styleBorder)
	t.screen.SetContent(x, y1, tcell.RuneLLCorner, nil, styleBorder)
	t.screen.SetContent(x1, y1, tcell.RuneLRCorner, nil, styleBorder)
}

// PollInput waits for the next terminal event. Events that drive menus,
// windows or focus are handled here and reported as InputNone.
func (t *Terminal) PollInput() Input {
	ev := t.screen.PollEvent()
	return t.HandleEvent(ev)
}

// HandleEvent decodes one terminal event.
func (t *Terminal) HandleEvent(ev tcell.Event) Input {
	switch e := ev.(type) {
	case *tcell.EventResize:
		t.screen.Sync()
	case *tcell.EventMouse:
		if e.Buttons()&tcell.Button1 != 0 {
			x, y := e.Position()
			t.click(x, y)
		}
	case *tcell.EventKey:
		return t.key(e)
	case *tcell.EventInterrupt:
		if _, ok := e.Data().(quitRequest); ok {
			return Input{Kind: InputQuit}
		}
	}
	return Input{Kind: InputNone}
}

type quitRequest struct{}

// RequestQuit makes a pending or later PollInput return InputQuit.
// It is safe to call from any goroutine.
func (t *Terminal) RequestQuit() error {
	return t.screen.PostEvent(tcell.NewEventInterrupt(quitRequest{}))
}

// click handles a primary button press at (x, y).
func (t *Terminal) click(x, y int) {
	for _, h := range t.hits {
		if y != h.y || x < h.x0 || x >= h.x1 {
			continue
		}
		switch {
		case h.level == 0:
			if len(t.open) > 0 && t.open[0] == h.path[0] {
				t.CloseMenus()
			} else {
				t.OpenMenu(h.path...)
			}
		case h.kind == itemSubmenu:
			t.OpenMenu(h.path...)
		case h.level < 0 && h.path[len(h.path)-1] == closeLabel:
			t.closes[h.path[0]] = true
		default:
			t.Activate(h.path...)
		}
		return
	}

	// Clicking outside the menus closes them.
	t.CloseMenus()
	t.focus = -1
}

// key handles a key press.
func (t *Terminal) key(e *tcell.EventKey) Input {
	shift := e.Modifiers()&tcell.ModShift != 0

	if e.Key() == tcell.KeyF10 {
		if t.MenuOpen() {
			t.CloseMenus()
		} else if len(t.lastItems) > 0 && len(t.lastItems[0]) > 0 {
			t.OpenMenu(t.lastItems[0][0].label)
		}
		return Input{Kind: InputNone}
	}

	if t.MenuOpen() {
		t.menuKey(e)
		return Input{Kind: InputNone}
	}

	switch e.Key() {
	case tcell.KeyTab:
		if len(t.focusables) > 0 {
			t.focus++
			if t.focus >= len(t.focusables) {
				t.focus = -1
			}
			return Input{Kind: InputNone}
		}
		return Input{Kind: InputTab}
	case tcell.KeyEscape:
		t.focus = -1
		return Input{Kind: InputNone}
	case tcell.KeyEnter:
		if t.focus >= 0 && t.focus < len(t.focusables) {
			t.Activate(t.focusables[t.focus]...)
			return Input{Kind: InputNone}
		}
		return Input{Kind: InputEnter}
	case tcell.KeyRune:
		return Input{Kind: InputRune, Rune: e.Rune()}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return Input{Kind: InputBackspace}
	case tcell.KeyDelete:
		return Input{Kind: InputDelete}
	case tcell.KeyLeft:
		return Input{Kind: InputLeft, Shift: shift}
	case tcell.KeyRight:
		return Input{Kind: InputRight, Shift: shift}
	case tcell.KeyUp:
		return Input{Kind: InputUp, Shift: shift}
	case tcell.KeyDown:
		return Input{Kind: InputDown, Shift: shift}
	case tcell.KeyHome:
		return Input{Kind: InputHome, Shift: shift}
	case tcell.KeyEnd:
		return Input{Kind: InputEnd, Shift: shift}
	case tcell.KeyCtrlA:
		return Input{Kind: InputSelectAll}
	case tcell.KeyCtrlS:
		return Input{Kind: InputSave}
	case tcell.KeyCtrlZ:
		return Input{Kind: InputUndo}
	case tcell.KeyCtrlQ:
		return Input{Kind: InputQuit}
	}
	return Input{Kind: InputNone}
}

// menuKey navigates the open menus.
func (t *Terminal) menuKey(e *tcell.EventKey) {
	depth := len(t.open)
	var items []menuItem
	if depth < len(t.lastItems) {
		items = t.lastItems[depth]
	}

	switch e.Key() {
	case tcell.KeyEscape:
		if depth > 1 {
			t.sel = t.indexIn(t.lastItems[depth-1], t.open[depth-1])
			t.open = t.open[:depth-1]
		} else {
			t.CloseMenus()
		}
	case tcell.KeyUp:
		if len(items) > 0 {
			t.sel = (t.sel - 1 + len(items)) % len(items)
		}
	case tcell.KeyDown:
		if len(items) > 0 {
			t.sel = (t.sel + 1) % len(items)
		}
	case tcell.KeyLeft:
		if depth > 1 {
			t.sel = t.indexIn(t.lastItems[depth-1], t.open[depth-1])
			t.open = t.open[:depth-1]
		} else {
			t.moveTop(-1)
		}
	case tcell.KeyRight:
		if t.sel < len(items) && items[t.sel].kind == itemSubmenu {
			t.OpenMenu(appendPath(t.open, items[t.sel].label)...)
		} else {
			t.moveTop(1)
		}
	case tcell.KeyEnter:
		if t.sel >= len(items) {
			return
		}
		item := items[t.sel]
		if item.kind == itemSubmenu {
			t.OpenMenu(appendPath(t.open, item.label)...)
			return
		}
		t.Activate(appendPath(t.open, item.label)...)
	}
}

// moveTop opens the neighbouring top-level menu.
func (t *Terminal) moveTop(delta int) {
	if len(t.lastItems) == 0 || len(t.lastItems[0]) == 0 || len(t.open) == 0 {
		return
	}
	bar := t.lastItems[0]
	i := t.indexIn(bar, t.open[0])
	i = (i + delta + len(bar)) % len(bar)
	t.OpenMenu(bar[i].label)
}

func (t *Terminal) indexIn(items []menuItem, label string) int {
	for i, item := range items {
		if item.label == label {
			return i
		}
	}
	return 0
}

// addItem records a menu entry at level, merging submenus by label.
func (t *Terminal) addItem(level int, item menuItem) {
	if level >= len(t.levels) {
		return
	}
	if item.kind == itemSubmenu {
		for _, existing := range t.levels[level] {
			if existing.kind == itemSubmenu && existing.label == item.label {
				return
			}
		}
	}
	t.levels[level] = append(t.levels[level], item)
}

// isOpen reports whether the submenu at path is open.
func (t *Terminal) isOpen(path []string) bool {
	if len(path) > len(t.open) {
		return false
	}
	for i, p := range path {
		if t.open[i] != p {
			return false
		}
	}
	return true
}

// consume reports whether path was activated and consumes the activation.
func (t *Terminal) consume(path []string) bool {
	key := JoinPath(path...)
	if !t.activate[key] {
		return false
	}
	delete(t.activate, key)
	return true
}

type termRender struct {
	t *Terminal
}

func (r termRender) Window(title string, open *bool, body func(p sdk.Panel)) {
	if open != nil && !*open {
		return
	}
	if open != nil && r.t.closes[title] {
		delete(r.t.closes, title)
		*open = false
		return
	}

	win := &window{title: title, closable: open != nil}
	body(&termPanel{t: r.t, win: win})
	r.t.windows = append(r.t.windows, *win)
}

type termPanel struct {
	t   *Terminal
	win *window
}

func (p *termPanel) add(kind WidgetKind, text string, width int) {
	p.win.lines = append(p.win.lines, windowLine{kind: kind, text: text, width: width})
}

func (p *termPanel) Heading(text string) {
	p.add(WidgetHeading, text, uniseg.StringWidth(text))
}

func (p *termPanel) Label(text string) {
	p.add(WidgetLabel, text, uniseg.StringWidth(text))
}

func (p *termPanel) Separator() {
	p.add(WidgetSeparator, "", 0)
}

func (p *termPanel) Button(label string) bool {
	p.add(WidgetButton, label, uniseg.StringWidth(label)+4)
	return p.t.consume([]string{p.win.title, label})
}

type termMenu struct {
	t    *Terminal
	path []string
}

func (m termMenu) Menu(label string, body func(m sdk.MenuContext)) {
	m.t.addItem(len(m.path), menuItem{label: label, kind: itemSubmenu})

	path := appendPath(m.path, label)
	if m.t.isOpen(path) {
		body(termMenu{t: m.t, path: path})
	}
}

func (m termMenu) Button(label string) bool {
	m.t.addItem(len(m.path), menuItem{label: label, kind: itemButton})
	return m.t.consume(appendPath(m.path, label))
}

func (m termMenu) CloseMenu() {
	m.t.closeMenus = true
}

// runeWidth returns the number of cells r occupies.
func runeWidth(r rune) int {
	return uniseg.StringWidth(string(r))
}
