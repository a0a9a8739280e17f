package tui

// Vertical chrome around the list: header line, blank line, status line and
// short help line.
const (
	headerHeight = 2
	footerHeight = 2

	// loadAheadRows starts the next page this many rows before the end
	loadAheadRows = 5
)

// listWindow tracks the cursor and scroll offset of a vertical list
type listWindow struct {
	cursor int
	offset int
}

// clamp keeps cursor inside [0, n) and the cursor row visible in rows lines
func (w *listWindow) clamp(n, rows int) {
	rows = max(rows, 1)
	if n <= 0 {
		w.cursor, w.offset = 0, 0
		return
	}
	w.cursor = min(max(w.cursor, 0), n-1)
	if w.cursor < w.offset {
		w.offset = w.cursor
	}
	if w.cursor >= w.offset+rows {
		w.offset = w.cursor - rows + 1
	}
	w.offset = min(max(w.offset, 0), max(n-rows, 0))
}

func (w *listWindow) move(delta, n, rows int) {
	w.cursor += delta
	w.clamp(n, rows)
}

func (w *listWindow) top(n, rows int) {
	w.cursor = 0
	w.clamp(n, rows)
}

func (w *listWindow) bottom(n, rows int) {
	w.cursor = n - 1
	w.clamp(n, rows)
}

// jump moves the cursor to index and keeps it at the same screen row
func (w *listWindow) jump(index, n, rows int) {
	shift := index - w.cursor
	w.cursor = index
	w.offset += shift
	w.clamp(n, rows)
}

func (w *listWindow) reset() {
	w.cursor, w.offset = 0, 0
}

// visible returns the [start, end) range of rows on screen
func (w listWindow) visible(n, rows int) (int, int) {
	start := min(w.offset, n)
	return start, min(start+max(rows, 1), n)
}

// nearEnd reports whether the cursor or the bottom of the screen is close to
// the last of n rows
func (w listWindow) nearEnd(n, rows int) bool {
	return w.cursor >= n-loadAheadRows || w.offset+rows >= n
}

// nearStart reports whether the cursor is close to the first row
func (w listWindow) nearStart() bool {
	return w.cursor < loadAheadRows
}

// listRows returns how many list rows fit on screen
func (m Model) listRows() int {
	rows := m.height - headerHeight - footerHeight
	if m.showHelp {
		rows -= m.fullHelpHeight()
	}
	return max(rows, 1)
}

func (m Model) fullHelpHeight() int {
	height := 0
	for _, col := range m.keys.FullHelp() {
		height = max(height, len(col))
	}
	return height
}
