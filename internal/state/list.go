package state

import "fmt"

// List is an ordered slice of items with an optional selected index. The
// selection, when present, always indexes into Items.
type List[T any] struct {
	Items    []T
	selected int
	ok       bool
}

// Selected returns the selected index, or false when nothing is selected.
func (l *List[T]) Selected() (int, bool) {
	return l.selected, l.ok
}

// Select sets the selection, clamped to the list bounds. Selecting in an
// empty list clears the selection.
func (l *List[T]) Select(i int) {
	if len(l.Items) == 0 {
		l.Unselect()
		return
	}
	if i < 0 {
		i = 0
	}
	if i > len(l.Items)-1 {
		i = len(l.Items) - 1
	}
	l.selected, l.ok = i, true
}

// Unselect clears the selection.
func (l *List[T]) Unselect() {
	l.selected, l.ok = 0, false
}

// Current returns the selected item.
func (l *List[T]) Current() (T, bool) {
	if !l.ok || l.selected >= len(l.Items) {
		var zero T
		return zero, false
	}
	return l.Items[l.selected], true
}

// Start selects the first item.
func (l *List[T]) Start() {
	l.Select(0)
}

// End selects the last item.
func (l *List[T]) End() {
	l.Select(len(l.Items) - 1)
}

// Next moves the selection down one row, stopping at the last item.
func (l *List[T]) Next() {
	if len(l.Items) == 0 {
		return
	}
	if !l.ok {
		l.Select(0)
		return
	}
	l.Select(l.selected + 1)
}

// Previous moves the selection up one row, stopping at the first item.
func (l *List[T]) Previous() {
	if len(l.Items) == 0 {
		return
	}
	if !l.ok {
		l.Select(0)
		return
	}
	l.Select(l.selected - 1)
}

// Title returns the position of the selection like "2/5", or "" when empty.
func (l *List[T]) Title() string {
	if len(l.Items) == 0 {
		return ""
	}
	pos := 0
	if l.ok {
		pos = l.selected + 1
	}
	return fmt.Sprintf("%d/%d", pos, len(l.Items))
}

// Len returns the number of items.
func (l *List[T]) Len() int {
	return len(l.Items)
}
