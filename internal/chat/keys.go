package chat

// KeyEvent is a key press on the input surface, reduced to what matters
// for submission
type KeyEvent struct {
	Enter bool
	Shift bool
}

// ShouldSubmit reports whether ev submits the input: Enter without Shift.
// Shift+Enter is reserved for inserting a newline.
func ShouldSubmit(ev KeyEvent) bool {
	return ev.Enter && !ev.Shift
}

// ShouldInsertNewline reports whether ev inserts a newline into the input
func ShouldInsertNewline(ev KeyEvent) bool {
	return ev.Enter && ev.Shift
}
