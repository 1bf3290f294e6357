package resolve

import "github.com/phobologic/callsite/internal/model"

// DefaultWindowSpan is the number of bytes scanned around the cursor.
const DefaultWindowSpan = 400

// NewWindow cuts a span-sized slice of text around off, clamped to the
// buffer bounds. The slice starts span/2 bytes before the cursor when
// there is room.
func NewWindow(text string, off, span int) model.Window {
	if span <= 0 {
		span = DefaultWindowSpan
	}
	start := max(0, off-span/2)
	end := min(len(text), start+span)
	if start > end {
		start = end
	}
	return model.Window{Text: text[start:end], Base: start}
}
