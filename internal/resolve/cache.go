package resolve

import "github.com/phobologic/callsite/internal/model"

// cache remembers the most recent top-level request. A lookup only hits on
// exact equality of window text and window-local offset.
type cache struct {
	valid  bool
	text   string
	offset int
	result *model.CallSite
}

func (c *cache) get(text string, offset int) (*model.CallSite, bool) {
	if !c.valid || c.offset != offset || c.text != text {
		return nil, false
	}
	return c.result, true
}

func (c *cache) put(text string, offset int, result *model.CallSite) {
	c.valid = true
	c.text = text
	c.offset = offset
	c.result = result
}
