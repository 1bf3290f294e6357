// Package resolve finds the call expression enclosing a cursor and evaluates
// its arguments.
//
// Resolution locates the call whose span contains the cursor, splits its
// argument list and then descends into the argument under the cursor: into
// the body of an inline closure, or into any argument long enough to hold a
// call of its own. The innermost call found wins. Recursion is bounded by
// Options.MaxDepth; a request that would need to go deeper resolves to no
// call site.
package resolve

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/phobologic/callsite/internal/literal"
	"github.com/phobologic/callsite/internal/logging"
	"github.com/phobologic/callsite/internal/model"
	"github.com/phobologic/callsite/internal/scan"
)

const (
	// DefaultMaxDepth caps recursive descent.
	DefaultMaxDepth = 6

	// DefaultMinNestedArgLength is the shortest trimmed argument that is
	// searched for a nested call. "f()" has length 3 and is never a
	// candidate on its own; "f(1)" is.
	DefaultMinNestedArgLength = 4
)

// errTooDeep aborts a request whose enclosing calls nest beyond MaxDepth.
var errTooDeep = errors.New("call nesting exceeds depth limit")

// Options tunes a Resolver. Zero fields take their defaults.
type Options struct {
	WindowSpan         int
	MaxDepth           int
	MaxParenNesting    int
	MinNestedArgLength int
}

// DefaultOptions returns the standard resolver settings.
func DefaultOptions() Options {
	return Options{
		WindowSpan:         DefaultWindowSpan,
		MaxDepth:           DefaultMaxDepth,
		MaxParenNesting:    scan.DefaultMaxParenNesting,
		MinNestedArgLength: DefaultMinNestedArgLength,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.WindowSpan <= 0 {
		o.WindowSpan = d.WindowSpan
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = d.MaxDepth
	}
	if o.MaxParenNesting <= 0 {
		o.MaxParenNesting = d.MaxParenNesting
	}
	if o.MinNestedArgLength <= 0 {
		o.MinNestedArgLength = d.MinNestedArgLength
	}
	return o
}

// Resolver owns an evaluator and a single-slot result cache. It is safe for
// concurrent use; requests are serialized.
type Resolver struct {
	mu      sync.Mutex
	eval    literal.Evaluator
	locator *scan.Locator
	opts    Options
	logger  *slog.Logger
	metrics *Metrics
	cache   cache
}

// New creates a Resolver recognizing the given qualifying class names.
// A nil logger discards output and nil metrics are left unregistered.
func New(eval literal.Evaluator, classes []string, opts Options, logger *slog.Logger, metrics *Metrics) *Resolver {
	opts = opts.withDefaults()
	if logger == nil {
		logger = logging.Discard()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Resolver{
		eval:    eval,
		locator: scan.NewLocator(classes, opts.MaxParenNesting),
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// Options returns the effective settings.
func (r *Resolver) Options() Options {
	return r.opts
}

// Resolve returns the call enclosing offset in text, or nil when there is
// none. The returned CallSite may be shared with later identical requests
// and must not be modified.
func (r *Resolver) Resolve(text string, offset int) *model.CallSite {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.metrics.Requests.Inc()
	if offset < 0 || offset > len(text) {
		return nil
	}

	w := NewWindow(text, offset, r.opts.WindowSpan)
	local := offset - w.Base
	if cs, ok := r.cache.get(w.Text, local); ok {
		r.metrics.CacheHits.Inc()
		r.logger.Debug("resolve cache hit", slog.Int("offset", offset))
		return cs
	}
	r.metrics.CacheMisses.Inc()

	cs, err := r.resolve(w.Text, local, 0)
	if errors.Is(err, errTooDeep) {
		r.metrics.DepthAborts.Inc()
		r.logger.Debug("resolve aborted",
			slog.Int("offset", offset),
			slog.Int("max_depth", r.opts.MaxDepth))
		cs = nil
	}
	r.cache.put(w.Text, local, cs)
	return cs
}

// resolve works on a slice of the window with a slice-local offset.
func (r *Resolver) resolve(text string, off, level int) (*model.CallSite, error) {
	r.metrics.LocatorScans.Inc()
	m, ok := r.locator.Locate(text, off)
	if !ok {
		return nil, nil
	}
	if level >= r.opts.MaxDepth {
		return nil, errTooDeep
	}

	args, idx := scan.Split(m.ArgList, off-m.ArgListOffset)
	if idx >= 0 {
		arg := args[idx]
		seg := m.ArgList[arg.Start:arg.End]
		segOff := off - m.ArgListOffset - arg.Start

		c, isClosure := scan.ClosureBody(seg)
		if isClosure && c.Contains(segOff) {
			return r.resolve(c.Body, segOff-c.Offset, level+1)
		}
		// A cursor in a closure's signature stays with the outer call.
		if !isClosure && len(arg.RawText) >= r.opts.MinNestedArgLength {
			inner, err := r.resolve(seg, segOff, level+1)
			if err != nil || inner != nil {
				return inner, err
			}
		}
	}
	return r.callSite(m, args, idx), nil
}

func (r *Resolver) callSite(m model.CallMatch, args []model.Argument, idx int) *model.CallSite {
	cs := &model.CallSite{
		Class:        m.Class,
		Function:     m.Function,
		Values:       make([]model.Value, len(args)),
		RawArguments: make([]string, len(args)),
	}
	if idx >= 0 {
		cs.ArgumentIndex = &idx
	}
	for i, a := range args {
		r.metrics.Evaluations.Inc()
		cs.Values[i] = r.eval.Evaluate(a.RawText)
		cs.RawArguments[i] = a.RawText
	}
	return cs
}
