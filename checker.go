package fsmodel

import (
	"context"
	"errors"
	"strings"

	"github.com/enetx/g"
)

// FragmentChecker validates the syntax and semantics of guard and action
// text in the scope of an automaton.
//
// A fragment that is merely invalid yields a *Rejection. Any other error
// means the checker itself failed (tool not found, timeout, ...).
type FragmentChecker interface {
	CheckFragment(ctx context.Context, kind FragmentKind, text g.String, scope *Scope) error
}

// FragmentCheckerFunc adapts a function to FragmentChecker.
type FragmentCheckerFunc func(ctx context.Context, kind FragmentKind, text g.String, scope *Scope) error

func (f FragmentCheckerFunc) CheckFragment(ctx context.Context, kind FragmentKind, text g.String, scope *Scope) error {
	return f(ctx, kind, text, scope)
}

// AcceptAll is a FragmentChecker accepting every fragment.
var AcceptAll FragmentChecker = FragmentCheckerFunc(
	func(context.Context, FragmentKind, g.String, *Scope) error { return nil },
)

// Rejection is returned by a FragmentChecker for an invalid fragment.
type Rejection struct {
	Diagnostics g.Slice[g.String]
}

func (r *Rejection) Error() string {
	if r.Diagnostics.Empty() {
		return "fragment rejected"
	}
	return "fragment rejected: " + string(r.Diagnostics.Join("; "))
}

// Reject builds a Rejection from diagnostic lines.
func Reject(diagnostics ...string) *Rejection {
	r := &Rejection{}
	for _, d := range diagnostics {
		if d = strings.TrimSpace(d); d != "" {
			r.Diagnostics.Push(g.String(d))
		}
	}
	return r
}

// CachingChecker memoises the verdicts of another checker. Verdicts are
// keyed on fragment kind, text and scope content; checker failures are not
// cached.
type CachingChecker struct {
	next  FragmentChecker
	cache *g.MapSafe[g.String, verdict]
}

type verdict struct {
	rejection *Rejection
}

// NewCachingChecker wraps next.
func NewCachingChecker(next FragmentChecker) *CachingChecker {
	return &CachingChecker{
		next:  next,
		cache: g.NewMapSafe[g.String, verdict](),
	}
}

func (c *CachingChecker) CheckFragment(ctx context.Context, kind FragmentKind, text g.String, scope *Scope) error {
	key := g.String(kind.String()) + "\x00" + text + "\x00" + g.String(scope.key())

	if cached := c.cache.Get(key); cached.IsSome() {
		if v := cached.Some(); v.rejection != nil {
			return v.rejection
		}
		return nil
	}

	err := c.next.CheckFragment(ctx, kind, text, scope)

	var rej *Rejection
	switch {
	case err == nil:
		c.cache.Set(key, verdict{})
	case errors.As(err, &rej):
		c.cache.Set(key, verdict{rejection: rej})
	}

	return err
}

// Reset drops every memoised verdict. It must not run concurrently with
// CheckFragment.
func (c *CachingChecker) Reset() {
	c.cache = g.NewMapSafe[g.String, verdict]()
}
