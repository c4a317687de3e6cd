// Package browser wraps rod with the resilient interaction primitives used by
// the storefront flows: session and tab recovery, frame traversal, the
// text-based click cascade and input helpers.
package browser

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront"
)

// maxFrameDepth bounds the recursion into nested iframes.
const maxFrameDepth = 4

// Frames returns the main document followed by every reachable child frame,
// depth-first. Frames that cannot be attached (detached or still loading)
// are skipped. The list is rebuilt on every call since frames reload.
func Frames(page *rod.Page) []*rod.Page {
	frames := []*rod.Page{page}
	return collectFrames(page, frames, 1)
}

func collectFrames(page *rod.Page, acc []*rod.Page, depth int) []*rod.Page {
	if depth > maxFrameDepth {
		return acc
	}

	iframes, err := page.Elements("iframe")
	if err != nil {
		return acc
	}

	for _, iframe := range iframes {
		frame, err := iframe.Frame()
		if err != nil {
			continue
		}
		acc = append(acc, frame)
		acc = collectFrames(frame, acc, depth+1)
	}
	return acc
}

// WaitForFrames waits for DOM stability on the page and on every visible
// iframe, recursively. Stability errors are ignored: a frame that never
// settles is still inspected.
func WaitForFrames(page *rod.Page) {
	_ = page.WaitDOMStable(time.Second, 0)

	iframes, err := page.Elements("iframe")
	if err != nil {
		return
	}

	for _, iframe := range iframes {
		visible, _ := iframe.Visible()
		if !visible {
			continue
		}

		frame, err := iframe.Frame()
		if err != nil {
			continue
		}

		WaitForFrames(frame)
	}
}

// FrameBySelector returns the first visible iframe matching selector with
// its frame context. Hidden or not yet attached matches are skipped. The
// error wraps storefront.ErrNotFound when nothing qualifies.
func FrameBySelector(page *rod.Page, selector string) (*rod.Element, *rod.Page, error) {
	iframes, err := page.Elements(selector)
	if err != nil {
		return nil, nil, fmt.Errorf("query %s: %w", selector, err)
	}

	for _, el := range iframes {
		if visible, err := el.Visible(); err != nil || !visible {
			continue
		}
		frame, err := el.Frame()
		if err != nil || frame.FrameID == "" {
			continue
		}
		return el, frame, nil
	}
	return nil, nil, fmt.Errorf("%w: no visible frame for %s", storefront.ErrNotFound, selector)
}
