package browser

import (
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"
)

// snapshotJS serializes the document with same-origin iframe documents and
// open shadow roots inlined. It works on a clone so the live page, which a
// failed flow may still be inspected on, is left untouched.
//
// Iframes are read from the live tree (clones carry no contentDocument) and
// matched to their clone by position.
const snapshotJS = `() => {
	const MAX_DEPTH = 20;
	let shadows = 0;
	let frames = 0;

	function inline(live, copy, depth) {
		if (depth > MAX_DEPTH) return;

		if (live.shadowRoot) {
			const box = document.createElement('div');
			box.setAttribute('data-snapshot-shadow', live.tagName.toLowerCase());
			for (const child of Array.from(live.shadowRoot.children)) {
				const c = child.cloneNode(true);
				inline(child, c, depth + 1);
				box.appendChild(c);
			}
			copy.appendChild(box);
			shadows++;
		}

		const liveKids = live.children;
		const copyKids = copy.children;
		for (let i = 0; i < liveKids.length && i < copyKids.length; i++) {
			const l = liveKids[i];
			const c = copyKids[i];
			if (l.tagName === 'IFRAME') {
				copy.replaceChild(frameBox(l, depth), c);
				continue;
			}
			inline(l, c, depth + 1);
		}
	}

	function frameBox(iframe, depth) {
		const box = document.createElement('div');
		box.setAttribute('data-snapshot-frame', iframe.src || iframe.name || '');
		try {
			const doc = iframe.contentDocument;
			if (!doc || !doc.body) throw new Error('no document');
			const body = doc.body.cloneNode(true);
			inline(doc.body, body, depth + 1);
			box.innerHTML = body.innerHTML;
			frames++;
		} catch (e) {
			box.setAttribute('data-snapshot-error', 'cross-origin');
		}
		return box;
	}

	const root = document.documentElement.cloneNode(true);
	inline(document.documentElement, root, 0);
	return JSON.stringify({ html: root.outerHTML, shadows: shadows, frames: frames });
}`

// Snapshot is a serialized DOM captured for a failure report.
type Snapshot struct {
	HTML    string `json:"html"`
	Shadows int    `json:"shadows"`
	Frames  int    `json:"frames"`
}

// SnapshotDOM captures the page DOM with shadow roots and same-origin
// iframes inlined. Cross-origin frames are marked, not read. Falls back to
// the plain page HTML when the script cannot run.
func SnapshotDOM(page *rod.Page) (*Snapshot, error) {
	res, evalErr := page.Eval(snapshotJS)
	if evalErr == nil {
		var snap Snapshot
		if err := json.Unmarshal([]byte(res.Value.Str()), &snap); err == nil {
			return &snap, nil
		}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("snapshot DOM: %w", err)
	}
	return &Snapshot{HTML: html}, nil
}
