package browser

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
)

// Fill replaces the value of a text field. Input fires the input and
// change events the storefront's form validation listens to.
func Fill(el *rod.Element, value string) error {
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("select field text: %w", err)
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("input field value: %w", err)
	}
	return nil
}

// TypeKeys clears el and types text one key at a time, pausing between
// keys. Runes missing from the US keyboard layout are inserted as text.
func TypeKeys(ctx context.Context, el *rod.Element, text string, pause time.Duration) error {
	el = el.Context(ctx)
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("select field text: %w", err)
	}
	if err := el.Type(input.Backspace); err != nil {
		return fmt.Errorf("clear field: %w", err)
	}

	for _, r := range text {
		var err error
		if r >= ' ' && r <= '~' {
			err = el.Type(input.Key(r))
		} else {
			err = el.Page().InsertText(string(r))
		}
		if err != nil {
			return fmt.Errorf("type %q: %w", r, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
	}
	return nil
}

// FillVerified fills el and reads the value back. Masked inputs (phone
// formatters, postcode widgets) reject a single Input burst; when the read
// value lost characters of value, the field is retyped with TypeKeys.
// It reports whether that retype happened.
func FillVerified(ctx context.Context, el *rod.Element, value string, pause time.Duration) (bool, error) {
	if err := Fill(el.Context(ctx), value); err != nil {
		return false, err
	}
	if got, err := fieldValue(el); err == nil && alnum(got) == alnum(value) {
		return false, nil
	}
	if err := TypeKeys(ctx, el, value, pause); err != nil {
		return true, err
	}
	return true, nil
}

func fieldValue(el *rod.Element) (string, error) {
	v, err := el.Property("value")
	if err != nil {
		return "", fmt.Errorf("read field value: %w", err)
	}
	return v.Str(), nil
}

// alnum drops everything but letters and digits, so "06 00 00" and
// "060000" compare equal.
func alnum(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// FirstVisible returns the first element, over all selectors in order,
// that is currently visible. It does not wait.
func FirstVisible(page *rod.Page, selectors []string) (*rod.Element, string, bool) {
	for _, sel := range selectors {
		els, err := page.Elements(sel)
		if err != nil {
			continue
		}
		for _, el := range els {
			if visible, err := el.Visible(); err == nil && visible {
				return el, sel, true
			}
		}
	}
	return nil, "", false
}

// checkedJS reads the checked state of an input, or of the input a label
// points at or wraps.
const checkedJS = `() => {
	let input = this;
	if (this.tagName === 'LABEL') {
		input = this.htmlFor ? document.getElementById(this.htmlFor) : this.querySelector('input');
	}
	return !!(input && input.checked);
}`

// Checked reports whether el, an input or its label, is checked.
func Checked(el *rod.Element) (bool, error) {
	res, err := el.Eval(checkedJS)
	if err != nil {
		return false, fmt.Errorf("read checked state: %w", err)
	}
	return res.Value.Bool(), nil
}

// Usable reports whether el is visible and not disabled.
func Usable(el *rod.Element) bool {
	visible, err := el.Visible()
	if err != nil || !visible {
		return false
	}
	res, err := el.Eval(`() => !this.disabled && this.getAttribute('aria-disabled') !== 'true'`)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}
