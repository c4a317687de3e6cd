package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/grez-lucas/menzzo-e2e/internal/storefront"
)

// Kind tags an Outcome.
type Kind int

const (
	KindPopup Kind = iota + 1
	KindSameTabRedirect
	KindEmbedded
)

func (k Kind) String() string {
	switch k {
	case KindPopup:
		return "popup"
	case KindSameTabRedirect:
		return "same-tab-redirect"
	case KindEmbedded:
		return "embedded"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Window is a browser tab opened by the provider.
type Window interface {
	// WaitLoad blocks until the tab fires load or ctx is done.
	WaitLoad(ctx context.Context) error
	URL() (string, error)
}

// Outcome is how the provider took over after submit. Popup is set only
// for KindPopup.
type Outcome struct {
	Kind  Kind
	Popup Window
	URL   string
}

// Race waits concurrently for a popup and for a same-tab redirect and
// returns the first that resolves. A failed wait does not decide the race;
// the other keeps running until ctx is done. Both functions must return
// once their context is cancelled: Race waits for them before returning.
func Race(ctx context.Context, popup func(ctx context.Context) (Window, error), redirect func(ctx context.Context) error) (Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		out Outcome
		err error
	}
	results := make(chan result, 2)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		w, err := popup(ctx)
		if err == nil && w == nil {
			err = errors.New("popup wait returned no window")
		}
		results <- result{out: Outcome{Kind: KindPopup, Popup: w}, err: err}
	}()
	go func() {
		defer wg.Done()
		err := redirect(ctx)
		results <- result{out: Outcome{Kind: KindSameTabRedirect}, err: err}
	}()

	var errs []error
	for range 2 {
		r := <-results
		if r.err == nil {
			cancel()
			wg.Wait()
			return r.out, nil
		}
		errs = append(errs, r.err)
	}
	wg.Wait()

	if ctx.Err() != nil || errors.Is(errors.Join(errs...), context.DeadlineExceeded) {
		return Outcome{}, fmt.Errorf("%w: neither popup nor redirect: %w", storefront.ErrTimeout, errors.Join(errs...))
	}
	return Outcome{}, errors.Join(errs...)
}
