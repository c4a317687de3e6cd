package browser

import (
	"fmt"
	"runtime"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"
)

// Options configures the browser a session runs in.
type Options struct {
	Headless       bool   `yaml:"headless"`
	Bin            string `yaml:"bin"`
	Leakless       bool   `yaml:"leakless"`
	Stealth        bool   `yaml:"stealth"`
	ViewportWidth  int    `yaml:"viewport_width"`
	ViewportHeight int    `yaml:"viewport_height"`
}

// DefaultOptions returns a headless desktop-sized configuration.
func DefaultOptions() Options {
	return Options{
		Headless:       true,
		Leakless:       true,
		Stealth:        true,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
	}
}

// Launch starts a browser and opens the session's first tab. Each test
// worker owns its own session; nothing is shared across sessions.
func Launch(opts Options, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}

	// Leakless deadlocks on Windows: https://github.com/go-rod/rod/issues/853
	l := launcher.New().
		Leakless(opts.Leakless && runtime.GOOS != "windows").
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("no-first-run").
		Set("no-default-browser-check")

	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	} else if path, ok := launcher.LookPath(); ok {
		l = l.Bin(path)
		log.Debug("using system browser", zap.String("bin", path))
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := openPage(b, opts.Stealth)
	if err != nil {
		_ = b.Close()
		l.Cleanup()
		return nil, err
	}

	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             opts.ViewportWidth,
			Height:            opts.ViewportHeight,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			log.Warn("failed to set viewport", zap.Error(err))
		}
	}

	log.Info("browser launched",
		zap.Bool("headless", opts.Headless),
		zap.Bool("stealth", opts.Stealth))

	s := NewSession(b, page, log)
	s.launcher = l
	return s, nil
}

func openPage(b *rod.Browser, useStealth bool) (*rod.Page, error) {
	if useStealth {
		page, err := stealth.Page(b)
		if err != nil {
			return nil, fmt.Errorf("failed to create stealth page: %w", err)
		}
		return page, nil
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return page, nil
}
