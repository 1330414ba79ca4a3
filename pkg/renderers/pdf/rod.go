package pdf

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodOption configures a RodPrinter.
type RodOption func(*RodPrinter)

// WithControlURL connects to an already running browser instead of
// launching one.
func WithControlURL(url string) RodOption {
	return func(p *RodPrinter) {
		p.controlURL = strings.TrimSpace(url)
	}
}

// WithBrowserBin sets the browser binary used when launching.
func WithBrowserBin(bin string) RodOption {
	return func(p *RodPrinter) {
		p.bin = strings.TrimSpace(bin)
	}
}

// WithHeadless toggles headless mode for launched browsers. Defaults to true.
func WithHeadless(headless bool) RodOption {
	return func(p *RodPrinter) {
		p.headless = headless
	}
}

// RodPrinter prints pages with a Chrome instance driven over the DevTools
// protocol. The browser is started on first use and shared across calls.
type RodPrinter struct {
	mu         sync.Mutex
	browser    *rod.Browser
	controlURL string
	bin        string
	headless   bool
}

var _ Printer = (*RodPrinter)(nil)

func NewRodPrinter(options ...RodOption) *RodPrinter {
	p := &RodPrinter{headless: true}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	return p
}

// PrintPDF loads markup into a fresh tab and prints it.
func (p *RodPrinter) PrintPDF(ctx context.Context, markup []byte, options PageOptions) ([]byte, error) {
	browser, err := p.ensureBrowser(ctx)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The tab is not bound to ctx so it can still be closed after a cancel.
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("rod printer: open page: %w", err)
	}
	defer func() {
		_ = page.Close()
	}()
	loading := page.Context(ctx)

	if err := loading.SetDocumentContent(string(markup)); err != nil {
		return nil, fmt.Errorf("rod printer: set content: %w", err)
	}
	if err := loading.WaitLoad(); err != nil {
		return nil, fmt.Errorf("rod printer: wait load: %w", err)
	}

	stream, err := loading.PDF(&proto.PagePrintToPDF{
		Landscape:       options.Landscape,
		PrintBackground: true,
	})
	if err != nil {
		return nil, fmt.Errorf("rod printer: print: %w", err)
	}
	defer func() {
		_ = stream.Close()
	}()

	out, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("rod printer: read stream: %w", err)
	}
	return out, nil
}

// Close shuts down the shared browser, if one was started.
func (p *RodPrinter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.browser == nil {
		return nil
	}
	err := p.browser.Close()
	p.browser = nil
	return err
}

func (p *RodPrinter) ensureBrowser(ctx context.Context) (*rod.Browser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.browser != nil {
		return p.browser, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	controlURL := p.controlURL
	if controlURL == "" {
		launch := launcher.New().Headless(p.headless)
		if p.bin != "" {
			launch = launch.Bin(p.bin)
		}
		url, err := launch.Launch()
		if err != nil {
			return nil, fmt.Errorf("rod printer: launch browser: %w", err)
		}
		controlURL = url
	}

	// The browser outlives the call that started it.
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("rod printer: connect to browser: %w", err)
	}
	p.browser = browser
	return browser, nil
}
