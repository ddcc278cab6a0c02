package scraper

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

const (
	yearSelector  = "#ryearID"
	monthSelector = "#rmonthID"
	daySelector   = "select[name='ctl00$ContentPlaceHolder1$dday']"

	englishReleasesText = "English Releases"
	noReleasesJSRegex   = "/No releases found|No record found/i"

	a4WidthInches  = 8.27
	a4HeightInches = 11.69
	marginInches   = 1 / 2.54
)

// selectOptionJS picks the option whose value or label equals want and fires
// the change handlers the archive form relies on.
const selectOptionJS = `(sel, want) => {
	const el = document.querySelector(sel);
	if (!el) throw new Error("element not found: " + sel);
	const opt = Array.from(el.options).find(o => o.value === want || o.label.trim() === want);
	if (!opt) throw new Error("option " + want + " not found in " + sel);
	el.value = opt.value;
	el.dispatchEvent(new Event("input", { bubbles: true }));
	el.dispatchEvent(new Event("change", { bubbles: true }));
}`

type RodConfig struct {
	ArchiveURL        string
	Headless          bool
	Bin               string
	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
	SettleDelay       time.Duration
	Logger            *zap.Logger
}

// RodBrowser drives a headless Chromium through go-rod.
type RodBrowser struct {
	config   RodConfig
	launcher *launcher.Launcher
	browser  *rod.Browser
	logger   *zap.Logger
}

// LaunchRod starts a browser and connects to it. The browser lives until
// Close is called or ctx is cancelled.
func LaunchRod(ctx context.Context, config RodConfig) (*RodBrowser, error) {
	if config.NavigationTimeout == 0 {
		config.NavigationTimeout = 90 * time.Second
	}
	if config.ActionTimeout == 0 {
		config.ActionTimeout = 45 * time.Second
	}
	if config.SettleDelay == 0 {
		config.SettleDelay = 500 * time.Millisecond
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	l := launcher.New().Headless(config.Headless)
	if config.Bin != "" {
		l = l.Bin(config.Bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	logger.Debug("Browser connected", zap.String("control_url", controlURL))
	return &RodBrowser{
		config:   config,
		launcher: l,
		browser:  browser,
		logger:   logger,
	}, nil
}

func (b *RodBrowser) OpenArchive(ctx context.Context) (Archive, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("open archive tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, b.config.NavigationTimeout)
	defer cancel()

	b.logger.Info("Navigating to archive", zap.String("url", b.config.ArchiveURL))
	p := page.Context(navCtx)
	if err := p.Navigate(b.config.ArchiveURL); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", b.config.ArchiveURL, err)
	}
	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for archive: %w", err)
	}

	b.logger.Info("Clicking English Releases")
	link, err := p.ElementR("a", englishReleasesText)
	if err != nil {
		return nil, fmt.Errorf("find %q link: %w", englishReleasesText, err)
	}
	wait := p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := link.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return nil, fmt.Errorf("click %q: %w", englishReleasesText, err)
	}
	wait()

	return &rodArchive{page: page, config: b.config}, nil
}

func (b *RodBrowser) NewTab(ctx context.Context) (Tab, error) {
	page, err := b.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return &rodTab{page: page, settle: b.config.SettleDelay}, nil
}

func (b *RodBrowser) Close() error {
	err := b.browser.Close()
	b.launcher.Cleanup()
	return err
}

type rodArchive struct {
	page   *rod.Page
	config RodConfig
}

func (a *rodArchive) Listing(ctx context.Context, year, month, day int) (string, error) {
	actionCtx, cancel := context.WithTimeout(ctx, a.config.ActionTimeout)
	defer cancel()

	p := a.page.Context(actionCtx)
	for _, sel := range []struct {
		selector string
		value    int
	}{
		{yearSelector, year},
		{monthSelector, month},
		{daySelector, day},
	} {
		if _, err := p.Eval(selectOptionJS, sel.selector, strconv.Itoa(sel.value)); err != nil {
			return "", fmt.Errorf("select %s=%d: %w", sel.selector, sel.value, err)
		}
	}

	if err := sleep(actionCtx, a.config.SettleDelay); err != nil {
		return "", err
	}

	// Either release items or the "no releases" notice must show up.
	if _, err := p.Race().
		Element(ResultsSelector+" "+releaseItemSelector).
		ElementR(ResultsSelector, noReleasesJSRegex).
		Do(); err != nil {
		return "", fmt.Errorf("wait for results: %w", err)
	}

	results, err := p.Element(ResultsSelector)
	if err != nil {
		return "", fmt.Errorf("find results area: %w", err)
	}
	html, err := results.HTML()
	if err != nil {
		return "", fmt.Errorf("read results area: %w", err)
	}
	return html, nil
}

type rodTab struct {
	page   *rod.Page
	settle time.Duration
}

func (t *rodTab) Navigate(ctx context.Context, url string) error {
	p := t.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return err
	}
	if err := p.WaitLoad(); err != nil {
		return err
	}
	return sleep(ctx, t.settle)
}

func (t *rodTab) AddStyle(ctx context.Context, css string) error {
	return t.page.Context(ctx).AddStyleTag("", css)
}

func (t *rodTab) PrintPDF(ctx context.Context, w io.Writer) error {
	margin := marginInches
	r, err := t.page.Context(ctx).PDF(&proto.PagePrintToPDF{
		PrintBackground: true,
		PaperWidth:      ptr(a4WidthInches),
		PaperHeight:     ptr(a4HeightInches),
		MarginTop:       &margin,
		MarginBottom:    &margin,
		MarginLeft:      &margin,
		MarginRight:     &margin,
	})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, r)
	return err
}

func (t *rodTab) Close() error {
	return t.page.Close()
}

func ptr(v float64) *float64 { return &v }

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
