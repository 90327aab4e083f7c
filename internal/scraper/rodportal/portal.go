// Package rodportal drives the Atlas data-downloads page in a Chromium
// browser with go-rod. Markup is parsed with goquery.
package rodportal

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"productspace/internal/scraper"
)

type Options struct {
	URL         string
	DownloadDir string
	Headless    bool
	// Timeout bounds every wait for an element.
	Timeout time.Duration
	// Bin is a browser binary; empty lets the launcher find or fetch one.
	Bin string
}

type Portal struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	modal    *rod.Element
	timeout  time.Duration
	log      *zap.Logger
}

var _ scraper.Portal = (*Portal)(nil)

// Launch starts the browser, routes downloads into opts.DownloadDir and opens
// the portal page.
func Launch(ctx context.Context, opts Options, log *zap.Logger) (*Portal, error) {
	dir, err := filepath.Abs(opts.DownloadDir)
	if err != nil {
		return nil, fmt.Errorf("rodportal: download dir: %w", err)
	}

	l := launcher.New().
		Context(ctx).
		Headless(opts.Headless).
		Set("window-size", "1920,1080")
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("rodportal: launch browser: %w", err)
	}

	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("rodportal: connect: %w", err)
	}

	p := &Portal{launcher: l, browser: browser, timeout: opts.Timeout, log: log}

	err = proto.BrowserSetDownloadBehavior{
		Behavior:      proto.BrowserSetDownloadBehaviorBehaviorAllow,
		DownloadPath:  dir,
		EventsEnabled: true,
	}.Call(browser)
	if err != nil {
		p.Shutdown()
		return nil, fmt.Errorf("rodportal: download behavior: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: opts.URL})
	if err != nil {
		p.Shutdown()
		return nil, fmt.Errorf("rodportal: open %s: %w", opts.URL, err)
	}
	p.page = page
	if err := p.pg(ctx).WaitLoad(); err != nil {
		p.Shutdown()
		return nil, fmt.Errorf("rodportal: load %s: %w", opts.URL, err)
	}
	if _, err := p.pg(ctx).Element(tableSelector); err != nil {
		p.Shutdown()
		return nil, fmt.Errorf("rodportal: dataset table: %w", err)
	}
	log.Info("portal opened", zap.String("url", opts.URL), zap.String("download_dir", dir))
	return p, nil
}

func (p *Portal) Shutdown() error {
	var err error
	if p.browser != nil {
		err = p.browser.Close()
	}
	if p.launcher != nil {
		p.launcher.Kill()
		p.launcher.Cleanup()
	}
	return err
}

func (p *Portal) pg(ctx context.Context) *rod.Page {
	page := p.page.Context(ctx)
	if p.timeout > 0 {
		page = page.Timeout(p.timeout)
	}
	return page
}

func click(el *rod.Element) error {
	_, err := el.Eval(`() => this.click()`)
	return err
}

// grandparent climbs from an icon path to the button that holds its svg.
func grandparent(el *rod.Element) (*rod.Element, error) {
	svg, err := el.Parent()
	if err != nil {
		return nil, err
	}
	return svg.Parent()
}

func selection(el *rod.Element) (*goquery.Selection, error) {
	html, err := el.HTML()
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return doc.Selection, nil
}

func (p *Portal) ApplyFilter(ctx context.Context, column, value string) error {
	page := p.pg(ctx)

	header, err := page.ElementX(fmt.Sprintf("//th[.//span[text()='%s']]", column))
	if err != nil {
		return fmt.Errorf("rodportal: column %q: %w", column, err)
	}
	button, err := header.Element("button")
	if err != nil {
		return fmt.Errorf("rodportal: filter button of %q: %w", column, err)
	}
	if err := click(button); err != nil {
		return err
	}

	popover, err := page.Element(popoverSelector)
	if err != nil {
		return fmt.Errorf("rodportal: filter popover: %w", err)
	}
	label, err := popover.ElementX(fmt.Sprintf(".//label[.//span[contains(text(), '%s')]]", value))
	if err != nil {
		return fmt.Errorf("rodportal: filter value %q: %w", value, err)
	}
	if err := click(label); err != nil {
		return err
	}

	// clicking the page title dismisses the popover
	h1, err := page.Element("h1")
	if err != nil {
		return err
	}
	return click(h1)
}

func (p *Portal) Rows(ctx context.Context) ([]scraper.Row, error) {
	table, err := p.pg(ctx).Element(tableSelector)
	if err != nil {
		return nil, fmt.Errorf("rodportal: dataset table: %w", err)
	}
	sel, err := selection(table)
	if err != nil {
		return nil, fmt.Errorf("rodportal: dataset table: %w", err)
	}
	return ParseRows(sel), nil
}

func (p *Portal) rowButton(page *rod.Page, index int) (*rod.Element, error) {
	trs, err := page.Elements(tableSelector + " tbody tr")
	if err != nil {
		return nil, err
	}
	if index < 1 || index > len(trs) {
		return nil, fmt.Errorf("rodportal: row %d not on page", index)
	}
	tds, err := trs[index-1].Elements("td")
	if err != nil {
		return nil, err
	}
	if len(tds) < minRowCells {
		return nil, fmt.Errorf("rodportal: row %d has %d cells", index, len(tds))
	}

	if icons, err := tds[6].Elements(downloadIcon); err == nil && len(icons) > 0 {
		return grandparent(icons.First())
	}
	return tds[6].ElementR("button", "Download")
}

func (p *Portal) Open(ctx context.Context, row scraper.Row) (*scraper.Detail, error) {
	page := p.pg(ctx)

	button, err := p.rowButton(page, row.Index)
	if err != nil {
		return nil, err
	}
	if err := click(button); err != nil {
		return nil, err
	}

	modal, err := page.Element(dialogSelector)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", scraper.ErrNoDetail, row.Dataset.Name, err)
	}
	p.modal = modal

	sel, err := selection(modal)
	if err != nil {
		return nil, fmt.Errorf("rodportal: read dialog: %w", err)
	}
	return ParseDetail(sel), nil
}

func (p *Portal) Download(ctx context.Context) error {
	if p.modal == nil {
		return errors.New("rodportal: no dataset dialog open")
	}
	modal := p.modal.Context(ctx)
	if p.timeout > 0 {
		modal = modal.Timeout(p.timeout)
	}

	button, err := modal.ElementR("button", "Download")
	if err != nil {
		button, err = modal.Element("div[aria-labelledby] button")
		if err != nil {
			return fmt.Errorf("rodportal: download button: %w", err)
		}
	}
	return click(button)
}

// Close dismisses the open dialog, or any dialog left on the page, and waits
// for it to go away.
func (p *Portal) Close(ctx context.Context) error {
	page := p.pg(ctx)
	modal := p.modal
	p.modal = nil

	if modal == nil {
		has, el, err := page.Has(dialogSelector)
		if err != nil || !has {
			return err
		}
		modal = el
	}

	modal = modal.Context(ctx)
	if p.timeout > 0 {
		modal = modal.Timeout(p.timeout)
	}
	icon, err := modal.Element(closeIcon)
	if err != nil {
		return fmt.Errorf("rodportal: close button: %w", err)
	}
	button, err := grandparent(icon)
	if err != nil {
		return err
	}
	if err := click(button); err != nil {
		return err
	}
	return p.waitGone(ctx, dialogSelector)
}

func (p *Portal) waitGone(ctx context.Context, selector string) error {
	deadline := time.Now().Add(p.timeout)
	for {
		has, _, err := p.page.Context(ctx).Has(selector)
		if err != nil {
			return err
		}
		if !has {
			return nil
		}
		if p.timeout > 0 && time.Now().After(deadline) {
			return fmt.Errorf("rodportal: %s still visible after %s", selector, p.timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

func (p *Portal) NextPage(ctx context.Context) (bool, error) {
	page := p.pg(ctx)

	icons, err := page.Elements(nextIcon)
	if err != nil {
		return false, err
	}
	if len(icons) == 0 {
		return false, nil
	}
	button, err := grandparent(icons.First())
	if err != nil {
		return false, err
	}
	class, err := button.Attribute("class")
	if err != nil {
		return false, err
	}
	if class != nil && strings.Contains(*class, disabledClass) {
		return false, nil
	}
	if err := click(button); err != nil {
		return false, err
	}

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-time.After(time.Second):
	}
	if _, err := page.Element(tableSelector); err != nil {
		return false, err
	}
	return true, nil
}
