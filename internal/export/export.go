// Package export turns a finished differentiation report into shareable
// artifacts: a standalone HTML document and a print-ready PDF rendered
// through headless Chromium.
package export

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Meta carries the header fields rendered above the report body.
type Meta struct {
	StartupIdea     string
	GeneratedAt     time.Time
	CompetitorCount int
}

// BuildHTML converts the markdown report into a complete standalone HTML
// document with inline styling and a metadata header.
func BuildHTML(report string, meta Meta) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(report), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}

	var metaHTML strings.Builder
	if idea := strings.TrimSpace(meta.StartupIdea); idea != "" {
		metaHTML.WriteString("<div><strong>Startup idea:</strong> " + html.EscapeString(idea) + "</div>")
	}
	if !meta.GeneratedAt.IsZero() {
		metaHTML.WriteString("<div><strong>Generated:</strong> " +
			html.EscapeString(meta.GeneratedAt.UTC().Format("January 2, 2006 at 15:04 MST")) + "</div>")
	}
	badgeHTML := ""
	if meta.CompetitorCount > 0 {
		badgeHTML = fmt.Sprintf("<span class='report-badge'>%d competitors analyzed</span>", meta.CompetitorCount)
	}

	return "<!doctype html><html><head><meta charset='utf-8'><title>Differentiation Report</title>" +
		"<style>" + reportCSS + "</style></head><body>" +
		"<div class='report-wrap'><div class='report-header'>" +
		"<div class='report-meta'>" + metaHTML.String() + "</div>" +
		"<div class='report-badges'>" + badgeHTML + "</div>" +
		"</div><div class='report-html'>" + content.String() + "</div></div>" +
		"</body></html>", nil
}

const reportCSS = `
html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;}
body{background:#fff;font-family:Georgia,'Times New Roman',serif;color:#1c1917;padding:0.6rem;line-height:1.5;}
.report-wrap{max-width:900px;margin:0 auto;border-left:3px solid #1e40af;border-right:3px solid #1e40af;padding:0 0.65rem;}
.report-header{border-bottom:2px solid #e7e5e4;padding:0.5rem 0;margin-bottom:0.75rem;}
.report-meta{color:#44403c;font-size:0.85rem;}
.report-meta strong{color:#1c1917;}
.report-badge{display:inline-block;background:#dbeafe;color:#1e3a8a;border:1px solid #93c5fd;border-radius:4px;padding:0.15rem 0.5rem;font-size:0.75rem;margin-top:0.35rem;}
.report-html h1,.report-html h2{font-family:Helvetica,Arial,sans-serif;letter-spacing:0.01em;}
.report-html h2{border-bottom:1px solid #e7e5e4;padding-bottom:0.2rem;}
.report-html a{color:#1d4ed8;text-decoration:underline;}
.report-html table{width:100%;border-collapse:collapse;border:1px solid #a8a29e;font-size:0.8rem;}
.report-html th,.report-html td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;vertical-align:top;}
.report-html thead th{background:#f1f5f9;font-weight:700;}
@media print{ @page{size:auto;margin:12mm;} body{padding:0;} .report-wrap{max-width:none;} }
`

// PDFRenderer prints HTML documents to PDF using a headless Chromium.
type PDFRenderer struct {
	chromePath string
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{chromePath: detectChromePath()}
}

func (r *PDFRenderer) Render(ctx context.Context, htmlDoc string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			footer := `<div style="width:100%;text-align:center;font-size:9px;color:#666;padding-right:8px;">` +
				`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<div></div>`).
				WithFooterTemplate(footer).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.5).
				WithMarginBottom(0.75).
				WithMarginLeft(0.45).
				WithMarginRight(0.45).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = out
			return nil
		}),
	); err != nil {
		return nil, err
	}
	return pdf, nil
}

func detectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
