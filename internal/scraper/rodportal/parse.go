package rodportal

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"productspace/internal/scraper"
)

const (
	tableSelector    = "table.MuiTable-root"
	dialogSelector   = `div[role="dialog"]`
	popoverSelector  = "div.MuiPopover-paper"
	downloadIconPath = "M5 20h14v-2H5zM19 9h-4V3H9v6H5l7 7z"
	downloadIcon     = `svg path[d="` + downloadIconPath + `"]`
	closeIcon        = `button svg[viewBox="0 0 24 24"] path[d*="19 6.41"]`
	nextIcon         = `button[aria-label*="next"] svg path[d*="10 6"]`
	disabledClass    = "Mui-disabled"
	minRowCells      = 7
)

// Classifications kept from a row's chips; other chips are ignored.
var targetClassifications = map[string]bool{
	"HS12": true, "HS92": true, "SITC": true, "Services Unilateral": true,
}

var digits = regexp.MustCompile(`\d+`)

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// cell normalizes a table cell; the portal prints N/A for unknown values.
func cell(s *goquery.Selection) string {
	t := text(s)
	if strings.EqualFold(t, "N/A") {
		return ""
	}
	return t
}

func classification(td *goquery.Selection) string {
	var chips []string
	collect := func(sel string) {
		td.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if t := text(s); t != "" {
				chips = append(chips, t)
			}
		})
	}
	collect(".MuiChip-label span")
	if len(chips) == 0 {
		collect(".MuiChip-root")
	}

	var kept []string
	for _, c := range chips {
		if targetClassifications[c] {
			kept = append(kept, c)
		}
	}
	if len(kept) > 0 {
		return strings.Join(kept, ", ")
	}
	return cell(td)
}

func productLevel(raw string) *int {
	m := digits.FindString(raw)
	if m == "" {
		return nil
	}
	v, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &v
}

func complexityData(raw string) *bool {
	v := strings.ToLower(raw)
	var b bool
	switch {
	case raw == "":
		return nil
	case strings.HasPrefix(v, "yes"):
		b = true
	case strings.HasPrefix(v, "no"):
		b = false
	default:
		return nil
	}
	return &b
}

func hasDownloadButton(s *goquery.Selection) bool {
	if s.Find(downloadIcon).Length() > 0 {
		return true
	}
	found := false
	s.Find("button").EachWithBreak(func(_ int, b *goquery.Selection) bool {
		found = strings.Contains(b.Text(), "Download")
		return !found
	})
	return found
}

// ParseRows reads the dataset rows of the portal table. Index is the 1-based
// position of the row in the table body. Rows with too few cells or no
// download control are left out.
func ParseRows(table *goquery.Selection) []scraper.Row {
	var rows []scraper.Row
	table.Find("tbody tr").Each(func(i int, tr *goquery.Selection) {
		tds := tr.ChildrenFiltered("td")
		if tds.Length() < minRowCells {
			return
		}
		if !hasDownloadButton(tds.Eq(6)) {
			return
		}
		rows = append(rows, scraper.Row{
			Index: i + 1,
			Dataset: scraper.Dataset{
				Name:           cell(tds.Eq(0)),
				DataType:       cell(tds.Eq(1)),
				Classification: classification(tds.Eq(2)),
				ProductLevel:   productLevel(cell(tds.Eq(3))),
				Years:          cell(tds.Eq(4)),
				ComplexityData: complexityData(cell(tds.Eq(5))),
			},
		})
	})
	return rows
}

// ParseDetail reads file facts, the feature table and whether a download
// button is offered from a dataset dialog.
func ParseDetail(modal *goquery.Selection) *scraper.Detail {
	d := &scraper.Detail{Filename: "unknown"}

	modal.Find("p.MuiTypography-body1").Each(func(_ int, p *goquery.Selection) {
		t := strings.TrimSpace(p.Text())
		switch {
		case strings.Contains(t, "File Name:"):
			d.Filename = after(t, "File Name:")
		case strings.Contains(t, "File Size:"):
			d.FileSize = after(t, "File Size:")
		case strings.Contains(t, "Last Update:"):
			d.LastUpdate = after(t, "Last Update:")
		}
	})

	table := modal.Find(tableSelector).First()
	table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
		d.Features.Header = append(d.Features.Header, text(th))
	})
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		var row []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			row = append(row, text(td))
		})
		if len(row) > 0 {
			d.Features.Rows = append(d.Features.Rows, row)
		}
	})

	d.CanDownload = hasDownloadButton(modal) || modal.Find("div[aria-labelledby] button").Length() > 0
	return d
}

func after(s, label string) string {
	_, v, _ := strings.Cut(s, label)
	return strings.TrimSpace(v)
}
