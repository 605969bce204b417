package source

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/kilianp07/svitlo/core/schedule"
)

// lastModifiedLayout is the stamp format of meta[name=last-modified].
const lastModifiedLayout = "2006-01-02 15:04:05"

// maxTables is the number of day tables read per queue.
const maxTables = 2

// Extract reads the page and returns the date label and hour cell classes
// of every day table under div#chergra<queue>.
func Extract(r io.Reader, queue string, loc *time.Location) (schedule.Document, error) {
	page, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return schedule.Document{}, fmt.Errorf("%w: %v", schedule.ErrStructure, err)
	}
	// Queue ids contain a dot, so match the id attribute literally.
	tab := page.Find(fmt.Sprintf(`div[id="chergra%s"]`, queue)).First()
	if tab.Length() == 0 {
		return schedule.Document{}, fmt.Errorf("%w: queue %s not found (div#chergra%s)", schedule.ErrStructure, queue, queue)
	}
	tables := tab.Find("table.graph")
	if tables.Length() == 0 {
		return schedule.Document{}, fmt.Errorf("%w: no tables for queue %s", schedule.ErrStructure, queue)
	}

	doc := schedule.Document{LastModified: lastModified(page, loc)}
	var tableErr error
	// Only today and tomorrow are read; later tables are not validated.
	tables.Slice(0, min(maxTables, tables.Length())).EachWithBreak(func(i int, t *goquery.Selection) bool {
		tbl, err := extractTable(t)
		if err != nil {
			tableErr = fmt.Errorf("table %d: %w", i, err)
			return false
		}
		doc.Tables = append(doc.Tables, tbl)
		return true
	})
	if tableErr != nil {
		return schedule.Document{}, tableErr
	}
	return doc, nil
}

func extractTable(t *goquery.Selection) (schedule.Table, error) {
	rows := t.Find("tbody tr")
	if rows.Length() < 2 {
		return schedule.Table{}, fmt.Errorf("%w: need 2 rows, got %d", schedule.ErrStructure, rows.Length())
	}
	header := rows.Eq(0).Find("td")
	if header.Length() == 0 {
		return schedule.Table{}, fmt.Errorf("%w: empty header row", schedule.ErrStructure)
	}
	tbl := schedule.Table{DateLabel: strings.TrimSpace(header.First().Text())}
	rows.Eq(1).Find("td").Each(func(i int, td *goquery.Selection) {
		if i == 0 {
			return
		}
		cls, _ := td.Attr("class")
		tbl.Cells = append(tbl.Cells, cls)
	})
	return tbl, nil
}

// lastModified returns the page stamp. A local date-time is converted to
// UTC RFC 3339; anything else is kept as published.
func lastModified(page *goquery.Document, loc *time.Location) string {
	raw, ok := page.Find(`meta[name="last-modified"]`).First().Attr("content")
	if !ok {
		return ""
	}
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "-") || !strings.Contains(raw, ":") {
		return raw
	}
	for _, layout := range []string{lastModifiedLayout, "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	return raw
}
