package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/svitlo/core/schedule"
)

var kyiv = time.FixedZone("EET", 2*3600)

func dayTable(date string, classes []string) string {
	var b strings.Builder
	b.WriteString(`<table class="graph"><tbody><tr><td>` + date + `</td>`)
	for h := 0; h < 24; h++ {
		fmt.Fprintf(&b, "<td>%02d</td>", h)
	}
	b.WriteString(`</tr><tr><td>Черга</td>`)
	for _, c := range classes {
		fmt.Fprintf(&b, `<td class="%s"></td>`, c)
	}
	b.WriteString(`</tr></tbody></table>`)
	return b.String()
}

func page(meta, queue string, tables ...string) string {
	return `<html><head>` + meta + `</head><body>` +
		`<div id="chergra1.1">` + dayTable("01.01.2026", repeat("off", 24)) + `</div>` +
		`<div id="chergra` + queue + `">` + strings.Join(tables, "") + `</div></body></html>`
}

func repeat(c string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = c
	}
	return out
}

func sampleClasses() []string {
	c := repeat("cell on", 24)
	c[0] = "cell off"
	c[5] = "cell f4"
	c[22] = "f5 cell"
	return c
}

func TestExtract(t *testing.T) {
	html := page(`<meta name="last-modified" content="2026-10-14 08:30:00">`, "4.1",
		dayTable("14.10.2026", sampleClasses()),
		dayTable(" 15.10.2026 ", repeat("on", 24)))

	doc, err := Extract(strings.NewReader(html), "4.1", kyiv)
	require.NoError(t, err)
	require.Len(t, doc.Tables, 2)
	assert.Equal(t, "14.10.2026", doc.Tables[0].DateLabel)
	assert.Equal(t, "15.10.2026", doc.Tables[1].DateLabel)
	require.Len(t, doc.Tables[0].Cells, 24)
	assert.Equal(t, "cell off", doc.Tables[0].Cells[0])
	assert.Equal(t, "2026-10-14T06:30:00Z", doc.LastModified)

	tl, err := schedule.ParseSchedule(doc.Tables, kyiv)
	require.NoError(t, err)
	assert.Equal(t, schedule.ClassF4, tl.Today.Hours[5])
	assert.Equal(t, schedule.ClassF5, tl.Today.Hours[22])
	require.NotNil(t, tl.Tomorrow)
}

func TestExtractLastModified(t *testing.T) {
	cases := map[string]string{
		`<meta name="last-modified" content="yesterday">`:           "yesterday",
		`<meta name="last-modified" content="2026-10-14 bad:value">`: "2026-10-14 bad:value",
		`<meta name="last-modified" content="2026-10-14T09:00">`:    "2026-10-14T07:00:00Z",
		``: "",
	}
	for meta, want := range cases {
		doc, err := Extract(strings.NewReader(page(meta, "2", dayTable("14.10.2026", repeat("on", 24)))), "2", kyiv)
		require.NoError(t, err)
		assert.Equal(t, want, doc.LastModified, meta)
	}
}

func TestExtractStructureErrors(t *testing.T) {
	cases := map[string]string{
		"missing queue": page("", "3.2", dayTable("14.10.2026", repeat("on", 24))),
		"no tables":     page("", "4.1", "<p>nothing</p>"),
		"one row":       page("", "4.1", `<table class="graph"><tbody><tr><td>14.10.2026</td></tr></tbody></table>`),
	}
	for name, html := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Extract(strings.NewReader(html), "4.1", kyiv)
			assert.ErrorIs(t, err, schedule.ErrStructure)
		})
	}
}

func TestExtractIgnoresTablesAfterTomorrow(t *testing.T) {
	html := page("", "4.1",
		dayTable("14.10.2026", sampleClasses()),
		dayTable("15.10.2026", repeat("on", 24)),
		`<table class="graph"><tbody><tr><td>16.10.2026</td></tr></tbody></table>`)
	doc, err := Extract(strings.NewReader(html), "4.1", kyiv)
	require.NoError(t, err)
	require.Len(t, doc.Tables, 2)
	assert.Equal(t, "15.10.2026", doc.Tables[1].DateLabel)
}

func TestFetcher(t *testing.T) {
	var gotUA, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(page("", "4.1", dayTable("14.10.2026", sampleClasses()))))
	}))
	defer srv.Close()

	f := NewFetcher(Config{BaseURL: srv.URL + "/", Region: "kiev", Queue: "4.1"}, kyiv)
	assert.Equal(t, srv.URL+"/kiev", f.URL())
	doc, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, doc.Tables, 1)
	assert.Equal(t, "/kiev", gotPath)
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestFetcherErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewFetcher(Config{BaseURL: srv.URL, Region: "kiev", Queue: "1"}, kyiv).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrFetch)
	assert.ErrorContains(t, err, "503")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewFetcher(Config{BaseURL: srv.URL, Region: "kiev", Queue: "1"}, kyiv).Fetch(ctx)
	assert.True(t, errors.Is(err, ErrFetch))
}

func TestFetcherTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := NewFetcher(Config{BaseURL: srv.URL, Region: "kiev", Queue: "1"}, kyiv)
	f.client.Timeout = 50 * time.Millisecond
	_, err := f.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrFetch)
}
