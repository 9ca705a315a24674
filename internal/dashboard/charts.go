package dashboard

import (
	"io"
	"net/http"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/qepting91/caption-importer/internal/storage"
)

const topHashtags = 15

var priceBands = []struct {
	label string
	max   int // exclusive; 0 means unbounded
}{
	{"< ₹1000", 1000},
	{"₹1000-2499", 2500},
	{"₹2500-4999", 5000},
	{"₹5000+", 0},
}

type count struct {
	key string
	n   int
}

func (s *Server) charts(w http.ResponseWriter, _ *http.Request) {
	records := storage.LoadHistory(s.HistoryFile)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	// 1. Category mix
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Draft Category Mix", Subtitle: "all refreshes"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
	)
	catCounts := make(map[string]int)
	for _, r := range records {
		catCounts[r.Draft.Category]++
	}
	var pieItems []opts.PieData
	for _, c := range sortCounts(catCounts) {
		pieItems = append(pieItems, opts.PieData{Name: c.key, Value: c.n})
	}
	pie.AddSeries("Drafts", pieItems)

	// 2. Price bands
	prices := charts.NewBar()
	prices.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Price Bands"}))
	bandCounts := make([]int, len(priceBands))
	for _, r := range records {
		bandCounts[priceBand(r.Draft.Price)]++
	}
	var bandX []string
	var bandY []opts.BarData
	for i, b := range priceBands {
		bandX = append(bandX, b.label)
		bandY = append(bandY, opts.BarData{Value: bandCounts[i]})
	}
	prices.SetXAxis(bandX).AddSeries("Drafts", bandY)

	// 3. Hashtag velocity
	tags := charts.NewBar()
	tags.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Hashtag Velocity"}))
	tagCounts := make(map[string]int)
	for _, r := range records {
		for _, h := range r.Draft.Hashtags {
			tagCounts[h]++
		}
	}
	var tagX []string
	var tagY []opts.BarData
	for i, c := range sortCounts(tagCounts) {
		if i == topHashtags {
			break
		}
		tagX = append(tagX, c.key)
		tagY = append(tagY, opts.BarData{Value: c.n})
	}
	tags.SetXAxis(tagX).AddSeries("Mentions", tagY)

	for _, chart := range []interface {
		Render(w io.Writer) error
	}{pie, prices, tags} {
		if err := chart.Render(w); err != nil {
			s.logger().Error("Chart render failed", "err", err)
			return
		}
	}
}

func priceBand(price int) int {
	for i, b := range priceBands {
		if b.max == 0 || price < b.max {
			return i
		}
	}
	return len(priceBands) - 1
}

// sortCounts orders by count descending, then key, so charts are stable.
func sortCounts(m map[string]int) []count {
	out := make([]count, 0, len(m))
	for k, n := range m {
		out = append(out, count{k, n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].n != out[j].n {
			return out[i].n > out[j].n
		}
		return out[i].key < out[j].key
	})
	return out
}
