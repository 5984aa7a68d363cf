package presenter

import (
	"strconv"

	"github.com/Lllllllleong/documentinsights/internal/models"
)

// palette follows a soft qualitative scheme; labels beyond its length wrap around.
var palette = []string{
	"#8dd3c7", "#fb8072", "#80b1d3", "#fdb462", "#b3de69",
	"#bebada", "#fccde5", "#d9d9d9", "#bc80bd", "#ccebc5",
}

// Slice is one arc of the donut chart. Dash and Offset are stroke-dasharray and
// stroke-dashoffset values on a circle whose circumference is 100.
type Slice struct {
	Label   string
	Count   int
	Percent string
	Color   string
	Dash    string
	Offset  string
}

// Chart is the donut view-model for a sentiment distribution.
type Chart struct {
	Total  int
	Slices []Slice
}

// BuildChart lays out the distribution as proportional arcs, starting at twelve o'clock.
// It returns nil when there is nothing to draw.
func BuildChart(d models.Distribution) *Chart {
	ordered := d.Ordered()
	total := 0
	for _, lc := range ordered {
		total += lc.Count
	}
	if total == 0 {
		return nil
	}

	chart := &Chart{Total: total}
	offset := 25.0
	for i, lc := range ordered {
		pct := float64(lc.Count) * 100 / float64(total)
		chart.Slices = append(chart.Slices, Slice{
			Label:   lc.Label,
			Count:   lc.Count,
			Percent: formatFloat(pct, 1),
			Color:   palette[i%len(palette)],
			Dash:    formatFloat(pct, 3) + " " + formatFloat(100-pct, 3),
			Offset:  formatFloat(offset, 3),
		})
		offset -= pct
	}
	return chart
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
