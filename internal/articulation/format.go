package articulation

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"procintel/internal/health"
	"procintel/internal/types"
)

const dateLayout = "02/01/2006"

// Percent formats n/d as a one-decimal percentage, or "0%" when d is zero.
func Percent(n, d int) string {
	if d == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(n)/float64(d)*100)
}

// ratioPercent formats a precomputed ratio.
func ratioPercent(r float64) string {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", r*100)
}

func days(avg float64) int {
	return int(math.Round(avg))
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// aged pairs a record with its elapsed days.
type aged struct {
	rec  types.ProcessRecord
	days int
}

// byAge returns open records matching keep, oldest first. Ties keep input
// order.
func byAge(c *health.Classifier, records []types.ProcessRecord, keep func(days int) bool) []aged {
	var out []aged
	for _, r := range records {
		d := c.Elapsed(r)
		if keep(d) {
			out = append(out, aged{rec: r, days: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].days > out[j].days
	})
	return out
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func writeAgedList(sb *strings.Builder, items []aged, withResponsible bool) {
	for _, a := range items {
		if withResponsible {
			sb.WriteString(fmt.Sprintf("- %s - %s - %s (%d dias)\n", a.rec.SEI, a.rec.Name, a.rec.Responsible, a.days))
		} else {
			sb.WriteString(fmt.Sprintf("- %s - %s (%d dias)\n", a.rec.SEI, a.rec.Name, a.days))
		}
	}
}
