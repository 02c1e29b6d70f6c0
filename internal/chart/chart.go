// Package chart renders weekly progress charts as PNG images.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"

	"level_checkin_bot/internal/domain"
)

// ErrNoData indicates that no series carried a plottable point.
var ErrNoData = errors.New("no data points to chart")

// Series is one user's line on a week chart. Values align with the date
// labels passed to RenderWeek; nil marks a day without a valid entry.
type Series struct {
	Name   string
	Values []*int
}

// RenderWeek draws one line per series across the given dates and returns the
// encoded PNG. Days without values are skipped rather than drawn as zero.
func RenderWeek(title string, dates []string, series []Series) (*bytes.Buffer, error) {
	if len(dates) == 0 {
		return nil, errors.New("dates are required")
	}

	parsed := make([]time.Time, len(dates))
	for i, date := range dates {
		t, err := time.Parse(domain.DateFormat, date)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", date, err)
		}
		parsed[i] = t
	}

	var lines []gochart.Series
	minLevel, maxLevel := 0.0, 0.0
	havePoint := false

	for _, s := range series {
		var xs []time.Time
		var ys []float64
		for i, v := range s.Values {
			if i >= len(parsed) || v == nil {
				continue
			}
			y := float64(*v)
			xs = append(xs, parsed[i])
			ys = append(ys, y)
			if !havePoint || y < minLevel {
				minLevel = y
			}
			if !havePoint || y > maxLevel {
				maxLevel = y
			}
			havePoint = true
		}
		if len(xs) == 0 {
			continue
		}

		lines = append(lines, gochart.TimeSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
		})
	}

	if !havePoint {
		return nil, ErrNoData
	}

	// Pad the Y range so a flat line does not collapse the axis.
	pad := (maxLevel - minLevel) * 0.1
	if pad < 50 {
		pad = 50
	}

	graph := gochart.Chart{
		Title:  title,
		Width:  900,
		Height: 450,
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeDateValueFormatter,
			Range: &gochart.ContinuousRange{
				Min: float64(parsed[0].UnixNano()),
				Max: float64(parsed[len(parsed)-1].Add(12 * time.Hour).UnixNano()),
			},
		},
		YAxis: gochart.YAxis{
			Name: "Level",
			Range: &gochart.ContinuousRange{
				Min: minLevel - pad,
				Max: maxLevel + pad,
			},
		},
		Series: lines,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	buf := &bytes.Buffer{}
	if err := graph.Render(gochart.PNG, buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}

	return buf, nil
}
