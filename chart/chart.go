// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chart draws PNG charts of flattened benchmark rows.
package chart

import (
	"context"
	"fmt"
	"image/color"
	"path"
	"sort"
	"strconv"

	"golang.org/x/benchfront/dataset"
	"golang.org/x/benchfront/metric"
	"golang.org/x/benchfront/pareto"
	"golang.org/x/benchfront/runkey"
	"golang.org/x/benchfront/sink"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Plotter draws charts with gonum/plot. The zero value is ready to
// use.
type Plotter struct {
	// Width and Height are the size of a single chart. They
	// default to 6x4 inches.
	Width, Height vg.Length
	// DPI defaults to 200.
	DPI int
}

func (p *Plotter) size() (vg.Length, vg.Length) {
	w, h := p.Width, p.Height
	if w == 0 {
		w = 6 * vg.Inch
	}
	if h == 0 {
		h = 4 * vg.Inch
	}
	return w, h
}

func (p *Plotter) dpi() int {
	if p.DPI == 0 {
		return 200
	}
	return p.DPI
}

// Plot writes charts for rows under dir in fs and returns their
// names relative to dir:
//
//   - <y>_vs_<x>.png, a scatter of the primary maximized objective
//     against the primary minimized one,
//   - pareto_frontier.png, the same scatter with the frontier
//     highlighted,
//   - for keys with several dimensions, <y>_vs_<first>_by_<last>.png
//     with one line per value of the last dimension,
//   - for single-dimension keys, metrics_vs_<dim>.png with one panel
//     per metric.
func (p *Plotter) Plot(ctx context.Context, fs sink.FS, dir string, rows []dataset.Row, objs pareto.Objectives) ([]string, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	schema := rows[0].Key.Schema()
	ym, xm := axes(objs)

	type chart struct {
		name string
		make func() ([][]*plot.Plot, error)
	}
	charts := []chart{
		{fmt.Sprintf("%s_vs_%s.png", ym.Info().Column, xm.Info().Column), func() ([][]*plot.Plot, error) {
			pl, err := scatter(rows, xm, ym, false)
			return single(pl), err
		}},
		{"pareto_frontier.png", func() ([][]*plot.Plot, error) {
			pl, err := scatter(rows, xm, ym, true)
			return single(pl), err
		}},
	}
	dims := schema.Dims()
	if len(dims) > 1 {
		charts = append(charts, chart{
			fmt.Sprintf("%s_vs_%s_by_%s.png", ym.Info().Column, dims[0], dims[len(dims)-1]),
			func() ([][]*plot.Plot, error) {
				pl, err := byDim(rows, schema, ym)
				return single(pl), err
			},
		})
	} else {
		charts = append(charts, chart{
			fmt.Sprintf("metrics_vs_%s.png", dims[0]),
			func() ([][]*plot.Plot, error) { return metricGrid(rows, dims[0]) },
		})
	}

	var names []string
	for _, c := range charts {
		if err := ctx.Err(); err != nil {
			return names, err
		}
		plots, err := c.make()
		if err != nil {
			return names, fmt.Errorf("%s: %w", c.name, err)
		}
		if plots == nil {
			continue
		}
		if err := p.write(ctx, fs, path.Join(dir, c.name), plots); err != nil {
			return names, fmt.Errorf("%s: %w", c.name, err)
		}
		names = append(names, c.name)
	}
	return names, nil
}

// axes returns the metrics for the Y and X axes of the scatter plots.
func axes(objs pareto.Objectives) (y, x metric.Metric) {
	y, x = metric.Throughput, metric.AvgLatency
	if o, ok := objs.Primary(metric.Maximize); ok {
		y = o.Metric
	}
	if o, ok := objs.Primary(metric.Minimize); ok {
		x = o.Metric
	}
	return y, x
}

func single(pl *plot.Plot) [][]*plot.Plot {
	if pl == nil {
		return nil
	}
	return [][]*plot.Plot{{pl}}
}

// write renders plots, a grid of charts, as one PNG.
func (p *Plotter) write(ctx context.Context, fs sink.FS, name string, plots [][]*plot.Plot) error {
	w, h := p.size()
	cols := 0
	for _, row := range plots {
		if len(row) > cols {
			cols = len(row)
		}
	}
	img := vgimg.NewWith(
		vgimg.UseWH(w*vg.Length(cols), h*vg.Length(len(plots))),
		vgimg.UseDPI(p.dpi()),
		vgimg.UseBackgroundColor(color.White))
	dc := draw.New(img)
	if len(plots) == 1 && cols == 1 {
		plots[0][0].Draw(dc)
	} else {
		tiles := draw.Tiles{
			Rows: len(plots), Cols: cols,
			PadX: vg.Millimeter * 4, PadY: vg.Millimeter * 4,
			PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2,
			PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2,
		}
		canvases := plot.Align(plots, tiles, dc)
		for j, row := range plots {
			for i, pl := range row {
				if pl != nil {
					pl.Draw(canvases[j][i])
				}
			}
		}
	}

	out, err := fs.NewWriter(ctx, name, "image/png")
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func newPlot(title, x, y string) *plot.Plot {
	pl := plot.New()
	pl.Title.Text = title
	pl.X.Label.Text = x
	pl.Y.Label.Text = y
	grid := plotter.NewGrid()
	grid.Vertical.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	grid.Horizontal.Dashes = grid.Vertical.Dashes
	pl.Add(grid)
	return pl
}

// colors returns n distinguishable colors.
func colors(n int) ([]color.Color, error) {
	k := n
	if k < 3 {
		k = 3
	}
	if k > 12 {
		k = 12
	}
	pal, err := brewer.GetPalette(brewer.TypeQualitative, "Paired", k)
	if err != nil {
		return nil, err
	}
	base := pal.Colors()
	out := make([]color.Color, n)
	for i := range out {
		out[i] = base[i%len(base)]
	}
	return out, nil
}

var (
	faded     = color.Gray{Y: 180}
	highlight = color.NRGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	neutral   = color.NRGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
)

// scatter plots ym against xm for rows with both metrics finite. If
// frontier is set, frontier rows are highlighted and joined by a line.
// It returns nil if no row has both metrics.
func scatter(rows []dataset.Row, xm, ym metric.Metric, frontier bool) (*plot.Plot, error) {
	var all, front plotter.XYs
	for _, r := range rows {
		if !r.Metrics.Finite(xm, ym) {
			continue
		}
		pt := plotter.XY{X: r.Metrics[xm], Y: r.Metrics[ym]}
		all = append(all, pt)
		if r.OnFrontier {
			front = append(front, pt)
		}
	}
	if len(all) == 0 {
		return nil, nil
	}

	title := ym.Info().Label + " vs " + xm.Info().Label
	if frontier {
		title = "Pareto-Optimal Configurations"
	}
	pl := newPlot(title, xm.Info().Label, ym.Info().Label)

	s, err := plotter.NewScatter(all)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(2.5)
	s.GlyphStyle.Color = neutral
	if !frontier {
		pl.Add(s)
		return pl, nil
	}

	s.GlyphStyle.Color = faded
	pl.Add(s)
	pl.Legend.Add("all configurations", s)
	if len(front) > 0 {
		sort.Slice(front, func(i, j int) bool { return front[i].X < front[j].X })
		line, points, err := plotter.NewLinePoints(front)
		if err != nil {
			return nil, err
		}
		line.LineStyle.Color = highlight
		line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		points.GlyphStyle.Shape = draw.CircleGlyph{}
		points.GlyphStyle.Radius = vg.Points(3.5)
		points.GlyphStyle.Color = highlight
		pl.Add(line, points)
		pl.Legend.Add("Pareto frontier", line, points)
	}
	pl.Legend.Top = true
	return pl, nil
}

// byDim plots ym against the first key dimension with one line per
// value of the last key dimension. Where other dimensions vary, each
// point shows the best value among them.
func byDim(rows []dataset.Row, schema *runkey.Schema, ym metric.Metric) (*plot.Plot, error) {
	dims := schema.Dims()
	first, last := 0, len(dims)-1
	dir := ym.Info().Dir

	type cell struct{ x, series int }
	best := make(map[cell]float64)
	for _, r := range rows {
		if !r.Metrics.Finite(ym) {
			continue
		}
		c := cell{r.Key.Value(first), r.Key.Value(last)}
		v := r.Metrics[ym]
		if old, ok := best[c]; !ok || dir.Better(v, old) {
			best[c] = v
		}
	}
	if len(best) == 0 {
		return nil, nil
	}

	series := make(map[int]plotter.XYs)
	for c, v := range best {
		series[c.series] = append(series[c.series], plotter.XY{X: float64(c.x), Y: v})
	}
	keys := make([]int, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	cols, err := colors(len(keys))
	if err != nil {
		return nil, err
	}

	pl := newPlot(fmt.Sprintf("%s vs %s (by %s)", ym.Info().Label, dims[first], dims[last]), dims[first], ym.Info().Label)
	var xs []float64
	for i, k := range keys {
		pts := series[k]
		sort.Slice(pts, func(a, b int) bool { return pts[a].X < pts[b].X })
		for _, pt := range pts {
			xs = append(xs, pt.X)
		}
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, err
		}
		line.LineStyle.Color = cols[i]
		points.GlyphStyle.Shape = draw.CircleGlyph{}
		points.GlyphStyle.Color = cols[i]
		pl.Add(line, points)
		pl.Legend.Add(fmt.Sprintf("%s=%d", dims[last], k), line, points)
	}
	pl.Legend.Top = true
	pl.X.Tick.Marker = valueTicks(xs)
	return pl, nil
}

// metricGrid plots each metric against the only key dimension, two
// panels per row.
func metricGrid(rows []dataset.Row, dim string) ([][]*plot.Plot, error) {
	present := make(map[metric.Metric]bool)
	for _, r := range rows {
		for m := range r.Metrics {
			present[m] = true
		}
	}
	var ms []metric.Metric
	for m := range present {
		ms = append(ms, m)
	}
	metric.Sort(ms)

	const perRow = 2
	var grid [][]*plot.Plot
	for i, m := range ms {
		var pts plotter.XYs
		var xs []float64
		for _, r := range rows {
			if !r.Metrics.Finite(m) {
				continue
			}
			x := float64(r.Key.Value(0))
			pts = append(pts, plotter.XY{X: x, Y: r.Metrics[m]})
			xs = append(xs, x)
		}
		var pl *plot.Plot
		if len(pts) > 0 {
			sort.Slice(pts, func(a, b int) bool { return pts[a].X < pts[b].X })
			pl = newPlot(m.Info().Label, dim, m.Info().Unit)
			line, points, err := plotter.NewLinePoints(pts)
			if err != nil {
				return nil, err
			}
			line.LineStyle.Color = neutral
			points.GlyphStyle.Shape = draw.CircleGlyph{}
			points.GlyphStyle.Color = neutral
			pl.Add(line, points)
			pl.X.Tick.Marker = valueTicks(xs)
		}
		if i%perRow == 0 {
			grid = append(grid, make([]*plot.Plot, perRow))
		}
		grid[len(grid)-1][i%perRow] = pl
	}
	if grid == nil {
		return nil, nil
	}
	return grid, nil
}

// valueTicks labels exactly the given X values, which are key
// dimension values.
func valueTicks(xs []float64) plot.Ticker {
	sort.Float64s(xs)
	var ticks []plot.Tick
	for i, x := range xs {
		if i > 0 && x == xs[i-1] {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: x, Label: strconv.FormatFloat(x, 'f', -1, 64)})
	}
	return plot.ConstantTicks(ticks)
}
