/*
 * uptake.go, part of gomcmd.
 *
 * Copyright 2022 Raul Mera <rmeraatusachdotcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

//Package uptake accumulates the per-iteration gas loadings produced by a
//coupled workflow and turns them into tables, summary statistics and plots.
package uptake

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

//Collector records, for each completed iteration, the number of molecules
//of each gas species held by the framework after the Monte Carlo stage.
//It satisfies the Recorder seam of the couple package.
type Collector struct {
	names []string
	iters []int
	made  [][]int
}

//NewCollector returns a Collector for the given gas species names. The
//order of the names fixes the column order of every table and series.
func NewCollector(names []string) *Collector {
	n := make([]string, len(names))
	copy(n, names)
	return &Collector{names: n}
}

//Record appends the loadings of one iteration. Slices shorter than the
//species list are padded with zeros, so a partial report is never fatal.
func (c *Collector) Record(iter int, made []int) {
	row := make([]int, len(c.names))
	copy(row, made)
	c.iters = append(c.iters, iter)
	c.made = append(c.made, row)
}

//Len returns the number of recorded iterations.
func (c *Collector) Len() int {
	return len(c.iters)
}

//Names returns a copy of the species names, in column order.
func (c *Collector) Names() []string {
	n := make([]string, len(c.names))
	copy(n, c.names)
	return n
}

//Series returns the loading of the ith species across all recorded
//iterations, as floats, ready for the stat and plot packages.
func (c *Collector) Series(i int) []float64 {
	if i < 0 || i >= len(c.names) {
		panic("uptake: species index out of range")
	}
	ser := make([]float64, len(c.made))
	for k, row := range c.made {
		ser[k] = float64(row[i])
	}
	return ser
}

//Means returns the mean loading of each species over all recorded
//iterations, in column order. With no data it returns zeros.
func (c *Collector) Means() []float64 {
	m := make([]float64, len(c.names))
	if len(c.made) == 0 {
		return m
	}
	for i := range c.names {
		m[i] = stat.Mean(c.Series(i), nil)
	}
	return m
}

//StdDevs returns the sample standard deviation of each species' loading.
//With fewer than two iterations it returns zeros.
func (c *Collector) StdDevs() []float64 {
	s := make([]float64, len(c.names))
	if len(c.made) < 2 {
		return s
	}
	for i := range c.names {
		s[i] = stat.StdDev(c.Series(i), nil)
	}
	return s
}

//Table writes the recorded loadings as a whitespace-separated table, one
//row per iteration, with a commented header line.
func (c *Collector) Table(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "#%10s", "iter"); err != nil {
		return Error{ErrCantWrite, "", err.Error(), []string{"Table"}, false}
	}
	for _, n := range c.names {
		if _, err := fmt.Fprintf(w, " %10s", n); err != nil {
			return Error{ErrCantWrite, "", err.Error(), []string{"Table"}, false}
		}
	}
	fmt.Fprintln(w)
	for k, row := range c.made {
		fmt.Fprintf(w, " %10d", c.iters[k])
		for _, v := range row {
			fmt.Fprintf(w, " %10d", v)
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return Error{ErrCantWrite, "", err.Error(), []string{"Table"}, false}
		}
	}
	return nil
}

//PlotPNG saves a line plot of the loading of every species against the
//iteration number. It fails if nothing has been recorded.
func (c *Collector) PlotPNG(path, title string) error {
	if len(c.made) == 0 {
		return Error{ErrNoData, path, "", []string{"PlotPNG"}, false}
	}
	p := plot.New()
	p.Title.Text = title
	p.Title.Padding = 3 * vg.Millimeter
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Molecules adsorbed"
	p.Add(plotter.NewGrid())
	for i, name := range c.names {
		pts := make(plotter.XYs, len(c.made))
		for k := range c.made {
			pts[k].X = float64(c.iters[k])
			pts[k].Y = float64(c.made[k][i])
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return Error{ErrPlot, path, err.Error(), []string{"PlotPNG"}, false}
		}
		r, g, b := seriesColor(i, len(c.names))
		l.Color = color.RGBA{R: r, G: g, B: b, A: 255}
		p.Add(l)
		p.Legend.Add(name, l)
	}
	p.Legend.Top = true
	if err := p.Save(14*vg.Centimeter, 10*vg.Centimeter, path); err != nil {
		return Error{ErrPlot, path, err.Error(), []string{"PlotPNG"}, false}
	}
	return nil
}

//seriesColor spreads the series over the hue circle so a handful of gases
//stay distinguishable without a palette table.
func seriesColor(i, total int) (uint8, uint8, uint8) {
	if total <= 0 {
		total = 1
	}
	h := 360.0 * float64(i) / float64(total)
	return iHVS2RGB(h, 0.8, 0.9)
}

//takes hue (0-360), v and s (0-1), returns r,g,b (0-255)
func iHVS2RGB(h, v, s float64) (uint8, uint8, uint8) {
	var f, p, q, t float64
	var r, g, b float64
	maxcolor := 255.0
	conversion := maxcolor * v
	if s == 0.0 {
		return uint8(conversion), uint8(conversion), uint8(conversion)
	}
	h = h / 60
	i := int(h)
	f = h - float64(i)
	p = v * (1 - s)
	q = v * (1 - s*f)
	t = v * (1 - s*(1-f))
	switch i {
	case 0:
		r = v
		g = t
		b = p
	case 1:
		r = q
		g = v
		b = p
	case 2:
		r = p
		g = v
		b = t
	case 3:
		r = p
		g = q
		b = v
	case 4:
		r = t
		g = p
		b = v
	default:
		r = v
		g = p
		b = q
	}
	return uint8(r * conversion), uint8(g * conversion), uint8(b * conversion)
}
