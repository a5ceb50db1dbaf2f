// Copyright 2018 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package coverageplot draws the per-position coverage of a region.
package coverageplot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/googlegenomics/fastadb/regionstats"
)

// Default dimensions of saved plots.
const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

var errNoCoverage = errors.New("no coverage to plot")

// New returns a plot of the coverage in stats with a horizontal line at the
// average coverage.
func New(stats *regionstats.Stats) (*plot.Plot, error) {
	if len(stats.Coverages) == 0 {
		return nil, errNoCoverage
	}

	points := make(plotter.XYs, len(stats.Coverages))
	for i, c := range stats.Coverages {
		points[i].X = float64(stats.Region.Start + i)
		points[i].Y = float64(c)
	}

	p := plot.New()
	p.Title.Text = "Coverage of " + stats.Region.String()
	p.X.Label.Text = "Position"
	p.Y.Label.Text = "Depth"
	p.Y.Min = 0

	line, err := plotter.NewLine(points)
	if err != nil {
		return nil, fmt.Errorf("building coverage line: %w", err)
	}
	mean := plotter.NewFunction(func(float64) float64 { return stats.AverageCoverage })
	mean.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	mean.XMin, mean.XMax = points[0].X, points[len(points)-1].X

	p.Add(line, mean, plotter.NewGrid())
	p.Legend.Add("coverage", line)
	p.Legend.Add(fmt.Sprintf("average %.2f", stats.AverageCoverage), mean)
	p.Legend.Top = true
	return p, nil
}

// Save writes the coverage plot to path.  The format is taken from the file
// extension (png, svg, pdf, ...).
func Save(stats *regionstats.Stats, path string) error {
	var buf bytes.Buffer
	if err := Write(&buf, stats, FormatOf(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// Write renders the coverage plot in format to w.
func Write(w io.Writer, stats *regionstats.Stats, format string) error {
	p, err := New(stats)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(DefaultWidth, DefaultHeight, strings.TrimPrefix(format, "."))
	if err != nil {
		return fmt.Errorf("rendering %s: %w", format, err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// FormatOf returns the image format implied by the extension of path.
func FormatOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

var contentTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"svg":  "image/svg+xml",
	"pdf":  "application/pdf",
	"eps":  "application/postscript",
	"tex":  "application/x-tex",
}

// ContentType returns the MIME type of plots rendered in format.
func ContentType(format string) (string, bool) {
	ct, ok := contentTypes[strings.ToLower(strings.TrimPrefix(format, "."))]
	return ct, ok
}
