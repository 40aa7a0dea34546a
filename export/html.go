// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package export

import (
	"io"
	"strconv"

	"github.com/google/safehtml/template"
	"golang.org/x/benchfront/dataset"
	"golang.org/x/benchfront/metric"
	"golang.org/x/benchfront/pareto"
	"golang.org/x/benchfront/runkey"
)

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Experiment}}</title>
<style>
table.benchfront { border-collapse: collapse; }
table.benchfront td, table.benchfront th { padding: 0 0.6em; text-align: right; }
table.benchfront tr.frontier { font-weight: bold; background: #e8f4e8; }
</style>
</head>
<body>
<h1>{{.Experiment}}</h1>
<p>{{.Frontier}} of {{len .Rows}} configurations on the Pareto frontier ({{.Objectives}}).</p>
<table class="benchfront">
<tr>{{range .Header}}<th>{{.}}{{end}}
{{range .Rows -}}
<tr{{if .OnFrontier}} class="frontier"{{end}}>{{range .Cells}}<td>{{.}}{{end}}
{{end -}}
</table>
</body>
</html>
`))

type htmlRow struct {
	OnFrontier bool
	Cells      []string
}

type htmlReport struct {
	Experiment string
	Objectives string
	Frontier   int
	Header     []string
	Rows       []htmlRow
}

// WriteHTML writes an HTML report of rows to w. Rows are shown in
// display order, with frontier rows highlighted.
func WriteHTML(w io.Writer, experiment string, schema *runkey.Schema, rows []dataset.Row, metrics []metric.Metric, objs pareto.Objectives) error {
	sorted := append([]dataset.Row(nil), rows...)
	pareto.Sort(sorted, objs)

	rep := htmlReport{
		Experiment: experiment,
		Objectives: objs.String(),
		Header:     CSVHeader(schema, metrics),
	}
	for _, r := range sorted {
		if r.OnFrontier {
			rep.Frontier++
		}
		hr := htmlRow{OnFrontier: r.OnFrontier}
		for _, v := range r.Key.Values() {
			hr.Cells = append(hr.Cells, strconv.Itoa(v))
		}
		for _, m := range metrics {
			if v, ok := r.Metrics[m]; ok {
				hr.Cells = append(hr.Cells, strconv.FormatFloat(v, 'f', -1, 64))
			} else {
				hr.Cells = append(hr.Cells, "")
			}
		}
		hr.Cells = append(hr.Cells, strconv.FormatBool(r.OnFrontier))
		rep.Rows = append(rep.Rows, hr)
	}
	return htmlTemplate.Execute(w, rep)
}
