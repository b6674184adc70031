package wizard

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/hovertable/hovertable/hover"
	"github.com/hovertable/hovertable/pivot"
)

// viewModel is what the page template sees. Raw tooltip text is run
// through bluemonday before it gets here: captured strings come from
// arbitrary third-party DOMs, and stripping markup before templating
// keeps pasted junk out of the page even though html/template escapes.
type viewModel struct {
	FlowID    string
	State     State
	URL       string
	Charts    []hover.Chart
	Selected  int
	RawTips   []string
	TableText string
	Records   int
	Dialect   string
	HasExcel  bool
	LastError string
}

func (s *Server) render(w http.ResponseWriter, f *Flow) {
	vm := viewModel{
		FlowID:    f.ID,
		State:     f.State,
		URL:       f.URL,
		Charts:    f.Charts,
		Selected:  f.Selected,
		Records:   len(f.Batch.Records),
		Dialect:   f.Batch.Dialect.String(),
		HasExcel:  f.Excel != nil,
		LastError: f.LastError,
	}

	for _, tip := range f.RawTips {
		clean := s.policy.Sanitize(tip)
		clean = strings.ReplaceAll(clean, "\n", " | ")
		if r := []rune(clean); len(r) > 200 {
			clean = string(r[:200]) + "…"
		}
		vm.RawTips = append(vm.RawTips, clean)
	}

	if f.Table != nil && !f.Table.Empty() {
		vm.TableText = pivot.Text(f.Table)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, vm); err != nil {
		s.Log.Warn("wizard: render failed", "flow", f.ID, "error", err)
	}
}

var pageTmpl = template.Must(template.New("wizard").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>hovertable</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; }
pre { background: #f5f5f5; padding: 1rem; overflow-x: auto; }
.error { color: #b00020; }
.tips li { font-family: monospace; font-size: 0.85rem; margin: 0.25rem 0; }
button { padding: 0.4rem 1rem; }
</style>
</head>
<body>
<h1>hovertable</h1>
{{if .LastError}}<p class="error">{{.LastError}}</p>{{end}}

{{if eq .State "awaiting_url"}}
<p>Enter the URL of a page with charts to extract.</p>
<form method="post" action="/flows/{{.FlowID}}/url">
<input type="text" name="url" size="60" placeholder="example.com/dashboard" autofocus>
<button type="submit">Open page</button>
</form>
{{end}}

{{if or (eq .State "page_loaded") (eq .State "detecting")}}
<p>Loading <code>{{.URL}}</code> and scanning for charts…</p>
{{end}}

{{if eq .State "charts_found"}}
<p>Found {{len .Charts}} chart(s) on <code>{{.URL}}</code>. Pick one to extract.</p>
<form method="post" action="/flows/{{.FlowID}}/extract">
<ul>
{{range $i, $c := .Charts}}
<li><label><input type="radio" name="chart" value="{{$i}}" {{if eq $i 0}}checked{{end}}>
{{$c.Title}} ({{$c.Width}}x{{$c.Height}})</label></li>
{{end}}
</ul>
<button type="submit">Extract tooltips</button>
</form>
<form method="post" action="/flows/{{.FlowID}}/restart"><button type="submit">Different page</button></form>
{{end}}

{{if eq .State "extracting"}}
<p>Sweeping the chart… this can take a minute.</p>
{{end}}

{{if eq .State "results"}}
<h2>Results</h2>
<p>{{.Records}} data points ({{.Dialect}} chart), {{len .RawTips}} raw tooltips captured.</p>
{{if .TableText}}
<pre>{{.TableText}}</pre>
{{else}}
<p class="error">Could not parse structured data from the tooltips. The raw text is below.</p>
{{end}}
{{if .HasExcel}}
<p><a href="/flows/{{.FlowID}}/download">Download XLSX</a></p>
{{end}}
<details open>
<summary>Raw tooltips</summary>
<ol class="tips">
{{range .RawTips}}<li>{{.}}</li>{{end}}
</ol>
</details>
<form method="post" action="/flows/{{.FlowID}}/again"><button type="submit">Another chart on this page</button></form>
<form method="post" action="/flows/{{.FlowID}}/restart"><button type="submit">New page</button></form>
{{end}}
</body>
</html>
`))
