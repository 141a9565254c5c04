package server

import (
	"docanalyzer/internal/export"
	"docanalyzer/internal/pipeline"
)

func tableHeader() []string {
	return export.Header
}

func (s *Service) tableRows(batch pipeline.BatchResult) [][]string {
	rows := make([][]string, 0, len(batch.Results))
	for _, r := range batch.Results {
		row, err := export.Row(r.Fields)
		if err != nil {
			s.logger.Warn("server.table.row_error", "filename", r.Filename, "error", err)
			row = make([]string, len(export.Header))
			row[len(row)-1] = "unavailable"
		}
		rows = append(rows, row)
	}
	return rows
}

const pagesHTML = `
{{define "index"}}
<!DOCTYPE html>
<html>
<head>
	<title>Document Analyzer</title>
	<style>
		body { font-family: sans-serif; max-width: 960px; margin: 2em auto; }
		label { display: block; margin-top: 1em; }
		input[type=text], input[type=password] { width: 24em; }
		button { margin-top: 1.5em; padding: 0.5em 1.5em; }
	</style>
</head>
<body>
	<h1>Document Analyzer</h1>
	<p>Upload invoices or receipts and extract structured data.</p>
	<form action="/process" method="post" enctype="multipart/form-data">
		<label>OpenAI API Key
			<input type="password" name="api_key" {{if .HasKey}}placeholder="configured from environment"{{end}}>
		</label>
		<label>OCR Model
			<input type="text" name="ocr_model" value="{{.OCRModel}}">
		</label>
		<label>Parser Model
			<input type="text" name="parse_model" value="{{.ParseModel}}">
		</label>
		<label>Documents (JPG, PNG, PDF)
			<input type="file" name="documents" multiple accept=".jpg,.jpeg,.png,.pdf">
		</label>
		<button type="submit">Process Documents</button>
	</form>
</body>
</html>
{{end}}

{{define "results"}}
<!DOCTYPE html>
<html>
<head>
	<title>Extracted Data</title>
	<style>
		body { font-family: sans-serif; max-width: 1200px; margin: 2em auto; }
		textarea { width: 100%; height: 12em; font-family: monospace; }
		pre { background: #f4f4f4; padding: 1em; overflow-x: auto; }
		table { border-collapse: collapse; width: 100%; margin-top: 1em; }
		th, td { border: 1px solid #ccc; padding: 0.4em 0.6em; text-align: left; }
		.failure { color: #a00; }
		.downloads a { margin-right: 1.5em; }
	</style>
</head>
<body>
	<h1>Extracted Data</h1>

	{{range .Results}}
	<h2>{{.Filename}}</h2>
	{{range .Pages}}
	<h3>OCR Output Page {{.Number}}</h3>
	<textarea readonly>{{.Text}}</textarea>
	{{end}}
	<h3>Parsed Invoice</h3>
	<pre>{{.JSON}}</pre>
	{{end}}

	{{if .Failures}}
	<h2>Failures</h2>
	<ul>
		{{range .Failures}}
		<li class="failure">{{.Filename}}{{if .Code}} [{{.Code}}]{{end}}: {{.Error}}</li>
		{{end}}
	</ul>
	{{end}}

	<h2>Results Table</h2>
	<table>
		<tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr>
		{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}
	</table>

	<p class="downloads">
		<a href="/batches/{{.BatchID}}/invoices.csv">Download CSV</a>
		<a href="/batches/{{.BatchID}}/invoices.xlsx">Download Excel</a>
		<a href="/">Process more documents</a>
	</p>
</body>
</html>
{{end}}

{{define "error"}}
<!DOCTYPE html>
<html>
<head><title>Error</title></head>
<body style="font-family: sans-serif; max-width: 960px; margin: 2em auto;">
	<h1>Cannot process batch</h1>
	<p style="color: #a00;">{{.Error}}</p>
	<p><a href="/">Back</a></p>
</body>
</html>
{{end}}
`
