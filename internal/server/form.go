package server

import (
	"net/http"
)

const indexHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>GLR Report Generator - USAA / Wayne / GuideOne</title>
<style>
body { font-family: sans-serif; max-width: 44rem; margin: 3rem auto; padding: 0 1rem; }
label { display: block; margin: 1.2rem 0 .3rem; font-weight: bold; }
small { color: #555; display: block; }
button { margin-top: 1.5rem; padding: .5rem 1.2rem; }
</style>
</head>
<body>
<h1>GLR Report Generator</h1>
<form method="post" action="/api/v1/generate" enctype="multipart/form-data">
  <label for="template">Template (.docx)</label>
  <input id="template" name="template" type="file" accept=".docx" required>
  <small>The empty GLR template for USAA, Wayne or GuideOne.</small>

  <label for="report">Photo report (.pdf)</label>
  <input id="report" name="report" type="file" accept=".pdf" required>
  <small>The inspection report that describes the damage.</small>

  <button type="submit">Generate report</button>
  <button type="submit" formaction="/api/v1/extract">Show model output</button>
</form>
</body>
</html>
`

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}
