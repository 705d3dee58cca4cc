package http

import (
	"io"
	"net/http"
)

const defaultIndexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Photo archives</title>
</head>
<body>
<h1>Photo archives</h1>
<p>Download an archive with <code>/archive/{id}/</code>. Available archives are listed at <a href="/archives">/archives</a>.</p>
</body>
</html>
`

func writeDefaultIndex(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, defaultIndexHTML)
}
