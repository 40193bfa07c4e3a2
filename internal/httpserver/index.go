package httpserver

import (
	"html/template"
	"net/http"
)

var indexTmpl = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>dumbserve</title>
</head>
<body>
<h1>Upload files</h1>
<p>Signed in as <strong>{{.User}}</strong>.</p>
<form method="post" enctype="multipart/form-data" action="{{.Prefix}}/api/v1/files/upload">
<label>Directory <input type="text" placeholder="docs" oninput="this.form.action='{{.Prefix}}/api/v1/files/upload?path='+encodeURIComponent(this.value)"></label>
<input type="file" name="file" multiple required>
<button type="submit">Upload</button>
</form>
</body>
</html>
`))

type indexData struct {
	User   string
	Prefix string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	user, ok := s.user(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, indexData{User: user, Prefix: s.cfg.Server.URLPrefix}); err != nil {
		s.log.Error(r.Context(), "render index", "err", err)
	}
}
