package htmlindex

import (
	"bytes"
	_ "embed"
	"html/template"
	"io"
	"path/filepath"
	"phtrending/lib/snapshot"
	"phtrending/lib/summary"
)

//go:embed index.html.tmpl
var indexTemplateSource string

var indexTemplate = template.Must(template.New("index").Parse(indexTemplateSource))

func Render(w io.Writer, s summary.Summary) error {
	return indexTemplate.Execute(w, s)
}

// Write renders `s` into index.html inside `dir` and returns its path.
func Write(dir string, s summary.Summary) (string, error) {
	var buf bytes.Buffer
	err := Render(&buf, s)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, snapshot.IndexName)
	err = snapshot.WriteFile(path, buf.Bytes())
	if err != nil {
		return "", err
	}
	return path, nil
}
