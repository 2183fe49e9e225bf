package api

import (
	"bytes"
	_ "embed"
	"html/template"
)

//go:embed landing.html
var landingSource string

var landingTemplate = template.Must(template.New("landing").Parse(landingSource))

func renderLanding(defaultLimit int, version string) ([]byte, error) {
	var buf bytes.Buffer
	err := landingTemplate.Execute(&buf, struct {
		DefaultLimit int
		Version      string
	}{defaultLimit, version})
	return buf.Bytes(), err
}
