package pdfprint

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"strconv"
)

// buildPageStyleSheet returns the page-size rule for the print surface.
// Sizes are PDF points; the @supports guard keeps engines that cannot size
// pages from dropping the whole stylesheet.
func buildPageStyleSheet(widthPt, heightPt float64) string {
	return fmt.Sprintf(`@supports ((size:A4) and (size:1pt 1pt)) {
  @page { size: %spt %spt; }
}
@page { margin: 0; }
html, body { margin: 0; padding: 0; }
.pdfprint-page { display: block; margin: auto; break-after: page; page-break-after: always; }
.pdfprint-page:last-child { break-after: auto; page-break-after: auto; }
`, formatPoints(widthPt), formatPoints(heightPt))
}

// formatPoints prints v with the shortest exact decimal form.
func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// displaySize returns the display element size in CSS pixels.
func displaySize(dim PageDimension, cssUnits float64) (int, int) {
	return int(math.Floor(dim.Width * cssUnits)), int(math.Floor(dim.Height * cssUnits))
}

var containerTemplate = template.Must(template.New("container").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>{{.StyleSheet}}</style>
</head>
<body>
<div class="pdfprint-container">
{{- range .Pages}}
<img class="pdfprint-page" width="{{.WidthPx}}" height="{{.HeightPx}}" src="{{.Src}}" alt="page {{.Index}}">
{{- end}}
</div>
</body>
</html>
`))

type containerPage struct {
	Index    int
	WidthPx  int
	HeightPx int
	Src      template.URL
}

// buildContainerHTML assembles the raster pages into one printable document.
func buildContainerHTML(title, styleSheet string, pages []PageElement) (string, error) {
	data := struct {
		Title      string
		StyleSheet template.CSS
		Pages      []containerPage
	}{
		Title: title,
		// #nosec G203 -- stylesheet is generated by buildPageStyleSheet
		StyleSheet: template.CSS(styleSheet),
		Pages:      make([]containerPage, len(pages)),
	}
	for i, p := range pages {
		data.Pages[i] = containerPage{
			Index:    p.Index,
			WidthPx:  p.WidthPx,
			HeightPx: p.HeightPx,
			// #nosec G203 -- URLs come from our own encoders
			Src: template.URL(p.Src),
		}
	}

	var buf bytes.Buffer
	if err := containerTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering print container: %w", err)
	}
	return buf.String(), nil
}
