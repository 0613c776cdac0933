// Package badge renders printable badge and certificate artifacts as
// standalone HTML documents. The caller decides what to do with the
// artifact (hand it to a print dialog, archive it); this package only
// renders.
package badge

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/accordlabs/checkin/internal/event"
)

// Canvas sizes in px at 96dpi: badges are 18cm x 13cm landscape,
// certificates are A4 landscape.
const (
	badgeWidth  = 680
	badgeHeight = 491
	certWidth   = 1122
	certHeight  = 793
)

// nameBox is the resolved pixel-space placement for the attendee name.
type nameBox struct {
	Left, Top     int
	Width, Height int
	FontSize      int
}

func resolveBox(p event.Placement, canvasW, canvasH int) nameBox {
	b := nameBox{
		Left:   int(math.Round(p.X * float64(canvasW))),
		Top:    int(math.Round(p.Y * float64(canvasH))),
		Width:  int(math.Round(p.W * float64(canvasW))),
		Height: int(math.Round(p.H * float64(canvasH))),
	}
	b.FontSize = int(math.Round(float64(b.Height) * 0.7))
	return b
}

type artifactData struct {
	Title    string
	Kind     string
	CanvasW  int
	CanvasH  int
	Box      nameBox
	Template template.URL
	Names    []string
}

var artifactTpl = template.Must(template.New("artifact").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
@media print {
  body { margin: 0; }
  .{{.Kind}} { page-break-inside: avoid; }
}
body { margin: 0; background: #fff; }
.{{.Kind}} {
  width: {{.CanvasW}}px;
  height: {{.CanvasH}}px;
  position: relative;
  background: #fff;
  overflow: hidden;
  page-break-inside: avoid;
  margin: 10px;
  display: inline-block;
}
.{{.Kind}}-bg {
  position: absolute;
  left: 0; top: 0; width: 100%; height: 100%;
  z-index: 1;
  object-fit: cover;
}
.{{.Kind}}-name {
  position: absolute;
  left: {{.Box.Left}}px;
  top: {{.Box.Top}}px;
  width: {{.Box.Width}}px;
  height: {{.Box.Height}}px;
  display: flex;
  align-items: center;
  justify-content: center;
  font-size: {{.Box.FontSize}}px;
  font-family: 'Inter', Arial, sans-serif;
  font-weight: bold;
  color: #222;
  text-align: center;
  z-index: 2;
  white-space: pre-wrap;
  word-break: break-word;
}
</style>
</head>
<body>
{{- $d := . }}
{{- range .Names}}
<div class="{{$d.Kind}}">
{{- if $d.Template}}
<img class="{{$d.Kind}}-bg" src="{{$d.Template}}" alt="">
{{- end}}
<div class="{{$d.Kind}}-name">{{.}}</div>
</div>
{{- end}}
</body>
</html>
`))

// Renderer produces printable artifacts from event settings.
type Renderer struct{}

// NewRenderer creates a Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Badge renders a single badge document.
func (r *Renderer) Badge(reg event.Registration, set event.Settings) (string, error) {
	return r.Badges([]event.Registration{reg}, set)
}

// Badges renders one document holding a badge per registration. In
// pre-printed mode the stored template image is omitted and only the name
// is placed on the page.
func (r *Renderer) Badges(regs []event.Registration, set event.Settings) (string, error) {
	data := artifactData{
		Title:   pageTitle(regs, "Badge"),
		Kind:    "badge",
		CanvasW: badgeWidth,
		CanvasH: badgeHeight,
		Box:     resolveBox(set.BadgePlacement, badgeWidth, badgeHeight),
		Names:   names(regs),
	}
	if !set.PrePrintedBadges && set.BadgeTemplate != "" {
		data.Template = template.URL(set.BadgeTemplate)
	}
	return render(data)
}

// Certificate renders a single certificate document.
func (r *Renderer) Certificate(reg event.Registration, set event.Settings) (string, error) {
	return r.Certificates([]event.Registration{reg}, set)
}

// Certificates renders one document holding a certificate per registration.
func (r *Renderer) Certificates(regs []event.Registration, set event.Settings) (string, error) {
	data := artifactData{
		Title:   pageTitle(regs, "Certificate"),
		Kind:    "certificate",
		CanvasW: certWidth,
		CanvasH: certHeight,
		Box:     resolveBox(set.CertPlacement, certWidth, certHeight),
		Names:   names(regs),
	}
	if !set.PrePrintedCertificates && set.CertTemplate != "" {
		data.Template = template.URL(set.CertTemplate)
	}
	return render(data)
}

func render(data artifactData) (string, error) {
	var sb strings.Builder
	if err := artifactTpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", data.Kind, err)
	}
	return sb.String(), nil
}

func names(regs []event.Registration) []string {
	out := make([]string, len(regs))
	for i, reg := range regs {
		out[i] = reg.Name
	}
	return out
}

func pageTitle(regs []event.Registration, kind string) string {
	if len(regs) == 1 {
		return regs[0].Name + " - " + kind
	}
	return "Event " + kind + "s"
}
