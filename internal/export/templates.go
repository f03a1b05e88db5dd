package export

import (
	"bytes"
	"html/template"
	"strings"
	"time"
)

var bitacoraTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"lower": strings.ToLower,
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
	}

	bitacoraTemplate = template.Must(template.New("bitacora").Funcs(funcMap).Parse(bitacoraHTMLTemplate))
}

// TemplateData holds data for bitácora template rendering
type TemplateData struct {
	Codigo      string
	Nombre      string
	Etapa       string
	GeneratedAt time.Time
	Registros   []TemplateRegistro
	Miembros    []TemplateMiembro
}

// TemplateRegistro holds one log entry for the template
type TemplateRegistro struct {
	Fecha       time.Time
	Descripcion string
	AdjuntoURL  string
}

// TemplateMiembro holds one member row for the template
type TemplateMiembro struct {
	Email string
	Role  string
}

// RenderBitacoraHTML renders the bitácora template with provided data
func RenderBitacoraHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := bitacoraTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const bitacoraHTMLTemplate = `<!DOCTYPE html>
<html lang="es">
<head>
  <meta charset="UTF-8">
  <title>{{.Codigo}} — {{.Nombre}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; color: #222; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    .etapa { display: inline-block; background: #e8f0fe; color: #1a56db; padding: 2px 10px; border-radius: 10px; font-size: 0.85em; }
    .registro { background: #f8f8f8; padding: 1rem; margin: 1rem 0; border-left: 3px solid #1a56db; }
    .registro .fecha { font-weight: bold; color: #444; }
    .registro .adjunto { font-size: 0.85em; word-break: break-all; }
    table { border-collapse: collapse; width: 100%; }
    th, td { text-align: left; padding: 6px 10px; border-bottom: 1px solid #ddd; }
  </style>
</head>
<body>
  <h1>{{.Codigo}} — {{.Nombre}}</h1>
  <div class="meta">
    <span class="etapa">{{.Etapa}}</span>
    | Generado el {{formatDate .GeneratedAt "02/01/2006 15:04"}}
  </div>

  <h2>Bitácora</h2>
  {{if .Registros}}
  {{range .Registros}}
  <div class="registro">
    <div class="fecha">{{formatDate .Fecha "02/01/2006"}}</div>
    <div>{{.Descripcion}}</div>
    {{if .AdjuntoURL}}<div class="adjunto">Adjunto: <a href="{{.AdjuntoURL}}">{{.AdjuntoURL}}</a></div>{{end}}
  </div>
  {{end}}
  {{else}}
  <p>Sin registros.</p>
  {{end}}

  {{if .Miembros}}
  <h2>Miembros</h2>
  <table>
    <tr><th>Correo</th><th>Rol</th></tr>
    {{range .Miembros}}<tr><td>{{.Email}}</td><td>{{lower .Role}}</td></tr>{{end}}
  </table>
  {{end}}
</body>
</html>`
