package server

import (
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

// pageData fills the page shell around a rendered conversation.
type pageData struct {
	Title string
	Body  template.HTML
}

// templates implements echo.Renderer over html/template.
type templates struct {
	t *template.Template
}

func (t *templates) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return t.t.ExecuteTemplate(w, name, data)
}

func newTemplates() *templates {
	return &templates{t: template.Must(template.New("page").Parse(pageTemplate))}
}

// pageTemplate carries the presentational layer: entry motion for items and
// the staggered pulse of the typing dots. Both are CSS only, so content is
// available the moment the document is parsed.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="color-scheme" content="dark">
<title>{{.Title}}</title>
<style>
body{margin:0;background:#111827;color:#e5e7eb;font-family:system-ui,-apple-system,"Segoe UI",sans-serif}
main{max-width:56rem;margin:0 auto;min-height:100vh;display:flex;flex-direction:column}
[data-part="conversation"]{display:flex;flex-direction:column;gap:1.5rem;padding:1.5rem;flex:1}
[data-part="item"]{display:flex}
[data-role="user"]{justify-content:flex-end}
[data-role="assistant"]{justify-content:flex-start}
[data-part="item"]>div{display:flex;align-items:flex-start;gap:.75rem;max-width:48rem}
[data-part="avatar"]{width:2.5rem;height:2.5rem;flex-shrink:0;border-radius:9999px;overflow:hidden;display:flex;align-items:center;justify-content:center;background:linear-gradient(90deg,#3b82f6,#9333ea);color:#fff;font-size:.75rem;font-weight:600}
[data-part="avatar"] img{width:100%;height:100%;object-fit:cover}
[data-part="avatar"][data-kind="image"]{position:relative}
[data-part="avatar"][data-kind="image"] img{position:absolute;inset:0}
[data-part="avatar"] img[hidden]{display:none}
[data-part="bubble"]{border-radius:1rem;padding:1rem 1.25rem;max-width:85%;overflow-wrap:anywhere}
[data-role="user"] [data-part="bubble"]{background:linear-gradient(90deg,#2563eb,#1d4ed8);color:#fff}
[data-role="assistant"] [data-part="bubble"]{background:#1f2937;border:1px solid #374151}
[data-part="badge"]{display:inline-flex;font-size:.75rem;padding:.125rem .5rem;border-radius:.25rem;margin-bottom:.75rem;background:rgba(255,255,255,.15)}
[data-part="image"]{display:block;border-radius:.5rem;max-width:20rem;user-select:none;-webkit-user-drag:none}
[data-part="transcription"]{margin-bottom:.75rem;padding:.75rem;border-radius:.5rem;border:1px solid rgba(255,255,255,.2);font-size:.875rem}
[data-part="transcription"] q{font-style:italic;white-space:pre-wrap}
[data-part="code"]{position:relative;background:#111827;border:1px solid #374151;border-radius:.5rem;padding:1rem;margin:1rem 0;overflow-x:auto}
[data-part="code"]>div{position:absolute;top:.5rem;right:.5rem;font-size:.75rem;color:#9ca3af}
[data-part="footer"]{display:flex;gap:.25rem;margin-top:.75rem;padding-top:.5rem;font-size:.75rem;opacity:.7;border-top:1px solid rgba(255,255,255,.15)}
[data-role="assistant"] [data-part="footer"]{justify-content:flex-end}
[data-part="empty"]{flex:1;display:flex;flex-direction:column;align-items:center;justify-content:center;text-align:center;padding:4rem 1rem}
[data-part="typing"]{display:flex;align-items:center;gap:.75rem}
[data-part="dot"]{display:inline-block;width:.5rem;height:.5rem;margin-right:.25rem;border-radius:9999px;background:#60a5fa;animation:pulse 1.2s ease-in-out infinite}
[data-part="dot"][data-delay="200"]{animation-delay:.2s}
[data-part="dot"][data-delay="400"]{animation-delay:.4s}
[data-motion="enter"]{animation:enter .3s ease-out both}
table{border-collapse:collapse;min-width:100%}th,td{border:1px solid rgba(75,85,99,.5);padding:.5rem .75rem;text-align:left}
.text-center{text-align:center}.text-right{text-align:right}
.sr-only{position:absolute;width:1px;height:1px;overflow:hidden;clip:rect(0,0,0,0)}
a{color:#60a5fa}
@keyframes enter{from{opacity:0;transform:translateY(.5rem)}to{opacity:1;transform:none}}
@keyframes pulse{0%,100%{opacity:.3;transform:scale(.8)}50%{opacity:1;transform:scale(1)}}
@media (prefers-reduced-motion:reduce){[data-motion="enter"],[data-part="dot"]{animation:none}}
</style>
</head>
<body>
<main>{{.Body}}</main>
</body>
</html>
`

// WritePage writes a complete HTML document around an already rendered
// conversation fragment.
func WritePage(w io.Writer, title string, body template.HTML) error {
	return newTemplates().t.ExecuteTemplate(w, "page", pageData{Title: title, Body: body})
}
