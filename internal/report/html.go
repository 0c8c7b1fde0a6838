package report

import (
	"fmt"
	"html"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

const htmlShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 56rem; padding: 0 1rem; color: #1a202c; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #cbd5e0; padding: 0.35rem 0.75rem; text-align: left; }
th { background: #edf2f7; }
code { background: #edf2f7; padding: 0.1rem 0.3rem; border-radius: 3px; }
h1 { border-bottom: 2px solid #cbd5e0; padding-bottom: 0.4rem; }
</style>
</head>
<body>
%s</body>
</html>
`

// HTML renders the Markdown report through gomarkdown into a
// self-contained page. SkipHTML keeps raw markup from untrusted column
// names out of the output.
func HTML(doc Document) []byte {
	mdParser := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.SkipHTML,
	})
	body := markdown.ToHTML([]byte(Markdown(doc)), mdParser, renderer)

	title := html.EscapeString(fmt.Sprintf("Validation Report: %s", doc.sourceLabel()))
	return []byte(fmt.Sprintf(htmlShell, title, body))
}
