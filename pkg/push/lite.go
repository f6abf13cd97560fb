package push

import (
	"strings"

	"github.com/violit-dev/violit/pkg/component"
)

// LiteEngine is the stateless request/response push engine. One action
// POST produces exactly one response body: the clicked component's own
// HTML, followed by every other dirty component wrapped with an explicit
// out-of-band marker the client runtime uses to patch additional DOM
// nodes, followed by any queued eval code as a final injector block.
type LiteEngine struct{}

// NewLiteEngine creates a stateless push engine.
func NewLiteEngine() *LiteEngine {
	return &LiteEngine{}
}

// ClickAttrs wires a click to the action endpoint.
func (e *LiteEngine) ClickAttrs(componentID string) map[string]string {
	return map[string]string{
		"hx-post": "/action/" + componentID,
		"hx-swap": "none",
	}
}

// WrapOOB renders each component and marks its root element for
// out-of-band application, so a single response can patch DOM nodes
// beyond the request's own target.
func (e *LiteEngine) WrapOOB(components []*component.Component) string {
	var buf strings.Builder
	for _, c := range components {
		buf.WriteString(injectOOB(c.Render()))
	}
	return buf.String()
}

// injectOOB inserts the out-of-band marker into the root tag of rendered
// HTML.
func injectOOB(html string) string {
	html = strings.TrimSpace(html)
	if html == "" || html[0] != '<' {
		return html
	}

	end := strings.IndexByte(html, ' ')
	if end == -1 || strings.IndexByte(html, '>') < end {
		end = strings.IndexByte(html, '>')
	}
	if end == -1 {
		return html
	}

	return html[:end] + ` hx-swap-oob="true"` + html[end:]
}

// EvalInjector wraps queued client-side code into an out-of-band block
// appended to the response, executing once when applied.
func (e *LiteEngine) EvalInjector(codes []string) string {
	if len(codes) == 0 {
		return ""
	}

	var buf strings.Builder
	buf.WriteString(`<div id="eval-injector" hx-swap-oob="true"><script>(function(){`)
	for _, code := range codes {
		buf.WriteString(code)
		if !strings.HasSuffix(strings.TrimSpace(code), ";") {
			buf.WriteString(";")
		}
	}
	buf.WriteString(`})();</script></div>`)
	return buf.String()
}
