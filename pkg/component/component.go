// Package component defines the opaque, re-renderable unit produced by
// component builders. A Component is constructed fresh on every render
// pass and never mutated; the client replaces DOM subtrees wholesale by
// id, so there is no structural diffing.
package component

import (
	"sort"
	"strings"
)

// Component is a single renderable unit identified by a stable id.
// A Component with an empty Tag renders its content bare, without a
// wrapping element.
type Component struct {
	// Tag is the HTML element name, e.g. "div".
	Tag string

	// ID is the component id, emitted as the element's id attribute.
	ID string

	// Attrs are additional element attributes. Attribute values are
	// always escaped; keys are emitted in sorted order so output is
	// deterministic.
	Attrs map[string]string

	// BoolAttrs are valueless attributes such as "disabled".
	BoolAttrs []string

	// Content is the inner HTML.
	Content string

	// Escape escapes Content on render. Builders that interpolate
	// user-controlled text into Content set this.
	Escape bool
}

// Render produces the component's HTML.
func (c *Component) Render() string {
	content := c.Content
	if c.Escape {
		content = escapeHTML(content)
	}

	if c.Tag == "" {
		return content
	}

	var buf strings.Builder
	buf.WriteByte('<')
	buf.WriteString(c.Tag)
	buf.WriteString(` id="`)
	buf.WriteString(escapeAttr(c.ID))
	buf.WriteByte('"')

	if len(c.Attrs) > 0 {
		keys := make([]string, 0, len(c.Attrs))
		for k := range c.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			buf.WriteByte(' ')
			buf.WriteString(k)
			buf.WriteString(`="`)
			buf.WriteString(escapeAttr(c.Attrs[k]))
			buf.WriteByte('"')
		}
	}

	for _, k := range c.BoolAttrs {
		buf.WriteByte(' ')
		buf.WriteString(k)
	}

	buf.WriteByte('>')
	buf.WriteString(content)
	buf.WriteString("</")
	buf.WriteString(c.Tag)
	buf.WriteByte('>')

	return buf.String()
}
