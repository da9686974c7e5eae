package customelements

import (
	"fmt"

	"github.com/vango-dev/lazydefine/pkg/dom"
	"github.com/vango-dev/lazydefine/pkg/vdom"
)

// Template is a declarative implementation: shadow content and default
// attributes stamped onto every upgraded element. Loaders decode templates
// from JSON or YAML element descriptors.
type Template struct {
	Name       string            `json:"name,omitempty" yaml:"name,omitempty"`
	Extends    string            `json:"extends,omitempty" yaml:"extends,omitempty"`
	Shadow     string            `json:"shadow,omitempty" yaml:"shadow,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// TemplateInstance is the value stored on elements upgraded by a Template.
type TemplateInstance struct {
	Template *Template
	Element  *dom.Node
	Shadow   *dom.Node
}

// Construct attaches the template's shadow content to el and sets the
// default attributes el does not already carry.
func (t *Template) Construct(el *dom.Node) (any, error) {
	inst := &TemplateInstance{Template: t, Element: el}

	for name, value := range t.Attributes {
		if !el.HasAttribute(name) {
			el.SetAttribute(name, value)
		}
	}

	if t.Shadow == "" {
		return inst, nil
	}
	nodes, err := vdom.ParseFragment(t.Shadow)
	if err != nil {
		return nil, fmt.Errorf("parse shadow content: %w", err)
	}
	shadow, err := el.AttachShadow()
	if err != nil {
		return nil, err
	}
	doc := el.OwnerDocument()
	for _, v := range nodes {
		if _, err := doc.Mount(shadow, v); err != nil {
			return nil, err
		}
	}
	inst.Shadow = shadow
	return inst, nil
}
