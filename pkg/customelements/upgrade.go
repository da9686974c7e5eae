package customelements

import (
	"slices"
	"strings"

	"github.com/vango-dev/lazydefine/pkg/dom"
)

// Attach upgrades the document's connected elements against the current
// definitions and keeps upgrading as definitions arrive and elements are
// connected. Attaching the same document twice has no effect.
func (r *Registry) Attach(doc *dom.Document) {
	r.mu.Lock()
	if slices.Contains(r.docs, doc) {
		r.mu.Unlock()
		return
	}
	r.docs = append(r.docs, doc)
	r.mu.Unlock()

	doc.AddConnectHook(func(root *dom.Node) { r.Upgrade(root) })
	r.Upgrade(doc.Node())
}

// Upgrade upgrades every element in root's composed subtree that matches a
// definition and has not been upgraded yet. It returns the number of elements
// upgraded.
func (r *Registry) Upgrade(root *dom.Node) int {
	var n int
	for _, el := range root.ComposedElements() {
		if el.CustomElementName() != "" {
			continue
		}
		def, ok := r.lookup(el)
		if !ok {
			continue
		}
		if r.construct(el, def) {
			n++
		}
	}
	return n
}

func (r *Registry) upgradeWith(root *dom.Node, def *Definition) {
	for _, el := range root.ComposedElements() {
		if el.CustomElementName() == "" && r.matches(el, def) {
			r.construct(el, def)
		}
	}
}

// lookup finds the definition for el: an autonomous definition named after
// its tag, or a customized built-in named by its role attribute.
func (r *Registry) lookup(el *dom.Node) (*Definition, bool) {
	tag := el.TagName()
	role, hasRole := el.GetAttribute(r.roleAttr)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if def, ok := r.defs[tag]; ok && def.Autonomous() {
		return def, true
	}
	if hasRole {
		if def, ok := r.defs[strings.ToLower(role)]; ok && def.Extends == tag {
			return def, true
		}
	}
	return nil, false
}

func (r *Registry) matches(el *dom.Node, def *Definition) bool {
	if def.Autonomous() {
		return el.TagName() == def.Name
	}
	if el.TagName() != def.Extends {
		return false
	}
	role, ok := el.GetAttribute(r.roleAttr)
	return ok && strings.ToLower(role) == def.Name
}

// construct runs def's constructor for el at most once, even when Define and
// a connect hook reach the element concurrently.
func (r *Registry) construct(el *dom.Node, def *Definition) bool {
	if !el.BeginUpgrade() {
		return false
	}
	instance, err := def.Impl.Construct(el)
	if err != nil {
		el.AbortUpgrade()
		r.logger.Error("custom element construction failed",
			"name", def.Name,
			"element", el.String(),
			"error", err)
		return false
	}
	if !el.MarkUpgraded(def.Name, instance) {
		return false
	}
	r.logger.Debug("custom element upgraded", "name", def.Name, "element", el.String())
	return true
}
