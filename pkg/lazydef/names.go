package lazydef

import (
	"strings"

	"github.com/vango-dev/lazydefine/pkg/dom"
)

// DefaultRoleAttribute is the attribute a built-in element uses to request a
// named customization.
const DefaultRoleAttribute = "role"

// ResolvedNames identifies the definition an element asks for.
type ResolvedNames struct {
	// ElementName is the lower-cased role attribute when it is non-empty,
	// else TagName.
	ElementName string

	// TagName is the element's tag.
	TagName string

	// RoleAttr is the lower-cased role attribute value. Only meaningful when
	// HasRole is set.
	RoleAttr string
	HasRole  bool
}

// ResolveNames derives the names for el. It never fails.
func ResolveNames(el *dom.Node, roleAttr string) ResolvedNames {
	role, _ := el.GetAttribute(roleAttr)
	return namesFor(el.TagName(), role)
}

// resolveChange derives the names for the role value an attributes record
// describes, which may differ from the element's current value when several
// changes are delivered in one batch.
func resolveChange(rec dom.MutationRecord) ResolvedNames {
	if !rec.HasValue {
		return namesFor(rec.Target.TagName(), "")
	}
	return namesFor(rec.Target.TagName(), rec.Value)
}

// namesFor treats an empty role like a missing one.
func namesFor(tag, role string) ResolvedNames {
	names := ResolvedNames{TagName: tag, ElementName: tag}
	if role != "" {
		names.RoleAttr = strings.ToLower(role)
		names.HasRole = true
		names.ElementName = names.RoleAttr
	}
	return names
}

// reservedNames are hyphenated names the platform keeps for itself.
var reservedNames = map[string]struct{}{
	"annotation-xml":   {},
	"color-profile":    {},
	"font-face":        {},
	"font-face-src":    {},
	"font-face-uri":    {},
	"font-face-format": {},
	"font-face-name":   {},
	"missing-glyph":    {},
}

// IsValidName reports whether name is eligible as a custom element name: a
// lower-case ASCII first letter, a hyphen somewhere after it, and not
// reserved. The check is deliberately looser than the full platform grammar.
func IsValidName(name string) bool {
	if name == "" || name[0] < 'a' || name[0] > 'z' {
		return false
	}
	if strings.IndexByte(name[1:], '-') < 0 {
		return false
	}
	_, reserved := reservedNames[name]
	return !reserved
}
