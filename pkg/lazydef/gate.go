package lazydef

// shouldHandle reports whether name is new work: a valid custom name that
// is not defined yet and passes the filter. The filter is consulted last.
func (o *Observer) shouldHandle(name string) bool {
	if name == "" || !IsValidName(name) {
		return false
	}
	if o.registry.IsDefined(name) {
		return false
	}
	return o.filter == nil || o.filter(name)
}
