package models

import "maps"

// Configuration is the static key/value document supplied before a run:
// addresses, fee and time constants, object-class ids. It is read-only while
// a plan executes.
type Configuration map[string]any

// Lookup returns the literal stored under key
func (c Configuration) Lookup(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c[key]
	return v, ok
}

// Merge returns a new configuration with overlay applied on top of c
func (c Configuration) Merge(overlay Configuration) Configuration {
	merged := make(Configuration, len(c)+len(overlay))
	maps.Copy(merged, c)
	maps.Copy(merged, overlay)
	return merged
}
