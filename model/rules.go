package model

import "strings"

// SupportedRules lists the getblocktemplate rules this block maker understands.
var SupportedRules = []string{"csv"}

// SupportsRule reports whether name is understood. A leading "!" marks a rule the server requires
// clients to understand and is ignored here.
func SupportsRule(name string) bool {
	name = strings.TrimPrefix(name, "!")

	for _, rule := range SupportedRules {
		if rule == name {
			return true
		}
	}

	return false
}
