// Package validation turns untrusted user payloads into normalized candidates.
//
// It never touches the store. Every rule is applied independently and all
// violations are reported together, name first and then email, so clients
// can fix a payload in a single round-trip.
//
//	switch r := validation.ValidateUser(in).(type) {
//	case validation.Candidate:
//	    // r.Name and r.Email are normalized
//	case validation.Malformed:
//	    // r.Violations lists every failed field
//	}
package validation
