package rules

// ReferentialChecker tests membership in a fixed key set, typically the
// APNs of the cleaned property table.
type ReferentialChecker struct {
	keys map[string]struct{}
}

// NewReferentialChecker builds a checker over keys. The slice is copied.
func NewReferentialChecker(keys []string) *ReferentialChecker {
	rc := &ReferentialChecker{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		rc.keys[k] = struct{}{}
	}
	return rc
}

// Contains reports whether k is a known key.
func (rc *ReferentialChecker) Contains(k string) bool {
	if rc == nil {
		return false
	}
	_, ok := rc.keys[k]
	return ok
}

// Len returns the number of known keys.
func (rc *ReferentialChecker) Len() int {
	if rc == nil {
		return 0
	}
	return len(rc.keys)
}

// Check implements Check. A nil checker rejects everything.
func (rc *ReferentialChecker) Check(v string) Verdict {
	if !rc.Contains(v) {
		return Verdict{}
	}
	return pass(v)
}
