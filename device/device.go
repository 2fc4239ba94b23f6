// Package device buckets clients into coarse categories from their
// User-Agent so that one user can hold an independent session per category.
package device

import (
	"net/http"
	"strings"
)

// Category is a coarse client class used as part of a session key.
type Category string

const (
	Mobile Category = "mobile"
	PC     Category = "pc"
)

var mobileMarkers = []string{"mobile", "android", "iphone"}

// Classify returns [Mobile] when userAgent contains a mobile marker
// (case-insensitive) and [PC] otherwise, including for an empty string.
func Classify(userAgent string) Category {
	ua := strings.ToLower(userAgent)
	for _, marker := range mobileMarkers {
		if strings.Contains(ua, marker) {
			return Mobile
		}
	}
	return PC
}

// FromRequest classifies the User-Agent header of r.
func FromRequest(r *http.Request) Category {
	if r == nil {
		return PC
	}
	return Classify(r.UserAgent())
}

// String returns c as stored in session keys.
func (c Category) String() string {
	return string(c)
}
