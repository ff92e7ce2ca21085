// Package location classifies free-text lookups and resolves postal codes to
// coordinates through the provider's search endpoint.
package location

import "regexp"

// Kind is the classification of a lookup string.
type Kind int

const (
	// KindPlaceName is anything that is not a postal code; it is forwarded to
	// the forecast endpoint unchanged.
	KindPlaceName Kind = iota
	// KindPostal is a US ZIP or ZIP+4 code.
	KindPostal
)

func (k Kind) String() string {
	switch k {
	case KindPostal:
		return "postal"
	case KindPlaceName:
		return "place_name"
	default:
		return "unknown"
	}
}

var postalPattern = regexp.MustCompile(`^[0-9]{5}(-[0-9]{4})?$`)

// Classify reports whether input is a postal code. Input is expected to be trimmed.
func Classify(input string) Kind {
	if postalPattern.MatchString(input) {
		return KindPostal
	}
	return KindPlaceName
}
