package v1

import "strings"

// RouteClass is the destination category of a navigation path. Every path
// maps to exactly one class.
type RouteClass int

const (
	// ClassPassThrough marks framework assets and API paths that bypass the
	// gate entirely; no access decision is made for them.
	ClassPassThrough RouteClass = iota
	// ClassPublic paths render for everyone.
	ClassPublic
	// ClassProtected paths require a valid session.
	ClassProtected
	// ClassAuthOnly paths (login, register) only make sense without a valid
	// session.
	ClassAuthOnly
)

func (c RouteClass) String() string {
	switch c {
	case ClassPassThrough:
		return "pass_through"
	case ClassPublic:
		return "public"
	case ClassProtected:
		return "protected"
	case ClassAuthOnly:
		return "auth_only"
	default:
		return "unknown"
	}
}

// Classifier maps request paths to route classes using static tables.
// It is a pure lookup: no side effects, safe for concurrent use.
type Classifier struct {
	protectedPrefixes []string
	authOnlyPaths     []string
}

// NewClassifier builds a classifier from an ordered list of protected path
// prefixes and a list of auth-only exact paths.
func NewClassifier(protectedPrefixes, authOnlyPaths []string) *Classifier {
	return &Classifier{
		protectedPrefixes: protectedPrefixes,
		authOnlyPaths:     authOnlyPaths,
	}
}

// Classify returns the route class for path.
//
// Asset paths (/_next, /static, favicon, anything with a dot segment) and
// /api paths are pass-through: API calls re-validate downstream on their
// own, and assets carry no protected content.
func (cl *Classifier) Classify(path string) RouteClass {
	if isAssetOrAPIPath(path) {
		return ClassPassThrough
	}
	for _, p := range cl.authOnlyPaths {
		if path == p {
			return ClassAuthOnly
		}
	}
	for _, prefix := range cl.protectedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return ClassProtected
		}
	}
	return ClassPublic
}

func isAssetOrAPIPath(path string) bool {
	return strings.HasPrefix(path, "/_next") ||
		strings.HasPrefix(path, "/static") ||
		strings.HasPrefix(path, "/api/") ||
		path == "/api" ||
		strings.Contains(path, ".")
}
