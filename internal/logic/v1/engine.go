package v1

import (
	"context"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/interviewai/authgate/middleware"
)

// Outcome is the access decision for one navigation request.
type Outcome int

const (
	// OutcomeAllow lets the navigation proceed.
	OutcomeAllow Outcome = iota
	// OutcomeRedirectToLogin sends the visitor to the login page, carrying
	// the originally requested path as callbackUrl.
	OutcomeRedirectToLogin
	// OutcomeRedirectToHome sends an already-authenticated visitor away
	// from an auth-only page to the authenticated landing page.
	OutcomeRedirectToHome
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllow:
		return "allow"
	case OutcomeRedirectToLogin:
		return "redirect_to_login"
	case OutcomeRedirectToHome:
		return "redirect_to_home"
	default:
		return "unknown"
	}
}

// Decision is the complete result of the gate for one request. Exactly one
// outcome is produced per request; the web layer applies it.
type Decision struct {
	Outcome Outcome
	// RedirectURL is set for the redirect outcomes.
	RedirectURL string
	// StripCredential instructs the web layer to delete the cookie on the
	// outgoing response. Set whenever a credential was present but invalid,
	// regardless of outcome — a poisoned cookie self-heals instead of
	// failing validation on every subsequent request.
	StripCredential bool
	// Class is the route classification the decision was based on.
	Class RouteClass
	// ValidationErr records why the credential was rejected, for logging
	// and metrics only. It is never shown to the visitor.
	ValidationErr error
}

// Engine combines route classification and credential validation into a
// single access decision. It is evaluated exactly once per qualifying
// navigation, synchronously, before any content is produced. The engine
// itself performs no side effects; it only instructs them.
type Engine struct {
	classifier *Classifier
	validator  Validator
	loginPath  string
	homePath   string
}

// NewEngine creates a decision engine. loginPath is where unauthenticated
// visitors are sent; homePath is the authenticated landing page.
func NewEngine(classifier *Classifier, validator Validator, loginPath, homePath string) *Engine {
	return &Engine{
		classifier: classifier,
		validator:  validator,
		loginPath:  loginPath,
		homePath:   homePath,
	}
}

// Decide classifies path, validates credential, and applies the decision
// table:
//
//	               Valid            Invalid
//	Public         Allow            Allow (strip if present)
//	Protected      Allow            RedirectToLogin + strip
//	AuthOnly       RedirectToHome   Allow
//
// Deciding twice on the same inputs with no intervening state change yields
// the same decision.
func (e *Engine) Decide(ctx context.Context, path, credential string) Decision {
	ctx, span := middleware.StartSpan(ctx, "gate.decide", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("gate.path", path),
	))
	defer span.End()

	class := e.classifier.Classify(path)
	span.SetAttributes(attribute.String("gate.class", class.String()))

	if class == ClassPassThrough {
		return Decision{Outcome: OutcomeAllow, Class: class}
	}

	var validationErr error
	valid := false
	if credential != "" {
		validationErr = e.validator.Validate(ctx, credential)
		valid = validationErr == nil
	}
	span.SetAttributes(attribute.Bool("credential.valid", valid))

	// Present-but-invalid credentials are stripped on every outcome.
	strip := credential != "" && !valid

	d := Decision{Class: class, StripCredential: strip, ValidationErr: validationErr}
	switch class {
	case ClassProtected:
		if valid {
			d.Outcome = OutcomeAllow
		} else {
			d.Outcome = OutcomeRedirectToLogin
			d.RedirectURL = e.loginPath + "?callbackUrl=" + url.QueryEscape(path)
		}
	case ClassAuthOnly:
		if valid {
			d.Outcome = OutcomeRedirectToHome
			d.RedirectURL = e.homePath
		} else {
			d.Outcome = OutcomeAllow
		}
	default: // ClassPublic
		d.Outcome = OutcomeAllow
	}

	span.SetAttributes(attribute.String("gate.outcome", d.Outcome.String()))
	return d
}
