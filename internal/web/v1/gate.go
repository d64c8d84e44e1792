// Package v1 is the web layer of the gateway: the access gate middleware
// and the upstream reverse proxies.
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/interviewai/authgate/internal/logging"
	logicv1 "github.com/interviewai/authgate/internal/logic/v1"
	"github.com/interviewai/authgate/middleware"
)

var gateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gate_decisions_total",
		Help: "Access decisions made by the gate, by route class and outcome.",
	},
	[]string{"class", "outcome"},
)

// CookieSettings describes the session credential cookie. Domain and
// Secure must mirror the attributes the authorization service sets, or the
// deletion cookie the gate emits will not match the one in the browser.
type CookieSettings struct {
	Name   string
	Domain string
	Secure bool
}

// Gate applies the access decision engine to every navigation request.
// Dependencies are injected via the constructor — no global state.
type Gate struct {
	engine *logicv1.Engine
	cookie CookieSettings
}

// NewGate creates the gate over the given engine.
func NewGate(engine *logicv1.Engine, cookie CookieSettings) *Gate {
	return &Gate{engine: engine, cookie: cookie}
}

// Middleware runs the gate synchronously before any content is produced.
// It reads the credential cookie, asks the engine for a decision, applies
// cookie stripping, and either redirects or lets the request continue.
func (g *Gate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := middleware.StartSpan(c.Request.Context(), "gate.request", trace.WithAttributes(
			attribute.String("layer", "web"),
			attribute.String("method", c.Request.Method),
			attribute.String("path", c.Request.URL.Path),
		))
		defer span.End()

		logger := logging.FromContext(ctx)
		path := c.Request.URL.Path

		// Cookie extraction; absence is not an error, just no credential.
		credential, err := c.Cookie(g.cookie.Name)
		if err != nil {
			credential = ""
		}

		decision := g.engine.Decide(ctx, path, credential)

		if decision.Class != logicv1.ClassPassThrough {
			gateDecisionsTotal.WithLabelValues(decision.Class.String(), decision.Outcome.String()).Inc()
		}

		if decision.StripCredential {
			// Max-Age<0 deletes the cookie on the client; a poisoned value
			// will not be re-validated on the next request.
			c.SetCookie(g.cookie.Name, "", -1, "/", g.cookie.Domain, g.cookie.Secure, true)
			logger.Warn().
				Err(decision.ValidationErr).
				Str("path", path).
				Msg("Stripped invalid credential")
		}

		switch decision.Outcome {
		case logicv1.OutcomeRedirectToLogin, logicv1.OutcomeRedirectToHome:
			span.SetAttributes(attribute.String("gate.redirect", decision.RedirectURL))
			logger.Info().
				Str("path", path).
				Str("class", decision.Class.String()).
				Str("outcome", decision.Outcome.String()).
				Msg("Navigation redirected")
			c.Redirect(http.StatusTemporaryRedirect, decision.RedirectURL)
			c.Abort()
		default:
			c.Next()
		}
	}
}
