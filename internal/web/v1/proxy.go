package v1

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// NewUpstreamProxy returns a handler that forwards requests to the given
// upstream origin. It serves two roles in the gateway: the pass-through for
// /api requests (which re-validate downstream on their own) and the
// delivery of allowed page navigations from the application origin.
//
// stripPrefix, when non-empty, is removed from the request path before
// forwarding: the authorization service is addressed at /auth/*, so the
// gateway's /api namespace must not leak upstream. Pass "" to forward
// paths unchanged.
func NewUpstreamProxy(target *url.URL, stripPrefix string) gin.HandlerFunc {
	proxy := httputil.NewSingleHostReverseProxy(target)

	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		if stripPrefix != "" {
			req.URL.Path = strings.TrimPrefix(req.URL.Path, stripPrefix)
			if !strings.HasPrefix(req.URL.Path, "/") {
				req.URL.Path = "/" + req.URL.Path
			}
			req.URL.RawPath = ""
		}
		director(req)
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Error().Err(err).
			Str("upstream", target.Host).
			Str("path", r.URL.Path).
			Msg("Upstream proxy error")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"upstream unavailable"}`))
	}

	return func(c *gin.Context) {
		proxy.ServeHTTP(c.Writer, c.Request)
	}
}
