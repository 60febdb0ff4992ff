package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pokedex-companion/pokedexservice/pkg/apperr"
	"github.com/pokedex-companion/pokedexservice/pkg/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type ctxKeyLog struct{}
type ctxKeyRequestID struct{}
type ctxKeyPrincipal struct{}

type logHandler struct {
	log  *logrus.Logger
	next http.Handler
}

type responseRecorder struct {
	b      int
	status int
	w      http.ResponseWriter
}

func (r *responseRecorder) Header() http.Header { return r.w.Header() }

func (r *responseRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.w.Write(p)
	r.b += n
	return n, err
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.w.WriteHeader(statusCode)
}

func (lh *logHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, _ := uuid.NewRandom()
	ctx = context.WithValue(ctx, ctxKeyRequestID{}, requestID.String())

	start := time.Now()
	rr := &responseRecorder{w: w}
	log := lh.log.WithFields(logrus.Fields{
		"http.req.path":   r.URL.Path,
		"http.req.method": r.Method,
		"http.req.id":     requestID.String(),
	})
	log.Debug("request started")
	defer func() {
		log.WithFields(logrus.Fields{
			"http.resp.took_ms": int64(time.Since(start) / time.Millisecond),
			"http.resp.status":  rr.status,
			"http.resp.bytes":   rr.b}).Info("request complete")
	}()

	w.Header().Set("X-Request-Id", requestID.String())
	ctx = context.WithValue(ctx, ctxKeyLog{}, log)
	r = r.WithContext(ctx)
	lh.next.ServeHTTP(rr, r)
}

func loggerFrom(ctx context.Context) logrus.FieldLogger {
	if log, ok := ctx.Value(ctxKeyLog{}).(logrus.FieldLogger); ok {
		return log
	}
	return logrus.StandardLogger()
}

// securityHeaders sets the same response headers as the web client's
// previous backend did.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Cross-Origin-Resource-Policy", "same-origin")
		h.Set("Origin-Agent-Cluster", "?1")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-DNS-Prefetch-Control", "off")
		h.Set("X-Download-Options", "noopen")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("X-Permitted-Cross-Domain-Policies", "none")
		h.Set("X-XSS-Protection", "0")
		next.ServeHTTP(w, r)
	})
}

// rateLimited rejects a client IP that exceeds the limiter. Limiter errors
// let the request through.
func (s *Server) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 200*time.Millisecond)
		ip := getRealIP(r)
		allowed, err := s.limiter.Allow(ctx, "auth:ip:"+ip)
		cancel()

		if err != nil {
			loggerFrom(r.Context()).Warnf("auth limiter error: %v", err)
		} else if !allowed {
			loggerFrom(r.Context()).WithField("ip", ip).Warn("rate limit exceeded")
			writeError(w, r, apperr.New(apperr.KindTooManyRequests, apperr.MsgTooManyRequests))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func getRealIP(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if i := strings.IndexByte(ip, ','); i >= 0 {
		ip = ip[:i]
	}
	ip = strings.TrimSpace(ip)
	if ip == "" {
		ip = r.Header.Get("CF-Connecting-IP")
	}
	if ip == "" {
		ip = r.Header.Get("X-Real-IP")
	}
	if ip == "" {
		ip, _, _ = net.SplitHostPort(r.RemoteAddr)
	}
	return ip
}

// requireAuth verifies the bearer token and puts the principal in the context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, r, apperr.Unauthorized(apperr.MsgTokenRequired))
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, r, apperr.Unauthorized(apperr.MsgTokenInvalidFormat))
			return
		}

		p, err := s.tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			msg := apperr.MsgTokenInvalidExpired
			if errors.Is(err, service.ErrTokenPayload) {
				msg = apperr.MsgTokenPayloadInvalid
			}
			writeError(w, r, apperr.Wrap(err, apperr.KindUnauthorized, msg))
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyPrincipal{}, p)
		log := loggerFrom(ctx).WithField("user_id", p.ID)
		ctx = context.WithValue(ctx, ctxKeyLog{}, log)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// principal returns the caller set by requireAuth.
func principal(r *http.Request) service.Principal {
	p, _ := r.Context().Value(ctxKeyPrincipal{}).(service.Principal)
	return p
}
