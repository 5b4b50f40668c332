package web

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/Joseda-hg/listkeeper/internal/auth"
)

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := s.issuer.FromRequest(r)
		if err != nil {
			if !errors.Is(err, auth.ErrMissingToken) {
				s.logger.Debug("rejected token", "path", r.URL.Path, "err", err)
			}
			w.Header().Set("WWW-Authenticate", `Bearer realm="listkeeper"`)
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthenticated."})
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

// maxTrackedOwners bounds the limiter cache. An evicted owner starts again
// with a full bucket.
const maxTrackedOwners = 10000

// limiters hands out one token bucket per owner, keeping the most recently
// seen owners.
type limiters struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	byOwner *lru.Cache[string, *rate.Limiter]
}

func newLimiters(limit rate.Limit, burst, size int) *limiters {
	cache, err := lru.New[string, *rate.Limiter](max(size, 1))
	if err != nil {
		panic(err)
	}
	return &limiters{limit: limit, burst: burst, byOwner: cache}
}

func (l *limiters) get(owner string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	limiter, ok := l.byOwner.Get(owner)
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.byOwner.Add(owner, limiter)
	}
	return limiter
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limits == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limits.get(identity(r).OwnerID).Allow() {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "Too many requests."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.Info("request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
