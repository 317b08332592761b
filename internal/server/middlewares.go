package server

import (
	"context"
	"crypto/sha256"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"pricetracker/internal/model"
)

type userContextKey struct{}
type userContext struct {
	user model.User
}

type traceContextKey struct{}
type traceContext struct {
	traceID string
}

func setUserContext(ctx context.Context, uc userContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, uc)
}
func getUserContext(ctx context.Context) (userContext, error) {
	uc, ok := ctx.Value(userContextKey{}).(userContext)
	if !ok {
		return uc, errors.New("failed to get UserContext")
	}
	return uc, nil
}

func setTraceContext(ctx context.Context, tc traceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, tc)
}
func getTraceContext(ctx context.Context) traceContext {
	tc, _ := ctx.Value(traceContextKey{}).(traceContext)
	return tc
}

func (s Server) maxBytesMw(next http.Handler) http.Handler {
	return http.MaxBytesHandler(next, 3000)
}

// statusRecorder remembers the status code written by a handler for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s Server) loggingMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		traceID := uuid.NewString()
		s.Logger.Debugf("loggingMw: New incoming request %s %s from %s, UA: %s, TraceID: %s",
			r.Method, r.URL.Path, r.RemoteAddr, r.UserAgent(), traceID)

		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if re := recover(); re != nil {
				s.Logger.Errorf("loggingMw: Handler crashed, err: %v, TraceID: %s, stack trace:\n%s", re, traceID, debug.Stack())
				http.Error(sr, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
			s.Logger.Tracef("loggingMw: %s %s answered %d in %dms, TraceID: %s",
				r.Method, r.URL.Path, sr.status, time.Since(start).Milliseconds(), traceID)
		}()

		next.ServeHTTP(sr, r.WithContext(setTraceContext(r.Context(), traceContext{traceID: traceID})))
	})
}

// bearerToken returns the raw token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return token, ok && token != ""
}

// authMw admits requests whose login token is validly signed and is still the one stored on its user.
func (s Server) authMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		unauthorized := func(format string, v ...any) {
			s.Logger.Debugf("authMw: "+format+", TraceID: %s", append(v, tid)...)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		}

		lt, ok := bearerToken(r)
		if !ok {
			unauthorized("No login token")
			return
		}
		token, err := jwt.Parse([]byte(lt), jwt.WithKey(jwa.HS256, s.AuthSecretKey), jwt.WithValidate(true))
		if err != nil {
			unauthorized("Failed to validate login token, err: %v", err)
			return
		}

		u, err := s.DB.UserFindByID(r.Context(), token.Subject())
		if err != nil {
			unauthorized("Error finding User from login token, err: %v", err)
			return
		}
		stored := u.LoginToken
		if stored.TokenID == "" || stored.TokenID != token.JwtID() {
			unauthorized("Login token was revoked or replaced, UserID: %s", u.ID)
			return
		}
		tokenHash := sha256.Sum256([]byte(lt))
		if err = bcrypt.CompareHashAndPassword(stored.Token, tokenHash[:]); err != nil {
			unauthorized("Error when comparing LoginToken hashes for UserID: %s, err: %v", u.ID, err)
			return
		}

		s.Logger.Debugf("authMw: UserID: %s, TraceID: %s", u.ID, tid)
		next.ServeHTTP(w, r.WithContext(setUserContext(r.Context(), userContext{user: u})))
	})
}
