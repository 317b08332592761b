package server

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"pricetracker/internal/model"
)

const loginTokenIssuer = "price-tracker-app"

func (s Server) userRegister() http.HandlerFunc {
	type request struct {
		ID        string `json:"id"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	type response struct {
		Created    bool   `json:"created"`
		LoginToken string `json:"login_token"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tid := getTraceContext(r.Context()).traceID
		if s.RegistrationKey != "" &&
			subtle.ConstantTimeCompare([]byte(r.Header.Get("X-Registration-Key")), []byte(s.RegistrationKey)) != 1 {
			s.Logger.Debugf("userRegister: Invalid registration key, TraceID: %s", tid)
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("userRegister: Error decoding JSON, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if _, err := strconv.ParseInt(req.ID, 10, 64); err != nil {
			s.Logger.Debugf("userRegister: Invalid Telegram user id: %q, TraceID: %s", req.ID, tid)
			http.Error(w, "Invalid id", http.StatusBadRequest)
			return
		}

		created, err := s.DB.UserUpsert(r.Context(), model.User{
			ID:        req.ID,
			Username:  req.Username,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			MaxItems:  s.maxItems(model.User{}),
		})
		if err != nil {
			s.Logger.Errorf("userRegister: Error upserting User, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		lt, stored, err := s.createLoginTokenAndHash(req.ID)
		if err != nil {
			s.Logger.Errorf("userRegister: Error creating login token for User, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if err = s.DB.UserLoginTokenUpdate(r.Context(), req.ID, stored); err != nil {
			s.Logger.Errorf("userRegister: Error updating LoginToken on User, err: %v, TraceID: %s", err, tid)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		s.Logger.Infof("userRegister: Registered UserID: %s, created: %t, TraceID: %s", req.ID, created, tid)
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		s.writeJsonResponse(w, response{Created: created, LoginToken: lt}, status)
	}
}

func (s Server) userLogout() http.HandlerFunc {
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("userLogout: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if err = s.DB.UserLoginTokenRemove(r.Context(), uc.user.ID); err != nil {
			s.Logger.Errorf("userLogout: Error removing LoginToken, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}

func (s Server) userInfo() http.HandlerFunc {
	type response struct {
		model.User
		ItemCount int `json:"item_count"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.Logger.Errorf("userInfo: Error getting userContext, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		n, err := s.DB.ItemCountByUser(r.Context(), uc.user.ID)
		if err != nil {
			s.Logger.Errorf("userInfo: Error counting Items, UserID: %s, err: %v", uc.user.ID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		u := uc.user
		u.MaxItems = s.maxItems(u)
		s.writeJsonResponse(w, response{User: u, ItemCount: n}, http.StatusOK)
	}
}

func (s Server) createLoginTokenAndHash(userID string) (string, model.LoginToken, error) {
	now := s.now()
	stored := model.LoginToken{
		TokenID:    uuid.NewString(),
		Expiration: now.AddDate(0, 0, 90),
		CreatedAt:  now,
	}
	t, err := jwt.NewBuilder().
		JwtID(stored.TokenID).
		Subject(userID).
		Issuer(loginTokenIssuer).
		IssuedAt(now).
		Expiration(stored.Expiration).
		Build()
	if err != nil {
		return "", stored, errors.Wrapf(err, "error creating login token for UserID: %s", userID)
	}
	lt, err := jwt.Sign(t, jwt.WithKey(jwa.HS256, s.AuthSecretKey))
	if err != nil {
		return "", stored, errors.Wrapf(err, "error signing login token for UserID: %s", userID)
	}
	tokenHash := sha256.Sum256(lt)
	stored.Token, err = bcrypt.GenerateFromPassword(tokenHash[:], bcrypt.DefaultCost-3)
	if err != nil {
		return "", stored, errors.Wrapf(err, "error generating bcrypt from login token hash for UserID: %s", userID)
	}
	return string(lt), stored, nil
}
