package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greystone/loan-service/internal/models"
)

type fakeAuthenticator struct {
	users map[string]*models.User
}

func (f *fakeAuthenticator) Authenticate(apiKey string) (*models.User, error) {
	if user, ok := f.users[apiKey]; ok {
		return user, nil
	}
	return nil, assert.AnError
}

func newAuthRouter(auth Authenticator) *mux.Router {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	r := mux.NewRouter()
	protected := r.PathPrefix("/").Subrouter()
	protected.Use(Auth(auth, logger))
	protected.HandleFunc("/whoami", func(w http.ResponseWriter, req *http.Request) {
		if _, ok := UserFrom(req.Context()); !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")
	return r
}

func TestAuthMissingKey(t *testing.T) {
	auth := &fakeAuthenticator{users: map[string]*models.User{}}
	router := newAuthRouter(auth)

	req := httptest.NewRequest("GET", "/whoami", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthInvalidKey(t *testing.T) {
	auth := &fakeAuthenticator{users: map[string]*models.User{}}
	router := newAuthRouter(auth)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(HeaderAPIKey, "wrong")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthValidKeyExposesUser(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	alice := &models.User{ID: 7, Email: "alice@example.com", APIKey: "key-7"}
	auth := &fakeAuthenticator{users: map[string]*models.User{"key-7": alice}}

	var got *models.User
	r := mux.NewRouter()
	protected := r.PathPrefix("/").Subrouter()
	protected.Use(Auth(auth, logger))
	protected.HandleFunc("/whoami", func(w http.ResponseWriter, req *http.Request) {
		user, ok := UserFrom(req.Context())
		require.True(t, ok)
		got = user
	}).Methods("GET")

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(HeaderAPIKey, "key-7")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.ID)
}
