package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coursebank/courseapi/internal/domain/user"
	"github.com/coursebank/courseapi/internal/http/handlers"
)

type fakeUsersStore struct {
	getByEmailFn func(ctx context.Context, email string) (user.User, error)
	createFn     func(ctx context.Context, firstName, lastName, email, passwordHash string) (user.User, error)
}

func (f *fakeUsersStore) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUsersStore) Create(ctx context.Context, firstName, lastName, email, passwordHash string) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, firstName, lastName, email, passwordHash)
	}
	return user.User{ID: 1, FirstName: firstName, LastName: lastName, EmailAddress: email, PasswordHash: passwordHash}, nil
}

func TestGetCurrentUserHandler(t *testing.T) {
	h := handlers.NewUsersHandler(&fakeUsersStore{})

	t.Run("returns_principal_without_password", func(t *testing.T) {
		principal := user.User{
			ID:           7,
			FirstName:    "Joe",
			LastName:     "Smith",
			EmailAddress: "joe@smith.com",
			PasswordHash: "$2a$10$secret",
		}

		r := setupGatedRouter(http.MethodGet, "/users", authedAs(principal), h.GetCurrentUser)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}

		var payload map[string]any

		if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}

		if payload["emailAddress"] != "joe@smith.com" {
			t.Fatalf("wrong email in payload: %v", payload)
		}

		if payload["firstName"] != "Joe" || payload["lastName"] != "Smith" {
			t.Fatalf("name missing from payload: %v", payload)
		}

		for _, forbidden := range []string{"password", "passwordHash", "createdAt", "updatedAt"} {
			if _, ok := payload[forbidden]; ok {
				t.Fatalf("payload leaked %q: %v", forbidden, payload)
			}
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		r := setupGatedRouter(http.MethodGet, "/users", rejected(), h.GetCurrentUser)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("got status %d, want 401, body=%s", w.Code, w.Body.String())
		}
	})
}

func TestCreateUserHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		storeSetup func(*fakeUsersStore)
		wantStatus int
		wantErrors []string
	}{
		{
			name:       "success",
			body:       `{"firstName": "Joe", "lastName": "Smith", "emailAddress": "joe@smith.com", "password": "secret1"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name: "duplicate_email",
			body: `{"firstName": "Joe", "lastName": "Smith", "emailAddress": "joe@smith.com", "password": "secret1"}`,
			storeSetup: func(f *fakeUsersStore) {
				f.createFn = func(ctx context.Context, firstName, lastName, email, passwordHash string) (user.User, error) {
					return user.User{}, user.ErrEmailTaken
				}
			},
			wantStatus: http.StatusBadRequest,
			wantErrors: []string{"Email address is taken."},
		},
		{
			name:       "missing_fields",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantErrors: []string{
				"First name is required.",
				"Last name is required.",
				"Email address is required.",
				"Password is required.",
			},
		},
		{
			name:       "invalid_email",
			body:       `{"firstName": "Joe", "lastName": "Smith", "emailAddress": "not-an-email", "password": "secret1"}`,
			wantStatus: http.StatusBadRequest,
			wantErrors: []string{"Valid email is required."},
		},
		{
			name: "store_error",
			body: `{"firstName": "Joe", "lastName": "Smith", "emailAddress": "joe@smith.com", "password": "secret1"}`,
			storeSetup: func(f *fakeUsersStore) {
				f.createFn = func(ctx context.Context, firstName, lastName, email, passwordHash string) (user.User, error) {
					return user.User{}, errors.New("db error")
				}
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeUsersStore{}

			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			h := handlers.NewUsersHandler(store)
			r := setupRouter(http.MethodPost, "/users", h.CreateUser)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, jsonRequest(http.MethodPost, "/users", tt.body))

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantStatus == http.StatusCreated {
				if got := w.Header().Get("Location"); got != "/" {
					t.Fatalf("got Location %q, want %q", got, "/")
				}
				if w.Body.Len() != 0 {
					t.Fatalf("expected empty body, got %q", w.Body.String())
				}
			}

			if len(tt.wantErrors) > 0 {
				msgs := decodeErrors(t, w.Body)
				if len(msgs) != len(tt.wantErrors) {
					t.Fatalf("got %v, want %v", msgs, tt.wantErrors)
				}
				for i, want := range tt.wantErrors {
					if msgs[i] != want {
						t.Fatalf("error %d: got %q, want %q", i, msgs[i], want)
					}
				}
			}
		})
	}
}

func TestCreateUserHandler_NeverStoresPlaintext(t *testing.T) {
	var storedHash string

	store := &fakeUsersStore{
		createFn: func(ctx context.Context, firstName, lastName, email, passwordHash string) (user.User, error) {
			storedHash = passwordHash
			return user.User{ID: 1, EmailAddress: email}, nil
		},
	}

	h := handlers.NewUsersHandler(store)
	r := setupRouter(http.MethodPost, "/users", h.CreateUser)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodPost, "/users",
		`{"firstName": "Joe", "lastName": "Smith", "emailAddress": "joe@smith.com", "password": "secret1"}`))

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if storedHash == "" || storedHash == "secret1" {
		t.Fatalf("store received %q, want a bcrypt hash", storedHash)
	}
}
