package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/mfaisal/fittrack/internal/auth"
	"github.com/mfaisal/fittrack/internal/geo"
	"github.com/mfaisal/fittrack/internal/handler"
	"github.com/mfaisal/fittrack/internal/mail"
	"github.com/mfaisal/fittrack/internal/model"
	"github.com/mfaisal/fittrack/internal/repository/sqlite"
	"github.com/mfaisal/fittrack/internal/service"
)

// recordingMailer captures outgoing mail so tests can read the reset
// link out of the message body.
type recordingMailer struct {
	Sent      []mail.Message
	ReturnErr error
}

func (m *recordingMailer) Send(ctx context.Context, msg mail.Message) error {
	if m.ReturnErr != nil {
		return m.ReturnErr
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

// testAPI wires the full stack — handlers, services, in-memory SQLite —
// behind the same routes the real server mounts, so tests exercise
// routing, middleware, and JSON envelopes together.
type testAPI struct {
	router chi.Router
	mailer *recordingMailer
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("create token service: %v", err)
	}

	mailer := &recordingMailer{}

	authSvc := service.NewAuthService(
		db.Users(),
		tokens,
		auth.NewPasswordServiceForTest(4),
		auth.NewResetTokenService(),
		mailer,
		geo.NewStaticGeocoder(),
		logger,
	)
	exerciseSvc := service.NewExerciseService(db.Exercises(), logger)
	workoutSvc := service.NewWorkoutService(db.Workouts(), db.Exercises(), logger)

	authHandler := handler.NewAuthHandler(authSvc, time.Hour, false, logger)
	exerciseHandler := handler.NewExerciseHandler(exerciseSvc, logger)
	workoutHandler := handler.NewWorkoutHandler(workoutSvc, logger)

	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/logout", authHandler.HandleLogout)
		r.Post("/recover-password", authHandler.HandleRecoverPassword)
		r.Put("/recover-password/{resetToken}", authHandler.HandleCompleteRecoverPassword)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/me", authHandler.HandleMe)
			r.Put("/update-details", authHandler.HandleUpdateDetails)
			r.Put("/update-password", authHandler.HandleUpdatePassword)
		})
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Route("/exercises", func(r chi.Router) {
			r.Get("/", exerciseHandler.HandleList)
			r.Post("/", exerciseHandler.HandleCreate)
			r.Get("/{id}", exerciseHandler.HandleGet)
			r.Put("/{id}", exerciseHandler.HandleUpdate)
			r.Delete("/{id}", exerciseHandler.HandleDelete)
		})
		r.Route("/workouts", func(r chi.Router) {
			r.Get("/", workoutHandler.HandleListOwn)
			r.Post("/", workoutHandler.HandleCreate)
			r.Get("/public", workoutHandler.HandleListPublic)
			r.Get("/{id}", workoutHandler.HandleGet)
			r.Put("/{id}", workoutHandler.HandleUpdate)
			r.Delete("/{id}", workoutHandler.HandleDelete)
		})
	})

	return &testAPI{router: r, mailer: mailer}
}

// do performs a request against the test router. An empty token means
// an anonymous request; otherwise it is sent as a Bearer header.
func (api *testAPI) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	api.router.ServeHTTP(rr, req)
	return rr
}

// register creates a user through the API and returns its session token.
func (api *testAPI) register(t *testing.T, name, email string) string {
	t.Helper()

	body := fmt.Sprintf(`{"name":%q,"email":%q,"password":"sixchars"}`, name, email)
	rr := api.do(t, http.MethodPost, "/auth/register", "", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("register %s: status %d, body %s", email, rr.Code, rr.Body.String())
	}

	var res struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return res.Token
}

// sessionCookie finds the "token" cookie in the recorded response.
func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	t.Fatal("no token cookie in response")
	return nil
}

func TestRegister(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodPost, "/auth/register", "",
		`{"name":"Aisha","email":"aisha@example.com","password":"sixchars","address":"12 Main St, Springfield"}`)

	assert.Equal(t, http.StatusOK, rr.Code)

	cookie := sessionCookie(t, rr)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)
	assert.Equal(t, int(time.Hour.Seconds()), cookie.MaxAge)

	var res struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.True(t, res.Success)
	assert.Equal(t, cookie.Value, res.Token)

	// The token works straight away.
	me := api.do(t, http.MethodGet, "/auth/me", res.Token, "")
	assert.Equal(t, http.StatusOK, me.Code)

	var profile struct {
		Data model.User `json:"data"`
	}
	assert.NoError(t, json.NewDecoder(me.Body).Decode(&profile))
	assert.Equal(t, "aisha@example.com", profile.Data.Email)
	assert.Equal(t, model.RoleUser, profile.Data.Role)
	assert.Equal(t, "12 Main St, Springfield", profile.Data.Location.FormattedAddress)
}

func TestRegister_Validation(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{"name":`},
		{"bad email", `{"name":"A","email":"not-an-email","password":"sixchars"}`},
		{"short password", `{"name":"A","email":"a@example.com","password":"abc"}`},
		{"admin role rejected", `{"name":"A","email":"a@example.com","password":"sixchars","role":"admin"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := api.do(t, http.MethodPost, "/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)

			var res struct {
				Success bool   `json:"success"`
				Error   string `json:"error"`
			}
			assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
			assert.False(t, res.Success)
			assert.NotEmpty(t, res.Error)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "First", "dup@example.com")

	rr := api.do(t, http.MethodPost, "/auth/register", "",
		`{"name":"Second","email":"dup@example.com","password":"sixchars"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "Aisha", "aisha@example.com")

	rr := api.do(t, http.MethodPost, "/auth/login", "",
		`{"email":"aisha@example.com","password":"sixchars"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, sessionCookie(t, rr).Value)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "Aisha", "aisha@example.com")

	wrongPassword := api.do(t, http.MethodPost, "/auth/login", "",
		`{"email":"aisha@example.com","password":"wrong-pass"}`)
	unknownEmail := api.do(t, http.MethodPost, "/auth/login", "",
		`{"email":"nobody@example.com","password":"whatever"}`)

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	// Same status AND same body: the response must not reveal whether
	// the email exists.
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	api := newTestAPI(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/auth/me"},
		{http.MethodPut, "/auth/update-details"},
		{http.MethodGet, "/exercises"},
		{http.MethodPost, "/workouts"},
	}

	var firstBody string
	for _, p := range paths {
		rr := api.do(t, p.method, p.path, "", "{}")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", p.method, p.path)
		if firstBody == "" {
			firstBody = rr.Body.String()
			continue
		}
		assert.Equal(t, firstBody, rr.Body.String(), "%s %s", p.method, p.path)
	}
}

func TestAuth_CookieAccepted(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "Aisha", "aisha@example.com")

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rr := httptest.NewRecorder()
	api.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuth_GarbageTokenRejected(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodGet, "/auth/me", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogout_ClearsCookie(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodGet, "/auth/logout", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	cookie := sessionCookie(t, rr)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func TestUpdateDetails(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "Aisha", "aisha@example.com")

	rr := api.do(t, http.MethodPut, "/auth/update-details", token,
		`{"name":"Aisha Khan","email":"aisha.khan@example.com"}`)
	assert.Equal(t, http.StatusOK, rr.Code)

	var res struct {
		Data model.User `json:"data"`
	}
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, "Aisha Khan", res.Data.Name)
	assert.Equal(t, "aisha.khan@example.com", res.Data.Email)
}

func TestUpdatePassword(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "Aisha", "aisha@example.com")

	t.Run("wrong current password", func(t *testing.T) {
		rr := api.do(t, http.MethodPut, "/auth/update-password", token,
			`{"currentPassword":"wrong-pass","newPassword":"newsixchars"}`)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("success rotates the session", func(t *testing.T) {
		rr := api.do(t, http.MethodPut, "/auth/update-password", token,
			`{"currentPassword":"sixchars","newPassword":"newsixchars"}`)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NotEmpty(t, sessionCookie(t, rr).Value)

		// Old password no longer logs in, the new one does.
		old := api.do(t, http.MethodPost, "/auth/login", "",
			`{"email":"aisha@example.com","password":"sixchars"}`)
		assert.Equal(t, http.StatusUnauthorized, old.Code)

		fresh := api.do(t, http.MethodPost, "/auth/login", "",
			`{"email":"aisha@example.com","password":"newsixchars"}`)
		assert.Equal(t, http.StatusOK, fresh.Code)
	})
}

func TestRecoverPassword_UnknownEmailLooksNormal(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodPost, "/auth/recover-password", "",
		`{"email":"nobody@example.com"}`)

	// 200 with the standard message, and no mail actually sent.
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Email sent")
	assert.Empty(t, api.mailer.Sent)
}

func TestRecoverPassword_MailFailure(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "Aisha", "aisha@example.com")
	api.mailer.ReturnErr = fmt.Errorf("smtp: connection refused")

	rr := api.do(t, http.MethodPost, "/auth/recover-password", "",
		`{"email":"aisha@example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "email could not be sent")
}

func TestPasswordResetFlow(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "Aisha", "aisha@example.com")

	rr := api.do(t, http.MethodPost, "/auth/recover-password", "",
		`{"email":"aisha@example.com"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	if len(api.mailer.Sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(api.mailer.Sent))
	}

	// The reset link ends in the plaintext token.
	body := api.mailer.Sent[0].Body
	resetToken := body[strings.LastIndex(body, "/")+1:]
	assert.NotEmpty(t, resetToken)

	reset := api.do(t, http.MethodPut, "/auth/recover-password/"+resetToken, "",
		`{"password":"resetsixchars"}`)
	assert.Equal(t, http.StatusOK, reset.Code)
	assert.NotEmpty(t, sessionCookie(t, reset).Value)

	login := api.do(t, http.MethodPost, "/auth/login", "",
		`{"email":"aisha@example.com","password":"resetsixchars"}`)
	assert.Equal(t, http.StatusOK, login.Code)

	// The token is single-use.
	again := api.do(t, http.MethodPut, "/auth/recover-password/"+resetToken, "",
		`{"password":"anothersix"}`)
	assert.Equal(t, http.StatusUnauthorized, again.Code)
}

func TestPasswordResetFlow_ForgedToken(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodPut, "/auth/recover-password/deadbeefdeadbeefdeadbeefdeadbeefdeadbeef", "",
		`{"password":"resetsixchars"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
