package controller

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bheruji/learnflow-backend/config"
	"github.com/bheruji/learnflow-backend/internal/app/repository"
	"github.com/bheruji/learnflow-backend/internal/app/service"
	"github.com/bheruji/learnflow-backend/internal/db"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testMailer records dispatched codes so tests can replay them.
type testMailer struct {
	codes chan string
}

func newTestMailer() *testMailer {
	return &testMailer{codes: make(chan string, 8)}
}

func (m *testMailer) SendOTP(toEmail, code string) error {
	m.codes <- code
	return nil
}

func (m *testMailer) waitForCode(t *testing.T) string {
	t.Helper()
	select {
	case code := <-m.codes:
		return code
	case <-time.After(2 * time.Second):
		t.Fatal("no OTP was dispatched")
		return ""
	}
}

func testOTPConfig() config.OTPConfig {
	return config.OTPConfig{
		CodeLength:   6,
		SignupExpiry: 2 * time.Minute,
		ResetExpiry:  5 * time.Minute,
		MaxAttempts:  5,
	}
}

func setupAuthControllerTest(t *testing.T) (*gin.Engine, *testMailer) {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB(t)
	require.NoError(t, err)

	mail := newTestMailer()
	authService := service.NewAuthService(
		repository.NewStudentRepository(testDB),
		repository.NewProfileRepository(testDB),
		mail,
		testDB,
		"test-secret",
		24*time.Hour,
		testOTPConfig(),
	)

	ctrl := NewAuthController(authService)

	router := gin.New()
	router.POST("/sign_up", ctrl.SignUp)
	router.POST("/sign_up/verify", ctrl.VerifySignUp)
	router.POST("/login", ctrl.Login)
	router.POST("/forgotpassword", ctrl.ForgotPassword)
	router.POST("/reset-password", ctrl.ResetPassword)

	return router, mail
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func signUpBody(email string) SignUpRequest {
	return SignUpRequest{
		FullName: "Test Student",
		Username: "teststudent",
		Email:    email,
		MobileNo: "9876543210",
		Password: "password123",
	}
}

func TestAuthController_SignUpFlow(t *testing.T) {
	router, mail := setupAuthControllerTest(t)

	w := postJSON(t, router, "/sign_up", signUpBody("flow@example.com"))
	assert.Equal(t, http.StatusCreated, w.Code)
	code := mail.waitForCode(t)

	t.Run("Duplicate request is rate limited", func(t *testing.T) {
		w := postJSON(t, router, "/sign_up", signUpBody("flow@example.com"))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "OTP_PENDING")
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
	})

	t.Run("Wrong code returns attempts remaining", func(t *testing.T) {
		w := postJSON(t, router, "/sign_up/verify", VerifySignUpRequest{
			Email: "flow@example.com",
			OTP:   "000000",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "OTP_INVALID_CODE")
		assert.Contains(t, w.Body.String(), "4 attempts remaining")
	})

	t.Run("Correct code completes registration", func(t *testing.T) {
		w := postJSON(t, router, "/sign_up/verify", VerifySignUpRequest{
			Email: "flow@example.com",
			OTP:   code,
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.NotNil(t, response["student"])
	})

	t.Run("Replay fails", func(t *testing.T) {
		w := postJSON(t, router, "/sign_up/verify", VerifySignUpRequest{
			Email: "flow@example.com",
			OTP:   code,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "OTP_INVALID_OR_EXPIRED")
	})

	t.Run("Login succeeds after verification", func(t *testing.T) {
		w := postJSON(t, router, "/login", LoginRequest{
			Email:    "flow@example.com",
			Password: "password123",
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.NotEmpty(t, response["access_token"])
		assert.Equal(t, "bearer", response["token_type"])
		assert.Equal(t, false, response["profile_completed"])
	})
}

func TestAuthController_SignUp_Validation(t *testing.T) {
	router, _ := setupAuthControllerTest(t)

	tests := []struct {
		name string
		body SignUpRequest
	}{
		{
			name: "Bad email",
			body: SignUpRequest{FullName: "A", Username: "abc", Email: "not-an-email", MobileNo: "1", Password: "password123"},
		},
		{
			name: "Short password",
			body: SignUpRequest{FullName: "A", Username: "abc", Email: "a@example.com", MobileNo: "1", Password: "short"},
		},
		{
			name: "Missing username",
			body: SignUpRequest{FullName: "A", Email: "a@example.com", MobileNo: "1", Password: "password123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/sign_up", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "VALIDATION_INVALID_INPUT")
		})
	}
}

func TestAuthController_Login_Failures(t *testing.T) {
	router, mail := setupAuthControllerTest(t)

	w := postJSON(t, router, "/sign_up", signUpBody("loginfail@example.com"))
	require.Equal(t, http.StatusCreated, w.Code)
	code := mail.waitForCode(t)
	w = postJSON(t, router, "/sign_up/verify", VerifySignUpRequest{Email: "loginfail@example.com", OTP: code})
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("Wrong password", func(t *testing.T) {
		w := postJSON(t, router, "/login", LoginRequest{Email: "loginfail@example.com", Password: "wrongpassword"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "AUTH_INVALID_CREDENTIALS")
	})

	t.Run("Unknown email gets the same response", func(t *testing.T) {
		w := postJSON(t, router, "/login", LoginRequest{Email: "ghost@example.com", Password: "wrongpassword"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "AUTH_INVALID_CREDENTIALS")
	})
}

func TestAuthController_PasswordResetFlow(t *testing.T) {
	router, mail := setupAuthControllerTest(t)

	w := postJSON(t, router, "/sign_up", signUpBody("resetflow@example.com"))
	require.Equal(t, http.StatusCreated, w.Code)
	code := mail.waitForCode(t)
	w = postJSON(t, router, "/sign_up/verify", VerifySignUpRequest{Email: "resetflow@example.com", OTP: code})
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("Unknown email still returns 200", func(t *testing.T) {
		w := postJSON(t, router, "/forgotpassword", ForgotPasswordRequest{Email: "ghost@example.com"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	w = postJSON(t, router, "/forgotpassword", ForgotPasswordRequest{Email: "resetflow@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	resetCode := mail.waitForCode(t)

	t.Run("Reset for unknown email", func(t *testing.T) {
		w := postJSON(t, router, "/reset-password", ResetPasswordRequest{
			Email:       "ghost@example.com",
			OTP:         resetCode,
			NewPassword: "newpassword1",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Reset and login with the new password", func(t *testing.T) {
		w := postJSON(t, router, "/reset-password", ResetPasswordRequest{
			Email:       "resetflow@example.com",
			OTP:         resetCode,
			NewPassword: "newpassword1",
		})
		assert.Equal(t, http.StatusOK, w.Code)

		w = postJSON(t, router, "/login", LoginRequest{Email: "resetflow@example.com", Password: "newpassword1"})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

// signUpFailingAuthService returns a canned error from SignUp so the
// handler's fallback mapping can be exercised directly.
type signUpFailingAuthService struct {
	service.AuthService
	signUpErr error
}

func (s *signUpFailingAuthService) SignUp(service.SignUpInput) error {
	return s.signUpErr
}

func TestAuthController_SignUp_IssuanceRaceMapsToBadRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// The error shape a second concurrent sign-up sees when its
	// verifications insert collides on the email unique index.
	ctrl := NewAuthController(&signUpFailingAuthService{
		signUpErr: errors.New(`duplicate key value violates unique constraint "idx_verifications_email"`),
	})
	router := gin.New()
	router.POST("/sign_up", ctrl.SignUp)

	w := postJSON(t, router, "/sign_up", SignUpRequest{
		FullName: "Race Loser",
		Username: "raceloser",
		Email:    "raceloser@example.com",
		MobileNo: "9876543210",
		Password: "password123",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_EMAIL_EXISTS")
}
