// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

// auth_flow_test.go contains handler integration tests for the Auth handler
// methods: LoginPage, LoginSubmit, TwoFASetupPage, TwoFAVerifyPage,
// TwoFAVerifySubmit, and Logout. Tests exercise real database and Valkey
// connections; they are skipped when those services are unavailable.
package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"

	"movilia/internal/session"
)

const seededAdminEmail = "admin@movilia.local"

// --------------------------------------------------------------------------
// LoginPage
// --------------------------------------------------------------------------

func TestLoginPage_ReturnsHTML(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/login", nil)
	rec := httptest.NewRecorder()

	env.Auth.LoginPage(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	ct := rec.Header().Get("Content-Type")
	if !strings.Contains(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}
}

// A fully authenticated session skips the login page entirely.
func TestLoginPage_AuthenticatedRedirectsToDashboard(t *testing.T) {
	env := newTestEnv(t)

	sess := testSession(uuid.New(), seededAdminEmail, "admin", true)
	req := httptest.NewRequest(http.MethodGet, "/admin/login", nil)
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	env.Auth.LoginPage(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	loc := rec.Header().Get("Location")
	if loc != "/admin/dashboard" {
		t.Errorf("Location: got %q, want /admin/dashboard", loc)
	}
}

// A session whose 2FA step is still pending does not redirect.
func TestLoginPage_PartialSessionDoesNotRedirect(t *testing.T) {
	env := newTestEnv(t)

	sess := testSession(uuid.New(), seededAdminEmail, "admin", false)
	req := httptest.NewRequest(http.MethodGet, "/admin/login", nil)
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	env.Auth.LoginPage(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d (partial session should show login)", rec.Code, http.StatusOK)
	}
}

// --------------------------------------------------------------------------
// LoginSubmit
// --------------------------------------------------------------------------

// The seeded admin user with TOTP reset lands on the 2FA setup page after a
// successful password check.
func TestLoginSubmit_ValidCredentials(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.UserStore.FindByEmail(seededAdminEmail)
	if err != nil || user == nil {
		t.Skip("skipping: seeded admin user not found, run seed first")
	}

	if err := env.UserStore.ResetTOTP(user.ID); err != nil {
		t.Fatalf("reset totp: %v", err)
	}

	form := url.Values{}
	form.Set("email", seededAdminEmail)
	form.Set("password", "admin")

	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	env.Auth.LoginSubmit(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}

	loc := rec.Header().Get("Location")
	if loc != "/admin/2fa/setup" && loc != "/admin/2fa/verify" {
		t.Errorf("Location: got %q, want /admin/2fa/setup or /admin/2fa/verify", loc)
	}

	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.Value != "" {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected %s cookie to be set after successful login", session.CookieName)
	}
}

func TestLoginSubmit_ValidCredentials_TOTPEnabled(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.UserStore.FindByEmail(seededAdminEmail)
	if err != nil || user == nil {
		t.Skip("skipping: seeded admin user not found, run seed first")
	}

	if err := env.UserStore.SetTOTPSecret(user.ID, "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("set totp secret: %v", err)
	}
	if err := env.UserStore.EnableTOTP(user.ID); err != nil {
		t.Fatalf("enable totp: %v", err)
	}
	t.Cleanup(func() { env.UserStore.ResetTOTP(user.ID) })

	form := url.Values{}
	form.Set("email", seededAdminEmail)
	form.Set("password", "admin")

	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	env.Auth.LoginSubmit(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/2fa/verify" {
		t.Errorf("Location: got %q, want /admin/2fa/verify", loc)
	}
}

func TestLoginSubmit_InvalidPassword(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.UserStore.FindByEmail(seededAdminEmail)
	if err != nil || user == nil {
		t.Skip("skipping: seeded admin user not found, run seed first")
	}

	form := url.Values{}
	form.Set("email", seededAdminEmail)
	form.Set("password", "wrong-password-definitely-not-correct")

	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	env.Auth.LoginSubmit(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d (should re-render login)", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Credenciales no válidas.") {
		t.Error("expected error message in response body")
	}
}

func TestLoginSubmit_NonexistentEmail(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{}
	form.Set("email", "nadie@example.com")
	form.Set("password", "irrelevante")

	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	env.Auth.LoginSubmit(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d (should re-render login)", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Credenciales no válidas.") {
		t.Error("expected error message in response body")
	}
}

// --------------------------------------------------------------------------
// TwoFASetupPage
// --------------------------------------------------------------------------

func TestTwoFASetupPage_NoSession(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/2fa/setup", nil)
	rec := httptest.NewRecorder()

	env.Auth.TwoFASetupPage(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/login" {
		t.Errorf("Location: got %q, want /admin/login", loc)
	}
}

func TestTwoFASetupPage_WithSession(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.UserStore.FindByEmail(seededAdminEmail)
	if err != nil || user == nil {
		t.Skip("skipping: seeded admin user not found, run seed first")
	}

	if err := env.UserStore.ResetTOTP(user.ID); err != nil {
		t.Fatalf("reset totp: %v", err)
	}

	sess := testSession(user.ID, user.Email, string(user.Role), false)
	req := httptest.NewRequest(http.MethodGet, "/admin/2fa/setup", nil)
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	env.Auth.TwoFASetupPage(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "data:image/png;base64,") {
		t.Error("expected QR code data in the 2FA setup page response")
	}
}

// A user with TOTP fully enabled cannot re-run setup.
func TestTwoFASetupPage_AlreadyEnabled(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.UserStore.FindByEmail(seededAdminEmail)
	if err != nil || user == nil {
		t.Skip("skipping: seeded admin user not found, run seed first")
	}

	if err := env.UserStore.SetTOTPSecret(user.ID, "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("set totp secret: %v", err)
	}
	if err := env.UserStore.EnableTOTP(user.ID); err != nil {
		t.Fatalf("enable totp: %v", err)
	}
	t.Cleanup(func() { env.UserStore.ResetTOTP(user.ID) })

	sess := testSession(user.ID, user.Email, string(user.Role), false)
	req := httptest.NewRequest(http.MethodGet, "/admin/2fa/setup", nil)
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	env.Auth.TwoFASetupPage(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/dashboard" {
		t.Errorf("Location: got %q, want /admin/dashboard", loc)
	}
}

// --------------------------------------------------------------------------
// TwoFAVerifyPage
// --------------------------------------------------------------------------

func TestTwoFAVerifyPage_NoSession(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/2fa/verify", nil)
	rec := httptest.NewRecorder()

	env.Auth.TwoFAVerifyPage(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/login" {
		t.Errorf("Location: got %q, want /admin/login", loc)
	}
}

func TestTwoFAVerifyPage_WithSession(t *testing.T) {
	env := newTestEnv(t)

	sess := testSession(uuid.New(), seededAdminEmail, "admin", false)
	req := httptest.NewRequest(http.MethodGet, "/admin/2fa/verify", nil)
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	env.Auth.TwoFAVerifyPage(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	ct := rec.Header().Get("Content-Type")
	if !strings.Contains(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}
}

// --------------------------------------------------------------------------
// TwoFAVerifySubmit
// --------------------------------------------------------------------------

func TestTwoFAVerifySubmit_NoSession(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{}
	form.Set("code", "123456")

	req := httptest.NewRequest(http.MethodPost, "/admin/2fa/verify", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	env.Auth.TwoFAVerifySubmit(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/login" {
		t.Errorf("Location: got %q, want /admin/login", loc)
	}
}

func TestTwoFAVerifySubmit_InvalidCode(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.UserStore.FindByEmail(seededAdminEmail)
	if err != nil || user == nil {
		t.Skip("skipping: seeded admin user not found, run seed first")
	}

	if err := env.UserStore.SetTOTPSecret(user.ID, "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("set totp secret: %v", err)
	}
	if err := env.UserStore.EnableTOTP(user.ID); err != nil {
		t.Fatalf("enable totp: %v", err)
	}
	t.Cleanup(func() { env.UserStore.ResetTOTP(user.ID) })

	sess := testSession(user.ID, user.Email, string(user.Role), false)

	form := url.Values{}
	form.Set("code", "000000")

	req := httptest.NewRequest(http.MethodPost, "/admin/2fa/verify", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	env.Auth.TwoFAVerifySubmit(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d (should re-render form)", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Código no válido") {
		t.Error("expected invalid-code error message in response body")
	}
}

// --------------------------------------------------------------------------
// Logout
// --------------------------------------------------------------------------

func TestLogout_RedirectsToLogin(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.UserStore.FindByEmail(seededAdminEmail)
	if err != nil || user == nil {
		t.Skip("skipping: seeded admin user not found, run seed first")
	}

	createRec := httptest.NewRecorder()
	ctx := context.Background()
	sessID, err := env.Sessions.Create(ctx, createRec, &session.Data{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      string(user.Role),
		TwoFADone: true,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sessID == "" {
		t.Fatal("session ID should not be empty")
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/logout", nil)
	for _, c := range createRec.Result().Cookies() {
		req.AddCookie(c)
	}
	sess := testSession(user.ID, user.Email, string(user.Role), true)
	req = req.WithContext(ctxWithSession(req.Context(), sess))

	rec := httptest.NewRecorder()
	env.Auth.Logout(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/login" {
		t.Errorf("Location: got %q, want /admin/login", loc)
	}

	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			if c.MaxAge >= 0 {
				t.Errorf("expected %s MaxAge < 0 (cleared), got %d", session.CookieName, c.MaxAge)
			}
			break
		}
	}
}

func TestLogout_NoCookie(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/logout", nil)
	rec := httptest.NewRecorder()

	env.Auth.Logout(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/login" {
		t.Errorf("Location: got %q, want /admin/login", loc)
	}
}
