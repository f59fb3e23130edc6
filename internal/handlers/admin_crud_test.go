// Copyright (c) 2026 Servicio de Programas Europeos <programas@movilia.eu>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"

	"movilia/internal/models"
)

// --- Dashboard ---

func TestDashboard_Returns200(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req = req.WithContext(ctxWithSession(req.Context(), adminSession(t, env.DB)))

	rec := httptest.NewRecorder()
	env.Admin.Dashboard(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Dashboard: got status %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Dashboard: Content-Type = %q, want text/html", ct)
	}
}

// --- Calls ---

func TestCallsList_Returns200(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/convocatorias", nil)
	rec := httptest.NewRecorder()
	env.Admin.CallsList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("CallsList: got status %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestCallNew_Returns200(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/convocatorias/nueva", nil)
	rec := httptest.NewRecorder()
	env.Admin.CallNew(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("CallNew: got status %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestCallCreate_ValidData_RedirectsToDetail(t *testing.T) {
	env := newTestEnv(t)

	title := "Convocatoria de prueba " + uuid.New().String()[:8]
	t.Cleanup(func() { env.DB.Exec("DELETE FROM calls WHERE title = $1", title) })

	form := url.Values{}
	form.Set("title", title)
	form.Set("type", "alumnado")
	form.Set("modality", "corta")
	form.Set("number_of_places", "10")
	form.Set("destinations", "Lisboa (Portugal)\nTurín (Italia)")
	form.Add("scoring_concept[]", "Expediente académico")
	form.Add("scoring_max_points[]", "6")

	req := httptest.NewRequest(http.MethodPost, "/admin/convocatorias", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(ctxWithSession(req.Context(), adminSession(t, env.DB)))

	rec := httptest.NewRecorder()
	env.Admin.CallCreate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("CallCreate valid: got status %d, want %d; body: %s",
			rec.Code, http.StatusSeeOther, rec.Body.String()[:min(rec.Body.Len(), 500)])
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/admin/convocatorias/") {
		t.Errorf("CallCreate valid: redirect to %q, want /admin/convocatorias/{id}", loc)
	}
}

func TestCallCreate_MissingTitle_ReRendersForm(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{}
	form.Set("title", "")
	form.Set("type", "alumnado")
	form.Set("modality", "corta")
	form.Set("number_of_places", "10")
	form.Set("destinations", "Lisboa (Portugal)")
	form.Add("scoring_concept[]", "Expediente académico")
	form.Add("scoring_max_points[]", "6")

	req := httptest.NewRequest(http.MethodPost, "/admin/convocatorias", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(ctxWithSession(req.Context(), adminSession(t, env.DB)))

	rec := httptest.NewRecorder()
	env.Admin.CallCreate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("CallCreate missing title: got status %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Este campo es obligatorio.") {
		t.Error("CallCreate missing title: response should contain validation error")
	}
}

func TestCallCreate_NoDestinations_ReRendersForm(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{}
	form.Set("title", "Sin destinos")
	form.Set("type", "alumnado")
	form.Set("modality", "corta")
	form.Set("number_of_places", "5")
	form.Set("destinations", "\n\n")
	form.Add("scoring_concept[]", "Expediente académico")
	form.Add("scoring_max_points[]", "6")

	req := httptest.NewRequest(http.MethodPost, "/admin/convocatorias", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(ctxWithSession(req.Context(), adminSession(t, env.DB)))

	rec := httptest.NewRecorder()
	env.Admin.CallCreate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("CallCreate no destinations: got status %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Indica al menos un destino.") {
		t.Error("CallCreate no destinations: response should flag the destinations field")
	}
}

func TestCallEdit_InvalidUUID_Returns400(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/convocatorias/no-es-uuid/editar", nil)
	req = withChiURLParam(req, "id", "no-es-uuid")

	rec := httptest.NewRecorder()
	env.Admin.CallEdit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("CallEdit invalid UUID: got status %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCallDetail_NonExistent_Returns404(t *testing.T) {
	env := newTestEnv(t)

	fakeID := uuid.New().String()
	req := httptest.NewRequest(http.MethodGet, "/admin/convocatorias/"+fakeID, nil)
	req = withChiURLParam(req, "id", fakeID)

	rec := httptest.NewRecorder()
	env.Admin.CallDetail(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("CallDetail non-existent: got status %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCallValidateField_EmptyTitle_ReturnsMessage(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{}
	form.Set("field", "title")
	form.Set("title", "")

	req := httptest.NewRequest(http.MethodPost, "/admin/convocatorias/validar-campo", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	env.Admin.CallValidateField(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("CallValidateField: got status %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Este campo es obligatorio.") {
		t.Errorf("CallValidateField empty title: body = %q, want required-field message", rec.Body.String())
	}
}

func TestCallValidateField_ValidTitle_ReturnsEmptyBody(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{}
	form.Set("field", "title")
	form.Set("title", "Convocatoria con título válido")

	req := httptest.NewRequest(http.MethodPost, "/admin/convocatorias/validar-campo", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	env.Admin.CallValidateField(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("CallValidateField valid: got status %d, want %d", rec.Code, http.StatusOK)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "" {
		t.Errorf("CallValidateField valid title: body = %q, want empty", body)
	}
}

func TestCallChangeStatus_ValidTransition_Redirects(t *testing.T) {
	env := newTestEnv(t)

	slug := "test-call-status-" + uuid.New().String()[:8]
	t.Cleanup(func() { cleanCalls(t, env.DB, slug) })

	actorID := testAdminID(t, env.DB)
	call := createTestCall(t, env, actorID, "Cambio de estado", slug)

	form := url.Values{}
	form.Set("status", "abierta")

	req := httptest.NewRequest(http.MethodPost, "/admin/convocatorias/"+call.ID.String()+"/estado", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = withChiURLParamAndSession(req, "id", call.ID.String(), adminSession(t, env.DB))

	rec := httptest.NewRecorder()
	env.Admin.CallChangeStatus(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("CallChangeStatus valid: got status %d, want %d", rec.Code, http.StatusSeeOther)
	}

	updated, err := env.CallStore.FindByID(call.ID)
	if err != nil {
		t.Fatalf("FindByID after status change: %v", err)
	}
	if updated.Status != models.CallStatusAbierta {
		t.Errorf("status = %q, want %q", updated.Status, models.CallStatusAbierta)
	}
}

func TestCallChangeStatus_InvalidTransition_HTMXGets409(t *testing.T) {
	env := newTestEnv(t)

	slug := "test-call-badstatus-" + uuid.New().String()[:8]
	t.Cleanup(func() { cleanCalls(t, env.DB, slug) })

	actorID := testAdminID(t, env.DB)
	call := createTestCall(t, env, actorID, "Transición prohibida", slug)

	// borrador may not jump straight to resuelta.
	form := url.Values{}
	form.Set("status", "resuelta")

	req := httptest.NewRequest(http.MethodPost, "/admin/convocatorias/"+call.ID.String()+"/estado", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	req = withChiURLParamAndSession(req, "id", call.ID.String(), adminSession(t, env.DB))

	rec := httptest.NewRecorder()
	env.Admin.CallChangeStatus(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("CallChangeStatus invalid: got status %d, want %d", rec.Code, http.StatusConflict)
	}
	if trigger := rec.Header().Get("HX-Trigger"); !strings.Contains(trigger, "call-status-error") {
		t.Errorf("HX-Trigger = %q, want call-status-error event", trigger)
	}

	unchanged, _ := env.CallStore.FindByID(call.ID)
	if unchanged.Status != models.CallStatusBorrador {
		t.Errorf("status = %q, want unchanged borrador", unchanged.Status)
	}
}

func TestCallDelete_WithPhases_HTMXGets409(t *testing.T) {
	env := newTestEnv(t)

	slug := "test-call-guard-" + uuid.New().String()[:8]
	t.Cleanup(func() { cleanCalls(t, env.DB, slug) })

	actorID := testAdminID(t, env.DB)
	call := createTestCall(t, env, actorID, "Con fases", slug)
	if _, err := env.PhaseStore.Create(&models.CallPhase{
		CallID:    call.ID,
		Name:      "Presentación de solicitudes",
		PhaseType: models.PhaseTypeSolicitud,
	}); err != nil {
		t.Fatalf("create phase: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/admin/convocatorias/"+call.ID.String(), nil)
	req.Header.Set("HX-Request", "true")
	req = withChiURLParamAndSession(req, "id", call.ID.String(), adminSession(t, env.DB))

	rec := httptest.NewRecorder()
	env.Admin.CallDelete(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("CallDelete guarded: got status %d, want %d", rec.Code, http.StatusConflict)
	}
	if trigger := rec.Header().Get("HX-Trigger"); !strings.Contains(trigger, "fases") {
		t.Errorf("HX-Trigger = %q, want dependent phase counts", trigger)
	}

	still, _ := env.CallStore.FindByID(call.ID)
	if still == nil || still.DeletedAt != nil {
		t.Error("guarded call should remain undeleted")
	}
}

func TestCallDelete_ThenRestore(t *testing.T) {
	env := newTestEnv(t)

	slug := "test-call-trash-" + uuid.New().String()[:8]
	t.Cleanup(func() { cleanCalls(t, env.DB, slug) })

	actorID := testAdminID(t, env.DB)
	call := createTestCall(t, env, actorID, "A la papelera", slug)

	req := httptest.NewRequest(http.MethodDelete, "/admin/convocatorias/"+call.ID.String(), nil)
	req = withChiURLParamAndSession(req, "id", call.ID.String(), adminSession(t, env.DB))
	rec := httptest.NewRecorder()
	env.Admin.CallDelete(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("CallDelete: got status %d, want %d", rec.Code, http.StatusSeeOther)
	}
	trashed, _ := env.CallStore.FindByID(call.ID)
	if trashed == nil || trashed.DeletedAt == nil {
		t.Fatal("call should be soft-deleted")
	}

	req = httptest.NewRequest(http.MethodPost, "/admin/convocatorias/"+call.ID.String()+"/restaurar", nil)
	req = withChiURLParamAndSession(req, "id", call.ID.String(), adminSession(t, env.DB))
	rec = httptest.NewRecorder()
	env.Admin.CallRestore(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("CallRestore: got status %d, want %d", rec.Code, http.StatusSeeOther)
	}
	restored, _ := env.CallStore.FindByID(call.ID)
	if restored == nil || restored.DeletedAt != nil {
		t.Error("call should be restored from the trash")
	}
}

// --- Translations ---

func TestTranslationCreate_Valid_Redirects(t *testing.T) {
	env := newTestEnv(t)

	slug := "test-call-tr-" + uuid.New().String()[:8]
	code := "x" + uuid.New().String()[:1]
	t.Cleanup(func() {
		cleanTranslations(t, env.DB, "title_test")
		cleanCalls(t, env.DB, slug)
		cleanLanguages(t, env.DB, code)
	})

	actorID := testAdminID(t, env.DB)
	call := createTestCall(t, env, actorID, "Convocatoria traducida", slug)
	lang := createTestLanguage(t, env, "Inglés de prueba", code)

	form := url.Values{}
	form.Set("translatable_type", "call")
	form.Set("translatable_id", call.ID.String())
	form.Set("language_id", lang.ID.String())
	form.Set("field", "title_test")
	form.Set("value", "Translated call title")

	req := httptest.NewRequest(http.MethodPost, "/admin/traducciones", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(ctxWithSession(req.Context(), adminSession(t, env.DB)))

	rec := httptest.NewRecorder()
	env.Admin.TranslationCreate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("TranslationCreate valid: got status %d, want %d; body: %s",
			rec.Code, http.StatusSeeOther, rec.Body.String()[:min(rec.Body.Len(), 500)])
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/traducciones" {
		t.Errorf("TranslationCreate valid: redirect to %q, want /admin/traducciones", loc)
	}
}

func TestTranslationCreate_Duplicate_ReRendersWithError(t *testing.T) {
	env := newTestEnv(t)

	slug := "test-call-trdup-" + uuid.New().String()[:8]
	code := "y" + uuid.New().String()[:1]
	t.Cleanup(func() {
		cleanTranslations(t, env.DB, "title_dup")
		cleanCalls(t, env.DB, slug)
		cleanLanguages(t, env.DB, code)
	})

	actorID := testAdminID(t, env.DB)
	call := createTestCall(t, env, actorID, "Convocatoria con traducción", slug)
	lang := createTestLanguage(t, env, "Francés de prueba", code)

	if _, err := env.TrStore.Create(&models.Translation{
		TranslatableType: models.TranslatableCall,
		TranslatableID:   call.ID,
		LanguageID:       lang.ID,
		Field:            "title_dup",
		Value:            "Existing translation",
	}); err != nil {
		t.Fatalf("seed translation: %v", err)
	}

	form := url.Values{}
	form.Set("translatable_type", "call")
	form.Set("translatable_id", call.ID.String())
	form.Set("language_id", lang.ID.String())
	form.Set("field", "title_dup")
	form.Set("value", "Second translation for the same tuple")

	req := httptest.NewRequest(http.MethodPost, "/admin/traducciones", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(ctxWithSession(req.Context(), adminSession(t, env.DB)))

	rec := httptest.NewRecorder()
	env.Admin.TranslationCreate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("TranslationCreate duplicate: got status %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Ya existe una traducción") {
		t.Error("TranslationCreate duplicate: response should mention the existing translation")
	}
}

func TestTranslationCreate_MissingValue_ReRendersForm(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{}
	form.Set("translatable_type", "call")
	form.Set("translatable_id", uuid.New().String())
	form.Set("language_id", uuid.New().String())
	form.Set("field", "title")
	form.Set("value", "")

	req := httptest.NewRequest(http.MethodPost, "/admin/traducciones", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(ctxWithSession(req.Context(), adminSession(t, env.DB)))

	rec := httptest.NewRecorder()
	env.Admin.TranslationCreate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("TranslationCreate missing value: got status %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Este campo es obligatorio.") {
		t.Error("TranslationCreate missing value: response should contain validation error")
	}
}

// --- Lookups ---

func TestProgramCreate_Valid_Redirects(t *testing.T) {
	env := newTestEnv(t)

	code := "TST-" + uuid.New().String()[:8]
	t.Cleanup(func() { cleanPrograms(t, env.DB, code) })

	form := url.Values{}
	form.Set("name", "Programa de prueba")
	form.Set("code", code)
	form.Set("active", "1")

	req := httptest.NewRequest(http.MethodPost, "/admin/programas", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(ctxWithSession(req.Context(), adminSession(t, env.DB)))

	rec := httptest.NewRecorder()
	env.Admin.ProgramCreate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("ProgramCreate valid: got status %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/programas" {
		t.Errorf("ProgramCreate valid: redirect to %q, want /admin/programas", loc)
	}
}

func TestAcademicYearCreate_EndBeforeStart_ShowsError(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{}
	form.Set("name", "2099/2100")
	form.Set("start_date", "2100-09-01")
	form.Set("end_date", "2099-06-30")

	req := httptest.NewRequest(http.MethodPost, "/admin/cursos", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(ctxWithSession(req.Context(), adminSession(t, env.DB)))

	rec := httptest.NewRecorder()
	env.Admin.AcademicYearCreate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("AcademicYearCreate bad range: got status %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestLanguageSetDefault_Redirects(t *testing.T) {
	env := newTestEnv(t)

	code := "z" + uuid.New().String()[:1]
	t.Cleanup(func() {
		// Put the seeded language back as default before removing the test one.
		env.DB.Exec("UPDATE languages SET is_default = TRUE WHERE code = 'es'")
		env.DB.Exec("UPDATE languages SET is_default = FALSE WHERE code = $1", code)
		cleanLanguages(t, env.DB, code)
	})

	lang := createTestLanguage(t, env, "Idioma de prueba", code)

	req := httptest.NewRequest(http.MethodPost, "/admin/idiomas/"+lang.ID.String()+"/defecto", nil)
	req = withChiURLParamAndSession(req, "id", lang.ID.String(), adminSession(t, env.DB))

	rec := httptest.NewRecorder()
	env.Admin.LanguageSetDefault(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("LanguageSetDefault: got status %d, want %d", rec.Code, http.StatusSeeOther)
	}

	updated, _ := env.LangStore.FindByID(lang.ID)
	if updated == nil || !updated.IsDefault {
		t.Error("language should now be the default")
	}
}

// --- Users ---

func TestUsersList_Returns200(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/usuarios", nil)
	rec := httptest.NewRecorder()
	env.Admin.UsersList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("UsersList: got status %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestUserDelete_OwnUser_HTMXGets409(t *testing.T) {
	env := newTestEnv(t)

	userID := testAdminID(t, env.DB)
	sess := testSession(userID, "admin@movilia.local", "admin", true)

	req := httptest.NewRequest(http.MethodDelete, "/admin/usuarios/"+userID.String(), nil)
	req.Header.Set("HX-Request", "true")
	req = withChiURLParamAndSession(req, "id", userID.String(), sess)

	rec := httptest.NewRecorder()
	env.Admin.UserDelete(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("UserDelete own user: got status %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestUserCreate_ShortPassword_ShowsError(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{}
	form.Set("email", "nuevo@movilia.local")
	form.Set("display_name", "Usuario Nuevo")
	form.Set("password", "corta")
	form.Set("role", "editor")

	req := httptest.NewRequest(http.MethodPost, "/admin/usuarios", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(ctxWithSession(req.Context(), adminSession(t, env.DB)))

	rec := httptest.NewRecorder()
	env.Admin.UserCreate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("UserCreate short password: got status %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "al menos 8 caracteres") {
		t.Error("UserCreate short password: response should contain the password error")
	}
}

// --- Settings ---

func TestSettingsPage_Returns200(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/ajustes", nil)
	rec := httptest.NewRecorder()
	env.Admin.SettingsPage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("SettingsPage: got status %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestSettingsSave_UpdatesValueAndRedirects(t *testing.T) {
	env := newTestEnv(t)

	original, err := env.SettingStore.Get("site_name")
	if err != nil {
		t.Fatalf("read site_name: %v", err)
	}
	t.Cleanup(func() { env.SettingStore.Set("site_name", original, "general") })

	form := url.Values{}
	form.Set("site_name", "Movilia Test")

	req := httptest.NewRequest(http.MethodPost, "/admin/ajustes", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(ctxWithSession(req.Context(), adminSession(t, env.DB)))

	rec := httptest.NewRecorder()
	env.Admin.SettingsSave(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("SettingsSave: got status %d, want %d", rec.Code, http.StatusSeeOther)
	}
	value, err := env.SettingStore.Get("site_name")
	if err != nil {
		t.Fatalf("read site_name after save: %v", err)
	}
	if value != "Movilia Test" {
		t.Errorf("site_name = %q, want %q", value, "Movilia Test")
	}
}
