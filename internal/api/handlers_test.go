package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/smartspend/expense-agent/configs"
	"github.com/smartspend/expense-agent/internal/agent"
	"github.com/smartspend/expense-agent/internal/storage"
)

type stubExtractor struct {
	text string
}

func (s *stubExtractor) Extract(ctx context.Context, imagePath string) string {
	return s.text
}

func newTestRouter(t *testing.T, ocrText string) (*gin.Engine, storage.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	configs.UPLOAD_DIR = t.TempDir()

	store, err := storage.NewJSONFileStore(filepath.Join(t.TempDir(), "expenses.json"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	a := agent.New(
		nil,
		agent.NewCategorizer(nil),
		agent.NewAdvisor(nil),
		&stubExtractor{text: ocrText},
		store,
		agent.NewMemory(),
	)

	router := gin.New()
	NewHandlers(a, store).RegisterRoutes(router)
	return router, store
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write(content)
	w.Close()
	return body, w.FormDataContentType()
}

func TestProcessReceiptHandler(t *testing.T) {
	router, store := newTestRouter(t, "WALMART\n01/15/2024\nTOTAL $45.67")

	body, contentType := multipartBody(t, "receipt", "receipt.jpg", []byte("fake image bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/receipts", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Status  string                `json:"status"`
		Expense storage.ExpenseRecord `json:"expense"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Expense.Merchant != "Walmart" || resp.Expense.Category != "Groceries" {
		t.Errorf("unexpected expense: %+v", resp.Expense)
	}

	stored, _ := store.Load()
	if len(stored) != 1 {
		t.Errorf("expense not persisted, store has %d records", len(stored))
	}
}

func TestProcessReceiptHandlerMissingFile(t *testing.T) {
	router, _ := newTestRouter(t, "whatever")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/receipts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for missing file", w.Code)
	}
}

func TestProcessReceiptHandlerUnsupportedExtension(t *testing.T) {
	router, _ := newTestRouter(t, "whatever")

	body, contentType := multipartBody(t, "receipt", "receipt.pdf", []byte("%PDF"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/receipts", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unsupported extension", w.Code)
	}
}

func TestProcessReceiptHandlerUnreadableImage(t *testing.T) {
	router, _ := newTestRouter(t, "   ")

	body, contentType := multipartBody(t, "receipt", "receipt.jpg", []byte("blank"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/receipts", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422 when OCR finds nothing", w.Code)
	}
}

func TestListExpensesHandler(t *testing.T) {
	router, store := newTestRouter(t, "x")
	store.Add(storage.ExpenseRecord{Date: "2024-01-15", Merchant: "Walmart", Amount: 45.67})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/expenses", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Count int `json:"count"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Count != 1 {
		t.Errorf("count = %d, want 1", resp.Count)
	}
}

func TestUpdateAndDeleteExpenseHandlers(t *testing.T) {
	router, store := newTestRouter(t, "x")
	saved, _ := store.Add(storage.ExpenseRecord{Date: "2024-01-15", Merchant: "Walmart", Amount: 45.67})

	payload := `{"date": "2024-01-15", "merchant": "Walmart", "amount": 50.00, "category": "Groceries"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/expenses/"+saved.ID, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}

	records, _ := store.Load()
	if records[0].Amount != 50.00 {
		t.Errorf("update not applied: %+v", records[0])
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/expenses/"+saved.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/expenses/"+saved.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestClearExpensesRequiresConfirmation(t *testing.T) {
	router, store := newTestRouter(t, "x")
	store.Add(storage.ExpenseRecord{Date: "2024-01-15", Merchant: "A", Amount: 1})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/expenses", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unconfirmed clear status = %d, want 400", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/expenses?confirm=true", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("confirmed clear status = %d, want 200", w.Code)
	}

	records, _ := store.Load()
	if len(records) != 0 {
		t.Errorf("store not cleared: %d records", len(records))
	}
}

func TestCreateBudgetHandlerInvalidIncome(t *testing.T) {
	router, _ := newTestRouter(t, "x")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/budget", strings.NewReader(`{"monthly_income": -5}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for negative income", w.Code)
	}
}

func TestCreateBudgetHandler(t *testing.T) {
	router, _ := newTestRouter(t, "x")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/budget", strings.NewReader(`{"monthly_income": 3000}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var budget agent.Budget
	if err := json.Unmarshal(w.Body.Bytes(), &budget); err != nil {
		t.Fatalf("invalid budget JSON: %v", err)
	}
	if len(budget.MonthlyBudget) == 0 {
		t.Error("budget has no category lines")
	}
}

func TestExportHandlerCSV(t *testing.T) {
	router, store := newTestRouter(t, "x")
	store.Add(storage.ExpenseRecord{Date: "2024-01-15", Merchant: "Walmart", Amount: 45.67})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/expenses/export?format=csv", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Walmart") {
		t.Errorf("CSV export missing data: %s", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
}

func TestExportHandlerUnknownFormat(t *testing.T) {
	router, _ := newTestRouter(t, "x")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/expenses/export?format=xml", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unknown format", w.Code)
	}
}

func TestInsightsHandlerEmptyHistory(t *testing.T) {
	router, _ := newTestRouter(t, "x")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/insights", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var report agent.InsightsReport
	json.Unmarshal(w.Body.Bytes(), &report)
	if report.SpendingHealth != "unknown" {
		t.Errorf("SpendingHealth = %q, want unknown", report.SpendingHealth)
	}
}

func TestBudgetAlertsHandlerNoBudget(t *testing.T) {
	router, _ := newTestRouter(t, "x")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/budget/alerts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "no budget created yet") {
		t.Errorf("expected guidance message, got %s", w.Body.String())
	}
}
