// handlers.go - HTTP handlers for receipt upload, expenses and advisor endpoints

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smartspend/expense-agent/configs"
	"github.com/smartspend/expense-agent/internal/agent"
	"github.com/smartspend/expense-agent/internal/storage"
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
}

// Handlers carries the agent and store shared by all endpoints
type Handlers struct {
	agent *agent.Agent
	store storage.Store
}

func NewHandlers(a *agent.Agent, store storage.Store) *Handlers {
	return &Handlers{agent: a, store: store}
}

// RegisterRoutes wires all API routes onto the router
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		v1.POST("/receipts", h.ProcessReceiptHandler)

		v1.GET("/expenses", h.ListExpensesHandler)
		v1.PUT("/expenses/:id", h.UpdateExpenseHandler)
		v1.DELETE("/expenses/:id", h.DeleteExpenseHandler)
		v1.DELETE("/expenses", h.ClearExpensesHandler)
		v1.GET("/expenses/summary", h.SummaryHandler)
		v1.GET("/expenses/export", h.ExportHandler)

		v1.POST("/budget", h.CreateBudgetHandler)
		v1.GET("/budget/alerts", h.BudgetAlertsHandler)
		v1.GET("/insights", h.InsightsHandler)
		v1.POST("/advice", h.AdviceHandler)
	}
}

// ProcessReceiptHandler handles POST /api/v1/receipts. Accepts a multipart
// image under the "receipt" field and runs the full pipeline.
func (h *Handlers) ProcessReceiptHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "receipt file is required",
			"details":  err.Error(),
			"expected": "multipart/form-data with a 'receipt' image field",
		})
		return
	}

	if fileHeader.Size == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uploaded file is empty"})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             fmt.Sprintf("unsupported file type %q", ext),
			"supported_formats": []string{"jpg", "jpeg", "png", "bmp", "tiff", "webp"},
		})
		return
	}

	filename := filepath.Join(configs.UPLOAD_DIR, uuid.New().String()+ext)
	if err := c.SaveUploadedFile(fileHeader, filename); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to save uploaded file",
			"details": err.Error(),
		})
		return
	}
	defer cleanupUpload(filename)

	timeout := time.Duration(configs.AI_TIMEOUT_SECONDS) * time.Second
	ctx, cancel := timeoutContext(c, timeout)
	defer cancel()

	result, err := h.agent.ProcessReceipt(ctx, filename)
	if err != nil {
		if errors.Is(err, agent.ErrNoTextExtracted) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "no readable text found in the image",
				"details": err.Error(),
				"suggestions": []string{
					"Try taking a clearer photo with better lighting",
					"Ensure the receipt is flat and fully visible",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "receipt processing failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":             "success",
		"expense":            result.Record,
		"extraction_source":  result.Source,
		"explanation":        result.Explanation,
		"processing_summary": result.Summary,
	})
}

// ListExpensesHandler handles GET /api/v1/expenses
func (h *Handlers) ListExpensesHandler(c *gin.Context) {
	expenses, err := h.store.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to load expenses",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"expenses": expenses,
		"count":    len(expenses),
	})
}

// UpdateExpenseHandler handles PUT /api/v1/expenses/:id
func (h *Handlers) UpdateExpenseHandler(c *gin.Context) {
	id := c.Param("id")

	var rec storage.ExpenseRecord
	if err := c.BindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid expense payload",
			"details": err.Error(),
		})
		return
	}

	if err := h.store.Update(id, rec); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "expense not found", "id": id})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to update expense",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "id": id})
}

// DeleteExpenseHandler handles DELETE /api/v1/expenses/:id
func (h *Handlers) DeleteExpenseHandler(c *gin.Context) {
	id := c.Param("id")

	if err := h.store.Delete(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "expense not found", "id": id})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to delete expense",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id})
}

// ClearExpensesHandler handles DELETE /api/v1/expenses. Requires the
// confirm=true query parameter, wiping history is not an accident-friendly
// default.
func (h *Handlers) ClearExpensesHandler(c *gin.Context) {
	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "add ?confirm=true to delete all expenses",
		})
		return
	}

	if err := h.store.Clear(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to clear expenses",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// SummaryHandler handles GET /api/v1/expenses/summary
func (h *Handlers) SummaryHandler(c *gin.Context) {
	expenses, err := h.store.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to load expenses",
			"details": err.Error(),
		})
		return
	}

	summary := agent.Summarize(expenses)
	c.JSON(http.StatusOK, gin.H{
		"summary":       summary,
		"top_categories": agent.TopN(summary.CategoryTotals, 5),
		"top_merchants":  agent.TopN(summary.MerchantTotals, 5),
	})
}

// ExportHandler handles GET /api/v1/expenses/export?format=csv|json
func (h *Handlers) ExportHandler(c *gin.Context) {
	format := c.DefaultQuery("format", "json")

	expenses, err := h.store.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to load expenses",
			"details": err.Error(),
		})
		return
	}

	switch format {
	case "csv":
		data, err := storage.ExportCSV(expenses)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "csv export failed", "details": err.Error()})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="expenses.csv"`)
		c.Data(http.StatusOK, "text/csv", []byte(data))
	case "json":
		data, err := storage.ExportJSON(expenses)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "json export failed", "details": err.Error()})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="expenses.json"`)
		c.Data(http.StatusOK, "application/json", []byte(data))
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             fmt.Sprintf("unsupported export format %q", format),
			"supported_formats": []string{"csv", "json"},
		})
	}
}

// BudgetRequest is the body for POST /api/v1/budget
type BudgetRequest struct {
	MonthlyIncome  float64 `json:"monthly_income"`
	FinancialGoals string  `json:"financial_goals"`
	RiskTolerance  string  `json:"risk_tolerance"`
}

// CreateBudgetHandler handles POST /api/v1/budget
func (h *Handlers) CreateBudgetHandler(c *gin.Context) {
	var req BudgetRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "invalid request format",
			"details":  err.Error(),
			"expected": "JSON with monthly_income, optional financial_goals and risk_tolerance",
		})
		return
	}

	timeout := time.Duration(configs.AI_TIMEOUT_SECONDS) * time.Second
	ctx, cancel := timeoutContext(c, timeout)
	defer cancel()

	budget, err := h.agent.CreateBudget(ctx, req.MonthlyIncome, req.FinancialGoals, req.RiskTolerance)
	if err != nil {
		if errors.Is(err, agent.ErrInvalidIncome) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "monthly_income must be a positive number"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "budget generation failed",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, budget)
}

// BudgetAlertsHandler handles GET /api/v1/budget/alerts
func (h *Handlers) BudgetAlertsHandler(c *gin.Context) {
	alerts, err := h.agent.BudgetAlerts(time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to compute alerts",
			"details": err.Error(),
		})
		return
	}
	if alerts == nil {
		c.JSON(http.StatusOK, gin.H{
			"alerts":  []agent.BudgetAlert{},
			"message": "no budget created yet, POST /api/v1/budget first",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// InsightsHandler handles GET /api/v1/insights
func (h *Handlers) InsightsHandler(c *gin.Context) {
	timeout := time.Duration(configs.AI_TIMEOUT_SECONDS) * time.Second
	ctx, cancel := timeoutContext(c, timeout)
	defer cancel()

	report, err := h.agent.GetInsights(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "insight generation failed",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, report)
}

// AdviceHandler handles POST /api/v1/advice. The body is a free-form JSON
// object describing the user's situation; an empty body is allowed.
func (h *Handlers) AdviceHandler(c *gin.Context) {
	var situation map[string]interface{}
	if c.Request.ContentLength > 0 {
		if err := c.BindJSON(&situation); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid request format",
				"details": err.Error(),
			})
			return
		}
	}

	timeout := time.Duration(configs.AI_TIMEOUT_SECONDS) * time.Second
	ctx, cancel := timeoutContext(c, timeout)
	defer cancel()

	advice, err := h.agent.GetAdvice(ctx, situation)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "advice generation failed",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, advice)
}

// cleanupUpload removes the uploaded image and any processed sibling the
// preprocessor may have written next to it
func cleanupUpload(filename string) {
	os.Remove(filename)
	ext := filepath.Ext(filename)
	processed := strings.TrimSuffix(filename, ext) + "_processed.png"
	os.Remove(processed)
}

func timeoutContext(c *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 60 * time.Second
	}
	return context.WithTimeout(c.Request.Context(), d)
}
