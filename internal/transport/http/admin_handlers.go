package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"assessment-service/internal/domain"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handlers) adminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid login payload")
		return
	}
	res, err := h.admin.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) listQuestions(c *gin.Context) {
	questions, err := h.admin.ListQuestions(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

func (h *handlers) getQuestion(c *gin.Context) {
	q, err := h.admin.GetQuestion(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *handlers) createQuestion(c *gin.Context) {
	var q domain.Question
	if err := c.ShouldBindJSON(&q); err != nil {
		badRequest(c, "invalid question payload")
		return
	}
	created, err := h.admin.CreateQuestion(c.Request.Context(), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *handlers) updateQuestion(c *gin.Context) {
	var q domain.Question
	if err := c.ShouldBindJSON(&q); err != nil {
		badRequest(c, "invalid question payload")
		return
	}
	updated, err := h.admin.UpdateQuestion(c.Request.Context(), c.Param("id"), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type activeRequest struct {
	Active *bool `json:"isActive"`
}

func (h *handlers) setQuestionActive(c *gin.Context) {
	var req activeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		badRequest(c, "isActive is required")
		return
	}
	q, err := h.admin.SetQuestionActive(c.Request.Context(), c.Param("id"), *req.Active)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *handlers) deleteQuestion(c *gin.Context) {
	if err := h.admin.DeleteQuestion(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Question deleted successfully"})
}

func (h *handlers) recentSubmissions(c *gin.Context) {
	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}
	subs, err := h.admin.RecentSubmissions(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": subs})
}

func (h *handlers) stats(c *gin.Context) {
	st, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *handlers) analytics(c *gin.Context) {
	days, ok := intQuery(c, "timeRange")
	if !ok {
		return
	}
	a, err := h.admin.Analytics(c.Request.Context(), days)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analytics": a})
}

func (h *handlers) exportAnalytics(c *gin.Context) {
	days, ok := intQuery(c, "timeRange")
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.admin.ExportCSV(c.Request.Context(), days, &buf); err != nil {
		h.writeError(c, err)
		return
	}
	name := h.admin.ExportFileName(h.exportPrefix)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// intQuery parses an optional integer query parameter. An absent parameter
// yields zero; a malformed one aborts the request with 400.
func intQuery(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": key + " must be an integer", "field": key})
		return 0, false
	}
	return v, true
}
