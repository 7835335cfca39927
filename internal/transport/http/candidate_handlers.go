package http

import (
	"net/http"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"github.com/gin-gonic/gin"
)

type registerResponse struct {
	Message string      `json:"message"`
	User    domain.User `json:"user"`
}

func (h *handlers) register(c *gin.Context) {
	var req domain.User
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid registration payload")
		return
	}
	user, err := h.quiz.Register(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, registerResponse{Message: "User registered successfully", User: user})
}

func (h *handlers) questions(c *gin.Context) {
	paper, err := h.quiz.StartQuiz(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paper)
}

func (h *handlers) submitQuiz(c *gin.Context) {
	var req app.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid submission payload")
		return
	}
	outcome, err := h.quiz.Submit(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, outcome)
}

func (h *handlers) result(c *gin.Context) {
	view, err := h.quiz.Result(c.Request.Context(), c.Param("submissionId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
