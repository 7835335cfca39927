package http

import (
	"bytes"
	"fmt"
	"net/http"

	"assessment-service/internal/domain"
	"github.com/gin-gonic/gin"
)

// Documents are rendered into a buffer first so that a render failure can
// still be reported as a JSON error.

func (h *handlers) certificatePDF(c *gin.Context) {
	var buf bytes.Buffer
	cert, err := h.certificates.WritePDF(c.Request.Context(), c.Param("id"), &buf)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.certificates.FileName(cert)))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (h *handlers) certificatePNG(c *gin.Context) {
	var buf bytes.Buffer
	if _, err := h.certificates.WritePNG(c.Request.Context(), c.Param("id"), &buf); err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (h *handlers) certificatePreview(c *gin.Context) {
	cert, err := h.certificates.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cert)
}

type verifyResponse struct {
	Valid       bool               `json:"valid"`
	Certificate domain.Certificate `json:"certificate"`
}

func (h *handlers) verifyCertificate(c *gin.Context) {
	cert, err := h.certificates.Verify(c.Request.Context(), c.Param("certificateId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, verifyResponse{Valid: true, Certificate: cert})
}
