package http

import (
	"net/http"

	"assessment-service/internal/app"
	"assessment-service/internal/auth"
	"assessment-service/internal/observability"
	"assessment-service/internal/platform/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps are the collaborators the HTTP layer serves.
type Deps struct {
	Quiz         *app.QuizService
	Admin        *app.AdminService
	Certificates *app.CertificateService
	Feed         *app.Feed
	Tokens       *auth.TokenManager
	Metrics      *observability.Metrics
	Log          *logger.Logger
	CORSOrigins  []string
	ServiceName  string
	// ExportPrefix names CSV export downloads.
	ExportPrefix string
}

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	serviceName := d.ServiceName
	if serviceName == "" {
		serviceName = "assessment-service"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(RequestLogger(d.Log))
	r.Use(Metrics(d.Metrics))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	h := &handlers{
		quiz:         d.Quiz,
		admin:        d.Admin,
		certificates: d.Certificates,
		log:          d.Log.With("component", "http"),
		exportPrefix: d.ExportPrefix,
	}

	api := r.Group("/api")
	api.POST("/register", h.register)
	api.GET("/questions", h.questions)
	api.POST("/submit-quiz", h.submitQuiz)
	api.GET("/results/:submissionId", h.result)
	api.GET("/certificate/:id", h.certificatePDF)
	api.GET("/certificate/:id/preview", h.certificatePreview)
	api.GET("/certificate/:id/image.png", h.certificatePNG)
	api.GET("/verify/:certificateId", h.verifyCertificate)

	api.POST("/admin/login", h.adminLogin)
	admin := api.Group("/admin", RequireAdmin(d.Tokens, d.Log))
	admin.GET("/questions", h.listQuestions)
	admin.POST("/questions", h.createQuestion)
	admin.GET("/questions/:id", h.getQuestion)
	admin.PUT("/questions/:id", h.updateQuestion)
	admin.PATCH("/questions/:id/active", h.setQuestionActive)
	admin.DELETE("/questions/:id", h.deleteQuestion)
	admin.GET("/submissions", h.recentSubmissions)
	admin.GET("/stats", h.stats)
	admin.GET("/analytics", h.analytics)
	admin.GET("/analytics/export", h.exportAnalytics)
	if d.Feed != nil {
		admin.GET("/feed", NewFeedHandler(d.Feed, d.Metrics, d.Log).Serve)
	}
	return r
}

type handlers struct {
	quiz         *app.QuizService
	admin        *app.AdminService
	certificates *app.CertificateService
	log          *logger.Logger
	exportPrefix string
}
