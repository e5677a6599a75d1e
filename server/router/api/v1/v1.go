// Package v1 exposes the JSON HTTP API.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperr "github.com/askdoc/askdoc/internal/errors"
	"github.com/askdoc/askdoc/internal/profile"
	"github.com/askdoc/askdoc/server/ai"
	"github.com/askdoc/askdoc/server/middleware"
	"github.com/askdoc/askdoc/server/retrieval"
	"github.com/askdoc/askdoc/store"
)

type APIV1Service struct {
	Secret  string
	Profile *profile.Profile
	Store   *store.Store
	Engine  *retrieval.Engine

	rateLimiter *middleware.RateLimiter
}

func NewAPIV1Service(secret string, prof *profile.Profile, st *store.Store, embedder ai.Embedder) *APIV1Service {
	return &APIV1Service{
		Secret:      secret,
		Profile:     prof,
		Store:       st,
		Engine:      retrieval.NewEngine(st, embedder, prof),
		rateLimiter: middleware.NewRateLimiter(10, 20),
	}
}

// Register mounts all v1 routes on echoServer.
func (s *APIV1Service) Register(echoServer *echo.Echo) {
	echoServer.GET("/", s.Root)
	echoServer.GET("/status", s.Status)
	echoServer.GET("/metrics", s.Metrics)

	apiGroup := echoServer.Group("/api/v1")

	// Anonymous endpoints are throttled by remote IP.
	public := apiGroup.Group("", s.rateLimiter.Middleware())
	public.POST("/auth/register", s.RegisterUser)
	public.POST("/auth/login", s.Login)

	// The limiter runs after AuthMiddleware here so each authenticated user
	// gets their own bucket instead of sharing one per IP.
	authed := apiGroup.Group("", s.AuthMiddleware, s.rateLimiter.Middleware())
	authed.POST("/documents/upload", s.UploadDocument)
	authed.GET("/documents", s.ListDocuments)
	authed.GET("/documents/:uid", s.GetDocument)
	authed.POST("/rag/ask", s.Ask)
	authed.GET("/history", s.History)
	authed.GET("/usage", s.Usage)
}

// Envelope is the uniform response body all endpoints return.
type Envelope struct {
	Data       any    `json:"data"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

func respond(c echo.Context, status int, data any, message string) error {
	return c.JSON(status, &Envelope{
		Data:       data,
		Message:    message,
		StatusCode: status,
	})
}

// respondError maps internal error codes to HTTP statuses and wraps the
// message in the standard envelope.
func respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	message := "internal server error"

	if appErr, ok := err.(*apperr.Error); ok {
		message = appErr.Message
		switch appErr.Code {
		case apperr.ErrCodeNotFound:
			status = http.StatusNotFound
		case apperr.ErrCodeDocumentNotReady, apperr.ErrCodeConcurrencyConflict:
			status = http.StatusConflict
		case apperr.ErrCodeUnsupportedFormat, apperr.ErrCodeCorruptFile, apperr.ErrCodeInvalidArgument:
			status = http.StatusUnprocessableEntity
		case apperr.ErrCodeQuotaExceeded:
			status = http.StatusTooManyRequests
		case apperr.ErrCodeUnauthorized:
			status = http.StatusUnauthorized
		case apperr.ErrCodeTimeout:
			status = http.StatusGatewayTimeout
		default:
			message = "internal server error"
		}
	}
	return respond(c, status, nil, message)
}
