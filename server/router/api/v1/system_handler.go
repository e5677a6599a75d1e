package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/askdoc/askdoc/server/internal/observability"
)

// Root is a liveness probe with a human-friendly body.
func (s *APIV1Service) Root(c echo.Context) error {
	return respond(c, http.StatusOK, map[string]string{
		"service": "askdoc",
		"version": s.Profile.Version,
	}, "Document Q&A service is running.")
}

type statusResponse struct {
	Version           string `json:"version"`
	Mode              string `json:"mode"`
	Driver            string `json:"driver"`
	EmbeddingProvider string `json:"embedding_provider"`
	Database          string `json:"database"`
}

// Status reports configuration and database health.
func (s *APIV1Service) Status(c echo.Context) error {
	database := "ok"
	if err := s.Store.GetDriver().GetDB().PingContext(c.Request().Context()); err != nil {
		database = "unreachable"
	}
	return respond(c, http.StatusOK, &statusResponse{
		Version:           s.Profile.Version,
		Mode:              s.Profile.Mode,
		Driver:            s.Profile.Driver,
		EmbeddingProvider: s.Profile.EmbeddingProvider,
		Database:          database,
	}, "OK")
}

type operationMetrics struct {
	Operation         string `json:"operation"`
	ExecutionCount    int64  `json:"execution_count"`
	ErrorCount        int64  `json:"error_count"`
	AverageDurationMs int64  `json:"average_duration_ms"`
}

type metricsResponse struct {
	RequestTotal  int64               `json:"request_total"`
	RequestFailed int64               `json:"request_failed"`
	Operations    []*operationMetrics `json:"operations"`
}

// Metrics exposes the in-process counters.
func (s *APIV1Service) Metrics(c echo.Context) error {
	metrics := observability.GlobalMetrics()

	operations := []*operationMetrics{}
	for _, name := range metrics.Operations() {
		om := metrics.GetOperationMetrics(name)
		if om == nil {
			continue
		}
		operations = append(operations, &operationMetrics{
			Operation:         name,
			ExecutionCount:    om.ExecutionCount(),
			ErrorCount:        om.ErrorCount(),
			AverageDurationMs: om.AverageDurationMs(),
		})
	}

	return respond(c, http.StatusOK, &metricsResponse{
		RequestTotal:  metrics.GetRequestTotal(),
		RequestFailed: metrics.GetRequestFailed(),
		Operations:    operations,
	}, "OK")
}
