package transport

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/klauspost/compress/gzhttp"
	"github.com/sirupsen/logrus"

	"github.com/maxedonia/ela-mate-web/internal/config"
	apperrors "github.com/maxedonia/ela-mate-web/internal/errors"
	"github.com/maxedonia/ela-mate-web/internal/forensics"
	"github.com/maxedonia/ela-mate-web/internal/logger"
	"github.com/maxedonia/ela-mate-web/internal/observer"
	"github.com/maxedonia/ela-mate-web/internal/repository"
	"github.com/maxedonia/ela-mate-web/internal/service"
	"github.com/maxedonia/ela-mate-web/pkg/models"
)

const (
	// imageField is the multipart field carrying the uploaded image
	imageField = "image"

	headerLabel   = "X-Analysis-Label"
	headerQuality = "X-Estimated-Quality"
	headerMode    = "X-Analysis-Mode"
)

type handler struct {
	svc      service.ForensicsService
	metrics  *observer.MetricsObserver
	cfg      *config.Config
	defaults service.Defaults
}

// NewHandler builds the HTTP API. Responses are gzip-compressed when the
// client accepts it; PNG bodies are passed through untouched.
func NewHandler(svc service.ForensicsService, metrics *observer.MetricsObserver, cfg *config.Config) http.Handler {
	h := &handler{
		svc:     svc,
		metrics: metrics,
		cfg:     cfg,
		defaults: service.Defaults{
			Quality: cfg.DefaultJPEGQuality,
			Scale:   cfg.DefaultELAScale,
		},
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", h.healthCheck)
	r.GET("/metrics", h.getMetrics)
	r.POST("/analyze", h.analyzeUpload)
	r.POST("/analyze/url", h.analyzeURL)
	r.POST("/quality", h.estimateQuality)

	return gzhttp.GzipHandler(r)
}

func (h *handler) analyzeUpload(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	src, err := readUpload(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req models.AnalysisParams
	if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
		abortBinding(c, err)
		return
	}

	resp, err := h.svc.Analyze(ctx, src, service.BuildParameters(req, h.defaults))
	if err != nil {
		_ = c.Error(err)
		return
	}

	logger.WithFields(logrus.Fields{
		"source":             resp.Source,
		"label":              resp.Label,
		"processing_time_ms": int64(resp.ProcessingTimeSec * 1000),
	}).Info("Upload analysis completed")

	c.Header(headerLabel, resp.Label)
	c.Header(headerMode, resp.Mode)
	if resp.EstimatedQuality != nil {
		c.Header(headerQuality, strconv.Itoa(*resp.EstimatedQuality))
	} else {
		c.Header(headerQuality, "unknown")
	}
	c.Data(http.StatusOK, "image/png", resp.PNG)
}

func (h *handler) analyzeURL(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	var req models.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBinding(c, err)
		return
	}

	resp, err := h.svc.Analyze(ctx, repository.Source{Location: req.URL}, service.BuildParameters(req.AnalysisParams, h.defaults))
	if err != nil {
		_ = c.Error(err)
		return
	}

	resp.ImageBase64 = base64.StdEncoding.EncodeToString(resp.PNG)
	c.JSON(http.StatusOK, resp)
}

func (h *handler) estimateQuality(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	var src repository.Source
	if c.ContentType() == binding.MIMEJSON {
		var req models.QualityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBinding(c, err)
			return
		}
		src.Location = req.URL
	} else {
		upload, err := readUpload(c)
		if err != nil {
			_ = c.Error(err)
			return
		}
		src = upload
	}

	resp, err := h.svc.EstimateQuality(ctx, src)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"backend": h.svc.Backend(),
		"modes":   forensics.Modes(),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) getMetrics(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusOK, observer.Metrics{})
		return
	}
	c.JSON(http.StatusOK, h.metrics.GetMetrics())
}

// readUpload reads the multipart image field into a Source
func readUpload(c *gin.Context) (repository.Source, error) {
	fh, err := c.FormFile(imageField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return repository.Source{}, err
		}
		return repository.Source{}, apperrors.NewValidationError(fmt.Sprintf("multipart field %q is required", imageField), err)
	}

	f, err := fh.Open()
	if err != nil {
		return repository.Source{}, apperrors.NewInternalError("failed to open upload", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return repository.Source{}, apperrors.NewInternalError("failed to read upload", err)
	}

	return repository.Source{
		Name:        fh.Filename,
		Data:        data,
		ContentType: fh.Header.Get("Content-Type"),
	}, nil
}

// abortBinding records a binding failure, attaching per-field details for
// validator errors so the response can list them
func abortBinding(c *gin.Context, err error) {
	ginErr := c.Error(bindingError(err))

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]models.ValidationError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, models.ValidationError{
				Code:    fe.Tag(),
				Field:   fe.Field(),
				Message: fmt.Sprintf("value %v does not satisfy %s%s", fe.Value(), fe.Tag(), paramSuffix(fe.Param())),
			})
		}
		ginErr.SetMeta(fields)
	}
}

func paramSuffix(param string) string {
	if param == "" {
		return ""
	}
	return "=" + param
}

// bindingError turns gin binding failures into validation errors naming the field
func bindingError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return err
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperrors.NewValidationError(fmt.Sprintf("invalid %s: failed %q constraint", fe.Field(), fe.Tag()), err)
	}
	return apperrors.NewValidationError("invalid request format", err)
}

// Middleware and helper functions
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}).Debug("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			last := c.Errors.Last()
			fields, _ := last.Meta.([]models.ValidationError)
			respondError(c, determineStatusCode(last.Err), last.Err, fields)
		}
	}
}

func determineStatusCode(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, err error, fields []models.ValidationError) {
	entry := logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	resp := models.ErrorResponse{Error: http.StatusText(code), Message: err.Error(), Fields: fields}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Message = appErr.Message
		resp.Details = string(appErr.Type)
	}
	c.AbortWithStatusJSON(code, resp)
}
