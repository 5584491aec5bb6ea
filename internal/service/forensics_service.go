package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"time"

	"github.com/maxedonia/ela-mate-web/internal/analyzer"
	apperrors "github.com/maxedonia/ela-mate-web/internal/errors"
	"github.com/maxedonia/ela-mate-web/internal/forensics"
	"github.com/maxedonia/ela-mate-web/internal/observer"
	"github.com/maxedonia/ela-mate-web/internal/raster"
	"github.com/maxedonia/ela-mate-web/internal/repository"
	"github.com/maxedonia/ela-mate-web/internal/strategy"
	"github.com/maxedonia/ela-mate-web/pkg/models"
)

// ForensicsService runs forensic analyses on behalf of the HTTP and CLI surfaces
type ForensicsService interface {
	// Analyze loads src, runs the analysis selected by params, renders the
	// view and encodes it as PNG. The whole call is bounded by the analysis timeout.
	Analyze(ctx context.Context, src repository.Source, params forensics.Parameters) (*models.AnalysisResponse, error)

	// EstimateQuality reports the original JPEG quality of src, if known
	EstimateQuality(ctx context.Context, src repository.Source) (*models.QualityResponse, error)

	// Backend names the imaging backend in use
	Backend() string
}

// forensicsService implements ForensicsService
type forensicsService struct {
	repo       repository.ImageRepository
	engine     *forensics.Engine
	strategies *strategy.AnalysisContext
	metrics    analyzer.MetricsCalculator
	publisher  observer.Subject
	timeout    time.Duration
	pool       *analyzer.WorkerPool
	encoder    png.Encoder
}

// Option customizes a forensics service
type Option func(*forensicsService)

// WithWorkerPool runs analyses on pool instead of a goroutine per call,
// capping how many decode and filter passes run at once
func WithWorkerPool(pool *analyzer.WorkerPool) Option {
	return func(s *forensicsService) {
		s.pool = pool
	}
}

// NewForensicsService creates a new forensics service. A zero timeout leaves
// the caller's context as the only bound; publisher may be nil.
func NewForensicsService(
	repo repository.ImageRepository,
	engine *forensics.Engine,
	publisher observer.Subject,
	timeout time.Duration,
	opts ...Option,
) ForensicsService {
	s := &forensicsService{
		repo:       repo,
		engine:     engine,
		strategies: strategy.NewAnalysisContext(engine),
		metrics:    analyzer.NewMetricsCalculator(),
		publisher:  publisher,
		timeout:    timeout,
		encoder:    png.Encoder{CompressionLevel: png.BestSpeed},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *forensicsService) Backend() string {
	return s.engine.Backend()
}

// Analyze implements ForensicsService
func (s *forensicsService) Analyze(ctx context.Context, src repository.Source, params forensics.Parameters) (*models.AnalysisResponse, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	s.publish(ctx, observer.AnalysisEvent{
		EventType: observer.AnalysisStarted,
		Source:    src.Label(),
		Mode:      string(params.Mode),
		Backend:   s.Backend(),
	})

	resp, err := runBounded(ctx, s.timeout, s.spawn, func(ctx context.Context) (*models.AnalysisResponse, error) {
		return s.analyze(ctx, src, params)
	})

	event := observer.AnalysisEvent{
		Source:         src.Label(),
		Mode:           string(params.Mode),
		Backend:        s.Backend(),
		ProcessingTime: time.Since(start),
		Success:        err == nil,
	}
	if err != nil {
		event.EventType = observer.AnalysisFailed
		event.ErrorMessage = err.Error()
		event.ErrorType = string(errorType(err))
		s.publish(ctx, event)
		return nil, err
	}

	resp.ProcessingTimeSec = event.ProcessingTime.Seconds()
	event.EventType = observer.AnalysisCompleted
	event.Metadata = map[string]interface{}{
		"label":        resp.Label,
		"hot_fraction": resp.Summary.HotFraction,
	}
	s.publish(ctx, event)
	return resp, nil
}

func (s *forensicsService) analyze(ctx context.Context, src repository.Source, params forensics.Parameters) (*models.AnalysisResponse, error) {
	source, err := s.load(ctx, src)
	if err != nil {
		return nil, err
	}

	result, err := s.strategies.ExecuteAnalysis(source.Image, params)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary := s.metrics.Summarize(result.Image, float64(forensics.Threshold(params.View.Sensitivity)))

	rendered, err := s.engine.Render(source.Image, result, params.View)
	if err != nil {
		return nil, err
	}

	encoded, err := s.encodePNG(rendered.Image)
	if err != nil {
		return nil, err
	}

	resp := &models.AnalysisResponse{
		Source:    src.Label(),
		Timestamp: time.Now().UTC(),
		Mode:      string(params.Mode),
		Label:     rendered.Label,
		Backend:   s.Backend(),
		Metadata:  source.Metadata,
		Summary:   summary,
		PNG:       encoded,
	}
	if q, ok := forensics.EstimateImageQuality(source.Image); ok {
		resp.EstimatedQuality = &q
	}
	return resp, nil
}

// EstimateQuality implements ForensicsService
func (s *forensicsService) EstimateQuality(ctx context.Context, src repository.Source) (*models.QualityResponse, error) {
	return runBounded(ctx, s.timeout, s.spawn, func(ctx context.Context) (*models.QualityResponse, error) {
		source, err := s.load(ctx, src)
		if err != nil {
			return nil, err
		}

		resp := &models.QualityResponse{Source: src.Label(), Metadata: source.Metadata}
		if q, ok := forensics.EstimateImageQuality(source.Image); ok {
			resp.EstimatedQuality = &q
			resp.Known = true
		}
		return resp, nil
	})
}

func (s *forensicsService) load(ctx context.Context, src repository.Source) (*repository.SourceImage, error) {
	source, err := s.repo.Load(ctx, src)
	if err != nil {
		s.publish(ctx, observer.AnalysisEvent{
			EventType:    observer.SourceFailed,
			Source:       src.Label(),
			ErrorType:    string(errorType(err)),
			ErrorMessage: err.Error(),
		})
		return nil, err
	}
	source.Metadata.Sharpness = s.metrics.CalculateLaplacianVariance(source.Image.Gray())

	s.publish(ctx, observer.AnalysisEvent{
		EventType: observer.SourceDecoded,
		Source:    src.Label(),
		Success:   true,
		Metadata: map[string]interface{}{
			"format": source.Metadata.Format,
			"width":  source.Metadata.Width,
			"height":    source.Metadata.Height,
			"sharpness": source.Metadata.Sharpness,
		},
	})
	return source, nil
}

func (s *forensicsService) encodePNG(img *raster.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.encoder.Encode(&buf, img.ToRGBA()); err != nil {
		return nil, apperrors.NewCodecError("failed to encode PNG", err)
	}
	return buf.Bytes(), nil
}

// spawn starts job on the pool when one is configured
func (s *forensicsService) spawn(ctx context.Context, job func()) bool {
	if s.pool == nil {
		go job()
		return true
	}
	return s.pool.SubmitContext(ctx, job)
}

func (s *forensicsService) publish(ctx context.Context, event observer.AnalysisEvent) {
	if s.publisher == nil {
		return
	}
	// observers must outlive request cancellation
	s.publisher.NotifyObservers(context.WithoutCancel(ctx), event)
}

// runBounded runs fn through spawn and gives up when ctx ends or the timeout
// elapses, whichever is first. fn sees the bounded context so it can stop
// early; a late result is discarded.
func runBounded[T any](
	ctx context.Context,
	timeout time.Duration,
	spawn func(context.Context, func()) bool,
	fn func(context.Context) (T, error),
) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)

	accepted := spawn(ctx, func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				done <- outcome{zero, apperrors.NewInternalError(fmt.Sprintf("analysis panicked: %v", r), nil)}
			}
		}()
		v, err := fn(ctx)
		done <- outcome{v, err}
	})
	if !accepted {
		var zero T
		if ctx.Err() != nil {
			return zero, timeoutError(ctx.Err())
		}
		return zero, apperrors.NewInternalError("analysis workers are shut down", nil)
	}

	select {
	case out := <-done:
		if out.err != nil && ctx.Err() != nil && !isAppError(out.err) {
			var zero T
			return zero, timeoutError(ctx.Err())
		}
		return out.value, out.err
	case <-ctx.Done():
		var zero T
		return zero, timeoutError(ctx.Err())
	}
}

func timeoutError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("analysis timed out", err)
	}
	return apperrors.NewTimeoutError("analysis cancelled", err)
}

func isAppError(err error) bool {
	var appErr *apperrors.AppError
	return errors.As(err, &appErr)
}

func errorType(err error) apperrors.ErrorType {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return apperrors.ErrorTypeInternal
}
