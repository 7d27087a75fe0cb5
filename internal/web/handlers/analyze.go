package handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/kozaktomas/skinstric/internal/analysis"
	"github.com/kozaktomas/skinstric/internal/database"
	"github.com/kozaktomas/skinstric/internal/metrics"
)

// Analyzer submits an image to Phase Two.
type Analyzer interface {
	PostPhaseTwo(ctx context.Context, image string) (*analysis.Result, error)
}

var (
	errAnalyzerMissing = errors.New("analysis service is not configured")
	errImageTooLarge   = errors.New("image is too large")
)

// errSaveFailed wraps storage failures that happen after a successful analysis.
var errSaveFailed = errors.New("failed to save analysis")

// analyzeAndSave runs Phase Two and persists the image together with its
// result. Nothing is written unless the analysis succeeds.
func analyzeAndSave(ctx context.Context, analyzer Analyzer, state *database.State, dataURL string) (*analysis.Result, error) {
	if analyzer == nil {
		return nil, errAnalyzerMissing
	}

	start := time.Now()
	result, err := analyzer.PostPhaseTwo(ctx, dataURL)
	if err != nil {
		metrics.ObserveAnalysis(metrics.OutcomeError, start)
		return nil, err
	}
	metrics.ObserveAnalysis(metrics.OutcomeSuccess, start)

	if err := state.SaveCapture(ctx, database.CapturedImage{DataURL: dataURL}, result); err != nil {
		return nil, fmt.Errorf("%w: %w", errSaveFailed, err)
	}
	return result, nil
}

// normalizeDataURL validates a data URL produced by a browser and re-encodes
// it, downscaling when maxSize is positive.
func normalizeDataURL(dataURL string, maxSize int) (string, error) {
	if dataURL == "" {
		return "", analysis.ErrEmptyImage
	}
	_, data, err := analysis.DecodeDataURL(dataURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", analysis.ErrNotImage, err)
	}
	return analysis.PrepareUpload(data, maxSize)
}

// analysisErrorMessage turns an analysis failure into the text shown to the user.
// It is never empty.
func analysisErrorMessage(err error) string {
	var statusErr *analysis.StatusError
	switch {
	case errors.Is(err, analysis.ErrEmptyImage):
		return "Select an image to analyze."
	case errors.Is(err, analysis.ErrNotImage):
		return "The selected file is not a supported image."
	case errors.Is(err, errImageTooLarge):
		return "The selected image is too large."
	case errors.Is(err, errAnalyzerMissing):
		return "The analysis service is not configured."
	case errors.Is(err, errSaveFailed):
		return "The analysis finished but could not be saved. Please try again."
	case isTimeout(err):
		return "The analysis service did not respond in time. Please try again."
	case errors.As(err, &statusErr):
		return fmt.Sprintf("The analysis service returned an error (%d). Please try again.", statusErr.Code)
	default:
		return "Failed to analyze image. Please try again."
	}
}

// analysisErrorStatus maps an analysis failure to an HTTP status code.
func analysisErrorStatus(err error) int {
	switch {
	case errors.Is(err, analysis.ErrEmptyImage), errors.Is(err, analysis.ErrNotImage):
		return http.StatusBadRequest
	case errors.Is(err, errImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errAnalyzerMissing):
		return http.StatusServiceUnavailable
	case errors.Is(err, errSaveFailed):
		return http.StatusInternalServerError
	case isTimeout(err):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func metricsOutcomeInvalid() {
	metrics.AnalysisRequests.WithLabelValues(metrics.OutcomeInvalidImage).Inc()
}
