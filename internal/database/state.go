package database

import (
	"context"
	"fmt"

	"github.com/kozaktomas/skinstric/internal/analysis"
	"go.uber.org/zap"
)

// State reads and writes one visitor's onboarding data. It holds at most one
// profile, one image and one analysis result; every save replaces the previous value.
type State struct {
	kv        KV
	visitorID string
	logger    *zap.Logger
}

// NewState binds a store to a visitor namespace.
func NewState(kv KV, visitorID string, logger *zap.Logger) *State {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &State{kv: kv, visitorID: visitorID, logger: logger}
}

func (s *State) key(name string) string {
	return Namespace(s.visitorID, name)
}

// SaveUser overwrites the stored profile.
func (s *State) SaveUser(ctx context.Context, u UserProfile) error {
	return Save(ctx, s.kv, s.key(KeyUser), u)
}

// LoadUser returns the stored profile, or an empty one.
func (s *State) LoadUser(ctx context.Context) (UserProfile, bool) {
	return Load[UserProfile](ctx, s.kv, s.key(KeyUser), s.logger)
}

// SaveImage overwrites the stored image.
func (s *State) SaveImage(ctx context.Context, img CapturedImage) error {
	return Save(ctx, s.kv, s.key(KeyImage), img)
}

// LoadImage returns the stored image, or an empty one.
func (s *State) LoadImage(ctx context.Context) (CapturedImage, bool) {
	return Load[CapturedImage](ctx, s.kv, s.key(KeyImage), s.logger)
}

// SaveResult overwrites the stored analysis result.
func (s *State) SaveResult(ctx context.Context, r *analysis.Result) error {
	return Save(ctx, s.kv, s.key(KeyResult), r)
}

// LoadResult returns the stored analysis result, or nil when there is none.
func (s *State) LoadResult(ctx context.Context) *analysis.Result {
	r, ok := Load[*analysis.Result](ctx, s.kv, s.key(KeyResult), s.logger)
	if !ok {
		return nil
	}
	return r
}

// SaveCapture stores a successfully analyzed image together with its result.
// Callers only invoke it after the analysis succeeded so a failed attempt
// never replaces the previous pair. When the result cannot be written the
// previous image is put back, keeping image and result in step.
func (s *State) SaveCapture(ctx context.Context, img CapturedImage, r *analysis.Result) error {
	imageKey := s.key(KeyImage)
	prev, hadPrev, err := s.kv.Get(ctx, imageKey)
	if err != nil {
		return fmt.Errorf("reading previous image: %w", err)
	}

	if err := s.SaveImage(ctx, img); err != nil {
		return fmt.Errorf("saving captured image: %w", err)
	}
	if err := s.SaveResult(ctx, r); err != nil {
		var restoreErr error
		if hadPrev {
			restoreErr = s.kv.Set(ctx, imageKey, prev)
		} else {
			restoreErr = s.kv.Delete(ctx, imageKey)
		}
		if restoreErr != nil {
			s.logger.Error("failed to restore previous image", zap.String("visitor", s.visitorID), zap.Error(restoreErr))
		}
		return fmt.Errorf("saving analysis result: %w", err)
	}
	return nil
}

// Clear removes everything stored for the visitor.
func (s *State) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key(KeyUser), s.key(KeyImage), s.key(KeyResult)); err != nil {
		return fmt.Errorf("clearing visitor state: %w", err)
	}
	return nil
}

// ClearVisitor removes every value of a visitor, e.g. when its session expires.
func ClearVisitor(ctx context.Context, kv KV, visitorID string) error {
	return NewState(kv, visitorID, nil).Clear(ctx)
}
