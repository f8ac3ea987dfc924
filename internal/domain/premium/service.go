package premium

import (
	"context"

	"github.com/premiumcare/premiumcare/internal/platform/inference"
)

// InferenceError wraps a model failure. Its message carries the model's own
// error text so feature-schema drift is visible to the caller.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return "Model prediction failed. Check training feature columns match API columns. Error: " + e.Err.Error()
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

type Service struct {
	model inference.Model
}

func NewService(model inference.Model) *Service {
	return &Service{model: model}
}

func (s *Service) ModelName() string {
	return s.model.Name()
}

// Predict derives the feature row for a validated profile and asks the model
// for its premium category.
func (s *Service) Predict(ctx context.Context, p UserProfile) (string, error) {
	label, err := s.model.Predict(ctx, p.Features())
	if err != nil {
		return "", &InferenceError{Err: err}
	}
	return label, nil
}
