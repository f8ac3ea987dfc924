package inference

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

type predictRequest struct {
	Instances []map[string]interface{} `json:"instances"`
}

type predictResponse struct {
	Predictions []interface{} `json:"predictions"`
}

// Remote calls a model served over HTTP: POST {base}/predict with
// {"instances": [row]} answered by {"predictions": [label]}.
type Remote struct {
	client  *resty.Client
	baseURL string
}

func NewRemote(baseURL string, timeout time.Duration) *Remote {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Remote{client: client, baseURL: baseURL}
}

func (r *Remote) Name() string {
	return "remote:" + r.baseURL
}

// Check asks the model service for GET {base}/health.
func (r *Remote) Check(ctx context.Context) error {
	resp, err := r.client.R().SetContext(ctx).Get("/health")
	if err != nil {
		return fmt.Errorf("model service unreachable: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("model service unhealthy: status %d", resp.StatusCode())
	}
	return nil
}

func (r *Remote) Predict(ctx context.Context, row Row) (string, error) {
	var out predictResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(predictRequest{Instances: []map[string]interface{}{rowMap(row)}}).
		SetResult(&out).
		Post("/predict")
	if err != nil {
		return "", fmt.Errorf("call model service: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("model service returned %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	if len(out.Predictions) == 0 {
		return "", fmt.Errorf("model service returned no predictions")
	}
	if s, ok := out.Predictions[0].(string); ok {
		return s, nil
	}
	return fmt.Sprint(out.Predictions[0]), nil
}
