package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"access-risk-service/internal/config"
	"access-risk-service/internal/model"
	"access-risk-service/internal/util"
)

// SequenceModel is the trained temporal regression model, an opaque
// external collaborator: it accepts one fixed-shape window and returns
// a scalar in the scaled target space.
type SequenceModel interface {
	Predict(ctx context.Context, window model.SequenceWindow) (float64, error)
	HealthCheck(ctx context.Context) error
}

// HTTPModelClient talks to a TF-Serving style endpoint:
// POST {base}/v1/models/{name}:predict with a 1 x N x D instances
// tensor, GET {base}/v1/models/{name} for availability.
type HTTPModelClient struct {
	baseURL    string
	modelName  string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewHTTPModelClient(cfg *config.Config, logger *zap.Logger) *HTTPModelClient {
	return &HTTPModelClient{
		baseURL:   cfg.Model.URL,
		modelName: cfg.Model.Name,
		httpClient: &http.Client{
			Timeout: cfg.Model.Timeout,
		},
		logger: logger,
	}
}

type predictRequest struct {
	Instances [][][]float64 `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
}

// Predict invokes the model on one sequence window and returns the
// scaled scalar output.
func (c *HTTPModelClient) Predict(ctx context.Context, window model.SequenceWindow) (float64, error) {
	start := time.Now()

	body, err := json.Marshal(predictRequest{Instances: [][][]float64{window.Rows}})
	if err != nil {
		return 0, fmt.Errorf("failed to encode model input: %w", err)
	}

	url := fmt.Sprintf("%s/v1/models/%s:predict", c.baseURL, c.modelName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build model request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("model invocation failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, fmt.Errorf("model returned status %d: %s", resp.StatusCode, string(msg))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode model output: %w", err)
	}
	if len(out.Predictions) == 0 || len(out.Predictions[0]) == 0 {
		return 0, fmt.Errorf("model returned an empty prediction")
	}

	c.logger.Debug("Model prediction completed",
		util.Int("window_len", window.Len()),
		util.Int("feature_dim", window.Dim()),
		util.Duration("duration", time.Since(start)),
	)

	return out.Predictions[0][0], nil
}

// HealthCheck probes model availability; used at startup, where an
// unreachable model is fatal.
func (c *HTTPModelClient) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/v1/models/%s", c.baseURL, c.modelName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build model status request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("model status probe failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model status probe returned %d", resp.StatusCode)
	}
	return nil
}
