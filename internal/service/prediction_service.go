package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"access-risk-service/internal/client"
	"access-risk-service/internal/config"
	"access-risk-service/internal/feature"
	"access-risk-service/internal/model"
	"access-risk-service/internal/repository"
	"access-risk-service/internal/risk"
	"access-risk-service/internal/sequence"
	"access-risk-service/internal/util"
)

// PredictionService runs the full scoring pipeline for one access
// event: validation, profile lookup, flag derivation, rule scoring,
// window assembly, model inference and verdict classification.
type PredictionService struct {
	cfg      *config.Config
	profiles repository.ProfileStore
	history  repository.HistoryStore
	windows  *sequence.Builder
	seqModel client.SequenceModel
	scaler   *feature.TargetScaler
	producer *client.KafkaProducer
	search   *client.ESClient
	logger   *zap.Logger

	// now is swappable so tests can pin the event clock.
	now func() time.Time
}

func NewPredictionService(
	cfg *config.Config,
	profiles repository.ProfileStore,
	history repository.HistoryStore,
	windows *sequence.Builder,
	seqModel client.SequenceModel,
	scaler *feature.TargetScaler,
	producer *client.KafkaProducer,
	search *client.ESClient,
	logger *zap.Logger,
) *PredictionService {
	return &PredictionService{
		cfg:      cfg,
		profiles: profiles,
		history:  history,
		windows:  windows,
		seqModel: seqModel,
		scaler:   scaler,
		producer: producer,
		search:   search,
		logger:   logger,
		now:      time.Now,
	}
}

// Predict scores a single access event and returns both the rule-based
// and the model-predicted risk as 0-100 percentages.
func (s *PredictionService) Predict(ctx context.Context, req model.PredictRequest) (*model.PredictResponse, error) {
	startTime := time.Now()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	profile, ok := s.profiles.Lookup(req.UserID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, req.UserID)
	}

	event := model.AccessEvent{
		EventID:     uuid.NewString(),
		UserID:      req.UserID,
		CreatedAt:   s.now().UTC(),
		ClientIP:    req.ClientIP,
		MFAMethod:   req.MFAMethod,
		Application: req.Application,
		Browser:     req.Browser,
		OS:          req.OS,
		Unit:        req.Unit,
		Title:       req.Title,
	}

	event.Flags = risk.FlagsForProfile(event, profile)
	event.RiskScore = risk.Score(event.Flags, s.cfg.Risk.Weights)

	history, err := s.history.RecentByUser(ctx, req.UserID, s.windows.Length()-1)
	if err != nil {
		return nil, fmt.Errorf("failed to load user history: %w", err)
	}

	window, err := s.windows.Build(history, event)
	if err != nil {
		return nil, fmt.Errorf("failed to build sequence window: %w", err)
	}

	scaled, err := s.seqModel.Predict(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("model prediction failed: %w", err)
	}
	predicted := s.scaler.Inverse(scaled)

	verdict := model.VerdictLowRisk
	if predicted > s.cfg.Risk.HighRiskThreshold {
		verdict = model.VerdictHighRisk
	}

	resp := &model.PredictResponse{
		UserID:             req.UserID,
		ActualRiskScore:    roundPercent(event.RiskScore),
		PredictedRiskScore: roundPercent(predicted),
		IsRisky:            verdict,
	}

	s.record(ctx, event, resp)

	s.logger.Info("Risk prediction completed",
		util.String("user_id", req.UserID),
		util.String("event_id", event.EventID),
		util.Float64("actual", resp.ActualRiskScore),
		util.Float64("predicted", resp.PredictedRiskScore),
		util.String("verdict", verdict),
		util.Duration("duration", time.Since(startTime)),
	)

	return resp, nil
}

// record persists the enriched event and fans the verdict out to the
// optional sinks. Failures here never fail an already computed
// prediction; they are logged and dropped.
func (s *PredictionService) record(ctx context.Context, event model.AccessEvent, resp *model.PredictResponse) {
	if err := s.history.Append(ctx, event); err != nil {
		s.logger.Error("Failed to append event to history",
			util.ErrorField(err),
			util.String("event_id", event.EventID),
		)
	}

	if s.producer != nil {
		payload, err := json.Marshal(verdictDocument(event, resp))
		if err == nil {
			err = s.producer.Publish(ctx, []byte(event.UserID), payload)
		}
		if err != nil {
			s.logger.Warn("Failed to publish verdict",
				util.ErrorField(err),
				util.String("event_id", event.EventID),
			)
		}
	}

	if s.search != nil {
		if err := s.search.IndexVerdict(ctx, event.EventID, verdictDocument(event, resp)); err != nil {
			s.logger.Warn("Failed to index verdict",
				util.ErrorField(err),
				util.String("event_id", event.EventID),
			)
		}
	}
}

// verdictDocument is the audit record shape shared by the Kafka and
// Elasticsearch sinks.
func verdictDocument(event model.AccessEvent, resp *model.PredictResponse) map[string]interface{} {
	return map[string]interface{}{
		"event_id":             event.EventID,
		"user_id":              event.UserID,
		"event_time":           event.CreatedAt,
		"client_ip":            event.ClientIP,
		"flags":                event.Flags,
		"actual_risk_score":    resp.ActualRiskScore,
		"predicted_risk_score": resp.PredictedRiskScore,
		"verdict":              resp.IsRisky,
	}
}

// HealthCheck verifies the model endpoint is reachable.
func (s *PredictionService) HealthCheck(ctx context.Context) error {
	if err := s.seqModel.HealthCheck(ctx); err != nil {
		return fmt.Errorf("model health check failed: %w", err)
	}
	return nil
}

func validateRequest(req model.PredictRequest) error {
	fields := []struct {
		name  string
		value string
	}{
		{"user_id", req.UserID},
		{"client_ip", req.ClientIP},
		{"mfa_method", req.MFAMethod},
		{"application", req.Application},
		{"browser", req.Browser},
		{"os", req.OS},
		{"unit", req.Unit},
		{"title", req.Title},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Field: f.name}
		}
	}
	return nil
}

func roundPercent(score float64) float64 {
	return math.Round(score*100*100) / 100
}
