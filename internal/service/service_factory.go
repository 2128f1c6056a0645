package service

import (
	"go.uber.org/zap"

	"access-risk-service/internal/client"
	"access-risk-service/internal/config"
	"access-risk-service/internal/feature"
	"access-risk-service/internal/repository"
	"access-risk-service/internal/sequence"
)

// ServiceFactory creates and manages service instances
type ServiceFactory struct {
	cfg      *config.Config
	profiles repository.ProfileStore
	history  repository.HistoryStore
	windows  *sequence.Builder
	seqModel client.SequenceModel
	scaler   *feature.TargetScaler
	producer *client.KafkaProducer
	search   *client.ESClient
	logger   *zap.Logger

	predictionService *PredictionService
}

// NewServiceFactory creates a new service factory
func NewServiceFactory(
	cfg *config.Config,
	profiles repository.ProfileStore,
	history repository.HistoryStore,
	windows *sequence.Builder,
	seqModel client.SequenceModel,
	scaler *feature.TargetScaler,
	producer *client.KafkaProducer,
	search *client.ESClient,
	logger *zap.Logger,
) *ServiceFactory {
	return &ServiceFactory{
		cfg:      cfg,
		profiles: profiles,
		history:  history,
		windows:  windows,
		seqModel: seqModel,
		scaler:   scaler,
		producer: producer,
		search:   search,
		logger:   logger,
	}
}

// PredictionService returns the prediction service instance (singleton)
func (f *ServiceFactory) PredictionService() *PredictionService {
	if f.predictionService == nil {
		f.predictionService = NewPredictionService(
			f.cfg,
			f.profiles,
			f.history,
			f.windows,
			f.seqModel,
			f.scaler,
			f.producer,
			f.search,
			f.logger,
		)
	}
	return f.predictionService
}
