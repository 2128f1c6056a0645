package risk

import (
	"go.uber.org/zap"

	"access-risk-service/internal/model"
	"access-risk-service/internal/repository"
	"access-risk-service/internal/util"
)

// Extractor evaluates the rule table for one (event, profile) pair.
// Stateless and deterministic: the same event always yields the same
// flags, so training and serving derive identical features.
type Extractor struct {
	profiles repository.ProfileStore
	logger   *zap.Logger
}

// NewExtractor creates a feature extractor backed by a profile store.
func NewExtractor(profiles repository.ProfileStore, logger *zap.Logger) *Extractor {
	return &Extractor{
		profiles: profiles,
		logger:   logger,
	}
}

// Flags derives the seven risk flags for an event.
//
// A missing profile yields all-zero flags ("assume not risky"). The
// serving path rejects unknown users before this point; corpus rows
// without a registered profile flow through with zero flags.
func (e *Extractor) Flags(event model.AccessEvent) model.RiskFlags {
	profile, ok := e.profiles.Lookup(event.UserID)
	if !ok {
		e.logger.Debug("no profile for event, assuming not risky",
			util.String("user_id", event.UserID),
		)
		return model.RiskFlags{}
	}
	return FlagsForProfile(event, profile)
}

// FlagsForProfile evaluates every rule against a known profile.
func FlagsForProfile(event model.AccessEvent, profile model.UserProfile) model.RiskFlags {
	var flags model.RiskFlags
	for _, r := range Rules {
		flags.Set(r.Flag, evaluate(r, event, profile))
	}
	return flags
}
