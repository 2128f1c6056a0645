// Package assets loads the fitted artifacts the serving pipeline
// depends on. Everything here is read-only after Load returns and is
// shared by all requests; there are no package-level globals.
package assets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"access-risk-service/internal/feature"
	"access-risk-service/internal/model"
	"access-risk-service/internal/repository/memory"
	"access-risk-service/internal/util"
)

// Asset file names under the asset directory.
const (
	EncoderFile             = "encoder.json"
	TargetScalerFile        = "target_scaler.json"
	ProfilesFile            = "user_profiles.json"
	NumericalFeaturesFile   = "numerical_features.json"
	CategoricalFeaturesFile = "categorical_features.json"
	CorpusFile              = "corpus.jsonl"
)

// Bundle holds every fitted artifact: the encoder, the target scaler,
// the profile snapshot, the ordered feature-name lists and the
// historical corpus. Constructed once at startup and passed by
// reference into the request path.
type Bundle struct {
	Encoder             *feature.Encoder
	TargetScaler        *feature.TargetScaler
	Profiles            *memory.ProfileStore
	NumericalFeatures   []string
	CategoricalFeatures []string
	Corpus              []model.AccessEvent
}

// Load reads all assets from dir. Every asset is required; a missing or
// malformed file fails the whole load, and startup with it.
func Load(dir string, logger *zap.Logger) (*Bundle, error) {
	for _, name := range []string{
		EncoderFile, TargetScalerFile, ProfilesFile,
		NumericalFeaturesFile, CategoricalFeaturesFile, CorpusFile,
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return nil, fmt.Errorf("required asset %s not found in %s: %w (run the corpus pipeline first)", name, dir, err)
		}
	}

	b := &Bundle{}
	var g errgroup.Group

	g.Go(func() error {
		enc, err := feature.LoadEncoder(filepath.Join(dir, EncoderFile))
		if err != nil {
			return err
		}
		b.Encoder = enc
		return nil
	})
	g.Go(func() error {
		sc, err := feature.LoadTargetScaler(filepath.Join(dir, TargetScalerFile))
		if err != nil {
			return err
		}
		b.TargetScaler = sc
		return nil
	})
	g.Go(func() error {
		profiles, err := memory.LoadProfileStore(filepath.Join(dir, ProfilesFile))
		if err != nil {
			return err
		}
		b.Profiles = profiles
		return nil
	})
	g.Go(func() error {
		names, err := loadNameList(filepath.Join(dir, NumericalFeaturesFile))
		if err != nil {
			return err
		}
		b.NumericalFeatures = names
		return nil
	})
	g.Go(func() error {
		names, err := loadNameList(filepath.Join(dir, CategoricalFeaturesFile))
		if err != nil {
			return err
		}
		b.CategoricalFeatures = names
		return nil
	})
	g.Go(func() error {
		corpus, err := memory.LoadCorpus(filepath.Join(dir, CorpusFile))
		if err != nil {
			return err
		}
		b.Corpus = corpus
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := b.validate(); err != nil {
		return nil, err
	}

	logger.Info("Assets loaded",
		util.String("dir", dir),
		util.Int("profiles", b.Profiles.Len()),
		util.Int("corpus_events", len(b.Corpus)),
		util.Int("feature_dim", b.Encoder.Dim()),
	)

	return b, nil
}

// validate checks column alignment between the encoder and the ordered
// feature-name lists; a mismatch here would silently skew every vector.
func (b *Bundle) validate() error {
	if err := sameOrder(b.NumericalFeatures, b.Encoder.NumericalFeatures); err != nil {
		return fmt.Errorf("numerical feature list does not match encoder: %w", err)
	}
	if err := sameOrder(b.CategoricalFeatures, b.Encoder.CategoricalFeatures); err != nil {
		return fmt.Errorf("categorical feature list does not match encoder: %w", err)
	}
	if b.Profiles.Len() == 0 {
		return fmt.Errorf("profile snapshot is empty")
	}
	return nil
}

func sameOrder(want, got []string) error {
	if len(want) != len(got) {
		return fmt.Errorf("%d names listed, encoder has %d", len(want), len(got))
	}
	for i := range want {
		if want[i] != got[i] {
			return fmt.Errorf("position %d: %q vs %q", i, want[i], got[i])
		}
	}
	return nil
}

func loadNameList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feature list: %w", err)
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("failed to parse feature list %s: %w", path, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("feature list %s is empty", path)
	}
	return names, nil
}
