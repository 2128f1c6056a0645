package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"access-risk-service/internal/assets"
	"access-risk-service/internal/feature"
	"access-risk-service/internal/model"
	"access-risk-service/internal/util"
)

// BuildAssets fits the feature encoder and target scaler on the
// enriched corpus and writes every serving asset under dir.
func BuildAssets(dir string, profiles map[string]model.UserProfile, events []model.AccessEvent, logger *zap.Logger) error {
	if len(events) == 0 {
		return fmt.Errorf("corpus: no events to fit on")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("corpus: create asset dir: %w", err)
	}

	numerical := feature.NumericalColumns()
	categorical := feature.CategoricalColumns()

	rows := make([]feature.Row, len(events))
	scores := make([]float64, len(events))
	for i, ev := range events {
		rows[i] = feature.EventColumns(ev)
		scores[i] = ev.RiskScore
	}

	encoder, err := feature.Fit(rows, numerical, categorical)
	if err != nil {
		return fmt.Errorf("corpus: fit encoder: %w", err)
	}
	scaler, err := feature.FitTargetScaler(scores)
	if err != nil {
		return fmt.Errorf("corpus: fit target scaler: %w", err)
	}

	if err := encoder.Save(filepath.Join(dir, assets.EncoderFile)); err != nil {
		return err
	}
	if err := scaler.Save(filepath.Join(dir, assets.TargetScalerFile)); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, assets.ProfilesFile), profiles); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, assets.NumericalFeaturesFile), numerical); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, assets.CategoricalFeaturesFile), categorical); err != nil {
		return err
	}
	if err := writeCorpus(filepath.Join(dir, assets.CorpusFile), events); err != nil {
		return err
	}

	logger.Info("Wrote serving assets",
		util.String("dir", dir),
		util.Int("encoder_dim", encoder.Dim()),
		util.Int("events", len(events)),
	)
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("corpus: marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("corpus: write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeCorpus emits one JSON document per line so the history store can
// stream it back without loading the whole file.
func writeCorpus(path string, events []model.AccessEvent) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("corpus: create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("corpus: encode event %s: %w", ev.EventID, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("corpus: flush %s: %w", filepath.Base(path), err)
	}
	return nil
}
