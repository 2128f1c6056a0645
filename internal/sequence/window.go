// Package sequence assembles the fixed-length temporal windows the
// downstream regression model consumes.
package sequence

import (
	"fmt"

	"go.uber.org/zap"

	"access-risk-service/internal/feature"
	"access-risk-service/internal/model"
	"access-risk-service/internal/util"
)

// Builder produces N x D sequence windows for one user, ending at a
// target event. Read-only after construction.
type Builder struct {
	length  int
	encoder *feature.Encoder
	logger  *zap.Logger
}

// NewBuilder creates a window builder for the configured length N.
func NewBuilder(length int, encoder *feature.Encoder, logger *zap.Logger) *Builder {
	return &Builder{
		length:  length,
		encoder: encoder,
		logger:  logger,
	}
}

// Length returns the configured window length N.
func (b *Builder) Length() int { return b.length }

// Build assembles the window for a target event given the user's prior
// events ordered ascending by timestamp.
//
// Up to N-1 most recent prior events are kept (oldest excess dropped),
// the target goes last, and each event is encoded to a D-vector. The
// encoded rows are right-aligned into an N x D zero matrix, so any
// padding the model sees comes before real history. Fewer than N-1
// prior events is a non-fatal condition: it is logged and the leading
// zero rows absorb the shortfall.
func (b *Builder) Build(history []model.AccessEvent, target model.AccessEvent) (model.SequenceWindow, error) {
	prior := history
	if len(prior) > b.length-1 {
		prior = prior[len(prior)-(b.length-1):]
	}

	if len(prior) < b.length-1 {
		b.logger.Warn("insufficient history for full window, front-padding with zeros",
			util.String("user_id", target.UserID),
			util.Int("history_len", len(prior)),
			util.Int("window_len", b.length),
		)
	}

	rows := make([]feature.Row, 0, len(prior)+1)
	for _, ev := range prior {
		rows = append(rows, feature.EventColumns(ev))
	}
	rows = append(rows, feature.EventColumns(target))

	encoded, err := b.encoder.Transform(rows)
	if err != nil {
		return model.SequenceWindow{}, fmt.Errorf("failed to transform window events: %w", err)
	}

	dim := b.encoder.Dim()
	matrix := make([][]float64, b.length)
	for i := range matrix {
		matrix[i] = make([]float64, dim)
	}
	// Right-align: the target's vector is always the last row.
	offset := b.length - len(encoded)
	for i, vec := range encoded {
		matrix[offset+i] = vec
	}

	return model.SequenceWindow{Rows: matrix, Populated: len(encoded)}, nil
}
