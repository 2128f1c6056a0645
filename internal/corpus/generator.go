// Package corpus generates the synthetic training corpus, enriches it
// through the same rule pipeline serving uses, and fits the encoder and
// target scaler assets.
package corpus

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"access-risk-service/internal/config"
	"access-risk-service/internal/model"
	"access-risk-service/internal/repository/memory"
	"access-risk-service/internal/risk"
	"access-risk-service/internal/util"
)

// Options controls corpus generation.
type Options struct {
	Users          int
	EntriesPerUser int
	// RiskRate is the fraction of entries that get a risk scenario
	// injected.
	RiskRate float64
	Seed     int64
}

func DefaultOptions() Options {
	return Options{
		Users:          100,
		EntriesPerUser: 50,
		RiskRate:       0.15,
		Seed:           time.Now().UnixNano(),
	}
}

// Generator produces synthetic user profiles and access events drawn
// from the configured enumerations.
type Generator struct {
	cfg    *config.Config
	opts   Options
	rng    *rand.Rand
	logger *zap.Logger
}

func NewGenerator(cfg *config.Config, opts Options, logger *zap.Logger) *Generator {
	return &Generator{
		cfg:    cfg,
		opts:   opts,
		rng:    rand.New(rand.NewSource(opts.Seed)),
		logger: logger,
	}
}

// Generate builds profiles and raw (un-enriched) events, events sorted
// by user then ascending timestamp.
func (g *Generator) Generate() (map[string]model.UserProfile, []model.AccessEvent) {
	enums := g.cfg.Enums
	profiles := make(map[string]model.UserProfile, g.opts.Users)
	var events []model.AccessEvent

	for i := 0; i < g.opts.Users; i++ {
		userID := fmt.Sprintf("U%d", 10000+i)

		profile := model.UserProfile{
			UserID:           userID,
			BaseIP:           model.IPBlock(g.randomPublicIP()),
			PreferredMFA:     g.pick(enums.MFAMethods),
			PreferredApp:     g.pick(enums.Applications),
			PreferredBrowser: g.pick(enums.Browsers),
			PreferredOS:      g.pick(enums.OSes),
			Unit:             g.pick(enums.Units),
			Title:            g.pick(enums.Titles),
			// Baseline entry hour inside business hours.
			AvgEntryHour: 9 + g.rng.Intn(9),
		}
		profiles[userID] = profile

		for j := 0; j < g.opts.EntriesPerUser; j++ {
			events = append(events, g.generateEntry(profile))
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].UserID != events[j].UserID {
			return events[i].UserID < events[j].UserID
		}
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})

	g.logger.Info("Generated synthetic corpus",
		util.Int("profiles", len(profiles)),
		util.Int("events", len(events)),
		util.Float64("risk_rate", g.opts.RiskRate),
	)

	return profiles, events
}

func (g *Generator) generateEntry(profile model.UserProfile) model.AccessEvent {
	enums := g.cfg.Enums
	createdAt := time.Now().
		Add(-time.Duration(g.rng.Intn(366)) * 24 * time.Hour).
		Add(-time.Duration(g.rng.Intn(24)) * time.Hour).
		Add(-time.Duration(g.rng.Intn(60)) * time.Minute)

	isRisky := g.rng.Float64() < g.opts.RiskRate

	ev := model.AccessEvent{
		EventID:     uuid.NewString(),
		UserID:      profile.UserID,
		CreatedAt:   createdAt,
		ClientIP:    g.randomPublicIP(),
		MFAMethod:   g.pick(enums.MFAMethods),
		Application: g.pick(enums.Applications),
		Browser:     g.pick(enums.Browsers),
		OS:          g.pick(enums.OSes),
		Unit:        g.pick(enums.Units),
		Title:       g.pick(enums.Titles),
	}

	if isRisky {
		ev.SyntheticRisk = 1
		switch g.rng.Intn(7) {
		case 0: // ip
			ev.ClientIP = g.randomPublicIP()
		case 1: // time
			if g.rng.Float64() < 0.5 {
				nightHours := []int{0, 1, 2, 3, 4, 5, 22, 23}
				ev.CreatedAt = replaceHour(createdAt, nightHours[g.rng.Intn(len(nightHours))])
			} else {
				ev.CreatedAt = replaceHour(shiftToWeekend(createdAt), g.rng.Intn(24))
			}
		case 2: // mfa
			ev.MFAMethod = g.pickOther(enums.MFAMethods, profile.PreferredMFA)
		case 3: // browser/os
			ev.Browser = g.pickOther(enums.Browsers, profile.PreferredBrowser)
			ev.OS = g.pickOther(enums.OSes, profile.PreferredOS)
		case 4: // app
			ev.Application = g.pickOther(enums.Applications, profile.PreferredApp)
		case 5: // unit
			ev.Unit = g.pickOther(enums.Units, profile.Unit)
		case 6: // title
			ev.Title = g.pickOther(enums.Titles, profile.Title)
		}
	} else {
		// Normal scenario: the entry mirrors the profile.
		ev.ClientIP = fmt.Sprintf("%s%d", profile.BaseIP, 1+g.rng.Intn(254))
		ev.MFAMethod = profile.PreferredMFA
		ev.Application = profile.PreferredApp
		ev.Browser = profile.PreferredBrowser
		ev.OS = profile.PreferredOS
		ev.Unit = profile.Unit
		ev.Title = profile.Title
	}

	return ev
}

// Enrich derives flags and the rule-based score for every event using
// the same extractor the serving path runs, so training and serving
// feature semantics stay bit-identical.
func Enrich(events []model.AccessEvent, profiles map[string]model.UserProfile, weights map[string]float64, logger *zap.Logger) []model.AccessEvent {
	extractor := risk.NewExtractor(memory.NewProfileStore(profiles), logger)
	enriched := make([]model.AccessEvent, len(events))
	for i, ev := range events {
		ev.Flags = extractor.Flags(ev)
		ev.RiskScore = risk.Score(ev.Flags, weights)
		enriched[i] = ev
	}
	return enriched
}

func (g *Generator) pick(values []string) string {
	return values[g.rng.Intn(len(values))]
}

// pickOther picks a value different from current when one exists.
func (g *Generator) pickOther(values []string, current string) string {
	others := make([]string, 0, len(values))
	for _, v := range values {
		if v != current {
			others = append(others, v)
		}
	}
	if len(others) == 0 {
		return current
	}
	return others[g.rng.Intn(len(others))]
}

// randomPublicIP draws a dotted-quad outside the private and loopback
// ranges.
func (g *Generator) randomPublicIP() string {
	for {
		a := 1 + g.rng.Intn(222)
		b := g.rng.Intn(256)
		c := g.rng.Intn(256)
		d := 1 + g.rng.Intn(254)
		switch {
		case a == 10 || a == 127:
			continue
		case a == 172 && b >= 16 && b <= 31:
			continue
		case a == 192 && b == 168:
			continue
		case a == 169 && b == 254:
			continue
		}
		return fmt.Sprintf("%d.%d.%d.%d", a, b, c, d)
	}
}

func replaceHour(t time.Time, hour int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// shiftToWeekend moves a weekday timestamp forward to the nearest
// Saturday; weekend timestamps are left alone.
func shiftToWeekend(t time.Time) time.Time {
	wd := (int(t.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	if wd < 5 {
		return t.AddDate(0, 0, 5-wd)
	}
	return t
}
