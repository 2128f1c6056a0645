package corpus

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"access-risk-service/internal/config"
	"access-risk-service/internal/model"
)

func generatorConfig() *config.Config {
	return &config.Config{
		Risk: config.RiskConfig{
			SequenceLength: 5,
			Weights:        config.DefaultRiskWeights,
		},
		Enums: config.EnumConfig{
			MFAMethods:   []string{"SMS_OTP", "Email_OTP", "App_Auth", "Hardware_Token"},
			Applications: []string{"AppA", "AppB", "AppC", "AppD"},
			Browsers:     []string{"Chrome", "Firefox", "Safari", "Edge"},
			OSes:         []string{"Windows", "macOS", "Linux", "iOS", "Android"},
			Units:        []string{"HR", "Finance", "Engineering", "Marketing", "Sales"},
			Titles:       []string{"Manager", "Analyst", "Director", "Specialist", "Associate"},
		},
	}
}

func TestGenerate(t *testing.T) {
	opts := Options{Users: 10, EntriesPerUser: 20, RiskRate: 0.15, Seed: 42}
	g := NewGenerator(generatorConfig(), opts, zap.NewNop())

	profiles, events := g.Generate()

	require.Len(t, profiles, 10)
	require.Len(t, events, 200)

	for userID, p := range profiles {
		assert.Equal(t, userID, p.UserID)
		assert.True(t, strings.HasPrefix(userID, "U1000"), "user id %s", userID)
		assert.True(t, strings.HasSuffix(p.BaseIP, "."), "base ip keeps trailing dot: %s", p.BaseIP)
		assert.Equal(t, 3, strings.Count(p.BaseIP, "."), "base ip is a three-octet prefix: %s", p.BaseIP)
		assert.GreaterOrEqual(t, p.AvgEntryHour, 9)
		assert.LessOrEqual(t, p.AvgEntryHour, 17)
	}

	// Events are grouped per user and ascending within each group.
	perUser := make(map[string]int)
	for i := 1; i < len(events); i++ {
		if events[i].UserID == events[i-1].UserID {
			assert.False(t, events[i].CreatedAt.Before(events[i-1].CreatedAt),
				"events for %s must ascend", events[i].UserID)
		}
	}
	for _, ev := range events {
		perUser[ev.UserID]++
		assert.NotEmpty(t, ev.EventID)
		require.Contains(t, profiles, ev.UserID)
	}
	for userID, n := range perUser {
		assert.Equalf(t, 20, n, "user %s", userID)
	}
}

func TestGenerateNormalEntriesMirrorProfile(t *testing.T) {
	opts := Options{Users: 5, EntriesPerUser: 40, RiskRate: 0.15, Seed: 7}
	g := NewGenerator(generatorConfig(), opts, zap.NewNop())

	profiles, events := g.Generate()

	normal := 0
	for _, ev := range events {
		if ev.SyntheticRisk == 1 {
			continue
		}
		normal++
		p := profiles[ev.UserID]
		assert.Equal(t, p.PreferredMFA, ev.MFAMethod)
		assert.Equal(t, p.PreferredApp, ev.Application)
		assert.Equal(t, p.PreferredBrowser, ev.Browser)
		assert.Equal(t, p.PreferredOS, ev.OS)
		assert.Equal(t, p.Unit, ev.Unit)
		assert.Equal(t, p.Title, ev.Title)
		assert.Equal(t, p.BaseIP, model.IPBlock(ev.ClientIP))
	}
	require.NotZero(t, normal)
}

func TestGenerateIsDeterministicForSeed(t *testing.T) {
	opts := Options{Users: 3, EntriesPerUser: 5, RiskRate: 0.15, Seed: 99}

	p1, _ := NewGenerator(generatorConfig(), opts, zap.NewNop()).Generate()
	p2, _ := NewGenerator(generatorConfig(), opts, zap.NewNop()).Generate()
	assert.Equal(t, p1, p2)
}

func TestGenerateRiskInjectionRate(t *testing.T) {
	opts := Options{Users: 20, EntriesPerUser: 50, RiskRate: 0.15, Seed: 42}
	g := NewGenerator(generatorConfig(), opts, zap.NewNop())

	_, events := g.Generate()

	risky := 0
	for _, ev := range events {
		risky += ev.SyntheticRisk
	}
	rate := float64(risky) / float64(len(events))
	assert.InDelta(t, 0.15, rate, 0.05)
}

func TestEnrich(t *testing.T) {
	opts := Options{Users: 5, EntriesPerUser: 10, RiskRate: 0.5, Seed: 11}
	g := NewGenerator(generatorConfig(), opts, zap.NewNop())

	profiles, events := g.Generate()
	enriched := Enrich(events, profiles, config.DefaultRiskWeights, zap.NewNop())
	require.Len(t, enriched, len(events))

	for _, ev := range enriched {
		assert.GreaterOrEqual(t, ev.RiskScore, 0.0)
		assert.LessOrEqual(t, ev.RiskScore, 1.0)

		// The score must always be the weighted flag sum.
		var want float64
		for _, name := range model.FlagNames {
			if ev.Flags.Value(name) == 1 {
				want += config.DefaultRiskWeights[name]
			}
		}
		assert.InDelta(t, want, ev.RiskScore, 1e-12)
	}
}
