// Package risk derives the seven behavioral deviation flags from an
// access event and aggregates them into a bounded rule-based score.
package risk

import (
	"strconv"
	"time"

	"access-risk-service/internal/model"
)

// RuleKind tags how a rule compares an event against a profile.
type RuleKind int

const (
	// RuleSingleAttr compares one event attribute with one profile attribute.
	RuleSingleAttr RuleKind = iota
	// RulePairedAttr compares two attribute pairs; a mismatch on either
	// side raises the flag.
	RulePairedAttr
	// RuleCalendar derives the flag from the event's own clock and
	// calendar; the profile accessor is carried but not compared.
	RuleCalendar
)

// Rule declares one deviation check. The extractor dispatches on Kind;
// only the accessors matching the kind are set.
type Rule struct {
	Flag string
	Kind RuleKind

	Event   func(model.AccessEvent) string
	Profile func(model.UserProfile) string

	EventPair   func(model.AccessEvent) (string, string)
	ProfilePair func(model.UserProfile) (string, string)
}

// Rules is the fixed rule table, one entry per risk flag.
var Rules = []Rule{
	{
		Flag: model.FlagIPChange,
		Kind: RuleSingleAttr,
		// Compared at network-prefix granularity: the last octet is
		// stripped from both sides, so a move inside the same /24-style
		// block never raises the flag.
		Event:   func(ev model.AccessEvent) string { return model.IPBlock(ev.ClientIP) },
		Profile: func(p model.UserProfile) string { return model.IPBlock(p.BaseIP) },
	},
	{
		Flag: model.FlagTimeAnomaly,
		Kind: RuleCalendar,
		// The profile's average entry hour is threaded through for
		// completeness. The rule is purely calendar/clock based and
		// never consults it.
		Profile: func(p model.UserProfile) string { return strconv.Itoa(p.AvgEntryHour) },
	},
	{
		Flag:    model.FlagMFAChange,
		Kind:    RuleSingleAttr,
		Event:   func(ev model.AccessEvent) string { return ev.MFAMethod },
		Profile: func(p model.UserProfile) string { return p.PreferredMFA },
	},
	{
		Flag:        model.FlagBrowserOSChange,
		Kind:        RulePairedAttr,
		EventPair:   func(ev model.AccessEvent) (string, string) { return ev.Browser, ev.OS },
		ProfilePair: func(p model.UserProfile) (string, string) { return p.PreferredBrowser, p.PreferredOS },
	},
	{
		Flag:    model.FlagApplicationChange,
		Kind:    RuleSingleAttr,
		Event:   func(ev model.AccessEvent) string { return ev.Application },
		Profile: func(p model.UserProfile) string { return p.PreferredApp },
	},
	{
		Flag:    model.FlagUnitChange,
		Kind:    RuleSingleAttr,
		Event:   func(ev model.AccessEvent) string { return ev.Unit },
		Profile: func(p model.UserProfile) string { return p.Unit },
	},
	{
		Flag:    model.FlagTitleMismatch,
		Kind:    RuleSingleAttr,
		Event:   func(ev model.AccessEvent) string { return ev.Title },
		Profile: func(p model.UserProfile) string { return p.Title },
	},
}

// evaluate runs one rule against an (event, profile) pair and returns
// the binary flag value.
func evaluate(r Rule, ev model.AccessEvent, profile model.UserProfile) int {
	switch r.Kind {
	case RuleSingleAttr:
		if r.Event(ev) != r.Profile(profile) {
			return 1
		}
	case RulePairedAttr:
		evA, evB := r.EventPair(ev)
		prA, prB := r.ProfilePair(profile)
		// Logical OR: either side deviating raises the flag.
		if evA != prA || evB != prB {
			return 1
		}
	case RuleCalendar:
		if isTimeAnomaly(ev.CreatedAt) {
			return 1
		}
	}
	return 0
}

// isTimeAnomaly reports whether a timestamp falls in night hours
// (00:00-06:00 or 22:00-24:00) or on a weekend.
func isTimeAnomaly(t time.Time) bool {
	hour := t.Hour()
	isNight := (hour >= 0 && hour < 6) || (hour >= 22 && hour <= 23)
	wd := t.Weekday()
	isWeekend := wd == time.Saturday || wd == time.Sunday
	return isNight || isWeekend
}
