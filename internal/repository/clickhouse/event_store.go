// Package clickhouse persists the access-event corpus and serves
// per-user history queries when a ClickHouse backend is configured.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"access-risk-service/internal/bucketing"
	"access-risk-service/internal/client"
	"access-risk-service/internal/model"
	"access-risk-service/internal/util"
)

// EventStore is the ClickHouse-backed history store. Events are
// append-only; reads only ever need the most recent slice per user.
type EventStore struct {
	client  *client.ClickHouseClient
	buckets *bucketing.Manager
	table   string
	logger  *zap.Logger
}

func NewEventStore(chClient *client.ClickHouseClient, buckets *bucketing.Manager, table string, logger *zap.Logger) *EventStore {
	return &EventStore{
		client:  chClient,
		buckets: buckets,
		table:   table,
		logger:  logger,
	}
}

// EnsureSchema creates the event table when it does not exist yet.
func (s *EventStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			user_bucket    UInt32,
			user_id        String,
			event_id       String,
			event_time     DateTime64(3, 'UTC'),
			client_ip      String,
			mfa_method     LowCardinality(String),
			application    LowCardinality(String),
			browser        LowCardinality(String),
			os             LowCardinality(String),
			unit           LowCardinality(String),
			title          LowCardinality(String),
			ip_change          UInt8,
			time_anomaly       UInt8,
			mfa_change         UInt8,
			browser_os_change  UInt8,
			application_change UInt8,
			unit_change        UInt8,
			title_mismatch     UInt8,
			risk_score     Float64,
			synthetic_risk UInt8
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(event_time)
		ORDER BY (user_bucket, user_id, event_time)
	`, s.table)

	if err := s.client.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure event table: %w", err)
	}
	return nil
}

// RecentByUser returns up to limit most recent events for a user,
// ordered ascending by timestamp.
func (s *EventStore) RecentByUser(ctx context.Context, userID string, limit int) ([]model.AccessEvent, error) {
	query := fmt.Sprintf(`
		SELECT event_id, user_id, event_time, client_ip,
		       mfa_method, application, browser, os, unit, title,
		       ip_change, time_anomaly, mfa_change, browser_os_change,
		       application_change, unit_change, title_mismatch,
		       risk_score, synthetic_risk
		FROM %s
		WHERE user_bucket = ? AND user_id = ?
		ORDER BY event_time DESC
		LIMIT ?
	`, s.table)

	rows, err := s.client.QueryRows(ctx, query, uint32(s.buckets.UserBucket(userID)), userID, uint64(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query user history: %w", err)
	}
	defer rows.Close()

	var events []model.AccessEvent
	for rows.Next() {
		var (
			ev        model.AccessEvent
			eventTime time.Time
			flags     [7]uint8
			synthetic uint8
		)
		if err := rows.Scan(
			&ev.EventID, &ev.UserID, &eventTime, &ev.ClientIP,
			&ev.MFAMethod, &ev.Application, &ev.Browser, &ev.OS, &ev.Unit, &ev.Title,
			&flags[0], &flags[1], &flags[2], &flags[3], &flags[4], &flags[5], &flags[6],
			&ev.RiskScore, &synthetic,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		ev.CreatedAt = eventTime
		for i, name := range model.FlagNames {
			ev.Flags.Set(name, int(flags[i]))
		}
		ev.SyntheticRisk = int(synthetic)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read user history: %w", err)
	}

	// Query returns newest first; the window builder wants ascending.
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

// Append records one enriched event.
func (s *EventStore) Append(ctx context.Context, event model.AccessEvent) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			user_bucket, user_id, event_id, event_time, client_ip,
			mfa_method, application, browser, os, unit, title,
			ip_change, time_anomaly, mfa_change, browser_os_change,
			application_change, unit_change, title_mismatch,
			risk_score, synthetic_risk
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.table)

	return s.client.Exec(ctx, query,
		uint32(s.buckets.UserBucket(event.UserID)),
		event.UserID,
		event.EventID,
		event.CreatedAt.UTC(),
		event.ClientIP,
		event.MFAMethod, event.Application, event.Browser, event.OS, event.Unit, event.Title,
		uint8(event.Flags.IPChange), uint8(event.Flags.TimeAnomaly), uint8(event.Flags.MFAChange),
		uint8(event.Flags.BrowserOSChange), uint8(event.Flags.ApplicationChange),
		uint8(event.Flags.UnitChange), uint8(event.Flags.TitleMismatch),
		event.RiskScore,
		uint8(event.SyntheticRisk),
	)
}

// SeedCorpus bulk-loads the historical corpus via batch insert. Used
// once when pointing a fresh ClickHouse instance at existing assets.
func (s *EventStore) SeedCorpus(ctx context.Context, events []model.AccessEvent) error {
	if len(events) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			user_bucket, user_id, event_id, event_time, client_ip,
			mfa_method, application, browser, os, unit, title,
			ip_change, time_anomaly, mfa_change, browser_os_change,
			application_change, unit_change, title_mismatch,
			risk_score, synthetic_risk
		)
	`, s.table)

	data := make([][]interface{}, 0, len(events))
	for _, ev := range events {
		data = append(data, []interface{}{
			uint32(s.buckets.UserBucket(ev.UserID)),
			ev.UserID,
			ev.EventID,
			ev.CreatedAt.UTC(),
			ev.ClientIP,
			ev.MFAMethod, ev.Application, ev.Browser, ev.OS, ev.Unit, ev.Title,
			uint8(ev.Flags.IPChange), uint8(ev.Flags.TimeAnomaly), uint8(ev.Flags.MFAChange),
			uint8(ev.Flags.BrowserOSChange), uint8(ev.Flags.ApplicationChange),
			uint8(ev.Flags.UnitChange), uint8(ev.Flags.TitleMismatch),
			ev.RiskScore,
			uint8(ev.SyntheticRisk),
		})
	}

	if err := s.client.BatchInsert(ctx, query, data); err != nil {
		return fmt.Errorf("failed to seed corpus: %w", err)
	}

	s.logger.Info("Seeded event corpus into ClickHouse",
		util.Int("events", len(events)),
		util.String("table", s.table),
	)
	return nil
}
