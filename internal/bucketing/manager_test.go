package bucketing

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"access-risk-service/internal/config"
)

func testManager() *Manager {
	return NewManager(&config.Config{
		Bucketing: config.BucketingConfig{UserBuckets: 64, EventBuckets: 128},
	})
}

func TestUserBucketIsStableAndInRange(t *testing.T) {
	m := testManager()

	for i := 0; i < 500; i++ {
		userID := fmt.Sprintf("U%d", 10000+i)
		b := m.UserBucket(userID)
		assert.GreaterOrEqual(t, b, 0)
		assert.Less(t, b, 64)
		assert.Equal(t, b, m.UserBucket(userID), "bucket for %s must be stable", userID)
	}
}

func TestEventBucketRange(t *testing.T) {
	m := testManager()

	for i := 0; i < 500; i++ {
		b := m.EventBucket(fmt.Sprintf("event-%d", i))
		assert.GreaterOrEqual(t, b, 0)
		assert.Less(t, b, 128)
	}
}

func TestBucketsSpread(t *testing.T) {
	m := testManager()

	seen := make(map[int]bool)
	for i := 0; i < 500; i++ {
		seen[m.UserBucket(fmt.Sprintf("U%d", 10000+i))] = true
	}
	// 500 keys over 64 buckets should touch most of them.
	assert.Greater(t, len(seen), 32)
}

func TestDateBucket(t *testing.T) {
	m := testManager()

	est := time.FixedZone("EST", -5*3600)
	ts := time.Date(2025, 3, 4, 23, 30, 0, 0, est)
	assert.Equal(t, "2025-03-05", m.DateBucket(ts), "partitions are keyed on the UTC date")
}

func TestConcurrentHashing(t *testing.T) {
	m := testManager()
	want := m.UserBucket("U10000")

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 1000; j++ {
				assert.Equal(t, want, m.UserBucket("U10000"))
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
