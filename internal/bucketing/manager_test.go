package bucketing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"beneficiary-portal/internal/config"
)

func newTestManager(buckets int) *Manager {
	return NewManager(&config.Config{
		Bucketing: config.BucketingConfig{BeneficiaryBuckets: buckets},
	})
}

func TestBeneficiaryBucketStableAndBounded(t *testing.T) {
	m := newTestManager(64)

	first := m.BeneficiaryBucket("ben-1")
	assert.Equal(t, first, m.BeneficiaryBucket("ben-1"))
	assert.GreaterOrEqual(t, first, 0)
	assert.Less(t, first, 64)

	assert.Equal(t, m.NationalIDBucket("123456789"), m.NationalIDBucket("123456789"))
}

func TestBeneficiaryBucketZeroConfig(t *testing.T) {
	m := newTestManager(0)
	assert.Equal(t, 0, m.BeneficiaryBucket("ben-1"))
}

func TestTimeBucketAlignsToWindow(t *testing.T) {
	m := newTestManager(64)
	window := 10 * time.Minute

	bucket := m.TimeBucket(window)
	assert.Zero(t, bucket%int64(window/time.Second))
	assert.Equal(t, bucket, m.TimeBucket(window))

	// degenerate windows still produce a stable bucket
	assert.NotZero(t, m.TimeBucket(0))
}
