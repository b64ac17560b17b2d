package bucketing

import (
	"hash"
	"sync"
	"time"

	"beneficiary-portal/internal/config"

	"github.com/spaolacci/murmur3"
)

// Manager assigns consistent partition buckets so hot tables spread across
// the cluster instead of piling onto one partition, and aligns throttle
// windows to fixed time boundaries.
type Manager struct {
	beneficiaryBuckets int
	hasherPool         sync.Pool
}

func NewManager(cfg *config.Config) *Manager {
	m := &Manager{
		beneficiaryBuckets: cfg.Bucketing.BeneficiaryBuckets,
	}

	m.hasherPool = sync.Pool{
		New: func() interface{} {
			return murmur3.New64()
		},
	}

	return m
}

// BeneficiaryBucket returns the partition bucket for a beneficiary ID
func (m *Manager) BeneficiaryBucket(beneficiaryID string) int {
	return m.bucket(beneficiaryID, m.beneficiaryBuckets)
}

// NationalIDBucket returns the partition bucket for a national-ID lookup row
func (m *Manager) NationalIDBucket(nationalID string) int {
	return m.bucket(nationalID, m.beneficiaryBuckets)
}

// TimeBucket aligns the current time to a window boundary, for OTP throttling
func (m *Manager) TimeBucket(window time.Duration) int64 {
	seconds := int64(window / time.Second)
	if seconds <= 0 {
		seconds = 1
	}
	return time.Now().Unix() / seconds * seconds
}

func (m *Manager) bucket(identifier string, buckets int) int {
	if buckets <= 0 {
		return 0
	}

	hasher := m.hasherPool.Get().(hash.Hash64)
	defer m.hasherPool.Put(hasher)

	hasher.Reset()
	_, _ = hasher.Write([]byte(identifier))

	return int(hasher.Sum64() % uint64(buckets))
}
