package redis

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"beneficiary-portal/internal/bucketing"
	"beneficiary-portal/internal/client"
	"beneficiary-portal/internal/util"
)

const otpIssuePrefix = "otp_issue:"

// OTPCache throttles how many codes a beneficiary can request per window.
// Counter keys carry the window start so quotas align to fixed boundaries
// instead of sliding with the first request.
type OTPCache struct {
	client  *client.RedisClient
	buckets *bucketing.Manager
}

func NewOTPCache(client *client.RedisClient, buckets *bucketing.Manager) *OTPCache {
	return &OTPCache{
		client:  client,
		buckets: buckets,
	}
}

// CountIssue bumps the per-beneficiary issue counter for the current window
// and returns the new count.
func (c *OTPCache) CountIssue(ctx context.Context, beneficiaryID, purpose string, window time.Duration) (int, error) {
	key := fmt.Sprintf("%s%s:%s:%d",
		otpIssuePrefix, beneficiaryID, purpose, c.buckets.TimeBucket(window))

	count, err := c.client.IncrWithExpire(ctx, key, window)
	if err != nil {
		util.Error("Failed to count OTP issue",
			zap.String("beneficiary_id", beneficiaryID),
			zap.String("purpose", purpose),
			zap.Error(err))
		return 0, fmt.Errorf("failed to count OTP issue: %w", err)
	}

	return int(count), nil
}
