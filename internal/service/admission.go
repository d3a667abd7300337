package service

import (
	"context"
	"time"

	"github.com/tourify/guide-api/policy"
)

// AdmissionWindow is the trailing window counted against the daily quota.
const AdmissionWindow = 24 * time.Hour

// Admission is the outcome of the device admission gate.
type Admission struct {
	Allowed     bool
	RecentCount int
	Reason      string
	// FailedOpen is set when the count or the policy could not be evaluated.
	FailedOpen bool
}

// RecordDevice records the device unconditionally. A store failure is logged
// and does not block the request.
func (s *Service) RecordDevice(ctx context.Context, fingerprint string) {
	if s.devices == nil {
		return
	}
	if _, err := s.devices.Record(ctx, fingerprint); err != nil {
		s.log.Warn("failed to record device", "fingerprint", fingerprint, "error", err)
	}
}

// Admit decides whether the device may start another generation. It counts the
// guides the device created in the trailing 24 hours; a count or policy
// failure admits the request.
func (s *Service) Admit(ctx context.Context, fingerprint string) Admission {
	since := s.now().Add(-AdmissionWindow)
	count, err := s.guides.CountRecent(ctx, fingerprint, since)
	if err != nil {
		s.log.Warn("admission count failed, admitting", "fingerprint", fingerprint, "error", err)
		return Admission{Allowed: true, FailedOpen: true}
	}

	limit := s.config.DeviceDailyLimit
	if s.policy == nil {
		return Admission{Allowed: count < limit, RecentCount: count}
	}

	decision, err := s.policy.Evaluate(ctx, policy.Input{
		Fingerprint: fingerprint,
		RecentCount: count,
		Limit:       limit,
	})
	if err != nil {
		s.log.Warn("admission policy failed, admitting", "fingerprint", fingerprint, "error", err)
		return Admission{Allowed: true, RecentCount: count, FailedOpen: true}
	}
	return Admission{Allowed: decision.Allow, RecentCount: count, Reason: decision.Reason}
}
