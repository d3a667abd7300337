package service

import (
	"context"
	"time"
)

// GuideErrStale is persisted on guides left pending past the stale threshold.
const GuideErrStale = "generation interrupted"

const staleSweepBatch = 100

// RunStaleGuideMonitor periodically marks guides stuck in pending as errored,
// e.g. after the process stopped mid-stream. It returns when ctx is done.
func (s *Service) RunStaleGuideMonitor(ctx context.Context, interval time.Duration) {
	if s.config.StaleGuideAfter <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepStaleGuides(ctx)
		}
	}
}

func (s *Service) sweepStaleGuides(ctx context.Context) int {
	sweepCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	stale, err := s.guides.ListStalePending(sweepCtx, s.now().Add(-s.config.StaleGuideAfter), staleSweepBatch)
	if err != nil {
		s.log.Warn("stale guide sweep failed", "error", err)
		return 0
	}

	marked := 0
	for _, g := range stale {
		if err := s.guides.MarkError(sweepCtx, g.GuideID, GuideErrStale); err != nil {
			s.log.Warn("failed to expire stale guide", "guide_id", g.GuideID, "error", err)
			continue
		}
		marked++
	}
	if marked > 0 {
		s.log.Info("expired stale guides", "count", marked)
	}
	return marked
}
