package llm

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"forum-letter/config"
)

// QuotaLimiter enforces per-minute and per-day limits on LLM calls.
// It is in-memory, so the daily counter resets when the process restarts.
type QuotaLimiter struct {
	mu sync.Mutex

	dailyLimit int
	usedToday  int
	dayKey     string

	perMinute *rate.Limiter
	now       func() time.Time
}

// NewQuotaLimiter leaves a dimension unlimited when its setting is <= 0.
func NewQuotaLimiter(cfg config.QuotaConfig) *QuotaLimiter {
	l := &QuotaLimiter{now: time.Now}
	if cfg.RequestsPerDay > 0 {
		l.dailyLimit = cfg.RequestsPerDay
	}
	if cfg.RequestsPerMinute > 0 {
		l.perMinute = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return l
}

// WaitAndReserve applies both limits before a call.
// It returns (false, nil) once the daily budget is spent; the caller must skip the call.
// On context cancellation it returns (false, ctx.Err()).
func (l *QuotaLimiter) WaitAndReserve(ctx context.Context) (bool, error) {
	if l == nil {
		return true, nil
	}

	l.mu.Lock()
	todayKey := l.now().UTC().Format("2006-01-02")
	if l.dayKey != todayKey {
		l.dayKey = todayKey
		l.usedToday = 0
	}
	if l.dailyLimit > 0 && l.usedToday >= l.dailyLimit {
		l.mu.Unlock()
		return false, nil
	}
	l.usedToday++
	l.mu.Unlock()

	if l.perMinute != nil {
		if err := l.perMinute.Wait(ctx); err != nil {
			l.mu.Lock()
			l.usedToday--
			l.mu.Unlock()
			return false, err
		}
	}
	return true, nil
}

// Remaining returns the calls left today, or -1 without a daily limit.
func (l *QuotaLimiter) Remaining() int {
	if l == nil || l.dailyLimit <= 0 {
		return -1
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.dayKey != l.now().UTC().Format("2006-01-02") {
		return l.dailyLimit
	}
	return l.dailyLimit - l.usedToday
}
