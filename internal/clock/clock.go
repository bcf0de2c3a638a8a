package clock

import (
	"context"
	"time"

	"auction-marketplace/internal/models"
)

// DefaultInterval is the cadence at which a watched countdown is recomputed
const DefaultInterval = time.Second

const day = 24 * time.Hour

// Remaining breaks the time left until end into days, hours, minutes and seconds.
// The breakdown is a plain duration split, not a calendar difference.
func Remaining(end, now time.Time) models.Countdown {
	diff := end.Sub(now).Truncate(time.Millisecond)
	if diff <= 0 {
		return models.Countdown{Expired: true}
	}

	return models.Countdown{
		Days:    int64(diff / day),
		Hours:   int64(diff % day / time.Hour),
		Minutes: int64(diff % time.Hour / time.Minute),
		Seconds: int64(diff % time.Minute / time.Second),
	}
}

// Watch emits the countdown to end immediately and then once per interval.
// It returns when ctx is done or right after the expired countdown has been emitted.
func Watch(ctx context.Context, end time.Time, interval time.Duration, now func() time.Time, emit func(models.Countdown)) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if now == nil {
		now = time.Now
	}

	current := Remaining(end, now())
	emit(current)
	if current.Expired {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current = Remaining(end, now())
			emit(current)
			if current.Expired {
				return
			}
		}
	}
}
