package translator

import (
	"time"

	"alsaraya/internal/config"
	"alsaraya/internal/domain"
)

// DeliveryPolicy picks the promised delivery time for a checkout choice.
type DeliveryPolicy struct {
	Location      *time.Location
	MinLeadTime   time.Duration
	EveningCutoff config.Clock
	DefaultHour   config.Clock
}

func NewDeliveryPolicy(cfg config.DeliveryConfig) DeliveryPolicy {
	return DeliveryPolicy{
		Location:      cfg.Location,
		MinLeadTime:   cfg.MinLeadTime,
		EveningCutoff: cfg.EveningCutoff,
		DefaultHour:   cfg.DefaultHour,
	}
}

// Resolve returns the explicit timestamp untouched. Every derived time is at
// least MinLeadTime after now.
func (p DeliveryPolicy) Resolve(req domain.DeliveryRequest, now time.Time) time.Time {
	if req.At != nil {
		return *req.At
	}

	earliest := now.Add(p.MinLeadTime)
	local := now.In(p.location())

	switch req.Strategy {
	case domain.DeliveryASAP:
		return earliest
	case domain.DeliveryToday:
		return later(earliest, p.at(local, 0, p.EveningCutoff))
	default:
		return later(earliest, p.at(local, 1, p.DefaultHour))
	}
}

func (p DeliveryPolicy) at(local time.Time, dayOffset int, clock config.Clock) time.Time {
	y, m, d := local.Date()
	return time.Date(y, m, d+dayOffset, clock.Hour, clock.Minute, 0, 0, p.location())
}

func (p DeliveryPolicy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
