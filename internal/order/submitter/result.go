package submitter

import "alsaraya/internal/domain"

type Outcome string

const (
	OutcomeConfirmed Outcome = "confirmed"
	OutcomePending   Outcome = "pending"
	OutcomeFallback  Outcome = "fallback"
)

// Result is one of Confirmed, Pending or Fallback.
type Result interface {
	Outcome() Outcome
	Status() string
	isResult()
}

// Confirmed means the POS accepted the order and returned its id.
type Confirmed struct {
	ExternalOrderID string
}

func (Confirmed) Outcome() Outcome { return OutcomeConfirmed }
func (Confirmed) Status() string   { return domain.OrderStatusConfirmed }
func (Confirmed) isResult()        {}

// Pending means the POS is still processing the creation command.
type Pending struct {
	CorrelationID   string
	ExternalOrderID string
}

func (Pending) Outcome() Outcome { return OutcomePending }
func (Pending) Status() string   { return domain.OrderStatusPOSPending }
func (Pending) isResult()        {}

// Fallback means a person has to key the order into the POS by hand.
type Fallback struct {
	PlaceholderID string
	Reason        string
	Record        ManualEntryRecord
}

func (Fallback) Outcome() Outcome { return OutcomeFallback }
func (Fallback) Status() string   { return domain.OrderStatusFallback }
func (Fallback) isResult()        {}
