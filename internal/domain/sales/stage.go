package sales

import (
	"fmt"

	"github.com/btp-erp/backend/internal/domain/shared"
)

// Status is the persisted status label shared by both phases
type Status string

const (
	StatusInProgress Status = "en cours"
	StatusValidated  Status = "validée"
	StatusDelivered  Status = "livrée"
	StatusCancelled  Status = "annulée"
	StatusInvoiced   Status = "facture"
	StatusPaid       Status = "payé"
)

// AllStatuses lists every status label in lifecycle order
var AllStatuses = []Status{
	StatusInProgress, StatusValidated, StatusDelivered,
	StatusInvoiced, StatusPaid, StatusCancelled,
}

// DeletableStatuses are the statuses in which a record may be removed
var DeletableStatuses = []Status{StatusInProgress, StatusCancelled}

// IsValid checks if the status label is known
func (s Status) IsValid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Phase distinguishes the order track from the invoice track
type Phase string

const (
	PhaseOrder   Phase = "order"
	PhaseInvoice Phase = "invoice"
)

// Stage is the lifecycle position of a SalesRecord. It is either an
// OrderStage or an InvoiceStage; operations that only make sense in one
// phase are only defined on that variant.
type Stage interface {
	Phase() Phase
	Status() Status
	IsTerminal() bool
	cancel() (Stage, error)
}

// OrderState is a position on the order track
type OrderState string

const (
	OrderInProgress OrderState = OrderState(StatusInProgress)
	OrderValidated  OrderState = OrderState(StatusValidated)
	OrderDelivered  OrderState = OrderState(StatusDelivered)
	OrderCancelled  OrderState = OrderState(StatusCancelled)
)

// InvoiceState is a position on the invoice track
type InvoiceState string

const (
	InvoiceIssued    InvoiceState = InvoiceState(StatusInvoiced)
	InvoicePaid      InvoiceState = InvoiceState(StatusPaid)
	InvoiceCancelled InvoiceState = InvoiceState(StatusCancelled)
)

// OrderStage is the order phase variant
type OrderStage struct {
	State OrderState
}

func (s OrderStage) Phase() Phase   { return PhaseOrder }
func (s OrderStage) Status() Status { return Status(s.State) }

// IsTerminal is true for livrée and annulée
func (s OrderStage) IsTerminal() bool {
	return s.State == OrderDelivered || s.State == OrderCancelled
}

func (s OrderStage) validate() (Stage, error) {
	if s.State != OrderInProgress {
		return s, shared.NewIllegalTransitionError("validate", string(s.State))
	}
	return OrderStage{State: OrderValidated}, nil
}

func (s OrderStage) deliver() (Stage, error) {
	if s.State != OrderValidated {
		return s, shared.NewIllegalTransitionError("deliver", string(s.State))
	}
	return OrderStage{State: OrderDelivered}, nil
}

func (s OrderStage) cancel() (Stage, error) {
	switch s.State {
	case OrderInProgress, OrderValidated:
		return OrderStage{State: OrderCancelled}, nil
	case OrderCancelled:
		return s, nil
	default:
		return s, shared.NewIllegalTransitionError("cancel", string(s.State))
	}
}

// invoice bridges the order phase into the invoice phase
func (s OrderStage) invoice() (Stage, error) {
	if s.State != OrderValidated && s.State != OrderDelivered {
		return s, shared.NewIllegalTransitionError("invoice", string(s.State))
	}
	return InvoiceStage{State: InvoiceIssued}, nil
}

// InvoiceStage is the invoice phase variant
type InvoiceStage struct {
	State InvoiceState
}

func (s InvoiceStage) Phase() Phase   { return PhaseInvoice }
func (s InvoiceStage) Status() Status { return Status(s.State) }

// IsTerminal is true for payé and annulée
func (s InvoiceStage) IsTerminal() bool {
	return s.State == InvoicePaid || s.State == InvoiceCancelled
}

func (s InvoiceStage) pay() (Stage, error) {
	if s.State != InvoiceIssued {
		return s, shared.NewIllegalTransitionError("mark as paid", string(s.State))
	}
	return InvoiceStage{State: InvoicePaid}, nil
}

func (s InvoiceStage) cancel() (Stage, error) {
	switch s.State {
	case InvoiceIssued:
		return InvoiceStage{State: InvoiceCancelled}, nil
	case InvoiceCancelled:
		return s, nil
	default:
		return s, shared.NewIllegalTransitionError("cancel", string(s.State))
	}
}

// ParseStage rebuilds a Stage from its persisted (phase, status) pair
func ParseStage(phase Phase, status Status) (Stage, error) {
	switch phase {
	case PhaseOrder:
		switch status {
		case StatusInProgress, StatusValidated, StatusDelivered, StatusCancelled:
			return OrderStage{State: OrderState(status)}, nil
		}
	case PhaseInvoice:
		switch status {
		case StatusInvoiced, StatusPaid, StatusCancelled:
			return InvoiceStage{State: InvoiceState(status)}, nil
		}
	}
	return nil, fmt.Errorf("invalid lifecycle stage %q/%q", phase, status)
}

// StagesWithStatus returns every stage that renders as status.
// annulée exists in both phases.
func StagesWithStatus(status Status) []Stage {
	var out []Stage
	for _, p := range []Phase{PhaseOrder, PhaseInvoice} {
		if st, err := ParseStage(p, status); err == nil {
			out = append(out, st)
		}
	}
	return out
}
