package sales

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/btp-erp/backend/internal/domain/ledger"
	"github.com/btp-erp/backend/internal/domain/sales"
	"github.com/btp-erp/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repo       *MockSalesRecordRepository
	ledgerRepo *MockTransactionRepository
	settlement *MockSettlementHandler
	publisher  *MockEventPublisher
	svc        *LifecycleService
}

func newFixture() *fixture {
	f := &fixture{
		repo:       new(MockSalesRecordRepository),
		ledgerRepo: new(MockTransactionRepository),
		settlement: new(MockSettlementHandler),
		publisher:  new(MockEventPublisher),
	}
	f.svc = NewLifecycleService(f.repo, NewNoOpTransactionScope(f.repo, f.ledgerRepo), f.settlement, nil)
	f.svc.SetEventPublisher(f.publisher)
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func recordAt(t *testing.T, st sales.Stage) *sales.SalesRecord {
	li, err := sales.NewLineItem("P-001", "Gravier", dec("2"), dec("50"))
	require.NoError(t, err)
	rec, err := sales.NewSalesRecord("FACT-202401-000001", "client-1", []sales.LineItem{li}, dec("10"), nil, "")
	require.NoError(t, err)
	rec.RestoreStage(st)
	rec.ClearDomainEvents()
	return rec
}

func eventTypes(events []shared.DomainEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.EventType()
	}
	return out
}

func TestLifecycleService_Create(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.repo.On("NextSequenceNumber", ctx, mock.AnythingOfType("time.Time")).Return("FACT-202401-000007", nil)
	f.repo.On("Create", ctx, mock.AnythingOfType("*sales.SalesRecord")).Return(nil)
	f.publisher.On("Publish", ctx, mock.MatchedBy(func(events []shared.DomainEvent) bool {
		return len(events) == 1 && events[0].EventType() == sales.EventTypeSalesRecordCreated
	})).Return(nil)

	discount := dec("10")
	resp, err := f.svc.Create(ctx, CreateSalesRecordRequest{
		ClientID: "client-1",
		Lines:    []LineItemInput{{ProductRef: "P-001", Quantity: dec("2"), UnitPrice: dec("50")}},
		Discount: &discount,
	})

	require.NoError(t, err)
	assert.Equal(t, "FACT-202401-000007", resp.SequenceNumber)
	assert.Equal(t, string(sales.StatusInProgress), resp.Status)
	assert.Equal(t, "100.00", resp.Subtotal.String())
	assert.Equal(t, "90.00", resp.TaxableBase.String())
	assert.Equal(t, "13.48", resp.TaxAmount.String())
	assert.Equal(t, "103.48", resp.Total.String())
	f.repo.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestLifecycleService_Create_ConfiguredDefaultTaxRate(t *testing.T) {
	f := newFixture()
	f.svc.SetDefaultTaxRate(dec("5"))
	ctx := context.Background()
	f.repo.On("NextSequenceNumber", ctx, mock.Anything).Return("FACT-202401-000008", nil)
	f.repo.On("Create", ctx, mock.Anything).Return(nil)
	f.publisher.On("Publish", ctx, mock.Anything).Return(nil)

	resp, err := f.svc.Create(ctx, CreateSalesRecordRequest{
		ClientID: "client-1",
		Lines:    []LineItemInput{{ProductRef: "P-001", Quantity: dec("2"), UnitPrice: dec("50")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "5", resp.TaxRate.String())
	assert.Equal(t, "105.00", resp.Total.String())

	explicit := dec("0")
	resp, err = f.svc.Create(ctx, CreateSalesRecordRequest{
		ClientID: "client-1",
		Lines:    []LineItemInput{{ProductRef: "P-001", Quantity: dec("2"), UnitPrice: dec("50")}},
		TaxRate:  &explicit,
	})
	require.NoError(t, err)
	assert.Equal(t, "100.00", resp.Total.String())
}

func TestLifecycleService_Create_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		req  CreateSalesRecordRequest
	}{
		{"no lines", CreateSalesRecordRequest{ClientID: "c"}},
		{"zero quantity", CreateSalesRecordRequest{ClientID: "c", Lines: []LineItemInput{{ProductRef: "P", Quantity: dec("0"), UnitPrice: dec("1")}}}},
		{"negative price", CreateSalesRecordRequest{ClientID: "c", Lines: []LineItemInput{{ProductRef: "P", Quantity: dec("1"), UnitPrice: dec("-1")}}}},
		{"missing client", CreateSalesRecordRequest{Lines: []LineItemInput{{ProductRef: "P", Quantity: dec("1"), UnitPrice: dec("1")}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.repo.On("NextSequenceNumber", mock.Anything, mock.Anything).Return("FACT-202401-000001", nil).Maybe()

			_, err := f.svc.Create(context.Background(), tt.req)

			require.Error(t, err)
			assert.True(t, shared.IsCode(err, shared.CodeValidation), "got %v", err)
			f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestLifecycleService_Validate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := recordAt(t, sales.OrderStage{State: sales.OrderInProgress})

	f.repo.On("FindByID", ctx, rec.ID).Return(rec, nil)
	f.repo.On("SaveTransition", ctx, rec, sales.OrderStage{State: sales.OrderInProgress}).Return(nil)
	f.publisher.On("Publish", ctx, mock.MatchedBy(func(events []shared.DomainEvent) bool {
		return assert.ObjectsAreEqual([]string{sales.EventTypeSalesRecordValidated}, eventTypes(events))
	})).Return(nil)

	resp, err := f.svc.Validate(ctx, rec.ID)

	require.NoError(t, err)
	assert.Equal(t, string(sales.StatusValidated), resp.Status)
	assert.NotNil(t, resp.ValidatedAt)
	assert.Empty(t, rec.GetDomainEvents(), "events are cleared after publishing")
	f.repo.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestLifecycleService_IllegalTransitionLeavesStoreUntouched(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := recordAt(t, sales.OrderStage{State: sales.OrderInProgress})
	f.repo.On("FindByID", ctx, rec.ID).Return(rec, nil)

	_, err := f.svc.GenerateInvoice(ctx, rec.ID, GenerateInvoiceRequest{})

	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeIllegalTransition))
	assert.Equal(t, sales.StatusInProgress, rec.Status())
	f.repo.AssertNotCalled(t, "SaveTransition", mock.Anything, mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestLifecycleService_Cancel_Idempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := recordAt(t, sales.OrderStage{State: sales.OrderValidated})

	f.repo.On("FindByID", ctx, rec.ID).Return(rec, nil)
	f.repo.On("SaveTransition", ctx, rec, sales.OrderStage{State: sales.OrderValidated}).Return(nil).Once()
	f.publisher.On("Publish", ctx, mock.Anything).Return(nil).Once()

	first, err := f.svc.Cancel(ctx, rec.ID, CancelRequest{Reason: "chantier reporté"})
	require.NoError(t, err)
	second, err := f.svc.Cancel(ctx, rec.ID, CancelRequest{Reason: "again"})
	require.NoError(t, err)

	assert.Equal(t, string(sales.StatusCancelled), first.Status)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, "chantier reporté", second.CancelReason)
	f.repo.AssertNumberOfCalls(t, "SaveTransition", 1)
	f.publisher.AssertNumberOfCalls(t, "Publish", 1)
}

func TestLifecycleService_MarkPaid_RecordsSettlement(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := recordAt(t, sales.InvoiceStage{State: sales.InvoiceIssued})
	paidAt := time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC)

	entry, err := ledger.NewSettlementTransaction(rec.SequenceNumber, rec.ClientID, rec.Total, paidAt)
	require.NoError(t, err)

	f.repo.On("FindByID", ctx, rec.ID).Return(rec, nil)
	f.repo.On("SaveTransition", ctx, rec, sales.InvoiceStage{State: sales.InvoiceIssued}).Return(nil)
	f.settlement.On("RecordSettlement", ctx, f.ledgerRepo, mock.MatchedBy(func(e *sales.InvoiceSettled) bool {
		return e.SequenceNumber == rec.SequenceNumber && e.Amount.Equal(rec.Total) && e.SettledAt.Equal(paidAt)
	})).Return(entry, nil)
	f.publisher.On("Publish", ctx, mock.MatchedBy(func(events []shared.DomainEvent) bool {
		return assert.ObjectsAreEqual(
			[]string{sales.EventTypeInvoiceSettled, ledger.EventTypeTransactionRecorded}, eventTypes(events))
	})).Return(nil)

	resp, err := f.svc.MarkPaid(ctx, rec.ID, MarkPaidRequest{PaidAt: &paidAt})

	require.NoError(t, err)
	assert.Equal(t, string(sales.StatusPaid), resp.Status)
	assert.Equal(t, paidAt, *resp.PaidAt)
	f.settlement.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestLifecycleService_MarkPaid_StaleStatusIsIllegalTransition(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := recordAt(t, sales.InvoiceStage{State: sales.InvoiceIssued})

	f.repo.On("FindByID", ctx, rec.ID).Return(rec, nil)
	f.repo.On("SaveTransition", ctx, rec, mock.Anything).Return(shared.ErrStaleStatus)

	_, err := f.svc.MarkPaid(ctx, rec.ID, MarkPaidRequest{})

	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeIllegalTransition), "got %v", err)
	f.settlement.AssertNotCalled(t, "RecordSettlement", mock.Anything, mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestLifecycleService_MarkPaid_SettlementFailureAborts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := recordAt(t, sales.InvoiceStage{State: sales.InvoiceIssued})
	boom := errors.New("ledger unavailable")

	f.repo.On("FindByID", ctx, rec.ID).Return(rec, nil)
	f.repo.On("SaveTransition", ctx, rec, mock.Anything).Return(nil)
	f.settlement.On("RecordSettlement", ctx, f.ledgerRepo, mock.Anything).Return(nil, boom)

	_, err := f.svc.MarkPaid(ctx, rec.ID, MarkPaidRequest{})

	assert.ErrorIs(t, err, boom)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestLifecycleService_MarkPaid_NotInvoiced(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := recordAt(t, sales.InvoiceStage{State: sales.InvoicePaid})
	f.repo.On("FindByID", ctx, rec.ID).Return(rec, nil)

	_, err := f.svc.MarkPaid(ctx, rec.ID, MarkPaidRequest{})

	assert.True(t, shared.IsCode(err, shared.CodeIllegalTransition))
	f.settlement.AssertNotCalled(t, "RecordSettlement", mock.Anything, mock.Anything, mock.Anything)
}

func TestLifecycleService_Update_Edits(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := recordAt(t, sales.OrderStage{State: sales.OrderInProgress})
	zero := decimal.Zero
	notes := "livrer avant 8h"

	f.repo.On("FindByID", ctx, rec.ID).Return(rec, nil)
	f.repo.On("SaveWithLock", ctx, rec).Return(nil)
	f.publisher.On("Publish", ctx, mock.MatchedBy(func(events []shared.DomainEvent) bool {
		if len(events) != 1 {
			return false
		}
		e, ok := events[0].(*sales.SalesRecordUpdated)
		return ok && assert.ObjectsAreEqual([]string{"lines", "discount", "notes"}, e.Fields) &&
			e.Total.Equal(dec("34.4925"))
	})).Return(nil)

	resp, err := f.svc.Update(ctx, rec.ID, UpdateSalesRecordRequest{
		Lines:    []LineItemInput{{ProductRef: "P-002", Quantity: dec("3"), UnitPrice: dec("10")}},
		Discount: &zero,
		Notes:    &notes,
	})

	require.NoError(t, err)
	assert.Equal(t, "30.00", resp.Subtotal.String())
	assert.Equal(t, "34.49", resp.Total.String())
	assert.Equal(t, notes, resp.Notes)
	f.publisher.AssertExpectations(t)
	f.repo.AssertNotCalled(t, "SaveNotes", mock.Anything, mock.Anything)
}

func TestLifecycleService_Update_NotesAfterInvoicing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := recordAt(t, sales.InvoiceStage{State: sales.InvoiceIssued})
	notes := "relance envoyée"

	f.repo.On("FindByID", ctx, rec.ID).Return(rec, nil)
	f.repo.On("SaveNotes", ctx, rec).Return(nil)
	f.publisher.On("Publish", ctx, mock.MatchedBy(func(events []shared.DomainEvent) bool {
		return assert.ObjectsAreEqual([]string{sales.EventTypeSalesRecordUpdated}, eventTypes(events))
	})).Return(nil)

	resp, err := f.svc.Update(ctx, rec.ID, UpdateSalesRecordRequest{Notes: &notes})

	require.NoError(t, err)
	assert.Equal(t, notes, resp.Notes)
	assert.Equal(t, string(sales.StatusInvoiced), resp.Status)
	f.repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	f.publisher.AssertExpectations(t)
}

func TestLifecycleService_Update_NotesConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := recordAt(t, sales.OrderStage{State: sales.OrderDelivered})
	notes := "x"

	f.repo.On("FindByID", ctx, rec.ID).Return(rec, nil)
	f.repo.On("SaveNotes", ctx, rec).Return(shared.ErrConcurrencyConflict)

	_, err := f.svc.Update(ctx, rec.ID, UpdateSalesRecordRequest{Notes: &notes})

	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestLifecycleService_Update_EmptyRequestIsNoop(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := recordAt(t, sales.OrderStage{State: sales.OrderInProgress})
	f.repo.On("FindByID", ctx, rec.ID).Return(rec, nil)

	resp, err := f.svc.Update(ctx, rec.ID, UpdateSalesRecordRequest{})

	require.NoError(t, err)
	assert.Equal(t, rec.Version, resp.Version)
	f.repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "SaveNotes", mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestLifecycleService_Update_ImmutableOutsideInProgress(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := recordAt(t, sales.InvoiceStage{State: sales.InvoiceIssued})
	discount := dec("5")
	f.repo.On("FindByID", ctx, rec.ID).Return(rec, nil)

	_, err := f.svc.Update(ctx, rec.ID, UpdateSalesRecordRequest{Discount: &discount})

	assert.True(t, shared.IsCode(err, shared.CodeImmutableState))
	f.repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestLifecycleService_Update_VersionMismatch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := recordAt(t, sales.OrderStage{State: sales.OrderInProgress})
	stale := rec.Version + 3
	f.repo.On("FindByID", ctx, rec.ID).Return(rec, nil)

	_, err := f.svc.Update(ctx, rec.ID, UpdateSalesRecordRequest{Version: &stale})

	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestLifecycleService_Update_StatusDispatch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := recordAt(t, sales.OrderStage{State: sales.OrderValidated})

	f.repo.On("FindByID", ctx, rec.ID).Return(rec, nil)
	f.repo.On("SaveTransition", ctx, rec, mock.Anything).Return(nil)
	f.publisher.On("Publish", ctx, mock.Anything).Return(nil)

	status := string(sales.StatusDelivered)
	resp, err := f.svc.Update(ctx, rec.ID, UpdateSalesRecordRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, string(sales.StatusDelivered), resp.Status)

	status = string(sales.StatusInvoiced)
	resp, err = f.svc.Update(ctx, rec.ID, UpdateSalesRecordRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, string(sales.StatusInvoiced), resp.Status)
	assert.Equal(t, string(sales.PhaseInvoice), resp.Phase)
}

func TestLifecycleService_Update_StatusRules(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := recordAt(t, sales.OrderStage{State: sales.OrderValidated})
	f.repo.On("FindByID", ctx, rec.ID).Return(rec, nil)

	reopen := string(sales.StatusInProgress)
	_, err := f.svc.Update(ctx, rec.ID, UpdateSalesRecordRequest{Status: &reopen})
	assert.True(t, shared.IsCode(err, shared.CodeIllegalTransition))

	unknown := "archivée"
	_, err = f.svc.Update(ctx, rec.ID, UpdateSalesRecordRequest{Status: &unknown})
	assert.True(t, shared.IsCode(err, shared.CodeValidation))

	validated := string(sales.StatusDelivered)
	discount := dec("1")
	_, err = f.svc.Update(ctx, rec.ID, UpdateSalesRecordRequest{Status: &validated, Discount: &discount})
	assert.True(t, shared.IsCode(err, shared.CodeValidation))
}

func TestLifecycleService_Delete(t *testing.T) {
	tests := []struct {
		name    string
		stage   sales.Stage
		allowed bool
	}{
		{"en cours", sales.OrderStage{State: sales.OrderInProgress}, true},
		{"annulée", sales.OrderStage{State: sales.OrderCancelled}, true},
		{"facture", sales.InvoiceStage{State: sales.InvoiceIssued}, false},
		{"payé", sales.InvoiceStage{State: sales.InvoicePaid}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			ctx := context.Background()
			rec := recordAt(t, tt.stage)
			f.repo.On("FindByID", ctx, rec.ID).Return(rec, nil)
			f.repo.On("Delete", ctx, rec.ID).Return(nil).Maybe()
			f.publisher.On("Publish", ctx, mock.MatchedBy(func(events []shared.DomainEvent) bool {
				return assert.ObjectsAreEqual([]string{sales.EventTypeSalesRecordDeleted}, eventTypes(events))
			})).Return(nil).Maybe()

			err := f.svc.Delete(ctx, rec.ID)

			if tt.allowed {
				require.NoError(t, err)
				f.repo.AssertCalled(t, "Delete", ctx, rec.ID)
				f.publisher.AssertExpectations(t)
				return
			}
			f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
			assert.True(t, shared.IsCode(err, shared.CodeProtectedRecord))
			f.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		})
	}
}

func TestLifecycleService_Delete_StatusMovedAfterRead(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	stale := recordAt(t, sales.OrderStage{State: sales.OrderInProgress})
	current := recordAt(t, sales.InvoiceStage{State: sales.InvoiceIssued})
	current.ID = stale.ID

	f.repo.On("FindByID", ctx, stale.ID).Return(stale, nil).Once()
	f.repo.On("FindByID", ctx, stale.ID).Return(current, nil).Once()
	f.repo.On("Delete", ctx, stale.ID).Return(shared.ErrStaleStatus)

	err := f.svc.Delete(ctx, stale.ID)

	assert.True(t, shared.IsCode(err, shared.CodeProtectedRecord), "got %v", err)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestLifecycleService_GetByID_ConsistencyWarning(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := recordAt(t, sales.InvoiceStage{State: sales.InvoiceIssued})
	rec.Total = dec("1")
	f.repo.On("FindByID", ctx, rec.ID).Return(rec, nil)

	resp, err := f.svc.GetByID(ctx, rec.ID)

	require.NoError(t, err)
	require.Len(t, resp.Warnings, 1)
	assert.Equal(t, shared.WarnConsistency, resp.Warnings[0].Code)
	assert.Equal(t, "1.00", resp.Total.String(), "stored value is returned as is")
}

func TestLifecycleService_GetByID_NotFound(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	f.repo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

	_, err := f.svc.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestLifecycleService_List(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec := recordAt(t, sales.OrderStage{State: sales.OrderInProgress})
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	matchFilter := mock.MatchedBy(func(flt shared.Filter) bool {
		return flt.Filters[sales.FilterClientID] == "client-1" &&
			flt.Filters[sales.FilterStatus] == sales.StatusInProgress &&
			flt.Filters[sales.FilterDateFrom] == from &&
			flt.Filters[sales.FilterDateTo] == to.AddDate(0, 0, 1) &&
			flt.Page == 1 && flt.PageSize == 20
	})
	f.repo.On("FindAll", ctx, matchFilter).Return([]sales.SalesRecord{*rec}, nil)
	f.repo.On("Count", ctx, matchFilter).Return(int64(1), nil)

	items, total, err := f.svc.List(ctx, SalesRecordListFilter{
		ClientID: "client-1",
		Status:   string(sales.StatusInProgress),
		DateFrom: &from,
		DateTo:   &to,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, rec.SequenceNumber, items[0].SequenceNumber)

	_, _, err = f.svc.List(ctx, SalesRecordListFilter{Status: "shipped"})
	assert.True(t, shared.IsCode(err, shared.CodeValidation))
}
