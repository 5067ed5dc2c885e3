package ledger

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

func settledEvent(amount string) *sales.InvoiceSettled {
	return &sales.InvoiceSettled{
		BaseDomainEvent: shared.NewBaseDomainEvent(sales.EventTypeInvoiceSettled, sales.AggregateTypeSalesRecord, uuid.New()),
		SequenceNumber:  "FACT-202401-000003",
		ClientID:        "client-9",
		Amount:          decimal.RequireFromString(amount),
		SettledAt:       time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
	}
}

func TestSettlementRecorder_RecordSettlement(t *testing.T) {
	ctx := context.Background()
	repo := new(MockTransactionRepository)
	evt := settledEvent("103.48")

	repo.On("ExistsReference", ctx, evt.SequenceNumber).Return(false, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*ledger.Transaction")).Return(nil)

	entry, err := NewSettlementRecorder(nil).RecordSettlement(ctx, repo, evt)

	require.NoError(t, err)
	assert.Equal(t, ledger.TypeIncome, entry.Type)
	assert.Equal(t, ledger.CategorySale, entry.Category)
	assert.Equal(t, ledger.StatusValidated, entry.Status)
	assert.Equal(t, ledger.OriginSystem, entry.Origin)
	assert.True(t, entry.Amount.Equal(evt.Amount))
	assert.Equal(t, evt.SettledAt, entry.Date)
	require.NotNil(t, entry.Reference)
	assert.Equal(t, evt.SequenceNumber, *entry.Reference)
	assert.Equal(t, "Paiement facture FACT-202401-000003", entry.Description)
	assert.Equal(t, "client-9", entry.Counterparty)
	repo.AssertExpectations(t)
}

func TestSettlementRecorder_Duplicate(t *testing.T) {
	ctx := context.Background()
	repo := new(MockTransactionRepository)
	evt := settledEvent("50")
	repo.On("ExistsReference", ctx, evt.SequenceNumber).Return(true, nil)

	_, err := NewSettlementRecorder(nil).RecordSettlement(ctx, repo, evt)

	assert.True(t, shared.IsCode(err, shared.CodeIllegalTransition))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSettlementRecorder_ZeroAmountRejected(t *testing.T) {
	ctx := context.Background()
	repo := new(MockTransactionRepository)
	evt := settledEvent("0")
	repo.On("ExistsReference", ctx, evt.SequenceNumber).Return(false, nil)

	_, err := NewSettlementRecorder(nil).RecordSettlement(ctx, repo, evt)

	assert.True(t, shared.IsCode(err, shared.CodeValidation))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSettlementRecorder_StoreFailure(t *testing.T) {
	ctx := context.Background()
	repo := new(MockTransactionRepository)
	evt := settledEvent("10")
	boom := errors.New("connection reset")
	repo.On("ExistsReference", ctx, evt.SequenceNumber).Return(false, boom)

	_, err := NewSettlementRecorder(nil).RecordSettlement(ctx, repo, evt)

	assert.ErrorIs(t, err, boom)
}
