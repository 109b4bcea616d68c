package expense_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/kittyapp/kitty/internal/expense"
	"github.com/kittyapp/kitty/internal/portion"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	eventID := uuid.New()
	u1, u2 := uuid.New(), uuid.New()

	repo := expense.NewMockRepository(ctrl)
	tx := expense.NewMockWriteTx(ctrl)

	repo.EXPECT().BeginWrite(gomock.Any()).Return(tx, nil)
	tx.EXPECT().
		InsertExpense(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e *expense.Expense) error {
			e.ID = uuid.New()
			return nil
		})
	tx.EXPECT().
		ReplacePayments(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, payments []*expense.Payment) error {
			require.Len(t, payments, 2)
			for _, p := range payments {
				assert.Equal(t, portion.TypePercentage, p.PortionType,
					"payment portion type mirrors the expense")
			}
			return nil
		})
	tx.EXPECT().Commit().Return(nil)
	tx.EXPECT().Rollback().Return(nil)

	svc := expense.NewService(repo)

	got, err := svc.Create(context.Background(), expense.CreateParams{
		EventID:     eventID,
		Name:        "Dinner",
		Amount:      dec("90.00"),
		PortionType: portion.TypePercentage,
		Shares: []expense.Share{
			{UserID: u1, Portion: decPtr("50")},
			{UserID: u2, Portion: decPtr("50")},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, eventID, got.EventID)
	assert.Len(t, got.Payments, 2)
}

func TestService_Create_Validation(t *testing.T) {
	type testCase struct {
		name      string
		params    expense.CreateParams
		wantField string
	}

	valid := expense.CreateParams{
		EventID:     uuid.New(),
		Name:        "Dinner",
		Amount:      dec("90.00"),
		PortionType: portion.TypeAmount,
		Shares:      []expense.Share{{UserID: uuid.New(), Portion: decPtr("45")}},
	}

	tests := []testCase{
		{
			name: "MissingName",
			params: func() expense.CreateParams {
				p := valid
				p.Name = "  "
				return p
			}(),
			wantField: "name",
		},
		{
			name: "ZeroAmount",
			params: func() expense.CreateParams {
				p := valid
				p.Amount = dec("0")
				return p
			}(),
			wantField: "amount",
		},
		{
			name: "NegativeAmount",
			params: func() expense.CreateParams {
				p := valid
				p.Amount = dec("-5.00")
				return p
			}(),
			wantField: "amount",
		},
		{
			name: "TooManyDecimalPlaces",
			params: func() expense.CreateParams {
				p := valid
				p.Amount = dec("9.999")
				return p
			}(),
			wantField: "amount",
		},
		{
			name: "UnknownPortionType",
			params: func() expense.CreateParams {
				p := valid
				p.PortionType = portion.Type("split")
				return p
			}(),
			wantField: "portion_type",
		},
		{
			name: "NoShares",
			params: func() expense.CreateParams {
				p := valid
				p.Shares = nil
				return p
			}(),
			wantField: "shares",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// No repository calls: validation failure aborts before any write.
			repo := expense.NewMockRepository(ctrl)
			svc := expense.NewService(repo)

			_, err := svc.Create(context.Background(), tt.params)

			var verr *expense.ValidationError

			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestService_Create_NewCategoryOverridesSelected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	selected := uuid.New()
	created := &expense.Category{ID: uuid.New(), Name: "drinks"}

	repo := expense.NewMockRepository(ctrl)
	tx := expense.NewMockWriteTx(ctrl)

	repo.EXPECT().BeginWrite(gomock.Any()).Return(tx, nil)
	tx.EXPECT().GetOrCreateCategory(gomock.Any(), "drinks").Return(created, nil)
	tx.EXPECT().
		InsertExpense(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e *expense.Expense) error {
			require.NotNil(t, e.CategoryID)
			assert.Equal(t, created.ID, *e.CategoryID)
			e.ID = uuid.New()
			return nil
		})
	tx.EXPECT().ReplacePayments(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	tx.EXPECT().Commit().Return(nil)
	tx.EXPECT().Rollback().Return(nil)

	svc := expense.NewService(repo)

	got, err := svc.Create(context.Background(), expense.CreateParams{
		EventID:         uuid.New(),
		Name:            "Beers",
		Amount:          dec("30.00"),
		PortionType:     portion.TypeAmount,
		CategoryID:      &selected,
		NewCategoryName: "drinks",
		Shares:          []expense.Share{{UserID: uuid.New(), Portion: decPtr("30")}},
	})
	require.NoError(t, err)
	assert.Equal(t, created, got.Category)
}

func TestService_Create_RollsBackOnPaymentFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := expense.NewMockRepository(ctrl)
	tx := expense.NewMockWriteTx(ctrl)

	repo.EXPECT().BeginWrite(gomock.Any()).Return(tx, nil)
	tx.EXPECT().
		InsertExpense(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e *expense.Expense) error {
			e.ID = uuid.New()
			return nil
		})
	tx.EXPECT().
		ReplacePayments(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("constraint violation"))
	// Commit is never called; the deferred rollback undoes the expense row.
	tx.EXPECT().Rollback().Return(nil)

	svc := expense.NewService(repo)

	_, err := svc.Create(context.Background(), expense.CreateParams{
		EventID:     uuid.New(),
		Name:        "Dinner",
		Amount:      dec("90.00"),
		PortionType: portion.TypeAmount,
		Shares:      []expense.Share{{UserID: uuid.New(), Portion: decPtr("45")}},
	})
	assert.Error(t, err)
}

func TestService_Update_ReplacesFullFieldSet(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	id := uuid.New()
	eventID := uuid.New()
	oldCategory := uuid.New()

	repo := expense.NewMockRepository(ctrl)
	tx := expense.NewMockWriteTx(ctrl)

	repo.EXPECT().
		ExpenseByID(gomock.Any(), id).
		Return(&expense.Expense{
			ID:          id,
			EventID:     eventID,
			CategoryID:  &oldCategory,
			Name:        "Dinner",
			Amount:      dec("90.00"),
			PortionType: portion.TypeAmount,
		}, nil)
	repo.EXPECT().BeginWrite(gomock.Any()).Return(tx, nil)
	tx.EXPECT().
		UpdateExpense(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e *expense.Expense) error {
			assert.Equal(t, "Brunch", e.Name)
			assert.True(t, e.Amount.Equal(dec("45.50")))
			assert.Equal(t, portion.TypePercentage, e.PortionType)
			assert.Nil(t, e.CategoryID, "full-form replacement clears the category")
			assert.Equal(t, eventID, e.EventID, "event binding is immutable")
			return nil
		})
	tx.EXPECT().
		ReplacePayments(gomock.Any(), id, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, payments []*expense.Payment) error {
			require.Len(t, payments, 1)
			assert.Equal(t, portion.TypePercentage, payments[0].PortionType)
			return nil
		})
	tx.EXPECT().Commit().Return(nil)
	tx.EXPECT().Rollback().Return(nil)

	svc := expense.NewService(repo)

	_, err := svc.Update(context.Background(), id, expense.UpdateParams{
		Name:        "Brunch",
		Amount:      dec("45.50"),
		PortionType: portion.TypePercentage,
		Shares:      []expense.Share{{UserID: uuid.New(), Portion: decPtr("100")}},
	})
	require.NoError(t, err)
}

func TestService_Update_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := expense.NewMockRepository(ctrl)
	repo.EXPECT().
		ExpenseByID(gomock.Any(), gomock.Any()).
		Return(nil, expense.ErrNotFound)

	svc := expense.NewService(repo)

	_, err := svc.Update(context.Background(), uuid.New(), expense.UpdateParams{
		Name:        "Brunch",
		Amount:      dec("10.00"),
		PortionType: portion.TypeAmount,
		Shares:      []expense.Share{{UserID: uuid.New()}},
	})
	assert.ErrorIs(t, err, expense.ErrNotFound)
}
