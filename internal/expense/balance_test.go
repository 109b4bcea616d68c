package expense_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/kittyapp/kitty/internal/expense"
	"github.com/kittyapp/kitty/internal/portion"
)

func TestService_EventBalances(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	eventID := uuid.New()
	aliceID, bobID := uuid.New(), uuid.New()

	dinner := &expense.Expense{
		ID:          uuid.New(),
		EventID:     eventID,
		Name:        "Dinner",
		Amount:      dec("90.00"),
		PortionType: portion.TypeAmount,
	}
	dinner.Payments = []*expense.Payment{
		{ExpenseID: dinner.ID, UserID: aliceID, Username: "alice", PortionType: portion.TypeAmount, Portion: decPtr("45.00")},
		{ExpenseID: dinner.ID, UserID: bobID, Username: "bob", PortionType: portion.TypeAmount, Portion: decPtr("45.00")},
	}

	taxi := &expense.Expense{
		ID:          uuid.New(),
		EventID:     eventID,
		Name:        "Taxi",
		Amount:      dec("20.00"),
		PortionType: portion.TypePercentage,
	}
	taxi.Payments = []*expense.Payment{
		// Percentage portions are normalized to currency before summing.
		{ExpenseID: taxi.ID, UserID: aliceID, Username: "alice", PortionType: portion.TypePercentage, Portion: decPtr("25")},
	}

	repo := expense.NewMockRepository(ctrl)
	repo.EXPECT().
		MemberUsernames(gomock.Any(), eventID).
		Return([]string{"alice", "bob", "carol"}, nil)
	repo.EXPECT().
		ListExpenses(gomock.Any(), eventID).
		Return([]*expense.Expense{dinner, taxi}, nil)

	svc := expense.NewService(repo)

	balances, err := svc.EventBalances(context.Background(), eventID)
	require.NoError(t, err)
	require.Len(t, balances, 3)

	// alice: 45.00 + 25% of 20.00 = 50.00
	require.NotNil(t, balances["alice"])
	assert.True(t, balances["alice"].Equal(dec("50.00")), "alice = %s", balances["alice"])

	require.NotNil(t, balances["bob"])
	assert.True(t, balances["bob"].Equal(dec("45.00")), "bob = %s", balances["bob"])

	// carol is a member with no payments: nil, not zero.
	val, ok := balances["carol"]
	require.True(t, ok)
	assert.Nil(t, val)
}

func TestService_EventBalances_EndToEndProperty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	eventID := uuid.New()
	aID := uuid.New()

	dinner := &expense.Expense{
		ID:          uuid.New(),
		EventID:     eventID,
		Name:        "Dinner",
		Amount:      dec("90.00"),
		PortionType: portion.TypeAmount,
	}
	dinner.Payments = []*expense.Payment{
		{ExpenseID: dinner.ID, UserID: aID, Username: "a@x.com", PortionType: portion.TypeAmount, Portion: decPtr("45.00")},
	}

	repo := expense.NewMockRepository(ctrl)
	repo.EXPECT().MemberUsernames(gomock.Any(), eventID).Return([]string{"a@x.com"}, nil)
	repo.EXPECT().ListExpenses(gomock.Any(), eventID).Return([]*expense.Expense{dinner}, nil)
	repo.EXPECT().SumExpenseAmounts(gomock.Any(), eventID).Return(dec("90.00"), nil)

	svc := expense.NewService(repo)

	balances, err := svc.EventBalances(context.Background(), eventID)
	require.NoError(t, err)
	require.NotNil(t, balances["a@x.com"])
	assert.True(t, balances["a@x.com"].Equal(dec("45.00")))

	total, err := svc.TotalAmount(context.Background(), eventID)
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("90.00")))
}

func TestService_EventBalances_IgnoresDepartedUsers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	eventID := uuid.New()

	e := &expense.Expense{
		ID:          uuid.New(),
		EventID:     eventID,
		Name:        "Dinner",
		Amount:      dec("30.00"),
		PortionType: portion.TypeAmount,
	}
	e.Payments = []*expense.Payment{
		{ExpenseID: e.ID, UserID: uuid.New(), Username: "ghost", PortionType: portion.TypeAmount, Portion: decPtr("30.00")},
	}

	repo := expense.NewMockRepository(ctrl)
	repo.EXPECT().MemberUsernames(gomock.Any(), eventID).Return([]string{"alice"}, nil)
	repo.EXPECT().ListExpenses(gomock.Any(), eventID).Return([]*expense.Expense{e}, nil)

	svc := expense.NewService(repo)

	balances, err := svc.EventBalances(context.Background(), eventID)
	require.NoError(t, err)
	assert.Len(t, balances, 1)
	assert.Nil(t, balances["alice"])
}

func TestService_EventBalances_NilDeclaredPortion(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	eventID := uuid.New()

	e := &expense.Expense{
		ID:          uuid.New(),
		EventID:     eventID,
		Name:        "Pending",
		Amount:      dec("50.00"),
		PortionType: portion.TypeAmount,
	}
	e.Payments = []*expense.Payment{
		{ExpenseID: e.ID, UserID: uuid.New(), Username: "alice", PortionType: portion.TypeAmount, Portion: nil},
	}

	repo := expense.NewMockRepository(ctrl)
	repo.EXPECT().MemberUsernames(gomock.Any(), eventID).Return([]string{"alice"}, nil)
	repo.EXPECT().ListExpenses(gomock.Any(), eventID).Return([]*expense.Expense{e}, nil)

	svc := expense.NewService(repo)

	balances, err := svc.EventBalances(context.Background(), eventID)
	require.NoError(t, err)

	// A payment exists, so the balance is present, but the undeclared
	// portion contributes zero.
	require.NotNil(t, balances["alice"])
	assert.True(t, balances["alice"].IsZero())
}

func TestPayment_Owed(t *testing.T) {
	e := &expense.Expense{Amount: dec("200.00"), PortionType: portion.TypeAmount}

	p := &expense.Payment{PortionType: portion.TypePercentage, Portion: decPtr("12.5")}
	assert.True(t, p.Owed(e).Equal(dec("25.00")))

	p = &expense.Payment{PortionType: portion.TypeAmount, Portion: decPtr("80.00")}
	assert.True(t, p.Owed(e).Equal(dec("80.00")))

	p = &expense.Payment{PortionType: portion.TypeAmount, Portion: nil}
	assert.True(t, p.Owed(e).IsZero())

	// The payment's own portion type governs, even when it disagrees with
	// the parent expense.
	e.PortionType = portion.TypeAmount
	p = &expense.Payment{PortionType: portion.TypePercentage, Portion: decPtr("50")}
	assert.True(t, p.Owed(e).Equal(dec("100.00")))
}
