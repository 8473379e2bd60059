package commission

import (
	"time"

	"estate-crm/internal/rule"

	"github.com/shopspring/decimal"
)

// monthlyInstallments is a fixed payout policy, deliberately not
// configurable per rule.
const monthlyInstallments = 3

// buildSchedule derives the installment plan for a net amount from the
// rule's payment terms, anchored at the sale date. The installment amounts
// always sum to exactly net.
func buildSchedule(net decimal.Decimal, r *rule.CommissionRule, saleDate time.Time) []Installment {
	scheduledDate := saleDate.AddDate(0, 0, r.PaymentDelayDays)

	if r.PaymentSchedule == rule.ScheduleMonthly && shouldSplitMonthly(net, r.MinimumPayoutAmount) {
		return splitMonthly(net, r, scheduledDate)
	}

	return []Installment{newInstallment(1, net, scheduledDate, r.HoldPeriodDays)}
}

// shouldSplitMonthly avoids splitting a sub-threshold amount into three
// tiny payouts: the net must exceed three times the minimum payout.
func shouldSplitMonthly(net, minimumPayout decimal.Decimal) bool {
	threshold := minimumPayout.Mul(decimal.NewFromInt(monthlyInstallments))
	return net.GreaterThan(threshold)
}

func splitMonthly(net decimal.Decimal, r *rule.CommissionRule, start time.Time) []Installment {
	per := net.Div(decimal.NewFromInt(monthlyInstallments)).RoundDown(2)

	installments := make([]Installment, 0, monthlyInstallments)
	allocated := decimal.Zero
	for i := 0; i < monthlyInstallments; i++ {
		amount := per
		if i == monthlyInstallments-1 {
			// The last installment absorbs the rounding remainder.
			amount = net.Sub(allocated)
		}
		installments = append(installments,
			newInstallment(i+1, amount, start.AddDate(0, i, 0), r.HoldPeriodDays))
		allocated = allocated.Add(amount)
	}

	return installments
}

func newInstallment(number int, amount decimal.Decimal, dueDate time.Time, holdPeriodDays int) Installment {
	inst := Installment{
		Number:  number,
		Amount:  amount,
		DueDate: dueDate,
		Status:  InstallmentPending,
	}
	if holdPeriodDays > 0 {
		// Due but not payable before the hold expires; the hold never
		// changes the installment count.
		holdUntil := dueDate.AddDate(0, 0, holdPeriodDays)
		inst.HoldUntil = &holdUntil
	}
	return inst
}
