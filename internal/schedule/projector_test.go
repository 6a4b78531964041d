package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"laundromat/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func recurringOrder(anchor time.Time, freqType string, freqValue int) model.Order {
	return model.Order{
		ID:           "ord-1",
		IsRecurring:  true,
		Status:       model.StatusScheduled,
		DeliveryDate: anchor,
		RecurrencePattern: &model.RecurrencePattern{
			FrequencyType:  freqType,
			FrequencyValue: freqValue,
		},
	}
}

func TestProjectWeeklyWithinHorizon(t *testing.T) {
	order := recurringOrder(date(2025, time.January, 1), model.FrequencyWeekly, 1)
	horizon := date(2025, time.January, 31)

	got := Project(order, horizon, 200)

	want := []time.Time{
		date(2025, time.January, 8),
		date(2025, time.January, 15),
		date(2025, time.January, 22),
		date(2025, time.January, 29),
	}
	require.Len(t, got, len(want))
	for i, occ := range got {
		require.True(t, occ.DeliveryDate.Equal(want[i]), "occurrence %d = %s", i, occ.DeliveryDate)
		require.Equal(t, "ord-1", occ.OrderID)
		require.True(t, occ.Projected)
	}
}

func TestProjectExcludesAnchor(t *testing.T) {
	anchor := date(2025, time.March, 10)
	order := recurringOrder(anchor, model.FrequencyDaily, 1)

	got := Project(order, anchor.AddDate(0, 0, 10), 200)

	require.NotEmpty(t, got)
	for _, occ := range got {
		require.True(t, occ.DeliveryDate.After(anchor), "anchor must not be re-emitted, got %s", occ.DeliveryDate)
	}
}

func TestProjectEmptyForCancelledOrder(t *testing.T) {
	order := recurringOrder(date(2025, time.January, 1), model.FrequencyWeekly, 1)
	order.Status = model.StatusCancelled

	require.Empty(t, Project(order, date(2025, time.June, 1), 200))
}

func TestProjectEmptyForUnknownFrequency(t *testing.T) {
	order := recurringOrder(date(2025, time.January, 1), "fortnightly", 1)

	require.Empty(t, Project(order, date(2025, time.June, 1), 200))
}

func TestProjectEmptyForNonRecurring(t *testing.T) {
	order := recurringOrder(date(2025, time.January, 1), model.FrequencyWeekly, 1)
	order.IsRecurring = false

	require.Empty(t, Project(order, date(2025, time.June, 1), 200))
}

func TestProjectEmptyForMissingPattern(t *testing.T) {
	order := recurringOrder(date(2025, time.January, 1), model.FrequencyWeekly, 1)
	order.RecurrencePattern = nil

	require.Empty(t, Project(order, date(2025, time.June, 1), 200))
}

func TestProjectEmptyForZeroFrequencyValue(t *testing.T) {
	order := recurringOrder(date(2025, time.January, 1), model.FrequencyDaily, 0)

	require.Empty(t, Project(order, date(2025, time.June, 1), 200))
}

func TestProjectEmptyForMissingDeliveryDate(t *testing.T) {
	order := recurringOrder(time.Time{}, model.FrequencyWeekly, 1)

	require.Empty(t, Project(order, date(2025, time.June, 1), 200))
}

func TestProjectBoundedByMaxIterations(t *testing.T) {
	order := recurringOrder(date(2025, time.January, 1), model.FrequencyDaily, 1)
	horizon := date(2035, time.January, 1)

	got := Project(order, horizon, 200)

	require.LessOrEqual(t, len(got), 200)
	anchor := order.DeliveryDate
	for _, occ := range got {
		require.True(t, occ.DeliveryDate.After(anchor))
		require.False(t, occ.DeliveryDate.After(horizon))
	}
}

func TestProjectReproducible(t *testing.T) {
	order := recurringOrder(date(2025, time.January, 1), model.FrequencyWeekly, 2)
	horizon := date(2025, time.July, 1)

	first := Project(order, horizon, 200)
	second := Project(order, horizon, 200)

	require.Equal(t, first, second)
}

func TestProjectMonthlyClampsToMonthEnd(t *testing.T) {
	order := recurringOrder(date(2025, time.January, 31), model.FrequencyMonthly, 1)

	got := Project(order, date(2025, time.May, 31), 200)

	want := []time.Time{
		date(2025, time.February, 28),
		date(2025, time.March, 31),
		date(2025, time.April, 30),
		date(2025, time.May, 31),
	}
	require.Len(t, got, len(want))
	for i, occ := range got {
		require.True(t, occ.DeliveryDate.Equal(want[i]), "occurrence %d = %s, want %s", i, occ.DeliveryDate, want[i])
	}
}

func TestProjectMonthlyLeapFebruary(t *testing.T) {
	order := recurringOrder(date(2024, time.January, 31), model.FrequencyMonthly, 1)

	got := Project(order, date(2024, time.February, 29), 200)

	require.Len(t, got, 1)
	require.True(t, got[0].DeliveryDate.Equal(date(2024, time.February, 29)))
}

func TestNextStepsOneInterval(t *testing.T) {
	weekly := model.RecurrencePattern{FrequencyType: model.FrequencyWeekly, FrequencyValue: 1}
	next, ok := Next(weekly, date(2025, time.January, 1))
	require.True(t, ok)
	require.True(t, next.Equal(date(2025, time.January, 8)))

	monthly := model.RecurrencePattern{FrequencyType: model.FrequencyMonthly, FrequencyValue: 1}
	next, ok = Next(monthly, date(2025, time.January, 31))
	require.True(t, ok)
	require.True(t, next.Equal(date(2025, time.February, 28)))

	_, ok = Next(model.RecurrencePattern{FrequencyType: "yearly", FrequencyValue: 1}, date(2025, time.January, 1))
	require.False(t, ok)
}

func TestValidatePattern(t *testing.T) {
	require.NoError(t, ValidatePattern(&model.RecurrencePattern{FrequencyType: model.FrequencyDaily, FrequencyValue: 1}))
	require.NoError(t, ValidatePattern(&model.RecurrencePattern{FrequencyType: model.FrequencyMonthly, FrequencyValue: 3}))

	cases := []*model.RecurrencePattern{
		nil,
		{FrequencyType: model.FrequencyDaily, FrequencyValue: 0},
		{FrequencyType: model.FrequencyWeekly, FrequencyValue: -2},
		{FrequencyType: "hourly", FrequencyValue: 1},
	}
	for _, p := range cases {
		require.ErrorIs(t, ValidatePattern(p), ErrMalformedPattern)
	}
}

func TestDefaultHorizonSixMonthsOut(t *testing.T) {
	now := date(2025, time.January, 15)
	require.True(t, DefaultHorizon(now).Equal(date(2025, time.July, 15)))
}
