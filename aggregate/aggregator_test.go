package aggregate

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/fitdaily/classify"
	"github.com/lucasjlepore/fitdaily/streams"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestAggregator(opts ...Option) *Aggregator {
	return New(append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

func at(day, h, m int) time.Time {
	return time.Date(2024, 5, day, h, m, 0, 0, time.UTC)
}

func date(day int) time.Time { return at(day, 0, 0) }

func f(v float64) *float64 { return &v }

func steps(start, end time.Time, v float64) streams.Sample {
	return streams.Sample{
		UserName:  "asha",
		Type:      "com.google.step_count.delta",
		StartDate: start,
		EndDate:   end,
		Unit:      streams.UnitSteps,
		Value:     f(v),
	}
}

func value(t *testing.T, tbl Table, day time.Time, valueType string) *float64 {
	t.Helper()
	row, ok := tbl.Find(day, valueType)
	require.True(t, ok, "missing %s on %s", valueType, day.Format("2006-01-02"))
	return row.Value
}

func TestStepCountSingleSample(t *testing.T) {
	got := newTestAggregator().StepCount(streams.NewTable([]streams.Sample{
		steps(at(1, 8, 0), at(1, 8, 30), 5000),
	}))
	require.Equal(t, 1, got.Len())
	row := got.At(0)
	require.Equal(t, "asha", row.UserName)
	require.Equal(t, SNameStepCount, row.SName)
	require.Equal(t, TotalStepCount, row.ValueType)
	require.Equal(t, date(1), row.Date)
	require.Equal(t, streams.UnitSteps, row.Unit)
	require.Equal(t, fixedNow, row.ValueGeneratedAt)
	require.Equal(t, 5000.0, *row.Value)
}

func TestStepCountSumsAndDropsDuplicates(t *testing.T) {
	s := steps(at(2, 8, 0), at(2, 8, 30), 100.04)
	got := newTestAggregator().StepCount(streams.NewTable([]streams.Sample{
		s, s,
		steps(at(2, 9, 0), at(2, 9, 30), 200.02),
	}))
	require.Equal(t, 1, got.Len())
	require.Equal(t, 300.1, *got.At(0).Value)
}

func TestTieBreakKeepsLargestGroup(t *testing.T) {
	samples := streams.NewTable([]streams.Sample{
		steps(at(3, 8, 0), at(3, 8, 30), 10),
		// crosses midnight, so it lands in a separate (start day, end day) group
		steps(at(3, 23, 50), at(4, 0, 10), 15),
	})

	got := newTestAggregator().StepCount(samples)
	require.Equal(t, 1, got.Len())
	require.Equal(t, 15.0, *got.At(0).Value)

	all := newTestAggregator(WithTieBreak(KeepAll)).StepCount(samples)
	require.Equal(t, 2, all.Len())
	require.Equal(t, 10.0, *all.At(0).Value)
	require.Equal(t, 15.0, *all.At(1).Value)
}

func TestTieBreakEqualMaximaKeepsFirstGroup(t *testing.T) {
	got := newTestAggregator().StepCount(streams.NewTable([]streams.Sample{
		steps(at(3, 23, 50), at(4, 0, 10), 15),
		steps(at(3, 8, 0), at(3, 8, 30), 15),
	}))
	require.Equal(t, 1, got.Len())
	require.Equal(t, 15.0, *got.At(0).Value)
}

func TestSummedAggregationIsAssociativeOverDisjointDates(t *testing.T) {
	a := []streams.Sample{steps(at(1, 8, 0), at(1, 9, 0), 1000), steps(at(1, 10, 0), at(1, 11, 0), 234.5)}
	b := []streams.Sample{steps(at(5, 8, 0), at(5, 9, 0), 42), steps(at(6, 8, 0), at(6, 9, 0), 7)}

	agg := newTestAggregator()
	union := agg.StepCount(streams.NewTable(append(append([]streams.Sample{}, a...), b...)))
	parts := agg.StepCount(streams.NewTable(a)).Concat(agg.StepCount(streams.NewTable(b))).SortByDateDesc()

	if diff := cmp.Diff(parts.Rows(), union.Rows()); diff != "" {
		t.Fatalf("aggregation not associative (-parts +union):\n%s", diff)
	}
	require.Equal(t, date(6), union.At(0).Date, "newest date first")
}

func TestDistanceSeries(t *testing.T) {
	got := newTestAggregator().Distance(streams.NewTable([]streams.Sample{
		{UserName: "asha", StartDate: at(2, 7, 0), EndDate: at(2, 7, 30), Unit: streams.UnitKM, Value: f(1.25)},
		{UserName: "asha", StartDate: at(2, 8, 0), EndDate: at(2, 8, 30), Unit: streams.UnitKM, Value: f(1.25)},
	}))
	require.Equal(t, 1, got.Len())
	require.Equal(t, SNameDistance, got.At(0).SName)
	require.Equal(t, TotalWalkingRunningDistance, got.At(0).ValueType)
	require.Equal(t, 2.5, *got.At(0).Value)
}

func TestEmptySamplesYieldEmptyTable(t *testing.T) {
	agg := newTestAggregator()
	require.True(t, agg.StepCount(streams.Table{}).Empty())
	require.True(t, agg.Sleep(streams.Table{}).Empty())
	require.True(t, agg.HeartRate(streams.Table{}).Empty())
	require.True(t, agg.Calories(streams.Table{}).Empty())
	require.True(t, agg.WorkoutDuration(streams.Table{}).Empty())
	require.True(t, agg.WorkoutHeartRate(streams.Table{}).Empty())
}

func TestRound1IsHalfEven(t *testing.T) {
	require.Equal(t, 0.2, round1(0.25))
	require.Equal(t, 0.4, round1(0.35))
	require.Equal(t, 75.0, round1(75))
	require.Equal(t, -1.2, round1(-1.25))
}

func TestParseTieBreak(t *testing.T) {
	tb, err := ParseTieBreak("keep-all")
	require.NoError(t, err)
	require.Equal(t, KeepAll, tb)

	tb, err = ParseTieBreak("")
	require.NoError(t, err)
	require.Equal(t, KeepMax, tb)

	_, err = ParseTieBreak("median")
	require.Error(t, err)
}

func sleepSample(label string, modified time.Time, minutes float64) streams.Sample {
	return streams.Sample{
		UserName:     "asha",
		Type:         "com.google.sleep.segment",
		ModifiedTime: modified,
		Unit:         streams.UnitMin,
		Label:        label,
		Duration:     f(minutes),
	}
}

func TestSleepStageTotals(t *testing.T) {
	got := newTestAggregator().Sleep(streams.NewTable([]streams.Sample{
		sleepSample(streams.StageLight, at(7, 7, 0), 30),
		sleepSample(streams.StageLight, at(7, 7, 1), 45),
	}))
	require.Equal(t, 2, got.Len())
	require.Equal(t, 75.0, *value(t, got, date(7), "TotalLightSleepDuration"))
	require.Equal(t, 75.0, *value(t, got, date(7), TotalSleepDuration))
	for _, r := range got.Rows() {
		require.Equal(t, SNameSleep, r.SName)
	}
}

func TestSleepOtherStagesAndOrdering(t *testing.T) {
	got := newTestAggregator().Sleep(streams.NewTable([]streams.Sample{
		sleepSample(streams.StageDeep, at(7, 7, 0), 60),
		sleepSample(streams.StageREM, at(7, 7, 0), 20),
		sleepSample(streams.StageAwake, at(7, 7, 0), 5),
		sleepSample(streams.StageOutOfBed, at(7, 7, 0), 3),
		sleepSample(streams.StageLight, at(8, 7, 0), 90),
	})).Rows()

	var types []string
	for _, r := range got {
		types = append(types, r.Date.Format("02")+":"+r.ValueType)
	}
	require.Equal(t, []string{
		"08:TotalLightSleepDuration",
		"08:TotalSleepDuration",
		"07:TotalSleepDuration",
		"07:TotalDeepSleepDuration",
		"07:TotalREMSleepDuration",
		"07:TotalAwakeDuration",
		"07:TotalOutOfBedDuration",
	}, types)
	require.Equal(t, 80.0, *got[2].Value)
}

func hrSample(start time.Time, v float64, flags classify.Flags) streams.Sample {
	return streams.Sample{
		UserName:  "asha",
		Type:      "com.google.heart_rate.bpm",
		StartDate: start,
		EndDate:   start,
		Unit:      streams.UnitBPM,
		Value:     f(v),
		Flags:     flags,
	}
}

func TestHeartRateRestingOnly(t *testing.T) {
	resting := classify.Flags{Resting: true}
	got := newTestAggregator().HeartRate(streams.NewTable([]streams.Sample{
		hrSample(at(9, 10, 0), 60, resting),
		hrSample(at(9, 11, 0), 80, resting),
		hrSample(at(9, 12, 0), 100, resting),
	}))
	require.Equal(t, 15, got.Len())

	var order []string
	for _, r := range got.Rows() {
		order = append(order, r.ValueType)
		require.Equal(t, SNameHeartRate, r.SName)
		require.Equal(t, streams.UnitBPM, r.Unit)
	}
	require.Equal(t, HeartRateValueTypes(), order)

	for _, vt := range []string{"day", "resting"} {
		require.Equal(t, 80.0, *value(t, got, date(9), vt+"Avg"))
		require.Equal(t, 60.0, *value(t, got, date(9), vt+"Min"))
		require.Equal(t, 100.0, *value(t, got, date(9), vt+"Max"))
	}
	for _, vt := range []string{"activity", "sleep", "workout"} {
		require.Nil(t, value(t, got, date(9), vt+"Avg"))
		require.Nil(t, value(t, got, date(9), vt+"Min"))
		require.Nil(t, value(t, got, date(9), vt+"Max"))
	}
}

func TestHeartRateDedupesByStartAndDropsNullStart(t *testing.T) {
	sleep := classify.Flags{Sleep: true}
	got := newTestAggregator().HeartRate(streams.NewTable([]streams.Sample{
		hrSample(at(10, 2, 0), 50, sleep),
		hrSample(at(10, 2, 0), 90, sleep),
		hrSample(time.Time{}, 200, sleep),
		hrSample(at(10, 3, 0), 55, sleep),
		hrSample(at(11, 3, 0), 57, classify.Flags{Workout: true}),
	}))
	require.Equal(t, 30, got.Len())
	require.Equal(t, date(11), got.At(0).Date)
	require.Equal(t, 52.5, *value(t, got, date(10), "sleepAvg"))
	require.Equal(t, 55.0, *value(t, got, date(10), "dayMax"))
	require.Equal(t, 57.0, *value(t, got, date(11), "workoutMax"))
}

func TestCaloriesSplit(t *testing.T) {
	cal := func(v float64, active bool) streams.Sample {
		return streams.Sample{
			UserName:        "asha",
			Type:            "com.google.calories.expended",
			ModifiedTime:    at(12, 23, 0),
			StartDate:       at(12, 10, int(v)),
			Unit:            streams.UnitKcal,
			Value:           f(v),
			ActiveCalories:  active,
			RestingCalories: !active,
		}
	}
	got := newTestAggregator().Calories(streams.NewTable([]streams.Sample{
		cal(40.04, true), cal(10, true), cal(1500, false),
	}))
	require.Equal(t, 3, got.Len())
	require.Equal(t, 1550.0, *value(t, got, date(12), TotalCaloriesBurned))
	require.Equal(t, 50.0, *value(t, got, date(12), ActiveCaloriesBurned))
	require.Equal(t, 1500.0, *value(t, got, date(12), RestingCaloriesBurned))
}

func TestWorkoutSeries(t *testing.T) {
	run1, run2 := at(13, 6, 0), at(13, 18, 0)
	laps := streams.NewTable([]streams.Sample{
		{UserName: "asha", Sport: "Running", ModifiedTime: run1, LapStart: run1, Unit: streams.UnitMin, Duration: f(10)},
		{UserName: "asha", Sport: "Running", ModifiedTime: run1, LapStart: run1.Add(10 * time.Minute), Unit: streams.UnitMin, Duration: f(5.5)},
		{UserName: "asha", Sport: "Running", ModifiedTime: run2, LapStart: run2, Unit: streams.UnitMin, Duration: f(20)},
	})
	dur := newTestAggregator().WorkoutDuration(laps)
	require.Equal(t, 2, dur.Len())
	require.Equal(t, 35.5, *value(t, dur, date(13), TotalWorkoutDuration))
	require.Equal(t, 2.0, *value(t, dur, date(13), WorkoutCount))

	points := streams.NewTable([]streams.Sample{
		{UserName: "asha", Sport: "Running", StartDate: run1.Add(time.Second), Unit: streams.UnitBPM, Value: f(120)},
		{UserName: "asha", Sport: "Running", StartDate: run1.Add(2 * time.Second), Unit: streams.UnitBPM, Value: f(131)},
		{UserName: "asha", Sport: "Running", StartDate: run1.Add(3 * time.Second), Unit: streams.UnitBPM},
	})
	hr := newTestAggregator().WorkoutHeartRate(points)
	require.Equal(t, 2, hr.Len())
	require.Equal(t, 125.5, *value(t, hr, date(13), WorkoutAvg))
	require.Equal(t, 131.0, *value(t, hr, date(13), WorkoutMax))
	require.Equal(t, "Running", hr.At(0).Type)
}

func TestActivityCaloriesSeries(t *testing.T) {
	kcal := func(start, end time.Time, v float64) streams.Sample {
		return streams.Sample{UserName: "asha", Type: "com.google.calories.expended", StartDate: start, EndDate: end, Unit: streams.UnitKcal, Value: f(v)}
	}
	got := newTestAggregator().ActivityCalories(streams.NewTable([]streams.Sample{
		kcal(at(3, 7, 0), at(3, 7, 30), 110.5),
		kcal(at(3, 18, 0), at(3, 18, 45), 240),
		kcal(at(4, 6, 0), at(4, 6, 20), 80),
	}))
	require.Equal(t, 2, got.Len())
	require.Equal(t, SNameActivityCalories, got.At(0).SName)
	require.Equal(t, TotalActivityCalories, got.At(0).ValueType)
	require.Equal(t, streams.UnitKcal, got.At(0).Unit)
	require.Equal(t, 80.0, *value(t, got, date(4), TotalActivityCalories))
	require.Equal(t, 350.5, *value(t, got, date(3), TotalActivityCalories))
}

func TestAggregatorRerunOnSameTable(t *testing.T) {
	stepSamples := streams.NewTable([]streams.Sample{
		steps(at(1, 8, 0), at(1, 9, 0), 1000),
		steps(at(1, 23, 30), at(2, 0, 30), 400),
		steps(at(2, 8, 0), at(2, 9, 0), 250),
	})
	hrSamples := streams.NewTable([]streams.Sample{
		hrSample(at(1, 2, 0), 52, classify.Flags{Sleep: true}),
		hrSample(at(1, 10, 0), 95, classify.Flags{Activity: true}),
		hrSample(at(1, 20, 0), 68, classify.Flags{Resting: true}),
	})

	for _, tb := range []TieBreak{KeepMax, KeepAll} {
		agg := newTestAggregator(WithTieBreak(tb))
		firstSteps, firstHR := agg.StepCount(stepSamples), agg.HeartRate(hrSamples)
		secondSteps, secondHR := agg.StepCount(stepSamples), agg.HeartRate(hrSamples)

		if diff := cmp.Diff(firstSteps.Rows(), secondSteps.Rows()); diff != "" {
			t.Fatalf("%s: step rerun differs (-first +second):\n%s", tb, diff)
		}
		if diff := cmp.Diff(firstHR.Rows(), secondHR.Rows()); diff != "" {
			t.Fatalf("%s: heart rate rerun differs (-first +second):\n%s", tb, diff)
		}
		require.Equal(t, 3, stepSamples.Len())
		require.Equal(t, 3, hrSamples.Len())
	}
}
