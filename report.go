// Package fitdaily turns aggregated daily fitness metrics into a readable
// per-day summary.
package fitdaily

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/lucasjlepore/fitdaily/aggregate"
)

// Thresholds used by the day assessments.
const (
	StepGoal          = 10000
	ShortSleepMinutes = 7 * 60
	HighRestingHR     = 80
)

// BuildDailyNotes renders one section per day in rows, newest first. Rows of
// several users are summarised per user.
func BuildDailyNotes(rows aggregate.Table) string {
	if rows.Empty() {
		return ""
	}

	type dayKey struct {
		user string
		date time.Time
	}
	byDay := map[dayKey][]aggregate.Row{}
	var keys []dayKey
	for _, r := range rows.Rows() {
		k := dayKey{r.UserName, r.Date}
		if _, ok := byDay[k]; !ok {
			keys = append(keys, k)
		}
		byDay[k] = append(byDay[k], r)
	}
	sort.Slice(keys, func(i, j int) bool {
		if !keys[i].date.Equal(keys[j].date) {
			return keys[i].date.After(keys[j].date)
		}
		return keys[i].user < keys[j].user
	})

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeDay(&b, k.user, k.date, dayRows(byDay[k]))
	}
	return strings.TrimSpace(b.String())
}

type dayRows []aggregate.Row

// value returns the first non-null value of (sname, valueType).
func (d dayRows) value(sname, valueType string) (float64, bool) {
	for _, r := range d {
		if r.SName == sname && r.ValueType == valueType && r.Value != nil {
			return *r.Value, true
		}
	}
	return 0, false
}

// total sums every non-null value of (sname, valueType).
func (d dayRows) total(sname, valueType string) (float64, bool) {
	sum, found := 0.0, false
	for _, r := range d {
		if r.SName == sname && r.ValueType == valueType && r.Value != nil {
			sum += *r.Value
			found = true
		}
	}
	return sum, found
}

func writeDay(b *strings.Builder, user string, date time.Time, d dayRows) {
	fmt.Fprintf(b, "Day: %s (%s)\n", date.Format("2006-01-02"), user)

	steps, hasSteps := d.value(aggregate.SNameStepCount, aggregate.TotalStepCount)
	km, hasKM := d.value(aggregate.SNameDistance, aggregate.TotalWalkingRunningDistance)
	if hasSteps || hasKM {
		fmt.Fprintf(b, "Activity %.0f steps | Distance %.1f km\n", steps, km)
	}

	if total, ok := d.value(aggregate.SNameCalories, aggregate.TotalCaloriesBurned); ok {
		active, _ := d.value(aggregate.SNameCalories, aggregate.ActiveCaloriesBurned)
		resting, _ := d.value(aggregate.SNameCalories, aggregate.RestingCaloriesBurned)
		fmt.Fprintf(b, "Calories %.0f kcal (%.0f active / %.0f resting)\n", total, active, resting)
	}

	sleep, hasSleep := d.value(aggregate.SNameSleep, aggregate.TotalSleepDuration)
	if hasSleep {
		light, _ := d.value(aggregate.SNameSleep, "TotalLightSleepDuration")
		deep, _ := d.value(aggregate.SNameSleep, "TotalDeepSleepDuration")
		rem, _ := d.value(aggregate.SNameSleep, "TotalREMSleepDuration")
		fmt.Fprintf(
			b,
			"Sleep %s (light %s / deep %s / REM %s)\n",
			formatMinutes(sleep),
			formatMinutes(light),
			formatMinutes(deep),
			formatMinutes(rem),
		)
	}

	if avg, ok := d.value(aggregate.SNameHeartRate, "dayAvg"); ok {
		lo, _ := d.value(aggregate.SNameHeartRate, "dayMin")
		hi, _ := d.value(aggregate.SNameHeartRate, "dayMax")
		fmt.Fprintf(b, "HR %.0f avg / %.0f min / %.0f max bpm", avg, lo, hi)
		if rest, ok := d.value(aggregate.SNameHeartRate, "restingAvg"); ok {
			fmt.Fprintf(b, " | resting %.0f bpm", rest)
		}
		b.WriteByte('\n')
	}

	workoutMin, hasWorkout := d.total(aggregate.SNameWorkoutDuration, aggregate.TotalWorkoutDuration)
	if hasWorkout {
		count, _ := d.total(aggregate.SNameWorkoutDuration, aggregate.WorkoutCount)
		fmt.Fprintf(b, "Workouts %d | %s", int(count), formatMinutes(workoutMin))
		if hr, ok := d.value(aggregate.SNameWorkoutHeartRate, aggregate.WorkoutAvg); ok {
			fmt.Fprintf(b, " | HR %.0f avg", hr)
		}
		b.WriteByte('\n')
	}

	b.WriteString("Notes\n")
	for _, note := range assess(d) {
		b.WriteString("- ")
		b.WriteString(note)
		b.WriteByte('\n')
	}
}

func assess(d dayRows) []string {
	var notes []string
	if steps, ok := d.value(aggregate.SNameStepCount, aggregate.TotalStepCount); ok {
		if steps >= StepGoal {
			notes = append(notes, "Step goal reached.")
		} else {
			notes = append(notes, fmt.Sprintf("%.0f steps short of the %d step goal.", StepGoal-steps, StepGoal))
		}
	}
	if sleep, ok := d.value(aggregate.SNameSleep, aggregate.TotalSleepDuration); ok && sleep < ShortSleepMinutes {
		notes = append(notes, "Short sleep; prioritise recovery before hard training.")
	}
	if rest, ok := d.value(aggregate.SNameHeartRate, "restingAvg"); ok && rest >= HighRestingHR {
		notes = append(notes, "Resting heart rate is elevated; watch for fatigue or illness.")
	}
	if len(notes) == 0 {
		notes = append(notes, "No flags for this day.")
	}
	return notes
}

func formatMinutes(minutes float64) string {
	if minutes <= 0 {
		return "0m"
	}
	m := int(math.Round(minutes))
	if h := m / 60; h > 0 {
		return fmt.Sprintf("%dh%02dm", h, m%60)
	}
	return fmt.Sprintf("%dm", m)
}
