package records

// Canonical Google Fit stream identifiers. A stream identity is the file-level
// data source an event was exported from.
const (
	StreamSleepSegment     = "derived:com.google.sleep.segment:com.google.android.gms:merged"
	StreamCaloriesExpended = "derived:com.google.calories.expended:com.google.android.gms:merge_calories_expended"
	StreamActiveMinutes    = "derived:com.google.active_minutes:com.google.android.gms:merge_active_minutes"
	StreamEstimatedSteps   = "derived:com.google.step_count.delta:com.google.android.gms:estimated_steps"
	StreamDistanceDelta    = "derived:com.google.distance.delta:com.google.android.gms:merge_distance_delta"
	StreamHeartRate        = "derived:com.google.heart_rate.bpm:com.google.android.gms:merge_heart_rate_bpm"
)
