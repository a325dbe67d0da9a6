// Package whoop is a typed client for the WHOOP v2 developer API.
//
// Score payloads are pointer-valued where the API may omit them: a cycle,
// sleep, or workout whose score_state is not "SCORED" arrives without a score
// object, and downstream rendering must distinguish absent from zero.
package whoop

import "time"

// Score states reported by the API.
const (
	ScoreStateScored     = "SCORED"
	ScoreStatePending    = "PENDING_SCORE"
	ScoreStateUnscorable = "UNSCORABLE"
)

// Cycle is a physiological day: it starts when the user falls asleep and ends
// when the next sleep begins. End is nil while the cycle is still open.
type Cycle struct {
	ID             int64       `json:"id"`
	UserID         int64       `json:"user_id"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	Start          time.Time   `json:"start"`
	End            *time.Time  `json:"end"`
	TimezoneOffset string      `json:"timezone_offset"`
	ScoreState     string      `json:"score_state"`
	Score          *CycleScore `json:"score"`
}

type CycleScore struct {
	Strain           float64 `json:"strain"`
	Kilojoule        float64 `json:"kilojoule"`
	AverageHeartRate int     `json:"average_heart_rate"`
	MaxHeartRate     int     `json:"max_heart_rate"`
}

// Open reports whether the cycle has not yet closed.
func (c Cycle) Open() bool { return c.End == nil }

// Sleep is a scored sleep activity. IDs are UUIDs in v2.
type Sleep struct {
	ID             string      `json:"id"`
	V1ID           *int64      `json:"v1_id,omitempty"`
	UserID         int64       `json:"user_id"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	Start          time.Time   `json:"start"`
	End            time.Time   `json:"end"`
	TimezoneOffset string      `json:"timezone_offset"`
	Nap            bool        `json:"nap"`
	ScoreState     string      `json:"score_state"`
	Score          *SleepScore `json:"score"`
}

type SleepScore struct {
	StageSummary               StageSummary `json:"stage_summary"`
	SleepNeeded                SleepNeeded  `json:"sleep_needed"`
	RespiratoryRate            *float64     `json:"respiratory_rate"`
	SleepPerformancePercentage *float64     `json:"sleep_performance_percentage"`
	SleepConsistencyPercentage *float64     `json:"sleep_consistency_percentage"`
	SleepEfficiencyPercentage  *float64     `json:"sleep_efficiency_percentage"`
}

type StageSummary struct {
	TotalInBedTimeMilli         int64 `json:"total_in_bed_time_milli"`
	TotalAwakeTimeMilli         int64 `json:"total_awake_time_milli"`
	TotalNoDataTimeMilli        int64 `json:"total_no_data_time_milli"`
	TotalLightSleepTimeMilli    int64 `json:"total_light_sleep_time_milli"`
	TotalSlowWaveSleepTimeMilli int64 `json:"total_slow_wave_sleep_time_milli"`
	TotalRemSleepTimeMilli      int64 `json:"total_rem_sleep_time_milli"`
	SleepCycleCount             int   `json:"sleep_cycle_count"`
	DisturbanceCount            int   `json:"disturbance_count"`
}

type SleepNeeded struct {
	BaselineMilli             int64 `json:"baseline_milli"`
	NeedFromSleepDebtMilli    int64 `json:"need_from_sleep_debt_milli"`
	NeedFromRecentStrainMilli int64 `json:"need_from_recent_strain_milli"`
	NeedFromRecentNapMilli    int64 `json:"need_from_recent_nap_milli"`
}

// AsleepMilli is total time actually asleep across all stages.
func (s StageSummary) AsleepMilli() int64 {
	return s.TotalLightSleepTimeMilli + s.TotalSlowWaveSleepTimeMilli + s.TotalRemSleepTimeMilli
}

// TotalNeedMilli is the full computed sleep need for the night.
func (n SleepNeeded) TotalNeedMilli() int64 {
	return n.BaselineMilli + n.NeedFromSleepDebtMilli + n.NeedFromRecentStrainMilli + n.NeedFromRecentNapMilli
}

// Recovery is keyed by the cycle it belongs to.
type Recovery struct {
	CycleID    int64          `json:"cycle_id"`
	SleepID    string         `json:"sleep_id"`
	UserID     int64          `json:"user_id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	ScoreState string         `json:"score_state"`
	Score      *RecoveryScore `json:"score"`
}

type RecoveryScore struct {
	UserCalibrating  bool     `json:"user_calibrating"`
	RecoveryScore    float64  `json:"recovery_score"`
	RestingHeartRate float64  `json:"resting_heart_rate"`
	HRVRmssdMilli    float64  `json:"hrv_rmssd_milli"`
	SpO2Percentage   *float64 `json:"spo2_percentage"`
	SkinTempCelsius  *float64 `json:"skin_temp_celsius"`

	// Per-system load sub-scores. Not present on every account or record;
	// nil means the provider did not supply the component.
	CardiovascularLoad  *float64 `json:"cardiovascular_load,omitempty"`
	MusculoskeletalLoad *float64 `json:"musculoskeletal_load,omitempty"`
	MetabolicLoad       *float64 `json:"metabolic_load,omitempty"`
}

// Workout is a scored workout activity.
type Workout struct {
	ID             string        `json:"id"`
	V1ID           *int64        `json:"v1_id,omitempty"`
	UserID         int64         `json:"user_id"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	Start          time.Time     `json:"start"`
	End            time.Time     `json:"end"`
	TimezoneOffset string        `json:"timezone_offset"`
	SportName      string        `json:"sport_name"`
	SportID        *int          `json:"sport_id,omitempty"`
	ScoreState     string        `json:"score_state"`
	Score          *WorkoutScore `json:"score"`
}

type WorkoutScore struct {
	Strain              float64        `json:"strain"`
	AverageHeartRate    int            `json:"average_heart_rate"`
	MaxHeartRate        int            `json:"max_heart_rate"`
	Kilojoule           float64        `json:"kilojoule"`
	PercentRecorded     float64        `json:"percent_recorded"`
	DistanceMeter       *float64       `json:"distance_meter"`
	AltitudeGainMeter   *float64       `json:"altitude_gain_meter"`
	AltitudeChangeMeter *float64       `json:"altitude_change_meter"`
	ZoneDurations       *ZoneDurations `json:"zone_durations"`
}

type ZoneDurations struct {
	ZoneZeroMilli  int64 `json:"zone_zero_milli"`
	ZoneOneMilli   int64 `json:"zone_one_milli"`
	ZoneTwoMilli   int64 `json:"zone_two_milli"`
	ZoneThreeMilli int64 `json:"zone_three_milli"`
	ZoneFourMilli  int64 `json:"zone_four_milli"`
	ZoneFiveMilli  int64 `json:"zone_five_milli"`
}

// TotalMilli sums time across all heart rate zones.
func (z ZoneDurations) TotalMilli() int64 {
	return z.ZoneZeroMilli + z.ZoneOneMilli + z.ZoneTwoMilli + z.ZoneThreeMilli + z.ZoneFourMilli + z.ZoneFiveMilli
}

// Profile is the authenticated user's basic profile.
type Profile struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// BodyMeasurement is the user's latest recorded body metrics.
type BodyMeasurement struct {
	HeightMeter    float64 `json:"height_meter"`
	WeightKilogram float64 `json:"weight_kilogram"`
	MaxHeartRate   int     `json:"max_heart_rate"`
}

// Paginated collection responses. Records are ordered most recent first.
type cycleRecords struct {
	Records   []Cycle `json:"records"`
	NextToken *string `json:"next_token,omitempty"`
}

type sleepRecords struct {
	Records   []Sleep `json:"records"`
	NextToken *string `json:"next_token,omitempty"`
}

type recoveryRecords struct {
	Records   []Recovery `json:"records"`
	NextToken *string    `json:"next_token,omitempty"`
}

type workoutRecords struct {
	Records   []Workout `json:"records"`
	NextToken *string   `json:"next_token,omitempty"`
}
