package neohub_controller

import "time"

// Hub actions understood by the NeoHub command queue.
const (
	CmdGetLiveData = "GET_LIVE_DATA"
	CmdReset       = "RESET"
	CmdGetRecipes  = "GET_RECIPES"
	CmdRunRecipe   = "RUN_RECIPE"
	CmdGetSystem   = "GET_SYSTEM"
)

// RecipeJobName is the scheduler key of the recipe automation job.
const RecipeJobName = "run_recipes"

// Run outcomes recorded in the run history.
const (
	OutcomeDispatched = "DISPATCHED"
	OutcomeNoRecipe   = "NO_RECIPE"
	OutcomeWeatherErr = "WEATHER_ERROR"
	OutcomeHubErr     = "HUB_ERROR"
)

// Command is a single hub operation and its argument payload.
type Command struct {
	Name  string `json:"cmd"`
	Value string `json:"id"`
}

// ThresholdSet holds the four descending temperature bands (°C).
// T1 maps to the first recipe, T4 to the last.
type ThresholdSet struct {
	T1 float64 `json:"threshold_1"`
	T2 float64 `json:"threshold_2"`
	T3 float64 `json:"threshold_3"`
	T4 float64 `json:"threshold_4"`
}

// Values returns the thresholds from highest to lowest.
func (t ThresholdSet) Values() [4]float64 {
	return [4]float64{t.T1, t.T2, t.T3, t.T4}
}

// Descending reports whether T1 > T2 > T3 > T4.
func (t ThresholdSet) Descending() bool {
	return t.T1 > t.T2 && t.T2 > t.T3 && t.T3 > t.T4
}

// Schedule is the payload that enables or disables the recipe automation.
type Schedule struct {
	Run        bool         `json:"run"`
	Time       string       `json:"time"` // cron expression, e.g. "59 23 * * *"
	Thresholds ThresholdSet `json:"thresholds"`
}

// RecipeRun is one evaluation of the threshold cascade.
type RecipeRun struct {
	ID           string    `json:"id"`
	OccurredAt   time.Time `json:"occurred_at"`
	Job          string    `json:"job"`
	TemperatureC *float64  `json:"temperature_c,omitempty"` // nil when the weather fetch failed
	Recipe       string    `json:"recipe,omitempty"`        // empty when nothing ran
	Outcome      string    `json:"outcome"`                 // DISPATCHED | NO_RECIPE | WEATHER_ERROR | HUB_ERROR
	Error        string    `json:"error,omitempty"`
	Response     string    `json:"response,omitempty"` // raw hub reply
}

// JobInfo describes an armed scheduler job.
type JobInfo struct {
	Name    string    `json:"name"`
	Expr    string    `json:"time"`
	NextRun time.Time `json:"next_run"`
	LastRun time.Time `json:"last_run,omitzero"` // zero until the first fire
}

// Status is a point-in-time view of the automation.
type Status struct {
	Jobs    []JobInfo  `json:"jobs"`
	LastRun *RecipeRun `json:"last_run"`
}
