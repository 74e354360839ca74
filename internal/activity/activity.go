// Package activity models the manual run entry form and the activity
// payload built from it.
package activity

// Fixed values sent with every activity.
const (
	TypeRun            = "Run"
	DefaultDescription = "Test activity"
)

// Activity is the payload submitted to the relay's upload function. Field
// names follow the Strava create-activity API: ElapsedTime is in seconds,
// Distance and TotalElevationGain in metres.
type Activity struct {
	Name               string `json:"name"`
	Type               string `json:"type"`
	StartDateLocal     string `json:"start_date_local"`
	ElapsedTime        Number `json:"elapsed_time"`
	Description        string `json:"description"`
	Distance           Number `json:"distance"`
	Trainer            int    `json:"trainer"`
	Commute            int    `json:"commute"`
	TotalElevationGain Number `json:"total_elevation_gain"`
}
