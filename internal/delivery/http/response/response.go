package response

// ProgressResponse is a DTO for the live run state, mirroring
// usecase.ProgressSnapshot.
type ProgressResponse struct {
	RunID        string  `json:"run_id"`
	TotalTargets int     `json:"total_targets"`
	CurrentIndex int     `json:"current_index"`
	Attempted    int     `json:"attempted"`
	Succeeded    int     `json:"succeeded"`
	Duplicates   int     `json:"duplicates"`
	Failed       int     `json:"failed"`
	ElapsedSec   float64 `json:"elapsed_seconds"`
}
