package models

// WorkflowStatistics aggregates execution outcomes across all tracked
// workflows.
type WorkflowStatistics struct {
	TotalWorkflows     int      `json:"total_workflows"`
	ActiveWorkflows    int      `json:"active_workflows"`
	CompletedWorkflows int      `json:"completed_workflows"`
	FailedWorkflows    int      `json:"failed_workflows"`
	AverageDuration    *float64 `json:"average_duration,omitempty"` // seconds
	SuccessRate        float64  `json:"success_rate"`               // 0-100
}

// ComputeStatistics derives aggregate statistics from a list of states.
func ComputeStatistics(states []WorkflowState) WorkflowStatistics {
	stats := WorkflowStatistics{TotalWorkflows: len(states)}
	var durations float64
	var finished int
	for _, state := range states {
		switch state.Status {
		case RunningWorkflowStatus, PausedWorkflowStatus:
			stats.ActiveWorkflows++
		case CompletedWorkflowStatus:
			stats.CompletedWorkflows++
		case FailedWorkflowStatus:
			stats.FailedWorkflows++
		}
		if state.StartedAt != nil && state.CompletedAt != nil {
			durations += state.CompletedAt.Sub(*state.StartedAt).Seconds()
			finished++
		}
	}
	if finished > 0 {
		avg := durations / float64(finished)
		stats.AverageDuration = &avg
	}
	if terminal := stats.CompletedWorkflows + stats.FailedWorkflows; terminal > 0 {
		stats.SuccessRate = 100 * float64(stats.CompletedWorkflows) / float64(terminal)
	}
	return stats
}
