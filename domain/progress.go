package domain

// Progress holds the completion percentages of a client's two checklists.
// The values are computed independently and never combined.
type Progress struct {
	Setup      int `json:"setup"`
	Onboarding int `json:"onboarding"`
}

// For returns the percentage of the given checklist type.
func (p Progress) For(t ChecklistType) int {
	switch t {
	case ChecklistSetup:
		return p.Setup
	case ChecklistOnboarding:
		return p.Onboarding
	}
	return 0
}

// Percent returns round-half-up(100 * completed / total), or 0 when total is
// not positive.
func Percent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	if completed < 0 {
		completed = 0
	}
	if completed > total {
		completed = total
	}
	return (200*completed + total) / (2 * total)
}

// Count returns how many tasks of the given type exist and how many of them
// are completed.
func Count(tasks []TaskState, t ChecklistType) (completed, total int) {
	for _, task := range tasks {
		if task.ChecklistType != t {
			continue
		}
		total++
		if task.IsCompleted {
			completed++
		}
	}
	return completed, total
}

// ChecklistProgress computes the completion percentage for one checklist type.
func ChecklistProgress(tasks []TaskState, t ChecklistType) int {
	return Percent(Count(tasks, t))
}

// TaskStates projects full task rows for use with the progress functions.
func TaskStates(tasks []ChecklistTask) []TaskState {
	out := make([]TaskState, len(tasks))
	for i, t := range tasks {
		out[i] = t.State()
	}
	return out
}

// ProgressByClient groups task states by client and then by checklist type.
// Every id in clientIDs appears in the result; clients without tasks map to
// the zero Progress. States for clients outside clientIDs are ignored.
func ProgressByClient(clientIDs []string, states []TaskState) map[string]Progress {
	type tally struct{ done, total int }
	counts := make(map[string]map[ChecklistType]*tally, len(clientIDs))
	for _, id := range clientIDs {
		counts[id] = map[ChecklistType]*tally{
			ChecklistSetup:      {},
			ChecklistOnboarding: {},
		}
	}
	for _, s := range states {
		byType, ok := counts[s.ClientID]
		if !ok {
			continue
		}
		t, ok := byType[s.ChecklistType]
		if !ok {
			continue
		}
		t.total++
		if s.IsCompleted {
			t.done++
		}
	}
	out := make(map[string]Progress, len(counts))
	for id, byType := range counts {
		setup := byType[ChecklistSetup]
		onboarding := byType[ChecklistOnboarding]
		out[id] = Progress{
			Setup:      Percent(setup.done, setup.total),
			Onboarding: Percent(onboarding.done, onboarding.total),
		}
	}
	return out
}
