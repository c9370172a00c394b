package model

// Verdict is the content-safety classifier's output for one content item.
// The recorder stores it as opaque metadata and never interprets it beyond
// the Flagged bit.
type Verdict struct {
	Flagged    bool               `json:"flagged"`
	Categories map[string]bool    `json:"categories"`
	Scores     map[string]float64 `json:"scores"`
	Summary    string             `json:"summary"`
}

// AdminVerdict synthesizes the verdict stored for a manual admin action, so
// override-created violations carry the same evidence shape as automatic ones.
func AdminVerdict(reason string) Verdict {
	return Verdict{
		Flagged:    true,
		Categories: map[string]bool{"admin_action": true},
		Scores:     map[string]float64{"admin_action": 1.0},
		Summary:    reason,
	}
}
