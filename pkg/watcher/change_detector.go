package watcher

// Action is what the server does with the atlas after a debounced change.
type Action int

const (
	ActionReload Action = iota // re-read the snapshot and swap it in
	ActionKeep                 // keep serving the current atlas
)

// ChangeAnalysis describes a debounced change and the action it calls for
type ChangeAnalysis struct {
	Action       Action
	Reason       string
	ChangedFiles []string
}

// AnalyzeChanges decides how to react to a debounced change. A removed
// snapshot keeps the last good atlas.
func AnalyzeChanges(event ChangeEvent) *ChangeAnalysis {
	analysis := &ChangeAnalysis{
		ChangedFiles: event.Paths,
	}

	switch event.Type {
	case ChangeTypeWritten:
		analysis.Action = ActionReload
		analysis.Reason = "snapshot written"
	case ChangeTypeRemoved:
		analysis.Action = ActionKeep
		analysis.Reason = "snapshot removed"
	default:
		analysis.Action = ActionKeep
		analysis.Reason = "unknown change"
	}

	return analysis
}
