package watcher

// ChangeAnalysis describes what changed and what needs to be redone
type ChangeAnalysis struct {
	NeedReload      bool // scenario must be parsed and the graph rebuilt
	NeedReconfigure bool // configuration must be reloaded first
	ChangedFiles    []string
}

// AnalyzeChanges determines what a change event requires
func AnalyzeChanges(event ChangeEvent) *ChangeAnalysis {
	analysis := &ChangeAnalysis{
		ChangedFiles: event.Paths,
	}

	switch event.Type {
	case ChangeTypeScenario:
		analysis.NeedReload = true
	case ChangeTypeConfig:
		// Worker, span or algorithm may have changed
		analysis.NeedReconfigure = true
		analysis.NeedReload = true
	}
	return analysis
}
