package audithook

// Audit event actions. Each constant corresponds to one lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionRunTriggered  = "run.triggered"
	ActionRunProgressed = "run.progressed"
	ActionRunCompleted  = "run.completed"
	ActionRunCancelled  = "run.cancelled"
	ActionRunFailed     = "run.failed"
)

// CategoryRun groups all collection run actions.
const CategoryRun = "harvest.collection"

// ResourceRun is the Resource field used in audit events.
const ResourceRun = "collection_run"

// AllActions returns every action this hook can emit.
func AllActions() []string {
	return []string{
		ActionRunTriggered,
		ActionRunProgressed,
		ActionRunCompleted,
		ActionRunCancelled,
		ActionRunFailed,
	}
}
