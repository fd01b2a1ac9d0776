package enums

type Status string

const (
	// StatusNew is assigned on first insert by the search engine.
	StatusNew Status = "new"

	// StatusValidated means the classifier approved the post but a reply was
	// not sent (quota, interval, working hours, or a send failure). Terminal
	// unless an operator reprocesses it manually.
	StatusValidated Status = "validated"

	// StatusReplied means a reply was published. Terminal.
	StatusReplied Status = "replied"

	// StatusSkipped means the classifier rejected the post. Terminal.
	StatusSkipped Status = "skipped"
)

type Phase string

const (
	// PhaseLocale marks posts discovered via the single city keyword.
	PhaseLocale Phase = "locale"

	// PhaseDomain marks posts discovered via a topical keyword.
	PhaseDomain Phase = "domain"
)
