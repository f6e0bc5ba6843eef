package lockguard

// Action is what a flow should do about an observed lock.
type Action int

const (
	// Proceed means no lock is held and the flow may continue.
	Proceed Action = iota
	// OfferRemoval means a lock is held and the operator may be asked to
	// clear it.
	OfferRemoval
	// Refuse means a lock is held and the flow must abort outright.
	Refuse
)

// Flow distinguishes the lock policies of the callers.
type Flow int

const (
	// InstallFlow covers install and scoped destroy: an active lock may be
	// cleared after interactive confirmation.
	InstallFlow Flow = iota
	// UninstallFlow is stricter: full teardown concurrent with an in-flight
	// apply cannot be reasoned about, so any lock is fatal with no override.
	UninstallFlow
)

// Decide returns the action for a flow given the observed lock state.
// Pure so the gating logic is testable without a terminal or a table.
func Decide(flow Flow, st Status) Action {
	if !st.Held() {
		return Proceed
	}
	if flow == UninstallFlow {
		return Refuse
	}
	return OfferRemoval
}

// ResolveRemoval maps the operator's answer to the removal offer onto the
// final action. Declining aborts with no changes made.
func ResolveRemoval(confirmed bool) Action {
	if confirmed {
		return Proceed
	}
	return Refuse
}
