package engine

// Action is what the orchestrator has decided to do with one resource.
type Action string

const (
	// ActionCreate provisions a resource that does not exist yet.
	ActionCreate Action = "create"
	// ActionAdopt imports an externally existing resource into tracked
	// state instead of creating a duplicate.
	ActionAdopt Action = "import"
	// ActionConverge applies the desired configuration to an already
	// tracked resource.
	ActionConverge Action = "converge"
	// ActionDestroy removes a resource.
	ActionDestroy Action = "destroy"
)

// Kind identifies the managed platform resources.
type Kind string

const (
	KindStateBucket  Kind = "state-bucket"
	KindLockTable    Kind = "lock-table"
	KindOIDCProvider Kind = "oidc-provider"
	KindTrustRole    Kind = "trust-role"
	KindWorkflow     Kind = "ci-workflow"
)

// Step is one planned {resource, action} pair.
type Step struct {
	Kind   Kind
	Name   string
	Action Action
}

// Plan is the ordered action list for one run. It is never persisted:
// every run recomputes it from current external state plus the inventory
// record.
type Plan struct {
	Steps []Step
}

func (p *Plan) add(kind Kind, name string, action Action) {
	p.Steps = append(p.Steps, Step{Kind: kind, Name: name, Action: action})
}

// Counts returns how many steps carry each action.
func (p *Plan) Counts() map[Action]int {
	counts := make(map[Action]int)
	for _, s := range p.Steps {
		counts[s.Action]++
	}
	return counts
}
