package workflow

// ProcessDefinition describes a claim process. The process code equals the claim type.
type ProcessDefinition struct {
	Code   string `json:"process_code"`
	Name   string `json:"process_name"`
	Active bool   `json:"is_active"`
}

// TaskDefinition is one step of the task chain of a process for a requestor group.
// Sequence 0 is the requestor's own entry step.
type TaskDefinition struct {
	ProcessCode    string `json:"process_code"`
	RequestorGroup Group  `json:"requestor_group"`
	Sequence       int    `json:"task_sequence"`
	Name           string `json:"task_name"`
	AssignedGroup  Group  `json:"assigned_group"`
	NextSequence   int    `json:"next_task_sequence"`
}

// RuleKey identifies a task action rule
type RuleKey struct {
	RequestorGroup  Group
	CurrentSequence int
	TargetSequence  int
	ProcessCode     string
}

// Rule maps a RuleKey to the status a claim moves to
type Rule struct {
	Key        RuleKey
	ToBeStatus State
}

// Transition is the resolved outcome of a rule lookup. Task is nil when the
// target sequence has no task definition, which is the case for reserved and
// final sequences.
type Transition struct {
	ToBeStatus State
	Task       *TaskDefinition
}
