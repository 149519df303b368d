package workflow

import (
	"context"
	"fmt"
)

type taskKey struct {
	processCode    string
	requestorGroup Group
	sequence       int
}

// Table is an immutable in-memory view of the workflow configuration.
// It is safe for concurrent use once built.
type Table struct {
	processes map[string]ProcessDefinition
	tasks     map[taskKey]TaskDefinition
	rules     map[RuleKey]State
}

// Builder collects definitions and rules into a Table
type Builder struct {
	processes map[string]ProcessDefinition
	tasks     map[taskKey]TaskDefinition
	rules     map[RuleKey]State
	errs      []error
}

// NewBuilder creates an empty configuration builder
func NewBuilder() *Builder {
	return &Builder{
		processes: make(map[string]ProcessDefinition),
		tasks:     make(map[taskKey]TaskDefinition),
		rules:     make(map[RuleKey]State),
	}
}

// Process registers a process definition
func (b *Builder) Process(def ProcessDefinition) *Builder {
	if def.Code == "" {
		b.errs = append(b.errs, fmt.Errorf("process definition without code"))
		return b
	}
	b.processes[def.Code] = def
	return b
}

// Task registers a task definition
func (b *Builder) Task(def TaskDefinition) *Builder {
	k := taskKey{def.ProcessCode, def.RequestorGroup, def.Sequence}
	if _, exists := b.tasks[k]; exists {
		b.errs = append(b.errs, fmt.Errorf("duplicate task definition %s/%s/%d", def.ProcessCode, def.RequestorGroup, def.Sequence))
		return b
	}
	b.tasks[k] = def
	return b
}

// Rule registers a task action rule. Two rules for the same key are rejected
// so that a lookup can never be ambiguous.
func (b *Builder) Rule(key RuleKey, toBe State) *Builder {
	if !toBe.IsValid() {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrInvalidState, toBe))
		return b
	}
	if existing, exists := b.rules[key]; exists && existing != toBe {
		b.errs = append(b.errs, fmt.Errorf("conflicting rules for %s/%s %d->%d", key.ProcessCode, key.RequestorGroup, key.CurrentSequence, key.TargetSequence))
		return b
	}
	b.rules[key] = toBe
	return b
}

// Build validates the collected configuration and returns a Table
func (b *Builder) Build() (*Table, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("invalid workflow configuration: %v", b.errs[0])
	}

	t := &Table{
		processes: make(map[string]ProcessDefinition, len(b.processes)),
		tasks:     make(map[taskKey]TaskDefinition, len(b.tasks)),
		rules:     make(map[RuleKey]State, len(b.rules)),
	}
	for k, v := range b.processes {
		t.processes[k] = v
	}
	for k, v := range b.tasks {
		t.tasks[k] = v
	}
	for k, v := range b.rules {
		t.rules[k] = v
	}
	return t, nil
}

// Process returns the active process definition for a code
func (t *Table) Process(_ context.Context, code string) (*ProcessDefinition, error) {
	def, ok := t.processes[code]
	if !ok || !def.Active {
		return nil, fmt.Errorf("%w: %s", ErrProcessNotFound, code)
	}
	return &def, nil
}

// Task returns the task definition at a sequence of a requestor group's chain
func (t *Table) Task(_ context.Context, processCode string, group Group, sequence int) (*TaskDefinition, error) {
	def, ok := t.tasks[taskKey{processCode, group, sequence}]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s/%d", ErrTaskNotFound, processCode, group, sequence)
	}
	return &def, nil
}

// Next resolves a rule key to the status the claim moves to and,
// where one is configured, the task definition at the target sequence.
// The mapping is a pure function of the key.
func (t *Table) Next(_ context.Context, key RuleKey) (*Transition, error) {
	toBe, ok := t.rules[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s %d->%d", ErrRuleNotFound, key.ProcessCode, key.RequestorGroup, key.CurrentSequence, key.TargetSequence)
	}

	out := &Transition{ToBeStatus: toBe}
	if def, ok := t.tasks[taskKey{key.ProcessCode, key.RequestorGroup, key.TargetSequence}]; ok {
		out.Task = &def
	}
	return out, nil
}
