package gpu

// Teardown releases GPU objects in the reverse of the order they were
// registered. Whoever creates an object pushes its release right after the
// create call succeeds, which keeps dependents ahead of what they depend on.
type Teardown struct {
	steps []teardownStep
}

type teardownStep struct {
	name    string
	release func()
}

// Push registers release under name. A nil release is ignored.
func (t *Teardown) Push(name string, release func()) {
	if release == nil {
		return
	}
	t.steps = append(t.steps, teardownStep{name: name, release: release})
}

func (t *Teardown) Len() int {
	return len(t.steps)
}

// Run releases everything registered so far, most recent first, and empties
// the stack. observe, if not nil, is called with each step's name before the
// step runs.
func (t *Teardown) Run(observe func(name string)) {
	for i := len(t.steps) - 1; i >= 0; i-- {
		step := t.steps[i]
		if observe != nil {
			observe(step.name)
		}
		step.release()
	}
	t.steps = nil
}
