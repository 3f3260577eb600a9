package procinfo

// FakeProcess is one row in a FakeInspector's process table.
type FakeProcess struct {
	Parent    int
	Command   string
	StartTime float64
	TTY       string
}

// FakeInspector is an Inspector over an in-memory process table, for
// tests that exercise ownership and liveness logic without real PIDs.
type FakeInspector struct {
	Procs map[int]FakeProcess
}

// NewFakeInspector returns an empty fake process table.
func NewFakeInspector() *FakeInspector {
	return &FakeInspector{Procs: make(map[int]FakeProcess)}
}

// Add inserts or replaces a process row.
func (f *FakeInspector) Add(pid int, p FakeProcess) {
	f.Procs[pid] = p
}

// Kill removes a process row, simulating process exit.
func (f *FakeInspector) Kill(pid int) {
	delete(f.Procs, pid)
}

func (f *FakeInspector) Parent(pid int) int {
	return f.Procs[pid].Parent
}

func (f *FakeInspector) Command(pid int) string {
	return f.Procs[pid].Command
}

func (f *FakeInspector) StartTime(pid int) float64 {
	return f.Procs[pid].StartTime
}

func (f *FakeInspector) Alive(pid int) bool {
	_, ok := f.Procs[pid]
	return ok
}

func (f *FakeInspector) TTY(pid int) string {
	return f.Procs[pid].TTY
}
