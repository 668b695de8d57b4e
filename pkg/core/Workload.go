package core

// JobDescriptor is anything the orchestrator hands over as a job. Length is
// the raw workload (instruction count, MI) before validation.
type JobDescriptor interface {
	JobID() string
	Length() float64
}

// ResourceDescriptor is anything the orchestrator hands over as an execution
// resource (a VM in simulator terms).
type ResourceDescriptor interface {
	ResourceID() string
	Cores() int
	CoreThroughput() float64
}

// BoundJob is a job the orchestrator already pinned to a resource. Only the
// round-robin mapper honours the binding.
type BoundJob interface {
	JobDescriptor
	BoundResource() string
}

// Workload represents a job to schedule
type Workload struct {
	ID      string
	MI      float64 // total instructions, in millions
	Tag     string
	BoundTo string // optional resource id
}

func (w Workload) JobID() string         { return w.ID }
func (w Workload) Length() float64       { return w.MI }
func (w Workload) BoundResource() string { return w.BoundTo }

// Node represents an execution resource: PEs cores running at MIPS each.
type Node struct {
	ID     string
	PEs    int
	MIPS   float64
	Labels map[string]string
}

func (n Node) ResourceID() string      { return n.ID }
func (n Node) Cores() int              { return n.PEs }
func (n Node) CoreThroughput() float64 { return n.MIPS }

// Workloads and Nodes widen concrete slices to descriptor slices.
func Workloads(ws []Workload) []JobDescriptor {
	out := make([]JobDescriptor, 0, len(ws))
	for _, w := range ws {
		out = append(out, w)
	}
	return out
}

func Nodes(ns []Node) []ResourceDescriptor {
	out := make([]ResourceDescriptor, 0, len(ns))
	for _, n := range ns {
		out = append(out, n)
	}
	return out
}
