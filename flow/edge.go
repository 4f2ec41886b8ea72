package flow

const (
	// DefaultSourceHandle is used when an edge has no source handle.
	DefaultSourceHandle = "output"
	// DefaultTargetHandle is used when an edge has no target handle.
	// Older saved flows rely on this default.
	DefaultTargetHandle = "prompt"
	// PulseHandle is the source handle of a node's secondary fire-once signal.
	PulseHandle = "done"
	// PulseValue is the value recorded for a fired pulse.
	PulseValue = "done"
)

// Edge carries the value of one source handle to one target handle.
type Edge struct {
	ID           string `json:"id" yaml:"id"`
	Source       string `json:"source" yaml:"source" validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
	Target       string `json:"target" yaml:"target" validate:"required"`
	TargetHandle string `json:"targetHandle,omitempty" yaml:"targetHandle,omitempty"`
}

// Out returns the source handle, defaulted.
func (e Edge) Out() string {
	if e.SourceHandle == "" {
		return DefaultSourceHandle
	}
	return e.SourceHandle
}

// In returns the target handle, defaulted.
func (e Edge) In() string {
	if e.TargetHandle == "" {
		return DefaultTargetHandle
	}
	return e.TargetHandle
}

// IsPulse reports whether the edge carries the source's pulse signal.
func (e Edge) IsPulse() bool { return e.SourceHandle == PulseHandle }

// OutputKey is the key under which the edge's value is found in a run's
// output map.
func (e Edge) OutputKey() string {
	if e.IsPulse() {
		return PulseKey(e.Source)
	}
	return e.Source
}

// PulseKey is the output-map key of a node's pulse signal.
func PulseKey(nodeID string) string { return nodeID + ":" + PulseHandle }
