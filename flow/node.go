package flow

// NodeType is the tag selecting a node's config variant and executor.
type NodeType string

// Built-in node types.
const (
	TypeTextInput       NodeType = "text-input"
	TypeImageInput      NodeType = "image-input"
	TypeAudioInput      NodeType = "audio-input"
	TypeUserInput       NodeType = "user-input"
	TypePrompt          NodeType = "prompt"
	TypeImageGeneration NodeType = "image-generation"
	TypeAudioGeneration NodeType = "audio-generation"
	TypeTranscription   NodeType = "transcription"
	TypeCode            NodeType = "code"
	TypeOutput          NodeType = "output"
	TypeComment         NodeType = "comment"
)

// IsInputCapture reports whether nodes of this type only capture a value
// supplied by the user (or a caller override).
func (t NodeType) IsInputCapture() bool {
	switch t {
	case TypeTextInput, TypeImageInput, TypeAudioInput:
		return true
	}
	return false
}

// IsOutput reports whether nodes of this type are terminal outputs.
func (t NodeType) IsOutput() bool { return t == TypeOutput }

// IsBuiltin reports whether t is one of the built-in types.
func (t NodeType) IsBuiltin() bool {
	switch t {
	case TypeTextInput, TypeImageInput, TypeAudioInput, TypeUserInput, TypePrompt,
		TypeImageGeneration, TypeAudioGeneration, TypeTranscription, TypeCode,
		TypeOutput, TypeComment:
		return true
	}
	return false
}

// CachePolicy classifies whether results of a node type may be reused.
type CachePolicy int

const (
	// CacheOptIn types are cached only when the node's config opts in.
	CacheOptIn CachePolicy = iota
	// CacheImplicit types are cached without an opt-in flag.
	CacheImplicit
	// CacheNever types are always recomputed and never stored.
	CacheNever
)

func (p CachePolicy) String() string {
	switch p {
	case CacheImplicit:
		return "implicit"
	case CacheNever:
		return "never"
	default:
		return "opt-in"
	}
}

// DefaultCachePolicy returns the policy of a built-in type. Unknown types
// fall back to CacheOptIn.
func DefaultCachePolicy(t NodeType) CachePolicy {
	switch {
	case t == TypeUserInput || t == TypeComment:
		return CacheNever
	case t.IsInputCapture():
		return CacheImplicit
	default:
		return CacheOptIn
	}
}

// InputHandle is the handle on which input-capture nodes receive their value.
const InputHandle = "value"

// Node is one vertex of a flow. The engine treats it as immutable for the
// duration of a run.
type Node struct {
	ID     string   `json:"id" yaml:"id" validate:"required"`
	Type   NodeType `json:"type" yaml:"type" validate:"required"`
	Label  string   `json:"label,omitempty" yaml:"label,omitempty"`
	Config Config   `json:"config,omitempty" yaml:"-"`
}

// DisplayLabel is the human-readable key used in run outputs and errors.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// CacheEnabled reports the node's explicit cache opt-in.
func (n Node) CacheEnabled() bool {
	if o, ok := n.Config.(OptIn); ok {
		return o.CacheEnabled()
	}
	return false
}

// CapturedValue returns the stored value of an input-capture node.
func (n Node) CapturedValue() string {
	if c, ok := n.Config.(Capture); ok {
		return c.CapturedValue()
	}
	return ""
}

// WithCapturedValue returns a copy of an input-capture node holding v.
// Other nodes are returned unchanged.
func (n Node) WithCapturedValue(v string) Node {
	if c, ok := n.Config.(Capture); ok {
		n.Config = c.WithCaptured(v)
	}
	return n
}
