package flow

// Result is what an executor produces for one node. Only Output is
// required; the remaining fields are type-specific side channels.
type Result struct {
	Output    string         `json:"output"`
	Reasoning string         `json:"reasoning,omitempty"`
	ImageURL  string         `json:"imageUrl,omitempty"`
	AudioURL  string         `json:"audioUrl,omitempty"`
	Code      string         `json:"code,omitempty"`
	DebugInfo map[string]any `json:"debugInfo,omitempty"`
}

// Clone returns a copy that shares no maps with r.
func (r Result) Clone() Result {
	out := r
	if r.DebugInfo != nil {
		out.DebugInfo = make(map[string]any, len(r.DebugInfo))
		for k, v := range r.DebugInfo {
			out.DebugInfo[k] = v
		}
	}
	return out
}

// Strings returns every string-valued field, including string values
// nested in DebugInfo.
func (r Result) Strings() []string {
	out := []string{r.Output, r.Reasoning, r.ImageURL, r.AudioURL, r.Code}
	for k, v := range r.DebugInfo {
		out = append(out, k)
		out = appendStrings(out, v)
	}
	return out
}

func appendStrings(out []string, v any) []string {
	switch t := v.(type) {
	case string:
		out = append(out, t)
	case []string:
		out = append(out, t...)
	case []any:
		for _, e := range t {
			out = appendStrings(out, e)
		}
	case map[string]any:
		for k, e := range t {
			out = append(out, k)
			out = appendStrings(out, e)
		}
	}
	return out
}
