// Package wire defines the JSON contract that crosses the process boundary:
// the input packet embedded into generated programs and the result packet a
// template emits on its final line of standard output.
package wire

// Packet is the input side of the wire protocol. One packet is built fresh
// per invocation and embedded as a literal constant in the generated program.
type Packet struct {
	Args    []any          `json:"args"`
	Kwargs  map[string]any `json:"kwargs"`
	Context Context        `json:"context"`
}

// Context carries per-invocation metadata through to the foreign program.
type Context struct {
	TemplateName string         `json:"template_name"`
	ExecutionID  string         `json:"execution_id"`
	Metadata     map[string]any `json:"metadata"`
}

// NewPacket builds a packet, normalizing nil collections so the embedded
// literal always has the full shape.
func NewPacket(args []any, kwargs map[string]any, ctx Context) Packet {
	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return Packet{Args: args, Kwargs: kwargs, Context: ctx}
}
