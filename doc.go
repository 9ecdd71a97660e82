// Package toolrelay routes a natural-language request through a language model
// that may pick one of a small set of registered tools, runs the chosen tool(s),
// and hands the results back to the model for a final answer.
//
// # Overview
//
// This package holds the tool half of that flow: registration, the capability
// catalog embedded into every model prompt, and invocation. The model half lives
// in the backend and agent packages.
//
// Pipeline: Go function + argument struct → NewTool (schema built once) → Tool →
// Registry → Catalog (JSON shown to the model) → InvokeAll (validate, decode,
// call) → []Result.
//
// # Key concepts
//
//   - Declarative schema: parameter names, types and defaults come from the
//     argument struct tags (or an explicit []Param for NewDynamicTool) and are
//     fixed at registration time. The catalog is a pure transform of that data.
//   - Last write wins: registering a second tool under an existing name replaces it.
//   - Partial success: InvokeAll returns one Result per Invocation, in order.
//     A missing tool, bad arguments or a failing tool body only affect their own
//     entry.
//
// # Example
//
//	type Args struct {
//	    Location string `json:"location"`
//	    Unit     string `json:"unit,omitempty" jsonschema:"default=fahrenheit"`
//	}
//	tool, err := toolrelay.NewTool("fetch_weather", "Retrieves the current weather for a given location.",
//	    func(_ context.Context, a Args) (string, error) { return "Sunny", nil })
//	if err != nil { ... }
//	reg := toolrelay.NewRegistry()
//	reg.Register(tool)
//	results := reg.InvokeAll(ctx, []toolrelay.Invocation{
//	    {Tool: "fetch_weather", ToolInput: map[string]any{"location": "Boston"}},
//	})
package toolrelay
