package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"fodmap-research/llm/providers/shared"
)

var (
	ErrToolNotFound     = errors.New("tool not found")
	ErrInvalidArguments = errors.New("invalid tool arguments")
)

type entry struct {
	tool       Tool
	definition shared.ToolDef
	schema     *gojsonschema.Schema
}

// Registry manages tool registration and execution
type Registry struct {
	mu    sync.RWMutex
	tools map[string]entry
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]entry),
	}
}

// Register adds a tool to the registry, compiling its argument schema
func (r *Registry) Register(tool Tool) error {
	def, err := Definition(tool)
	if err != nil {
		return fmt.Errorf("tool %s: %w", tool.Name(), err)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(def.JSONSchema))
	if err != nil {
		return fmt.Errorf("tool %s: invalid schema: %w", tool.Name(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = entry{tool: tool, definition: def, schema: schema}
	return nil
}

// Get retrieves a tool by name
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.tools[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return e.tool, nil
}

// List returns all registered tools sorted by name
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.tools))
	for _, e := range r.tools {
		out = append(out, e.tool)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Definitions returns the function definitions of all tools, sorted by name
func (r *Registry) Definitions() []shared.ToolDef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]shared.ToolDef, 0, len(r.tools))
	for _, e := range r.tools {
		out = append(out, e.definition)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Execute validates the call arguments against the tool schema and runs it
func (r *Registry) Execute(ctx context.Context, call shared.ToolCall) (*ToolResult, error) {
	r.mu.RLock()
	e, exists := r.tools[call.Name]
	r.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, call.Name)
	}

	args := call.Arguments
	if len(args) == 0 {
		args = []byte("{}")
	}
	validation, err := e.schema.Validate(gojsonschema.NewBytesLoader(args))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, call.Name, err)
	}
	if !validation.Valid() {
		msgs := make([]string, len(validation.Errors()))
		for i, desc := range validation.Errors() {
			msgs[i] = desc.String()
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrInvalidArguments, call.Name, strings.Join(msgs, "; "))
	}

	start := time.Now()
	result, err := e.tool.Execute(ctx, args)
	if err != nil {
		return nil, err
	}

	result.Stats.ExecutionTime = time.Since(start)
	return result, nil
}
