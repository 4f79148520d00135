package agent

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Library resolves a function call of a model into the response sent back to it.
type Library func(context.Context, *genai.FunctionCall) *genai.FunctionResponse

// Function is a tool a model can call.
type Function interface {
	Declaration() *genai.FunctionDeclaration
	Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

// NewLibrary dispatches calls to the function declared under the same name.
// Unknown names are answered with an error the model can read.
func NewLibrary[T Function](functions []T) Library {
	byName := make(map[string]Function, len(functions))
	for _, f := range functions {
		byName[f.Declaration().Name] = f
	}
	return func(ctx context.Context, call *genai.FunctionCall) *genai.FunctionResponse {
		f, ok := byName[call.Name]
		if !ok {
			return failure(call.ID, call.Name, fmt.Errorf("unknown function %s", call.Name))
		}
		return f.Call(ctx, call.ID, call.Args)
	}
}

// NewDeclaration lists the declarations of the functions, in order.
func NewDeclaration[T Function](functions []T) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, len(functions))
	for i, f := range functions {
		decls[i] = f.Declaration()
	}
	return decls
}

// Func is a Function made of a declaration and a callback.
type Func struct {
	Decl *genai.FunctionDeclaration
	Func func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }

func (f *Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	return f.Func(ctx, id, args)
}

func success(id, name, output string) *genai.FunctionResponse {
	return &genai.FunctionResponse{ID: id, Name: name, Response: map[string]any{"output": output}}
}

func failure(id, name string, err error) *genai.FunctionResponse {
	return &genai.FunctionResponse{ID: id, Name: name, Response: map[string]any{"error": err.Error()}}
}

func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok {
		return "", fmt.Errorf("argument %q is required", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q is not a string as expected but %T", name, v)
	}
	return s, nil
}
