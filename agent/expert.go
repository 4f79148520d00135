package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"
)

// maxRounds bounds the function calls a single question can trigger.
const maxRounds = 8

// ErrTooManyCalls is returned when a model keeps calling functions instead of answering.
var ErrTooManyCalls = errors.New("too many function calls")

// sender is the part of a chat an expert talks to. *genai.Chat implements it.
type sender interface {
	Send(ctx context.Context, parts ...*genai.Part) (*genai.GenerateContentResponse, error)
}

// Expert is a model session specialised on one topic, with its own tools.
type Expert struct {
	Name        string                       `json:"name"`
	Description string                       `json:"description"`
	ModelName   string                       `json:"model_name"`
	Config      *genai.GenerateContentConfig `json:"config"`
	Library     Library
	Logger      arbor.ILogger
	chat        sender
}

func NewExpert(name, description string) *Expert {
	return &Expert{Name: name, Description: description}
}

// Start opens the expert's chat.
func (e *Expert) Start(ctx context.Context, client *genai.Client) error {
	chat, err := client.Chats.Create(ctx, e.ModelName, e.Config, nil)
	if err != nil {
		return fmt.Errorf("starting expert %s: %w", e.Name, err)
	}
	e.chat = chat
	return nil
}

func (e *Expert) started() bool { return e.chat != nil }

func (e *Expert) logger() arbor.ILogger {
	if e.Logger == nil {
		return arbor.NewLogger()
	}
	return e.Logger
}

// Answer sends the question and resolves the function calls of the model
// until it answers with text.
func (e *Expert) Answer(ctx context.Context, question string) (string, error) {
	if !e.started() {
		return "", fmt.Errorf("expert %s is not started", e.Name)
	}
	parts := []*genai.Part{{Text: question}}
	for range maxRounds {
		resp, err := e.chat.Send(ctx, parts...)
		if err != nil {
			return "", fmt.Errorf("expert %s: %w", e.Name, err)
		}
		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			text := resp.Text()
			if text == "" {
				return "", fmt.Errorf("no response from expert %s", e.Name)
			}
			return text, nil
		}
		if e.Library == nil {
			return "", fmt.Errorf("expert %s doesn't know how to make function calls", e.Name)
		}
		// every call of the turn is answered in the next message, failures included.
		parts = make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			e.logger().Debug().Str("expert", e.Name).Str("function", call.Name).Msg("function call")
			parts = append(parts, &genai.Part{FunctionResponse: e.Library(ctx, call)})
		}
	}
	return "", fmt.Errorf("expert %s: %w (%d rounds)", e.Name, ErrTooManyCalls, maxRounds)
}

// Declaration returns the function declaration to ask this expert.
func (e *Expert) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        e.Name,
		Description: e.Description,
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"question": {Type: genai.TypeString, Description: "The question to ask the expert."},
			},
			Required: []string{"question"},
		},
		Response: &genai.Schema{Type: genai.TypeString, Description: "Expert's response."},
	}
}

// Call lets another model ask this expert a question.
func (e *Expert) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	question, err := stringArg(args, "question")
	if err != nil {
		return failure(id, e.Name, err)
	}
	answer, err := e.Answer(ctx, question)
	if err != nil {
		return failure(id, e.Name, err)
	}
	e.logger().Info().Str("expert", e.Name).Str("question", question).Msg("expert answered")
	return success(id, e.Name, answer)
}
