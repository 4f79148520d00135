// Package agent implements the Gemini assistant explaining valuations.
package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"google.golang.org/genai"
)

const prompt = "val> "

// farewells end the session.
var farewells = []string{"bye", "exit", "quit"}

// Agent is the interactive assistant. The user talks to the facilitator, who
// consults the experts through function calls.
type Agent struct {
	Facilitator *Expert
	Experts     []*Expert
	// Print renders the answers, written as is when nil.
	Print func(md string)

	out io.Writer
	in  *bufio.Scanner
}

// New returns an agent writing to w and reading the user's questions from r,
// one per line.
func New(w io.Writer, r io.Reader, experts ...*Expert) *Agent {
	return &Agent{
		Facilitator: newFacilitator(experts...),
		Experts:     experts,
		out:         w,
		in:          bufio.NewScanner(r),
	}
}

// Start opens the chats of every expert and of the facilitator.
func (a *Agent) Start(ctx context.Context, client *genai.Client) error {
	for _, e := range append(slices.Clone(a.Experts), a.Facilitator) {
		if err := e.Start(ctx, client); err != nil {
			return err
		}
	}
	return nil
}

// Run answers questions until the input ends or the user says goodbye.
// The queued questions are asked first, echoed as if the user typed them.
func (a *Agent) Run(ctx context.Context, client *genai.Client, queued ...string) error {
	if !a.Facilitator.started() {
		if err := a.Start(ctx, client); err != nil {
			return err
		}
	}
	fmt.Fprintln(a.out, "Welcome to val assist. Type 'bye' to exit.")

	for {
		question, ok, err := a.next(&queued)
		if err != nil || !ok {
			return err
		}
		if question == "" {
			continue
		}
		if slices.Contains(farewells, strings.ToLower(question)) {
			return nil
		}
		answer, err := a.Facilitator.Answer(ctx, question)
		if err != nil {
			return err
		}
		a.print(answer)
	}
}

// next prompts for the following question. ok is false once the input is exhausted.
func (a *Agent) next(queued *[]string) (question string, ok bool, err error) {
	fmt.Fprint(a.out, prompt)
	if len(*queued) > 0 {
		question, *queued = strings.TrimSpace((*queued)[0]), (*queued)[1:]
		fmt.Fprintln(a.out, question)
		return question, true, nil
	}
	if !a.in.Scan() {
		return "", false, a.in.Err()
	}
	return strings.TrimSpace(a.in.Text()), true, nil
}

func (a *Agent) print(md string) {
	if a.Print == nil {
		fmt.Fprintln(a.out, md)
		return
	}
	a.Print(md)
}
