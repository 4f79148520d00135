package agent

import (
	"context"
	"strings"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/docs"
	"github.com/etnz/valuation/renderer"
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// creates the facilitator
func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skill that you can get from the Tools to ask them questions.
			They are at your service and keep context of your previous questions.

			The user is an investor trying to understand the valuation of listed companies.
			Devise a plan of questions to ask to each expert and come up with the best response to the user's request.

			Figures come from the Analyst, never invent them. Symbols are written CODE.EXCHANGE, like SQM-B.SN.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

func NewTrader() *Expert {
	return &Expert{
		Name: "Trader",
		Description: `This is an expert trader,
		very well aware of the listed companies and the markets they trade in,
		and of the latest news about them.
		Ask the Trader whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are an expert in trading, you can search and find about anything related to
			companies, markets, central banks and commodities. You leverage Google Search to
			ground your assertions in a solid truth.
			You can get the latest news too, and you know how to relate them to a company's valuation.
				`}}},
		},
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// Desk runs the analyses of a company.
type Desk interface {
	Value(ctx context.Context, symbol string) (*valuation.Result, error)
	Compare(ctx context.Context, symbol string) (*valuation.Comparison, error)
	PEG(ctx context.Context, symbol string) (*valuation.PEGReport, error)
}

// NewAnalyst returns the expert computing valuations on desk.
func NewAnalyst(desk Desk) *Expert {
	lib := AnalystFunctions(desk)
	return &Expert{
		Name: "Analyst",
		Description: `This is the Analyst. It computes the discounted cash flow valuation of a company,
		compares its multiples with its sector peers and computes its PEG ratio.
		Ask the Analyst for any figure about a company.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are an equity analyst. You use the Tools to compute the valuation of companies,
				never estimate a figure yourself.
				You are part of a team of experts, yours is everything about the figures of a company.
				Explain the assumptions behind each figure: the discount rate, the growth rates,
				the share count and the currency conversions. The method is documented below.

			` + must(docs.GetTopics("wacc", "dcf", "peg", "peers"))}}},
		},
		Library: NewLibrary(lib),
	}
}

// AnalystFunctions are the functions the Analyst can call.
func AnalystFunctions(desk Desk) []Function {
	return []Function{
		symbolFunc("Valuation",
			"Valuation computes the discounted cash flow valuation of a company: WACC, ROIC, growth, intrinsic value per share and the verdict against the market price.",
			func(ctx context.Context, symbol string) (string, error) {
				r, err := desk.Value(ctx, symbol)
				if err != nil {
					return "", err
				}
				return renderer.RenderValuation(r), nil
			}),
		symbolFunc("Peers",
			"Peers compares the multiples of a company (P/E, P/B, EV/EBITDA...) with the ones of its sector on the same exchange.",
			func(ctx context.Context, symbol string) (string, error) {
				c, err := desk.Compare(ctx, symbol)
				if err != nil {
					return "", err
				}
				return renderer.RenderComparison(c), nil
			}),
		symbolFunc("PEG",
			"PEG computes the price earnings to growth ratio of a company out of its trailing P/E and earnings growth.",
			func(ctx context.Context, symbol string) (string, error) {
				p, err := desk.PEG(ctx, symbol)
				if err != nil {
					return "", err
				}
				return renderer.RenderPEG(p), nil
			}),
	}
}

// symbolFunc declares a function of a single symbol returning a markdown report.
func symbolFunc(name, description string, run func(ctx context.Context, symbol string) (string, error)) *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name:        name,
			Description: description,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"symbol": {
						Type:        genai.TypeString,
						Description: "The EODHD symbol of the company, CODE.EXCHANGE like SQM-B.SN or AAPL.US.",
					},
				},
				Required: []string{"symbol"},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown report.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			symbol, err := stringArg(args, "symbol")
			if err != nil {
				return failure(id, name, err)
			}
			out, err := run(ctx, strings.ToUpper(strings.TrimSpace(symbol)))
			if err != nil {
				return failure(id, name, err)
			}
			return success(id, name, out)
		},
	}
}
