package llm

// Price is USD per million tokens.
type Price struct {
	Input  float64
	Output float64
}

// Cost returns the USD cost of one request.
func (p Price) Cost(inputTokens, outputTokens int) float64 {
	return (float64(inputTokens)*p.Input + float64(outputTokens)*p.Output) / 1_000_000
}

// prices covers the default and alias models. Last checked 2026-02.
var prices = map[string]Price{
	"claude-haiku-4-5-20251001": {1, 5},
	"claude-haiku-4-5":          {1, 5},
	"claude-sonnet-4-20250514":  {3, 15},
	"gpt-4o-mini":               {0.15, 0.6},
	"gpt-4o":                    {2.5, 10},
	"gemini-2.0-flash":          {0.1, 0.4},
	"gemini-2.0-pro":            {1.25, 10},
	"mock":                      {0, 0},
}

// LookupPrice returns the price of model, ok is false for unknown models.
func LookupPrice(model string) (Price, bool) {
	p, ok := prices[model]
	return p, ok
}

// Spend totals the cost of recorded requests. Requests for unpriced models
// are counted in unpriced and left out of usd.
func Spend(events []UsageRecord) (usd float64, unpriced int) {
	for _, e := range events {
		p, ok := LookupPrice(e.Model)
		if !ok {
			unpriced++
			continue
		}
		usd += p.Cost(e.InputTokens, e.OutputTokens)
	}
	return usd, unpriced
}

// UsageRecord is the part of a stored request event Spend needs.
type UsageRecord struct {
	Model        string
	InputTokens  int
	OutputTokens int
}
