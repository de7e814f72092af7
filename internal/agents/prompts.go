package agents

import (
	"fmt"
	"strings"

	"insightd/internal/models"
)

const discoverySystemPrompt = `You are a discovery agent for a value investing research system focused on special situations in Indian markets.

Your job is to quickly assess signals and determine if they warrant deeper research. Look for:

1. **Insider Activity**:
   - Promoter/director buying (especially above market price)
   - Large percentage changes in holdings
   - Multiple insiders buying simultaneously
   - Buying during market weakness

2. **Special Situations**:
   - Merger/demerger announcements with interesting terms
   - Buybacks at premium valuations
   - Delisting offers
   - Resolution plans for distressed companies
   - Asset monetization

3. **Corporate Actions**:
   - Unusual board meeting purposes
   - Rights issues with strong promoter participation
   - Bulk deals by credible institutions

4. **Red Flags to Ignore**:
   - Small insider sales (<₹1 lakh)
   - Routine compliance filings
   - Penny stocks (market cap <₹100 cr)
   - Promoter pledging (negative signal)

Output format:
INTERESTING: [YES/NO]
REASON: [1-2 sentences why this is/isn't interesting]
INITIAL_SCORE: [1-10]`

// discoveryPrompt renders the user prompt for a signal by type.
func discoveryPrompt(sig models.Signal) string {
	data := sig.Data

	switch sig.SignalType {
	case "insider_trading":
		before := numOr(data, "percentage_before", 0)
		after := numOr(data, "percentage_after", 0)
		return fmt.Sprintf(`Insider Trading Signal:

Company: %s (%s)
Person: %s
Category: %s
Transaction: %s
Holding Before: %.2f%%
Holding After: %.2f%%
Change: %.2f%%

Assess if this is interesting.`,
			sig.Company(), sig.Symbol(),
			strOr(data, "person"), strOr(data, "category"), strOr(data, "transaction_type"),
			before, after, after-before)

	case "merger_arb":
		return fmt.Sprintf(`Merger/Amalgamation Signal:

Company: %s (%s)
Announcement: %s

Assess if this presents an interesting merger arbitrage or special situation opportunity.`,
			sig.Company(), sig.Symbol(), strOr(data, "subject"))

	default:
		return fmt.Sprintf(`Signal Type: %s

Company: %s (%s)
Details: %s

Assess if this is an interesting special situation.`,
			sig.SignalType, sig.Company(), sig.Symbol(), strOr(data, "subject"))
	}
}

func level1Prompt(sig models.Signal) string {
	return fmt.Sprintf(`You are researching %s. Provide basic context:

Signal: %s
Company: %s

Fundamentals:
- Market Cap: %s
- Sector: %s
- Current Price: %s
- PE Ratio: %s
- Promoter Holding: %s

Provide:
1. What does this company do? (1-2 sentences)
2. What is the current business environment for this sector?
3. Is this a quality business based on available metrics?

Keep it factual and concise (max 200 words).`,
		sig.Symbol(), sig.SignalType, sig.Company(),
		sig.Fundamental("market_cap"), sig.Fundamental("sector"),
		sig.Fundamental("current_price"), sig.Fundamental("pe_ratio"),
		sig.Fundamental("promoter_holding"))
}

// level2Prompt works from the signal alone. Prior signals and insights for
// the same company are not queried here; a known limitation.
func level2Prompt(sig models.Signal) string {
	return fmt.Sprintf(`Analyze historical patterns for %s:

Current Signal: %s
Details: %v

Research questions:
1. Has this promoter/management shown good capital allocation in the past?
2. Have similar insider transactions preceded stock movements?
3. What is the company's track record with corporate actions?
4. Any past controversies or red flags?

Provide evidence-based analysis. If data is limited, acknowledge it.`,
		sig.Symbol(), sig.SignalType, sig.Data)
}

func level3Prompt(sig models.Signal) string {
	return fmt.Sprintf(`Fundamental analysis of %s:

Financials:
- ROE: %s
- ROCE: %s
- Debt/Equity: %s
- Sales Growth (3Y): %s
- Profit Growth (3Y): %s
- Pledged %%: %s

Given the signal (%s), analyze:
1. Are fundamentals improving or deteriorating?
2. Is valuation reasonable for the business quality?
3. Any balance sheet concerns?
4. Does this signal align with fundamental trajectory?

Provide specific numbers and insights.`,
		sig.Symbol(),
		sig.Fundamental("roe"), sig.Fundamental("roce"),
		sig.Fundamental("debt_to_equity"), sig.Fundamental("sales_growth_3yr"),
		sig.Fundamental("profit_growth_3yr"), sig.Fundamental("pledged_percentage"),
		sig.SignalType)
}

func level4Prompt(sig models.Signal, level1, level2, level3 string) string {
	return fmt.Sprintf(`Synthesize the research into key insights:

SIGNAL: %s

CONTEXT: %s

HISTORICAL: %s

FUNDAMENTALS: %s

Provide:
1. **Core Thesis** (2-3 sentences): Why is this interesting?
2. **Key Evidence** (3-4 bullet points): Most compelling facts
3. **Risks/Concerns** (2-3 points): What could go wrong?
4. **Uniqueness** (1-2 sentences): Why would someone find this valuable?

Be specific and cite facts.`,
		sig.SignalType, level1, level2, level3)
}

func industryPrompt(sig models.Signal, level1 string) string {
	return fmt.Sprintf(`Analyze the industry context for %s.

Context so far:
%s

1. What are the key tailwinds/headwinds for this industry in India?
2. Are there regulatory changes impacting this sector?
3. Is this sector currently in favor or out of favor?

Provide concise industry insights.`, sig.Company(), level1)
}

func peerPrompt(sig models.Signal, level3 string) string {
	return fmt.Sprintf(`Compare %s with its key listed peers in India.

Fundamentals:
%s

1. Who are the main competitors?
2. How does this company compare on valuation and growth?
3. Is it a leader or follower?

Provide a brief peer comparison.`, sig.Company(), level3)
}

func validationPrompt(rec *models.ResearchRecord) string {
	return fmt.Sprintf(`You are a fact-checker. Review this investment research for internal consistency and logical flaws.

Signal: %s
Deep Research: %s
Industry: %s

1. Are there contradictions?
2. Does the conclusion follow from the evidence?
3. Are the risks adequately covered?

Output:
VERIFIED: [YES/NO]
NOTES: [Brief notes on validity]`,
		rec.Signal.SignalType, rec.Level4Synthesis, rec.IndustryContext)
}

func synthesisPrompt(rec *models.ResearchRecord) string {
	return fmt.Sprintf(`Create a final investment insight based on the research.

Signal: %s
Company: %s (%s)

Initial Assessment: %s

Deep Research:
%s

Industry Context:
%s

Peer Comparison:
%s

Validation Notes:
%s

Output valid JSON with the following structure:
{
    "headline": "Catchy but accurate headline (max 10 words)",
    "analysis": "Detailed 3-paragraph analysis for an investor",
    "evidence": ["Fact 1", "Fact 2", "Fact 3"],
    "interestingness_score": <float 1-10>,
    "metadata": {"risk_level": "High/Medium/Low", "time_horizon": "Short/Medium/Long"}
}`,
		rec.Signal.SignalType, rec.Signal.Company(), rec.Signal.Symbol(),
		rec.InitialAssessment, rec.Level4Synthesis,
		rec.IndustryContext, rec.PeerComparison, rec.ValidationNotes)
}

func strOr(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok && v != "" {
		return v
	}
	return "N/A"
}

func numOr(data map[string]any, key string, fallback float64) float64 {
	switch v := data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

// trimmed keeps logged prompt previews short.
func trimmed(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
