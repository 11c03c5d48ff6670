package render

import (
	"strings"
	"testing"

	"insights-dashboard/internal/models"
)

func TestRecommendationContext(t *testing.T) {
	rec := models.Recommendation{
		Symbol:                "NVDA",
		Action:                "לקנות",
		CurrentPrice:          "$120",
		TargetPrice:           "$150",
		Reason:                "AI demand",
		AmountILS:             "5000",
		PercentageOfPortfolio: "10%",
	}
	got := RecommendationContext(rec)

	for _, want := range []string{
		"Investment Recommendation Context:",
		"📈 Stock: NVDA\n",
		"🎯 Action: לקנות\n",
		"💰 Current Price: $120\n",
		"📋 Reason:\nAI demand\n",
		"• Amount: 5000\n",
		"• Portfolio %: 10%\n",
		"• Stop Loss: \n",
		"What are your thoughts on this recommendation?",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("context is missing %q", want)
		}
	}
}

func TestAskPromptNamesSymbol(t *testing.T) {
	got := AskPrompt(models.Recommendation{Symbol: "TEVA"})
	if !strings.HasPrefix(got, "האם ברצונך לפתוח ChatGPT") || !strings.Contains(got, "TEVA?") {
		t.Errorf("unexpected prompt %q", got)
	}
}
