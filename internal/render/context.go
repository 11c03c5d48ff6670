package render

import (
	"strings"

	"insights-dashboard/internal/models"
)

const contextPrompt = `Please help me understand this investment recommendation better. I'd like to discuss:
1. The reasoning behind this recommendation
2. The potential risks and how to mitigate them
3. Alternative investment strategies
4. Market conditions that could affect this recommendation
5. Any additional research I should do

What are your thoughts on this recommendation?`

// RecommendationContext builds the plain-text briefing handed to a chat
// assistant for one recommendation. Missing values are left blank.
func RecommendationContext(rec models.Recommendation) string {
	var b strings.Builder
	line := func(parts ...string) {
		for _, p := range parts {
			b.WriteString(p)
		}
		b.WriteByte('\n')
	}

	line("Investment Recommendation Context:")
	line()
	line("📈 Stock: ", rec.Symbol)
	line("🎯 Action: ", rec.Action)
	line("💰 Current Price: ", rec.CurrentPrice)
	line("📊 Target Price: ", rec.TargetPrice)
	line("⏰ Timeframe: ", rec.Timeframe)
	line("🎯 Confidence: ", rec.Confidence)
	line("📊 Type: ", rec.Type)
	line()
	line("📋 Reason:")
	line(rec.Reason)
	line()
	line("🚀 Catalyst:")
	line(rec.Catalyst)
	line()
	line("⚠️ Risks:")
	line(rec.Risks)
	line()
	line("✅ Why Despite Risks:")
	line(rec.WhyDespiteRisks)
	line()
	line("💰 Investment Details:")
	line("• Amount: ", rec.AmountILS)
	line("• Portfolio %: ", rec.PercentageOfPortfolio)
	line("• Stop Loss: ", rec.StopLoss)
	line()
	b.WriteString(contextPrompt)
	return b.String()
}

// AskPrompt is the confirmation question shown before handing a
// recommendation to the chat assistant.
func AskPrompt(rec models.Recommendation) string {
	return "האם ברצונך לפתוח ChatGPT עם הקונטקסט של המלצת ההשקעה עבור " + rec.Symbol + "?\n\n" +
		"הקונטקסט יכלול:\n" +
		"• פרטי ההמלצה המלאים\n" +
		"• סיבות וקטליזטורים\n" +
		"• סיכונים ומידע נוסף\n" +
		"• שאלות מנחות לדיון\n\n" +
		"הקונטקסט יועתק ללוח ו-ChatGPT ייפתח בחלון חדש."
}
