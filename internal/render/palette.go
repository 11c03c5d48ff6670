package render

import "strings"

// Tone is the visual treatment of a categorical value.
type Tone string

const (
	ToneSuccess Tone = "success"
	ToneDanger  Tone = "danger"
	ToneWarning Tone = "warning"
	ToneInfo    Tone = "info"
	ToneNeutral Tone = "neutral"
)

// Category is a family of categorical document values.
type Category string

const (
	CategoryAction    Category = "action"
	CategorySentiment Category = "sentiment"
	CategoryLevel     Category = "level"
	CategoryUrgency   Category = "urgency"
	CategoryAlertType Category = "alert_type"
)

// Style is the tone and icon for one categorical value.
type Style struct {
	Tone Tone
	Icon string
}

// Palette maps category values to styles. Values are matched after trimming
// and lower-casing, so English values are case-insensitive.
var Palette = map[Category]map[string]Style{
	CategoryAction: {
		"לקנות":  {Tone: ToneSuccess},
		"buy":    {Tone: ToneSuccess},
		"למכור":  {Tone: ToneDanger},
		"sell":   {Tone: ToneDanger},
		"להימנע": {Tone: ToneDanger},
		"avoid":  {Tone: ToneDanger},
		"להחזיק": {Tone: ToneWarning},
		"hold":   {Tone: ToneWarning},
	},
	CategorySentiment: {
		"חיובי":    {Tone: ToneSuccess},
		"positive": {Tone: ToneSuccess},
		"bullish":  {Tone: ToneSuccess},
		"שורי":     {Tone: ToneSuccess},
		"שלילי":    {Tone: ToneDanger},
		"negative": {Tone: ToneDanger},
		"bearish":  {Tone: ToneDanger},
		"דובי":     {Tone: ToneDanger},
		"ניטרלי":   {Tone: ToneWarning},
		"neutral":  {Tone: ToneWarning},
	},
	CategoryLevel: {
		"גבוה":   {Tone: ToneDanger},
		"high":   {Tone: ToneDanger},
		"בינוני": {Tone: ToneWarning},
		"medium": {Tone: ToneWarning},
		"נמוך":   {Tone: ToneSuccess},
		"low":    {Tone: ToneSuccess},
	},
	CategoryUrgency: {
		"דחוף":       {Tone: ToneDanger, Icon: "🚨"},
		"urgent":     {Tone: ToneDanger, Icon: "🚨"},
		"בינוני":     {Tone: ToneWarning, Icon: "⚠️"},
		"medium":     {Tone: ToneWarning, Icon: "⚠️"},
		"לא דחוף":    {Tone: ToneInfo, Icon: "ℹ️"},
		"not urgent": {Tone: ToneInfo, Icon: "ℹ️"},
	},
	CategoryAlertType: {
		"רווחים":    {Icon: "💰"},
		"earnings":  {Icon: "💰"},
		"חדשות":     {Icon: "📰"},
		"news":      {Icon: "📰"},
		"טכני":      {Icon: "📈"},
		"technical": {Icon: "📈"},
	},
}

// fallbackIcon is used by categories that always show an icon.
const fallbackIcon = "📢"

// Lookup returns the style of value within category. Unknown values get the
// neutral tone; urgency and alert type fall back to a generic icon.
func Lookup(category Category, value string) Style {
	style, ok := Palette[category][normalize(value)]
	if !ok {
		style = Style{}
	}
	if style.Tone == "" {
		style.Tone = ToneNeutral
	}
	if style.Icon == "" && (category == CategoryUrgency || category == CategoryAlertType) {
		style.Icon = fallbackIcon
	}
	return style
}

// ToneOf is shorthand for Lookup(category, value).Tone.
func ToneOf(category Category, value string) Tone {
	return Lookup(category, value).Tone
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
