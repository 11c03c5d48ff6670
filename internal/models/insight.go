// Package models provides domain models for the insights dashboard.
package models

import (
	"strconv"
	"strings"
)

// InsightRecord is the client-side projection of one document of the
// daily_insights collection.
type InsightRecord struct {
	ID        string
	Timestamp string
	Meta      Metadata
	Body      Body
	// Extra holds document fields the dashboard does not interpret
	// (portfolio_analysis, priority, ...). For a legacy record it also holds
	// the structured sections the document carried next to its message.
	Extra map[string]interface{}
	// Source is the document as read, without client-side fields. Nil for
	// records that were not read from a store.
	Source map[string]interface{}
}

// Metadata holds the descriptive fields of an insight. All are optional.
type Metadata struct {
	Title       string `mapstructure:"title" json:"title,omitempty"`
	Date        string `mapstructure:"date" json:"date,omitempty"`
	Currency    string `mapstructure:"currency" json:"currency,omitempty"`
	Source      string `mapstructure:"source" json:"source,omitempty"`
	GeneratedAt string `mapstructure:"generated_at" json:"generated_at,omitempty"`
	Type        string `mapstructure:"type" json:"type,omitempty"`
}

// Body is either a LegacyBody or a StructuredBody.
type Body interface {
	isBody()
}

// LegacyBody is the old document shape carrying only free text.
type LegacyBody struct {
	Message string
}

// StructuredBody is the current document shape with categorized sections.
// A nil pointer or nil slice means the field was absent from the document.
type StructuredBody struct {
	MarketOverview  *MarketOverview
	Recommendations []Recommendation
	SectorAnalysis  []SectorAnalysis
	Alerts          []Alert
	RiskManagement  *RiskManagement
}

func (LegacyBody) isBody()     {}
func (StructuredBody) isBody() {}

// IsEmpty reports whether no structured section carries content.
func (b StructuredBody) IsEmpty() bool {
	return b.MarketOverview == nil &&
		len(b.Recommendations) == 0 &&
		len(b.SectorAnalysis) == 0 &&
		len(b.Alerts) == 0 &&
		b.RiskManagement == nil
}

// Key returns the identity used for list rendering: the store id when
// present, else the positional index.
func (r InsightRecord) Key(index int) string {
	if r.ID != "" {
		return r.ID
	}
	return "idx-" + strconv.Itoa(index)
}

// IsLegacy reports whether the record renders as a legacy text block.
func (r InsightRecord) IsLegacy() bool {
	_, ok := r.Body.(LegacyBody)
	return ok
}

// Structured returns the structured body, if any.
func (r InsightRecord) Structured() (StructuredBody, bool) {
	b, ok := r.Body.(StructuredBody)
	return b, ok
}

// KeyEvent is a notable market event.
type KeyEvent struct {
	Event      string `mapstructure:"event" json:"event,omitempty"`
	Importance string `mapstructure:"importance" json:"importance,omitempty"`
	Impact     string `mapstructure:"impact" json:"impact,omitempty"`
}

// MarketOverview summarizes market conditions.
type MarketOverview struct {
	Summary             string     `mapstructure:"summary" json:"summary,omitempty"`
	Sentiment           string     `mapstructure:"sentiment" json:"sentiment,omitempty"`
	KeyEvents           []KeyEvent `mapstructure:"key_events" json:"key_events,omitempty"`
	TrendingSectors     []string   `mapstructure:"trending_sectors" json:"trending_sectors,omitempty"`
	ActionItems         []string   `mapstructure:"action_items" json:"action_items,omitempty"`
	ChangesSinceMorning string     `mapstructure:"changes_since_morning" json:"changes_since_morning,omitempty"`
}

// Recommendation is a single buy/sell/hold recommendation.
type Recommendation struct {
	Symbol                string `mapstructure:"symbol" json:"symbol,omitempty"`
	Action                string `mapstructure:"action" json:"action,omitempty"`
	ActionHebrew          string `mapstructure:"action_hebrew" json:"action_hebrew,omitempty"`
	AmountILS             string `mapstructure:"amount_ils" json:"amount_ils,omitempty"`
	PercentageOfPortfolio string `mapstructure:"percentage_of_portfolio" json:"percentage_of_portfolio,omitempty"`
	CurrentPrice          string `mapstructure:"current_price" json:"current_price,omitempty"`
	TargetPrice           string `mapstructure:"target_price" json:"target_price,omitempty"`
	StopLoss              string `mapstructure:"stop_loss" json:"stop_loss,omitempty"`
	Confidence            string `mapstructure:"confidence" json:"confidence,omitempty"`
	Reason                string `mapstructure:"reason" json:"reason,omitempty"`
	Timeframe             string `mapstructure:"timeframe" json:"timeframe,omitempty"`
	Risks                 string `mapstructure:"risks" json:"risks,omitempty"`
	WhyDespiteRisks       string `mapstructure:"why_despite_risks" json:"why_despite_risks,omitempty"`
	Type                  string `mapstructure:"type" json:"type,omitempty"`
	Catalyst              string `mapstructure:"catalyst" json:"catalyst,omitempty"`
}

// SectorAnalysis describes the outlook for one sector.
type SectorAnalysis struct {
	Sector          string   `mapstructure:"sector" json:"sector,omitempty"`
	Status          string   `mapstructure:"status" json:"status,omitempty"`
	Recommendation  string   `mapstructure:"recommendation" json:"recommendation,omitempty"`
	ActionRequired  string   `mapstructure:"action_required" json:"action_required,omitempty"`
	TopPicks        []string `mapstructure:"top_picks" json:"top_picks,omitempty"`
	Reason          string   `mapstructure:"reason" json:"reason,omitempty"`
	Risks           string   `mapstructure:"risks" json:"risks,omitempty"`
	WhyDespiteRisks string   `mapstructure:"why_despite_risks" json:"why_despite_risks,omitempty"`
	PortfolioImpact string   `mapstructure:"portfolio_impact" json:"portfolio_impact,omitempty"`
}

// Alert is an earnings, news or technical alert.
type Alert struct {
	Type            string `mapstructure:"type" json:"type,omitempty"`
	Symbol          string `mapstructure:"symbol" json:"symbol,omitempty"`
	Message         string `mapstructure:"message" json:"message,omitempty"`
	Priority        string `mapstructure:"priority" json:"priority,omitempty"`
	ActionRequired  string `mapstructure:"action_required" json:"action_required,omitempty"`
	Urgency         string `mapstructure:"urgency" json:"urgency,omitempty"`
	ImmediateAction string `mapstructure:"immediate_action" json:"immediate_action,omitempty"`
	// Afternoon updates carry a title and description instead of a message.
	Title       string `mapstructure:"title" json:"title,omitempty"`
	Description string `mapstructure:"description" json:"description,omitempty"`
}

// Text returns the alert message, falling back to title and description.
func (a Alert) Text() string {
	if strings.TrimSpace(a.Message) != "" {
		return a.Message
	}
	parts := make([]string, 0, 2)
	for _, p := range []string{a.Title, a.Description} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ": ")
}

// RiskManagement describes the current portfolio risk posture.
type RiskManagement struct {
	CurrentRisk       string   `mapstructure:"current_risk" json:"current_risk,omitempty"`
	RiskType          string   `mapstructure:"risk_type" json:"risk_type,omitempty"`
	Explanation       string   `mapstructure:"explanation" json:"explanation,omitempty"`
	ImmediateActions  []string `mapstructure:"immediate_actions" json:"immediate_actions,omitempty"`
	StopLossLevels    []string `mapstructure:"stop_loss_levels" json:"stop_loss_levels,omitempty"`
	HedgingStrategies []string `mapstructure:"hedging_strategies" json:"hedging_strategies,omitempty"`
	Recommendations   []string `mapstructure:"recommendations" json:"recommendations,omitempty"`
}
