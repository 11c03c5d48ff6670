package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"insights-dashboard/internal/dashboard"
	"insights-dashboard/internal/models"
)

// Options configures a Renderer.
type Options struct {
	Locale   string
	Location *time.Location
}

// Renderer turns dashboard state into a node tree. It holds no mutable state
// and is safe for concurrent use.
type Renderer struct {
	format Formatter
}

// NewRenderer creates a renderer.
func NewRenderer(opts Options) *Renderer {
	return &Renderer{format: NewFormatter(opts.Locale, opts.Location)}
}

// Formatter returns the timestamp formatter used by the renderer.
func (r *Renderer) Formatter() Formatter {
	return r.format
}

// Render projects state into a page. The result depends only on state.
func (r *Renderer) Render(state dashboard.State) *Node {
	page := &Node{Kind: KindPage, Label: PageTitle}

	switch state.Phase {
	case dashboard.PhaseLoading:
		return page.add(&Node{Kind: KindLoading, Text: LoadingText})

	case dashboard.PhaseError:
		errNode := &Node{Kind: KindError, Tone: ToneDanger, Text: ErrorPrefix + state.ErrorMessage()}
		errNode.add(&Node{Kind: KindHint, Text: RefreshHint})
		return page.add(errNode)
	}

	page.add(r.header())

	if len(state.Records) == 0 {
		empty := &Node{Kind: KindEmpty, Text: EmptyText}
		empty.add(&Node{Kind: KindHint, Text: EmptyHint})
		return page.add(empty)
	}

	page.add(&Node{Kind: KindStats, Text: fmt.Sprintf(statsTemplate, len(state.Records))})
	page.add(r.Feed(state.Records))
	return page
}

// Feed renders the list of insight cards on its own, as sent to live viewers.
func (r *Renderer) Feed(records []models.InsightRecord) *Node {
	feed := &Node{Kind: KindFeed}
	for i, rec := range records {
		feed.add(r.Card(rec, i))
	}
	return feed
}

func (r *Renderer) header() *Node {
	h := &Node{Kind: KindHeader, Text: PageTitle}
	return h.add(&Node{Kind: KindStatus, Tone: ToneSuccess, Text: StatusLive})
}

// Card renders one insight at its position in the feed.
func (r *Renderer) Card(rec models.InsightRecord, index int) *Node {
	card := &Node{Kind: KindCard, Key: rec.Key(index)}
	if index == 0 {
		card.add(&Node{Kind: KindBadge, Tone: ToneSuccess, Text: NewestBadge})
	}

	meta := &Node{Kind: KindMeta, Text: r.format.Timestamp(rec.Timestamp)}
	meta.add(
		optionalField("currency", labelCurrency, rec.Meta.Currency),
		optionalField("source", labelSource, rec.Meta.Source),
	)
	if rec.Meta.Date != "" {
		meta.add(&Node{Kind: KindField, Key: "date", Label: labelDate, Text: r.format.Date(rec.Meta.Date)})
	}
	card.add(meta)

	if rec.Meta.Title != "" {
		card.add(&Node{Kind: KindTitle, Text: rec.Meta.Title})
	}

	switch body := rec.Body.(type) {
	case models.LegacyBody:
		card.add(&Node{Kind: KindPre, Text: body.Message})
	case models.StructuredBody:
		card.add(
			marketOverview(body.MarketOverview),
			recommendations(body.Recommendations),
			sectors(body.SectorAnalysis),
			alerts(body.Alerts),
			riskManagement(body.RiskManagement),
		)
	}
	return card
}

func marketOverview(mo *models.MarketOverview) *Node {
	if mo == nil || overviewIsZero(mo) {
		return nil
	}
	tone := ToneOf(CategorySentiment, mo.Sentiment)
	sec := &Node{Kind: KindSection, Key: "market_overview", Label: SectionMarketOverview, Tone: tone}
	sec.add(
		&Node{Kind: KindChip, Key: "sentiment", Label: labelSentiment, Text: orDefault(mo.Sentiment, NotDefined), Tone: tone},
		&Node{Kind: KindText, Key: "summary", Text: orDefault(mo.Summary, NoSummary)},
		optionalField("changes_since_morning", labelChangesSinceMorning, mo.ChangesSinceMorning),
	)

	if len(mo.KeyEvents) > 0 {
		events := &Node{Kind: KindList, Key: "key_events", Label: labelKeyEvents}
		for i, ev := range mo.KeyEvents {
			item := &Node{Kind: KindItem, Key: "event-" + strconv.Itoa(i), Text: orDefault(ev.Event, NotDefined)}
			item.add(
				field("importance", labelImportance, ev.Importance),
				field("impact", labelImpact, ev.Impact),
			)
			events.add(item)
		}
		sec.add(events)
	}

	sec.add(list("trending_sectors", labelTrendingSectors, mo.TrendingSectors, noTrendingSectors))

	if len(mo.ActionItems) > 0 {
		sec.add(list("action_items", labelActionItems, mo.ActionItems, ""))
	}
	return sec
}

func recommendations(recs []models.Recommendation) *Node {
	if len(recs) == 0 {
		return nil
	}
	sec := &Node{Kind: KindSection, Key: "recommendations", Label: SectionRecommendations}
	for i, rec := range recs {
		tone := ToneOf(CategoryAction, rec.Action)
		item := &Node{Kind: KindItem, Key: "rec-" + strconv.Itoa(i), Text: orDefault(rec.Symbol, NotDefined), Tone: tone}
		item.add(
			&Node{Kind: KindChip, Key: "action", Text: orDefault(rec.Action, NotDefined), Tone: tone},
			&Node{Kind: KindField, Key: "price", Label: labelPrice,
				Text: orDefault(rec.CurrentPrice, NotDefined) + " → " + orDefault(rec.TargetPrice, NotDefined)},
			field("timeframe", labelTimeframe, rec.Timeframe),
			field("confidence", labelConfidence, rec.Confidence),
			field("amount_ils", labelAmount, rec.AmountILS),
			field("percentage_of_portfolio", labelPortfolioPct, rec.PercentageOfPortfolio),
			field("stop_loss", labelStopLoss, rec.StopLoss),
			field("reason", labelReason, rec.Reason),
			field("catalyst", labelCatalyst, rec.Catalyst),
			field("risks", labelRisks, rec.Risks),
			field("why_despite_risks", labelWhyDespiteRisks, rec.WhyDespiteRisks),
		)
		sec.add(item)
	}
	return sec
}

func sectors(items []models.SectorAnalysis) *Node {
	if len(items) == 0 {
		return nil
	}
	sec := &Node{Kind: KindSection, Key: "sector_analysis", Label: SectionSectors}
	for i, s := range items {
		tone := ToneOf(CategorySentiment, s.Status)
		item := &Node{
			Kind: KindItem,
			Key:  "sector-" + strconv.Itoa(i),
			Icon: "🏭",
			Text: orDefault(s.Sector, NotDefined) + " - " + orDefault(s.Recommendation, NotDefined),
			Tone: tone,
		}
		item.add(
			&Node{Kind: KindChip, Key: "status", Label: labelStatus, Text: orDefault(s.Status, NotDefined), Tone: tone},
			field("action_required", labelActionRequired, s.ActionRequired),
			chips("top_picks", labelTopPicks, s.TopPicks, noTopPicks),
			field("reason", labelSectorReason, s.Reason),
			field("portfolio_impact", labelPortfolioImpact, s.PortfolioImpact),
			field("risks", labelRisks, s.Risks),
			field("why_despite_risks", labelWhyDespiteRisks, s.WhyDespiteRisks),
		)
		sec.add(item)
	}
	return sec
}

func alerts(items []models.Alert) *Node {
	if len(items) == 0 {
		return nil
	}
	sec := &Node{Kind: KindSection, Key: "alerts", Label: SectionAlerts}
	for i, a := range items {
		tone := ToneOf(CategoryLevel, a.Priority)
		typeIcon := Lookup(CategoryAlertType, a.Type).Icon
		urgencyIcon := Lookup(CategoryUrgency, a.Urgency).Icon
		item := &Node{
			Kind: KindItem,
			Key:  "alert-" + strconv.Itoa(i),
			Icon: typeIcon,
			Text: strings.Join([]string{
				orDefault(a.Type, NotDefined),
				orDefault(a.Symbol, NotDefined),
				urgencyIcon + " " + orDefault(a.Urgency, NotDefined),
			}, " - "),
			Tone: tone,
		}
		item.add(
			&Node{Kind: KindChip, Key: "priority", Text: orDefault(a.Priority, NotDefined), Tone: tone},
			field("message", labelAlertMessage, a.Text()),
			field("action_required", labelActionRequired, a.ActionRequired),
			field("immediate_action", labelImmediateAction, a.ImmediateAction),
		)
		sec.add(item)
	}
	return sec
}

func riskManagement(rm *models.RiskManagement) *Node {
	if rm == nil || riskIsZero(rm) {
		return nil
	}
	tone := ToneOf(CategoryLevel, rm.CurrentRisk)
	sec := &Node{Kind: KindSection, Key: "risk_management", Label: SectionRisk, Tone: tone}
	sec.add(
		&Node{Kind: KindChip, Key: "risk_chip", Text: labelRiskChip + orDefault(rm.CurrentRisk, NotDefined), Tone: tone},
		field("current_risk", labelRiskLevel, rm.CurrentRisk),
		field("risk_type", labelRiskType, rm.RiskType),
		&Node{Kind: KindField, Key: "explanation", Label: labelExplanation, Text: orDefault(rm.Explanation, NoExplanation)},
		list("immediate_actions", labelImmediateList, rm.ImmediateActions, noImmediate),
		list("stop_loss_levels", labelStopLossLevels, rm.StopLossLevels, noStopLossLevels),
		list("hedging_strategies", labelHedging, rm.HedgingStrategies, noHedging),
	)
	if len(rm.Recommendations) > 0 {
		sec.add(list("risk_recommendations", labelRiskRecommendations, rm.Recommendations, ""))
	}
	return sec
}

// field renders a scalar inside a section, with the placeholder when missing.
func field(key, label, value string) *Node {
	return &Node{Kind: KindField, Key: key, Label: label, Text: orDefault(value, NotDefined)}
}

// optionalField renders a scalar only when present.
func optionalField(key, label, value string) *Node {
	if value == "" {
		return nil
	}
	return &Node{Kind: KindField, Key: key, Label: label, Text: value}
}

func list(key, label string, values []string, placeholder string) *Node {
	l := &Node{Kind: KindList, Key: key, Label: label}
	for i, v := range values {
		l.add(&Node{Kind: KindItem, Key: key + "-" + strconv.Itoa(i), Text: v})
	}
	if len(values) == 0 && placeholder != "" {
		l.add(&Node{Kind: KindHint, Text: placeholder})
	}
	return l
}

func chips(key, label string, values []string, placeholder string) *Node {
	l := &Node{Kind: KindList, Key: key, Label: label}
	for i, v := range values {
		l.add(&Node{Kind: KindChip, Key: key + "-" + strconv.Itoa(i), Text: v})
	}
	if len(values) == 0 {
		l.add(&Node{Kind: KindHint, Text: placeholder})
	}
	return l
}

func orDefault(value, placeholder string) string {
	if strings.TrimSpace(value) == "" {
		return placeholder
	}
	return value
}

func overviewIsZero(mo *models.MarketOverview) bool {
	return mo.Summary == "" && mo.Sentiment == "" &&
		len(mo.KeyEvents) == 0 && len(mo.TrendingSectors) == 0 && len(mo.ActionItems) == 0 &&
		mo.ChangesSinceMorning == ""
}

func riskIsZero(rm *models.RiskManagement) bool {
	return rm.CurrentRisk == "" && rm.RiskType == "" && rm.Explanation == "" &&
		len(rm.ImmediateActions) == 0 && len(rm.StopLossLevels) == 0 && len(rm.HedgingStrategies) == 0 &&
		len(rm.Recommendations) == 0
}
