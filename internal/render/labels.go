package render

// User-facing text. The dashboard is Hebrew and right-to-left.
const (
	AppName       = "Investment Assistant"
	PageTitle     = AppName + " - תובנות השקעה"
	StatusLive    = "✅ עדכונים בזמן אמת מופעלים - תובנות חדשות יופיעו אוטומטית"
	LoadingText   = "טוען תובנות..."
	ErrorPrefix   = "שגיאה: "
	RefreshHint   = "נסה לרענן את הדף או בדוק את החיבור שלך"
	EmptyText     = "אין תובנות זמינות עדיין"
	EmptyHint     = "תובנות יופיעו כאן כאשר הן ייווצרו"
	NewestBadge   = "חדש"
	statsTemplate = "מציג %d תובנות (החדשות ביותר קודם)"

	NotDefined    = "לא מוגדר"
	NoSummary     = "אין סיכום"
	NoExplanation = "אין הסבר"
)

// Section headers.
const (
	SectionMarketOverview  = "📊 סקירת שוק"
	SectionRecommendations = "💰 המלצות השקעה"
	SectionSectors         = "🏭 ניתוח סקטורים"
	SectionAlerts          = "⚠️ התראות"
	SectionRisk            = "🛡️ ניהול סיכונים"
)

// Field captions.
const (
	labelSentiment           = "סנטימנט"
	labelKeyEvents           = "🎯 אירועים חשובים"
	labelImportance          = "חשיבות"
	labelImpact              = "השפעה"
	labelTrendingSectors     = "🔥 סקטורים חמים"
	labelActionItems         = "✅ פעולות נדרשות"
	labelChangesSinceMorning = "🔄 שינויים מאז הבוקר"
	labelPrice               = "מחיר"
	labelConfidence          = "ביטחון"
	labelTimeframe           = "טווח זמן"
	labelAmount              = "סכום השקעה"
	labelPortfolioPct        = "אחוז תיק"
	labelStopLoss            = "סטופ לוס"
	labelReason              = "📋 סיבה להמלצה"
	labelCatalyst            = "🚀 קטליזטור"
	labelRisks               = "⚠️ סיכונים"
	labelWhyDespiteRisks     = "✅ למה בכל זאת"
	labelStatus              = "סטטוס"
	labelActionRequired      = "🎯 פעולה נדרשת"
	labelTopPicks            = "⭐ מומלצות"
	labelSectorReason        = "💡 סיבה"
	labelPortfolioImpact     = "📊 השפעה על התיק"
	labelAlertMessage        = "📢 התראה"
	labelImmediateAction     = "⚡ פעולה מיידית"
	labelRiskLevel           = "📊 רמת סיכון נוכחית"
	labelRiskType            = "🎯 סוג סיכון"
	labelExplanation         = "📝 הסבר"
	labelImmediateList       = "⚡ פעולות מיידיות"
	labelStopLossLevels      = "🛑 רמות סטופ לוס"
	labelHedging             = "🛡️ אסטרטגיות הגנה"
	labelRiskRecommendations = "💡 המלצות ניהול סיכונים"
	labelRiskChip            = "סיכון "
	labelCurrency            = "מטבע"
	labelSource              = "מקור"
	labelDate                = "תאריך"
)

// Placeholders of empty lists inside a rendered section.
const (
	noTrendingSectors = "אין סקטורים חמים"
	noTopPicks        = "אין המלצות"
	noImmediate       = "אין פעולות מיידיות"
	noStopLossLevels  = "אין רמות סטופ לוס"
	noHedging         = "אין אסטרטגיות הגנה"
)
