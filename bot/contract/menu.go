package contract

import "strings"

// Reply keyboard captions. Pressing one sends its caption as plain text.
const (
	ButtonPlate = "🚗 Проверить по гос.номеру"
	ButtonVIN   = "🔍 Проверить по VIN коду"
	ButtonAbout = "ℹ️ О боте"
	ButtonBack  = "⬅️ Назад в меню"
)

// Inline button discriminators carried in Event.Action.
const (
	ActionBack         = "menu:back"
	ActionReportPrefix = "report:"
)

func ReportAction(report ReportKind) string {
	return ActionReportPrefix + string(report)
}

// ParseReportAction extracts the report kind from a report action.
func ParseReportAction(action string) (ReportKind, bool) {
	kind, ok := strings.CutPrefix(action, ActionReportPrefix)
	if !ok {
		return "", false
	}
	return ReportKind(kind), true
}
