// Package format renders provider results as chat text.
//
// Every block is built independently from its own result, so one provider's
// failure never changes another provider's text. Absent values are rendered
// as Placeholder; labels are never omitted.
package format

import (
	"fmt"
	"sort"
	"strings"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
)

const Placeholder = "Н/Д"

const blockSeparator = "\n\n"

// Consolidate renders one block per result in a stable order: registration
// reports first, then insurance, then inspection. The input order does not
// matter.
func Consolidate(results []contractx.ProviderResult) string {
	ordered := make([]contractx.ProviderResult, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		return rank(ordered[i]) < rank(ordered[j])
	})

	blocks := make([]string, 0, len(ordered))
	for _, r := range ordered {
		blocks = append(blocks, Block(r))
	}
	return strings.Join(blocks, blockSeparator)
}

// Block renders a single provider result.
func Block(r contractx.ProviderResult) string {
	if !r.OK() {
		return fmt.Sprintf("❌ %s: %s", Title(r.Provider, r.Report), failureText(r))
	}

	var b builder
	switch r.Provider {
	case contractx.ProviderRegistration:
		switch reportOf(r) {
		case contractx.ReportAccident:
			accidents(&b, r.Payload)
		case contractx.ReportWanted:
			wanted(&b, r.Payload)
		case contractx.ReportRestriction:
			restrictions(&b, r.Payload)
		default:
			history(&b, r.Payload)
		}
	case contractx.ProviderInsurance:
		insurance(&b, r.Payload)
	case contractx.ProviderInspection:
		inspection(&b, r.Payload)
	default:
		b.header(fmt.Sprintf("✅ %s:", Title(r.Provider, r.Report)))
	}
	return b.String()
}

// Title is the user-facing provider name used in failure lines.
func Title(p contractx.ProviderID, report contractx.ReportKind) string {
	switch p {
	case contractx.ProviderRegistration:
		switch report {
		case contractx.ReportAccident:
			return "ГИБДД (ДТП)"
		case contractx.ReportWanted:
			return "ГИБДД (розыск)"
		case contractx.ReportRestriction:
			return "ГИБДД (ограничения)"
		default:
			return "ГИБДД"
		}
	case contractx.ProviderInsurance:
		return "ОСАГО"
	case contractx.ProviderInspection:
		return "Техосмотр"
	default:
		if p == "" {
			return "Источник"
		}
		return string(p)
	}
}

// ReportLabel is the button caption for a registration report kind.
func ReportLabel(report contractx.ReportKind) string {
	switch report {
	case contractx.ReportHistory:
		return "📋 История регистрации"
	case contractx.ReportAccident:
		return "💥 ДТП"
	case contractx.ReportWanted:
		return "🚨 Розыск"
	case contractx.ReportRestriction:
		return "⛔ Ограничения"
	default:
		return string(report)
	}
}

func failureText(r contractx.ProviderResult) string {
	switch r.Outcome {
	case contractx.OutcomeTimeout:
		return "Таймаут запроса"
	case contractx.OutcomeTransportError:
		return "Ошибка соединения"
	case contractx.OutcomeMalformed:
		return "Неверный формат ответа от сервера"
	case contractx.OutcomeNotFound:
		return notFoundText(r.Provider, reportOf(r))
	case contractx.OutcomeUpstreamError:
		if msg := strings.TrimSpace(r.Message); msg != "" {
			return msg
		}
		return "Ошибка запроса"
	default:
		return "Ошибка запроса"
	}
}

func notFoundText(p contractx.ProviderID, report contractx.ReportKind) string {
	switch p {
	case contractx.ProviderRegistration:
		switch report {
		case contractx.ReportAccident:
			return "ДТП не найдены"
		case contractx.ReportWanted:
			return "В розыске не числится"
		case contractx.ReportRestriction:
			return "Ограничения не найдены"
		default:
			return "Сведения о регистрации не найдены"
		}
	case contractx.ProviderInsurance:
		return "Полисы не найдены"
	case contractx.ProviderInspection:
		return "Действующих диагностических карт не найдено"
	default:
		return "Данные не найдены"
	}
}

func reportOf(r contractx.ProviderResult) contractx.ReportKind {
	if r.Provider == contractx.ProviderRegistration && r.Report == "" {
		return contractx.ReportHistory
	}
	return r.Report
}

func rank(r contractx.ProviderResult) int {
	switch r.Provider {
	case contractx.ProviderRegistration:
		report := reportOf(r)
		for i, k := range contractx.ReportKinds {
			if k == report {
				return i
			}
		}
		return len(contractx.ReportKinds)
	case contractx.ProviderInsurance:
		return len(contractx.ReportKinds) + 1
	case contractx.ProviderInspection:
		return len(contractx.ReportKinds) + 2
	default:
		return len(contractx.ReportKinds) + 3
	}
}

/* ------------------------------ Renderers ------------------------------ */

func history(b *builder, p contractx.Payload) {
	h, _ := p.(*contractx.VehicleHistory)
	if h == nil {
		h = &contractx.VehicleHistory{}
	}

	b.header("✅ Данные ГИБДД:")
	b.field("Марка", h.Model)
	b.field("Год", h.Year)
	b.field("Цвет", h.Color)
	b.field("Объем", withUnit(h.EngineVolume, "см³"))
	b.field("Мощность", withUnit(h.PowerHP, "л.с."))
	b.field("VIN", h.VIN)
	b.field("Категория", h.Category)

	owners := ""
	if len(h.Owners) > 0 {
		owners = fmt.Sprint(len(h.Owners))
	}
	b.field("Владельцев", owners)
	for _, o := range h.Owners {
		to := o.To
		if strings.TrimSpace(to) == "" {
			to = "н.в."
		}
		b.line(fmt.Sprintf("   ◦ %s: %s - %s", value(ownerType(o.OwnerType)), value(o.From), to))
	}
}

func accidents(b *builder, p contractx.Payload) {
	r, _ := p.(*contractx.AccidentReport)
	if r == nil {
		r = &contractx.AccidentReport{}
	}

	b.header(fmt.Sprintf("✅ ДТП: найдено %d", len(r.Accidents)))
	for i, a := range r.Accidents {
		b.item(i)
		b.field("Дата", a.Date)
		b.field("Тип", a.Type)
		b.field("Регион", a.Region)
		b.field("Повреждения", a.Damage)
	}
}

func wanted(b *builder, p contractx.Payload) {
	r, _ := p.(*contractx.WantedReport)
	if r == nil {
		r = &contractx.WantedReport{}
	}

	b.header(fmt.Sprintf("🚨 Розыск: записей %d", len(r.Records)))
	for i, w := range r.Records {
		b.item(i)
		b.field("Дата", w.Date)
		b.field("Регион", w.Region)
		b.field("Модель", w.Model)
	}
}

func restrictions(b *builder, p contractx.Payload) {
	r, _ := p.(*contractx.RestrictionReport)
	if r == nil {
		r = &contractx.RestrictionReport{}
	}

	b.header(fmt.Sprintf("⛔ Ограничения: найдено %d", len(r.Records)))
	for i, x := range r.Records {
		b.item(i)
		b.field("Дата", x.Date)
		b.field("Вид", x.Type)
		b.field("Инициатор", x.Initiator)
		b.field("Регион", x.Region)
	}
}

func insurance(b *builder, p contractx.Payload) {
	pol, _ := p.(*contractx.InsurancePolicy)
	if pol == nil {
		pol = &contractx.InsurancePolicy{}
	}

	b.header("✅ Данные ОСАГО:")
	b.field("Компания", pol.Company)
	b.field("Серия", pol.Serial)
	b.field("Номер", pol.Number)
	b.field("Начало", pol.StartDate)
	b.field("Окончание", pol.EndDate)
	b.field("Статус", pol.Status)
}

func inspection(b *builder, p contractx.Payload) {
	c, _ := p.(*contractx.InspectionCard)
	if c == nil {
		c = &contractx.InspectionCard{}
	}

	b.header("✅ Данные техосмотра:")
	b.field("Карта", c.Number)
	b.field("Начало", c.StartDate)
	b.field("Окончание", c.EndDate)
	b.field("Пробег", withUnit(c.Mileage, "км"))
}

func ownerType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "natural":
		return "Физ. лицо"
	case "legal":
		return "Юр. лицо"
	default:
		return t
	}
}

func value(v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return Placeholder
	}
	return v
}

func withUnit(v, unit string) string {
	if v = strings.TrimSpace(v); v == "" {
		return ""
	}
	return v + " " + unit
}

type builder struct {
	strings.Builder
}

func (b *builder) header(s string) {
	b.WriteString(s)
}

func (b *builder) line(s string) {
	if b.Len() > 0 {
		b.WriteByte('\n')
	}
	b.WriteString(s)
}

func (b *builder) field(label, v string) {
	b.line(fmt.Sprintf("• %s: %s", label, value(v)))
}

func (b *builder) item(i int) {
	b.line(fmt.Sprintf("%d.", i+1))
}
