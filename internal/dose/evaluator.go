// Package dose implements the warfarin dose-titration rules.
//
// Bands, multipliers and follow-up intervals are clinical policy constants.
// An INR that falls between two listed bands (e.g. 1.95) belongs to the
// band whose lower bound it has passed.
package dose

import (
	"fmt"
	"strings"
	"time"
)

// Band identifies the INR range a value was matched against.
type Band string

const (
	BandBleeding  Band = "bleeding"
	BandBelow15   Band = "inr<1.5"
	Band15To19    Band = "1.5-1.9"
	BandTarget    Band = "2.0-3.0"
	Band31To39    Band = "3.1-3.9"
	Band40To49    Band = "4.0-4.9"
	Band50To89    Band = "5.0-8.9"
	BandAtLeast90 Band = "inr>=9.0"
)

const followUpDateFmt = "02/01/2006"

// Critical and band action texts.
const (
	BleedingMessage = "🚨 มีภาวะเลือดออก\n⛔ หยุดยา Warfarin ทันที และให้ Vitamin K เพื่อแก้ฤทธิ์ยา\nโปรดพบแพทย์หรือไปโรงพยาบาลที่ใกล้ที่สุดทันที"

	actionIncrease1020 = "เพิ่มขนาดยา 10–20% ต่อสัปดาห์"
	actionIncrease510  = "เพิ่มขนาดยา 5–10% ต่อสัปดาห์"
	actionNoChange     = "คงขนาดยาเดิม (INR อยู่ในช่วงเป้าหมาย 2.0–3.0)"
	actionDecrease510  = "ลดขนาดยา 5–10% ต่อสัปดาห์"
	actionHoldDecrease = "งดยา 1 วัน แล้วลดขนาดยา 10% ต่อสัปดาห์"
	actionHoldLowK     = "งดยา 1–2 วัน และพิจารณาให้ Vitamin K ขนาดต่ำ"
	actionHoldHighK    = "หยุดยา Warfarin และพิจารณาให้ Vitamin K ขนาดสูง"
)

// Input is everything the evaluator needs. Numbers are assumed pre-validated.
type Input struct {
	INR         float64
	WeeklyDose  float64
	Bleeding    bool
	Supplement  string
	Interaction string
}

// DoseRange is a new total weekly dose in mg. Low == High for a single value.
type DoseRange struct {
	Low  float64
	High float64
}

func (r DoseRange) single() bool { return r.Low == r.High }

// Recommendation is the result of one evaluation.
type Recommendation struct {
	Band               Band
	Action             string
	NewDose            *DoseRange
	FollowUpDays       int
	FollowUpDate       time.Time
	SupplementWarning  string
	InteractionWarning string
}

// Critical reports whether the bleeding short-circuit fired.
func (r Recommendation) Critical() bool { return r.Band == BandBleeding }

// Text renders the reply: band action, supplement warning, drug warning,
// a blank line, then the follow-up line. The bleeding message stands alone.
func (r Recommendation) Text() string {
	if r.Critical() {
		return BleedingMessage
	}
	var b strings.Builder
	b.WriteString(r.Action)
	if r.NewDose != nil {
		if r.NewDose.single() {
			b.WriteString(fmt.Sprintf("\n💊 ขนาดยาใหม่: %.1f mg/สัปดาห์", r.NewDose.Low))
		} else {
			b.WriteString(fmt.Sprintf("\n💊 ขนาดยาใหม่: %.1f – %.1f mg/สัปดาห์", r.NewDose.Low, r.NewDose.High))
		}
	}
	b.WriteString(r.SupplementWarning)
	b.WriteString(r.InteractionWarning)
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("📅 นัดตรวจ INR ครั้งถัดไปในอีก %d วัน (%s)", r.FollowUpDays, r.FollowUpDate.Format(followUpDateFmt)))
	return b.String()
}

// Evaluator applies the titration table. Now is injectable for tests.
type Evaluator struct {
	catalogs Catalogs
	now      func() time.Time
}

func NewEvaluator(c Catalogs, now func() time.Time) *Evaluator {
	if now == nil {
		now = time.Now
	}
	return &Evaluator{catalogs: c, now: now}
}

// Catalogs returns the catalogs the evaluator matches against.
func (e *Evaluator) Catalogs() Catalogs { return e.catalogs }

// Evaluate computes the recommendation. Bleeding short-circuits everything else.
func (e *Evaluator) Evaluate(in Input) Recommendation {
	if in.Bleeding {
		return Recommendation{Band: BandBleeding, Action: BleedingMessage}
	}
	rec := bandFor(in.INR, in.WeeklyDose)
	rec.FollowUpDays = FollowUpDays(in.INR)
	today := e.now()
	rec.FollowUpDate = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location()).AddDate(0, 0, rec.FollowUpDays)
	rec.SupplementWarning = supplementWarning(e.catalogs.Supplements, in.Supplement)
	rec.InteractionWarning = interactionWarning(e.catalogs.Interactions, in.Interaction)
	return rec
}

func bandFor(inr, weekly float64) Recommendation {
	switch {
	case inr >= 9.0:
		return Recommendation{Band: BandAtLeast90, Action: actionHoldHighK}
	case inr >= 5.0:
		return Recommendation{Band: Band50To89, Action: actionHoldLowK}
	case inr >= 4.0:
		return Recommendation{Band: Band40To49, Action: actionHoldDecrease, NewDose: &DoseRange{Low: weekly * 0.90, High: weekly * 0.90}}
	case inr >= 3.1:
		return Recommendation{Band: Band31To39, Action: actionDecrease510, NewDose: &DoseRange{Low: weekly * 0.90, High: weekly * 0.95}}
	case inr >= 2.0:
		return Recommendation{Band: BandTarget, Action: actionNoChange}
	case inr >= 1.5:
		return Recommendation{Band: Band15To19, Action: actionIncrease510, NewDose: &DoseRange{Low: weekly * 1.05, High: weekly * 1.10}}
	default:
		return Recommendation{Band: BandBelow15, Action: actionIncrease1020, NewDose: &DoseRange{Low: weekly * 1.10, High: weekly * 1.20}}
	}
}

// FollowUpDays is the interval until the next INR check. Its boundaries are
// independent of the dose bands: <1.5→7, 1.5–1.9→14, 2.0–3.0→56, 3.1–3.9→14,
// 3.91–6.0→7, 6.01–8.9→5, >9.0→2.
func FollowUpDays(inr float64) int {
	switch {
	case inr > 9.0:
		return 2
	case inr >= 6.01:
		return 5
	case inr >= 3.91:
		return 7
	case inr >= 3.1:
		return 14
	case inr >= 2.0:
		return 56
	case inr >= 1.5:
		return 14
	default:
		return 7
	}
}

func supplementWarning(c Catalog, text string) string {
	if IsNone(text) {
		return ""
	}
	if found := c.Match(text); len(found) > 0 {
		return "\n⚠️ พบสมุนไพร/อาหารเสริมที่อาจมีผลต่อค่า INR: " + strings.Join(found, ", ")
	}
	return "\n⚠️ มีการใช้สมุนไพร/อาหารเสริมที่ไม่อยู่ในฐานข้อมูล โปรดแจ้งแพทย์หรือเภสัชกร"
}

func interactionWarning(c Catalog, text string) string {
	if IsNone(text) {
		return ""
	}
	if found := c.Match(text); len(found) > 0 {
		return "\n⚠️ พบยาที่มีปฏิกิริยากับ Warfarin: " + strings.Join(found, ", ")
	}
	return "\n⚠️ มีการใช้ยาอื่นที่ไม่อยู่ในฐานข้อมูล โปรดปรึกษาแพทย์หรือเภสัชกร"
}
