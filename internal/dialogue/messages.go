package dialogue

import "warfarin-bot/internal/dose"

// Trigger phrases. They match the whole trimmed message.
const (
	CmdLogINR      = "บันทึกค่า INR"
	CmdStart       = "เริ่มต้นใช้งาน"
	CmdTitration   = "ปรับขนาดยา"
	CmdEditProfile = "แก้ไขข้อมูลส่วนตัว"
	CmdChart       = "ดูกราฟ INR"
	CmdTodayDose   = "วันนี้ฉันกินยาอย่างไร"
	CmdSymptoms    = "ประเมินอาการไม่พึงประสงค์"
	CmdCancel      = "ยกเลิก"
)

// Menu is offered as quick replies whenever the user is outside a flow.
var Menu = []string{CmdLogINR, CmdTitration, CmdTodayDose, CmdChart, CmdSymptoms, CmdEditProfile}

// Selection labels used by the titration choice steps.
const (
	ChoiceNone  = dose.NoneChoice
	ChoiceOther = "ใช้หลายชนิด/อื่นๆ"
)

const (
	msgHelp = "❓ พิมพ์ 'บันทึกค่า INR' เพื่อเริ่มบันทึกข้อมูล INR\nหรือ 'ปรับขนาดยา' เพื่อประเมินการปรับขนาดยา Warfarin"

	msgWelcomeBack  = "🙋‍♂️ ยินดีต้อนรับกลับมาคุณ %s"
	msgAskName      = "👤 กรุณาพิมพ์ชื่อ-นามสกุลของคุณ"
	msgAskBirthdate = "🎂 กรุณาพิมพ์วันเกิดของคุณ (เช่น 01/01/2000)"
	msgAskINR       = "🧪 กรุณาพิมพ์ค่า INR เช่น 2.7"
	msgBadINR       = "❌ กรุณาพิมพ์ INR เป็นตัวเลข เช่น 2.7"
	msgAskBleeding  = "🩸 มีภาวะเลือดออกหรือไม่? (yes/no)"
	msgBadBleeding  = "❌ กรุณาพิมพ์ yes หรือ no เท่านั้น"
	msgAskSupp      = "🌿 มีการใช้สมุนไพร/อาหารเสริมหรือไม่? (ถ้าไม่มี พิมพ์ 'ไม่มี')"
	msgAskDoses     = "💊 กรุณาระบุขนาดยา Warfarin รายวันใน 1 สัปดาห์ จันทร์,อังคาร,พุธ,...,อาทิตย์ (เช่น 3,3,3,3,3,1.5,0)"
	msgBadDoses     = "❌ กรุณากรอกขนาดยา 7 วัน เช่น 3,3,3,3,3,1.5,0"
	msgEmptyText    = "❌ กรุณาพิมพ์ข้อความ"

	msgAskTWD            = "💊 กรุณาพิมพ์ขนาดยา Warfarin รวมต่อสัปดาห์ (mg) เช่น 21"
	msgBadTWD            = "❌ กรุณาพิมพ์ขนาดยารวมต่อสัปดาห์เป็นตัวเลขที่มากกว่า 0 เช่น 21"
	msgChooseSupplement  = "🌿 มีการใช้สมุนไพร/อาหารเสริมชนิดใดหรือไม่?"
	msgAskCustomSupp     = "🌿 กรุณาพิมพ์ชื่อสมุนไพร/อาหารเสริมที่ใช้ทั้งหมด"
	msgChooseInteraction = "💊 มีการใช้ยาอื่นต่อไปนี้ร่วมด้วยหรือไม่?"
	msgAskCustomDrug     = "💊 กรุณาพิมพ์ชื่อยาอื่นที่ใช้ร่วมทั้งหมด"
	msgBadChoice         = "❌ กรุณาเลือกจากตัวเลือกที่กำหนด"

	msgEditName       = "👤 กรุณาพิมพ์ชื่อ-นามสกุลใหม่ (พิมพ์ '-' หากไม่ต้องการเปลี่ยน)"
	msgEditBirthdate  = "🎂 กรุณาพิมพ์วันเกิดใหม่ เช่น 01/01/2000 (พิมพ์ '-' หากไม่ต้องการเปลี่ยน)"
	msgProfileUpdated = "✅ อัปเดตข้อมูลส่วนตัวเรียบร้อยแล้ว"
	msgProfileSame    = "ℹ️ ไม่มีการเปลี่ยนแปลงข้อมูลส่วนตัว"

	msgCancelled = "❎ ยกเลิกรายการเรียบร้อยแล้ว"
	msgNoSession = "ℹ️ ไม่มีรายการที่กำลังดำเนินการอยู่"

	msgNoHistory    = "❌ ไม่พบข้อมูล INR ย้อนหลังของคุณ"
	msgHistoryError = "⚠️ ไม่สามารถดึงข้อมูล INR ได้ในขณะนี้ กรุณาลองใหม่ภายหลัง"

	msgNoDoseToday = "📅 วันนี้%s คุณไม่มียา Warfarin ครับ"
	msgDoseToday   = "📅 วันนี้%s\n💊 คุณต้องกินยา Warfarin ดังนี้:\n%s"
	msgDoseMissing = "❌ ไม่พบข้อมูลยาวันนี้ในระบบ"
	msgDoseError   = "⚠️ เกิดข้อผิดพลาดในการดึงข้อมูลยา กรุณาลองใหม่ภายหลัง"

	msgSaveFailed = "⚠️ ระบบขัดข้อง ไม่สามารถบันทึกข้อมูลได้ กรุณาเริ่มใหม่อีกครั้ง"
	msgInternal   = "⚠️ เกิดข้อผิดพลาด กรุณาลองใหม่อีกครั้ง"

	msgBleedingHeader = "🩸 อาการเลือดออกผิดปกติ\nคุณมีอาการใดต่อไปนี้หรือไม่?"
	msgClotHeader     = "🧠 อาการลิ่มเลือดอุดตัน\nคุณมีอาการใดต่อไปนี้หรือไม่?"
	msgBleedingFound  = "⚠️ ตรวจพบอาการเลือดออกผิดปกติ\n⛔ โปรดหยุดยา Warfarin และพบแพทย์ทันที"
	msgClotFound      = "⚠️ ตรวจพบอาการลิ่มเลือดอุดตัน\n⛔ รีบไปโรงพยาบาลที่ใกล้ที่สุด ภายใน 3 ชั่วโมง"
	msgNoSymptoms     = "✅ ขอบคุณสำหรับการประเมิน ไม่มีอาการผิดปกติในขณะนี้"
)

// SymptomNone is the "no symptoms" answer shared by both symptom sets.
const SymptomNone = "ไม่มีอาการ"

var (
	BleedingSymptoms = []string{"จุดจ้ำเลือด", "เลือดไหลไม่หยุด", "ไอ/อาเจียนเป็นเลือด", "อุจจาระสีดำ", "ปัสสาวะมีสีสนิม", "ประจำเดือนมามากผิดปกติ"}
	ClotSymptoms     = []string{"เจ็บหน้าอก หายใจลำบาก", "ปวด/เวียนศีรษะ", "แขนขาบวม", "อ่อนแรงครึ่งซีก แขนขาชา", "พูดไม่ชัด"}
)

var yesNo = []string{"yes", "no"}
