package security

import "regexp"

// Регулярные выражения для определения типа логина (код/email/телефон/паспорт).
var (
	emailRe  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRe  = regexp.MustCompile(`^1[3-9]\d{9}$`)
	idCardRe = regexp.MustCompile(`^(\d{6})(\d{4})(\d{2})(\d{2})(\d{3})([0-9Xx])$`)
)

// IsEmail сообщает, похожа ли строка на email-адрес.
func IsEmail(s string) bool { return s != "" && emailRe.MatchString(s) }

// IsChinesePhone сообщает, похожа ли строка на мобильный номер КНР.
func IsChinesePhone(s string) bool { return s != "" && phoneRe.MatchString(s) }

// IsIdCard проверяет структуру номера удостоверения личности (18 знаков).
func IsIdCard(s string) bool { return s != "" && idCardRe.MatchString(s) }

// IsIdCardWithCheck дополнительно сверяет контрольный разряд номера.
func IsIdCardWithCheck(s string) bool {
	if !IsIdCard(s) {
		return false
	}

	weights := [...]int{7, 9, 10, 5, 8, 4, 2, 1, 6, 3, 7, 9, 10, 5, 8, 4, 2, 1}
	checkDigits := [...]byte{'1', '0', 'X', '9', '8', '7', '6', '5', '4', '3', '2'}

	sum := 0
	for i := 0; i < 17; i++ {
		sum += int(s[i]-'0') * weights[i]
	}

	last := s[17]
	if last == 'x' {
		last = 'X'
	}

	return last == checkDigits[sum%11]
}
