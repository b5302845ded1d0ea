// redact содержит помощники для безопасного логирования чувствительных
// полей: полные значения в логи не пишутся никогда.
package redact

import "strings"

// Email маскирует локальную часть адреса, оставляя первые два символа.
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := parts[0], parts[1]
	if len(local) > 2 {
		local = local[:2] + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Phone оставляет только последние 4 цифры номера.
func Phone(s string) string {
	if len(s) <= 4 {
		return "***"
	}

	return "***" + s[len(s)-4:]
}

func Token() string    { return "[REDACTED_TOKEN]" }
func Password() string { return "[REDACTED_PASSWORD]" }
