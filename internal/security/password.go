// security реализует работу с паролями: версионированное PBKDF2-хэширование,
// проверку пароля и генерацию случайных паролей.
//
// Формат хранимого хэша (ровно 5 сегментов, разделитель '|'):
//
//	v2|SHA512|210000|<base64 соль>|<base64 хэш>
//
// Формат самоописывающийся: соль и число итераций читаются из строки,
// поэтому смена констант не ломает уже сохранённые записи.
package security

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Параметры текущей схемы. Не настраиваются снаружи.
const (
	hashVersion   = "v2"
	hashAlgorithm = "SHA512"
	saltSize      = 32
	hashSize      = 32
	iterations    = 210_000

	hashSegments = 5
)

// ErrPasswordLength — запрошенная длина пароля меньше минимально допустимой.
var ErrPasswordLength = errors.New("password length must be at least 12")

// HashPassword хэширует пароль по текущей схеме (PBKDF2-SHA512, случайная соль).
func HashPassword(password string) (string, error) {
	const op = "security.HashPassword"

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	hash := pbkdf2.Key([]byte(password), salt, iterations, hashSize, sha512.New)

	return strings.Join([]string{
		hashVersion,
		hashAlgorithm,
		strconv.Itoa(iterations),
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(hash),
	}, "|"), nil
}

// VerifyPassword сравнивает пароль с сохранённым хэшем.
//
// Политика fail-closed: любая проблема с форматом записи (число сегментов,
// версия, алгоритм, base64, итерации) даёт false, а не ошибку — результат
// неотличим от неверного пароля. Общих блокировок нет: функция чистая и
// безопасна для параллельных вызовов.
func VerifyPassword(password, storedHash string) bool {
	segments := strings.Split(storedHash, "|")
	if len(segments) != hashSegments {
		return false
	}

	if segments[0] != hashVersion || segments[1] != hashAlgorithm {
		return false
	}

	iter, err := strconv.Atoi(segments[2])
	if err != nil || iter <= 0 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(segments[3])
	if err != nil {
		return false
	}

	original, err := base64.StdEncoding.DecodeString(segments[4])
	if err != nil || len(original) == 0 {
		return false
	}

	derived := pbkdf2.Key([]byte(password), salt, iter, len(original), sha512.New)

	return subtle.ConstantTimeCompare(derived, original) == 1
}

// Алфавиты без визуально похожих символов (i/l/1, o/0 и т.п.).
const (
	lowerChars  = "abcdefghjkmnpqrstuvwxyz"
	upperChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	digitChars  = "23456789"
	symbolChars = "!@#$%^&*"
)

// GenerateRandomPassword генерирует случайный пароль заданной длины.
//
// Гарантии:
//   - минимум по одному символу из каждого класса (строчная, заглавная,
//     цифра, спецсимвол);
//   - источником случайности служит crypto/rand;
//   - позиции гарантированных символов перемешиваются (Фишер–Йетс),
//     чтобы классы не стояли на фиксированных местах.
func GenerateRandomPassword(length int) (string, error) {
	const op = "security.GenerateRandomPassword"

	if length < 12 {
		return "", fmt.Errorf("%s: %w", op, ErrPasswordLength)
	}

	allChars := lowerChars + upperChars + digitChars + symbolChars

	password := make([]byte, length)

	var err error
	if password[0], err = randChar(lowerChars); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if password[1], err = randChar(upperChars); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if password[2], err = randChar(digitChars); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if password[3], err = randChar(symbolChars); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	for i := 4; i < length; i++ {
		if password[i], err = randChar(allChars); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}

	// Перемешивание Фишера–Йетса тем же криптоисточником.
	for i := length - 1; i > 0; i-- {
		j, err := randInt(i + 1)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		password[i], password[j] = password[j], password[i]
	}

	return string(password), nil
}

func randChar(alphabet string) (byte, error) {
	i, err := randInt(len(alphabet))
	if err != nil {
		return 0, err
	}

	return alphabet[i], nil
}

func randInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}

	return int(v.Int64()), nil
}
