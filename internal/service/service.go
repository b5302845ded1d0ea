// service содержит бизнес-логику identity-сервиса:
// регистрацию/аутентификацию пользователей, выпуск/проверку/обновление
// JWT-пар на ключевой паре RSA и работу с хранилищем через интерфейсы
// из пакета storage.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище (storage.Storage) потокобезопасно. Ключевая
//     пара после первого разбора иммутабельна, на каждую подпись/проверку
//     создаётся свежий объект токена — общих мутируемых криптообъектов нет.
//   - Ошибки возвращаются сентинелами и далее маппятся транспортом на
//     HTTP-статусы (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"
	"time"

	"github.com/mes-admin/identity-service/internal/cache"
	"github.com/mes-admin/identity-service/internal/config"
	"github.com/mes-admin/identity-service/internal/ident"
	"github.com/mes-admin/identity-service/internal/storage"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна, пользователь не найден
	// или на выпуск токенов передана пустая запись. Транспорт: 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — токен (access/refresh) некорректен по формату, подписи,
	// издателю или аудитории. Причина наружу не детализируется. Транспорт: 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк. Транспорт: 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrKeyMaterial — ключевая пара RSA не разбирается (битый PEM или не тот
	// тип ключа). Фатальна: повторные вызовы возвращают ту же ошибку,
	// "тихих" ретраев парсинга нет. Транспорт: 500.
	ErrKeyMaterial = errors.New("invalid key material")

	// ErrUserExists — пользователь с таким email/телефоном/удостоверением
	// уже зарегистрирован. Транспорт: 409.
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidInput — обязательное поле регистрации пустое или не проходит
	// форматную проверку. Транспорт: 400.
	ErrInvalidInput = errors.New("invalid input")
)

// Service описывает бизнес-логику identity-сервиса.
type Service struct {
	storage storage.Storage
	cfg     config.AuthConfig
	keys    *keyMaterial
	seq     *ident.Sequential
	flake   *ident.Snowflake

	ucache   cache.UserCache // может быть nil, если кэш не сконфигурирован
	cacheTTL time.Duration
}

// New создаёт новый экземпляр Service. Генераторы идентификаторов —
// долгоживущие синглтоны процесса, создаются в composition root и
// передаются сюда явно.
func New(st storage.Storage, cfg config.AuthConfig, seq *ident.Sequential, flake *ident.Snowflake) *Service {
	return &Service{
		storage: st,
		cfg:     cfg,
		keys:    newKeyMaterial(cfg.PrivateKeyPEM, cfg.PublicKeyPEM),
		seq:     seq,
		flake:   flake,
	}
}

// SetUserCache устанавливает кэш профилей пользователей (опционально).
func (s *Service) SetUserCache(c cache.UserCache, ttl time.Duration) {
	s.ucache = c
	s.cacheTTL = ttl
}
