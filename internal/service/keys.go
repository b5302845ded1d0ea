package service

import (
	"crypto/rsa"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// keyMaterial лениво разбирает и кэширует ключевую пару RSA из PEM-текста.
//
// Каждый ключ парсится ровно один раз (sync.Once); результат — и значение,
// и ошибка — фиксируется навсегда: битый PEM не перечитывается "тихо",
// все последующие вызовы возвращают ту же ErrKeyMaterial.
//
// Разобранные *rsa.PrivateKey/*rsa.PublicKey после публикации не мутируются
// и безопасны для одновременного чтения из многих горутин; подпись и
// проверка каждый раз строят свежий объект jwt.Token поверх них.
type keyMaterial struct {
	privatePEM string
	publicPEM  string

	privOnce sync.Once
	priv     *rsa.PrivateKey
	privErr  error

	pubOnce sync.Once
	pub     *rsa.PublicKey
	pubErr  error
}

func newKeyMaterial(privatePEM, publicPEM string) *keyMaterial {
	return &keyMaterial{
		privatePEM: privatePEM,
		publicPEM:  publicPEM,
	}
}

// Private возвращает закрытый ключ подписи.
func (k *keyMaterial) Private() (*rsa.PrivateKey, error) {
	const op = "service.keys.Private"

	k.privOnce.Do(func() {
		if k.privatePEM == "" {
			k.privErr = fmt.Errorf("%s: empty private key pem: %w", op, ErrKeyMaterial)
			return
		}

		key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(k.privatePEM))
		if err != nil {
			k.privErr = fmt.Errorf("%s: %v: %w", op, err, ErrKeyMaterial)
			return
		}

		k.priv = key
	})

	return k.priv, k.privErr
}

// Public возвращает открытый ключ проверки подписи.
func (k *keyMaterial) Public() (*rsa.PublicKey, error) {
	const op = "service.keys.Public"

	k.pubOnce.Do(func() {
		if k.publicPEM == "" {
			k.pubErr = fmt.Errorf("%s: empty public key pem: %w", op, ErrKeyMaterial)
			return
		}

		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(k.publicPEM))
		if err != nil {
			k.pubErr = fmt.Errorf("%s: %v: %w", op, err, ErrKeyMaterial)
			return
		}

		k.pub = key
	})

	return k.pub, k.pubErr
}
