package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyMaterial_ParseOnce(t *testing.T) {
	t.Parallel()

	km := newKeyMaterial(testPrivatePEM, testPublicPEM)

	priv1, err := km.Private()
	require.NoError(t, err)
	require.NotNil(t, priv1)

	pub1, err := km.Public()
	require.NoError(t, err)
	require.NotNil(t, pub1)

	// Повторные вызовы возвращают те же самые объекты.
	priv2, err := km.Private()
	require.NoError(t, err)
	require.Same(t, priv1, priv2)

	pub2, err := km.Public()
	require.NoError(t, err)
	require.Same(t, pub1, pub2)
}

func TestKeyMaterial_BrokenPEM(t *testing.T) {
	t.Parallel()

	km := newKeyMaterial("not a pem", "also not a pem")

	_, err := km.Private()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrKeyMaterial)

	_, err = km.Public()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrKeyMaterial)

	// Ошибка фиксируется: второй вызов отдаёт тот же результат,
	// без повторного парсинга.
	_, err2 := km.Private()
	require.ErrorIs(t, err2, ErrKeyMaterial)
}

func TestKeyMaterial_EmptyPEM(t *testing.T) {
	t.Parallel()

	km := newKeyMaterial("", "")

	_, err := km.Private()
	require.ErrorIs(t, err, ErrKeyMaterial)

	_, err = km.Public()
	require.ErrorIs(t, err, ErrKeyMaterial)
}

func TestKeyMaterial_SwappedKeyTypes(t *testing.T) {
	t.Parallel()

	// Открытый ключ на месте закрытого и наоборот.
	km := newKeyMaterial(testPublicPEM, testPrivatePEM)

	_, err := km.Private()
	require.ErrorIs(t, err, ErrKeyMaterial)

	_, err = km.Public()
	require.ErrorIs(t, err, ErrKeyMaterial)
}

func TestValidateToken_BrokenPublicKey(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newServiceWithMock(t)
	defer ctrl.Finish()

	pair, err := svc.IssueTokenPair(context.Background(), testUser())
	require.NoError(t, err)

	cfg := testAuthCfg()
	cfg.PublicKeyPEM = "broken"
	broken := New(nil, cfg, nil, nil)

	_, err = broken.ValidateToken(pair.AccessToken)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrKeyMaterial)
}
