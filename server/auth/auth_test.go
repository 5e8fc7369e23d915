package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/pkg/errors"
	"github.com/pastoralsj/registro/server/auth/key"
	"github.com/pastoralsj/registro/server/models"
	"github.com/pastoralsj/registro/server/store"
	"github.com/pastoralsj/registro/server/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeyPair(t *testing.T) *key.KeyPair {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.Nil(t, err)

	return &key.KeyPair{
		Kid:        "test-key-id",
		PrivateKey: privateKey,
		PublicKey:  &privateKey.PublicKey,
	}
}

func testMember(login string) models.Member {
	return models.Member{
		Login:         login,
		BirthDate:     models.NewDate(1990, 5, 20),
		FullName:      "João da Silva",
		MaritalStatus: models.SOLTEIRO,
		Phone:         "(11) 98765-4321",
		Email:         "joao@exemplo.com.br",
		CEP:           "01310-930",
		Street:        "Avenida Paulista",
		Neighborhood:  "Bela Vista",
		City:          "São Paulo",
		State:         "SP",
		Parish:        "Paróquia São José",
		Community:     "Matriz",
		Sector:        "CATEQUESE",
		Role:          models.AGENTE,
		JoinDate:      models.NewDate(2020, 2, 1),
	}
}

func TestLoginWithNoMatchFails(t *testing.T) {
	service := NewService(storetest.New(testMember("joao.silva")), testKeyPair(t))

	_, _, err := service.Login(context.Background(), "desconhecido", models.NewDate(1990, 5, 20))
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = service.Login(context.Background(), "joao.silva", models.NewDate(1991, 5, 20))
	assert.ErrorIs(t, err, ErrInvalidCredentials, "right login, wrong birth date")
}

func TestLoginWithSingleMatchEstablishesSession(t *testing.T) {
	keyPair := testKeyPair(t)
	service := NewService(storetest.New(testMember("joao.silva")), keyPair)

	token, member, err := service.Login(context.Background(), "  Joao.Silva ", models.NewDate(1990, 5, 20))
	require.Nil(t, err)
	assert.Equal(t, "joao.silva", member.Login, "session identity is the matched record")

	claims, err := DecodeJWT(token, keyPair)
	require.Nil(t, err)
	assert.Equal(t, "1", claims.Subject)
	assert.Equal(t, models.AGENTE, claims.Role)
}

func TestLoginWithDuplicateMatchesFails(t *testing.T) {
	first := testMember("joao.silva")
	second := testMember("joao.silva")
	second.FullName = "João Homônimo"

	service := NewService(storetest.New(first, second), testKeyPair(t))

	token, member, err := service.Login(context.Background(), "joao.silva", models.NewDate(1990, 5, 20))
	assert.ErrorIs(t, err, ErrDataIntegrity, "must not silently pick one of the duplicates")
	assert.Empty(t, token)
	assert.Nil(t, member)
}

func TestLoginPassesTransportErrorsThrough(t *testing.T) {
	failing := storetest.New()
	failing.ForcedErr = errors.Wrap(store.ErrTransport, "connection refused")

	service := NewService(failing, testKeyPair(t))

	_, _, err := service.Login(context.Background(), "joao.silva", models.NewDate(1990, 5, 20))
	assert.ErrorIs(t, err, store.ErrTransport)
}

func TestRegisterForcesAgentRoleAndLogsIn(t *testing.T) {
	keyPair := testKeyPair(t)
	service := NewService(storetest.New(), keyPair)

	candidate := testMember("nova.agente")
	candidate.Role = models.COORDENADOR // must be ignored

	token, member, err := service.Register(context.Background(), &candidate)
	require.Nil(t, err)
	assert.Equal(t, models.AGENTE, member.Role)
	assert.NotZero(t, member.ID)

	claims, err := DecodeJWT(token, keyPair)
	require.Nil(t, err)
	assert.Equal(t, models.AGENTE, claims.Role)
}

func TestRegisterWithDuplicateLoginFails(t *testing.T) {
	service := NewService(storetest.New(testMember("joao.silva")), testKeyPair(t))

	candidate := testMember("joao.silva")
	token, _, err := service.Register(context.Background(), &candidate)
	assert.ErrorIs(t, err, ErrLoginInUse)
	assert.Empty(t, token, "no session on a failed registration")
}

func TestRegisterRejectsInvalidRecord(t *testing.T) {
	recordStore := storetest.New()
	service := NewService(recordStore, testKeyPair(t))

	candidate := testMember("nova.agente")
	candidate.Email = "sem-arroba"

	_, _, err := service.Register(context.Background(), &candidate)

	validationErr := &ValidationError{}
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "email")
	assert.Zero(t, recordStore.Inserts, "invalid record never reaches the store")
}

func TestCapabilities(t *testing.T) {
	coordinator := &RegistroTokenClaims{Role: models.COORDENADOR}
	coordinator.Subject = "3"

	capabilities := NewCapabilities(coordinator)
	assert.True(t, capabilities.CanListAll)
	assert.True(t, capabilities.CanDelete)
	assert.True(t, capabilities.CanEditRecord(3))
	assert.True(t, capabilities.CanEditRecord(7))

	agent := &RegistroTokenClaims{Role: models.AGENTE}
	agent.Subject = "5"

	capabilities = NewCapabilities(agent)
	assert.False(t, capabilities.CanListAll)
	assert.False(t, capabilities.CanDelete)
	assert.True(t, capabilities.CanEditRecord(5), "own record is always editable")
	assert.False(t, capabilities.CanEditRecord(7))
}
