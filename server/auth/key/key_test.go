package key

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/lestrrat-go/jwx/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPrivateKeyPem(t *testing.T) []byte {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.Nil(t, err)

	keyBytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	require.Nil(t, err)

	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyBytes})
}

func TestNewKeyPairFromRSAPrivateKeyPem(t *testing.T) {
	keyPair, err := NewKeyPairFromRSAPrivateKeyPem(testPrivateKeyPem(t))
	require.Nil(t, err)

	assert.Equal(t, "registro-key-id", keyPair.Kid)
	assert.Equal(t, keyPair.PublicKey, &keyPair.PrivateKey.PublicKey)
}

func TestNewKeyPairFromBadPem(t *testing.T) {
	_, err := NewKeyPairFromRSAPrivateKeyPem([]byte("not a pem"))
	assert.NotNil(t, err)
}

// A verifier consuming the published JWKS must recover the exact public
// key the server signs with.
func TestJWKSRoundTrip(t *testing.T) {
	keyPair, err := NewKeyPairFromRSAPrivateKeyPem(testPrivateKeyPem(t))
	require.Nil(t, err)

	keyPairJWK, err := keyPair.JWK()
	require.Nil(t, err)

	kid, ok := keyPairJWK.Get(jwk.KeyIDKey)
	require.True(t, ok)
	assert.Equal(t, keyPair.Kid, kid)

	jwks := ExportJWKAsJWKS(keyPairJWK)
	require.Len(t, jwks.Keys, 1)

	publicKey, err := PublicKeyFromJWK(jwks.Keys[0].(jwk.Key))
	require.Nil(t, err)
	assert.Equal(t, keyPair.PublicKey, publicKey)
}
