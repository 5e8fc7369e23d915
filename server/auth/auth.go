package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/pkg/errors"
	"github.com/pastoralsj/registro/server/auth/key"
	"github.com/pastoralsj/registro/server/models"
	"github.com/pastoralsj/registro/server/store"
)

const tokenTTL = 12 * time.Hour

var (
	// ErrInvalidCredentials: no record matches the login + birth date.
	ErrInvalidCredentials = errors.New("login ou data de nascimento inválidos")

	// ErrDataIntegrity: more than one record matched credentials that
	// should be unique. Never pick one silently.
	ErrDataIntegrity = errors.New("mais de um registro encontrado para o login; contate o administrador")

	// ErrLoginInUse: registration hit the store's uniqueness constraint.
	ErrLoginInUse = errors.New("login já está em uso")
)

// ValidationError carries the field->message map produced by the
// record validator when a registration is rejected.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("registro inválido: %d campo(s) com erro", len(e.Fields))
}

type RegistroTokenClaims struct {
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	jwt.StandardClaims
}

func (claims *RegistroTokenClaims) IsCoordinator() bool {
	return claims.Role == models.COORDENADOR
}

// Capabilities is the permission set derived once from the session's
// role at login. View/handler decisions are pure functions of it.
type Capabilities struct {
	MemberID   uint
	CanListAll bool
	CanDelete  bool
}

// CanEditRecord: always true for the session's own record, otherwise
// coordinator-only.
func (c Capabilities) CanEditRecord(id uint) bool {
	return id == c.MemberID || c.CanListAll
}

func NewCapabilities(claims *RegistroTokenClaims) Capabilities {
	id, _ := strconv.ParseUint(claims.Subject, 10, 64)
	isCoordinator := claims.IsCoordinator()

	return Capabilities{
		MemberID:   uint(id),
		CanListAll: isCoordinator,
		CanDelete:  isCoordinator,
	}
}

// Service authenticates login+birthdate pairs against the record store
// and issues session tokens.
type Service struct {
	store   store.Store
	keyPair *key.KeyPair
}

func NewService(recordStore store.Store, keyPair *key.KeyPair) *Service {
	return &Service{store: recordStore, keyPair: keyPair}
}

// Login matches the normalized login and the UTC day of the birth date
// against the store. Exactly one match establishes the session; zero
// fails with ErrInvalidCredentials; two or more fail with
// ErrDataIntegrity. Store failures pass through unchanged.
func (s *Service) Login(ctx context.Context, loginValue string, birthDate models.Date) (string, *models.Member, error) {
	login := models.NormalizeLogin(loginValue)

	matches, err := s.store.Find(ctx, store.Filter{Login: &login, BornOn: &birthDate})
	if err != nil {
		return "", nil, err
	}

	if len(matches) == 0 {
		return "", nil, ErrInvalidCredentials
	}

	if len(matches) > 1 {
		return "", nil, ErrDataIntegrity
	}

	member := matches[0]
	token, err := s.TokenFor(&member)
	if err != nil {
		return "", nil, err
	}

	return token, &member, nil
}

// Register validates the candidate, forces the AGENTE role, inserts it
// and logs the new member straight in.
func (s *Service) Register(ctx context.Context, member *models.Member) (string, *models.Member, error) {
	member.Role = models.AGENTE
	member.Sanitize()

	if fieldErrors := models.ValidateMember(*member); len(fieldErrors) > 0 {
		return "", nil, &ValidationError{Fields: fieldErrors}
	}

	if err := s.store.Insert(ctx, member); err != nil {
		if errors.Is(err, store.ErrConstraintViolation) {
			return "", nil, ErrLoginInUse
		}
		return "", nil, err
	}

	return s.Login(ctx, member.Login, member.BirthDate)
}

// TokenFor issues a session token for an authenticated record.
func (s *Service) TokenFor(member *models.Member) (string, error) {
	now := time.Now()

	return EncodeJWT(RegistroTokenClaims{
		FullName: member.FullName,
		Role:     member.Role,
		StandardClaims: jwt.StandardClaims{
			Subject:   fmt.Sprint(member.ID),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(tokenTTL).Unix(),
		},
	}, s.keyPair)
}

func EncodeJWT(claims RegistroTokenClaims, keyPair *key.KeyPair) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod("RS256"), claims)

	tokenString, err := token.SignedString(keyPair.PrivateKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func DecodeJWT(tokenString string, keyPair *key.KeyPair) (*RegistroTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RegistroTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		// validate the alg is what you expect:
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return keyPair.PublicKey, nil
	})

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid jwt: %v", err)
	}

	tokenClaims, ok := token.Claims.(*RegistroTokenClaims)
	if !ok {
		return nil, fmt.Errorf("unable to assert token.Claims to RegistroTokenClaims")
	}

	return tokenClaims, nil
}
