package staff

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "pintcert/pkg/domain"
	dErrors "pintcert/pkg/domain-errors"
)

// Claims are the bearer-token claims for staff sessions. The capability
// material (superadmin flag, city scope) travels in the token so handlers
// can authorize without a store round trip.
type Claims struct {
	StaffID    string   `json:"staff_id"`
	Superadmin bool     `json:"superadmin"`
	CityIDs    []string `json:"city_ids,omitempty"`
	jwt.RegisteredClaims
}

// TokenService signs and validates staff bearer tokens (HS256).
type TokenService struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewTokenService(signingKey, issuer, audience string) *TokenService {
	return &TokenService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// Generate issues a token for the staff account.
func (s *TokenService) Generate(staff *Staff, expiresIn time.Duration) (string, error) {
	cities := make([]string, 0, len(staff.CityIDs))
	for _, c := range staff.CityIDs {
		cities = append(cities, c.String())
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		StaffID:    staff.ID.String(),
		Superadmin: staff.Superadmin,
		CityIDs:    cities,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// Validate parses and verifies a token string.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// Identity rebuilds the capability view carried by validated claims.
func (c *Claims) Identity() (*Staff, error) {
	staffID, err := id.ParseStaffID(c.StaffID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	cities := make([]id.CityID, 0, len(c.CityIDs))
	for _, raw := range c.CityIDs {
		cityID, err := id.ParseCityID(raw)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
		}
		cities = append(cities, cityID)
	}
	return &Staff{ID: staffID, Superadmin: c.Superadmin, CityIDs: cities}, nil
}
