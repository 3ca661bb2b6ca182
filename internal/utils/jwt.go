package utils // package utils provides helpers for token creation, verification and hashing

import (
    "errors"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and validating signed tokens
)

// ErrInvalidToken is returned for any credential that fails verification:
// bad signature, wrong issuer or audience, expired, or missing a numeric
// subject claim.  Callers never learn which check failed.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the verified identity extracted from a bearer token: the
// numeric account id and the role claim.  Both services trust these two
// values alone; neither ever asks the other "who is this" over the wire.
type Claims struct {
    UserID uint64
    Role   string
}

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  The JWT carries
// the subject (sub), role, issuer (iss), audience (aud), expiration (exp)
// and issued at (iat) claims.  The product service validates all of them
// with the same secret, issuer and audience values.
func NewAccessToken(secret, issuer, audience string, userID uint64, role string, ttlMin int) (AccessToken, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":  userID,
        "role": role,
        "iss":  issuer,
        "aud":  audience,
        "exp":  exp.Unix(),
        "iat":  time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// VerifyAccessToken checks signature, expiry, issuer and audience of a raw
// bearer token and extracts the subject id and role.  Verification is pure:
// no storage or network access, which is what allows the product service to
// accept user-service tokens on its own.
func VerifyAccessToken(secret, issuer, audience, raw string) (Claims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    }, jwt.WithIssuer(issuer), jwt.WithAudience(audience), jwt.WithExpirationRequired())
    if err != nil || !tok.Valid {
        return Claims{}, ErrInvalidToken
    }
    mc, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return Claims{}, ErrInvalidToken
    }

    var userID uint64
    switch sub := mc["sub"].(type) {
    case float64:
        // numeric claims are decoded as float64
        userID = uint64(sub)
    case string:
        n, err := strconv.ParseUint(sub, 10, 64)
        if err != nil {
            return Claims{}, ErrInvalidToken
        }
        userID = n
    default:
        return Claims{}, ErrInvalidToken
    }
    if userID == 0 {
        return Claims{}, ErrInvalidToken
    }

    role, _ := mc["role"].(string)
    if role == "" {
        return Claims{}, ErrInvalidToken
    }
    return Claims{UserID: userID, Role: role}, nil
}
