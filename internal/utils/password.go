package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plaintext password with bcrypt at the given cost.
// The cost is threaded from Config.BcryptCost so deployments can trade
// hashing time against login throughput; registration and password reset
// both pass it through. bcrypt rejects costs outside [MinCost, MaxCost].
func HashPassword(plain string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash.
// The stored hash encodes its own cost, so verification keeps working for
// accounts hashed under an older Config.BcryptCost value.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
