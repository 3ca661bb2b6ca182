package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "os"       // os provides access to environment variables
    "strconv"  // strconv converts strings to other types
)

// Config holds the runtime configuration shared by both services.  Each
// field corresponds to an environment variable.  JWT parameters (secret,
// issuer, audience) must be identical on the user service and the product
// service: a token minted by the user service is verified locally by the
// product service with no network round-trip.
type Config struct {
    Env          string // application environment (e.g. "dev", "prod")
    Port         string // HTTP port to listen on
    DBUser       string // database username
    DBPass       string // database password (optional)
    DBHost       string // database host address
    DBPort       string // database port number
    DBName       string // database name
    JWTSecret    string // shared secret used to sign and verify JWTs
    JWTIssuer    string // expected token issuer
    JWTAudience  string // expected token audience
    AccessTTLMin int    // access token time-to-live in minutes
    BcryptCost   int    // bcrypt cost for password hashing

    // User-service only.
    ProductServiceURL string // base URL of the product service, target of propagation calls
    PublicBaseURL     string // base URL used to build confirmation / reset links in mails
}

// Load reads the configuration shared by both services.  Required variables
// are enforced by must() and missing values cause the program to exit with
// a fatal log message.
func Load() Config {
    return Config{
        Env:          must("APP_ENV"),
        Port:         must("APP_PORT"),
        DBUser:       must("DB_USER"),
        DBPass:       os.Getenv("DB_PASS"), // empty allowed
        DBHost:       must("DB_HOST"),
        DBPort:       must("DB_PORT"),
        DBName:       must("DB_NAME"),
        JWTSecret:    must("JWT_SECRET"),
        JWTIssuer:    must("JWT_ISSUER"),
        JWTAudience:  must("JWT_AUDIENCE"),
        AccessTTLMin: mustInt("ACCESS_TOKEN_TTL_MIN"),
        BcryptCost:   mustInt("BCRYPT_COST"),
    }
}

// LoadUserService loads the shared configuration plus the variables only
// the user service needs: where the product service lives and which base
// URL to embed in confirmation / password-reset links.
func LoadUserService() Config {
    cfg := Load()
    cfg.ProductServiceURL = must("PRODUCT_SERVICE_URL")
    cfg.PublicBaseURL = must("PUBLIC_BASE_URL")
    return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
