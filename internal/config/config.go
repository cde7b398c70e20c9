package config // package config loads application configuration from environment variables

import (
    "os"      // os provides access to environment variables
    "time"

    "github.com/joho/godotenv"
    "github.com/sirupsen/logrus" // logrus reports configuration errors and halts execution
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Durations are parsed with time.ParseDuration.
type Config struct {
    Env           string // application environment (e.g. "dev", "prod")
    Port          string // HTTP port to listen on
    LogLevel      string // logrus level name
    DBUser        string // database username
    DBPass        string // database password (optional)
    DBHost        string // database host address
    DBPort        string // database port number
    DBName        string // database name
    DBAutoMigrate bool   // apply the embedded schema on start-up

    SessionSecret     string        // HMAC key for session cookies
    SessionTTL        time.Duration // lifetime of a session cookie and token
    SessionCookieName string        // name of the session cookie
    JWTSecret         string        // secret used to sign bearer tokens for CLI clients

    AdminUsername     string // the single administrative account
    AdminPassword     string // plain password, hashed with bcrypt at start-up
    AdminPasswordHash string // pre-computed bcrypt hash (takes precedence)
    AdminName         string // display name embedded in sessions
    AdminRole         string // role label embedded in sessions
    BcryptCost        int    // bcrypt cost for password hashing

    ReservationMaxRounds int // selection rounds before the engine gives up on lost races
    ReservationWindow    int // spare candidates selected per round
    MaxSeatsPerRequest   int // upper clamp for public ticket requests

    RabbitURL    string // broker URL for ticket events (empty disables publishing)
    ConsumeQueue bool   // run the ticketing log consumer in-process
    MongoURI     string // audit log store (empty disables auditing)
    MongoDB      string // audit log database name
    OTLPEndpoint string // OTLP gRPC endpoint (empty disables tracing)
}

// Load reads configuration values from the environment (and an optional
// .env file) and returns a Config.  Required variables are enforced by
// must() and missing values cause the program to exit.
func Load() Config {
    _ = godotenv.Load()

    cfg := Config{
        Env:           envStr("APP_ENV", "dev"),
        Port:          envStr("APP_PORT", "8080"),
        LogLevel:      envStr("LOG_LEVEL", "info"),
        DBUser:        must("DB_USER"),
        DBPass:        os.Getenv("DB_PASS"),
        DBHost:        must("DB_HOST"),
        DBPort:        must("DB_PORT"),
        DBName:        must("DB_NAME"),
        DBAutoMigrate: envBool("DB_AUTO_MIGRATE", false),

        SessionSecret:     must("SESSION_SECRET"),
        SessionTTL:        envDur("SESSION_TTL", 24*time.Hour),
        SessionCookieName: envStr("SESSION_COOKIE_NAME", "session"),
        JWTSecret:         os.Getenv("JWT_SECRET"),

        AdminUsername:     must("ADMIN_USERNAME"),
        AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
        AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
        AdminName:         envStr("ADMIN_NAME", "Administrator"),
        AdminRole:         envStr("ADMIN_ROLE", "admin"),
        BcryptCost:        envInt("BCRYPT_COST", 12),

        ReservationMaxRounds: envInt("RESERVATION_MAX_ROUNDS", 4),
        ReservationWindow:    envInt("RESERVATION_CANDIDATE_WINDOW", 16),
        MaxSeatsPerRequest:   envInt("MAX_SEATS_PER_REQUEST", 6),

        RabbitURL:    os.Getenv("RABBITMQ_URL"),
        ConsumeQueue: envBool("TICKET_LOG_CONSUMER", false),
        MongoURI:     os.Getenv("MONGO_URI"),
        MongoDB:      envStr("MONGO_DB", "club"),
        OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
    }
    if cfg.AdminPassword == "" && cfg.AdminPasswordHash == "" {
        logrus.Fatal("missing required env var: ADMIN_PASSWORD or ADMIN_PASSWORD_HASH")
    }
    // Bearer tokens fall back to the session key so a single secret is enough in development.
    if cfg.JWTSecret == "" {
        cfg.JWTSecret = cfg.SessionSecret
    }
    if cfg.ReservationMaxRounds < 1 {
        cfg.ReservationMaxRounds = 1
    }
    if cfg.MaxSeatsPerRequest < 1 {
        cfg.MaxSeatsPerRequest = 1
    }
    return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        logrus.Fatalf("missing required env var: %s", key)
    }
    return v
}
