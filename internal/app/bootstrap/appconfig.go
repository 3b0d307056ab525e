// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (HTTP ports, TLS,
// logging level, CORS, body limits). AppConfig is everything specific to
// ClassTally: the MongoDB connection, session cookies, and the head of
// department password that anchors the role hierarchy.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: classtally-session)
	SessionDomain string // Cookie domain (blank means current host)

	// HODPassword is the shared password for the head of department.
	// Unlike the per-class teacher/rep slots it lives in config, not in
	// the database, and never expires.
	HODPassword string

	// Base URL the frontend is served from, used in absolute links.
	BaseURL string // e.g., "https://classtally.example.com" or "http://localhost:3000"
}
