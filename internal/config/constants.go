package config

// Default paths and identifiers
const (
	// DefaultDatabasePath is the default path for the SQLite catalogue database
	DefaultDatabasePath = "./bookclub.db"

	// DefaultJWTIssuer is the iss claim written into every access token
	DefaultJWTIssuer = "bookclub"

	// DefaultCORSOrigin is the development frontend allowed by default
	DefaultCORSOrigin = "http://localhost:4200"
)

// Database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Object storage drivers
const (
	StorageNone  = "none"
	StorageS3    = "s3"
	StorageMinIO = "minio"
	StorageGCS   = "gcs"
)
