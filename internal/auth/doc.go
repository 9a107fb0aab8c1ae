// Package auth provides authentication and authorization for the API.
//
// Passwords are stored as bcrypt hashes. Successful logins receive an HS256
// JWT whose SHA-256 is recorded in the access_tokens table; a token is only
// accepted while that row is present, valid and unexpired, so logout and
// account deactivation take effect immediately.
//
// # Configuration
//
//	AUTH_JWT_SECRET=<random string>   # Required in production
//	AUTH_JWT_ISSUER=bookclub
//	AUTH_TOKEN_EXPIRY=720h            # 30 days
//	AUTH_BCRYPT_COST=12
//	AUTH_MAX_LOGIN_ATTEMPTS=5
//	AUTH_RATE_LIMIT_WINDOW=15m
//	AUTH_LOCKOUT_DURATION=30m
//
// # Usage
//
//	authService := auth.NewService(db, cfg.Auth)
//	authMiddleware := auth.NewMiddleware(authService, log)
//	router.Use(authMiddleware.Handler())
//	admin := api.Group("/user", authMiddleware.RequireRole(entities.RoleAdmin))
//
// Extract the caller in handlers:
//
//	userID := auth.GetUserID(c)    // 0 when anonymous
//	user := auth.CurrentUser(c)    // nil when anonymous
package auth
