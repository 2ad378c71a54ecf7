// Package auth provides account management and bearer-token authentication
// for the API.
//
// Users register or log in with a username (or email) and password and get
// back an HS256 JWT. Every protected request must carry it:
//
//	Authorization: Bearer <token>
//
// Logging out revokes the token's jti until it expires. Revocations live in
// Redis when REDIS_ADDR is set, in memory otherwise.
//
// # Configuration
//
//	AUTH_JWT_SECRET=<random string>   # Generated per process if empty
//	AUTH_JWT_ISSUER=mylibrary
//	AUTH_TOKEN_EXPIRY=720h            # Token lifetime (30 days default)
//	AUTH_BCRYPT_COST=12               # bcrypt cost factor
//	AUTH_MAX_LOGIN_ATTEMPTS=5         # Failures before lockout
//	AUTH_RATE_LIMIT_WINDOW=15m
//	AUTH_LOCKOUT_DURATION=30m
//
// # Usage
//
//	tokens := auth.NewTokenIssuer(cfg.Auth, revoker)
//	service := auth.NewService(userRepo, tokens, cfg.Auth)
//	protected := api.Group("", auth.NewMiddleware(service).Handler())
//
// Extract the user in handlers:
//
//	userID := auth.GetUserID(c)
package auth
