package oauth

// maskTokenLength is how much of a bearer token is shown in logs.
const maskTokenLength = 10

// MaskToken truncates a bearer token for logging: the first 10 characters
// followed by an ellipsis. Shorter tokens are returned unchanged since they
// reveal nothing beyond what the truncated form would.
func MaskToken(token string) string {
	if len(token) <= maskTokenLength {
		return token
	}
	return token[:maskTokenLength] + "..."
}

// MaskSecret masks a client secret by showing the first 3 and last 4
// characters. Secrets of 8 characters or fewer are fully masked.
func MaskSecret(secret string) string {
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:3] + "***" + secret[len(secret)-4:]
}
