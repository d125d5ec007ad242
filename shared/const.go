package shared

const (
	// Fiber locals keys set by the authentication gate.
	ClientID   = "client_id"
	AuthMethod = "auth_method"
	AuthScope  = "auth_scope"
	AuthTime   = "auth_time"

	// Last rate limit decision consulted for this request, set by the
	// quota middleware and read back when stamping response headers.
	RateLimitDecision = "rate_limit_decision"

	// Authentication methods.
	AuthMethodBearer = "bearer"
	AuthMethodAPIKey = "api_key"

	ScopeAPIAccess = "api:access"

	// Rate limit tiers.
	TierGeneral    = "general"
	TierIP         = "ip"
	TierCredential = "credential"
	TierAuth       = "auth"

	// Response headers.
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
	HeaderAPIKey             = "X-API-Key"
)

// Prompt output formats accepted by the enhancement endpoint.
const (
	FormatParagraph      = "paragraph"
	FormatBullet         = "bullet"
	FormatStructured     = "structured"
	FormatConversational = "conversational"
)

var PromptFormats = []string{FormatParagraph, FormatBullet, FormatStructured, FormatConversational}
