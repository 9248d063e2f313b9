package errors

// Error codes for standardized HTTP and gateway error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeAuthenticationRequired = "authentication_required"

	// Validation errors
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeMissingField   = "missing_field"

	// Room/Match errors
	ErrCodeRoomNotFound        = "room_not_found"
	ErrCodeHostUnavailable     = "host_unavailable"
	ErrCodeOwnRoom             = "own_room"
	ErrCodeInsufficientSupply  = "insufficient_questions"
	ErrCodeMatchCreationFailed = "match_creation_failed"
	ErrCodeRoomCreationFailed  = "room_creation_failed"
	ErrCodeJoinFailed          = "join_failed"
	ErrCodeEnqueueFailed       = "enqueue_failed"
	ErrCodeHistoryFetchFailed  = "history_fetch_failed"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeStoreUnavailable   = "store_unavailable"
	ErrCodeUpstreamError      = "upstream_error"

	// Leaderboard errors
	ErrCodeLeaderboardFetchFailed = "leaderboard_fetch_failed"
	ErrCodeUnknownWindow          = "unknown_leaderboard_window"
)
