package httputil

// Machine-readable error codes returned alongside error messages so API
// clients can branch without parsing human text.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeCooldownActive     = "COOLDOWN_ACTIVE"

	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountPending     = "ACCOUNT_PENDING"
	CodeAccountRejected    = "ACCOUNT_REJECTED"
	CodeUsernameExists     = "USERNAME_EXISTS"
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeUserNotFound       = "USER_NOT_FOUND"

	CodeMissingAuth         = "MISSING_AUTH"
	CodeInvalidAuthHeader   = "INVALID_AUTH_HEADER"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeInvalidTokenUserID  = "INVALID_TOKEN_USER_ID"
	CodeAdminRequired       = "ADMIN_REQUIRED"
	CodeRefreshTokenInvalid = "REFRESH_TOKEN_INVALID"
	CodeRefreshTokenMissing = "REFRESH_TOKEN_MISSING"

	CodeInvalidResetCode   = "INVALID_RESET_CODE"
	CodeResetCodeExpired   = "RESET_CODE_EXPIRED"
	CodeInvalidResetTicket = "INVALID_RESET_TICKET"
	CodeEmailDeliveryError = "EMAIL_DELIVERY_ERROR"

	CodeItemNotFound = "ITEM_NOT_FOUND"
)
