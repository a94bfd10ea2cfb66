/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both internally
within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON is malformed.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate exceeded the limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: Room and Message Errors
const (
	// ErrRoomSlugInvalid indicates that the room slug failed validation.
	ErrRoomSlugInvalid = 2101

	// ErrRoomNotFound indicates that the referenced room does not exist.
	ErrRoomNotFound = 2102

	// ErrMessageContentTooLong indicates the message exceeded the length limit.
	ErrMessageContentTooLong = 2201
)

// 3xxx: Account and Security Errors
const (
	// ErrAlreadyLoggedIn indicates the request carried a valid session already.
	ErrAlreadyLoggedIn = 3001

	// ErrInvalidEmail indicates the email address failed validation.
	ErrInvalidEmail = 3002

	// ErrInvalidNickname indicates the nickname failed validation.
	ErrInvalidNickname = 3003

	// ErrInvalidPassword indicates the password failed validation.
	ErrInvalidPassword = 3004

	// ErrEmailAlreadyExists indicates the email is already registered.
	ErrEmailAlreadyExists = 3005

	// ErrNicknameAlreadyExists indicates the nickname is already registered.
	ErrNicknameAlreadyExists = 3006

	// ErrInvalidCredentials indicates the identifier/password pair did not match.
	ErrInvalidCredentials = 3007

	// ErrEmailNotVerified indicates a login attempt before email verification.
	ErrEmailNotVerified = 3008

	// ErrTokenInvalid indicates an unknown verification or reset token.
	ErrTokenInvalid = 3009

	// ErrTokenExpired indicates an expired password-reset token.
	ErrTokenExpired = 3010

	// ErrUnauthorized indicates a request that requires an authenticated session.
	ErrUnauthorized = 3011
)

// 4xxx: File and Storage Errors
const (
	// ErrFileSizeTooLarge indicates the uploaded file exceeded the size limit.
	ErrFileSizeTooLarge = 4001

	// ErrFileTypeInvalid indicates a disallowed file type or extension.
	ErrFileTypeInvalid = 4002

	// ErrStorageDisabled indicates that object storage is not configured.
	ErrStorageDisabled = 4003
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified server internal error.
	ErrUnknown = 5000

	// ErrDatabaseUnavailable indicates the durable store cannot serve the request.
	ErrDatabaseUnavailable = 5001
)
