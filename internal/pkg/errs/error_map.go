/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to
standardize HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format."},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Room and Message Errors
	ErrRoomSlugInvalid:       {Code: ErrRoomSlugInvalid, Message: "Invalid room name."},
	ErrRoomNotFound:          {Code: ErrRoomNotFound, Message: "Room not found."},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long."},

	// 3xxx: Account and Security Errors
	ErrAlreadyLoggedIn:       {Code: ErrAlreadyLoggedIn, Message: "You are already signed in."},
	ErrInvalidEmail:          {Code: ErrInvalidEmail, Message: "Invalid email address."},
	ErrInvalidNickname:       {Code: ErrInvalidNickname, Message: "Invalid nickname."},
	ErrInvalidPassword:       {Code: ErrInvalidPassword, Message: "Invalid password."},
	ErrEmailAlreadyExists:    {Code: ErrEmailAlreadyExists, Message: "Email is already registered."},
	ErrNicknameAlreadyExists: {Code: ErrNicknameAlreadyExists, Message: "Nickname is already registered."},
	ErrInvalidCredentials:    {Code: ErrInvalidCredentials, Message: "Incorrect identifier or password."},
	ErrEmailNotVerified:      {Code: ErrEmailNotVerified, Message: "Please verify your email before signing in."},
	ErrTokenInvalid:          {Code: ErrTokenInvalid, Message: "Invalid or unknown token."},
	ErrTokenExpired:          {Code: ErrTokenExpired, Message: "This token has expired. Please request a new one."},
	ErrUnauthorized:          {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},

	// 4xxx: File and Storage Errors
	ErrFileSizeTooLarge: {Code: ErrFileSizeTooLarge, Message: "File is too large."},
	ErrFileTypeInvalid:  {Code: ErrFileTypeInvalid, Message: "File type is not allowed."},
	ErrStorageDisabled:  {Code: ErrStorageDisabled, Message: "File storage is not available.", Status: http.StatusServiceUnavailable},

	// 5xxx: Internal System Errors
	ErrUnknown:             {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrDatabaseUnavailable: {Code: ErrDatabaseUnavailable, Message: "Service is temporarily unavailable.", Status: http.StatusServiceUnavailable},
}
