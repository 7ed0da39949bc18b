//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

package evalapi

import (
	"errors"
	"fmt"
)

// Wire error codes shared with the Evaluation Platform APIs.
const (
	CodeInvalidMessageFormat  = "INVALID_MESSAGE_FORMAT"  // 400
	CodeConfigurationNotFound = "CONFIGURATION_NOT_FOUND" // 404
	CodeTimeoutError          = "TIMEOUT_ERROR"           // 408
	CodeEvaluationFailed      = "EVALUATION_FAILED"       // 500
	CodeStorageError          = "STORAGE_ERROR"           // 502
)

// Error is a typed failure from the Configuration or Status API.
type Error struct {
	// Code is the wire error code when the API provided one.
	Code string
	// StatusCode is the HTTP status of the response, 0 on transport failure.
	StatusCode int
	// Message is the human-readable failure description.
	Message string
	// Transient marks failures that the caller may retry.
	Transient bool
	// Err is the underlying cause, when any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// notFoundError builds the configuration-not-found failure for a resource.
func notFoundError(resource string) *Error {
	return &Error{
		Code:       CodeConfigurationNotFound,
		StatusCode: 404,
		Message:    fmt.Sprintf("%s not found", resource),
	}
}

// transportError wraps a network-level failure as retryable.
func transportError(op string, err error) *Error {
	return &Error{
		Message:   fmt.Sprintf("%s: %v", op, err),
		Transient: true,
		Err:       err,
	}
}

// configurationError marks a malformed payload; never retried.
func configurationError(op string, err error) *Error {
	return &Error{
		Message: fmt.Sprintf("%s: %v", op, err),
		Err:     err,
	}
}

// IsNotFound reports whether err is a configuration-not-found failure.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == CodeConfigurationNotFound
}

// IsTransient reports whether err may succeed on retry.
func IsTransient(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Transient
}

// wireError is the error response shape emitted by the platform APIs.
type wireError struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}
