package domain

import (
	"errors"
	"fmt"
)

// ErrorCode pipeline failure taxonomy
type ErrorCode string

const (
	// ErrDownloadFailed object missing, empty or transfer error
	ErrDownloadFailed ErrorCode = "DOWNLOAD_FAILED"
	// ErrInvalidAudio no decodable audio stream
	ErrInvalidAudio ErrorCode = "INVALID_AUDIO"
	// ErrGenerationFailed a derived asset could not be rendered
	ErrGenerationFailed ErrorCode = "GENERATION_FAILED"
	// ErrUploadFailed object store put failed
	ErrUploadFailed ErrorCode = "UPLOAD_FAILED"
	// ErrDatabase relational store failure or incomplete asset set
	ErrDatabase ErrorCode = "DATABASE_ERROR"
)

// ErrIncompleteAssets required assets missing at the completeness check
var ErrIncompleteAssets = errors.New("required assets missing")

// ProcessingError fatal error of one processing attempt
type ProcessingError struct {
	Code      ErrorCode
	AssetType AssetType // set for GENERATION_FAILED / UPLOAD_FAILED
	Err       error
}

// NewProcessingError create ProcessingError
func NewProcessingError(code ErrorCode, assetType AssetType, err error) *ProcessingError {
	return &ProcessingError{Code: code, AssetType: assetType, Err: err}
}

func (e *ProcessingError) Error() string {
	if e.AssetType != "" {
		return fmt.Sprintf("%s[%s]: %v", e.Code, e.AssetType, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// CodeOf error code of err, "" when err is not a ProcessingError
func CodeOf(err error) ErrorCode {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
