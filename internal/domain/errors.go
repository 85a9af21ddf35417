package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrExtraction        = errors.New("extraction failed")
	ErrAnalysis          = errors.New("analysis failed")
	ErrVisionUnavailable = errors.New("vision capability unavailable")
	ErrSynthesis         = errors.New("synthesis failed")
	ErrRender            = errors.New("render failed")
	ErrValidation        = errors.New("validation failed")
	ErrDuplicateAsset    = errors.New("duplicate asset")
)
