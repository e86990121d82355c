package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrNoInput             = errors.New("no input files")
	ErrEmptyResult         = errors.New("run produced no rows")
	ErrRunActive           = errors.New("run is still in progress")
	ErrInvalidFormat       = errors.New("unsupported export format")
)
