package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrImportParse  = errors.New("import file is not valid JSON")
	ErrStorageWrite = errors.New("storage write failed")
)
