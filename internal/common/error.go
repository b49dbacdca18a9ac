package common

import "fmt"

var (
	ErrStorageNotFound    = fmt.Errorf("storage not found")
	ErrUnsupportedContent = fmt.Errorf("unsupported content type")
)
