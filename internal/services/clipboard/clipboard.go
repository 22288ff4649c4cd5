// Package clipboard copies rendered trees to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

const errorClipboardWriteFormat = "write to system clipboard: %w"

// ErrUnsupported reports that no clipboard utility is available on this system.
var ErrUnsupported = errors.New("system clipboard is not available")

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// CopierFunc adapts a function to the Copier interface.
type CopierFunc func(text string) error

// Copy calls copierFunc(text).
func (copierFunc CopierFunc) Copy(text string) error {
	return copierFunc(text)
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct{}

// NewService constructs a clipboard service.
func NewService() *Service {
	return &Service{}
}

// Copy writes text to the system clipboard.
func (service *Service) Copy(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	if writeError := clipboard.WriteAll(text); writeError != nil {
		return fmt.Errorf(errorClipboardWriteFormat, writeError)
	}
	return nil
}

var (
	_ Copier = (*Service)(nil)
	_ Copier = CopierFunc(nil)
)
