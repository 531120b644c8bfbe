package ports

import (
	"context"

	"github.com/aretw0/quill/pkg/domain"
)

// FontLoader makes a font face available for assignment to text.
// Loading the same face twice must be harmless.
type FontLoader interface {
	LoadFont(ctx context.Context, font domain.FontName) error
}

// FontRegistry reports which faces have been loaded.
type FontRegistry interface {
	IsLoaded(font domain.FontName) bool
}
