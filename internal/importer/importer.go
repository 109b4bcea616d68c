package importer

import (
	"io"

	"github.com/kittyapp/kitty/internal/expense"
)

type Format string

const (
	FormatSheet Format = "sheet"
)

type Importer interface {
	Parse(r io.Reader) ([]expense.ImportEntry, error)
}
