package importer

import (
	"fmt"
	"io"

	"github.com/kittyapp/kitty/internal/expense"
	"github.com/kittyapp/kitty/internal/importer/sheet"
)

type Service struct {
	sheetImporter Importer
}

func NewService() *Service {
	return &Service{
		sheetImporter: sheet.NewParser(),
	}
}

func (s *Service) Import(format Format, r io.Reader) ([]expense.ImportEntry, error) {
	var importer Importer

	switch format {
	case FormatSheet:
		importer = s.sheetImporter
	default:
		return nil, fmt.Errorf("unknown import format: %s", format)
	}

	return importer.Parse(r)
}
