// backend/src/parsers/parser.go
package parsers

import (
	"io"

	"github.com/username/tradejournal/backend/src/models"
)

type Parser interface {
	Parse(file io.Reader) ([]models.ImportedTrade, error)
}
