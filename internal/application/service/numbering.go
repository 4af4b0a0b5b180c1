package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ac-tresor/dossiers/internal/application/port"
	"github.com/ac-tresor/dossiers/internal/domain/errs"
)

// NumberGenerator hands out dossier numbers
type NumberGenerator interface {
	// Next returns "{CODE}-{YYYY}-{NNNNN}" where NNNNN restarts at 1 every year.
	// Run it inside the transaction that creates the numbered record.
	Next(ctx context.Context, code string) (string, error)
}

type numberGeneratorImpl struct {
	repo port.NumberingRepository
	now  func() time.Time
}

// NewNumberGenerator creates a generator backed by the counters table
func NewNumberGenerator(repo port.NumberingRepository) NumberGenerator {
	return &numberGeneratorImpl{repo: repo, now: time.Now}
}

func (g *numberGeneratorImpl) Next(ctx context.Context, code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", errs.Validation("numbering code is required")
	}

	year := g.now().Year()
	seq, err := g.repo.Next(ctx, code, year)
	if err != nil {
		return "", errs.Persistence("next number", err)
	}

	return fmt.Sprintf("%s-%d-%05d", code, year, seq), nil
}
