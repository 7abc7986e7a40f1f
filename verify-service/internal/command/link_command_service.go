package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/fincoach/fincoach/shared/cqrs"
	"github.com/fincoach/fincoach/shared/errs"
	"github.com/fincoach/fincoach/shared/models"
	"github.com/fincoach/fincoach/verify-service/internal/query"
	"github.com/rs/zerolog/log"
)

// LinkWriter persists curated links.
type LinkWriter interface {
	List(ctx context.Context) ([]models.LoanLink, error)
	Upsert(ctx context.Context, link *models.LoanLink) (*models.LoanLink, error)
	Delete(ctx context.Context, domain string) error
}

// LinkCommandService curates the allow/deny list behind Tier 1.
type LinkCommandService struct {
	links LinkWriter
}

func NewLinkCommandService(links LinkWriter) *LinkCommandService {
	return &LinkCommandService{links: links}
}

func (s *LinkCommandService) UpsertLink(ctx context.Context, cmd cqrs.UpsertLoanLinkCommand) (*models.LoanLink, error) {
	domain, err := query.NormalizeHost(cmd.Domain)
	if err != nil {
		return nil, err
	}
	status, ok := parseLinkStatus(cmd.Status)
	if !ok {
		return nil, fmt.Errorf("%w: status must be %s or %s", errs.ErrInvalidInput, models.LinkWhitelisted, models.LinkBlacklisted)
	}
	institution := strings.TrimSpace(cmd.InstitutionName)
	if institution == "" {
		return nil, fmt.Errorf("%w: institution is required", errs.ErrInvalidInput)
	}

	saved, err := s.links.Upsert(ctx, &models.LoanLink{
		Domain:          domain,
		Status:          status,
		InstitutionName: institution,
		Notes:           strings.TrimSpace(cmd.Notes),
	})
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("domain", saved.Domain).Str("status", saved.Status).Msg("Loan link saved")
	return saved, nil
}

func (s *LinkCommandService) RemoveLink(ctx context.Context, domainOrURL string) error {
	domain, err := query.NormalizeHost(domainOrURL)
	if err != nil {
		return err
	}
	if err := s.links.Delete(ctx, domain); err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("domain", domain).Msg("Loan link removed")
	return nil
}

func (s *LinkCommandService) ListLinks(ctx context.Context) ([]models.LoanLink, error) {
	return s.links.List(ctx)
}

// parseLinkStatus accepts the stored spelling in any case.
func parseLinkStatus(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "whitelisted":
		return models.LinkWhitelisted, true
	case "blacklisted":
		return models.LinkBlacklisted, true
	}
	return "", false
}
