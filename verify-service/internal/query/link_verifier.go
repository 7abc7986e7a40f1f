package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fincoach/fincoach/shared/ai"
	"github.com/fincoach/fincoach/shared/cqrs"
	"github.com/fincoach/fincoach/shared/errs"
	"github.com/fincoach/fincoach/shared/middleware"
	"github.com/fincoach/fincoach/shared/models"
	"github.com/rs/zerolog/log"
)

const fallbackReason = "Could not complete verification of this link. Please proceed with caution."

const heuristicPromptTemplate = `Act as a cybersecurity analyst specializing in detecting phishing and fraudulent financial websites for the Indian market.
Analyze the following URL: %q

Consider these common red flags:
- Suspicious top-level domains like .xyz, .top, .live, .cc, .biz.
- Urgent or too-good-to-be-true language in the domain or path, such as "instant approval" or "fast cash".
- URL shorteners that obscure the final destination.
- Misspellings or slight variations of known bank and lender brand names, such as sbi-loans.info.
- Overly complex or long subdomains.
- Whether the URL uses https.

Return a single, minified JSON object with the following keys and no other text:
- "status": one of "Safe", "Suspicious" or "Malicious".
- "riskScore": a number from 0 (very safe) to 100 (extremely malicious).
- "reason": a concise, one-sentence explanation for your assessment.

Example output for a bad link: {"status":"Suspicious","riskScore":90,"reason":"The domain uses a suspicious TLD (.xyz) and urgent language, which are common red flags for fraudulent sites."}`

// LinkLookup is the curated store consulted before the model.
type LinkLookup interface {
	GetByDomain(ctx context.Context, domain string) (*models.LoanLink, error)
}

// LinkVerifier runs the two-tier check. Tier 1 is the curated list, Tier 2 the
// model heuristic. Tier 2 never fails: any problem yields the fallback verdict.
type LinkVerifier struct {
	links     LinkLookup
	generator ai.Generator
	timeout   time.Duration
}

func NewLinkVerifier(links LinkLookup, generator ai.Generator, timeout time.Duration) *LinkVerifier {
	return &LinkVerifier{links: links, generator: generator, timeout: timeout}
}

// NormalizeDomain returns the lower-cased host of rawURL without one trailing
// "." and one leading "www.".
func NormalizeDomain(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", errs.ErrInvalidURL
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", errs.ErrInvalidURL
	}
	return host, nil
}

// NormalizeHost accepts a bare domain as well as a URL.
func NormalizeHost(domainOrURL string) (string, error) {
	s := strings.TrimSpace(domainOrURL)
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	return NormalizeDomain(s)
}

func (v *LinkVerifier) VerifyLink(ctx context.Context, q cqrs.VerifyLinkQuery) (*models.VerificationResult, error) {
	domain, err := NormalizeDomain(q.URL)
	if err != nil {
		return nil, err
	}

	link, err := v.links.GetByDomain(ctx, domain)
	switch {
	case err == nil:
		return curatedVerdict(link), nil
	case !errors.Is(err, errs.ErrLinkNotFound):
		return nil, err
	}

	result, err := v.analyze(ctx, q.URL)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("domain", domain).Msg("Heuristic link check failed, returning fallback verdict")
		return fallbackVerdict(), nil
	}
	return result, nil
}

func curatedVerdict(link *models.LoanLink) *models.VerificationResult {
	if link.Status == models.LinkBlacklisted {
		return &models.VerificationResult{
			Status:    models.VerificationMalicious,
			RiskScore: 100,
			Reason:    fmt.Sprintf("This domain is on our internal blacklist as impersonating %s.", link.InstitutionName),
		}
	}
	return &models.VerificationResult{
		Status:    models.VerificationSafe,
		RiskScore: 0,
		Reason:    fmt.Sprintf("This domain is on our internal whitelist as belonging to %s.", link.InstitutionName),
	}
}

func fallbackVerdict() *models.VerificationResult {
	return &models.VerificationResult{
		Status:    models.VerificationSuspicious,
		RiskScore: 75,
		Reason:    fallbackReason,
	}
}

// modelVerdict is the shape the model must answer with. RiskScore is a pointer
// so a missing score fails validation instead of reading as 0.
type modelVerdict struct {
	Status    string `json:"status" validate:"required,oneof=Safe Suspicious Malicious"`
	RiskScore *int   `json:"riskScore" validate:"required,min=0,max=100"`
	Reason    string `json:"reason" validate:"required"`
}

func (v *LinkVerifier) analyze(ctx context.Context, rawURL string) (*models.VerificationResult, error) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	text, err := v.generator.Generate(ctx, fmt.Sprintf(heuristicPromptTemplate, rawURL))
	if err != nil {
		return nil, errs.Upstream("generate verdict", err)
	}
	object, err := ai.ExtractJSONObject(text)
	if err != nil {
		return nil, errs.Upstream("extract verdict", err)
	}

	var verdict modelVerdict
	if err := json.Unmarshal([]byte(object), &verdict); err != nil {
		return nil, errs.Upstream("decode verdict", err)
	}
	if problems := middleware.ValidateRequest(verdict); problems != nil {
		return nil, errs.Upstream("validate verdict", fmt.Errorf("%s: %s", problems[0].Field, problems[0].Message))
	}

	return &models.VerificationResult{
		Status:    verdict.Status,
		RiskScore: *verdict.RiskScore,
		Reason:    strings.TrimSpace(verdict.Reason),
	}, nil
}
