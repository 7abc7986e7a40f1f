package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fincoach/fincoach/shared/ai"
	"github.com/fincoach/fincoach/shared/cqrs"
	"github.com/fincoach/fincoach/shared/errs"
	"github.com/fincoach/fincoach/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	links map[string]models.LoanLink
	err   error
}

func (f *fakeLookup) GetByDomain(_ context.Context, domain string) (*models.LoanLink, error) {
	if f.err != nil {
		return nil, f.err
	}
	link, ok := f.links[domain]
	if !ok {
		return nil, errs.ErrLinkNotFound
	}
	return &link, nil
}

type fakeGenerator struct {
	reply   string
	err     error
	block   bool
	prompts []string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return g.reply, g.err
}

func curated() *fakeLookup {
	return &fakeLookup{links: map[string]models.LoanLink{
		"sbi.co.in":      {Domain: "sbi.co.in", Status: models.LinkWhitelisted, InstitutionName: "State Bank of India"},
		"sbi-loans.info": {Domain: "sbi-loans.info", Status: models.LinkBlacklisted, InstitutionName: "State Bank of India"},
	}}
}

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "https://www.sbi.co.in/personal-loans", want: "sbi.co.in"},
		{in: "HTTP://WWW.HDFCBank.com", want: "hdfcbank.com"},
		{in: "https://www.www.example.com", want: "www.example.com"},
		{in: "https://loans.example.com:8443/apply?x=1", want: "loans.example.com"},
		{in: "https://sbi-loans.info./apply", want: "sbi-loans.info"},
		{in: "https://WWW.SBI.CO.IN.", want: "sbi.co.in"},
		{in: "https://www.", wantErr: true},
		{in: "https://www", want: "www"},
		{in: "sbi.co.in", wantErr: true},
		{in: "/relative/path", wantErr: true},
		{in: "not a url at all", wantErr: true},
		{in: "mailto:someone@example.com", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeDomain(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, errs.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVerifyLinkCuratedList(t *testing.T) {
	gen := &fakeGenerator{}
	v := NewLinkVerifier(curated(), gen, time.Second)

	result, err := v.VerifyLink(context.Background(), cqrs.VerifyLinkQuery{URL: "https://www.sbi.co.in/personal-loans"})
	require.NoError(t, err)
	assert.Equal(t, models.VerificationSafe, result.Status)
	assert.Equal(t, 0, result.RiskScore)
	assert.Contains(t, result.Reason, "State Bank of India")

	result, err = v.VerifyLink(context.Background(), cqrs.VerifyLinkQuery{URL: "http://sbi-loans.info/apply"})
	require.NoError(t, err)
	assert.Equal(t, models.VerificationMalicious, result.Status)
	assert.Equal(t, 100, result.RiskScore)

	result, err = v.VerifyLink(context.Background(), cqrs.VerifyLinkQuery{URL: "https://sbi-loans.info./apply"})
	require.NoError(t, err)
	assert.Equal(t, models.VerificationMalicious, result.Status)

	assert.Empty(t, gen.prompts, "curated domains must not reach the model")
}

func TestVerifyLinkHeuristic(t *testing.T) {
	gen := &fakeGenerator{reply: "Here you go:\n```json\n{\"status\":\"Malicious\",\"riskScore\":92,\"reason\":\"Suspicious TLD and urgent wording.\"}\n```"}
	v := NewLinkVerifier(curated(), gen, time.Second)

	result, err := v.VerifyLink(context.Background(), cqrs.VerifyLinkQuery{URL: "https://instant-cash-now.xyz"})
	require.NoError(t, err)
	assert.Equal(t, &models.VerificationResult{Status: "Malicious", RiskScore: 92, Reason: "Suspicious TLD and urgent wording."}, result)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], `"https://instant-cash-now.xyz"`)
}

func TestVerifyLinkFallback(t *testing.T) {
	fallback := &models.VerificationResult{Status: models.VerificationSuspicious, RiskScore: 75, Reason: fallbackReason}

	tests := []struct {
		name string
		gen  ai.Generator
	}{
		{name: "generator unreachable", gen: &fakeGenerator{err: errors.New("dial tcp: connection refused")}},
		{name: "generator timeout", gen: &fakeGenerator{block: true}},
		{name: "generator disabled", gen: ai.Disabled{}},
		{name: "no json", gen: &fakeGenerator{reply: "I think it is fine."}},
		{name: "bad json", gen: &fakeGenerator{reply: `{"status": "Safe", "riskScore": }`}},
		{name: "legacy status", gen: &fakeGenerator{reply: `{"status":"Verified","riskScore":5,"reason":"ok"}`}},
		{name: "score out of range", gen: &fakeGenerator{reply: `{"status":"Safe","riskScore":140,"reason":"ok"}`}},
		{name: "missing score", gen: &fakeGenerator{reply: `{"status":"Safe","reason":"ok"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewLinkVerifier(curated(), tt.gen, 20*time.Millisecond)
			result, err := v.VerifyLink(context.Background(), cqrs.VerifyLinkQuery{URL: "https://unknown-lender.in"})
			require.NoError(t, err)
			assert.Equal(t, fallback, result)
		})
	}
}

func TestVerifyLinkErrors(t *testing.T) {
	v := NewLinkVerifier(curated(), &fakeGenerator{}, time.Second)
	_, err := v.VerifyLink(context.Background(), cqrs.VerifyLinkQuery{URL: "sbi.co.in"})
	assert.ErrorIs(t, err, errs.ErrInvalidURL)

	down := NewLinkVerifier(&fakeLookup{err: errs.Store("get loan link", errors.New("connection reset"))}, &fakeGenerator{}, time.Second)
	_, err = down.VerifyLink(context.Background(), cqrs.VerifyLinkQuery{URL: "https://sbi.co.in"})
	assert.ErrorIs(t, err, errs.ErrStoreUnavailable)
}
