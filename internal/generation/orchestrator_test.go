package generation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"nanogallery/internal/domain"
	"nanogallery/internal/gemini"
	"nanogallery/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLedger implements CreditLedger in memory
type fakeLedger struct {
	mu          sync.Mutex
	role        string
	credits     int
	missing     bool  // Simulates an absent ledger row until provisioned
	debits      []int // Recorded debit amounts
	failDebit   error // Forced debit failure
	provisioned bool
}

func (f *fakeLedger) Authorize(accountID uint, cost int) (bool, *ledger.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing && !f.provisioned {
		return false, nil, domain.ErrNotFound
	}
	bal := &ledger.Balance{Role: f.role, Credits: f.credits}
	if f.role == domain.RoleAdmin {
		return true, bal, nil
	}
	return f.credits >= cost, bal, nil
}

func (f *fakeLedger) Debit(accountID uint, cost int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDebit != nil {
		return 0, f.failDebit
	}
	f.debits = append(f.debits, cost)
	if f.role != domain.RoleAdmin {
		f.credits -= cost
		if f.credits < 0 {
			f.credits = 0
		}
	}
	return f.credits, nil
}

func (f *fakeLedger) Provision(accountID uint, name string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.provisioned = true
	return &domain.Account{ID: accountID, Name: name, Role: f.role, Credits: f.credits}, nil
}

// fakeModel answers each call through the supplied function, tracking invocations
type fakeModel struct {
	calls    atomic.Int32
	generate func(call int32, req gemini.ImageRequest) ([]byte, string, error)
}

func (f *fakeModel) GenerateImage(_ context.Context, req gemini.ImageRequest) ([]byte, string, error) {
	call := f.calls.Add(1)
	return f.generate(call, req)
}

// fakeStore records uploads and returns deterministic URLs
type fakeStore struct {
	mu      sync.Mutex
	uploads int
	fail    bool
}

func (f *fakeStore) Upload(_ context.Context, key string, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", fmt.Errorf("%w: bucket rejected upload", domain.ErrStorageFailed)
	}
	f.uploads++
	return "https://cdn.example.com/" + key, nil
}

func okModel() *fakeModel {
	return &fakeModel{generate: func(_ int32, _ gemini.ImageRequest) ([]byte, string, error) {
		return []byte{0xAA, 0xBB}, "image/png", nil
	}}
}

func newTestOrchestrator(l CreditLedger, m ImageModel, s *fakeStore) *Orchestrator {
	return NewOrchestrator(l, m, s, 5*time.Second, false)
}

func TestGenerate_RejectsAnonymousCaller(t *testing.T) {
	orch := newTestOrchestrator(&fakeLedger{role: domain.RoleUser, credits: 10}, okModel(), &fakeStore{})
	_, err := orch.Generate(context.Background(), Request{AccountID: 0, Prompt: "a cat"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestGenerate_RejectsEmptyPrompt(t *testing.T) {
	lgr := &fakeLedger{role: domain.RoleUser, credits: 10}
	orch := newTestOrchestrator(lgr, okModel(), &fakeStore{})
	_, err := orch.Generate(context.Background(), Request{AccountID: 1, Prompt: "   "})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, lgr.debits)
}

func TestGenerate_RejectsUnknownAspectRatioAndQuality(t *testing.T) {
	lgr := &fakeLedger{role: domain.RoleUser, credits: 10}
	orch := newTestOrchestrator(lgr, okModel(), &fakeStore{})

	_, err := orch.Generate(context.Background(), Request{AccountID: 1, Prompt: "a cat", AspectRatio: "2:3"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = orch.Generate(context.Background(), Request{AccountID: 1, Prompt: "a cat", Quality: "potato"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGenerate_InsufficientCredits(t *testing.T) {
	lgr := &fakeLedger{role: domain.RoleUser, credits: 2}
	orch := newTestOrchestrator(lgr, okModel(), &fakeStore{})
	_, err := orch.Generate(context.Background(), Request{
		AccountID:  1,
		Prompt:     "a cat",
		Quality:    domain.QualityUltra,
		ImageCount: 1,
	})
	var insufficient *domain.InsufficientCreditsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 4, insufficient.Needed)
	assert.Equal(t, 2, insufficient.Available)
	assert.Equal(t, 2, lgr.credits, "balance must be unchanged")
	assert.Empty(t, lgr.debits)
}

func TestGenerate_ModelUnavailableWithoutClient(t *testing.T) {
	lgr := &fakeLedger{role: domain.RoleUser, credits: 10}
	orch := newTestOrchestrator(lgr, nil, &fakeStore{})
	_, err := orch.Generate(context.Background(), Request{AccountID: 1, Prompt: "a cat"})
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.Empty(t, lgr.debits)
}

func TestGenerate_FullSuccess(t *testing.T) {
	lgr := &fakeLedger{role: domain.RoleUser, credits: 10}
	store := &fakeStore{}
	orch := newTestOrchestrator(lgr, okModel(), store)

	res, err := orch.Generate(context.Background(), Request{
		AccountID:  1,
		Prompt:     "a cat",
		Quality:    domain.QualityHigh,
		ImageCount: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Requested)
	assert.Equal(t, 3, res.Delivered)
	assert.Len(t, res.Images, 3)
	assert.Equal(t, 6, res.Cost)
	assert.Equal(t, 4, res.RemainingCredits)
	assert.Equal(t, []int{6}, lgr.debits, "exactly one debit for the batch")
	assert.Equal(t, 3, store.uploads)
	for _, img := range res.Images {
		assert.Contains(t, img.Base64, "data:image/png;base64,")
		assert.Contains(t, img.URL, "https://cdn.example.com/1/")
	}
}

func TestGenerate_PartialSuccessChargesFullCost(t *testing.T) {
	lgr := &fakeLedger{role: domain.RoleUser, credits: 10}
	model := &fakeModel{generate: func(call int32, _ gemini.ImageRequest) ([]byte, string, error) {
		if call == 2 {
			return nil, "", errors.New("model timeout")
		}
		return []byte{0x01}, "image/png", nil
	}}
	orch := newTestOrchestrator(lgr, model, &fakeStore{})

	res, err := orch.Generate(context.Background(), Request{
		AccountID:  1,
		Prompt:     "a cat",
		Quality:    domain.QualityStandard,
		ImageCount: 3,
	})
	require.NoError(t, err, "a partial batch is not an error")
	assert.Equal(t, 3, res.Requested)
	assert.Equal(t, 2, res.Delivered)
	assert.Len(t, res.Images, 2)
	assert.Equal(t, 3, res.Cost, "full 3-image cost despite 2 delivered")
	assert.Equal(t, []int{3}, lgr.debits)
}

func TestGenerate_PartialSuccessProratedWhenConfigured(t *testing.T) {
	lgr := &fakeLedger{role: domain.RoleUser, credits: 10}
	model := &fakeModel{generate: func(call int32, _ gemini.ImageRequest) ([]byte, string, error) {
		if call == 1 {
			return nil, "", gemini.ErrNoImage
		}
		return []byte{0x01}, "image/png", nil
	}}
	orch := NewOrchestrator(lgr, model, &fakeStore{}, 5*time.Second, true)

	res, err := orch.Generate(context.Background(), Request{
		AccountID:  1,
		Prompt:     "a cat",
		Quality:    domain.QualityUltra,
		ImageCount: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Delivered)
	assert.Equal(t, 8, res.Cost, "prorated: 4 credits per delivered image")
	assert.Equal(t, []int{8}, lgr.debits)
}

func TestGenerate_ZeroSuccessFailsWithoutDebit(t *testing.T) {
	lgr := &fakeLedger{role: domain.RoleUser, credits: 10}
	model := &fakeModel{generate: func(_ int32, _ gemini.ImageRequest) ([]byte, string, error) {
		return nil, "", gemini.ErrNoImage
	}}
	orch := newTestOrchestrator(lgr, model, &fakeStore{})

	_, err := orch.Generate(context.Background(), Request{
		AccountID:  1,
		Prompt:     "a cat",
		ImageCount: 3,
	})
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.Equal(t, 10, lgr.credits, "balance must be unchanged")
	assert.Empty(t, lgr.debits)
}

func TestGenerate_StorageFailureEscalatesOnlyWhenTotal(t *testing.T) {
	lgr := &fakeLedger{role: domain.RoleUser, credits: 10}
	store := &fakeStore{fail: true}
	orch := newTestOrchestrator(lgr, okModel(), store)

	_, err := orch.Generate(context.Background(), Request{
		AccountID:  1,
		Prompt:     "a cat",
		ImageCount: 2,
	})
	assert.ErrorIs(t, err, domain.ErrGenerationFailed, "all uploads lost means the batch failed")
	assert.Empty(t, lgr.debits)
}

func TestGenerate_ImageCountClamped(t *testing.T) {
	lgr := &fakeLedger{role: domain.RoleUser, credits: 100}
	model := okModel()
	orch := newTestOrchestrator(lgr, model, &fakeStore{})

	res, err := orch.Generate(context.Background(), Request{
		AccountID:  1,
		Prompt:     "a cat",
		ImageCount: 9,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Requested, "count is clamped, not rejected")
	assert.Equal(t, int32(3), model.calls.Load())

	res, err = orch.Generate(context.Background(), Request{
		AccountID:  1,
		Prompt:     "a cat",
		ImageCount: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Requested)
}

func TestGenerate_AdminIsNeverDebited(t *testing.T) {
	lgr := &fakeLedger{role: domain.RoleAdmin, credits: 9999}
	orch := newTestOrchestrator(lgr, okModel(), &fakeStore{})

	res, err := orch.Generate(context.Background(), Request{
		AccountID:  1,
		Prompt:     "a cat",
		Quality:    domain.QualityUltra,
		ImageCount: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 9999, res.RemainingCredits)
	assert.Equal(t, 9999, lgr.credits)
}

func TestGenerate_ProvisionsMissingLedgerRow(t *testing.T) {
	lgr := &fakeLedger{role: domain.RoleUser, credits: 3, missing: true}
	orch := newTestOrchestrator(lgr, okModel(), &fakeStore{})

	res, err := orch.Generate(context.Background(), Request{
		AccountID:   7,
		AccountName: "fresh user",
		Prompt:      "a cat",
		ImageCount:  1,
	})
	require.NoError(t, err)
	assert.True(t, lgr.provisioned, "missing row must be self-healed")
	assert.Equal(t, 2, res.RemainingCredits)
}

func TestGenerate_DebitFailureStillDeliversArtifacts(t *testing.T) {
	lgr := &fakeLedger{role: domain.RoleUser, credits: 5, failDebit: errors.New("ledger write lost")}
	orch := newTestOrchestrator(lgr, okModel(), &fakeStore{})

	res, err := orch.Generate(context.Background(), Request{
		AccountID:  1,
		Prompt:     "a cat",
		ImageCount: 1,
	})
	require.NoError(t, err, "delivered artifacts are not rolled back on a debit failure")
	assert.Len(t, res.Images, 1)
	assert.Equal(t, 5, res.RemainingCredits, "balance reported from authorization time")
}

func TestGenerate_ReferenceImagesReachEveryCall(t *testing.T) {
	lgr := &fakeLedger{role: domain.RoleUser, credits: 10}
	var mu sync.Mutex
	var seen []gemini.ImageRequest
	model := &fakeModel{generate: func(_ int32, req gemini.ImageRequest) ([]byte, string, error) {
		mu.Lock()
		seen = append(seen, req)
		mu.Unlock()
		return []byte{0x01}, "image/png", nil
	}}
	orch := newTestOrchestrator(lgr, model, &fakeStore{})

	_, err := orch.Generate(context.Background(), Request{
		AccountID:   1,
		Prompt:      "a cat",
		AspectRatio: domain.AspectWide,
		Quality:     domain.QualityHigh,
		ImageCount:  2,
		References: []domain.ReferenceImage{
			{MimeType: "image/jpeg", Base64: "aGVsbG8="},
		},
	})
	require.NoError(t, err)
	require.Len(t, seen, 2)
	for _, req := range seen {
		assert.Equal(t, "a cat", req.Prompt)
		assert.Equal(t, domain.AspectWide, req.AspectRatio)
		assert.Equal(t, "2K", req.ImageSize)
		require.Len(t, req.References, 1)
		assert.Equal(t, "image/jpeg", req.References[0].MimeType)
	}
}
