package generation

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"nanogallery/internal/domain"  // Domain models and error taxonomy
	"nanogallery/internal/gemini"  // Image model client types
	"nanogallery/internal/ledger"  // Credit ledger contract
	"nanogallery/internal/storage" // Durable object store

	"github.com/sirupsen/logrus" // Logging library
)

// CreditLedger is the slice of the ledger the orchestrator needs
type CreditLedger interface {
	Authorize(accountID uint, cost int) (bool, *ledger.Balance, error)
	Debit(accountID uint, cost int) (int, error)
	Provision(accountID uint, name string) (*domain.Account, error)
}

// ImageModel is the external generative model: one call, zero or one image
type ImageModel interface {
	GenerateImage(ctx context.Context, req gemini.ImageRequest) ([]byte, string, error)
}

// Orchestrator runs the credit-metered generation workflow: validate, price,
// authorize, fan out model calls, persist artifacts, settle the ledger once.
type Orchestrator struct {
	ledger         CreditLedger  // Credit authority
	model          ImageModel    // External model; nil when credentials are missing
	store          storage.Store // Artifact persistence
	timeout        time.Duration // Per-image model call timeout
	proratePartial bool          // Charge only delivered images on partial success
}

// NewOrchestrator wires the workflow with explicitly constructed collaborators
func NewOrchestrator(l CreditLedger, model ImageModel, store storage.Store, timeout time.Duration, proratePartial bool) *Orchestrator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Orchestrator{
		ledger:         l,
		model:          model,
		store:          store,
		timeout:        timeout,
		proratePartial: proratePartial,
	}
}

// Request is one generation request from an authenticated account
type Request struct {
	AccountID   uint                     // Authenticated caller, zero means unauthorized
	AccountName string                   // Display name, used for lazy ledger provisioning
	Prompt      string                   // Non-empty text prompt
	AspectRatio string                   // One of the fixed aspect ratios
	Quality     string                   // Quality tier driving per-image cost
	ImageCount  int                      // Requested images, clamped to [1,3]
	References  []domain.ReferenceImage  // Optional reference images
}

// Artifact is one delivered image: inline payload plus its durable URL
type Artifact struct {
	Base64 string `json:"base64"` // data URL with the image payload
	URL    string `json:"url"`    // Durable public URL
}

// Result is the outcome of a successful (possibly partial) request
type Result struct {
	Images           []Artifact `json:"images"`            // Delivered artifacts, in dispatch order
	Requested        int        `json:"requested"`         // Images asked for after clamping
	Delivered        int        `json:"delivered"`         // Images actually persisted
	Cost             int        `json:"cost"`              // Credits charged
	RemainingCredits int        `json:"remaining_credits"` // Balance after settling
}

// Generate runs the full workflow for one request. Per-image failures are
// absorbed; only a batch with zero persisted images fails. The ledger is
// debited exactly once, after persistence, never before.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (*Result, error) {
	// Received: the caller must be an authenticated account
	if req.AccountID == 0 {
		return nil, domain.ErrUnauthorized
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt must not be empty", domain.ErrValidation)
	}
	if req.AspectRatio == "" {
		req.AspectRatio = domain.AspectSquare
	}
	if !domain.ValidAspectRatio(req.AspectRatio) {
		return nil, fmt.Errorf("%w: unknown aspect ratio %q", domain.ErrValidation, req.AspectRatio)
	}
	if req.Quality == "" {
		req.Quality = domain.QualityStandard
	}
	imageSize := domain.ImageSize(req.Quality)
	if imageSize == "" {
		return nil, fmt.Errorf("%w: unknown quality tier %q", domain.ErrValidation, req.Quality)
	}
	count := ClampImageCount(req.ImageCount)
	cost := Cost(req.Quality, count)

	// Authorized: price the batch and check the ledger, no mutation yet
	ok, bal, err := o.ledger.Authorize(req.AccountID, cost)
	if errors.Is(err, domain.ErrNotFound) {
		// Self-heal a missing ledger row, then check again
		if _, err := o.ledger.Provision(req.AccountID, req.AccountName); err != nil {
			return nil, err
		}
		ok, bal, err = o.ledger.Authorize(req.AccountID, cost)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &domain.InsufficientCreditsError{Needed: cost, Available: bal.Credits}
	}
	if o.model == nil {
		return nil, domain.ErrModelUnavailable
	}

	// Dispatched: independent model calls in parallel, one per image. Each
	// branch persists its own artifact after the call resolves; failures are
	// recorded as gaps and never abort the sibling branches.
	refs := make([]gemini.ReferenceImage, len(req.References))
	for i, r := range req.References {
		refs[i] = gemini.ReferenceImage{MimeType: r.MimeType, Base64: r.Base64}
	}
	slots := make([]*Artifact, count)
	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, o.timeout)
			defer cancel()
			data, mimeType, err := o.model.GenerateImage(callCtx, gemini.ImageRequest{
				Prompt:      prompt,
				AspectRatio: req.AspectRatio,
				ImageSize:   imageSize,
				References:  refs,
			})
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"account_id": req.AccountID, // Requesting account
					"slot":       slot,          // Position in the batch
					"error":      err.Error(),   // Model call failure
				}).Warn("Image attempt skipped")
				return
			}
			key := storage.ObjectKey(req.AccountID)
			url, err := o.store.Upload(ctx, key, data, mimeType)
			if err != nil {
				// StorageFailed is absorbed per image
				logrus.WithFields(logrus.Fields{
					"account_id": req.AccountID, // Requesting account
					"slot":       slot,          // Position in the batch
					"key":        key,           // Attempted object key
					"error":      err.Error(),   // Upload failure
				}).Warn("Image upload skipped")
				return
			}
			slots[slot] = &Artifact{
				Base64: domain.DataURL(mimeType, base64.StdEncoding.EncodeToString(data)),
				URL:    url,
			}
		}(i)
	}
	wg.Wait()

	// Outcome decision: compact delivered artifacts in dispatch order
	images := make([]Artifact, 0, count)
	for _, a := range slots {
		if a != nil {
			images = append(images, *a)
		}
	}
	if len(images) == 0 {
		// Nothing persisted, nothing charged
		return nil, fmt.Errorf("%w: all %d image attempts failed", domain.ErrGenerationFailed, count)
	}

	// Settled: charge once, after persistence. Default policy charges the full
	// originally computed cost even on partial success.
	charge := cost
	if o.proratePartial {
		charge = PerImageCost(req.Quality) * len(images)
	}
	remaining, err := o.ledger.Debit(req.AccountID, charge)
	if err != nil {
		// Artifacts are already delivered; accounting lags rather than rolling back
		logrus.WithFields(logrus.Fields{
			"account_id": req.AccountID, // Requesting account
			"cost":       charge,        // Charge that failed to apply
			"error":      err.Error(),   // Debit failure
		}).Error("Ledger debit failed after delivery")
		remaining = bal.Credits
	}
	logrus.WithFields(logrus.Fields{
		"account_id": req.AccountID, // Requesting account
		"requested":  count,         // Images asked for
		"delivered":  len(images),   // Images persisted
		"cost":       charge,        // Credits charged
	}).Info("Generation settled")
	return &Result{
		Images:           images,
		Requested:        count,
		Delivered:        len(images),
		Cost:             charge,
		RemainingCredits: remaining,
	}, nil
}
