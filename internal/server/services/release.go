package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrijs2005/legacykeeper/internal/checksum"
	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/dmitrijs2005/legacykeeper/internal/dbx"
	"github.com/dmitrijs2005/legacykeeper/internal/logging"
	"github.com/dmitrijs2005/legacykeeper/internal/server/auth"
	"github.com/dmitrijs2005/legacykeeper/internal/server/config"
	"github.com/dmitrijs2005/legacykeeper/internal/server/models"
	"github.com/dmitrijs2005/legacykeeper/internal/server/notify"
	"github.com/dmitrijs2005/legacykeeper/internal/server/repositories/repomanager"
)

// Outcome values reported per vault and per beneficiary in a Summary.
const (
	OutcomeWarned   = "warned"
	OutcomeReleased = "released"
	OutcomeNotDue   = "not_due"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
	OutcomeNotified = "notified"
	OutcomeResumed  = "resumed"
)

// releaseTokenBytes is the entropy of a release token before hex encoding.
const releaseTokenBytes = 32

// Summary is the structured result of one release cycle.
type Summary struct {
	WarningPhase PhaseSummary `json:"warningPhase"`
	ReleasePhase PhaseSummary `json:"releasePhase"`
}

type PhaseSummary struct {
	Processed int           `json:"processed"`
	Results   []VaultResult `json:"results"`
}

type VaultResult struct {
	VaultID       string              `json:"vaultId"`
	Outcome       string              `json:"outcome"`
	Error         string              `json:"error,omitempty"`
	Beneficiaries []BeneficiaryResult `json:"beneficiaries,omitempty"`
}

type BeneficiaryResult struct {
	BeneficiaryID  string `json:"beneficiaryId"`
	Outcome        string `json:"outcome"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
	Error          string `json:"error,omitempty"`
}

// ReleaseService drives vaults through active -> warning -> released.
// It keeps no state between runs; everything is read from the store, and
// overlapping runs are made safe by conditional updates and unique indexes
// rather than by locking.
type ReleaseService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	mailer      notify.Mailer
	shipper     notify.Shipper
	templates   *notify.Bundle
	log         logging.Logger

	jwtSecret           []byte
	linkValidity        time.Duration
	tokenValidity       time.Duration
	collaboratorTimeout time.Duration
	publicBaseURL       string
	defaultLanguage     string

	now      func() time.Time
	newToken func() (string, error)
}

// defaultCollaboratorTimeout applies when the config leaves the bound at zero.
const defaultCollaboratorTimeout = 10 * time.Second

func NewReleaseService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config,
	mailer notify.Mailer, shipper notify.Shipper, templates *notify.Bundle, log logging.Logger) *ReleaseService {
	timeout := cfg.CollaboratorTimeout
	if timeout <= 0 {
		timeout = defaultCollaboratorTimeout
	}
	return &ReleaseService{
		db:                  db,
		repomanager:         m,
		mailer:              mailer,
		shipper:             shipper,
		templates:           templates,
		log:                 log.With("module", "release"),
		jwtSecret:           []byte(cfg.SecretKey),
		linkValidity:        cfg.HeartbeatLinkValidityDuration,
		tokenValidity:       cfg.ReleaseTokenValidityDuration,
		collaboratorTimeout: timeout,
		publicBaseURL:       cfg.PublicBaseURL,
		defaultLanguage:     cfg.DefaultLanguage,
		now:                 func() time.Time { return time.Now().UTC() },
		newToken:            func() (string, error) { return common.MakeRandHexString(releaseTokenBytes) },
	}
}

// WithClock replaces the time source. Used by tests and by tooling that
// replays a cycle at a given instant.
func (s *ReleaseService) WithClock(now func() time.Time) *ReleaseService {
	s.now = now
	return s
}

// HashReleaseToken is the form a release token is stored and looked up in.
func HashReleaseToken(token string) string {
	return checksum.Sum([]byte(token))
}

// Run executes one cycle: the warning phase and then the release phase.
// Per-vault and per-beneficiary failures are recorded in the summary and
// logged; only a failure to read the candidate lists aborts the run.
func (s *ReleaseService) Run(ctx context.Context) (*Summary, error) {
	now := s.now()

	warning, err := s.runWarningPhase(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("warning phase: %w", err)
	}

	release, err := s.runReleasePhase(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("release phase: %w", err)
	}

	return &Summary{WarningPhase: *warning, ReleasePhase: *release}, nil
}

func (s *ReleaseService) runWarningPhase(ctx context.Context, now time.Time) (*PhaseSummary, error) {
	due, err := s.repomanager.Vaults(s.db).ListDueForWarning(ctx, now)
	if err != nil {
		return nil, err
	}

	out := &PhaseSummary{Results: make([]VaultResult, 0, len(due))}
	for _, v := range due {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out.Processed++
		out.Results = append(out.Results, s.warnVault(ctx, v, now))
	}
	return out, nil
}

func (s *ReleaseService) warnVault(ctx context.Context, v *models.Vault, now time.Time) VaultResult {
	res := VaultResult{VaultID: v.ID}
	log := s.log.With("vault_id", v.ID)

	if !v.HeartbeatDue(now) {
		res.Outcome = OutcomeNotDue
		return res
	}

	moved, err := dbx.WithTxResult(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (bool, error) {
		moved, err := s.repomanager.Vaults(tx).MarkWarning(ctx, v.ID, now)
		if err != nil || !moved {
			return false, err
		}
		_, err = s.repomanager.Events(tx).Append(ctx, &models.DeadManSwitchEvent{
			VaultID:   v.ID,
			Type:      models.EventWarningSent,
			CreatedAt: now,
		})
		return err == nil, err
	})
	if err != nil {
		log.Error(ctx, "warning transition failed", "error", err)
		res.Outcome = OutcomeFailed
		res.Error = err.Error()
		return res
	}
	if !moved {
		log.Info(ctx, "vault already warned or owner checked in, skipping")
		res.Outcome = OutcomeSkipped
		return res
	}

	res.Outcome = OutcomeWarned
	if err := s.sendWarning(ctx, v, now); err != nil {
		// the state change stands; a heartbeat still cancels it
		log.Error(ctx, "warning notification failed", "error", err)
		res.Error = err.Error()
	} else {
		log.Info(ctx, "vault warned")
	}
	return res
}

func (s *ReleaseService) sendWarning(ctx context.Context, v *models.Vault, now time.Time) error {
	link, err := auth.GenerateToken(auth.PurposeHeartbeatLink, v.ID, "", s.jwtSecret, s.linkValidity, now)
	if err != nil {
		return err
	}

	msg, err := s.templates.Render(notify.TemplateHeartbeatWarning, s.language(v.Language), notify.WarningData{
		FrequencyDays: v.HeartbeatFrequencyDays,
		GraceDays:     v.GracePeriodDays,
		ConfirmURL:    s.publicBaseURL + "/heartbeat?token=" + url.QueryEscape(link),
	})
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, s.collaboratorTimeout)
	defer cancel()
	return s.mailer.Send(cctx, v.OwnerEmail, msg)
}

func (s *ReleaseService) runReleasePhase(ctx context.Context, now time.Time) (*PhaseSummary, error) {
	warned, err := s.repomanager.Vaults(s.db).ListByStatus(ctx, models.VaultWarning)
	if err != nil {
		return nil, err
	}

	out := &PhaseSummary{Results: make([]VaultResult, 0, len(warned))}
	seen := make(map[string]struct{}, len(warned))
	for _, v := range warned {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seen[v.ID] = struct{}{}
		out.Processed++
		out.Results = append(out.Results, s.releaseVault(ctx, v, now))
	}

	// beneficiaries left pending by an earlier partial failure
	unfinished, err := s.repomanager.Vaults(s.db).ListReleasedWithPending(ctx)
	if err != nil {
		return nil, err
	}
	for _, v := range unfinished {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, ok := seen[v.ID]; ok {
			continue
		}
		out.Processed++
		out.Results = append(out.Results, s.resumeVault(ctx, v, now))
	}
	return out, nil
}

func (s *ReleaseService) resumeVault(ctx context.Context, v *models.Vault, now time.Time) VaultResult {
	res := VaultResult{VaultID: v.ID, Outcome: OutcomeResumed}

	pending, err := s.repomanager.Beneficiaries(s.db).ListPending(ctx, v.ID)
	if err != nil {
		s.log.Error(ctx, "listing beneficiaries failed", "vault_id", v.ID, "error", err)
		res.Outcome = OutcomeFailed
		res.Error = err.Error()
		return res
	}
	for _, b := range pending {
		res.Beneficiaries = append(res.Beneficiaries, s.releaseBeneficiary(ctx, v, b, now))
	}
	s.log.Info(ctx, "resumed released vault", "vault_id", v.ID, "beneficiaries", len(pending))
	return res
}

// warnedAt returns the start of the grace period: the time of the most
// recent warning_sent event, or the last status change if the log has none.
func (s *ReleaseService) warnedAt(ctx context.Context, v *models.Vault) (time.Time, error) {
	e, err := s.repomanager.Events(s.db).Latest(ctx, v.ID, models.EventWarningSent)
	if errors.Is(err, common.ErrorNotFound) {
		return v.UpdatedAt, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return e.CreatedAt, nil
}

func (s *ReleaseService) releaseVault(ctx context.Context, v *models.Vault, now time.Time) VaultResult {
	res := VaultResult{VaultID: v.ID}
	log := s.log.With("vault_id", v.ID)

	fail := func(msg string, err error) VaultResult {
		log.Error(ctx, msg, "error", err)
		res.Outcome = OutcomeFailed
		res.Error = err.Error()
		return res
	}

	warnedAt, err := s.warnedAt(ctx, v)
	if err != nil {
		return fail("reading warning event failed", err)
	}
	if !v.GraceExpired(warnedAt, now) {
		res.Outcome = OutcomeNotDue
		return res
	}

	released, err := s.repomanager.Events(s.db).Exists(ctx, v.ID, models.EventAssetsReleased)
	if err != nil {
		return fail("release precondition check failed", err)
	}
	if released {
		log.Info(ctx, "vault already released, skipping", "reason", common.ErrAlreadyProcessed)
		res.Outcome = OutcomeSkipped
		return res
	}

	pending, err := s.repomanager.Beneficiaries(s.db).ListPending(ctx, v.ID)
	if err != nil {
		return fail("listing beneficiaries failed", err)
	}

	details, err := json.Marshal(releaseDetails{Beneficiaries: len(pending)})
	if err != nil {
		return fail("encoding release details failed", err)
	}

	// The vault is claimed before any token leaves the server. A heartbeat
	// landing after this point is refused, and one landing before it makes
	// the claim fail.
	claimed, err := dbx.WithTxResult(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (bool, error) {
		moved, err := s.repomanager.Vaults(tx).TransitionStatus(ctx, v.ID, models.VaultWarning, models.VaultReleased, now)
		if err != nil || !moved {
			return false, err
		}
		if _, err := s.repomanager.Events(tx).Append(ctx, &models.DeadManSwitchEvent{
			VaultID:   v.ID,
			Type:      models.EventAssetsReleased,
			Details:   string(details),
			CreatedAt: now,
		}); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return fail("release transition failed", err)
	}
	if !claimed {
		log.Info(ctx, "vault left warning before release, skipping")
		res.Outcome = OutcomeSkipped
		return res
	}

	// beneficiaries not reached here stay pending and are picked up by the
	// resume sweep of a later run
	for _, b := range pending {
		if err := ctx.Err(); err != nil {
			return fail("release cycle cancelled", err)
		}
		res.Beneficiaries = append(res.Beneficiaries, s.releaseBeneficiary(ctx, v, b, now))
	}

	log.Info(ctx, "vault released", "beneficiaries", len(pending))
	res.Outcome = OutcomeReleased
	return res
}

type releaseDetails struct {
	Beneficiaries int `json:"beneficiaries"`
}

// releaseBeneficiary mints the token, orders a shipment when configured and
// notifies one beneficiary. The shipment is ordered only by the run that
// won the mint, so overlapping runs cannot both call the shipper. Errors
// are logged and reported but never returned, so one beneficiary cannot
// hold up the others or the vault transition.
func (s *ReleaseService) releaseBeneficiary(ctx context.Context, v *models.Vault, b *models.Beneficiary, now time.Time) BeneficiaryResult {
	res := BeneficiaryResult{BeneficiaryID: b.ID}
	log := s.log.With("vault_id", v.ID, "beneficiary_id", b.ID)

	token, err := s.newToken()
	if err != nil {
		log.Error(ctx, "token generation failed", "error", err)
		res.Outcome = OutcomeFailed
		res.Error = err.Error()
		return res
	}
	expiresAt := now.Add(s.tokenValidity)

	minted, err := s.repomanager.Beneficiaries(s.db).MarkNotified(ctx, b.ID, HashReleaseToken(token), expiresAt)
	if err != nil {
		log.Error(ctx, "storing release token failed", "error", err)
		res.Outcome = OutcomeFailed
		res.Error = err.Error()
		return res
	}
	if !minted {
		log.Info(ctx, "beneficiary already notified, skipping")
		res.Outcome = OutcomeSkipped
		return res
	}
	res.Outcome = OutcomeNotified

	var errs []error
	if v.PhysicalDelivery && b.Address.Complete() {
		tracking, err := s.ensureShipment(ctx, v, b)
		if err != nil {
			log.Error(ctx, "shipment failed", "error", err)
			errs = append(errs, err)
		}
		res.TrackingNumber = tracking
	}

	if err := s.sendRelease(ctx, b, token, expiresAt); err != nil {
		log.Error(ctx, "release notification failed", "error", err)
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		res.Error = err.Error()
	} else {
		log.Info(ctx, "beneficiary notified")
	}
	return res
}

// ensureShipment returns the tracking number of the beneficiary's shipment,
// ordering one only if none is on record.
func (s *ReleaseService) ensureShipment(ctx context.Context, v *models.Vault, b *models.Beneficiary) (string, error) {
	repo := s.repomanager.Shipments(s.db)

	existing, err := repo.GetByBeneficiary(ctx, b.ID)
	if err == nil {
		s.log.Info(ctx, "shipment already on record, skipping", "beneficiary_id", b.ID, "order_id", existing.OrderID)
		return existing.TrackingNumber, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return "", err
	}

	cctx, cancel := context.WithTimeout(ctx, s.collaboratorTimeout)
	defer cancel()
	out, err := s.shipper.CreateShipment(cctx, notify.ShipmentRequest{
		BeneficiaryID: b.ID,
		Name:          b.Name,
		Address:       b.Address,
		Description:   "recovery document",
	})
	if err != nil {
		return "", err
	}

	if err := repo.Create(ctx, &models.Shipment{
		BeneficiaryID:  b.ID,
		VaultID:        v.ID,
		TrackingNumber: out.TrackingNumber,
		OrderID:        out.OrderID,
	}); err != nil {
		return out.TrackingNumber, fmt.Errorf("recording shipment %s: %w", out.OrderID, err)
	}
	return out.TrackingNumber, nil
}

func (s *ReleaseService) sendRelease(ctx context.Context, b *models.Beneficiary, token string, expiresAt time.Time) error {
	msg, err := s.templates.Render(notify.TemplateBeneficiaryRelease, s.language(b.Language), notify.ReleaseData{
		BeneficiaryName: b.Name,
		ReleaseToken:    token,
		ExpiresAt:       expiresAt,
		UnlockURL:       s.publicBaseURL + "/unlock",
	})
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, s.collaboratorTimeout)
	defer cancel()
	return s.mailer.Send(cctx, b.Email, msg)
}

func (s *ReleaseService) language(l string) string {
	if l == "" {
		return s.defaultLanguage
	}
	return l
}
