package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"project_outreach/internal/apperrors"
	"project_outreach/internal/config"
	"project_outreach/internal/entities"
	"project_outreach/internal/interfaces"
	"project_outreach/internal/segments"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type DispatchRequest struct {
	Account       *entities.Account
	Channel       entities.Channel
	Audience      AudienceSelector
	Body          string
	MaxRecipients int // 0 means the configured default
}

type DispatchResult struct {
	RecordID     string        `json:"record_id"`
	Attempted    int           `json:"attempted"`
	Succeeded    int           `json:"succeeded"`
	Failed       int           `json:"failed"`
	ErrorSummary *string       `json:"error_summary"`
	Failures     []SendFailure `json:"failures,omitempty"`
}

// DispatcherDeps are the collaborators of a BroadcastDispatcher. Locker
// and Pacer may be nil.
type DispatcherDeps struct {
	Broadcasts  interfaces.BroadcastStore
	Mappings    interfaces.ChannelMappingStore
	Provisioner interfaces.SenderProvisioner
	Locker      interfaces.TenantLocker
	Pacer       interfaces.SendPacer
	Senders     map[entities.Channel]interfaces.ChannelSender
	Audience    *AudienceFinder
	Quota       *QuotaGuard
	Policy      *SegmentPolicy
}

// BroadcastDispatcher sends one message to a segment and writes one
// audit record per dispatch.
type BroadcastDispatcher struct {
	deps DispatcherDeps
	cfg  config.BroadcastConfig
	now  func() time.Time
	log  *zap.Logger
}

func NewBroadcastDispatcher(deps DispatcherDeps, cfg config.BroadcastConfig, log *zap.Logger) *BroadcastDispatcher {
	return &BroadcastDispatcher{deps: deps, cfg: cfg, now: time.Now, log: log}
}

func (d *BroadcastDispatcher) validate(req *DispatchRequest, c segments.Classifier) error {
	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" {
		return apperrors.Validation("Message body is required.")
	}
	if n := utf8.RuneCountInString(req.Body); n > d.cfg.MaxBodyLength {
		return apperrors.Validation(fmt.Sprintf("Message body is %d characters; the limit is %d.", n, d.cfg.MaxBodyLength))
	}
	if !req.Channel.Valid() {
		return apperrors.Validation(fmt.Sprintf("Unknown channel %q.", req.Channel))
	}
	if req.MaxRecipients < 0 {
		return apperrors.Validation("maxRecipients must not be negative.")
	}
	if err := req.Audience.Validate(c); err != nil {
		return err
	}
	if req.Channel == entities.ChannelTelegram && req.Audience.Filter != segments.FilterAll {
		return apperrors.Validation("Filters apply to SMS broadcasts only; Telegram posts go to the segment's channel.")
	}
	return nil
}

// recipientCap applies the caller's cap bounded by the system maximum.
func (d *BroadcastDispatcher) recipientCap(requested int) int {
	if requested == 0 {
		requested = d.cfg.DefaultMaxRecipients
	}
	return min(requested, d.cfg.AbsoluteMaxRecipients)
}

func (d *BroadcastDispatcher) sender(ch entities.Channel) (interfaces.ChannelSender, error) {
	s, ok := d.deps.Senders[ch]
	if !ok || s == nil {
		return nil, apperrors.NotAllowed(fmt.Sprintf("%s sending is not enabled.", ch))
	}
	return s, nil
}

// Dispatch validates, selects, authorizes and sends. Per-recipient
// failures never fail the call; they are counted in the result.
func (d *BroadcastDispatcher) Dispatch(ctx context.Context, req DispatchRequest) (res *DispatchResult, err error) {
	acc := req.Account
	if acc == nil {
		return nil, apperrors.NotFound()
	}
	ctx, span := tracer.Start(ctx, "broadcast.dispatch", trace.WithAttributes(
		attribute.String("account_id", acc.ID),
		attribute.String("channel", string(req.Channel)),
		attribute.String("audience", req.Audience.Key()),
	))
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(apperrors.CodeOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			d.log.Info("broadcast rejected",
				zap.String("account_id", acc.ID),
				zap.String("channel", string(req.Channel)),
				zap.String("audience", req.Audience.Key()),
				zap.String("code", outcome),
				zap.Error(err),
			)
		}
		BroadcastDispatches.WithLabelValues(string(req.Channel), outcome).Inc()
		span.End()
	}()

	classifier, err := d.deps.Policy.Classifier(ctx, acc)
	if err != nil {
		return nil, err
	}
	if err := d.validate(&req, classifier); err != nil {
		return nil, err
	}

	switch req.Channel {
	case entities.ChannelTelegram:
		return d.dispatchTelegram(ctx, req)
	default:
		return d.dispatchSMS(ctx, req, classifier)
	}
}

func (d *BroadcastDispatcher) dispatchTelegram(ctx context.Context, req DispatchRequest) (*DispatchResult, error) {
	acc := req.Account
	mapping, err := d.deps.Mappings.Find(ctx, acc.ID, req.Audience.Segment)
	if err != nil {
		return nil, fmt.Errorf("find channel mapping: %w", err)
	}
	if mapping == nil {
		return nil, apperrors.ChannelNotConfigured(req.Audience.Segment)
	}
	sender, err := d.sender(entities.ChannelTelegram)
	if err != nil {
		return nil, err
	}

	tally := d.fanOut(ctx, acc.ID, entities.ChannelTelegram, sender, "", req.Body,
		[]Recipient{{ContactID: "channel:" + mapping.Segment, Address: mapping.ChatID}})
	return d.record(ctx, req, sender.Provider(), tally)
}

func (d *BroadcastDispatcher) dispatchSMS(ctx context.Context, req DispatchRequest, c segments.Classifier) (*DispatchResult, error) {
	acc := req.Account
	sender, err := d.sender(entities.ChannelSMS)
	if err != nil {
		return nil, err
	}

	recipients, err := d.deps.Audience.Find(ctx, acc.ID, c, req.Audience, entities.ChannelSMS, d.now(), d.recipientCap(req.MaxRecipients))
	if err != nil {
		return nil, err
	}

	// Without a locker two dispatches can both pass Authorize against the
	// same usage and overrun the quota by one batch.
	if d.deps.Locker != nil {
		release, err := d.deps.Locker.Acquire(ctx, acc.ID)
		if errors.Is(err, interfaces.ErrLockBusy) {
			return nil, apperrors.DispatchInProgress()
		}
		if err != nil {
			return nil, fmt.Errorf("acquire tenant lock: %w", err)
		}
		defer release()
	}

	if _, err := d.deps.Quota.Authorize(ctx, acc.ID, len(recipients)); err != nil {
		return nil, err
	}

	from := acc.SenderNumber
	if from == "" {
		from, err = d.deps.Provisioner.SenderNumber(ctx, acc.ID)
		if err != nil {
			return nil, apperrors.ProvisioningFailure(err)
		}
	}

	tally := d.fanOut(ctx, acc.ID, entities.ChannelSMS, sender, from, req.Body, recipients)
	return d.record(ctx, req, sender.Provider(), tally)
}

// fanOut sends body to every recipient with a bounded pool and returns
// once every worker has finished. The whole phase is bounded by
// DeadlineBase plus DeadlinePerRecipient per recipient; recipients not
// started by then are failures.
func (d *BroadcastDispatcher) fanOut(ctx context.Context, accountID string, ch entities.Channel, sender interfaces.ChannelSender, from, body string, recipients []Recipient) Tally {
	started := time.Now()
	BroadcastsActive.Inc()
	defer func() {
		BroadcastsActive.Dec()
		BroadcastDuration.WithLabelValues(string(ch)).Observe(time.Since(started).Seconds())
	}()

	deadline := d.cfg.DeadlineBase + time.Duration(len(recipients))*d.cfg.DeadlinePerRecipient
	dctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	outcomes := make([]SendOutcome, len(recipients))
	var g errgroup.Group
	g.SetLimit(d.cfg.Workers)

	for i, r := range recipients {
		i, r := i, r
		if dctx.Err() != nil {
			outcomes[i] = SendOutcome{ContactID: r.ContactID, Err: errNotAttempted}
			continue
		}
		g.Go(func() error {
			outcomes[i] = d.sendOne(dctx, accountID, ch, sender, from, body, r)
			return nil
		})
	}
	_ = g.Wait()

	var tally Tally
	for _, o := range outcomes {
		tally.Add(o)
	}
	BroadcastMessages.WithLabelValues(string(ch), "succeeded").Add(float64(tally.Succeeded))
	BroadcastMessages.WithLabelValues(string(ch), "failed").Add(float64(tally.Failed))
	return tally
}

func (d *BroadcastDispatcher) sendOne(ctx context.Context, accountID string, ch entities.Channel, sender interfaces.ChannelSender, from, body string, r Recipient) SendOutcome {
	if ctx.Err() != nil {
		return SendOutcome{ContactID: r.ContactID, Err: errNotAttempted}
	}
	if d.deps.Pacer != nil {
		if err := d.deps.Pacer.Wait(ctx, accountID); err != nil {
			return SendOutcome{ContactID: r.ContactID, Err: errNotAttempted}
		}
	}

	sctx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()

	err := sender.Send(sctx, entities.OutboundMessage{
		AccountID: accountID,
		Channel:   ch,
		From:      from,
		To:        r.Address,
		Body:      body,
	})
	if err != nil {
		d.log.Debug("send failed",
			zap.String("account_id", accountID),
			zap.String("contact_id", r.ContactID),
			zap.Error(err),
		)
	}
	return SendOutcome{ContactID: r.ContactID, Err: err}
}

// record writes the audit row. It runs after the barrier in fanOut and
// survives cancellation of the request, since the sends already
// happened and must count against the quota.
func (d *BroadcastDispatcher) record(ctx context.Context, req DispatchRequest, provider string, tally Tally) (*DispatchResult, error) {
	rec := &entities.BroadcastRecord{
		AccountID:    req.Account.ID,
		Channel:      req.Channel,
		AudienceKey:  req.Audience.Key(),
		Body:         req.Body,
		Attempted:    tally.Attempted(),
		Succeeded:    tally.Succeeded,
		Failed:       tally.Failed,
		Provider:     provider,
		ErrorSummary: tally.Summary(),
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.RecordWriteTimeout)
	defer cancel()

	res := &DispatchResult{
		Attempted:    rec.Attempted,
		Succeeded:    rec.Succeeded,
		Failed:       rec.Failed,
		ErrorSummary: rec.ErrorSummary,
		Failures:     tally.Failures,
	}
	if err := d.deps.Broadcasts.Insert(wctx, rec); err != nil {
		d.log.Error("broadcast sent but record not saved",
			zap.String("account_id", rec.AccountID),
			zap.Int("succeeded", rec.Succeeded),
			zap.Error(err),
		)
		return res, apperrors.Wrap(apperrors.ErrCodeInternal, "Broadcast was sent but could not be logged", err)
	}
	res.RecordID = rec.ID

	d.log.Info("broadcast dispatched",
		zap.String("account_id", rec.AccountID),
		zap.String("record_id", rec.ID),
		zap.String("channel", string(rec.Channel)),
		zap.String("audience", rec.AudienceKey),
		zap.Int("attempted", rec.Attempted),
		zap.Int("succeeded", rec.Succeeded),
		zap.Int("failed", rec.Failed),
	)
	return res, nil
}

// ActivateSMS provisions the tenant's sending number ahead of the first
// broadcast.
func (d *BroadcastDispatcher) ActivateSMS(ctx context.Context, acc *entities.Account) (string, error) {
	if acc.SenderNumber != "" {
		return acc.SenderNumber, nil
	}
	number, err := d.deps.Provisioner.SenderNumber(ctx, acc.ID)
	if err != nil {
		return "", apperrors.ProvisioningFailure(err)
	}
	d.log.Info("sms sender provisioned", zap.String("account_id", acc.ID), zap.String("number", number))
	return number, nil
}
