package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/mail-dispatch/internal/domain"
	"github.com/ignite/mail-dispatch/internal/personalize"
	"github.com/ignite/mail-dispatch/internal/pkg/distlock"
	"github.com/ignite/mail-dispatch/internal/pkg/logger"
)

const (
	defaultDelay = 100 * time.Millisecond

	// defaultLockExtension must stay well under the lock TTL so a slow
	// run renews the lock before it can expire.
	defaultLockExtension = time.Minute
)

// Dispatcher coordinates campaign fan-out. Safe for concurrent use;
// jobs for different campaigns run as independent sequential loops.
type Dispatcher struct {
	recipients RecipientStore
	campaigns  CampaignStore
	sender     Sender
	lockFor    LockFactory
	delay      time.Duration
	lockExtend time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithDelay sets the pause inserted after every send. The pause applies
// after failures as well as successes to keep the request rate under
// the provider limit.
func WithDelay(d time.Duration) Option {
	return func(dp *Dispatcher) { dp.delay = d }
}

// WithLockFactory enables the per-campaign dispatch lock.
func WithLockFactory(f LockFactory) Option {
	return func(dp *Dispatcher) { dp.lockFor = f }
}

// WithLockExtension sets how often the dispatch loop renews the lock.
// Must be shorter than the lock TTL or the guard lapses on long runs.
func WithLockExtension(d time.Duration) Option {
	return func(dp *Dispatcher) { dp.lockExtend = d }
}

// New creates a dispatcher over the given stores and transport.
func New(recipients RecipientStore, campaigns CampaignStore, sender Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		recipients: recipients,
		campaigns:  campaigns,
		sender:     sender,
		delay:      defaultDelay,
		lockExtend: defaultLockExtension,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs one job to completion. Validation failures and an empty
// recipient set return an error with zero side effects. Once sending
// starts the caller always gets a Result: per-recipient failures are
// contained, the loop runs to the end of the recipient list, and the
// campaign is marked sent exactly once. Cancelling ctx stops further
// sends; recipients not yet attempted are recorded as failures and the
// job still finalizes, so the result accounts for everyone.
func (d *Dispatcher) Dispatch(ctx context.Context, job Job) (*Result, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	var lock distlock.DistLock
	if d.lockFor != nil {
		lock = d.lockFor(job.CampaignID)
		ok, err := lock.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire dispatch lock: %w", err)
		}
		if !ok {
			return nil, ErrDispatchInProgress
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("dispatch lock release failed", "campaign_id", job.CampaignID, "error", err)
			}
		}()
	}

	rcpts, err := d.recipients.ActiveRecipients(ctx, job.OrgID, job.SubscriberIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch recipients: %w", err)
	}
	if len(rcpts) == 0 {
		return nil, ErrNoRecipients
	}

	if err := d.campaigns.MarkSending(ctx, job.OrgID, job.CampaignID); err != nil {
		return nil, fmt.Errorf("mark campaign sending: %w", err)
	}

	// Each run gets its own id so overlapping campaigns can be told
	// apart in the logs.
	runID := uuid.New().String()
	logger.Info("dispatch started",
		"run_id", runID, "campaign_id", job.CampaignID, "recipients", len(rcpts))

	result := &Result{Total: len(rcpts)}
	lastExtend := time.Now()
	for _, r := range rcpts {
		if ctx.Err() != nil {
			result.recordFailure(r.Email, "dispatch cancelled before send")
			continue
		}

		// A long run outlives the lock TTL unless the lock is renewed
		// along the way. A failed renewal is logged but does not stop
		// the run; the guard degrades, the sends do not.
		if lock != nil && time.Since(lastExtend) >= d.lockExtend {
			if err := lock.Extend(ctx); err != nil {
				logger.Warn("dispatch lock extension failed",
					"campaign_id", job.CampaignID, "error", err)
			}
			lastExtend = time.Now()
		}

		res := d.sendOne(ctx, job, r)
		if res.Success {
			result.recordSuccess()
		} else {
			result.recordFailure(r.Email, res.Error)
		}

		d.pause(ctx)
	}

	// Finalization is unconditional: a completed attempt marks the
	// campaign sent even if every recipient failed. The counts carry
	// that distinction to the caller.
	if err := d.campaigns.MarkSent(context.WithoutCancel(ctx), job.OrgID, job.CampaignID); err != nil {
		logger.Error("mark campaign sent failed",
			"campaign_id", job.CampaignID, "error", err)
	}

	logger.Info("dispatch finished",
		"run_id", runID, "campaign_id", job.CampaignID,
		"total", result.Total, "sent", result.Sent, "failed", result.Failed)
	return result, nil
}

// sendOne personalizes and delivers one message. Anything thrown inside
// the per-recipient path, panics included, is downgraded to a failed
// result so the loop keeps going.
func (d *Dispatcher) sendOne(ctx context.Context, job Job, r domain.Recipient) (res *domain.SendResult) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("send panicked", "campaign_id", job.CampaignID, "email", r.Email, "panic", p)
			res = &domain.SendResult{Success: false, Error: fmt.Sprintf("internal error: %v", p)}
		}
	}()

	msg := personalize.Message(job.CampaignID, job.Subject, job.HTMLContent, job.TextContent,
		job.FromEmail, job.FromName, r)

	sent, err := d.sender.Send(ctx, msg)
	if err != nil {
		return &domain.SendResult{Success: false, Error: err.Error()}
	}
	if sent == nil {
		// A transport that returns (nil, nil) breaks its contract;
		// treat it as a failed send rather than letting the loop crash.
		return &domain.SendResult{Success: false, Error: "transport returned no result"}
	}
	return sent
}

// pause waits out the inter-message delay. Cancellation cuts the wait
// short; the loop head records the remaining recipients.
func (d *Dispatcher) pause(ctx context.Context) {
	if d.delay <= 0 {
		return
	}
	t := time.NewTimer(d.delay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
