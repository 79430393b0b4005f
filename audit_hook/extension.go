// Package audithook bridges Bazaar lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xraph/bazaar/content"
	"github.com/xraph/bazaar/creator"
	"github.com/xraph/bazaar/plugin"
	"github.com/xraph/bazaar/purchase"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Extension)(nil)
	_ plugin.OnCreatorRegistered    = (*Extension)(nil)
	_ plugin.OnCreatorVerified      = (*Extension)(nil)
	_ plugin.OnContentPublished     = (*Extension)(nil)
	_ plugin.OnContentPurchased     = (*Extension)(nil)
	_ plugin.OnSettlementRolledBack = (*Extension)(nil)
	_ plugin.OnFeesWithdrawn        = (*Extension)(nil)
	_ plugin.OnOwnershipTransferred = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Bazaar lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Creator lifecycle hooks
// ──────────────────────────────────────────────────

// OnCreatorRegistered implements plugin.OnCreatorRegistered.
func (e *Extension) OnCreatorRegistered(ctx context.Context, c interface{}) error {
	var principal, handle string
	if cr, ok := c.(*creator.Creator); ok {
		principal = cr.Principal.String()
		handle = cr.Handle
	}
	return e.record(ctx, ActionCreatorRegistered, SeverityInfo, OutcomeSuccess,
		ResourceCreator, principal, CategoryIdentity, nil,
		"principal", principal,
		"handle", handle,
	)
}

// OnCreatorVerified implements plugin.OnCreatorVerified.
func (e *Extension) OnCreatorVerified(ctx context.Context, principal string) error {
	return e.record(ctx, ActionCreatorVerified, SeverityInfo, OutcomeSuccess,
		ResourceCreator, principal, CategoryIdentity, nil,
		"principal", principal,
	)
}

// ──────────────────────────────────────────────────
// Content lifecycle hooks
// ──────────────────────────────────────────────────

// OnContentPublished implements plugin.OnContentPublished.
func (e *Extension) OnContentPublished(ctx context.Context, c interface{}) error {
	var resourceID string
	var kv []any
	if ct, ok := c.(*content.Content); ok {
		resourceID = strconv.FormatInt(ct.ID, 10)
		kv = append(kv,
			"content_id", ct.ID,
			"creator", ct.Creator.String(),
			"price", ct.Price.Int64(),
		)
	}
	return e.record(ctx, ActionContentPublished, SeverityInfo, OutcomeSuccess,
		ResourceContent, resourceID, CategoryCatalog, nil, kv...)
}

// ──────────────────────────────────────────────────
// Settlement lifecycle hooks
// ──────────────────────────────────────────────────

// OnContentPurchased implements plugin.OnContentPurchased.
func (e *Extension) OnContentPurchased(ctx context.Context, receipt interface{}) error {
	var resourceID string
	var kv []any
	if r, ok := receipt.(*purchase.Receipt); ok {
		resourceID = r.ID.String()
		kv = append(kv,
			"content_id", r.ContentID,
			"buyer", r.Buyer.String(),
			"creator", r.Creator.String(),
			"price", r.Price.Int64(),
			"platform_fee", r.PlatformFee.Int64(),
			"creator_share", r.CreatorShare.Int64(),
		)
	}
	return e.record(ctx, ActionContentPurchased, SeverityInfo, OutcomeSuccess,
		ResourcePurchase, resourceID, CategorySettlement, nil, kv...)
}

// OnSettlementRolledBack implements plugin.OnSettlementRolledBack.
func (e *Extension) OnSettlementRolledBack(ctx context.Context, buyer string, contentID int64, cause error) error {
	return e.record(ctx, ActionSettlementReversed, SeverityError, OutcomeFailure,
		ResourcePurchase, strconv.FormatInt(contentID, 10), CategorySettlement, cause,
		"buyer", buyer,
		"content_id", contentID,
	)
}

// ──────────────────────────────────────────────────
// Platform lifecycle hooks
// ──────────────────────────────────────────────────

// OnFeesWithdrawn implements plugin.OnFeesWithdrawn.
func (e *Extension) OnFeesWithdrawn(ctx context.Context, owner string, amount int64) error {
	return e.record(ctx, ActionFeesWithdrawn, SeverityInfo, OutcomeSuccess,
		ResourcePlatform, owner, CategoryAdmin, nil,
		"owner", owner,
		"amount", amount,
	)
}

// OnOwnershipTransferred implements plugin.OnOwnershipTransferred.
func (e *Extension) OnOwnershipTransferred(ctx context.Context, previous, next string) error {
	return e.record(ctx, ActionOwnershipTransferred, SeverityWarning, OutcomeSuccess,
		ResourcePlatform, next, CategoryAdmin, nil,
		"previous_owner", previous,
		"new_owner", next,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
