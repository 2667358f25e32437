// Package notification owns persisted, role addressed notifications and their status
// lifecycle. All reads and mutations are routed through a single recipient
// visibility predicate so that list queries, unread counts and permission checks can
// never drift apart.
package notification

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/labnotify/labnotify/internal/auth/role"
	"github.com/labnotify/labnotify/internal/auth/session"
	"github.com/labnotify/labnotify/pkg/stringutil"
)

var (
	ErrRecipientsEmpty   = errors.New("recipients cannot be empty")
	ErrUnknownRecipient  = errors.New("unknown recipient role")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrUnknownSeverity   = errors.New("unknown severity")
	ErrUnknownPriority   = errors.New("unknown priority")
	ErrUnknownStatus     = errors.New("unknown status")
	ErrInvalidTransition = errors.New("illegal status transition")
	ErrFlagReversed      = errors.New("read and dismissed flags cannot be unset")
	ErrMessageEmpty      = errors.New("message cannot be empty")
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

func (s Severity) Known() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	default:
		return false
	}
}

func Severities() []Severity {
	return []Severity{SeverityInfo, SeverityWarning, SeverityCritical}
}

type Priority string

const (
	PriorityLow  Priority = "low"
	PriorityMid  Priority = "mid"
	PriorityHigh Priority = "high"
)

func (p Priority) Known() bool {
	switch p {
	case PriorityLow, PriorityMid, PriorityHigh:
		return true
	default:
		return false
	}
}

func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMid, PriorityHigh}
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Known() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}
}

// CanTransition reports whether next is reachable from the current status.
// pending -> in_progress -> completed, with cancelled reachable from any
// non-terminal state. completed and cancelled are terminal.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusInProgress || next == StatusCancelled
	case StatusInProgress:
		return next == StatusCompleted || next == StatusCancelled
	default:
		return false
	}
}

type Notification struct {
	NotificationID int64       `json:"notification_id"`
	Type           string      `json:"type"`
	Severity       Severity    `json:"severity"`
	Category       string      `json:"category"`
	Priority       Priority    `json:"priority"`
	Status         Status      `json:"status"`
	Message        string      `json:"message"`
	Recipients     []role.Role `json:"recipients"`
	Creator        string      `json:"creator"`
	Read           bool        `json:"is_read"`
	Dismissed      bool        `json:"dismissed"`
	CreatedOn      time.Time   `json:"created_on"`
}

// CreateRequest is the caller supplied payload for a new notification. Category and
// priority fall back to their defaults when omitted.
type CreateRequest struct {
	Type       string      `json:"type" binding:"required"`
	Severity   Severity    `json:"severity" binding:"required"`
	Category   string      `json:"category"`
	Priority   Priority    `json:"priority"`
	Message    string      `json:"message" binding:"required"`
	Recipients []role.Role `json:"recipients"`
}

// UpdateRequest is a merge-patch over the mutable fields. Absent fields leave the
// entity untouched. Identity fields (id, creator, created_on) are not patchable.
type UpdateRequest struct {
	Type      *string   `json:"type"`
	Severity  *Severity `json:"severity"`
	Category  *string   `json:"category"`
	Priority  *Priority `json:"priority"`
	Status    *Status   `json:"status"`
	Message   *string   `json:"message"`
	Read      *bool     `json:"is_read"`
	Dismissed *bool     `json:"dismissed"`
}

// Filter narrows list queries. All present fields are AND combined, absent fields
// impose no constraint.
type Filter struct {
	Category string   `json:"category,omitempty" schema:"category" url:"category,omitempty"`
	Priority Priority `json:"priority,omitempty" schema:"priority" url:"priority,omitempty"`
	Status   Status   `json:"status,omitempty" schema:"status" url:"status,omitempty"`
	Severity Severity `json:"severity,omitempty" schema:"severity" url:"severity,omitempty"`
}

// Vocabulary is the server provided set of valid notification categories. The core
// never hard-codes it, deployments extend it through configuration.
type Vocabulary struct {
	categories []string
}

func NewVocabulary(categories []string) Vocabulary {
	return Vocabulary{categories: categories}
}

func (v Vocabulary) Categories() []string {
	return slices.Clone(v.categories)
}

func (v Vocabulary) ValidCategory(category string) bool {
	return slices.Contains(v.categories, category)
}

// DefaultCategory is used when a creator does not specify one.
const DefaultCategory = "general"

type Notifications struct {
	repo  Repository
	vocab Vocabulary
}

func NewNotifications(repo Repository, vocab Vocabulary) Notifications {
	return Notifications{repo: repo, vocab: vocab}
}

func (n Notifications) Vocabulary() Vocabulary {
	return n.vocab
}

// Create validates and persists a new notification on behalf of caller. The entity
// starts out pending, unread and undismissed.
func (n Notifications) Create(ctx context.Context, caller session.User, req CreateRequest) (Notification, error) {
	if len(req.Recipients) == 0 {
		return Notification{}, ErrRecipientsEmpty
	}

	for _, recipient := range req.Recipients {
		if !recipient.Known() {
			return Notification{}, ErrUnknownRecipient
		}
	}

	if req.Category == "" {
		req.Category = DefaultCategory
	}

	if !n.vocab.ValidCategory(req.Category) {
		return Notification{}, ErrUnknownCategory
	}

	if req.Priority == "" {
		req.Priority = PriorityMid
	}

	if !req.Priority.Known() {
		return Notification{}, ErrUnknownPriority
	}

	if !req.Severity.Known() {
		return Notification{}, ErrUnknownSeverity
	}

	message := stringutil.SanitizeText(req.Message)
	if message == "" {
		return Notification{}, ErrMessageEmpty
	}

	entity := Notification{
		Type:       req.Type,
		Severity:   req.Severity,
		Category:   req.Category,
		Priority:   req.Priority,
		Status:     StatusPending,
		Message:    message,
		Recipients: req.Recipients,
		Creator:    caller.ID,
		Read:       false,
		Dismissed:  false,
		CreatedOn:  time.Now(),
	}

	if errInsert := n.repo.Insert(ctx, &entity); errInsert != nil {
		return Notification{}, errInsert
	}

	return entity, nil
}

// ByID returns a single entity. Callers outside the recipient set receive
// role.ErrDenied, never the entity itself.
func (n Notifications) ByID(ctx context.Context, caller session.User, notificationID int64) (Notification, error) {
	entity, errEntity := n.repo.ByID(ctx, notificationID)
	if errEntity != nil {
		return Notification{}, errEntity
	}

	if !Visible(entity, caller) {
		return Notification{}, role.ErrDenied
	}

	return entity, nil
}

func (n Notifications) List(ctx context.Context, caller session.User, filter Filter) ([]Notification, error) {
	return n.repo.List(ctx, caller, filter, listAll)
}

// Unread returns visible entities that have not been marked read.
func (n Notifications) Unread(ctx context.Context, caller session.User) ([]Notification, error) {
	return n.repo.List(ctx, caller, Filter{}, listUnread)
}

// Active returns visible entities that have not been dismissed.
func (n Notifications) Active(ctx context.Context, caller session.User) ([]Notification, error) {
	return n.repo.List(ctx, caller, Filter{}, listActive)
}

// UnreadCount is the number of visible entities with both flags unset. This backs
// the unread badge read-model and is never capped here.
func (n Notifications) UnreadCount(ctx context.Context, caller session.User) (int, error) {
	return n.repo.CountUnread(ctx, caller)
}

// SetStatus advances the lifecycle state machine. Mutations to the same entity are
// serialized by a row lock, two recipients acting at once cannot interleave.
func (n Notifications) SetStatus(ctx context.Context, caller session.User, notificationID int64, next Status) (Notification, error) {
	if !next.Known() {
		return Notification{}, ErrUnknownStatus
	}

	return n.repo.Mutate(ctx, notificationID, func(entity *Notification) error {
		if !CanAct(*entity, caller) {
			return role.ErrDenied
		}

		if !entity.Status.CanTransition(next) {
			return ErrInvalidTransition
		}

		entity.Status = next

		return nil
	})
}

// MarkRead flips the shared read flag. Idempotent, marking an already read entity is
// not an error.
func (n Notifications) MarkRead(ctx context.Context, caller session.User, notificationID int64) (Notification, error) {
	return n.repo.Mutate(ctx, notificationID, func(entity *Notification) error {
		if !CanAct(*entity, caller) {
			return role.ErrDenied
		}

		entity.Read = true

		return nil
	})
}

// Dismiss removes the entity from active views. One way, there is no undismiss.
func (n Notifications) Dismiss(ctx context.Context, caller session.User, notificationID int64) (Notification, error) {
	return n.repo.Mutate(ctx, notificationID, func(entity *Notification) error {
		if !CanAct(*entity, caller) {
			return role.ErrDenied
		}

		entity.Dismissed = true

		return nil
	})
}

// Update applies a merge-patch over the mutable fields, honoring the same status
// transition and permission rules as the dedicated operations.
func (n Notifications) Update(ctx context.Context, caller session.User, notificationID int64, patch UpdateRequest) (Notification, error) {
	return n.repo.Mutate(ctx, notificationID, func(entity *Notification) error {
		if !CanAct(*entity, caller) {
			return role.ErrDenied
		}

		if patch.Status != nil && *patch.Status != entity.Status {
			if !patch.Status.Known() {
				return ErrUnknownStatus
			}

			if !entity.Status.CanTransition(*patch.Status) {
				return ErrInvalidTransition
			}

			entity.Status = *patch.Status
		}

		if patch.Severity != nil {
			if !patch.Severity.Known() {
				return ErrUnknownSeverity
			}

			entity.Severity = *patch.Severity
		}

		if patch.Category != nil {
			if !n.vocab.ValidCategory(*patch.Category) {
				return ErrUnknownCategory
			}

			entity.Category = *patch.Category
		}

		if patch.Priority != nil {
			if !patch.Priority.Known() {
				return ErrUnknownPriority
			}

			entity.Priority = *patch.Priority
		}

		if patch.Type != nil {
			entity.Type = *patch.Type
		}

		if patch.Message != nil {
			message := stringutil.SanitizeText(*patch.Message)
			if message == "" {
				return ErrMessageEmpty
			}

			entity.Message = message
		}

		if patch.Read != nil {
			if !*patch.Read && entity.Read {
				return ErrFlagReversed
			}

			entity.Read = *patch.Read
		}

		if patch.Dismissed != nil {
			if !*patch.Dismissed && entity.Dismissed {
				return ErrFlagReversed
			}

			entity.Dismissed = *patch.Dismissed
		}

		return nil
	})
}

// Delete permanently removes the entity. Admin only, recipients cannot delete
// notifications addressed to them.
func (n Notifications) Delete(ctx context.Context, caller session.User, notificationID int64) error {
	if !caller.IsAdmin() {
		return role.ErrDenied
	}

	if _, errEntity := n.repo.ByID(ctx, notificationID); errEntity != nil {
		return errEntity
	}

	return n.repo.Delete(ctx, notificationID)
}
