package tests_test

import (
	"fmt"
	"testing"

	"github.com/labnotify/labnotify/internal/auth/role"
	"github.com/labnotify/labnotify/internal/database"
	"github.com/labnotify/labnotify/internal/notification"
	"github.com/labnotify/labnotify/internal/tests"
	"github.com/stretchr/testify/require"
)

func newRequest(recipients ...role.Role) notification.CreateRequest {
	return notification.CreateRequest{
		Type:       "manual",
		Severity:   notification.SeverityInfo,
		Message:    "acetone stock moved to cabinet 4",
		Recipients: recipients,
	}
}

func TestNotificationLifecycle(t *testing.T) {
	fixture.Reset(t.Context())

	router := testRouter(labUser)

	var created notification.Notification
	tests.PostCreated(t, router, "/api/notifications", newRequest(role.LabStaff), &created)
	require.Positive(t, created.NotificationID)
	require.Equal(t, notification.StatusPending, created.Status)
	require.Equal(t, notification.PriorityMid, created.Priority)
	require.Equal(t, notification.DefaultCategory, created.Category)
	require.Equal(t, labUser.ID, created.Creator)
	require.False(t, created.Read)

	entityPath := fmt.Sprintf("/api/notification/%d", created.NotificationID)

	var fetched notification.Notification
	tests.GetOK(t, router, entityPath, &fetched)
	require.Equal(t, created.NotificationID, fetched.NotificationID)

	var unread []notification.Notification
	tests.GetOK(t, router, "/api/notifications/unread", &unread)
	require.Len(t, unread, 1)

	// Marking read twice is idempotent
	var afterRead notification.Notification
	tests.PostOK(t, router, entityPath+"/read", nil, &afterRead)
	require.True(t, afterRead.Read)
	tests.PostOK(t, router, entityPath+"/read", nil, &afterRead)
	require.True(t, afterRead.Read)

	tests.GetOK(t, router, "/api/notifications/unread", &unread)
	require.Empty(t, unread)

	// Walk the status lifecycle to completion
	inProgress := notification.StatusInProgress
	var updated notification.Notification
	tests.PutOK(t, router, entityPath, notification.UpdateRequest{Status: &inProgress}, &updated)
	require.Equal(t, notification.StatusInProgress, updated.Status)

	completed := notification.StatusCompleted
	tests.PutOK(t, router, entityPath, notification.UpdateRequest{Status: &completed}, &updated)
	require.Equal(t, notification.StatusCompleted, updated.Status)

	// Completed is terminal
	cancelled := notification.StatusCancelled
	tests.PutConflict(t, router, entityPath, notification.UpdateRequest{Status: &cancelled})

	// Dismissal removes the entity from the active view
	var active []notification.Notification
	tests.GetOK(t, router, "/api/notifications/active", &active)
	require.Len(t, active, 1)

	tests.PostOK(t, router, entityPath+"/dismiss", nil, &updated)
	require.True(t, updated.Dismissed)

	tests.GetOK(t, router, "/api/notifications/active", &active)
	require.Empty(t, active)
}

func TestNotificationCreateValidation(t *testing.T) {
	fixture.Reset(t.Context())

	router := testRouter(labUser)

	// No recipients
	tests.PostBadRequest(t, router, "/api/notifications", newRequest())

	// Unknown recipient role
	tests.PostBadRequest(t, router, "/api/notifications", newRequest(role.Role("janitor")))

	// Unknown category
	badCategory := newRequest(role.LabStaff)
	badCategory.Category = "gossip"
	tests.PostBadRequest(t, router, "/api/notifications", badCategory)

	// Missing required fields
	tests.PostBadRequest(t, router, "/api/notifications", notification.CreateRequest{Recipients: []role.Role{role.LabStaff}})

	// Message that sanitizes to nothing
	empty := newRequest(role.LabStaff)
	empty.Message = "<script>alert(1)</script>"
	tests.PostBadRequest(t, router, "/api/notifications", empty)
}

func TestNotificationVisibility(t *testing.T) {
	fixture.Reset(t.Context())

	created := fixture.CreateTestNotification(t.Context(), adminUser, newRequest(role.Account))
	entityPath := fmt.Sprintf("/api/notification/%d", created.NotificationID)

	// Listed recipient sees it
	var listed []notification.Notification
	tests.GetOK(t, testRouter(accountUser), "/api/notifications", &listed)
	require.Len(t, listed, 1)

	// Admin sees everything
	tests.GetOK(t, testRouter(adminUser), "/api/notifications", &listed)
	require.Len(t, listed, 1)

	// Outside roles see neither the list entry nor the entity
	tests.GetOK(t, testRouter(labUser), "/api/notifications", &listed)
	require.Empty(t, listed)
	tests.GetForbidden(t, testRouter(labUser), entityPath)
	tests.GetForbidden(t, testRouter(productUser), entityPath)

	// Nor may they act on it
	tests.PostForbidden(t, testRouter(productUser), entityPath+"/dismiss", nil)
}

func TestNotificationFilters(t *testing.T) {
	fixture.Reset(t.Context())

	safety := newRequest(role.AllUsers)
	safety.Category = "safety"
	safety.Priority = notification.PriorityHigh
	fixture.CreateTestNotification(t.Context(), adminUser, safety)

	chemical := newRequest(role.AllUsers)
	chemical.Category = "chemical"
	fixture.CreateTestNotification(t.Context(), adminUser, chemical)

	router := testRouter(adminUser)

	var all []notification.Notification
	tests.GetOK(t, router, "/api/notifications", &all)
	require.Len(t, all, 2)

	var filtered []notification.Notification
	tests.GetOKQuery(t, router, "/api/notifications", notification.Filter{Category: "safety"}, &filtered)
	require.Len(t, filtered, 1)
	require.Equal(t, "safety", filtered[0].Category)

	tests.GetOKQuery(t, router, "/api/notifications", notification.Filter{Priority: notification.PriorityHigh}, &filtered)
	require.Len(t, filtered, 1)

	tests.GetOKQuery(t, router, "/api/notifications", notification.Filter{Category: "safety", Priority: notification.PriorityLow}, &filtered)
	require.Empty(t, filtered)
}

func TestNotificationDelete(t *testing.T) {
	fixture.Reset(t.Context())

	created := fixture.CreateTestNotification(t.Context(), adminUser, newRequest(role.LabStaff))
	entityPath := fmt.Sprintf("/api/notification/%d", created.NotificationID)

	// Recipients cannot delete notifications addressed to them
	tests.DeleteForbidden(t, testRouter(labUser), entityPath)

	adminRouter := testRouter(adminUser)
	tests.DeleteOK(t, adminRouter, entityPath)
	tests.GetNotFound(t, adminRouter, entityPath)

	var listed []notification.Notification
	tests.GetOK(t, adminRouter, "/api/notifications", &listed)
	require.Empty(t, listed)
}

func TestSetStatus(t *testing.T) {
	fixture.Reset(t.Context())

	notifications := fixture.Notifications()
	created := fixture.CreateTestNotification(t.Context(), adminUser, newRequest(role.Account))

	_, errUnknown := notifications.SetStatus(t.Context(), adminUser, created.NotificationID, notification.Status("archived"))
	require.ErrorIs(t, errUnknown, notification.ErrUnknownStatus)

	_, errDenied := notifications.SetStatus(t.Context(), labUser, created.NotificationID, notification.StatusInProgress)
	require.ErrorIs(t, errDenied, role.ErrDenied)

	started, errStart := notifications.SetStatus(t.Context(), accountUser, created.NotificationID, notification.StatusInProgress)
	require.NoError(t, errStart)
	require.Equal(t, notification.StatusInProgress, started.Status)

	_, errBackwards := notifications.SetStatus(t.Context(), accountUser, created.NotificationID, notification.StatusPending)
	require.ErrorIs(t, errBackwards, notification.ErrInvalidTransition)

	completed, errComplete := notifications.SetStatus(t.Context(), accountUser, created.NotificationID, notification.StatusCompleted)
	require.NoError(t, errComplete)
	require.Equal(t, notification.StatusCompleted, completed.Status)

	_, errMissing := notifications.SetStatus(t.Context(), adminUser, created.NotificationID+1000, notification.StatusInProgress)
	require.ErrorIs(t, errMissing, database.ErrNoResult)
}

func TestUnreadCountDecrement(t *testing.T) {
	fixture.Reset(t.Context())

	first := fixture.CreateTestNotification(t.Context(), adminUser, newRequest(role.Account))
	fixture.CreateTestNotification(t.Context(), adminUser, newRequest(role.Account))

	notifications := fixture.Notifications()

	counter := notification.NewUnreadCounter(notifications, accountUser, 0)
	counter.Refresh(t.Context())
	require.Equal(t, 2, counter.Count())
	require.Equal(t, "2", counter.Badge())

	_, errMark := notifications.MarkRead(t.Context(), accountUser, first.NotificationID)
	require.NoError(t, errMark)

	counter.Refresh(t.Context())
	require.Equal(t, 1, counter.Count())
}

func TestUnreadCountEndpoint(t *testing.T) {
	fixture.Reset(t.Context())

	fixture.CreateTestNotification(t.Context(), adminUser, newRequest(role.Account))
	fixture.CreateTestNotification(t.Context(), adminUser, newRequest(role.Account))

	router, counters := testRouterCounters(accountUser)

	type badge struct {
		Count int    `json:"count"`
		Badge string `json:"badge"`
	}

	// Served from the poller cache, empty until the first refresh
	var unread badge
	tests.GetOK(t, router, "/api/notifications/unread_count", &unread)
	require.Equal(t, 0, unread.Count)

	counters.Refresh(t.Context())

	tests.GetOK(t, router, "/api/notifications/unread_count", &unread)
	require.Equal(t, 2, unread.Count)
	require.Equal(t, "2", unread.Badge)
}

func TestNotificationMetadata(t *testing.T) {
	router := testRouter(labUser)

	type entry struct {
		Value string `json:"value"`
		Label string `json:"label"`
	}

	var categories []entry
	tests.GetOK(t, router, "/api/notification_categories", &categories)
	require.Len(t, categories, len(tests.DefaultCategories))
	require.Contains(t, categories, entry{Value: "chemical", Label: "Chemical"})

	var priorities []entry
	tests.GetOK(t, router, "/api/notification_priorities", &priorities)
	require.Contains(t, priorities, entry{Value: "high", Label: "HIGH"})

	var statuses []entry
	tests.GetOK(t, router, "/api/notification_statuses", &statuses)
	require.Contains(t, statuses, entry{Value: "in_progress", Label: "In Progress"})
}
