package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
)

// Event topic constants
const (
	TopicSelectionRecorded = "spinner.selection.recorded"
	TopicHistoryCleared    = "spinner.history.cleared"

	// TopicAll matches every spinner topic for every organization
	// (NATS wildcard).
	TopicAll = "spinner.>"
)

// ErrInvalidOrganization is returned when an organization ID cannot be used
// as a single subject token.
var ErrInvalidOrganization = errors.New("invalid organization for event subject")

// Event types

// SelectionRecorded is emitted after a selection record and its counter
// updates have committed.
type SelectionRecorded struct {
	Record        *model.SelectionRecord `json:"record"`
	EligibleCount int                    `json:"eligible_count,omitempty"`
}

// HistoryCleared is emitted after a clear-history operation has committed.
type HistoryCleared struct {
	Scope        model.SelectionScope `json:"scope"`
	ClearedCount int                  `json:"cleared_count"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// ValidOrganization reports whether orgID fits in one subject token.
func ValidOrganization(orgID string) bool {
	return orgID != "" && !strings.ContainsAny(orgID, ".*> \t\r\n")
}

// Subject returns the subject an organization's events on topic are
// published under, e.g. "spinner.selection.recorded.org-1".
func Subject(topic, orgID string) (string, error) {
	if !ValidOrganization(orgID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidOrganization, orgID)
	}
	return topic + "." + orgID, nil
}

// AnyOrganization returns the wildcard subject matching topic for every
// organization.
func AnyOrganization(topic string) string {
	return topic + ".*"
}

// SplitSubject splits an organization-qualified subject back into its topic
// and organization. ok is false when subject carries no organization token.
func SplitSubject(subject string) (topic, orgID string, ok bool) {
	i := strings.LastIndexByte(subject, '.')
	if i <= 0 || i == len(subject)-1 {
		return "", "", false
	}
	return subject[:i], subject[i+1:], true
}

// OrganizationOf returns the organization an event belongs to, or "" when
// the event type carries none.
func OrganizationOf(event any) string {
	switch e := event.(type) {
	case SelectionRecorded:
		return recordOrganization(e.Record)
	case *SelectionRecorded:
		if e != nil {
			return recordOrganization(e.Record)
		}
	case HistoryCleared:
		return e.Scope.OrganizationID
	case *HistoryCleared:
		if e != nil {
			return e.Scope.OrganizationID
		}
	}
	return ""
}

func recordOrganization(rec *model.SelectionRecord) string {
	if rec == nil {
		return ""
	}
	return rec.OrganizationID
}
