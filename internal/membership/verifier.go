// Package membership gates access behind membership in the configured
// Telegram channel and group.
package membership

import (
	"context"
	"log/slog"

	"github.com/applygate/applybot/pkg/metrics"
)

// Status classifies a user's standing in one community.
type Status string

const (
	StatusMember        Status = "member"
	StatusOwner         Status = "owner"
	StatusAdministrator Status = "administrator"
	StatusLeft          Status = "left"
	StatusBanned        Status = "banned"
	StatusUnknown       Status = "unknown"
)

// Granted reports whether the status counts as being inside the community.
func (s Status) Granted() bool {
	switch s {
	case StatusMember, StatusOwner, StatusAdministrator:
		return true
	default:
		return false
	}
}

// Decision is the outcome of a membership verification.
type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionDeny  Decision = "deny"
)

// Directory resolves a user's membership status in a community. Lookups may
// fail transiently.
type Directory interface {
	GetMembership(ctx context.Context, group string, userID int64) (Status, error)
}

// Verifier checks that a user belongs to both gating communities.
type Verifier struct {
	directory Directory
	channel   string
	group     string
	log       *slog.Logger
}

// NewVerifier builds a Verifier over the provided directory and the two
// community handles.
func NewVerifier(directory Directory, channel, group string, log *slog.Logger) *Verifier {
	if log == nil {
		log = slog.Default()
	}

	return &Verifier{
		directory: directory,
		channel:   channel,
		group:     group,
		log:       log,
	}
}

// Verify allows the user only when both communities report a granted status.
// A lookup failure for either community denies, same as an honest rejection:
// the user sees one message either way, but logs and metrics keep the two
// apart for operators.
func (v *Verifier) Verify(ctx context.Context, userID int64) Decision {
	for _, community := range []string{v.channel, v.group} {
		status, err := v.directory.GetMembership(ctx, community, userID)
		if err != nil {
			v.log.Error("membership lookup failed",
				slog.String("community", community),
				slog.Int64("user_id", userID),
				slog.Any("error", err),
			)
			metrics.RecordMembershipCheck("lookup_error")
			return DecisionDeny
		}

		if !status.Granted() {
			v.log.Info("membership denied",
				slog.String("community", community),
				slog.Int64("user_id", userID),
				slog.String("status", string(status)),
			)
			metrics.RecordMembershipCheck("denied")
			return DecisionDeny
		}
	}

	metrics.RecordMembershipCheck("allowed")
	return DecisionAllow
}
