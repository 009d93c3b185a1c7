package service

import "time"

type OutcomeKind string

const (
	OutcomeStarted            OutcomeKind = "started"
	OutcomeAlreadyPending     OutcomeKind = "already_pending"
	OutcomeAccountNotFound    OutcomeKind = "account_not_found"
	OutcomeAlreadySelfLinked  OutcomeKind = "already_self_linked"
	OutcomeLinkedToOther      OutcomeKind = "linked_to_other"
	OutcomeNoPending          OutcomeKind = "no_pending"
	OutcomeAccountVanished    OutcomeKind = "account_vanished"
	OutcomeCodeNotFound       OutcomeKind = "code_not_found"
	OutcomeLinked             OutcomeKind = "linked"
	OutcomeUpdateFailed       OutcomeKind = "update_failed"
	OutcomeNotLinked          OutcomeKind = "not_linked"
	OutcomeNotYourAccount     OutcomeKind = "not_your_account"
	OutcomeUnlinked           OutcomeKind = "unlinked"
	OutcomePending            OutcomeKind = "pending"
	OutcomeServiceUnavailable OutcomeKind = "service_unavailable"
)

// Outcome is what a link operation reports back to the command surface.
// Only the fields relevant to Kind are set.
type Outcome struct {
	Kind        OutcomeKind
	Identifier  string
	Code        string
	DisplayName string
	ExpiresIn   time.Duration
	LinkedAt    *time.Time
}
