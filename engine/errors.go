// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

// Kind groups engine errors by cause.
type Kind uint8

const (
	KindTemporal Kind = iota + 1
	KindConflict
	KindEligibility
	KindValidation
	KindIntegrity
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindTemporal:
		return "temporal"
	case KindConflict:
		return "conflict"
	case KindEligibility:
		return "eligibility"
	case KindValidation:
		return "validation"
	case KindIntegrity:
		return "integrity"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is a failure local to one operation. Nothing the operation wrote is
// persisted when it returns an Error.
type Error struct {
	Code    string
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Code: code, Kind: kind, Message: message}
}

// Temporal
var (
	ErrVotingEnded        = newError(KindTemporal, "VotingEnded", "voting period has ended")
	ErrVotingStillActive  = newError(KindTemporal, "VotingStillActive", "voting is still active")
	ErrCommitPhaseEnded   = newError(KindTemporal, "CommitPhaseEnded", "commit phase ended")
	ErrRevealPhaseEnded   = newError(KindTemporal, "RevealPhaseEnded", "reveal phase ended")
	ErrRevealPhaseNotOver = newError(KindTemporal, "RevealPhaseNotOver", "reveal phase is not yet over")
	ErrRentNotExpired     = newError(KindTemporal, "RentNotExpired", "rent has not yet expired")
)

// State conflicts
var (
	ErrAlreadyJoined           = newError(KindConflict, "AlreadyJoined", "already joined the network")
	ErrAlreadyInitialized      = newError(KindConflict, "AlreadyInitialized", "question counter already exists")
	ErrAlreadyRevealed         = newError(KindConflict, "AlreadyRevealed", "vote already revealed")
	ErrAlreadyClaimed          = newError(KindConflict, "AlreadyClaimed", "reward already claimed")
	ErrAlreadyClosed           = newError(KindConflict, "AlreadyClosed", "ballot rent already reclaimed")
	ErrAlreadyDrained          = newError(KindConflict, "AlreadyDrained", "vault is already drained")
	ErrAlreadyFinalized        = newError(KindConflict, "AlreadyFinalized", "voting has already been finalized")
	ErrAlreadyEligibleOrWinner = newError(KindConflict, "AlreadyEligibleOrWinner", "ballot is eligible for a reward")
	ErrCannotDrainReward       = newError(KindConflict, "CannotDrainReward", "cannot drain: commits or reveals exist or phases not ended")
	ErrCannotDeleteQuestion    = newError(KindConflict, "CannotDeleteQuestion", "question still has active or unclaimed participation")
	ErrRemainingRewardExists   = newError(KindConflict, "RemainingRewardExists", "remaining reward exists, cannot delete")
)

// Eligibility
var (
	ErrNotJoined             = newError(KindEligibility, "NotJoined", "participant has not joined the network")
	ErrNotEligible           = newError(KindEligibility, "NotEligible", "not eligible")
	ErrNoEligibleVoters      = newError(KindEligibility, "NoEligibleVoters", "no eligible voters")
	ErrRejoinedAfterCommit   = newError(KindEligibility, "RejoinedAfterCommit", "rejoined after committing, vote cannot be revealed")
	ErrCounterNotInitialized = newError(KindEligibility, "CounterNotInitialized", "question counter not initialized")
	ErrNotAsker              = newError(KindEligibility, "NotAsker", "only the asker may do this")
)

// Validation
var (
	ErrQuestionTooShort      = newError(KindValidation, "QuestionTooShort", "question must be at least 10 characters long")
	ErrQuestionTooLong       = newError(KindValidation, "QuestionTooLong", "question must be at most 150 characters long")
	ErrRewardTooSmall        = newError(KindValidation, "RewardTooSmall", "reward is below the minimum")
	ErrInvalidTimeframe      = newError(KindValidation, "InvalidTimeframe", "commit end must precede reveal end")
	ErrInvalidCommitment     = newError(KindValidation, "InvalidCommitment", "commitment must be a non-zero 32-byte digest")
	ErrClaimReferenceTooLong = newError(KindValidation, "ClaimReferenceTooLong", "claim reference exceeds 64 bytes")
	ErrInvalidParticipant    = newError(KindValidation, "InvalidParticipant", "invalid participant identity")
	ErrInvalidAmount         = newError(KindValidation, "InvalidAmount", "amount must be positive")
)

// Integrity
var (
	ErrInvalidReveal      = newError(KindIntegrity, "InvalidReveal", "secret does not match commitment")
	ErrQuestionIDMismatch = newError(KindIntegrity, "QuestionIdMismatch", "question id mismatch")
	ErrInsufficientFunds  = newError(KindIntegrity, "InsufficientFunds", "insufficient funds")
	ErrOverflow           = newError(KindIntegrity, "Overflow", "arithmetic overflow")
)

// Not found
var (
	ErrQuestionNotFound = newError(KindNotFound, "QuestionNotFound", "question not found")
	ErrBallotNotFound   = newError(KindNotFound, "BallotNotFound", "no ballot committed for this question")
	ErrAccountNotFound  = newError(KindNotFound, "AccountNotFound", "ledger account not found")
)
