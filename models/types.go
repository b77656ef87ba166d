// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"bytes"
	"errors"

	"github.com/danielhkuo/truthpoll/commitment"
	"github.com/danielhkuo/truthpoll/reputation"
)

// Storage errors shared by the engine and its store implementations.
var (
	ErrNotFound            = errors.New("record not found")
	ErrAccountExists       = errors.New("ledger account already exists")
	ErrInsufficientBalance = errors.New("insufficient ledger balance")
	ErrBalanceOverflow     = errors.New("ledger balance overflow")
)

// Option codes
const (
	OptionTie   uint8 = 0
	Option1     uint8 = commitment.OptionTrue
	Option2     uint8 = commitment.OptionFalse
	OptionUnset uint8 = 255
)

// Fixed option labels
const (
	LabelOption1 = "True"
	LabelOption2 = "False"
)

// SettlementStage tracks how far reward settlement has progressed.
type SettlementStage string

const (
	// StageOpen: winner not yet resolved.
	StageOpen SettlementStage = "open"
	// StageResolved: winner memoized, fee not yet taken.
	StageResolved SettlementStage = "resolved"
	// StageDistributing: fee taken and reward snapshot fixed.
	StageDistributing SettlementStage = "distributing"
	// StageSettled: all eligible weight has claimed.
	StageSettled SettlementStage = "settled"
	// StageDrained: escrow sent to the fee receiver.
	StageDrained SettlementStage = "drained"
)

// BallotStatus values
const (
	BallotCommitted = "committed"
	BallotRevealed  = "revealed"
	BallotClaimed   = "claimed"
	BallotReclaimed = "reclaimed"
)

const ClaimReferenceSize = 64

// ClaimReference is a claim receipt right-padded with zero bytes.
type ClaimReference [ClaimReferenceSize]byte

// NewClaimReference copies at most ClaimReferenceSize bytes of s.
func NewClaimReference(s string) ClaimReference {
	var ref ClaimReference
	copy(ref[:], s)
	return ref
}

func (c ClaimReference) String() string {
	return string(bytes.TrimRight(c[:], "\x00"))
}

func (c ClaimReference) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Domain types

type UserRecord struct {
	Participant        string `json:"participant"`
	Reputation         uint8  `json:"reputation"`
	TotalEarnings      uint64 `json:"total_earnings"`
	TotalRevealedVotes uint64 `json:"total_revealed_votes"`
	TotalCorrectVotes  uint64 `json:"total_correct_votes"`
	CreatedAt          int64  `json:"created_at"`
}

// RecordOutcome bumps the lifetime counters and recomputes reputation.
func (u *UserRecord) RecordOutcome(revealed, correct bool) {
	if revealed {
		u.TotalRevealedVotes++
	}
	if correct {
		u.TotalCorrectVotes++
	}
	u.Reputation = reputation.Weight(u.TotalRevealedVotes, u.TotalCorrectVotes)
}

// VoteWeight is the weight a reveal made now would carry.
func (u UserRecord) VoteWeight() uint64 {
	if u.Reputation == 0 {
		return 1
	}
	return uint64(u.Reputation)
}

type QuestionCounter struct {
	Owner string `json:"owner"`
	Count uint64 `json:"count"`
}

type Question struct {
	Key            string `json:"question_key"`
	ID             uint64 `json:"id"`
	Asker          string `json:"asker"`
	Text           string `json:"question_text"`
	Option1        string `json:"option_1"`
	Option2        string `json:"option_2"`
	CommitEndTime  int64  `json:"commit_end_time"`
	RevealEndTime  int64  `json:"reveal_end_time"`
	RentExpiration int64  `json:"rent_expiration"`
	CreatedAt      int64  `json:"created_at"`

	VotesOption1    uint64 `json:"votes_option_1"`
	VotesOption2    uint64 `json:"votes_option_2"`
	CommittedVoters uint64 `json:"committed_voters"`

	// Reporting fields written by finalize.
	Finalized      bool   `json:"finalized"`
	ReportedOption uint8  `json:"reported_option"`
	WinningPercent string `json:"winning_percent"`
	EligibleVoters uint64 `json:"eligible_voters"`

	Stage               SettlementStage `json:"settlement_stage"`
	WinningOption       uint8           `json:"winning_option"`
	OriginalReward      uint64          `json:"original_reward"`
	SnapshotReward      uint64          `json:"snapshot_reward"`
	SnapshotTotalWeight uint64          `json:"snapshot_total_weight"`
	TotalDistributed    uint64          `json:"total_distributed"`
	ClaimedWeight       uint64          `json:"claimed_weight"`
	ClaimedVotersCount  uint64          `json:"claimed_voters_count"`
	VoterRecordsCount   uint64          `json:"voter_records_count"`
	VoterRecordsClosed  uint64          `json:"voter_records_closed"`
}

// RewardFeeTaken reports whether the fee snapshot has happened.
func (q Question) RewardFeeTaken() bool {
	return q.Stage == StageDistributing || q.Stage == StageSettled
}

func (q Question) RewardDrained() bool {
	return q.Stage == StageDrained
}

// NoVotesRevealed reports whether neither side has any weighted votes.
func (q Question) NoVotesRevealed() bool {
	return q.VotesOption1 == 0 && q.VotesOption2 == 0
}

type Ballot struct {
	QuestionKey    string            `json:"question_key"`
	Voter          string            `json:"voter"`
	Commitment     commitment.Digest `json:"commitment"`
	Status         string            `json:"status"`
	Revealed       bool              `json:"revealed"`
	SelectedOption uint8             `json:"selected_option"`
	VoteWeight     uint64            `json:"vote_weight"`
	Claimed        bool              `json:"claimed"`
	ClaimReference ClaimReference    `json:"claim_reference"`
	Payout         uint64            `json:"payout"`
	CommittedAt    int64             `json:"committed_at"`
}

// Closed reports whether the ballot reached a terminal state.
func (b Ballot) Closed() bool {
	return b.Status == BallotClaimed || b.Status == BallotReclaimed
}

// Account is a ledger account snapshot.
type Account struct {
	Key        string `json:"key"`
	Balance    uint64 `json:"balance"`
	MinBalance uint64 `json:"min_balance"`
}

// Spendable is the balance above the retained minimum.
func (a Account) Spendable() uint64 {
	if a.Balance < a.MinBalance {
		return 0
	}
	return a.Balance - a.MinBalance
}

// Request types

type CreateQuestionRequest struct {
	Text          string `json:"question_text"`
	Reward        uint64 `json:"reward"`
	CommitEndTime int64  `json:"commit_end_time"`
	RevealEndTime int64  `json:"reveal_end_time"`
}

// hex-encoded 32-byte digest
type CommitVoteRequest struct {
	Commitment string `json:"commitment"`
}

type RevealVoteRequest struct {
	Secret string `json:"secret"`
}

type ClaimRewardRequest struct {
	ClaimReference string `json:"claim_reference"`
}

type FinalizeVotingRequest struct {
	QuestionID uint64 `json:"question_id"`
}

type FundAccountRequest struct {
	Participant string `json:"participant"`
	Amount      uint64 `json:"amount"`
}

// Response types

type CreateQuestionResponse struct {
	QuestionID  uint64 `json:"question_id"`
	QuestionKey string `json:"question_key"`
	AdminKey    string `json:"admin_key"`
}

type RevealVoteResponse struct {
	SelectedOption uint8  `json:"selected_option"`
	VoteWeight     uint64 `json:"vote_weight"`
}

type ClaimRewardResponse struct {
	Payout         uint64 `json:"payout"`
	Final          bool   `json:"final"`
	ClaimReference string `json:"claim_reference"`
	Display        string `json:"display"`
}

// QuestionResponse is a question as shown to callers. Tallies stay sealed
// until the reveal phase ends.
type QuestionResponse struct {
	Question
	ResultsSealed bool   `json:"results_sealed"`
	Escrow        uint64 `json:"escrow"`
	EscrowDisplay string `json:"escrow_display"`
}

type AmountResponse struct {
	Amount  uint64 `json:"amount"`
	Display string `json:"display"`
}

type LeaveResponse struct {
	Refunded uint64 `json:"refunded"`
	Message  string `json:"message"`
}

type FinalizeVotingResponse struct {
	TotalVotes     uint64 `json:"total_votes"`
	VotesOption1   uint64 `json:"votes_option_1"`
	VotesOption2   uint64 `json:"votes_option_2"`
	WinningOption  uint8  `json:"winning_option"`
	WinningPercent string `json:"winning_percent"`
	EligibleVoters uint64 `json:"eligible_voters"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
