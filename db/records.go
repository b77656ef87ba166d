// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/truthpoll/commitment"
	"github.com/danielhkuo/truthpoll/models"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// User records

func (t *Tx) GetUser(ctx context.Context, participant string) (models.UserRecord, error) {
	var u models.UserRecord
	err := t.queryRow(ctx, `
		SELECT participant, reputation, total_earnings, total_revealed_votes,
		       total_correct_votes, created_at
		FROM user_record
		WHERE participant = $1
	`+t.lock(), participant).Scan(
		&u.Participant, &u.Reputation, &u.TotalEarnings, &u.TotalRevealedVotes,
		&u.TotalCorrectVotes, &u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return u, models.ErrNotFound
	}
	return u, err
}

func (t *Tx) InsertUser(ctx context.Context, u models.UserRecord) error {
	_, err := t.exec(ctx, `
		INSERT INTO user_record (participant, reputation, total_earnings,
		            total_revealed_votes, total_correct_votes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.Participant, u.Reputation, u.TotalEarnings, u.TotalRevealedVotes, u.TotalCorrectVotes, u.CreatedAt)
	return err
}

func (t *Tx) UpdateUser(ctx context.Context, u models.UserRecord) error {
	return t.execOne(ctx, `
		UPDATE user_record
		SET reputation = $1, total_earnings = $2, total_revealed_votes = $3,
		    total_correct_votes = $4
		WHERE participant = $5
	`, u.Reputation, u.TotalEarnings, u.TotalRevealedVotes, u.TotalCorrectVotes, u.Participant)
}

func (t *Tx) DeleteUser(ctx context.Context, participant string) error {
	return t.execOne(ctx, `DELETE FROM user_record WHERE participant = $1`, participant)
}

// Question counters

func (t *Tx) GetCounter(ctx context.Context, owner string) (models.QuestionCounter, error) {
	c := models.QuestionCounter{Owner: owner}
	err := t.queryRow(ctx, `
		SELECT question_count FROM question_counter WHERE owner = $1
	`+t.lock(), owner).Scan(&c.Count)
	if err == sql.ErrNoRows {
		return c, models.ErrNotFound
	}
	return c, err
}

func (t *Tx) InsertCounter(ctx context.Context, c models.QuestionCounter) error {
	_, err := t.exec(ctx, `
		INSERT INTO question_counter (owner, question_count) VALUES ($1, $2)
	`, c.Owner, c.Count)
	return err
}

func (t *Tx) UpdateCounter(ctx context.Context, c models.QuestionCounter) error {
	return t.execOne(ctx, `
		UPDATE question_counter SET question_count = $1 WHERE owner = $2
	`, c.Count, c.Owner)
}

// Questions

const questionColumns = `
	question_key, id, asker, question_text, option_1, option_2,
	commit_end_time, reveal_end_time, rent_expiration, created_at,
	votes_option_1, votes_option_2, committed_voters,
	finalized, reported_option, winning_percent, eligible_voters,
	settlement_stage, winning_option, original_reward, snapshot_reward,
	snapshot_total_weight, total_distributed, claimed_weight,
	claimed_voters_count, voter_records_count, voter_records_closed`

func scanQuestion(s scanner) (models.Question, error) {
	var q models.Question
	var stage string
	err := s.Scan(
		&q.Key, &q.ID, &q.Asker, &q.Text, &q.Option1, &q.Option2,
		&q.CommitEndTime, &q.RevealEndTime, &q.RentExpiration, &q.CreatedAt,
		&q.VotesOption1, &q.VotesOption2, &q.CommittedVoters,
		&q.Finalized, &q.ReportedOption, &q.WinningPercent, &q.EligibleVoters,
		&stage, &q.WinningOption, &q.OriginalReward, &q.SnapshotReward,
		&q.SnapshotTotalWeight, &q.TotalDistributed, &q.ClaimedWeight,
		&q.ClaimedVotersCount, &q.VoterRecordsCount, &q.VoterRecordsClosed,
	)
	q.Stage = models.SettlementStage(stage)
	return q, err
}

func questionArgs(q models.Question) []any {
	return []any{
		q.Key, q.ID, q.Asker, q.Text, q.Option1, q.Option2,
		q.CommitEndTime, q.RevealEndTime, q.RentExpiration, q.CreatedAt,
		q.VotesOption1, q.VotesOption2, q.CommittedVoters,
		q.Finalized, q.ReportedOption, q.WinningPercent, q.EligibleVoters,
		string(q.Stage), q.WinningOption, q.OriginalReward, q.SnapshotReward,
		q.SnapshotTotalWeight, q.TotalDistributed, q.ClaimedWeight,
		q.ClaimedVotersCount, q.VoterRecordsCount, q.VoterRecordsClosed,
	}
}

func (t *Tx) GetQuestion(ctx context.Context, key string) (models.Question, error) {
	row := t.queryRow(ctx, `SELECT `+questionColumns+` FROM question WHERE question_key = $1`+t.lock(), key)
	q, err := scanQuestion(row)
	if err == sql.ErrNoRows {
		return q, models.ErrNotFound
	}
	return q, err
}

func (t *Tx) ListQuestions(ctx context.Context, asker string) ([]models.Question, error) {
	rows, err := t.query(ctx, `SELECT `+questionColumns+` FROM question WHERE asker = $1 ORDER BY id`, asker)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (t *Tx) InsertQuestion(ctx context.Context, q models.Question) error {
	_, err := t.exec(ctx, `
		INSERT INTO question (`+questionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
	`, questionArgs(q)...)
	return err
}

// UpdateQuestion writes every mutable column of q.
func (t *Tx) UpdateQuestion(ctx context.Context, q models.Question) error {
	return t.execOne(ctx, `
		UPDATE question SET
			votes_option_1 = $1, votes_option_2 = $2, committed_voters = $3,
			finalized = $4, reported_option = $5, winning_percent = $6,
			eligible_voters = $7, settlement_stage = $8, winning_option = $9,
			original_reward = $10, snapshot_reward = $11,
			snapshot_total_weight = $12, total_distributed = $13,
			claimed_weight = $14, claimed_voters_count = $15,
			voter_records_count = $16, voter_records_closed = $17
		WHERE question_key = $18
	`,
		q.VotesOption1, q.VotesOption2, q.CommittedVoters,
		q.Finalized, q.ReportedOption, q.WinningPercent,
		q.EligibleVoters, string(q.Stage), q.WinningOption,
		q.OriginalReward, q.SnapshotReward,
		q.SnapshotTotalWeight, q.TotalDistributed,
		q.ClaimedWeight, q.ClaimedVotersCount,
		q.VoterRecordsCount, q.VoterRecordsClosed,
		q.Key,
	)
}

// DeleteQuestion removes the question and its ballots. Ballots are deleted
// explicitly because SQLite does not enforce foreign keys by default.
func (t *Tx) DeleteQuestion(ctx context.Context, key string) error {
	if _, err := t.exec(ctx, `DELETE FROM ballot WHERE question_key = $1`, key); err != nil {
		return fmt.Errorf("delete ballots: %w", err)
	}
	return t.execOne(ctx, `DELETE FROM question WHERE question_key = $1`, key)
}

// Ballots

const ballotColumns = `
	question_key, voter, commitment, status, revealed, selected_option,
	vote_weight, claimed, claim_reference, payout, committed_at`

func scanBallot(s scanner) (models.Ballot, error) {
	var b models.Ballot
	var digest, ref string
	err := s.Scan(
		&b.QuestionKey, &b.Voter, &digest, &b.Status, &b.Revealed, &b.SelectedOption,
		&b.VoteWeight, &b.Claimed, &ref, &b.Payout, &b.CommittedAt,
	)
	if err != nil {
		return b, err
	}
	b.Commitment, err = commitment.ParseDigest(digest)
	if err != nil {
		return b, fmt.Errorf("stored commitment: %w", err)
	}
	b.ClaimReference = models.NewClaimReference(ref)
	return b, nil
}

func (t *Tx) GetBallot(ctx context.Context, questionKey, voter string) (models.Ballot, error) {
	row := t.queryRow(ctx, `
		SELECT `+ballotColumns+` FROM ballot WHERE question_key = $1 AND voter = $2
	`+t.lock(), questionKey, voter)
	b, err := scanBallot(row)
	if err == sql.ErrNoRows {
		return b, models.ErrNotFound
	}
	return b, err
}

func (t *Tx) ListBallots(ctx context.Context, questionKey string) ([]models.Ballot, error) {
	rows, err := t.query(ctx, `
		SELECT `+ballotColumns+` FROM ballot WHERE question_key = $1 ORDER BY committed_at, voter
	`, questionKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ballots := []models.Ballot{}
	for rows.Next() {
		b, err := scanBallot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ballot: %w", err)
		}
		ballots = append(ballots, b)
	}
	return ballots, rows.Err()
}

func (t *Tx) ListVoterBallots(ctx context.Context, voter string) ([]models.Ballot, error) {
	rows, err := t.query(ctx, `
		SELECT `+ballotColumns+` FROM ballot WHERE voter = $1 ORDER BY committed_at, question_key
	`, voter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ballots := []models.Ballot{}
	for rows.Next() {
		b, err := scanBallot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ballot: %w", err)
		}
		ballots = append(ballots, b)
	}
	return ballots, rows.Err()
}

func (t *Tx) InsertBallot(ctx context.Context, b models.Ballot) error {
	_, err := t.exec(ctx, `
		INSERT INTO ballot (`+ballotColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		b.QuestionKey, b.Voter, b.Commitment.String(), b.Status, b.Revealed, b.SelectedOption,
		b.VoteWeight, b.Claimed, b.ClaimReference.String(), b.Payout, b.CommittedAt,
	)
	return err
}

func (t *Tx) UpdateBallot(ctx context.Context, b models.Ballot) error {
	return t.execOne(ctx, `
		UPDATE ballot SET
			commitment = $1, status = $2, revealed = $3, selected_option = $4,
			vote_weight = $5, claimed = $6, claim_reference = $7, payout = $8,
			committed_at = $9
		WHERE question_key = $10 AND voter = $11
	`,
		b.Commitment.String(), b.Status, b.Revealed, b.SelectedOption,
		b.VoteWeight, b.Claimed, b.ClaimReference.String(), b.Payout,
		b.CommittedAt, b.QuestionKey, b.Voter,
	)
}
