// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/truthpoll/commitment"
	"github.com/danielhkuo/truthpoll/engine"
	"github.com/danielhkuo/truthpoll/models"
	"github.com/danielhkuo/truthpoll/testutil"
)

var (
	userDeposit     = engine.MinimumBalance(engine.UserRecordSize)
	vaultMinimum    = engine.MinimumBalance(engine.VaultSize)
	counterDeposit  = engine.MinimumBalance(engine.CounterSize)
	questionDeposit = engine.MinimumBalance(engine.QuestionRecordSize)
	ballotDeposit   = engine.MinimumBalance(engine.BallotRecordSize)
)

const feeReceiver = "fee_receiver"

func TestMinimumBalance(t *testing.T) {
	assert.Equal(t, uint64(1_503_360), userDeposit)
	assert.Equal(t, uint64(946_560), vaultMinimum)
	assert.Equal(t, uint64(1_224_960), counterDeposit)
	assert.Equal(t, uint64(4_022_880), questionDeposit)
	assert.Equal(t, uint64(2_338_560), ballotDeposit)
}

func TestJoinLeave(t *testing.T) {
	te := testutil.NewTestEngine(t, testutil.TestParams())
	ctx := context.Background()

	_, err := te.Join(ctx, "alice")
	require.ErrorIs(t, err, engine.ErrInsufficientFunds)
	_, err = te.User(ctx, "alice")
	require.ErrorIs(t, err, engine.ErrNotJoined)

	u := testutil.JoinTestUser(t, te.Engine, "alice")
	assert.Equal(t, uint8(1), u.Reputation)
	assert.Equal(t, testutil.Start.Unix(), u.CreatedAt)

	stake := te.Params().JoinStake
	wallet := testutil.DefaultFunding - userDeposit - vaultMinimum - stake
	assert.Equal(t, wallet, testutil.Balance(t, te.DB, engine.WalletAccount("alice")))
	assert.Equal(t, vaultMinimum+stake, testutil.Balance(t, te.DB, engine.UserVaultAccount("alice")))

	_, err = te.Join(ctx, "alice")
	require.ErrorIs(t, err, engine.ErrAlreadyJoined)

	refunded, err := te.Leave(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, userDeposit+vaultMinimum+stake, refunded)
	assert.Equal(t, testutil.DefaultFunding, testutil.Balance(t, te.DB, engine.WalletAccount("alice")))

	_, err = te.Leave(ctx, "alice")
	require.ErrorIs(t, err, engine.ErrNotJoined)

	_, err = te.Join(ctx, "bad:name")
	require.ErrorIs(t, err, engine.ErrInvalidParticipant)
}

func TestAirdrop(t *testing.T) {
	te := testutil.NewTestEngine(t, testutil.TestParams())
	ctx := context.Background()

	_, err := te.Airdrop(ctx, "alice", 0)
	require.ErrorIs(t, err, engine.ErrInvalidAmount)

	a, err := te.Airdrop(ctx, "alice", 700)
	require.NoError(t, err)
	assert.Equal(t, uint64(700), a.Balance)

	a, err = te.Airdrop(ctx, "alice", 300)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), a.Balance)

	_, err = te.Account(ctx, engine.WalletAccount("nobody"))
	require.ErrorIs(t, err, engine.ErrAccountNotFound)
}

func TestCreateQuestion(t *testing.T) {
	te := testutil.NewTestEngine(t, engine.DefaultParams())
	ctx := context.Background()
	now := te.Clock.Unix()
	reward := te.Params().MinReward

	req := models.CreateQuestionRequest{
		Text:          "Will the bridge reopen before winter?",
		Reward:        reward,
		CommitEndTime: now + 3600,
		RevealEndTime: now + 7200,
	}

	testutil.FundWallet(t, te.Engine, "asker", testutil.DefaultFunding)
	_, err := te.CreateQuestion(ctx, "asker", req)
	require.ErrorIs(t, err, engine.ErrCounterNotInitialized)

	c, err := te.InitializeCounter(ctx, "asker")
	require.NoError(t, err)
	assert.Zero(t, c.Count)
	_, err = te.InitializeCounter(ctx, "asker")
	require.ErrorIs(t, err, engine.ErrAlreadyInitialized)

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name   string
			modify func(r *models.CreateQuestionRequest)
			want   error
		}{
			{"too short", func(r *models.CreateQuestionRequest) { r.Text = "Too short" }, engine.ErrQuestionTooShort},
			{"too long", func(r *models.CreateQuestionRequest) { r.Text = strings.Repeat("é", 151) }, engine.ErrQuestionTooLong},
			{"commit end passed", func(r *models.CreateQuestionRequest) { r.CommitEndTime = now }, engine.ErrVotingEnded},
			{"reveal before commit", func(r *models.CreateQuestionRequest) { r.RevealEndTime = r.CommitEndTime }, engine.ErrInvalidTimeframe},
			{"reward too small", func(r *models.CreateQuestionRequest) { r.Reward = reward - 1 }, engine.ErrRewardTooSmall},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				r := req
				tt.modify(&r)
				_, err := te.CreateQuestion(ctx, "asker", r)
				require.ErrorIs(t, err, tt.want)
			})
		}
	})

	// Length is counted in characters, not bytes
	multibyte := req
	multibyte.Text = strings.Repeat("é", 10)
	q0, err := te.CreateQuestion(ctx, "asker", multibyte)
	require.NoError(t, err)

	q1, err := te.CreateQuestion(ctx, "asker", req)
	require.NoError(t, err)

	assert.Equal(t, uint64(0), q0.ID)
	assert.Equal(t, uint64(1), q1.ID)
	assert.Equal(t, engine.QuestionKey("asker", 0), q0.Key)
	assert.Equal(t, engine.QuestionKey("asker", 1), q1.Key)
	assert.NotEqual(t, q0.Key, q1.Key)
	assert.Equal(t, models.StageOpen, q1.Stage)
	assert.Equal(t, models.OptionUnset, q1.WinningOption)
	assert.Equal(t, models.LabelOption1, q1.Option1)
	assert.Equal(t, models.LabelOption2, q1.Option2)

	assert.Equal(t, vaultMinimum+reward, testutil.Balance(t, te.DB, engine.QuestionVaultAccount(q1.Key)))

	qs, err := te.Questions(ctx, "asker")
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, q0.Key, qs[0].Key)

	_, err = te.Question(ctx, "missing")
	require.ErrorIs(t, err, engine.ErrQuestionNotFound)
}

func TestCommitVote_Boundary(t *testing.T) {
	te := testutil.NewTestEngine(t, testutil.TestParams())
	ctx := context.Background()
	q := testutil.CreateTestQuestion(t, te, "asker", 1_000_000, time.Hour, time.Hour)
	testutil.JoinTestUser(t, te.Engine, "alice")
	testutil.JoinTestUser(t, te.Engine, "bob")

	digest, err := commitment.Commit(commitment.OptionTrue, "secret")
	require.NoError(t, err)

	te.Clock.SetUnix(q.CommitEndTime - 1)
	_, err = te.CommitVote(ctx, "alice", q.Key, digest)
	require.NoError(t, err)

	te.Clock.SetUnix(q.CommitEndTime)
	_, err = te.CommitVote(ctx, "bob", q.Key, digest)
	require.ErrorIs(t, err, engine.ErrCommitPhaseEnded)
}

func TestCommitVote_Errors(t *testing.T) {
	te := testutil.NewTestEngine(t, testutil.TestParams())
	ctx := context.Background()
	q := testutil.CreateTestQuestion(t, te, "asker", 1_000_000, time.Hour, time.Hour)

	digest, err := commitment.Commit(commitment.OptionTrue, "secret")
	require.NoError(t, err)

	_, err = te.CommitVote(ctx, "alice", q.Key, digest)
	require.ErrorIs(t, err, engine.ErrNotJoined)

	testutil.JoinTestUser(t, te.Engine, "alice")
	_, err = te.CommitVote(ctx, "alice", q.Key, commitment.Digest{})
	require.ErrorIs(t, err, engine.ErrInvalidCommitment)

	_, err = te.CommitVote(ctx, "alice", "missing", digest)
	require.ErrorIs(t, err, engine.ErrQuestionNotFound)
}

func TestCommitVote_RecommitReplacesDigest(t *testing.T) {
	te := testutil.NewTestEngine(t, testutil.TestParams())
	ctx := context.Background()
	q := testutil.CreateTestQuestion(t, te, "asker", 1_000_000, time.Hour, time.Hour)
	testutil.JoinTestUser(t, te.Engine, "alice")

	testutil.CommitTestVote(t, te.Engine, "alice", q.Key, commitment.OptionTrue, "first")
	wallet := testutil.Balance(t, te.DB, engine.WalletAccount("alice"))
	testutil.CommitTestVote(t, te.Engine, "alice", q.Key, commitment.OptionFalse, "second")

	// The second commit pays no new deposit and is not recounted
	assert.Equal(t, wallet, testutil.Balance(t, te.DB, engine.WalletAccount("alice")))
	got, err := te.Question(ctx, q.Key)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.CommittedVoters)
	assert.Equal(t, uint64(1), got.VoterRecordsCount)

	te.Clock.SetUnix(q.CommitEndTime)
	_, err = te.RevealVote(ctx, "alice", q.Key, "first")
	require.ErrorIs(t, err, engine.ErrInvalidReveal)

	b := testutil.RevealTestVote(t, te.Engine, "alice", q.Key, "second")
	assert.Equal(t, models.Option2, b.SelectedOption)
}

func TestRevealVote_Errors(t *testing.T) {
	te := testutil.NewTestEngine(t, testutil.TestParams())
	ctx := context.Background()
	q := testutil.CreateTestQuestion(t, te, "asker", 1_000_000, time.Hour, time.Hour)
	testutil.JoinTestUser(t, te.Engine, "alice")
	testutil.JoinTestUser(t, te.Engine, "bob")

	_, err := te.RevealVote(ctx, "alice", q.Key, "secret")
	require.ErrorIs(t, err, engine.ErrBallotNotFound)

	testutil.CommitTestVote(t, te.Engine, "alice", q.Key, commitment.OptionTrue, "secret")
	testutil.CommitTestVote(t, te.Engine, "bob", q.Key, commitment.OptionTrue, "bob-secret")

	_, err = te.RevealVote(ctx, "alice", q.Key, "wrong")
	require.ErrorIs(t, err, engine.ErrInvalidReveal)

	b := testutil.RevealTestVote(t, te.Engine, "alice", q.Key, "secret")
	assert.True(t, b.Revealed)
	assert.Equal(t, models.BallotRevealed, b.Status)
	assert.Equal(t, uint64(1), b.VoteWeight)

	_, err = te.RevealVote(ctx, "alice", q.Key, "secret")
	require.ErrorIs(t, err, engine.ErrAlreadyRevealed)

	// Re-committing a revealed ballot is refused
	digest, err := commitment.Commit(commitment.OptionFalse, "again")
	require.NoError(t, err)
	_, err = te.CommitVote(ctx, "alice", q.Key, digest)
	require.ErrorIs(t, err, engine.ErrAlreadyRevealed)

	te.Clock.SetUnix(q.RevealEndTime)
	_, err = te.RevealVote(ctx, "bob", q.Key, "bob-secret")
	require.ErrorIs(t, err, engine.ErrRevealPhaseEnded)

	u, err := te.User(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), u.TotalRevealedVotes)
	assert.Equal(t, uint64(0), u.TotalCorrectVotes)
}

func TestRevealVote_RejoinedAfterCommit(t *testing.T) {
	te := testutil.NewTestEngine(t, testutil.TestParams())
	ctx := context.Background()
	q := testutil.CreateTestQuestion(t, te, "asker", 1_000_000, time.Hour, time.Hour)
	testutil.JoinTestUser(t, te.Engine, "alice")

	testutil.CommitTestVote(t, te.Engine, "alice", q.Key, commitment.OptionTrue, "secret")
	_, err := te.Leave(ctx, "alice")
	require.NoError(t, err)

	te.Clock.Advance(time.Second)
	_, err = te.Join(ctx, "alice")
	require.NoError(t, err)

	_, err = te.RevealVote(ctx, "alice", q.Key, "secret")
	require.ErrorIs(t, err, engine.ErrRejoinedAfterCommit)
}

func TestVoteWeightFixedAtReveal(t *testing.T) {
	te := testutil.NewTestEngine(t, testutil.TestParams())
	ctx := context.Background()
	q := testutil.CreateTestQuestion(t, te, "asker", 1_000_000, time.Hour, time.Hour)
	testutil.JoinTestUser(t, te.Engine, "alice")
	testutil.SetReputation(t, te, "alice", 7)

	testutil.CommitTestVote(t, te.Engine, "alice", q.Key, commitment.OptionTrue, "secret")
	te.Clock.SetUnix(q.CommitEndTime)
	b := testutil.RevealTestVote(t, te.Engine, "alice", q.Key, "secret")
	assert.Equal(t, uint64(7), b.VoteWeight)

	// Later reputation changes leave the ballot alone
	testutil.SetReputation(t, te, "alice", 19)
	got, err := te.Ballot(ctx, q.Key, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got.VoteWeight)

	qq, err := te.Question(ctx, q.Key)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), qq.VotesOption1)
}

// A decisive round: the winner takes the pool after the fee and the loser
// can only reclaim ballot rent.
func TestScenario_SingleWinner(t *testing.T) {
	te := testutil.NewTestEngine(t, testutil.TestParams())
	ctx := context.Background()
	const reward = 1_000_000

	q := testutil.CreateTestQuestion(t, te, "asker", reward, time.Hour, time.Hour)
	testutil.JoinTestUser(t, te.Engine, "alice")
	testutil.JoinTestUser(t, te.Engine, "bob")
	funded := testutil.LedgerTotal(t, te.DB)

	// Equal weights on opposite sides would tie
	testutil.SetReputation(t, te, "alice", 2)
	testutil.CommitTestVote(t, te.Engine, "alice", q.Key, commitment.OptionTrue, "alice-secret")
	testutil.CommitTestVote(t, te.Engine, "bob", q.Key, commitment.OptionFalse, "bob-secret")

	te.Clock.SetUnix(q.CommitEndTime)
	testutil.RevealTestVote(t, te.Engine, "alice", q.Key, "alice-secret")
	testutil.RevealTestVote(t, te.Engine, "bob", q.Key, "bob-secret")

	_, err := te.ClaimReward(ctx, "alice", q.Key, "")
	require.ErrorIs(t, err, engine.ErrRevealPhaseNotOver)
	_, err = te.ReclaimBallotRent(ctx, "bob", q.Key)
	require.ErrorIs(t, err, engine.ErrRevealPhaseNotOver)

	te.Clock.SetUnix(q.RevealEndTime)

	_, err = te.ClaimReward(ctx, "bob", q.Key, "")
	require.ErrorIs(t, err, engine.ErrNotEligible)
	_, err = te.ClaimReward(ctx, "alice", q.Key, strings.Repeat("x", 65))
	require.ErrorIs(t, err, engine.ErrClaimReferenceTooLong)
	_, err = te.ReclaimBallotRent(ctx, "alice", q.Key)
	require.ErrorIs(t, err, engine.ErrAlreadyEligibleOrWinner)

	walletBefore := testutil.Balance(t, te.DB, engine.WalletAccount("alice"))
	res, err := te.ClaimReward(ctx, "alice", q.Key, "")
	require.NoError(t, err)
	assert.Equal(t, uint64(980_000), res.Payout)
	assert.True(t, res.Final)
	assert.Len(t, res.Reference.String(), 36)
	assert.Equal(t, walletBefore+980_000+ballotDeposit, testutil.Balance(t, te.DB, engine.WalletAccount("alice")))
	assert.Equal(t, uint64(20_000), testutil.Balance(t, te.DB, feeReceiver))

	_, err = te.ClaimReward(ctx, "alice", q.Key, "")
	require.ErrorIs(t, err, engine.ErrAlreadyClaimed)
	_, err = te.ReclaimBallotRent(ctx, "alice", q.Key)
	require.ErrorIs(t, err, engine.ErrAlreadyClaimed)

	refunded, err := te.ReclaimBallotRent(ctx, "bob", q.Key)
	require.NoError(t, err)
	assert.Equal(t, ballotDeposit, refunded)
	_, err = te.ReclaimBallotRent(ctx, "bob", q.Key)
	require.ErrorIs(t, err, engine.ErrAlreadyClosed)
	_, err = te.ClaimReward(ctx, "bob", q.Key, "")
	require.ErrorIs(t, err, engine.ErrAlreadyClosed)

	got, err := te.Question(ctx, q.Key)
	require.NoError(t, err)
	assert.Equal(t, models.StageSettled, got.Stage)
	assert.Equal(t, models.Option1, got.WinningOption)
	assert.Equal(t, uint64(reward), got.OriginalReward)
	assert.Equal(t, uint64(980_000), got.SnapshotReward)
	assert.Equal(t, got.SnapshotReward, got.TotalDistributed)
	assert.Equal(t, uint64(2), got.SnapshotTotalWeight)
	assert.Equal(t, got.VoterRecordsCount, got.VoterRecordsClosed)
	assert.Equal(t, vaultMinimum, testutil.Balance(t, te.DB, engine.QuestionVaultAccount(q.Key)))

	alice, err := te.User(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(980_000), alice.TotalEarnings)
	assert.Equal(t, uint64(1), alice.TotalRevealedVotes)
	assert.Equal(t, uint64(1), alice.TotalCorrectVotes)
	assert.Equal(t, uint8(2), alice.Reputation)

	bob, err := te.User(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), bob.TotalCorrectVotes)
	assert.Equal(t, uint8(1), bob.Reputation)

	ballot, err := te.Ballot(ctx, q.Key, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.BallotClaimed, ballot.Status)
	assert.Equal(t, res.Reference, ballot.ClaimReference)
	assert.Equal(t, uint64(980_000), ballot.Payout)

	_, err = te.DeleteExpiredQuestion(ctx, "bob", q.Key)
	require.ErrorIs(t, err, engine.ErrNotAsker)
	refunded, err = te.DeleteExpiredQuestion(ctx, "asker", q.Key)
	require.NoError(t, err)
	assert.Equal(t, vaultMinimum+questionDeposit, refunded)
	_, err = te.Question(ctx, q.Key)
	require.ErrorIs(t, err, engine.ErrQuestionNotFound)

	assert.Equal(t, funded, testutil.LedgerTotal(t, te.DB))
}

// Weights 2, 3 and 5 share a 97 unit snapshot; the claim completing the
// weight absorbs the rounding remainder.
func TestScenario_WeightedRemainder(t *testing.T) {
	te := testutil.NewTestEngine(t, testutil.TestParams())
	ctx := context.Background()

	// 98 less the 2% fee (1) leaves 97
	q := testutil.CreateTestQuestion(t, te, "asker", 98, time.Hour, time.Hour)
	voters := []struct {
		name   string
		weight uint8
		want   uint64
	}{
		{"v2", 2, 19},
		{"v3", 3, 29},
		{"v5", 5, 49},
	}
	for _, v := range voters {
		testutil.JoinTestUser(t, te.Engine, v.name)
		testutil.SetReputation(t, te, v.name, v.weight)
		testutil.CommitTestVote(t, te.Engine, v.name, q.Key, commitment.OptionFalse, v.name+"-secret")
	}
	testutil.JoinTestUser(t, te.Engine, "dissent")
	testutil.CommitTestVote(t, te.Engine, "dissent", q.Key, commitment.OptionTrue, "dissent-secret")
	funded := testutil.LedgerTotal(t, te.DB)

	te.Clock.SetUnix(q.CommitEndTime)
	for _, v := range voters {
		testutil.RevealTestVote(t, te.Engine, v.name, q.Key, v.name+"-secret")
	}
	testutil.RevealTestVote(t, te.Engine, "dissent", q.Key, "dissent-secret")

	te.Clock.SetUnix(q.RevealEndTime)
	var distributed uint64
	for i, v := range voters {
		res, err := te.ClaimReward(ctx, v.name, q.Key, "ref-"+v.name)
		require.NoError(t, err)
		assert.Equal(t, v.want, res.Payout, v.name)
		assert.Equal(t, i == len(voters)-1, res.Final, v.name)
		distributed += res.Payout

		got, err := te.Question(ctx, q.Key)
		require.NoError(t, err)
		assert.Equal(t, distributed, got.TotalDistributed)
		assert.LessOrEqual(t, got.TotalDistributed, got.SnapshotReward)
	}
	assert.Equal(t, uint64(97), distributed)
	assert.Equal(t, uint64(1), testutil.Balance(t, te.DB, feeReceiver))

	_, err := te.ReclaimBallotRent(ctx, "dissent", q.Key)
	require.NoError(t, err)

	got, err := te.Question(ctx, q.Key)
	require.NoError(t, err)
	assert.Equal(t, models.Option2, got.WinningOption)
	assert.Equal(t, uint64(10), got.SnapshotTotalWeight)
	assert.Equal(t, uint64(3), got.ClaimedVotersCount)
	assert.Equal(t, uint64(4), got.VoterRecordsClosed)

	_, err = te.DeleteExpiredQuestion(ctx, "asker", q.Key)
	require.NoError(t, err)
	assert.Equal(t, funded, testutil.LedgerTotal(t, te.DB))
}

func TestScenario_NoCommitsDrain(t *testing.T) {
	te := testutil.NewTestEngine(t, testutil.TestParams())
	ctx := context.Background()
	const reward = 1_000_000

	q := testutil.CreateTestQuestion(t, te, "asker", reward, time.Hour, time.Hour)
	testutil.JoinTestUser(t, te.Engine, "alice")

	_, err := te.DrainUnclaimedReward(ctx, q.Key)
	require.ErrorIs(t, err, engine.ErrCannotDrainReward)

	te.Clock.SetUnix(q.CommitEndTime)
	// Nobody committed, so the escrow cannot be deleted until drained
	_, err = te.DeleteExpiredQuestion(ctx, "asker", q.Key)
	require.ErrorIs(t, err, engine.ErrRemainingRewardExists)

	drained, err := te.DrainUnclaimedReward(ctx, q.Key)
	require.NoError(t, err)
	assert.Equal(t, uint64(reward), drained)
	assert.Equal(t, uint64(reward), testutil.Balance(t, te.DB, feeReceiver))

	_, err = te.DrainUnclaimedReward(ctx, q.Key)
	require.ErrorIs(t, err, engine.ErrAlreadyDrained)

	te.Clock.SetUnix(q.RevealEndTime)
	_, err = te.ClaimReward(ctx, "alice", q.Key, "")
	require.ErrorIs(t, err, engine.ErrNoEligibleVoters)

	got, err := te.Question(ctx, q.Key)
	require.NoError(t, err)
	assert.Equal(t, models.StageDrained, got.Stage)

	refunded, err := te.DeleteExpiredQuestion(ctx, "asker", q.Key)
	require.NoError(t, err)
	assert.Equal(t, vaultMinimum+questionDeposit, refunded)
}

func TestScenario_Tie(t *testing.T) {
	te := testutil.NewTestEngine(t, testutil.TestParams())
	ctx := context.Background()

	q := testutil.CreateTestQuestion(t, te, "asker", 1_000_000, time.Hour, time.Hour)
	testutil.JoinTestUser(t, te.Engine, "alice")
	testutil.JoinTestUser(t, te.Engine, "bob")
	testutil.CommitTestVote(t, te.Engine, "alice", q.Key, commitment.OptionTrue, "alice-secret")
	testutil.CommitTestVote(t, te.Engine, "bob", q.Key, commitment.OptionFalse, "bob-secret")

	te.Clock.SetUnix(q.CommitEndTime)
	testutil.RevealTestVote(t, te.Engine, "alice", q.Key, "alice-secret")
	testutil.RevealTestVote(t, te.Engine, "bob", q.Key, "bob-secret")

	te.Clock.SetUnix(q.RevealEndTime)
	got, err := te.Question(ctx, q.Key)
	require.NoError(t, err)
	assert.Equal(t, models.OptionTie, got.WinningOption)
	assert.Equal(t, models.StageResolved, got.Stage)

	first, err := te.ClaimReward(ctx, "alice", q.Key, "")
	require.NoError(t, err)
	assert.Equal(t, uint64(490_000), first.Payout)
	assert.False(t, first.Final)

	second, err := te.ClaimReward(ctx, "bob", q.Key, "")
	require.NoError(t, err)
	assert.Equal(t, uint64(490_000), second.Payout)
	assert.True(t, second.Final)

	// A tie is nobody's correct vote
	alice, err := te.User(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), alice.TotalCorrectVotes)
	assert.Equal(t, uint64(490_000), alice.TotalEarnings)
}

func TestScenario_TieBallotMayReclaimRent(t *testing.T) {
	te := testutil.NewTestEngine(t, testutil.TestParams())
	ctx := context.Background()

	q := testutil.CreateTestQuestion(t, te, "asker", 1_000_000, time.Hour, time.Hour)
	testutil.JoinTestUser(t, te.Engine, "alice")
	testutil.JoinTestUser(t, te.Engine, "bob")
	testutil.CommitTestVote(t, te.Engine, "alice", q.Key, commitment.OptionTrue, "alice-secret")
	testutil.CommitTestVote(t, te.Engine, "bob", q.Key, commitment.OptionFalse, "bob-secret")
	te.Clock.SetUnix(q.CommitEndTime)
	testutil.RevealTestVote(t, te.Engine, "alice", q.Key, "alice-secret")
	testutil.RevealTestVote(t, te.Engine, "bob", q.Key, "bob-secret")
	te.Clock.SetUnix(q.RevealEndTime)

	refunded, err := te.ReclaimBallotRent(ctx, "bob", q.Key)
	require.NoError(t, err)
	assert.Equal(t, ballotDeposit, refunded)

	_, err = te.ClaimReward(ctx, "alice", q.Key, "")
	require.NoError(t, err)

	// Bob's half of the pool stays in escrow
	_, err = te.DeleteExpiredQuestion(ctx, "asker", q.Key)
	require.ErrorIs(t, err, engine.ErrCannotDeleteQuestion)
}

func TestDrain_NoReveals(t *testing.T) {
	te := testutil.NewTestEngine(t, testutil.TestParams())
	ctx := context.Background()
	const reward = 1_000_000

	q := testutil.CreateTestQuestion(t, te, "asker", reward, time.Hour, time.Hour)
	testutil.JoinTestUser(t, te.Engine, "alice")
	testutil.CommitTestVote(t, te.Engine, "alice", q.Key, commitment.OptionTrue, "secret")

	te.Clock.SetUnix(q.CommitEndTime)
	_, err := te.DrainUnclaimedReward(ctx, q.Key)
	require.ErrorIs(t, err, engine.ErrCannotDrainReward)

	te.Clock.SetUnix(q.RevealEndTime)
	_, err = te.ClaimReward(ctx, "alice", q.Key, "")
	require.ErrorIs(t, err, engine.ErrNoEligibleVoters)

	drained, err := te.DrainUnclaimedReward(ctx, q.Key)
	require.NoError(t, err)
	assert.Equal(t, uint64(reward), drained)

	// Deleting returns the unrevealed ballot's deposit to its voter
	wallet := testutil.Balance(t, te.DB, engine.WalletAccount("alice"))
	_, err = te.DeleteExpiredQuestion(ctx, "asker", q.Key)
	require.NoError(t, err)
	assert.Equal(t, wallet+ballotDeposit, testutil.Balance(t, te.DB, engine.WalletAccount("alice")))
}

func TestDrain_NotAllowedAfterReveals(t *testing.T) {
	te := testutil.NewTestEngine(t, testutil.TestParams())
	ctx := context.Background()

	q := testutil.CreateTestQuestion(t, te, "asker", 1_000_000, time.Hour, time.Hour)
	testutil.JoinTestUser(t, te.Engine, "alice")
	testutil.CommitTestVote(t, te.Engine, "alice", q.Key, commitment.OptionTrue, "secret")
	te.Clock.SetUnix(q.CommitEndTime)
	testutil.RevealTestVote(t, te.Engine, "alice", q.Key, "secret")

	te.Clock.SetUnix(q.RevealEndTime)
	_, err := te.DrainUnclaimedReward(ctx, q.Key)
	require.ErrorIs(t, err, engine.ErrCannotDrainReward)

	// A winner who has not claimed blocks deletion
	_, err = te.DeleteExpiredQuestion(ctx, "asker", q.Key)
	require.ErrorIs(t, err, engine.ErrCannotDeleteQuestion)
}

func TestDelete_GracePeriod(t *testing.T) {
	params := testutil.TestParams()
	params.DeleteGrace = 86400
	te := testutil.NewTestEngine(t, params)
	ctx := context.Background()

	q := testutil.CreateTestQuestion(t, te, "asker", 1_000_000, time.Hour, time.Hour)
	te.Clock.SetUnix(q.CommitEndTime)
	_, err := te.DrainUnclaimedReward(ctx, q.Key)
	require.NoError(t, err)

	_, err = te.DeleteExpiredQuestion(ctx, "asker", q.Key)
	require.ErrorIs(t, err, engine.ErrRentNotExpired)

	te.Clock.SetUnix(q.RentExpiration + 86400)
	_, err = te.DeleteExpiredQuestion(ctx, "asker", q.Key)
	require.NoError(t, err)
}

func TestFinalize(t *testing.T) {
	te := testutil.NewTestEngine(t, testutil.TestParams())
	ctx := context.Background()

	q := testutil.CreateTestQuestion(t, te, "asker", 1_000_000, time.Hour, time.Hour)
	testutil.JoinTestUser(t, te.Engine, "alice")
	testutil.JoinTestUser(t, te.Engine, "bob")
	testutil.SetReputation(t, te, "alice", 2)
	testutil.CommitTestVote(t, te.Engine, "alice", q.Key, commitment.OptionTrue, "alice-secret")
	testutil.CommitTestVote(t, te.Engine, "bob", q.Key, commitment.OptionFalse, "bob-secret")
	te.Clock.SetUnix(q.CommitEndTime)
	testutil.RevealTestVote(t, te.Engine, "alice", q.Key, "alice-secret")
	testutil.RevealTestVote(t, te.Engine, "bob", q.Key, "bob-secret")

	_, err := te.Finalize(ctx, q.Key, q.ID)
	require.ErrorIs(t, err, engine.ErrVotingStillActive)

	te.Clock.SetUnix(q.RevealEndTime)
	_, err = te.Finalize(ctx, q.Key, q.ID+1)
	require.ErrorIs(t, err, engine.ErrQuestionIDMismatch)

	got, err := te.Finalize(ctx, q.Key, q.ID)
	require.NoError(t, err)
	assert.True(t, got.Finalized)
	assert.Equal(t, models.Option1, got.ReportedOption)
	assert.Equal(t, uint64(2), got.EligibleVoters)
	assert.Equal(t, "66.67", got.WinningPercent)

	_, err = te.Finalize(ctx, q.Key, q.ID)
	require.ErrorIs(t, err, engine.ErrAlreadyFinalized)

	// Finalizing leaves settlement untouched
	res, err := te.ClaimReward(ctx, "alice", q.Key, "")
	require.NoError(t, err)
	assert.Equal(t, uint64(980_000), res.Payout)
}

func TestFinalize_TieReportsFirstOption(t *testing.T) {
	te := testutil.NewTestEngine(t, testutil.TestParams())
	ctx := context.Background()

	q := testutil.CreateTestQuestion(t, te, "asker", 1_000_000, time.Hour, time.Hour)
	te.Clock.SetUnix(q.RevealEndTime)

	got, err := te.Finalize(ctx, q.Key, q.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Option1, got.ReportedOption)
	assert.Equal(t, "0", got.WinningPercent)

	qq, err := te.Question(ctx, q.Key)
	require.NoError(t, err)
	assert.Equal(t, models.OptionTie, qq.WinningOption)
}

func TestClaimReward_Concurrent(t *testing.T) {
	te := testutil.NewTestEngine(t, testutil.TestParams())
	ctx := context.Background()

	q := testutil.CreateTestQuestion(t, te, "asker", 1_000_003, time.Hour, time.Hour)
	weights := map[string]uint8{"a": 1, "b": 2, "c": 3, "d": 5, "e": 8, "f": 13}
	for name, w := range weights {
		testutil.JoinTestUser(t, te.Engine, name)
		testutil.SetReputation(t, te, name, w)
		testutil.CommitTestVote(t, te.Engine, name, q.Key, commitment.OptionTrue, name+"-secret")
	}
	te.Clock.SetUnix(q.CommitEndTime)
	for name := range weights {
		testutil.RevealTestVote(t, te.Engine, name, q.Key, name+"-secret")
	}
	te.Clock.SetUnix(q.RevealEndTime)

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		total  uint64
		finals int
	)
	for name := range weights {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			res, err := te.ClaimReward(ctx, name, q.Key, "")
			assert.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			total += res.Payout
			if res.Final {
				finals++
			}
		}(name)
	}
	wg.Wait()

	got, err := te.Question(ctx, q.Key)
	require.NoError(t, err)
	assert.Equal(t, 1, finals)
	assert.Equal(t, got.SnapshotReward, total)
	assert.Equal(t, got.SnapshotReward, got.TotalDistributed)
	assert.Equal(t, models.StageSettled, got.Stage)
}
