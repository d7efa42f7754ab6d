package postgres

import (
	"context"

	"github.com/geocoder89/postboard/internal/domain/post"
	"github.com/geocoder89/postboard/internal/domain/user"
	"github.com/geocoder89/postboard/internal/domain/vote"
	"github.com/geocoder89/postboard/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VotesRepo struct {
	pool *pgxpool.Pool
	dbObserver
}

func NewVotesRepo(pool *pgxpool.Pool, prom *observability.Prom) *VotesRepo {
	return &VotesRepo{pool: pool, dbObserver: dbObserver{prom: prom}}
}

// WithTx runs fn in a read-committed transaction and commits when fn returns nil.
func (r *VotesRepo) WithTx(ctx context.Context, fn func(vote.Tx) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = fn(&voteTx{tx: tx, dbObserver: r.dbObserver})

	if err != nil {
		return
	}

	err = tx.Commit(ctx)
	return
}

type voteTx struct {
	tx pgx.Tx
	dbObserver
}

func (t *voteTx) PostExists(ctx context.Context, postID string) (bool, error) {
	var exists bool

	err := t.observe("votes.post_exists", func() error {
		return t.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists)
	})

	return exists, err
}

func (t *voteTx) Exists(ctx context.Context, postID, userID string) (bool, error) {
	var exists bool

	err := t.observe("votes.exists", func() error {
		return t.tx.QueryRow(ctx, `SELECT EXISTS(
			SELECT 1 FROM votes
			WHERE post_id = $1 AND user_id = $2
		)`, postID, userID).Scan(&exists)
	})

	return exists, err
}

func (t *voteTx) Insert(ctx context.Context, v vote.Vote) error {
	err := t.observe("votes.insert", func() error {
		_, err := t.tx.Exec(ctx,
			`INSERT INTO votes (post_id, user_id, created_at) VALUES ($1, $2, $3)`,
			v.PostID, v.UserID, v.CreatedAt,
		)
		return err
	})

	return voteInsertErr(err)
}

func voteInsertErr(err error) error {
	if err == nil {
		return nil
	}

	// a concurrent submit got there first
	if IsUniqueViolation(err) {
		return vote.ErrAlreadyVoted
	}

	if name, ok := ForeignKeyConstraint(err); ok {
		switch name {
		case constraintVotesPosts:
			return post.ErrNotFound
		case constraintVotesUsers:
			return user.ErrNotFound
		}
	}

	return err
}

func (t *voteTx) Delete(ctx context.Context, postID, userID string) error {
	var tag pgconn.CommandTag

	err := t.observe("votes.delete", func() error {
		var err error
		tag, err = t.tx.Exec(ctx, `DELETE FROM votes WHERE post_id = $1 AND user_id = $2`, postID, userID)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return vote.ErrNotFound
	}

	return nil
}
