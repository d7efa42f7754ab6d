package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/postboard/internal/domain/post"
	"github.com/geocoder89/postboard/internal/domain/user"
	"github.com/geocoder89/postboard/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostsRepo struct {
	pool *pgxpool.Pool
	dbObserver
}

func NewPostsRepo(pool *pgxpool.Pool, prom *observability.Prom) *PostsRepo {
	return &PostsRepo{pool: pool, dbObserver: dbObserver{prom: prom}}
}

const postColumns = `p.id, p.title, p.content, p.published, p.created_at, p.owner_id,
	u.id, u.email, u.created_at`

// votes are counted through a LEFT JOIN so posts without votes still show up with 0.
const postsWithVotesQuery = `SELECT ` + postColumns + `,
	COUNT(v.post_id) AS votes
FROM posts p
JOIN users u ON u.id = p.owner_id
LEFT JOIN votes v ON v.post_id = p.id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner, extra ...any) (post.Post, error) {
	var p post.Post

	dest := []any{
		&p.ID, &p.Title, &p.Content, &p.Published, &p.CreatedAt, &p.OwnerID,
		&p.Owner.ID, &p.Owner.Email, &p.Owner.CreatedAt,
	}

	err := row.Scan(append(dest, extra...)...)
	return p, err
}

func (r *PostsRepo) Create(ctx context.Context, p post.Post) (post.Post, error) {
	var created post.Post

	err := r.observe("posts.create", func() error {
		var err error
		created, err = scanPost(r.pool.QueryRow(ctx, `
			WITH inserted AS (
				INSERT INTO posts (id, title, content, published, created_at, owner_id)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING *
			)
			SELECT `+postColumns+`
			FROM inserted p
			JOIN users u ON u.id = p.owner_id`,
			p.ID, p.Title, p.Content, p.Published, p.CreatedAt, p.OwnerID,
		))
		return err
	})

	if err != nil {
		if IsForeignKeyViolation(err) {
			return post.Post{}, user.ErrNotFound
		}
		return post.Post{}, err
	}

	return created, nil
}

func (r *PostsRepo) GetByID(ctx context.Context, id string) (post.Post, error) {
	var p post.Post

	err := r.observe("posts.get_by_id", func() error {
		var err error
		p, err = scanPost(r.pool.QueryRow(ctx,
			`SELECT `+postColumns+`
			FROM posts p
			JOIN users u ON u.id = p.owner_id
			WHERE p.id = $1`,
			id,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return post.Post{}, post.ErrNotFound
		}
		return post.Post{}, err
	}

	return p, nil
}

func (r *PostsRepo) GetWithVotes(ctx context.Context, id string) (post.WithVotes, error) {
	var out post.WithVotes

	err := r.observe("posts.get_with_votes", func() error {
		var err error
		out.Post, err = scanPost(r.pool.QueryRow(ctx,
			postsWithVotesQuery+`WHERE p.id = $1
			GROUP BY p.id, u.id`,
			id,
		), &out.Votes)
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return post.WithVotes{}, post.ErrNotFound
		}
		return post.WithVotes{}, err
	}

	return out, nil
}

// ListWithVotes aggregates first and paginates after, so LIMIT/OFFSET count posts, not vote rows.
func (r *PostsRepo) ListWithVotes(ctx context.Context, filter post.ListFilter) ([]post.WithVotes, error) {
	filter = filter.Normalize()

	var conds []string
	var args []interface{}

	argsPosition := 1

	if filter.Search != nil {
		conds = append(conds, fmt.Sprintf("p.title ILIKE $%d", argsPosition))
		args = append(args, "%"+escapeLike(*filter.Search)+"%")
		argsPosition++
	}

	query := postsWithVotesQuery

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += fmt.Sprintf(` GROUP BY p.id, u.id
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $%d OFFSET $%d`, argsPosition, argsPosition+1)

	args = append(args, filter.Limit, filter.Offset)

	var rows pgx.Rows

	err := r.observe("posts.list_with_votes", func() error {
		var err error
		rows, err = r.pool.Query(ctx, query, args...)
		return err
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out := make([]post.WithVotes, 0, filter.Limit)

	for rows.Next() {
		var item post.WithVotes

		item.Post, err = scanPost(rows, &item.Votes)

		if err != nil {
			return nil, err
		}

		out = append(out, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func (r *PostsRepo) Update(ctx context.Context, id string, req post.UpdatePostRequest) (post.Post, error) {
	var p post.Post

	err := r.observe("posts.update", func() error {
		var err error
		p, err = scanPost(r.pool.QueryRow(ctx, `
			WITH updated AS (
				UPDATE posts
				SET title = $2,
				    content = $3,
				    published = $4
				WHERE id = $1
				RETURNING *
			)
			SELECT `+postColumns+`
			FROM updated p
			JOIN users u ON u.id = p.owner_id`,
			id, req.Title, req.Content, req.IsPublished(),
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return post.Post{}, post.ErrNotFound
		}
		return post.Post{}, err
	}

	return p, nil
}

func (r *PostsRepo) Delete(ctx context.Context, id string) error {
	var tag pgconn.CommandTag

	err := r.observe("posts.delete", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return post.ErrNotFound
	}

	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
