package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/geocoder89/postboard/internal/domain/post"
	"github.com/geocoder89/postboard/internal/domain/user"
	"github.com/geocoder89/postboard/internal/domain/vote"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestVoteInsertErr(t *testing.T) {
	other := errors.New("connection reset")
	unknownFK := &pgconn.PgError{Code: codeForeignKeyViolation, ConstraintName: "some_other_fk"}

	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "nil", in: nil, want: nil},
		{name: "duplicate vote", in: &pgconn.PgError{Code: codeUniqueViolation}, want: vote.ErrAlreadyVoted},
		{
			name: "missing post",
			in:   &pgconn.PgError{Code: codeForeignKeyViolation, ConstraintName: constraintVotesPosts},
			want: post.ErrNotFound,
		},
		{
			name: "missing voter",
			in:   fmt.Errorf("insert: %w", &pgconn.PgError{Code: codeForeignKeyViolation, ConstraintName: constraintVotesUsers}),
			want: user.ErrNotFound,
		},
		{name: "unrecognized constraint", in: unknownFK, want: unknownFK},
		{name: "not a pg error", in: other, want: other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := voteInsertErr(tt.in)

			if tt.want == nil {
				if got != nil {
					t.Fatalf("got %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestForeignKeyConstraint(t *testing.T) {
	if _, ok := ForeignKeyConstraint(&pgconn.PgError{Code: codeUniqueViolation}); ok {
		t.Fatalf("unique violation reported as foreign key error")
	}

	name, ok := ForeignKeyConstraint(&pgconn.PgError{Code: codeForeignKeyViolation, ConstraintName: "post_users_fk"})
	if !ok || name != "post_users_fk" {
		t.Fatalf("got (%q, %v)", name, ok)
	}
}
