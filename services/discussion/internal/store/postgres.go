package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/book-social/services/discussion/internal/pathcodec"
)

const pgForeignKeyViolation = "23503"

const commentColumns = `id, post_id, author_id, content, path, created_at, updated_at`

// PostgresStore persists comments and reactions in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store backed by Postgres.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &postgresTx{tx: tx}, nil
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *postgresTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func (t *postgresTx) InsertComment(ctx context.Context, c NewComment) (int64, error) {
	const q = `INSERT INTO comments (post_id, author_id, content, path)
	           VALUES ($1, $2, $3, $4)
	           RETURNING id`
	var id int64
	if err := t.tx.QueryRow(ctx, q, c.PostID, c.AuthorID, c.Content, c.Path.Segments()).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert comment: %w", err)
	}
	return id, nil
}

func (t *postgresTx) GetComment(ctx context.Context, id int64) (Comment, error) {
	q := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	c, err := scanComment(t.tx.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, ErrNotFound
	}
	if err != nil {
		return Comment{}, fmt.Errorf("get comment %d: %w", id, err)
	}
	return c, nil
}

func (t *postgresTx) UpdateContent(ctx context.Context, id, authorID int64, content string) (int64, error) {
	const q = `UPDATE comments SET content = $3, updated_at = now()
	           WHERE id = $1 AND author_id = $2`
	tag, err := t.tx.Exec(ctx, q, id, authorID, content)
	if err != nil {
		return 0, fmt.Errorf("update comment %d: %w", id, err)
	}
	return tag.RowsAffected(), nil
}

func (t *postgresTx) DeleteSubtree(ctx context.Context, id, authorID int64) (int64, int64, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM comments WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		return 0, 0, fmt.Errorf("delete comment %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, 0, nil
	}
	// ids are unique, so any path containing id lies below it.
	replies, err := t.tx.Exec(ctx, `DELETE FROM comments WHERE path @> ARRAY[$1::BIGINT]`, id)
	if err != nil {
		return 0, 0, fmt.Errorf("delete replies of %d: %w", id, err)
	}
	return tag.RowsAffected(), replies.RowsAffected(), nil
}

func (t *postgresTx) Siblings(ctx context.Context, postID int64, path pathcodec.Path, before *int64, limit int) ([]Comment, error) {
	q := `SELECT ` + commentColumns + `
	      FROM comments
	      WHERE post_id = $1 AND path = $2::BIGINT[]
	        AND ($3::BIGINT IS NULL OR id < $3)
	      ORDER BY id DESC
	      LIMIT $4`
	return t.scanComments(ctx, q, postID, path.Segments(), before, limit)
}

func (t *postgresTx) Subtrees(ctx context.Context, postID int64, prefix pathcodec.Path, rootIDs []int64, maxLevel int) ([]Comment, error) {
	if len(rootIDs) == 0 {
		return nil, nil
	}
	q := `SELECT ` + commentColumns + `
	      FROM comments
	      WHERE post_id = $1
	        AND cardinality(path) > $2::INT
	        AND cardinality(path) <= $3::INT
	        AND path[1:$2::INT] = $4::BIGINT[]
	        AND path[$2::INT + 1] = ANY($5::BIGINT[])
	      ORDER BY id DESC`
	return t.scanComments(ctx, q, postID, prefix.Level(), maxLevel, prefix.Segments(), rootIDs)
}

func (t *postgresTx) ReactionCounts(ctx context.Context, ids []int64, viewer *int64) ([]ReactionCount, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const q = `SELECT comment_id, kind::TEXT, COUNT(*),
	                  COALESCE(BOOL_OR(user_id = $2::BIGINT), FALSE)
	           FROM comment_reactions
	           WHERE comment_id = ANY($1::BIGINT[])
	           GROUP BY comment_id, kind
	           ORDER BY comment_id, kind`
	rows, err := t.tx.Query(ctx, q, ids, viewer)
	if err != nil {
		return nil, fmt.Errorf("reaction counts: %w", err)
	}
	defer rows.Close()

	var out []ReactionCount
	for rows.Next() {
		var rc ReactionCount
		var kind string
		if err := rows.Scan(&rc.CommentID, &kind, &rc.Count, &rc.Mine); err != nil {
			return nil, fmt.Errorf("scan reaction count: %w", err)
		}
		rc.Kind = Reaction(kind)
		out = append(out, rc)
	}
	return out, rows.Err()
}

func (t *postgresTx) UpsertReaction(ctx context.Context, commentID, userID int64, kind Reaction) error {
	const q = `INSERT INTO comment_reactions (comment_id, user_id, kind)
	           VALUES ($1, $2, $3::TEXT::comment_reaction)
	           ON CONFLICT (comment_id, user_id) DO UPDATE SET
	             kind = EXCLUDED.kind,
	             created_at = now()`
	_, err := t.tx.Exec(ctx, q, commentID, userID, string(kind))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("upsert reaction on %d: %w", commentID, err)
	}
	return nil
}

func (t *postgresTx) DeleteReaction(ctx context.Context, commentID, userID int64) (int64, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM comment_reactions WHERE comment_id = $1 AND user_id = $2`, commentID, userID)
	if err != nil {
		return 0, fmt.Errorf("delete reaction on %d: %w", commentID, err)
	}
	return tag.RowsAffected(), nil
}

func (t *postgresTx) scanComments(ctx context.Context, q string, args ...any) ([]Comment, error) {
	rows, err := t.tx.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanComment(row pgx.Row) (Comment, error) {
	var c Comment
	var segs []int64
	if err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &segs, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Comment{}, err
	}
	p, err := pathcodec.FromSegments(segs)
	if err != nil {
		return Comment{}, fmt.Errorf("comment %d: %w", c.ID, err)
	}
	c.Path = p
	return c, nil
}
