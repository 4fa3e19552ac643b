package discussion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/book-social/services/discussion/internal/pathcodec"
	"github.com/example/book-social/services/discussion/internal/store"
)

// leakyTx reports Mine regardless of the viewer.
type leakyTx struct {
	store.Tx
	rows  []store.ReactionCount
	calls int
}

func (tx *leakyTx) ReactionCounts(context.Context, []int64, *int64) ([]store.ReactionCount, error) {
	tx.calls++
	return tx.rows, nil
}

func TestOverlay_AnonymousIgnoresMine(t *testing.T) {
	tx := &leakyTx{rows: []store.ReactionCount{
		{CommentID: 1, Kind: store.ReactionLike, Count: 3, Mine: true},
		{CommentID: 1, Kind: store.ReactionAngry, Count: 1},
		{CommentID: 42, Kind: store.ReactionLike, Count: 9, Mine: true},
	}}

	notes, err := Overlay{}.Apply(context.Background(), tx, []int64{1, 2}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, tx.calls)
	require.Len(t, notes, 2)
	require.Nil(t, notes[1].Own)
	require.Equal(t, Tally{Total: 4, Like: 3, Angry: 1}, notes[1].Tally)
	require.Equal(t, Annotation{}, notes[2])
}

func TestOverlay_ViewerSeesOwn(t *testing.T) {
	tx := &leakyTx{rows: []store.ReactionCount{
		{CommentID: 1, Kind: store.ReactionWow, Count: 2, Mine: true},
	}}
	viewer := int64(3)

	notes, err := Overlay{}.Apply(context.Background(), tx, []int64{1}, &viewer)
	require.NoError(t, err)
	require.NotNil(t, notes[1].Own)
	require.Equal(t, store.ReactionWow, *notes[1].Own)
}

func TestOverlay_EmptyIDsSkipsStorage(t *testing.T) {
	tx := &leakyTx{}
	notes, err := Overlay{}.Apply(context.Background(), tx, nil, nil)
	require.NoError(t, err)
	require.Empty(t, notes)
	require.Zero(t, tx.calls)
}

func TestParseReaction(t *testing.T) {
	r, err := ParseReaction(" Laugh ")
	require.NoError(t, err)
	require.Equal(t, store.ReactionLaugh, r)

	_, err = ParseReaction("meh")
	require.ErrorIs(t, err, ErrValidation)
}

func TestAssemble_RejectsMixedRoots(t *testing.T) {
	roots := []store.Comment{
		{ID: 2, PostID: 1, Path: pathcodec.Top},
		{ID: 1, PostID: 1, Path: pathcodec.MustFromSegments(2)},
	}
	_, err := Assembler{}.Assemble(context.Background(), &leakyTx{}, roots, nil, false)
	require.Error(t, err)
	require.Equal(t, Kind(0), KindOf(err))
}

func TestError_KindAndMessage(t *testing.T) {
	err := notFound(12)
	require.ErrorIs(t, err, ErrNotFound)
	require.NotErrorIs(t, err, ErrUnauthorized)
	require.Equal(t, KindNotFound, KindOf(err))
	require.Equal(t, "comment 12 not found", err.Error())

	err = invalid("content", "must not be empty")
	require.Equal(t, KindValidation, KindOf(err))
	require.Equal(t, "invalid content: must not be empty", err.Error())
}
