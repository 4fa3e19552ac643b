package pathcodec

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppend_TopLevelParent(t *testing.T) {
	child := Top.Append(11)
	require.Equal(t, []int64{11}, child.Segments())
	require.True(t, Top.IsTopLevel())
	require.False(t, child.IsTopLevel())
}

func TestAppend_DoesNotAliasParent(t *testing.T) {
	parent := MustFromSegments(1, 2)
	a := parent.Append(3)
	b := parent.Append(4)

	require.Equal(t, []int64{1, 2, 3}, a.Segments())
	require.Equal(t, []int64{1, 2, 4}, b.Segments())
	require.Equal(t, []int64{1, 2}, parent.Segments())
}

func TestIsChildOf_ExactlyOneSegment(t *testing.T) {
	root := MustFromSegments(5)
	require.True(t, MustFromSegments(5, 9).IsChildOf(root))
	require.False(t, MustFromSegments(5, 9, 12).IsChildOf(root))
	require.False(t, root.IsChildOf(root))
	require.False(t, MustFromSegments(6, 9).IsChildOf(root))
	require.True(t, MustFromSegments(5).IsChildOf(Top))
}

func TestIsDescendantOf_OneOrMoreSegments(t *testing.T) {
	root := MustFromSegments(5)
	require.True(t, MustFromSegments(5, 9).IsDescendantOf(root))
	require.True(t, MustFromSegments(5, 9, 12).IsDescendantOf(root))
	require.False(t, root.IsDescendantOf(root))
	require.False(t, MustFromSegments(50, 9).IsDescendantOf(root))
	require.True(t, root.IsDescendantOf(Top))
	require.False(t, Top.IsDescendantOf(Top))
}

func TestParent(t *testing.T) {
	_, ok := Top.Parent()
	require.False(t, ok)

	id, ok := MustFromSegments(3, 7).Parent()
	require.True(t, ok)
	require.Equal(t, int64(7), id)
}

func TestSegments_TopIsEmptyNotNil(t *testing.T) {
	segs := Top.Segments()
	require.NotNil(t, segs)
	require.Len(t, segs, 0)
}

func TestEqual(t *testing.T) {
	require.True(t, MustFromSegments(1, 2).Equal(Top.Append(1).Append(2)))
	require.False(t, MustFromSegments(1, 2).Equal(MustFromSegments(1)))
	require.True(t, Top.Equal(Path{}))
}

func TestMarshalJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		P Path `json:"p"`
		T Path `json:"t"`
	}{P: MustFromSegments(11, 12), T: Top})
	require.NoError(t, err)
	require.JSONEq(t, `{"p":[11,12],"t":[]}`, string(b))
}

func TestUnmarshalJSON_RoundTrip(t *testing.T) {
	var got struct {
		P Path `json:"p"`
		T Path `json:"t"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"p":[11,12],"t":[]}`), &got))
	require.True(t, got.P.Equal(MustFromSegments(11, 12)))
	require.True(t, got.T.IsTopLevel())

	b, err := json.Marshal(got.P)
	require.NoError(t, err)
	var again Path
	require.NoError(t, json.Unmarshal(b, &again))
	require.True(t, again.Equal(got.P))
}

func TestUnmarshalJSON_RejectsMalformed(t *testing.T) {
	for _, in := range []string{`[0]`, `[3,-4]`, `"11.12"`, `[1.5]`} {
		var p Path
		err := json.Unmarshal([]byte(in), &p)
		require.Error(t, err, in)
		require.True(t, errors.Is(err, ErrMalformed), in)
	}
}
