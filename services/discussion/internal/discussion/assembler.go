package discussion

import (
	"context"
	"fmt"

	"github.com/example/book-social/services/discussion/internal/pathcodec"
	"github.com/example/book-social/services/discussion/internal/render"
	"github.com/example/book-social/services/discussion/internal/store"
)

// DefaultReplyDepth is how many levels below a root are expanded.
const DefaultReplyDepth = 4

// Node is a comment with its reactions and nested replies.
type Node struct {
	ID          int64          `json:"id"`
	PostID      int64          `json:"post_id"`
	AuthorID    int64          `json:"author_id"`
	Content     string         `json:"content"`
	ContentHTML string         `json:"content_html"`
	Path        pathcodec.Path `json:"path"`
	Level       int            `json:"level"`
	Reactions   *Tally         `json:"reactions,omitempty"`
	OwnReaction *Reaction      `json:"own_reaction"`
	Children    []*Node        `json:"children"`
}

// Assembler expands root comments into bounded-depth reply trees.
type Assembler struct {
	Overlay  Overlay
	Renderer *render.Renderer
	// Depth is the number of levels expanded below each root.
	Depth int
}

func (a Assembler) depth() int {
	if a.Depth <= 0 {
		return DefaultReplyDepth
	}
	return a.Depth
}

// Assemble builds one tree per root, in the order given. Roots must belong
// to one post and share one parent path. Descendants more than Depth levels
// below their root are left out entirely.
func (a Assembler) Assemble(ctx context.Context, tx store.Tx, roots []store.Comment, viewer *int64, withTally bool) ([]*Node, error) {
	if len(roots) == 0 {
		return []*Node{}, nil
	}
	postID, prefix := roots[0].PostID, roots[0].Path
	rootIDs := make([]int64, len(roots))
	for i, r := range roots {
		if r.PostID != postID || !r.Path.Equal(prefix) {
			return nil, fmt.Errorf("assemble: comment %d is not a sibling of %d", r.ID, roots[0].ID)
		}
		rootIDs[i] = r.ID
	}

	below, err := tx.Subtrees(ctx, postID, prefix, rootIDs, prefix.Level()+a.depth())
	if err != nil {
		return nil, fmt.Errorf("load replies: %w", err)
	}

	ids := make([]int64, 0, len(roots)+len(below))
	ids = append(ids, rootIDs...)
	for _, c := range below {
		ids = append(ids, c.ID)
	}
	notes, err := a.Overlay.Apply(ctx, tx, ids, viewer)
	if err != nil {
		return nil, err
	}

	nodes := make(map[int64]*Node, len(ids))
	out := make([]*Node, len(roots))
	for i, r := range roots {
		out[i] = a.node(r, notes[r.ID], withTally)
		nodes[r.ID] = out[i]
	}
	for _, c := range below {
		nodes[c.ID] = a.node(c, notes[c.ID], withTally)
	}
	// below is id-descending, so children are appended in that order too.
	for _, c := range below {
		parentID, _ := c.Path.Parent()
		parent, ok := nodes[parentID]
		if !ok || !c.Path.IsChildOf(parent.Path) {
			// parent removed underneath us; the reply is unreachable
			continue
		}
		parent.Children = append(parent.Children, nodes[c.ID])
	}
	return out, nil
}

func (a Assembler) node(c store.Comment, note Annotation, withTally bool) *Node {
	n := &Node{
		ID:          c.ID,
		PostID:      c.PostID,
		AuthorID:    c.AuthorID,
		Content:     c.Content,
		ContentHTML: a.Renderer.HTML(c.Content),
		Path:        c.Path,
		Level:       c.Path.Level(),
		OwnReaction: note.Own,
		Children:    []*Node{},
	}
	if withTally {
		t := note.Tally
		n.Reactions = &t
	}
	return n
}
