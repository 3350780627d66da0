package comments

import (
	"sort"

	"github.com/emilythestrangee/ystore/backend/internal/models"
)

// Node is a comment with its replies attached.
type Node struct {
	models.Comment
	UserReacted bool    `json:"user_reacted"`
	Replies     []*Node `json:"replies"`
}

// BuildTree nests records by parent_id. Top-level nodes come newest first,
// replies oldest first at every depth. Records whose parent is not in the
// set are dropped.
func BuildTree(records []models.Comment, callerID string) []*Node {
	children := make(map[string][]models.Comment, len(records))
	for _, rec := range records {
		key := ""
		if rec.ParentID != nil {
			key = *rec.ParentID
		}
		children[key] = append(children[key], rec)
	}

	// cycles only exist in corrupted data
	visited := make(map[string]bool, len(records))

	var attach func(parentID string, newestFirst bool) []*Node
	attach = func(parentID string, newestFirst bool) []*Node {
		group := children[parentID]
		sort.SliceStable(group, func(i, j int) bool {
			if newestFirst {
				return group[i].CreatedAt.After(group[j].CreatedAt)
			}
			return group[i].CreatedAt.Before(group[j].CreatedAt)
		})

		nodes := make([]*Node, 0, len(group))
		for _, rec := range group {
			if visited[rec.ID] {
				continue
			}
			visited[rec.ID] = true
			nodes = append(nodes, &Node{
				Comment:     rec,
				UserReacted: rec.HasReactor(callerID),
				Replies:     attach(rec.ID, false),
			})
		}
		return nodes
	}

	return attach("", true)
}
