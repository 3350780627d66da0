package comments

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/ystore/backend/internal/models"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func rec(id, parent string, minute int, reactors ...string) models.Comment {
	c := models.Comment{
		ID:         id,
		SubjectID:  "P1",
		Body:       "body " + id,
		ReactorIDs: pq.StringArray(reactors),
		CreatedAt:  t0.Add(time.Duration(minute) * time.Minute),
	}
	if parent != "" {
		p := parent
		c.ParentID = &p
	}
	return c
}

func ids(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func countNodes(nodes []*Node) int {
	n := 0
	for _, node := range nodes {
		n += 1 + countNodes(node.Replies)
	}
	return n
}

func TestBuildTreeEmpty(t *testing.T) {
	tree := BuildTree(nil, "")
	require.NotNil(t, tree)
	assert.Empty(t, tree)

	raw, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestBuildTreeOrdering(t *testing.T) {
	records := []models.Comment{
		rec("A", "", 0),
		rec("B", "", 10),
		rec("C", "", 5),
		rec("A2", "A", 20),
		rec("A1", "A", 15),
		rec("A1b", "A1", 40),
		rec("A1a", "A1", 30),
	}

	tree := BuildTree(records, "")

	assert.Equal(t, []string{"B", "C", "A"}, ids(tree))
	a := tree[2]
	assert.Equal(t, []string{"A1", "A2"}, ids(a.Replies))
	assert.Equal(t, []string{"A1a", "A1b"}, ids(a.Replies[0].Replies))
	assert.Equal(t, len(records), countNodes(tree))
}

func TestBuildTreeDropsOrphans(t *testing.T) {
	records := []models.Comment{
		rec("A", "", 0),
		rec("X", "gone", 1),
		rec("Y", "X", 2),
	}

	tree := BuildTree(records, "")

	assert.Equal(t, []string{"A"}, ids(tree))
	assert.Equal(t, 1, countNodes(tree))
}

func TestBuildTreeUserReacted(t *testing.T) {
	records := []models.Comment{
		rec("A", "", 0, "U1", "U2"),
		rec("B", "A", 1, "U2"),
	}

	tree := BuildTree(records, "U1")
	require.Len(t, tree, 1)
	assert.True(t, tree[0].UserReacted)
	assert.False(t, tree[0].Replies[0].UserReacted)

	anon := BuildTree(records, "")
	assert.False(t, anon[0].UserReacted)
	assert.False(t, anon[0].Replies[0].UserReacted)
}

func TestBuildTreeRepliesSerializeAsEmptyList(t *testing.T) {
	tree := BuildTree([]models.Comment{rec("A", "", 0)}, "")

	raw, err := json.Marshal(tree)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, []any{}, decoded[0]["replies"])
	assert.Equal(t, "A", decoded[0]["id"])
	assert.Equal(t, false, decoded[0]["user_reacted"])
}

func TestSanitizeBody(t *testing.T) {
	got, err := sanitizeBody("  <b>great</b> product<script>alert(1)</script> ")
	require.NoError(t, err)
	assert.Equal(t, "great product", got)

	_, err = sanitizeBody("   ")
	assert.Error(t, err)

	_, err = sanitizeBody("<img src=x>")
	assert.Error(t, err)

	long := make([]rune, MaxBodyLength+1)
	for i := range long {
		long[i] = 'ж'
	}
	_, err = sanitizeBody(string(long))
	assert.Error(t, err)

	ok, err := sanitizeBody(string(long[:MaxBodyLength]))
	require.NoError(t, err)
	assert.Len(t, []rune(ok), MaxBodyLength)
}

func TestSanitizeBodyKeepsPlainText(t *testing.T) {
	cases := map[string]string{
		"don't":              "don't",
		"Tom & Jerry":        "Tom & Jerry",
		"5 < 6":              "5 < 6",
		`say "hi"`:           `say "hi"`,
		"<i>fits</i> & more": "fits & more",
	}
	for in, want := range cases {
		got, err := sanitizeBody(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestSanitizeBodyLimitsUnescapedLength(t *testing.T) {
	body := strings.Repeat("&", MaxBodyLength)

	got, err := sanitizeBody(body)
	require.NoError(t, err)
	assert.Equal(t, body, got)

	_, err = sanitizeBody(body + "&")
	assert.Error(t, err)
}
