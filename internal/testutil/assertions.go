package testutil

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dom/gallery-cms/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode verifies the HTTP response status code
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// AssertJSONResponse decodes an already read JSON body into v
func AssertJSONResponse(t *testing.T, resp *http.Response, body string, v any) {
	t.Helper()
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	require.NoError(t, json.Unmarshal([]byte(body), v), "failed to unmarshal response: %s", body)
}

// AssertRedirect verifies a 303 to the expected location
func AssertRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode, "unexpected status code")
	assert.Equal(t, location, resp.Header.Get("Location"), "unexpected redirect")
}

// AssertForest verifies that following parent links from every node ends
// at a root within len(nodes) steps, and that no node is its own parent.
func AssertForest(t *testing.T, nodes []*domain.Gallery) {
	t.Helper()

	parent := make(map[uuid.UUID]*uuid.UUID, len(nodes))
	for _, n := range nodes {
		parent[n.ID] = n.ParentID
	}

	for _, n := range nodes {
		if n.ParentID != nil && *n.ParentID == n.ID {
			t.Errorf("gallery %s (%s) is its own parent", n.Name, n.ID)
			continue
		}
		cur := n.ParentID
		for steps := 0; cur != nil; steps++ {
			if steps > len(nodes) {
				t.Errorf("gallery %s (%s) sits on a parent cycle", n.Name, n.ID)
				break
			}
			next, ok := parent[*cur]
			if !ok {
				break
			}
			cur = next
		}
	}
}
