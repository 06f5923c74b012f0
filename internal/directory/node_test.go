package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeClassification(t *testing.T) {
	tests := []struct {
		name      string
		node      Node
		user      bool
		container bool
	}{
		{name: "user", node: user("A", dnUserA), user: true},
		{name: "computer", node: Node{ObjectClasses: []string{"user", "computer"}}},
		{name: "organizational unit", node: ou("IT", dnIT), container: true},
		{name: "builtin container", node: Node{ObjectClasses: []string{"container"}}, container: true},
		{name: "class case", node: Node{ObjectClasses: []string{"USER"}}, user: true},
		{name: "group", node: Node{ObjectClasses: []string{"group"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.user, tt.node.IsUser())
			assert.Equal(t, tt.container, tt.node.IsContainer())
		})
	}
}

func TestNodeAccountFlags(t *testing.T) {
	n := Node{UserAccountControl: intPtr(512 | UACAccountDisable | UACLockout)}
	assert.True(t, n.Disabled())
	assert.True(t, n.LockedOut())

	n.UserAccountControl = intPtr(512)
	assert.False(t, n.Disabled())
	assert.False(t, n.LockedOut())

	n.UserAccountControl = nil
	assert.False(t, n.Disabled())
}

func TestNodeDisplayName(t *testing.T) {
	assert.Equal(t, "Alice", (&Node{Name: "Alice", DistinguishedName: dnUserA}).DisplayName())
	assert.Equal(t, "UserA", (&Node{DistinguishedName: dnUserA}).DisplayName())
	assert.Equal(t, "not a dn", (&Node{DistinguishedName: "not a dn"}).DisplayName())
}

func TestParseDN(t *testing.T) {
	parsed, err := ParseDN(dnIT)
	require.NoError(t, err)
	assert.Len(t, parsed.RDNs, 3)

	_, err = ParseDN("garbage")
	require.ErrorIs(t, err, ErrInvalidDN)

	_, err = ParseDN("")
	require.ErrorIs(t, err, ErrInvalidDN)
}

func TestFormat(t *testing.T) {
	out := Format([]Node{ou("IT", dnIT), user("UserA", dnUserA)})
	require.Len(t, out, 2)

	assert.Equal(t, dnIT, out[0].Key)
	assert.Equal(t, "IT", out[0].Title)
	assert.False(t, out[0].IsLeaf)
	assert.False(t, out[0].Loaded())

	assert.True(t, out[1].IsLeaf)
	assert.True(t, out[1].IsUser)
}
