package directory

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// userAccountControl flags shown in the tree.
const (
	UACAccountDisable = 0x0002
	UACLockout        = 0x0010
)

var containerClasses = []string{"organizationalUnit", "container", "domainDNS", "builtinDomain"}

// Node is a directory entry as returned by the backend.
type Node struct {
	Name               string   `json:"name"`
	DistinguishedName  string   `json:"distinguishedName"`
	HasChildren        bool     `json:"hasChildren"`
	ObjectClasses      []string `json:"objectClasses"`
	UserAccountControl *int     `json:"userAccountControl,omitempty"`
	Description        string   `json:"description,omitempty"`
	Email              string   `json:"email,omitempty"`
}

// HasClass reports whether the node carries the object class, ignoring case.
func (n *Node) HasClass(class string) bool {
	for _, c := range n.ObjectClasses {
		if strings.EqualFold(c, class) {
			return true
		}
	}

	return false
}

// IsUser reports whether the node is a user account. Computer objects carry the user class too.
func (n *Node) IsUser() bool {
	return n.HasClass("user") && !n.HasClass("computer")
}

// IsContainer reports whether the node can hold other entries.
func (n *Node) IsContainer() bool {
	for _, c := range containerClasses {
		if n.HasClass(c) {
			return true
		}
	}

	return n.HasChildren
}

// Disabled reports the ACCOUNTDISABLE flag.
func (n *Node) Disabled() bool {
	return n.UserAccountControl != nil && *n.UserAccountControl&UACAccountDisable != 0
}

// LockedOut reports the LOCKOUT flag.
func (n *Node) LockedOut() bool {
	return n.UserAccountControl != nil && *n.UserAccountControl&UACLockout != 0
}

// DisplayName is the name, or the value of the first RDN when the backend sent none.
func (n *Node) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}

	if rdn, err := FirstRDNValue(n.DistinguishedName); err == nil {
		return rdn
	}

	return n.DistinguishedName
}

// ParseDN validates a distinguished name.
func ParseDN(dn string) (*ldap.DN, error) {
	parsed, err := ldap.ParseDN(dn)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidDN, dn, err)
	}

	if len(parsed.RDNs) == 0 {
		return nil, fmt.Errorf("%w %q: empty", ErrInvalidDN, dn)
	}

	return parsed, nil
}

// FirstRDNValue returns the value of the leftmost RDN, e.g. "IT" for "OU=IT,DC=corp,DC=local".
func FirstRDNValue(dn string) (string, error) {
	parsed, err := ParseDN(dn)
	if err != nil {
		return "", err
	}

	attrs := parsed.RDNs[0].Attributes
	if len(attrs) == 0 {
		return "", fmt.Errorf("%w %q: empty rdn", ErrInvalidDN, dn)
	}

	return attrs[0].Value, nil
}

// TreeNode is the browser projection of a Node. Children is nil until the node was expanded.
type TreeNode struct {
	Key       string      `json:"key"`
	Title     string      `json:"title"`
	IsLeaf    bool        `json:"isLeaf"`
	IsUser    bool        `json:"isUser"`
	Disabled  bool        `json:"disabled"`
	LockedOut bool        `json:"lockedOut"`
	Node      Node        `json:"node"`
	Children  []*TreeNode `json:"children,omitempty"`

	loaded bool
}

// Loaded reports whether the children of the node were fetched.
func (t *TreeNode) Loaded() bool {
	return t.loaded
}

// Format projects backend nodes into tree nodes.
func Format(nodes []Node) []*TreeNode {
	out := make([]*TreeNode, 0, len(nodes))

	for i := range nodes {
		n := nodes[i]
		out = append(out, &TreeNode{
			Key:       n.DistinguishedName,
			Title:     n.DisplayName(),
			IsLeaf:    !n.HasChildren,
			IsUser:    n.IsUser(),
			Disabled:  n.Disabled(),
			LockedOut: n.LockedOut(),
			Node:      n,
		})
	}

	return out
}

func (t *TreeNode) clone() *TreeNode {
	c := *t
	if t.Children != nil {
		c.Children = cloneAll(t.Children)
	}

	return &c
}

func cloneAll(nodes []*TreeNode) []*TreeNode {
	out := make([]*TreeNode, len(nodes))
	for i, n := range nodes {
		out[i] = n.clone()
	}

	return out
}
