package rest

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

type userJSON struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func renderUser(u *models.User) userJSON {
	return userJSON{ID: u.ID.String(), Email: u.Email}
}

type fileJSON struct {
	ID       string        `json:"id"`
	UserID   string        `json:"userId"`
	Name     string        `json:"name"`
	Kind     models.Kind   `json:"type"`
	IsPublic bool          `json:"isPublic"`
	ParentID models.Parent `json:"parentId"`
}

func renderFile(n *models.FileNode) fileJSON {
	return fileJSON{
		ID:       n.ID.String(),
		UserID:   n.OwnerID.String(),
		Name:     n.Name,
		Kind:     n.Kind,
		IsPublic: n.IsPublic,
		ParentID: n.Parent,
	}
}

func renderFiles(nodes []*models.FileNode) []fileJSON {
	out := make([]fileJSON, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, renderFile(n))
	}
	return out
}

// wireParent accepts the parent id as either the number 0 or a string, the
// two forms clients send.
type wireParent string

func (p *wireParent) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = wireParent(s)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err == nil {
		*p = wireParent(fmt.Sprintf("%d", n))
		return nil
	}
	return fmt.Errorf("invalid parentId value: %s", b)
}
