package views

import "briar-gateway/internal/models"

type ForumView struct {
	Name string `json:"name"`
	ID   []byte `json:"id"`
}

func Forum(f models.Forum) ForumView {
	return ForumView{Name: f.Name, ID: f.ID}
}
