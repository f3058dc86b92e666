package domain

import (
	"encoding/json"
	"fmt"
)

// Role — роль гильдии.
type Role struct {
	ID   Snowflake
	Name string
	// Color равен nil, когда у роли нет собственного цвета (сырой 0).
	Color    *Color
	Position int
}

// roleWire — формат роли на проводе.
type roleWire struct {
	ID       Snowflake `json:"id"`
	Name     string    `json:"name"`
	Color    uint32    `json:"color"`
	Position int       `json:"position"`
}

// ParseRole разбирает роль из JSON API.
func ParseRole(data []byte) (Role, error) {
	var w roleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Role{}, fmt.Errorf("failed to parse role: %w", err)
	}
	return roleFromWire(w), nil
}

func roleFromWire(w roleWire) Role {
	return Role{
		ID:       w.ID,
		Name:     w.Name,
		Color:    NewColor(w.Color),
		Position: w.Position,
	}
}
