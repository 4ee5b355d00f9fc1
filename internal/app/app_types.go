package app

import (
	"pagebuilder/internal/domain"
	"pagebuilder/internal/registry"
)

// ComponentView is the frontend view of a registered component (palette entry).
type ComponentView struct {
	Name         string              `json:"name"`
	DisplayName  string              `json:"displayName"`
	Category     string              `json:"category"`
	Icon         string              `json:"icon"`
	Container    bool                `json:"container"`
	DefaultProps domain.Props        `json:"defaultProps"`
	Props        []registry.PropSpec `json:"props"`
}

// TargetView is the frontend-safe view of a publish target (no password).
type TargetView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	SSLMode  string `json:"sslMode"`
	Table    string `json:"table"`
}

// NewTargetView strips a target down to what the frontend may see.
func NewTargetView(t domain.PublishTarget) TargetView {
	return TargetView{
		ID:       t.ID,
		Name:     t.Name,
		Driver:   string(t.Driver),
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.Username,
		SSLMode:  t.SSLMode,
		Table:    t.Table,
	}
}

// ChangeView reports what a mutation did alongside the refreshed page state.
type ChangeView struct {
	Outcome string            `json:"outcome"`
	BlockID string            `json:"blockId"`
	State   *domain.PageState `json:"state"`
}
