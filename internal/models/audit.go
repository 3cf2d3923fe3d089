package models

import "time"

// Audit actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionLink   = "link"
	ActionUnlink = "unlink"
)

// AuditEvent records one successful mutation.
type AuditEvent struct {
	ID       string    `json:"id"        bson:"_id"`
	Action   string    `json:"action"    bson:"action"`
	Entity   string    `json:"entity"    bson:"entity"`
	EntityID int64     `json:"entity_id" bson:"entity_id"`
	Name     string    `json:"name"      bson:"name"`
	UserID   string    `json:"user_id"   bson:"user_id"`
	At       time.Time `json:"at"        bson:"at"`
}
