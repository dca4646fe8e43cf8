package member

import (
	"strings"
	"time"
)

type Type string

const (
	TypeInternal Type = "internal"
	TypeExternal Type = "external"
)

func (t Type) Valid() bool {
	return t == TypeInternal || t == TypeExternal
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Member is a gym member ("socio"). Status is a cached value kept in sync by
// Reconcile; eligibility checks never read it.
type Member struct {
	ID           int       `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Phone        string    `db:"phone" json:"phone"`
	Email        string    `db:"email" json:"email"`
	Address      string    `db:"address" json:"address"`
	Type         Type      `db:"type" json:"type"`
	Status       Status    `db:"status" json:"status"`
	UserID       *int      `db:"user_id" json:"user_id,omitempty"`
	RegisteredAt time.Time `db:"registered_at" json:"registered_at"`
}

func (m *Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

type CreateMemberRequest struct {
	Code          string `json:"code" validate:"required,code"`
	FirstName     string `json:"first_name" validate:"required,max=100"`
	LastName      string `json:"last_name" validate:"required,max=100"`
	Phone         string `json:"phone" validate:"phone"`
	Email         string `json:"email" validate:"omitempty,email,max=254"`
	Address       string `json:"address" validate:"max=200"`
	Type          Type   `json:"type" validate:"omitempty,oneof=internal external"`
	CreateAccount bool   `json:"create_account"`
}

type UpdateMemberRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Phone     string `json:"phone" validate:"phone"`
	Email     string `json:"email" validate:"omitempty,email,max=254"`
	Address   string `json:"address" validate:"max=200"`
	Type      Type   `json:"type" validate:"omitempty,oneof=internal external"`
}

type ChangeTypeRequest struct {
	Type Type `json:"type" validate:"required,oneof=internal external"`
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Search string
	Type   Type
}

// Registration is the result of Register. TempPassword is only set when a
// login account was created and is never stored in plain text.
type Registration struct {
	Member       *Member `json:"member"`
	Username     string  `json:"username,omitempty"`
	TempPassword string  `json:"temp_password,omitempty"`
}

// DeletionReport describes the outcome of each step of a member deletion.
type DeletionReport struct {
	MemberID              int    `json:"member_id"`
	AccountDeleted        bool   `json:"account_deleted"`
	AccountError          string `json:"account_error,omitempty"`
	MemberDeleted         bool   `json:"member_deleted"`
	LedgerEntriesDetached int64  `json:"ledger_entries_detached"`
}

type StatusReport struct {
	MemberID           int    `json:"member_id"`
	Type               Type   `json:"type"`
	Status             Status `json:"status"`
	ActiveSubscription bool   `json:"active_subscription"`
	EligibleForClass   bool   `json:"eligible_for_class"`
}
