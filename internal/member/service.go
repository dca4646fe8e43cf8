package member

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"recogym/internal/apperr"
	"recogym/internal/auth"
	"recogym/internal/db"
	"recogym/internal/ledger"
	"recogym/internal/logger"
	"recogym/internal/notify"
	"recogym/internal/user"
	"recogym/internal/validate"
)

type Service interface {
	Register(ctx context.Context, req CreateMemberRequest) (*Registration, error)
	Get(ctx context.Context, id int) (*Member, error)
	List(ctx context.Context, f Filter) ([]Member, error)
	Update(ctx context.Context, id int, req UpdateMemberRequest) (*Member, error)
	ChangeType(ctx context.Context, id int, t Type) (*Member, error)
	Delete(ctx context.Context, id int) (*DeletionReport, error)
	Status(ctx context.Context, id int) (*StatusReport, error)
	OwnStatus(ctx context.Context, userID int, code string) (*StatusReport, error)
}

type service struct {
	tx       db.Transactor
	repo     Repository
	users    user.Repository
	entries  ledger.Repository
	notifier notify.Notifier
	now      func() time.Time
}

func NewService(tx db.Transactor, repo Repository, users user.Repository, entries ledger.Repository, notifier notify.Notifier) Service {
	return &service{
		tx:       tx,
		repo:     repo,
		users:    users,
		entries:  entries,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *service) Register(ctx context.Context, req CreateMemberRequest) (*Registration, error) {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	m := &Member{
		Code:      req.Code,
		FirstName: validate.Text(req.FirstName),
		LastName:  validate.Text(req.LastName),
		Phone:     strings.TrimSpace(req.Phone),
		Email:     strings.TrimSpace(req.Email),
		Address:   validate.Text(req.Address),
		Type:      req.Type,
		Status:    StatusInactive,
	}
	if m.Type == "" {
		m.Type = TypeExternal
	}

	exists, err := s.repo.CodeExists(ctx, m.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Validation("member code %q is already in use", m.Code)
	}

	reg := &Registration{}
	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if req.CreateAccount {
			account, password, err := user.CreateAccount(ctx, s.users.WithTx(tx), m.Code, auth.RoleMember)
			if err != nil {
				return err
			}
			m.UserID = &account.ID
			reg.Username = account.Username
			reg.TempPassword = password
		}

		created, err := s.repo.WithTx(tx).Create(ctx, m)
		if err != nil {
			return err
		}
		reg.Member = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("member registered",
		"member_id", reg.Member.ID,
		"code", reg.Member.Code,
		"type", reg.Member.Type,
		"account", reg.Username != "",
	)

	if reg.TempPassword != "" {
		err := s.notifier.SendWelcome(ctx, reg.Member.Email, reg.Member.FullName(), reg.Username, reg.TempPassword)
		if err != nil {
			logger.Warn("welcome notification not queued", "member_id", reg.Member.ID, "error", err)
		}
	}

	return reg, nil
}

func (s *service) Get(ctx context.Context, id int) (*Member, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) List(ctx context.Context, f Filter) ([]Member, error) {
	f.Search = validate.Search(f.Search)
	if f.Type != "" && !f.Type.Valid() {
		return nil, apperr.Validation("type must be one of [internal external]")
	}
	return s.repo.List(ctx, f)
}

func (s *service) Update(ctx context.Context, id int, req UpdateMemberRequest) (*Member, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	var updated *Member
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}

		current.FirstName = validate.Text(req.FirstName)
		current.LastName = validate.Text(req.LastName)
		current.Phone = strings.TrimSpace(req.Phone)
		current.Email = strings.TrimSpace(req.Email)
		current.Address = validate.Text(req.Address)

		updated, err = repo.Update(ctx, current)
		if err != nil {
			return err
		}

		if req.Type != "" && req.Type != updated.Type {
			return s.changeType(ctx, tx, updated, req.Type)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) ChangeType(ctx context.Context, id int, t Type) (*Member, error) {
	if !t.Valid() {
		return nil, apperr.Validation("type must be one of [internal external]")
	}

	var m *Member
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		m, err = s.repo.WithTx(tx).Get(ctx, id)
		if err != nil {
			return err
		}
		if m.Type == t {
			return nil
		}
		return s.changeType(ctx, tx, m, t)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// changeType stores the new type and reconciles the cached status for it.
func (s *service) changeType(ctx context.Context, tx *sqlx.Tx, m *Member, t Type) error {
	repo := s.repo.WithTx(tx)
	if err := repo.UpdateType(ctx, m.ID, t); err != nil {
		return err
	}
	previous := m.Type
	m.Type = t

	if err := Reconcile(ctx, repo, s.entries.WithTx(tx), m, s.now()); err != nil {
		return err
	}

	logger.Info("member type changed", "member_id", m.ID, "from", previous, "to", t, "status", m.Status)
	return nil
}

// Delete removes the login account first and then the member. Ledger rows of
// the member are detached in the same transaction as the member delete. A
// failed account delete is reported and does not stop the member delete.
func (s *service) Delete(ctx context.Context, id int) (*DeletionReport, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	report := &DeletionReport{MemberID: id}

	if m.UserID != nil {
		err := s.users.Delete(ctx, *m.UserID)
		switch {
		case err == nil, errors.Is(err, user.ErrUserNotFound):
			report.AccountDeleted = true
		default:
			logger.Error("failed to delete member account", "member_id", id, "user_id", *m.UserID, "error", err)
			report.AccountError = "failed to delete login account"
		}
	}

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		detached, err := s.entries.WithTx(tx).DetachMember(ctx, id)
		if err != nil {
			return err
		}
		report.LedgerEntriesDetached = detached
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		report.LedgerEntriesDetached = 0
		return report, err
	}
	report.MemberDeleted = true

	logger.Info("member deleted",
		"member_id", id,
		"account_deleted", report.AccountDeleted,
		"ledger_entries_detached", report.LedgerEntriesDetached,
	)
	return report, nil
}

// Status derives the member's current status, stores it when the cached value
// drifted and reports class eligibility.
func (s *service) Status(ctx context.Context, id int) (*StatusReport, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.status(ctx, m)
}

// OwnStatus is Status for a member login. The member with code must be linked
// to userID, otherwise it is reported as not found.
func (s *service) OwnStatus(ctx context.Context, userID int, code string) (*StatusReport, error) {
	m, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if m.UserID == nil || *m.UserID != userID {
		return nil, apperr.NotFound("no member linked to this account")
	}
	return s.status(ctx, m)
}

func (s *service) status(ctx context.Context, m *Member) (*StatusReport, error) {
	var err error
	now := s.now()
	if err = Reconcile(ctx, s.repo, s.entries, m, now); err != nil {
		return nil, err
	}

	report := &StatusReport{
		MemberID: m.ID,
		Type:     m.Type,
		Status:   m.Status,
	}
	if m.Type == TypeInternal {
		report.ActiveSubscription, err = s.repo.HasActiveSubscription(ctx, m.ID, Today(now))
		if err != nil {
			return nil, err
		}
	}
	report.EligibleForClass, err = EligibleForClass(ctx, s.repo, m, now)
	if err != nil {
		return nil, err
	}
	return report, nil
}
