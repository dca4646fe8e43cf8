// Package enrollment signs members up for classes. An enrollment is paid:
// each one writes a class_fee entry to the cash ledger in the same transaction.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"recogym/internal/apperr"
	"recogym/internal/db"
	"recogym/internal/gymclass"
	"recogym/internal/ledger"
	"recogym/internal/logger"
	"recogym/internal/member"
	"recogym/internal/metrics"
	"recogym/internal/notify"
	"recogym/internal/validate"
)

type Service interface {
	Enroll(ctx context.Context, classID int, req EnrollRequest) (*Receipt, error)
	Unenroll(ctx context.Context, classID, memberID int) error
	Get(ctx context.Context, classID, memberID int) (*Enrollment, error)
	ListByClass(ctx context.Context, classID int) ([]Detail, error)
}

type service struct {
	tx       db.Transactor
	repo     Repository
	members  member.Repository
	classes  gymclass.Repository
	entries  ledger.Repository
	notifier notify.Notifier
	now      func() time.Time
}

func NewService(tx db.Transactor, repo Repository, members member.Repository, classes gymclass.Repository,
	entries ledger.Repository, notifier notify.Notifier) Service {
	return &service{
		tx:       tx,
		repo:     repo,
		members:  members,
		classes:  classes,
		entries:  entries,
		notifier: notifier,
		now:      time.Now,
	}
}

// Enroll checks the member and the class, takes a seat and records the
// class fee. The class row stays locked from the capacity check to commit.
func (s *service) Enroll(ctx context.Context, classID int, req EnrollRequest) (*Receipt, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	var (
		m     *member.Member
		class *gymclass.Class
	)
	receipt := &Receipt{}
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		members := s.members.WithTx(tx)
		classes := s.classes.WithTx(tx)
		repo := s.repo.WithTx(tx)
		entries := s.entries.WithTx(tx)

		var err error
		m, err = members.Get(ctx, req.MemberID)
		if err != nil {
			return err
		}

		class, err = classes.LockForUpdate(ctx, classID)
		if err != nil {
			return err
		}

		enrolled, err := classes.CountEnrolled(ctx, classID)
		if err != nil {
			return err
		}
		if enrolled >= class.MaxParticipants {
			return apperr.CapacityExceeded("class %s is full (%d/%d)", class.Code, enrolled, class.MaxParticipants)
		}

		exists, err := repo.Exists(ctx, m.ID, classID)
		if err != nil {
			return err
		}
		if exists {
			return apperr.DuplicateEnrollment("member %s is already enrolled in class %s", m.Code, class.Code)
		}

		eligible, err := member.EligibleForClass(ctx, members, m, member.Today(s.now()))
		if err != nil {
			return err
		}
		if !eligible {
			return apperr.InactiveMember("member %s has no active subscription", m.Code)
		}

		receipt.LedgerEntry, err = ledger.Append(ctx, entries, ledger.NewEntry{
			Type:          ledger.TypeClassFee,
			Amount:        class.Price,
			PaymentMethod: req.PaymentMethod,
			Description:   fmt.Sprintf("Inscripción %s %s", class.Code, m.Code),
			MemberID:      ledger.IntPtr(m.ID),
		})
		if err != nil {
			return err
		}

		receipt.Enrollment, err = repo.Insert(ctx, m.ID, classID, ledger.IntPtr(receipt.LedgerEntry.ID))
		if err != nil {
			return err
		}

		if err := entries.LinkEnrollment(ctx, receipt.LedgerEntry.ID, receipt.Enrollment.ID); err != nil {
			return err
		}
		receipt.LedgerEntry.EnrollmentID = ledger.IntPtr(receipt.Enrollment.ID)

		class.EnrolledCount = enrolled + 1
		receipt.SeatsLeft = class.SeatsLeft()

		return member.Reconcile(ctx, members, entries, m, s.now())
	})
	if err != nil {
		metrics.RecordEnrollment(resultOf(err))
		return nil, err
	}

	ledger.Observe(receipt.LedgerEntry)
	metrics.RecordEnrollment("success")
	logger.Info("member enrolled",
		"member_id", m.ID,
		"class_id", classID,
		"enrollment_id", receipt.Enrollment.ID,
		"seats_left", receipt.SeatsLeft,
	)

	if err := s.notifier.SendEnrollmentReceipt(ctx, m.Email, m.FullName(), class.Name, class.StartsAt, class.Price); err != nil {
		logger.Warn("enrollment receipt not queued", "enrollment_id", receipt.Enrollment.ID, "error", err)
	}

	return receipt, nil
}

func resultOf(err error) string {
	switch {
	case errors.Is(err, apperr.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, apperr.ErrDuplicateEnrollment):
		return "duplicate"
	case errors.Is(err, apperr.ErrInactiveMember):
		return "inactive_member"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperr.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

// Unenroll removes the enrollment together with the ledger entry that paid for it.
func (s *service) Unenroll(ctx context.Context, classID, memberID int) error {
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		members := s.members.WithTx(tx)
		repo := s.repo.WithTx(tx)
		entries := s.entries.WithTx(tx)

		e, err := repo.Get(ctx, memberID, classID)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, e.ID); err != nil {
			return err
		}
		if e.LedgerEntryID != nil {
			if err := entries.Delete(ctx, *e.LedgerEntryID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
				return err
			}
		}

		m, err := members.Get(ctx, memberID)
		if err != nil {
			return err
		}
		return member.Reconcile(ctx, members, entries, m, s.now())
	})
	if err != nil {
		return err
	}

	logger.Info("member unenrolled", "member_id", memberID, "class_id", classID)
	return nil
}

func (s *service) Get(ctx context.Context, classID, memberID int) (*Enrollment, error) {
	return s.repo.Get(ctx, memberID, classID)
}

func (s *service) ListByClass(ctx context.Context, classID int) ([]Detail, error) {
	if _, err := s.classes.Get(ctx, classID); err != nil {
		return nil, err
	}
	return s.repo.ListByClass(ctx, classID)
}
