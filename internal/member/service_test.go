package member_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recogym/internal/apperr"
	"recogym/internal/auth"
	"recogym/internal/db/dbtest"
	"recogym/internal/ledger"
	"recogym/internal/ledger/ledgertest"
	"recogym/internal/member"
	"recogym/internal/member/membertest"
	"recogym/internal/user"
)

type fakeUsers struct {
	nextID    int
	users     map[int]user.User
	deleteErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[int]user.User{}}
}

func (f *fakeUsers) WithTx(tx *sqlx.Tx) user.Repository { return f }

func (f *fakeUsers) Create(ctx context.Context, username, passwordHash, role string) (*user.User, error) {
	f.nextID++
	u := user.User{ID: f.nextID, Username: username, PasswordHash: passwordHash, Role: role}
	f.users[u.ID] = u
	return &u, nil
}

func (f *fakeUsers) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			out := u
			return &out, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (f *fakeUsers) FindByID(ctx context.Context, id int) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeUsers) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := f.FindByUsername(ctx, username)
	return err == nil, nil
}

func (f *fakeUsers) Delete(ctx context.Context, id int) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.users[id]; !ok {
		return user.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

type welcome struct {
	to, name, username, password string
}

type fakeNotifier struct {
	welcomes []welcome
	err      error
}

func (f *fakeNotifier) SendWelcome(ctx context.Context, to, name, username, tempPassword string) error {
	f.welcomes = append(f.welcomes, welcome{to, name, username, tempPassword})
	return f.err
}

func (f *fakeNotifier) SendEnrollmentReceipt(ctx context.Context, to, name, className string, startsAt time.Time, amount decimal.Decimal) error {
	return nil
}

func (f *fakeNotifier) SendSubscriptionReceipt(ctx context.Context, to, name, plan string, endDate time.Time, amount decimal.Decimal) error {
	return nil
}

type fixture struct {
	tx       *dbtest.Transactor
	members  *membertest.Store
	users    *fakeUsers
	entries  *ledgertest.Store
	notifier *fakeNotifier
	svc      member.Service
}

func newFixture() *fixture {
	f := &fixture{
		tx:       &dbtest.Transactor{},
		members:  membertest.NewStore(),
		users:    newFakeUsers(),
		entries:  ledgertest.NewStore(),
		notifier: &fakeNotifier{},
	}
	f.svc = member.NewService(f.tx, f.members, f.users, f.entries, f.notifier)
	return f
}

func validRequest() member.CreateMemberRequest {
	return member.CreateMemberRequest{
		Code:      "s001",
		FirstName: "  Ana ",
		LastName:  "Pérez",
		Phone:     "+52 555 123 4567",
		Email:     "ana@example.com",
	}
}

func TestRegister(t *testing.T) {
	t.Run("defaults to an inactive external member", func(t *testing.T) {
		f := newFixture()

		reg, err := f.svc.Register(context.Background(), validRequest())

		require.NoError(t, err)
		assert.Equal(t, "S001", reg.Member.Code)
		assert.Equal(t, "Ana", reg.Member.FirstName)
		assert.Equal(t, member.TypeExternal, reg.Member.Type)
		assert.Equal(t, member.StatusInactive, reg.Member.Status)
		assert.Nil(t, reg.Member.UserID)
		assert.Empty(t, reg.TempPassword)
		assert.Empty(t, f.notifier.welcomes)
		assert.Equal(t, 1, f.tx.Calls)
	})

	t.Run("with account returns the temporary password once", func(t *testing.T) {
		f := newFixture()
		req := validRequest()
		req.CreateAccount = true

		reg, err := f.svc.Register(context.Background(), req)

		require.NoError(t, err)
		require.NotNil(t, reg.Member.UserID)
		assert.Equal(t, "S001", reg.Username)
		assert.Len(t, reg.TempPassword, 12)

		account := f.users.users[*reg.Member.UserID]
		assert.Equal(t, auth.RoleMember, account.Role)
		assert.True(t, auth.CheckPassword(account.PasswordHash, reg.TempPassword))
		assert.NotEqual(t, reg.TempPassword, account.PasswordHash)

		require.Len(t, f.notifier.welcomes, 1)
		assert.Equal(t, welcome{"ana@example.com", "Ana Pérez", "S001", reg.TempPassword}, f.notifier.welcomes[0])
	})

	t.Run("notification failure does not fail registration", func(t *testing.T) {
		f := newFixture()
		f.notifier.err = errors.New("redis down")
		req := validRequest()
		req.CreateAccount = true

		reg, err := f.svc.Register(context.Background(), req)

		require.NoError(t, err)
		assert.NotZero(t, reg.Member.ID)
	})

	t.Run("duplicate code", func(t *testing.T) {
		f := newFixture()
		f.members.Add(member.Member{Code: "S001", FirstName: "Existing", LastName: "One"})

		_, err := f.svc.Register(context.Background(), validRequest())

		assert.ErrorIs(t, err, apperr.ErrValidation)
		assert.Zero(t, f.tx.Calls)
	})

	t.Run("invalid input", func(t *testing.T) {
		cases := map[string]func(r *member.CreateMemberRequest){
			"bad code":  func(r *member.CreateMemberRequest) { r.Code = "1234" },
			"bad phone": func(r *member.CreateMemberRequest) { r.Phone = "call me" },
			"bad email": func(r *member.CreateMemberRequest) { r.Email = "not-an-email" },
			"bad type":  func(r *member.CreateMemberRequest) { r.Type = "vip" },
			"no name":   func(r *member.CreateMemberRequest) { r.FirstName = "" },
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				f := newFixture()
				req := validRequest()
				mutate(&req)

				_, err := f.svc.Register(context.Background(), req)
				assert.ErrorIs(t, err, apperr.ErrValidation)
			})
		}
	})
}

func TestStatusDerivation(t *testing.T) {
	ctx := context.Background()

	t.Run("internal member follows its subscription", func(t *testing.T) {
		f := newFixture()
		m := f.members.Add(member.Member{Code: "S001", Type: member.TypeInternal, Status: member.StatusActive})

		report, err := f.svc.Status(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, member.StatusInactive, report.Status)
		assert.False(t, report.EligibleForClass)
		assert.False(t, report.ActiveSubscription)

		stored, _ := f.members.Get(ctx, m.ID)
		assert.Equal(t, member.StatusInactive, stored.Status)

		f.members.ActiveSubscription = func(memberID int, today time.Time) bool { return memberID == m.ID }

		report, err = f.svc.Status(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, member.StatusActive, report.Status)
		assert.True(t, report.EligibleForClass)
		assert.True(t, report.ActiveSubscription)
	})

	t.Run("external member is always eligible", func(t *testing.T) {
		f := newFixture()
		m := f.members.Add(member.Member{Code: "S002", Type: member.TypeExternal})

		report, err := f.svc.Status(ctx, m.ID)
		require.NoError(t, err)
		assert.True(t, report.EligibleForClass)
		assert.Equal(t, member.StatusInactive, report.Status)
	})

	t.Run("external member is active with a recent payment", func(t *testing.T) {
		f := newFixture()
		m := f.members.Add(member.Member{Code: "S003", Type: member.TypeExternal})

		f.entries.SetClock(func() time.Time { return time.Now().AddDate(0, 0, -45) })
		_, err := f.entries.Insert(ctx, ledger.NewEntry{Type: ledger.TypeClassFee, PaymentMethod: "cash", MemberID: ledger.IntPtr(m.ID)})
		require.NoError(t, err)

		report, err := f.svc.Status(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, member.StatusInactive, report.Status)

		f.entries.SetClock(func() time.Time { return time.Now().AddDate(0, 0, -5) })
		_, err = f.entries.Insert(ctx, ledger.NewEntry{Type: ledger.TypeClassFee, PaymentMethod: "cash", MemberID: ledger.IntPtr(m.ID)})
		require.NoError(t, err)

		report, err = f.svc.Status(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, member.StatusActive, report.Status)
	})

	t.Run("unknown member", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Status(ctx, 99)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestOwnStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	userID := 7
	m := f.members.Add(member.Member{Code: "S001", Type: member.TypeExternal, UserID: &userID})
	f.members.Add(member.Member{Code: "S002", Type: member.TypeExternal})

	report, err := f.svc.OwnStatus(ctx, userID, "S001")
	require.NoError(t, err)
	assert.Equal(t, m.ID, report.MemberID)
	assert.True(t, report.EligibleForClass)

	_, err = f.svc.OwnStatus(ctx, 8, "S001")
	assert.ErrorIs(t, err, apperr.ErrNotFound, "another login cannot read the member")

	_, err = f.svc.OwnStatus(ctx, userID, "S002")
	assert.ErrorIs(t, err, apperr.ErrNotFound, "member without a login")

	_, err = f.svc.OwnStatus(ctx, userID, "S999")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestChangeTypeReconcilesStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	m := f.members.Add(member.Member{Code: "S001", Type: member.TypeExternal, Status: member.StatusActive})

	updated, err := f.svc.ChangeType(ctx, m.ID, member.TypeInternal)
	require.NoError(t, err)
	assert.Equal(t, member.TypeInternal, updated.Type)
	assert.Equal(t, member.StatusInactive, updated.Status)

	stored, _ := f.members.Get(ctx, m.ID)
	assert.Equal(t, member.TypeInternal, stored.Type)
	assert.Equal(t, member.StatusInactive, stored.Status)

	_, err = f.svc.ChangeType(ctx, m.ID, "vip")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	m := f.members.Add(member.Member{Code: "S001", FirstName: "Ana", LastName: "Pérez", Type: member.TypeInternal})
	f.members.ActiveSubscription = func(int, time.Time) bool { return true }

	updated, err := f.svc.Update(ctx, m.ID, member.UpdateMemberRequest{
		FirstName: "Ana María",
		LastName:  "Pérez",
		Address:   " Calle 1 ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana María", updated.FirstName)
	assert.Equal(t, "Calle 1", updated.Address)
	assert.Equal(t, member.TypeInternal, updated.Type)

	updated, err = f.svc.Update(ctx, m.ID, member.UpdateMemberRequest{
		FirstName: "Ana María",
		LastName:  "Pérez",
		Type:      member.TypeExternal,
	})
	require.NoError(t, err)
	assert.Equal(t, member.TypeExternal, updated.Type)

	_, err = f.svc.Update(ctx, 99, member.UpdateMemberRequest{FirstName: "X", LastName: "Y"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.members.Add(member.Member{Code: "S001", FirstName: "Ana", LastName: "Pérez", Type: member.TypeInternal})
	f.members.Add(member.Member{Code: "S002", FirstName: "Luis", LastName: "Gómez", Type: member.TypeExternal})

	all, err := f.svc.List(ctx, member.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := f.svc.List(ctx, member.Filter{Search: "luis';"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "S002", found[0].Code)

	internal, err := f.svc.List(ctx, member.Filter{Type: member.TypeInternal})
	require.NoError(t, err)
	require.Len(t, internal, 1)
	assert.Equal(t, "S001", internal[0].Code)

	_, err = f.svc.List(ctx, member.Filter{Type: "vip"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes account and member and keeps ledger rows", func(t *testing.T) {
		f := newFixture()
		account, _ := f.users.Create(ctx, "S001", "hash", auth.RoleMember)
		m := f.members.Add(member.Member{Code: "S001", Type: member.TypeExternal, UserID: &account.ID})

		f.entries.SubscriptionOwner[10] = m.ID
		_, _ = f.entries.Insert(ctx, ledger.NewEntry{Type: ledger.TypeClassFee, PaymentMethod: "cash", Amount: decimal.NewFromInt(150), MemberID: ledger.IntPtr(m.ID)})
		_, _ = f.entries.Insert(ctx, ledger.NewEntry{Type: ledger.TypeMembership, PaymentMethod: "card", Amount: decimal.NewFromInt(500), SubscriptionID: ledger.IntPtr(10)})
		_, _ = f.entries.Insert(ctx, ledger.NewEntry{Type: ledger.TypeProductSale, PaymentMethod: "cash", Amount: decimal.NewFromInt(40)})

		report, err := f.svc.Delete(ctx, m.ID)

		require.NoError(t, err)
		assert.True(t, report.AccountDeleted)
		assert.True(t, report.MemberDeleted)
		assert.Equal(t, int64(2), report.LedgerEntriesDetached)
		assert.Empty(t, f.users.users)

		_, err = f.members.Get(ctx, m.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		entries := f.entries.Entries()
		require.Len(t, entries, 3)
		for _, e := range entries {
			assert.Nil(t, e.MemberID)
			assert.Nil(t, e.SubscriptionID)
		}
		assert.True(t, entries[0].Amount.Equal(decimal.NewFromInt(150)))
	})

	t.Run("account failure is reported and the member is still deleted", func(t *testing.T) {
		f := newFixture()
		account, _ := f.users.Create(ctx, "S001", "hash", auth.RoleMember)
		f.users.deleteErr = errors.New("connection reset")
		m := f.members.Add(member.Member{Code: "S001", UserID: &account.ID})

		report, err := f.svc.Delete(ctx, m.ID)

		require.NoError(t, err)
		assert.False(t, report.AccountDeleted)
		assert.NotEmpty(t, report.AccountError)
		assert.True(t, report.MemberDeleted)
	})

	t.Run("member without account", func(t *testing.T) {
		f := newFixture()
		m := f.members.Add(member.Member{Code: "S001"})

		report, err := f.svc.Delete(ctx, m.ID)

		require.NoError(t, err)
		assert.False(t, report.AccountDeleted)
		assert.Empty(t, report.AccountError)
		assert.True(t, report.MemberDeleted)
	})

	t.Run("unknown member", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Delete(ctx, 42)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestEligibleForClass(t *testing.T) {
	ctx := context.Background()
	store := membertest.NewStore()
	today := time.Date(2024, 5, 1, 15, 0, 0, 0, time.Local)

	var asked time.Time
	store.ActiveSubscription = func(memberID int, day time.Time) bool {
		asked = day
		return false
	}

	ok, err := member.EligibleForClass(ctx, store, &member.Member{ID: 1, Type: member.TypeExternal}, today)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = member.EligibleForClass(ctx, store, &member.Member{ID: 2, Type: member.TypeInternal}, today)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local), asked)
}
