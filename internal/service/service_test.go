package service

import (
	"context"
	"errors"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/operalog/api/internal/auth"
	"github.com/operalog/api/internal/domain"
	"github.com/operalog/api/internal/events"
	"github.com/operalog/api/internal/repository"
	"github.com/operalog/api/internal/repository/memstore"
	apperrors "github.com/operalog/api/pkg/util/errorutil"
)

type fixture struct {
	store   *memstore.Store
	tokens  *auth.TokenManager
	events  []events.Event
	cache   *memoryStatsCache
	auth    *AuthService
	ships   *ShipService
	reports *ReportService

	admin      auth.Principal
	supervisor auth.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  memstore.New(),
		tokens: auth.NewTokenManager("secret", time.Hour),
		cache:  &memoryStatsCache{},
	}

	dispatcher := events.NewInMemoryDispatcher()
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			f.events = append(f.events, e)
			return nil
		})
	}

	f.auth = NewAuthService(AuthDependencies{
		UserRepo:   f.store.Users(),
		ShipRepo:   f.store.Ships(),
		Tokens:     f.tokens,
		Dispatcher: dispatcher,
		BcryptCost: bcrypt.MinCost,
	})
	f.ships = NewShipService(ShipDependencies{
		ShipRepo:   f.store.Ships(),
		Dispatcher: dispatcher,
		BcryptCost: bcrypt.MinCost,
	})
	f.reports = NewReportService(ReportDependencies{
		ReportRepo: f.store.Reports(),
		StatsCache: f.cache,
		Dispatcher: dispatcher,
	})

	f.admin = auth.UserPrincipal(f.createUser(t, "admin@operalog.io", domain.UserRoleAdmin, "s3cret", true))
	f.supervisor = auth.UserPrincipal(f.createUser(t, "sup@operalog.io", domain.UserRoleSupervisor, "s3cret", true))
	return f
}

func (f *fixture) createUser(t *testing.T, email string, role domain.UserRole, password string, active bool) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{Email: email, Name: email, Role: role, PasswordHash: hash, IsActive: active}
	require.NoError(t, f.store.Users().Create(context.Background(), user))
	return user
}

func (f *fixture) createShip(t *testing.T, name, username string) *domain.Ship {
	t.Helper()
	ship, err := f.ships.Create(context.Background(), f.admin, ShipCreateInput{
		Name:     name,
		Captain:  "Capt. " + name,
		Username: username,
		Password: "anchor",
	})
	require.NoError(t, err)
	return ship
}

func day(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse(domain.ReportDateLayout, value)
	require.NoError(t, err)
	return d
}

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func statusOf(err error) int {
	return apperrors.ToDomainError(err).HTTPStatus
}

type memoryStatsCache struct {
	stats       *domain.ReportStats
	invalidated int
}

func (c *memoryStatsCache) Get(context.Context) (*domain.ReportStats, bool, error) {
	return c.stats, c.stats != nil, nil
}

func (c *memoryStatsCache) Set(_ context.Context, stats *domain.ReportStats) error {
	c.stats = stats
	return nil
}

func (c *memoryStatsCache) Invalidate(context.Context) error {
	c.stats = nil
	c.invalidated++
	return nil
}

func TestLoginAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, session, err := f.auth.LoginAdmin(ctx, "admin@operalog.io", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleAdmin, user.Role)

	claims, err := f.tokens.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.PrincipalTypeUser, claims.Type)
	assert.Equal(t, user.ID, claims.PrincipalID())
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "admin@operalog.io", claims.Email)
}

func TestLoginAdminUniformFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "gone@operalog.io", domain.UserRoleOperator, "s3cret", false)

	_, _, err := f.auth.LoginAdmin(ctx, "admin@operalog.io", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = f.auth.LoginAdmin(ctx, "nobody@operalog.io", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = f.auth.LoginAdmin(ctx, "gone@operalog.io", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))
}

func TestLoginFailuresSpendOneComparison(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "gone@operalog.io", domain.UserRoleOperator, "s3cret", false)
	f.createShip(t, "Aurora", "aurora")

	var hashes []string
	f.auth.compare = func(hashed, plain string) error {
		hashes = append(hashes, hashed)
		return auth.ComparePassword(hashed, plain)
	}

	attempts := []func() error{
		func() error { _, _, err := f.auth.LoginAdmin(ctx, "nobody@operalog.io", "s3cret"); return err },
		func() error { _, _, err := f.auth.LoginAdmin(ctx, "gone@operalog.io", "s3cret"); return err },
		func() error { _, _, err := f.auth.LoginAdmin(ctx, "admin@operalog.io", "wrong"); return err },
		func() error { _, _, err := f.auth.LoginShip(ctx, "ghost", "anchor"); return err },
		func() error { _, _, err := f.auth.LoginShip(ctx, "aurora", "wrong"); return err },
	}
	for i, attempt := range attempts {
		hashes = nil
		assert.ErrorIs(t, attempt(), ErrInvalidCredentials, i)
		require.Len(t, hashes, 1, i)
		cost, err := bcrypt.Cost([]byte(hashes[0]))
		require.NoError(t, err, i)
		assert.Equal(t, bcrypt.MinCost, cost, i)
	}
}

func TestLoginShipTouchesLastLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ship := f.createShip(t, "Aurora", "aurora")
	require.Nil(t, ship.LastLogin)

	logged, session, err := f.auth.LoginShip(ctx, "aurora", "anchor")
	require.NoError(t, err)
	assert.NotNil(t, logged.LastLogin)

	stored, err := f.store.Ships().GetByID(ctx, ship.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)

	claims, err := f.tokens.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.PrincipalTypeShip, claims.Type)
	assert.Equal(t, "aurora", claims.Username)
	assert.Equal(t, "Aurora", claims.Name)
	assert.Equal(t, events.EventShipLoggedIn, f.events[len(f.events)-1].Type)

	_, _, err = f.auth.LoginShip(ctx, "aurora", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestShipCreateRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	input := ShipCreateInput{Name: "Aurora", Captain: "J. Doe", Username: "aurora", Password: "anchor"}

	_, err := f.ships.Create(ctx, f.supervisor, input)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	ship, err := f.ships.Create(ctx, f.admin, input)
	require.NoError(t, err)
	assert.NotEqual(t, "anchor", ship.PasswordHash)
	assert.NoError(t, auth.ComparePassword(ship.PasswordHash, "anchor"))

	_, err = f.ships.Create(ctx, f.admin, input)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, http.StatusConflict, de.HTTPStatus)
	assert.Equal(t, "ship with this name or username already exists", de.Message)

	_, err = f.ships.Create(ctx, f.admin, ShipCreateInput{Name: "Borealis"})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestShipUpdateRehashesPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ship := f.createShip(t, "Aurora", "aurora")

	updated, err := f.ships.Update(ctx, f.supervisor, ship.ID, ShipUpdateInput{
		Status:   strPtr("maintenance"),
		Password: strPtr("new-anchor"),
	})
	require.NoError(t, err)
	assert.Equal(t, "maintenance", *updated.Status)
	assert.NoError(t, auth.ComparePassword(updated.PasswordHash, "new-anchor"))
	assert.Equal(t, "Aurora", updated.Name)

	last := f.events[len(f.events)-1]
	assert.Equal(t, events.EventShipUpdated, last.Type)
	assert.Equal(t, []string{"status", "password"}, last.Payload.(events.ShipPayload).Fields)

	_, err = f.ships.Update(ctx, f.admin, 999, ShipUpdateInput{Status: strPtr("x")})
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestShipListPaginates(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"A", "B", "C"} {
		f.createShip(t, name, name)
	}

	ships, pagination, err := f.ships.List(context.Background(), Page{Number: 2, Size: 2})
	require.NoError(t, err)
	assert.Len(t, ships, 1)
	assert.Equal(t, Pagination{Page: 2, Limit: 2, Total: 3, Pages: 2}, pagination)
}

func TestPageNormalizeBoundsOffset(t *testing.T) {
	huge := Page{Number: math.MaxInt, Size: math.MaxInt}.Normalize()
	assert.Equal(t, maxPageNumber, huge.Number)
	assert.Equal(t, maxPageSize, huge.Size)
	assert.Positive(t, huge.Offset())

	assert.Equal(t, Page{Number: 1, Size: defaultPageSize}, Page{}.Normalize())
	assert.Equal(t, 20, Page{Number: 3, Size: 10}.Normalize().Offset())
}

func TestShipListFarPageIsEmpty(t *testing.T) {
	f := newFixture(t)
	f.createShip(t, "Aurora", "aurora")

	ships, pagination, err := f.ships.List(context.Background(), Page{Number: math.MaxInt, Size: 100})
	require.NoError(t, err)
	assert.Empty(t, ships)
	assert.Equal(t, maxPageNumber, pagination.Page)
	assert.EqualValues(t, 1, pagination.Total)
}

func TestShipDeleteRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ship := f.createShip(t, "Aurora", "aurora")

	err := f.ships.Delete(ctx, f.supervisor, ship.ID)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	require.NoError(t, f.ships.Delete(ctx, f.admin, ship.ID))
	_, err = f.ships.Get(ctx, ship.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestReportCreateDuplicateForSameShipAndDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createShip(t, "Aurora", "aurora")
	f.createShip(t, "Borealis", "borealis")
	ship3 := f.createShip(t, "Cygnus", "cygnus")
	require.Equal(t, int64(3), ship3.ID)
	principal := auth.ShipPrincipal(ship3)

	first, err := f.reports.Create(ctx, principal, &domain.DailyReport{ShipID: 3, ReportDate: day(t, "2024-05-01")})
	require.NoError(t, err)
	assert.Equal(t, "Cygnus", first.ShipName)

	_, err = f.reports.Create(ctx, principal, &domain.DailyReport{ShipID: 3, ReportDate: day(t, "2024-05-01")})
	assert.ErrorIs(t, err, ErrDuplicateReport)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, http.StatusConflict, de.HTTPStatus)
	assert.Equal(t, "DUPLICATE_REPORT", de.Code)
}

type racingReports struct {
	repository.ReportRepository
}

func (racingReports) ExistsForDate(context.Context, int64, time.Time) (bool, error) {
	return false, nil
}

func TestReportCreateMapsUniqueViolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ship := f.createShip(t, "Aurora", "aurora")
	principal := auth.ShipPrincipal(ship)

	_, err := f.reports.Create(ctx, principal, &domain.DailyReport{ShipID: ship.ID, ReportDate: day(t, "2024-05-01")})
	require.NoError(t, err)

	racing := NewReportService(ReportDependencies{ReportRepo: racingReports{f.store.Reports()}})
	_, err = racing.Create(ctx, principal, &domain.DailyReport{ShipID: ship.ID, ReportDate: day(t, "2024-05-01")})
	assert.ErrorIs(t, err, ErrDuplicateReport)
}

func TestReportCreateForeignShipForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	own := f.createShip(t, "Aurora", "aurora")
	other := f.createShip(t, "Borealis", "borealis")

	_, err := f.reports.Create(ctx, auth.ShipPrincipal(own), &domain.DailyReport{ShipID: other.ID, ReportDate: day(t, "2024-05-01")})
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	_, err = f.reports.Create(ctx, f.supervisor, &domain.DailyReport{ShipID: other.ID, ReportDate: day(t, "2024-05-01")})
	assert.NoError(t, err)
}

func TestReportAccessPolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	own := f.createShip(t, "Aurora", "aurora")
	other := f.createShip(t, "Borealis", "borealis")

	foreign, err := f.reports.Create(ctx, f.admin, &domain.DailyReport{ShipID: other.ID, ReportDate: day(t, "2024-05-01")})
	require.NoError(t, err)
	ship := auth.ShipPrincipal(own)

	_, err = f.reports.Get(ctx, ship, foreign.ID)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	_, err = f.reports.ListByShip(ctx, ship, other.ID)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	before := len(f.events)
	_, err = f.reports.Update(ctx, ship, foreign.ID, repository.ReportUpdate{Notes: strPtr("mine now")})
	assert.Equal(t, http.StatusForbidden, statusOf(err))
	assert.Len(t, f.events, before)

	stored, err := f.reports.Get(ctx, f.admin, foreign.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Notes)

	_, err = f.reports.Get(ctx, ship, 999)
	assert.Equal(t, http.StatusNotFound, statusOf(err))

	reports, err := f.reports.ListByShip(ctx, f.admin, other.ID)
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestReportUpdateAndTouchOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ship := f.createShip(t, "Aurora", "aurora")
	principal := auth.ShipPrincipal(ship)

	report, err := f.reports.Create(ctx, principal, &domain.DailyReport{ShipID: ship.ID, ReportDate: day(t, "2024-05-01")})
	require.NoError(t, err)

	updated, err := f.reports.Update(ctx, principal, report.ID, repository.ReportUpdate{
		GoConsumed: floatPtr(12.5),
		Downtime:   floatPtr(1.5),
	})
	require.NoError(t, err)
	assert.InDelta(t, 12.5, *updated.GoConsumed, 0.001)
	assert.InDelta(t, 1.5, *updated.Activity.Downtime, 0.001)
	assert.Equal(t, []string{"go_consumed", "downtime"}, f.events[len(f.events)-1].Payload.(events.ReportUpdatedPayload).Fields)

	touched, err := f.reports.Update(ctx, principal, report.ID, repository.ReportUpdate{})
	require.NoError(t, err)
	assert.InDelta(t, 12.5, *touched.GoConsumed, 0.001)
}

func TestReportDeleteRequiresUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ship := f.createShip(t, "Aurora", "aurora")
	report, err := f.reports.Create(ctx, auth.ShipPrincipal(ship), &domain.DailyReport{ShipID: ship.ID, ReportDate: day(t, "2024-05-01")})
	require.NoError(t, err)

	err = f.reports.Delete(ctx, auth.ShipPrincipal(ship), report.ID)
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))

	require.NoError(t, f.reports.Delete(ctx, f.admin, report.ID))
	err = f.reports.Delete(ctx, f.admin, report.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestReportListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.createShip(t, "Aurora", "aurora")
	b := f.createShip(t, "Borealis", "borealis")
	for _, d := range []string{"2024-01-01", "2024-01-15", "2024-02-01"} {
		_, err := f.reports.Create(ctx, f.admin, &domain.DailyReport{ShipID: a.ID, ReportDate: day(t, d)})
		require.NoError(t, err)
	}
	_, err := f.reports.Create(ctx, f.admin, &domain.DailyReport{ShipID: b.ID, ReportDate: day(t, "2024-01-10")})
	require.NoError(t, err)

	reports, pagination, err := f.reports.List(ctx, ReportListFilter{
		ShipID:    &a.ID,
		StartDate: strPtr("2024-01-01"),
		EndDate:   strPtr("2024-01-31"),
	})
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "2024-01-15", reports[0].ReportDate.Format(domain.ReportDateLayout))
	assert.Equal(t, int64(2), pagination.Total)
	assert.Equal(t, 10, pagination.Limit)

	_, _, err = f.reports.List(ctx, ReportListFilter{StartDate: strPtr("01/02/2024")})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestReportStatsCachedAndInvalidated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ship := f.createShip(t, "Aurora", "aurora")
	today := time.Now().UTC()

	_, err := f.reports.Create(ctx, f.admin, &domain.DailyReport{ShipID: ship.ID, ReportDate: today, GoConsumed: floatPtr(100)})
	require.NoError(t, err)

	stats, err := f.reports.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalReports)
	require.NotNil(t, f.cache.stats)

	cached, err := f.reports.Stats(ctx)
	require.NoError(t, err)
	assert.Same(t, stats, cached)

	_, err = f.reports.Create(ctx, f.admin, &domain.DailyReport{ShipID: ship.ID, ReportDate: today.AddDate(0, 0, -1), GoConsumed: floatPtr(50)})
	require.NoError(t, err)
	assert.Nil(t, f.cache.stats)

	stats, err = f.reports.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalReports)
	assert.InDelta(t, 75, stats.AvgConsumption, 0.001)
	assert.InDelta(t, 150, stats.WeeklyConsumption, 0.001)
	require.Len(t, stats.TopConsumers, 1)
	assert.Equal(t, "Aurora", stats.TopConsumers[0].Name)
}

func TestReportServicePassesDatastoreErrors(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewReportService(ReportDependencies{ReportRepo: failingReports{err: boom}})

	_, err := svc.Get(context.Background(), auth.UserPrincipal(&domain.User{ID: 1, IsActive: true}), 1)
	assert.ErrorIs(t, err, boom)
}

type failingReports struct {
	repository.ReportRepository
	err error
}

func (f failingReports) GetByID(context.Context, int64) (*domain.DailyReport, error) {
	return nil, f.err
}
