//go:build integration

package integration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	appaudit "github.com/clearbook/backend/internal/application/audit"
	appidentity "github.com/clearbook/backend/internal/application/identity"
	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/bootstrap"
	"github.com/clearbook/backend/internal/domain/identity"
	"github.com/clearbook/backend/internal/domain/shared"
	"github.com/clearbook/backend/internal/infrastructure/auth"
	"github.com/clearbook/backend/internal/infrastructure/config"
	"github.com/clearbook/backend/internal/infrastructure/event"
	"github.com/clearbook/backend/internal/infrastructure/persistence"
)

func TestMain(m *testing.M) {
	identity.PasswordCost = bcrypt.MinCost
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

// stack is the application graph over a TestDB with the async event bus
// feeding the audit log
type stack struct {
	*bootstrap.Services
	db    *TestDB
	repos appshared.Repositories
	bus   *event.InMemoryEventBus
}

func newStack(t *testing.T, tdb *TestDB) *stack {
	t.Helper()
	repos := persistence.NewRepositories(tdb.DB)

	bus := event.NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(appaudit.NewEventHandler(repos.AuditLogs(), nil))
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })

	dispatcher := appshared.NewEventDispatcher(nil)
	dispatcher.SetEventPublisher(bus)

	services := bootstrap.NewServices(bootstrap.Deps{
		Scope:  persistence.NewGormTransactionScope(tdb.DB),
		Repos:  repos,
		Events: dispatcher,
		JWT: auth.NewJWTService(config.JWTConfig{
			Secret:                 "integration-secret-with-32-characters!",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: time.Hour,
			Issuer:                 "clearbook-integration",
			MaxRefreshCount:        3,
		}),
		Blacklist: auth.NewMemoryTokenBlacklist(),
	})
	return &stack{Services: services, db: tdb, repos: repos, bus: bus}
}

// drain waits until every published event has been handled
func (s *stack) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, s.bus.Stop(ctx))
}

// tenant registers a fresh tenant and returns its id and admin user id
func (s *stack) tenant(t *testing.T) (uuid.UUID, uuid.UUID) {
	t.Helper()
	code := fmt.Sprintf("it%s", uuid.NewString()[:8])
	res, err := s.Tenant.Register(context.Background(), appidentity.RegisterTenantInput{
		TenantCode:    code,
		TenantName:    "Integration " + code,
		BaseCurrency:  "USD",
		AdminUsername: "admin",
		AdminEmail:    "admin@" + code + ".example.com",
		AdminPassword: "Secret123!",
	})
	require.NoError(t, err)
	return res.Tenant.ID, res.User.ID
}

// account resolves a chart account id by code
func (s *stack) account(t *testing.T, tenantID uuid.UUID, code string) uuid.UUID {
	t.Helper()
	a, err := s.repos.Accounts().FindByCode(context.Background(), tenantID, code)
	require.NoError(t, err)
	return a.ID
}

// race runs fn n times at once and returns how many calls succeeded and
// the domain error codes of the rest
func race(t *testing.T, n int, fn func(ctx context.Context) error) (int, []string) {
	t.Helper()
	var (
		mu    sync.Mutex
		ok    int
		codes []string
		wg    sync.WaitGroup
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := fn(context.Background())
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			var de *shared.DomainError
			if !errors.As(err, &de) {
				t.Errorf("unexpected error: %v", err)
				return
			}
			codes = append(codes, de.Code)
		}()
	}
	close(start)
	wg.Wait()
	return ok, codes
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}
