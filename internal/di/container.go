// Package di provides dependency injection configuration for the TimeToWish server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/timetowish/timetowish-server/internal/auth"
	"github.com/timetowish/timetowish-server/internal/config"
	"github.com/timetowish/timetowish-server/internal/di/providers"
	"github.com/timetowish/timetowish-server/internal/logger"
	"github.com/timetowish/timetowish-server/internal/service"
	"github.com/timetowish/timetowish-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideValidator)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Business services
	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideUserService)
	do.Provide(injector, providers.ProvideCollectionService)
	do.Provide(injector, providers.ProvideBirthdayService)
	do.Provide(injector, providers.ProvideAnalyticsService)

	// Workers
	do.Provide(injector, providers.ProvideReminderScheduler)
	do.Provide(injector, providers.ProvideSessionCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once everything is running.
// This triggers lazy initialization in dependency order.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)

	_ = do.MustInvoke[*service.SessionService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.UserService](injector)
	_ = do.MustInvoke[*service.CollectionService](injector)
	_ = do.MustInvoke[*service.BirthdayService](injector)
	_ = do.MustInvoke[*service.AnalyticsService](injector)

	_ = do.MustInvoke[*providers.ReminderSchedulerHandle](injector)
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
