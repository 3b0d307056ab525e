// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	classesfeature "github.com/classtally/classtally/internal/app/features/classes"
	collectionsfeature "github.com/classtally/classtally/internal/app/features/collections"
	exportfeature "github.com/classtally/classtally/internal/app/features/export"
	healthfeature "github.com/classtally/classtally/internal/app/features/health"
	importfeature "github.com/classtally/classtally/internal/app/features/importcsv"
	loginfeature "github.com/classtally/classtally/internal/app/features/login"
	studentsfeature "github.com/classtally/classtally/internal/app/features/students"
	classstore "github.com/classtally/classtally/internal/app/store/classes"
	collectionstore "github.com/classtally/classtally/internal/app/store/collections"
	studentstore "github.com/classtally/classtally/internal/app/store/students"
	"github.com/classtally/classtally/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and Startup have completed. ClassTally serves a pure JSON API: the
// session middleware runs globally so every handler can see the current
// user, while read endpoints stay reachable without a session.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	classes := classstore.New(deps.MongoDatabase)
	students := studentstore.New(deps.MongoDatabase)
	collections := collectionstore.New(deps.MongoDatabase)

	r := chi.NewRouter()

	// Global auth middleware: loads the session user into context if
	// logged in, so handlers can use auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication and the public class picker
	loginHandler := loginfeature.NewHandler(logger, sessionMgr, classes, appCfg.HODPassword)
	r.Mount("/auth", loginfeature.Routes(loginHandler))

	// Class management and credential slots
	classesHandler := classesfeature.NewHandler(logger, classes)
	r.Mount("/classes", classesfeature.Routes(classesHandler, sessionMgr))

	// Student rosters and payment status
	studentsHandler := studentsfeature.NewHandler(logger, students)
	r.Mount("/students", studentsfeature.Routes(studentsHandler, sessionMgr))

	// Fee collections and bulk status operations
	collectionsHandler := collectionsfeature.NewHandler(logger, collections, students)
	r.Mount("/collections", collectionsfeature.Routes(collectionsHandler, sessionMgr))

	// Roster import (CSV upload or JSON rows)
	importHandler := importfeature.NewHandler(logger, students)
	r.Mount("/import", importfeature.Routes(importHandler, sessionMgr))

	// CSV export of per-collection payment status
	exportHandler := exportfeature.NewHandler(logger, collections, students)
	r.Mount("/export", exportfeature.Routes(exportHandler))

	return r, nil
}
