package server

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mdouchement/safehaven/internal/alert"
	"github.com/mdouchement/safehaven/internal/auth"
	"github.com/mdouchement/safehaven/internal/journey"
	"github.com/mdouchement/safehaven/internal/lifecycle"
	"github.com/mdouchement/safehaven/internal/matcher"
	"github.com/mdouchement/safehaven/internal/metrics"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/repository"
	"github.com/mdouchement/safehaven/internal/server/middlewares"
	"github.com/mdouchement/safehaven/internal/session"
	"github.com/sirupsen/logrus"
)

// An IOC is an Iversion Of Control pattern used to init the server package.
type IOC struct {
	Version        string
	NoRegistration bool
	Logger         *logrus.Logger
	Metrics        *metrics.Metrics

	Repository    *repository.Repository
	Authenticator *auth.Authenticator
	Sessions      *session.Manager
	Lifecycle     *lifecycle.Engine
	Matcher       *matcher.Matcher
	Journeys      *journey.Orchestrator
	Alerts        *alert.Service
}

// EchoEngine instantiates the wep server.
func EchoEngine(ctrl IOC) *echo.Echo {
	engine := echo.New()
	engine.Use(middleware.Recover())
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig))
	engine.Use(middleware.Gzip())

	// Only the route pattern is logged, never the query string.
	engine.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "[${status}] ${method} ${path} (${bytes_in}) ${latency_human}\n",
		Output: ctrl.Logger.Out,
	}))
	engine.Binder = middlewares.NewBinder()
	// Error handler
	engine.HTTPErrorHandler = middlewares.HTTPErrorHandler(ctrl.Logger)

	engine.Pre(middleware.Rewrite(map[string]string{
		"/": "/version",
	}))

	////////////
	// Router //
	////////////

	router := engine.Group("")
	restricted := router.Group("")
	restricted.Use(middlewares.Session(ctrl.Sessions))

	// generic handlers
	//
	router.GET("/version", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"version": ctrl.Version,
		})
	})
	if ctrl.Metrics != nil {
		router.GET("/metrics", echo.WrapHandler(ctrl.Metrics.Handler()))
	}

	//
	// auth handlers
	//
	auth := &authentication{
		repo:     ctrl.Repository,
		auth:     ctrl.Authenticator,
		sessions: ctrl.Sessions,
		alerts:   ctrl.Alerts,
		log:      ctrl.Logger,
	}
	if !ctrl.NoRegistration {
		router.POST("/profiles", auth.Register)
	}
	router.POST("/auth/sign_in", auth.Login)
	restricted.GET("/session", auth.Session)
	restricted.DELETE("/session", auth.Logout)
	restricted.POST("/auth/change_pw", auth.UpdatePassword)
	restricted.POST("/auth/change_duress_pw", auth.UpdateDuressPassword)

	//
	// profile handlers
	//
	profile := &profile{
		repo:      ctrl.Repository,
		lifecycle: ctrl.Lifecycle,
	}
	restricted.GET("/profile", profile.Show)
	restricted.PATCH("/profile", profile.Update)
	restricted.GET("/profile/survivor", profile.Survivor)
	restricted.PUT("/profile/survivor", profile.UpdateSurvivor)
	restricted.POST("/panic", profile.Panic)

	//
	// record handlers
	//
	record := &record{
		repo: ctrl.Repository,
	}
	restricted.GET("/incidents", record.Incidents)
	restricted.POST("/incidents", record.CreateIncident)
	restricted.GET("/incidents/:id", record.Incident)
	restricted.DELETE("/incidents/:id", record.DeleteIncident)
	restricted.GET("/incidents/:id/evidence", record.IncidentEvidence)
	restricted.GET("/evidence", record.Evidences)
	restricted.POST("/evidence", record.CreateEvidence)
	restricted.GET("/evidence/:id", record.Evidence)
	restricted.GET("/evidence/:id/content", record.EvidenceContent)
	restricted.DELETE("/evidence/:id", record.DeleteEvidence)
	restricted.GET("/documents", record.Documents)
	restricted.POST("/documents", record.CreateDocument)
	restricted.GET("/documents/:id", record.Document)
	restricted.GET("/documents/:id/content", record.DocumentContent)
	restricted.POST("/documents/:id/verify", record.VerifyDocument)
	restricted.DELETE("/documents/:id", record.DeleteDocument)

	//
	// resource handlers
	//
	resource := &resource{
		repo:    ctrl.Repository,
		matcher: ctrl.Matcher,
	}
	restricted.GET("/resources", resource.List)
	restricted.POST("/resources/filter", resource.Filter)
	restricted.GET("/resources/types", resource.Types)
	restricted.GET("/resources/availability", resource.Availability)
	restricted.POST("/resources/match", resource.Match)
	restricted.POST("/resources/package", resource.Package)
	restricted.POST("/resources/journey", resource.Journey)
	restricted.GET("/resources/:id", resource.Show)

	//
	// journey handlers
	//
	journey := &itinerary{
		repo:      ctrl.Repository,
		journeys:  ctrl.Journeys,
		lifecycle: ctrl.Lifecycle,
	}
	restricted.GET("/journeys", journey.List)
	restricted.POST("/journeys", journey.Create)
	restricted.GET("/journeys/:id", journey.Show)
	restricted.DELETE("/journeys/:id", journey.Delete)
	restricted.PATCH("/journeys/:id/status", journey.UpdateStatus)
	restricted.POST("/journeys/:id/complete", journey.Complete)
	restricted.POST("/journeys/:id/cancel", journey.Cancel)
	restricted.POST("/journeys/:id/arrangements/:leg", journey.Arrange)
	restricted.PUT("/journeys/:id/notes/:leg", journey.SetLegNotes)
	restricted.POST("/journeys/:id/auto_delete", journey.EnableAutoDelete)
	restricted.DELETE("/journeys/:id/auto_delete", journey.CancelAutoDelete)

	//
	// contact & SOS handlers
	//
	contact := &contact{
		repo:   ctrl.Repository,
		alerts: ctrl.Alerts,
		log:    ctrl.Logger,
	}
	restricted.GET("/contacts", contact.List)
	restricted.POST("/contacts", contact.Create)
	restricted.GET("/contacts/stats", contact.Stats)
	restricted.PATCH("/contacts/:id", contact.Update)
	restricted.DELETE("/contacts/:id", contact.Delete)
	restricted.POST("/contacts/:id/primary", contact.TogglePrimary)
	restricted.POST("/contacts/:id/verify", contact.MarkVerified)
	restricted.POST("/contacts/:id/test", contact.Test)
	restricted.GET("/sos", contact.ActiveSOS)
	restricted.GET("/sos/history", contact.SOSHistory)
	restricted.POST("/sos", contact.ActivateSOS)
	restricted.DELETE("/sos", contact.DeactivateSOS)
	restricted.POST("/sos/false_alarm", contact.FalseAlarm)

	//
	// subscription handlers
	//
	subscription := &subscription{
		repo: ctrl.Repository,
		log:  ctrl.Logger,
	}
	restricted.GET("/subscriptions/:topic", subscription.Stream)

	return engine
}

// PrintRoutes prints the Echo engin exposed routes.
func PrintRoutes(e *echo.Echo) {
	ignored := map[string]bool{
		"":   true,
		".":  true,
		"/*": true,
	}

	routes := e.Routes()
	sort.Slice(routes, func(i int, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})

	fmt.Println("Routes:")
	for _, route := range routes {
		if ignored[route.Path] {
			continue
		}
		fmt.Printf("%6s %s\n", route.Method, route.Path)
	}
}

func currentSession(c echo.Context) *model.Session {
	session, ok := c.Get(middlewares.CurrentSessionContextKey).(*model.Session)
	if ok {
		return session
	}
	return nil
}

// namespace returns the namespace of the current session.
// Handlers behind the session middleware always have one.
func namespace(c echo.Context) string {
	return currentSession(c).UserID
}
