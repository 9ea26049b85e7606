package api

import (
	"github.com/gorilla/mux"

	"github.com/companionlabs/companion/internal/api/recovery"
	"github.com/companionlabs/companion/internal/auth"
	"github.com/companionlabs/companion/internal/chat"
	"github.com/companionlabs/companion/internal/health"
	"github.com/companionlabs/companion/internal/profile"
	"github.com/companionlabs/companion/internal/services"
	"github.com/companionlabs/companion/internal/store"
	"github.com/companionlabs/companion/internal/vision"
)

// Deps bundles everything the router needs; main constructs it once.
type Deps struct {
	Store      store.Store
	Orch       *chat.Orchestrator
	Profiles   *profile.Assembler
	Describer  vision.Describer
	Authorizer auth.Authorizer
	Health     *health.ServiceHealthChecker
}

// NewRouter builds the HTTP router with all /v0 routes.
func NewRouter(d Deps) *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	userHandler := NewUserHandler(services.NewUserService(d.Store))
	chatHandler := NewChatHandler(d.Orch, services.NewHistoryService(d.Store), d.Profiles)
	memoryHandler := NewMemoryHandler(services.NewMemoryService(d.Store))
	journalHandler := NewJournalHandler(services.NewJournalService(d.Store))
	reminderHandler := NewReminderHandler(services.NewReminderService(d.Store))
	mediaHandler := NewMediaHandler(d.Describer)
	healthHandler := NewHealthHandler(d.Health)

	// Health is unauthenticated.
	router.HandleFunc("/v0/health", healthHandler.CheckHealth).Methods("GET")

	v0 := router.PathPrefix("/v0").Subrouter()
	v0.Use(AuthMiddleware(d.Authorizer))

	v0.HandleFunc("/users", userHandler.CreateUser).Methods("POST")
	v0.HandleFunc("/users/{userId}", userHandler.GetUser).Methods("GET")
	v0.HandleFunc("/users/{userId}", userHandler.DeleteUser).Methods("DELETE")

	v0.HandleFunc("/chat", chatHandler.Chat).Methods("POST")
	v0.HandleFunc("/chat/history", chatHandler.History).Methods("GET")
	v0.HandleFunc("/chat/history/clear", chatHandler.ClearHistory).Methods("POST")
	v0.HandleFunc("/profile", chatHandler.Profile).Methods("GET")

	v0.HandleFunc("/memories", memoryHandler.ListFacts).Methods("GET")
	v0.HandleFunc("/memories/{factId}", memoryHandler.DeleteFact).Methods("DELETE")

	v0.HandleFunc("/journal", journalHandler.CreateEntry).Methods("POST")
	v0.HandleFunc("/journal", journalHandler.ListEntries).Methods("GET")
	v0.HandleFunc("/journal/{entryId}", journalHandler.DeleteEntry).Methods("DELETE")

	v0.HandleFunc("/reminders", reminderHandler.CreateReminder).Methods("POST")
	v0.HandleFunc("/reminders", reminderHandler.ListReminders).Methods("GET")
	v0.HandleFunc("/reminders/{reminderId}", reminderHandler.DeleteReminder).Methods("DELETE")

	v0.HandleFunc("/media/describe", mediaHandler.Describe).Methods("POST")

	return router
}
