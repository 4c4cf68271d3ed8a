package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"medisync/internal/audit"
	"medisync/internal/auth"
	"medisync/internal/config"
	"medisync/internal/database"
	"medisync/internal/handlers"
	"medisync/internal/middleware"
	"medisync/internal/models"
	"medisync/internal/repository"
	"medisync/internal/services"
)

func main() {
	// Load environment variables
	if err := loadEnv(); err != nil {
		log.Warn().Err(err).Msg("no .env file loaded")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogging(cfg)

	// Open database
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Security components
	jwtManager := auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.SessionDuration)
	rateLimiter := middleware.NewRateLimiter(cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindow)
	loginRateLimiter := middleware.NewRateLimiter(cfg.Security.LoginRateLimit, cfg.Security.LoginRateWindow)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	prescriptionRepo := repository.NewPrescriptionRepository(db)
	verificationRepo := repository.NewVerificationRepository(db)
	preparationRepo := repository.NewPreparationRepository(db)
	administrationRepo := repository.NewAdministrationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Services
	trail := audit.New(cfg.Audit.Dir)
	notificationSvc := services.NewNotificationService(notificationRepo, log.Logger)
	prescriptionSvc := services.NewPrescriptionService(prescriptionRepo, userRepo, log.Logger)
	verificationSvc := services.NewVerificationService(verificationRepo, prescriptionRepo, log.Logger)
	preparationSvc := services.NewPreparationService(preparationRepo, log.Logger)
	administrationSvc := services.NewAdministrationService(administrationRepo, prescriptionRepo, trail, log.Logger)
	completionSvc := services.NewCompletionService(prescriptionRepo, notificationSvc, log.Logger)

	// Router
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(middleware.SecurityHeaders)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(rateLimiter.Middleware)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		r.Route("/api/auth", func(r chi.Router) {
			r.With(loginRateLimiter.Middleware).Post("/login", handlers.HandleLogin(db, jwtManager, completionSvc))
		})
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)
		r.Use(rateLimiter.Middleware)

		r.Route("/api", func(r chi.Router) {
			r.Get("/auth/me", handlers.HandleGetCurrentUser(db))
			r.Post("/auth/logout", handlers.HandleLogout())
			r.Post("/auth/refresh", handlers.HandleRefreshToken(db, jwtManager))

			r.Get("/dashboard", handlers.HandleDashboard(db))

			r.Get("/notifications", handlers.HandleListNotifications(notificationSvc))
			r.Get("/notifications/counts", handlers.HandleNotificationCounts(db))

			// Doctor surface
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.RequireRole(models.RoleDoctor))

				r.Route("/prescriptions", func(r chi.Router) {
					r.Get("/", handlers.HandleListMyPrescriptions(prescriptionSvc))
					r.Post("/", handlers.HandleCreatePrescription(prescriptionSvc, notificationSvc))
					r.Put("/{id}", handlers.HandleUpdatePrescription(prescriptionSvc))
					r.Get("/{id}/administrations", handlers.HandleGetAdministrationHistory(administrationSvc))
				})
				r.Get("/my-patients", handlers.HandleListMyPatients(db))
			})

			// Pharmacist surface
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.RequireRole(models.RolePharmacist))

				r.Route("/verifications", func(r chi.Router) {
					r.Get("/pending", handlers.HandleListPendingVerifications(verificationSvc))
					r.Post("/{id}", handlers.HandleVerifyPrescription(verificationSvc, notificationSvc))
				})
				r.Route("/preparations", func(r chi.Router) {
					r.Get("/due", handlers.HandleListPreparationsDue(preparationSvc))
					r.Post("/{id}/prepared", handlers.HandleMarkPrepared(preparationSvc))
				})
				r.Get("/expiring-medications", handlers.HandleListExpiringMedications(verificationSvc))
			})

			// Nurse surface
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.RequireRole(models.RoleNurse))

				r.Get("/assigned-patients", handlers.HandleListAssignedPatients(administrationSvc))
				r.Get("/administrable-prescriptions", handlers.HandleListAdministrablePrescriptions(administrationSvc))
				r.Post("/administrations", handlers.HandleRecordAdministration(administrationSvc, notificationSvc))
			})

			// Patient and formulary records
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.RequireRole(models.RoleAdmin, models.RoleDoctor, models.RoleNurse))

				r.Route("/patients", func(r chi.Router) {
					r.Get("/", handlers.HandleListPatients(db))
					r.Get("/{id}", handlers.HandleGetPatient(db))
				})
			})
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.RequireRole(models.RoleAdmin))

				r.Post("/patients", handlers.HandleCreatePatient(db))
				r.Put("/patients/{id}", handlers.HandleUpdatePatient(db))
			})
			r.Route("/medicines", func(r chi.Router) {
				r.Get("/", handlers.HandleListMedicines(db))
				r.Get("/{id}", handlers.HandleGetMedicine(db))
				r.With(authMiddleware.RequireRole(models.RoleAdmin)).Post("/", handlers.HandleCreateMedicine(db))
			})

			// Admin surface
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.RequireRole(models.RoleAdmin))

				r.Route("/users", func(r chi.Router) {
					r.Get("/", handlers.HandleListUsers(db))
					r.Post("/", handlers.HandleCreateUser(db))
					r.Get("/by-role", handlers.HandleListUsersByRole(db))
					r.Get("/{id}", handlers.HandleGetUser(db))
					r.Put("/{id}", handlers.HandleUpdateUser(db))
				})

				r.Get("/notifications/all", handlers.HandleListAllNotifications(notificationSvc))

				r.Route("/reports", func(r chi.Router) {
					r.Get("/prescriptions", handlers.HandlePrescriptionReport(db))
					r.Get("/verifications", handlers.HandleVerificationReport(db))
					r.Get("/administrations", handlers.HandleAdministrationReport(db))
					r.Get("/controlled-substances", handlers.HandleControlledSubstancesReport(db))
				})
			})
		})
	})

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("server starting")
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Logging.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// loadEnv loads environment variables from .env file
func loadEnv() error {
	data, err := os.ReadFile(".env")
	if err != nil {
		return err
	}

	lines := splitLines(string(data))
	for _, line := range lines {
		if line == "" || line[0] == '#' {
			continue
		}

		parts := splitOnce(line, '=')
		if len(parts) == 2 {
			os.Setenv(parts[0], parts[1])
		}
	}

	return nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func splitOnce(s string, sep byte) []string {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return []string{s[:i], s[i+1:]}
		}
	}
	return []string{s}
}
