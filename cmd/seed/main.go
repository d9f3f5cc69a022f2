// Package main provides a CLI tool for seeding the database with initial data.
//
// It migrates the schema, creates the bootstrap API user, the reference
// catalogs and one template record per physiotherapy record type, and stores
// the template references loaded by the server at start-up. Re-running is safe.
package main

import (
	"context"
	"fmt"
	"os"

	"physio/internal/config"
	"physio/internal/core/entity"
	"physio/internal/core/id"
	"physio/internal/core/security"
	"physio/internal/domain"
	"physio/internal/domain/auth"
	"physio/internal/domain/catalogs/history"
	"physio/internal/domain/catalogs/partner"
	"physio/internal/domain/catalogs/sport"
	"physio/internal/domain/physio"
	"physio/internal/domain/physio/treatment"
	"physio/internal/domain/physio/treatment_history"
	"physio/internal/infrastructure/numerator"
	"physio/internal/infrastructure/storage/postgres"
	"physio/internal/infrastructure/storage/postgres/auth_repo"
	"physio/internal/infrastructure/storage/postgres/catalog_repo"
	"physio/pkg/logger"
)

const (
	groupUser    = "base.group_user"
	groupManager = "physiotherapy_mgmt.group_manager"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	// Fail early on a malformed access table rather than at server start.
	access, err := security.LoadFile(cfg.Security.AccessCSV)
	if err != nil {
		log.Fatalw("failed to load access rules", "error", err)
	}
	log.Infow("access rules verified", "rules", len(access.Rules()))

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.URL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)
	if err := postgres.Migrate(ctx, txm); err != nil {
		log.Fatalw("failed to migrate schema", "error", err)
	}
	log.Info("schema migrated")

	authService := auth.NewService(auth_repo.NewUserRepo(txm), auth.NewJWTService(auth.DefaultJWTConfig(cfg.Auth.JWTSecret)))
	if err := seedUsers(ctx, authService); err != nil {
		log.Fatalw("failed to seed users", "error", err)
	}

	s := newSeeder(txm, numerator.New(pool))
	if err := s.catalogs(ctx); err != nil {
		log.Fatalw("failed to seed catalogs", "error", err)
	}
	if err := s.templates(ctx); err != nil {
		log.Fatalw("failed to seed template records", "error", err)
	}

	log.Info("seeding completed successfully")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// seedUsers creates the admin and, when THERAPIST_EMAIL is set, a regular user.
func seedUsers(ctx context.Context, svc *auth.Service) error {
	admin, err := svc.EnsureUser(ctx,
		getEnv("ADMIN_EMAIL", "admin@physio.local"),
		getEnv("ADMIN_PASSWORD", "Admin123!"),
		[]string{groupUser, groupManager}, nil, true)
	if err != nil {
		return fmt.Errorf("admin user: %w", err)
	}
	logger.Info(ctx, "admin user ready", "email", admin.Email)

	if email := os.Getenv("THERAPIST_EMAIL"); email != "" {
		user, err := svc.EnsureUser(ctx, email, getEnv("THERAPIST_PASSWORD", "Therapist123!"),
			[]string{groupUser}, nil, false)
		if err != nil {
			return fmt.Errorf("therapist user: %w", err)
		}
		logger.Info(ctx, "therapist user ready", "email", user.Email)
	}
	return nil
}

type seeder struct {
	refs     *postgres.TemplateRefStore
	partners *partner.Service
	sports   *sport.Service
	history  map[history.Kind]*history.Service

	treatmentRepo *catalog_repo.TreatmentRepo
	historyRepo   *catalog_repo.TreatmentHistoryRepo
	registry      *physio.TemplateRegistry
	num           *numerator.Service
	txm           *postgres.TxManager
}

func newSeeder(txm *postgres.TxManager, num *numerator.Service) *seeder {
	treatmentRepo := catalog_repo.NewTreatmentRepo(txm)
	historyRepo := catalog_repo.NewTreatmentHistoryRepo(txm)
	return &seeder{
		refs: postgres.NewTemplateRefStore(txm),
		partners: partner.NewService(partner.ServiceConfig{
			Repo:            catalog_repo.NewPartnerRepo(txm),
			TxManager:       txm,
			Numerator:       num,
			Classifier:      physio.NewClassifier(physio.Schema()),
			Treatments:      treatmentRepo,
			Histories:       historyRepo,
			TreatmentAction: treatment.WindowAction(),
		}),
		sports: sport.NewService(catalog_repo.NewSportRepo(txm), txm, num),
		history: map[history.Kind]*history.Service{
			history.Personal: history.NewService(history.Personal, catalog_repo.NewHistoryRepo(txm, history.Personal), txm, num),
			history.Familiar: history.NewService(history.Familiar, catalog_repo.NewHistoryRepo(txm, history.Familiar), txm, num),
		},
		treatmentRepo: treatmentRepo,
		historyRepo:   historyRepo,
		registry:      physio.NewTemplateRegistry(),
		num:           num,
		txm:           txm,
	}
}

var (
	sampleSports = []string{"Running", "Swimming", "Cycling", "Football", "Tennis"}

	sampleHistory = map[history.Kind][]string{
		history.Personal: {"Hypertension", "Diabetes", "Asthma", "Previous fracture"},
		history.Familiar: {"Heart disease", "Osteoporosis", "Arthritis"},
	}
)

// catalogs creates the reference entries when their catalog is still empty.
func (s *seeder) catalogs(ctx context.Context) error {
	if empty, err := isEmpty(ctx, s.sports.CatalogService); err != nil {
		return err
	} else if empty {
		for _, name := range sampleSports {
			if err := s.sports.Create(ctx, sport.NewSport(name)); err != nil {
				return fmt.Errorf("sport %q: %w", name, err)
			}
		}
	}

	for kind, names := range sampleHistory {
		svc := s.history[kind]
		empty, err := isEmpty(ctx, svc.CatalogService)
		if err != nil {
			return err
		}
		if !empty {
			continue
		}
		for _, name := range names {
			if err := svc.Create(ctx, history.NewEntry(kind, name)); err != nil {
				return fmt.Errorf("%s %q: %w", kind.ModelName(), name, err)
			}
		}
	}
	logger.Info(ctx, "reference catalogs seeded")
	return nil
}

func isEmpty[T entity.Validatable](ctx context.Context, svc *domain.CatalogService[T]) (bool, error) {
	res, err := svc.List(ctx, domain.ListFilter{Limit: 1, IncludeDeleted: true})
	if err != nil {
		return false, fmt.Errorf("list %s: %w", svc.EntityName(), err)
	}
	return res.TotalCount == 0, nil
}

// templates creates the template partner and one template record per
// composing type, then stores their references.
func (s *seeder) templates(ctx context.Context) error {
	partnerKey := physio.TemplateKey(partner.TableName)
	owner, err := s.ensure(ctx, partnerKey, partner.ModelName, func() (id.ID, error) {
		vals := partner.Values{"name": "Template Patient"}
		vals[partner.FieldPhysiotherapyPartner] = true
		p, err := s.partners.Create(ctx, vals, id.Nil())
		if err != nil {
			return id.Nil(), err
		}
		return p.ID, nil
	})
	if err != nil {
		return fmt.Errorf("template partner: %w", err)
	}

	treatments := treatment.NewService(treatment.ServiceConfig{
		Repo:      s.treatmentRepo,
		TxManager: s.txm,
		Numerator: s.num,
		Partners:  s.partners,
		Templates: s.registry,
	})
	treatmentID, err := s.ensure(ctx, physio.TemplateKey(treatment.TableName), treatment.ModelName, func() (id.ID, error) {
		t := treatment.NewTreatment("Template Treatment", owner, id.Nil())
		if err := treatments.Create(ctx, t); err != nil {
			return id.Nil(), err
		}
		return t.ID, nil
	})
	if err != nil {
		return fmt.Errorf("template treatment: %w", err)
	}

	histories := treatment_history.NewService(treatment_history.ServiceConfig{
		Repo:       s.historyRepo,
		TxManager:  s.txm,
		Numerator:  s.num,
		Partners:   s.partners,
		Treatments: treatments,
		Templates:  s.registry,
	})
	_, err = s.ensure(ctx, physio.TemplateKey(treatment_history.TableName), treatment_history.ModelName, func() (id.ID, error) {
		th := treatment_history.NewTreatmentHistory("Template Session", owner, id.Nil())
		th.TreatmentID = &treatmentID
		if err := histories.Create(ctx, th); err != nil {
			return id.Nil(), err
		}
		return th.ID, nil
	})
	if err != nil {
		return fmt.Errorf("template treatment history: %w", err)
	}
	return nil
}

// ensure returns the stored reference for key, creating the record first when
// the key is unknown.
func (s *seeder) ensure(ctx context.Context, key, model string, create func() (id.ID, error)) (id.ID, error) {
	existing, ok, err := s.refs.Lookup(ctx, key)
	if err != nil {
		return id.Nil(), err
	}
	if ok {
		logger.Info(ctx, "template already registered", "key", key, "record_id", existing)
		return existing, nil
	}

	recordID, err := create()
	if err != nil {
		return id.Nil(), err
	}
	if err := s.refs.Save(ctx, key, model, recordID); err != nil {
		return id.Nil(), err
	}
	logger.Info(ctx, "template registered", "key", key, "record_id", recordID)
	return recordID, nil
}
