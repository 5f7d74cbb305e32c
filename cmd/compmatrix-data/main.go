package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"compmatrix-data/internal/config"
	"compmatrix-data/internal/database"
	"compmatrix-data/internal/domain"
	httpapi "compmatrix-data/internal/http"
	"compmatrix-data/internal/logger"
	"compmatrix-data/internal/repository"
	"compmatrix-data/internal/service"
	"compmatrix-data/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "compmatrix-data")
	if err != nil {
		log, _ = logger.NewDevelopmentLogger()
	}
	defer log.Sync()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	kv := store.NewRedisKV(redisClient)

	var (
		db          *sql.DB
		personnel   repository.PersonnelRepository
		definitions repository.DefinitionsRepository
	)
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			log.Info("DB enabled for compmatrix-data")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory repos", zap.Error(err))
		}
	}
	if db != nil {
		personnel = repository.NewPostgresPersonnelRepository(db)
		definitions = repository.NewPostgresDefinitionsRepository(db)
	} else {
		// DB 未就绪：内存 repo + demo 数据，`go run` 即可联测前端
		mp := repository.NewMemoryPersonnelRepository()
		md := repository.NewMemoryDefinitionsRepository()
		seedDemoData(mp, md)
		personnel = mp
		definitions = md
	}

	// 外部身份服务：未配置 API key 时跑 dev 模式（写操作不做角色检查）
	var identity service.IdentityResolver
	if cfg.Identity.APIKey != "" {
		identity = service.NewIdentityClient(cfg.Identity, log)
	} else {
		log.Warn("identity API key not configured, record edits are unauthenticated")
	}

	directory := service.NewDirectoryService(personnel, definitions, kv, cfg.DirectoryCacheTTL, log)
	matrix := service.NewMatrixService(personnel, definitions, log)
	export := service.NewExportService(directory, matrix, log)

	router := httpapi.NewRouter(log)
	router.RegisterDirectoryRoutes(httpapi.NewDirectoryHandler(directory, identity, log))
	router.RegisterRecordRoutes(httpapi.NewRecordHandler(directory, identity, log))
	router.RegisterMatrixRoutes(httpapi.NewMatrixHandler(matrix, definitions, log))
	router.RegisterExportRoutes(httpapi.NewExportHandler(export, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case <-errCh:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	_ = redisClient.Close()
	if db != nil {
		_ = db.Close()
	}
}

func datePtr(t time.Time) *time.Time { return &t }

// seedDemoData demo 租户 demo：两类能力 + 个人信息字段 + 三个人员，
// 覆盖 active / expiring / expired / pending 四种状态
func seedDemoData(personnel *repository.MemoryPersonnelRepository, definitions *repository.MemoryDefinitionsRepository) {
	const tenantID = "demo"
	now := time.Now().UTC()

	definitions.AddDefinition(&domain.CompetencyDefinition{
		CompetencyID:    "ut-level-2",
		TenantID:        tenantID,
		Name:            "UT Level 2",
		CategoryName:    "NDT",
		FieldType:       domain.FieldTypeCertification,
		RequiresWitness: true,
		DisplayOrder:    1,
	})
	definitions.AddDefinition(&domain.CompetencyDefinition{
		CompetencyID: "mt-level-1",
		TenantID:     tenantID,
		Name:         "MT Level 1",
		CategoryName: "NDT",
		FieldType:    domain.FieldTypeCertification,
		DisplayOrder: 2,
	})
	definitions.AddDefinition(&domain.CompetencyDefinition{
		CompetencyID: "first-aid",
		TenantID:     tenantID,
		Name:         "First Aid",
		CategoryName: "Safety",
		FieldType:    domain.FieldTypeExpiryDate,
		DisplayOrder: 3,
	})
	definitions.AddDefinition(&domain.CompetencyDefinition{
		CompetencyID: "email",
		TenantID:     tenantID,
		Name:         "Email",
		FieldType:    domain.FieldTypePersonalDetail,
		DisplayOrder: 4,
	})

	personnel.AddPerson(&domain.Person{
		PersonID:         "demo-p1",
		TenantID:         tenantID,
		Username:         "alice",
		Email:            "alice@example.com",
		OrganizationID:   "org-inspection",
		OrganizationName: "Inspection",
		Role:             domain.RoleEditor,
		Competencies: []*domain.CompetencyRecord{
			{
				RecordID:        "demo-r1",
				TenantID:        tenantID,
				PersonID:        "demo-p1",
				CompetencyID:    "ut-level-2",
				Status:          domain.RecordStatusActive,
				ExpiryDate:      datePtr(now.AddDate(1, 0, 0)),
				IssuingBody:     "PCN",
				CertificationID: "PCN-123456",
			},
			{
				RecordID:     "demo-r2",
				TenantID:     tenantID,
				PersonID:     "demo-p1",
				CompetencyID: "first-aid",
				Status:       domain.RecordStatusActive,
				ExpiryDate:   datePtr(now.AddDate(0, 0, 14)),
			},
		},
	})
	personnel.AddPerson(&domain.Person{
		PersonID:         "demo-p2",
		TenantID:         tenantID,
		Username:         "bob",
		Email:            "bob@example.com",
		OrganizationID:   "org-workshop",
		OrganizationName: "Workshop",
		Role:             domain.RoleViewer,
		Competencies: []*domain.CompetencyRecord{
			{
				RecordID:     "demo-r3",
				TenantID:     tenantID,
				PersonID:     "demo-p2",
				CompetencyID: "first-aid",
				Status:       domain.RecordStatusActive,
				ExpiryDate:   datePtr(now.AddDate(0, -1, 0)),
			},
		},
	})
	personnel.AddPerson(&domain.Person{
		PersonID:         "demo-p3",
		TenantID:         tenantID,
		Username:         "carol",
		Email:            "carol@example.com",
		OrganizationID:   "org-inspection",
		OrganizationName: "Inspection",
		Role:             domain.RoleOrgAdmin,
		Competencies: []*domain.CompetencyRecord{
			{
				RecordID:     "demo-r4",
				TenantID:     tenantID,
				PersonID:     "demo-p3",
				CompetencyID: "mt-level-1",
				Status:       domain.RecordStatusPendingApproval,
				ExpiryDate:   datePtr(now.AddDate(2, 0, 0)),
			},
		},
	})
}
