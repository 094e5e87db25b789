package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"JNChoral/cache"
	"JNChoral/config"
	"JNChoral/core/account"
	"JNChoral/core/audition"
	"JNChoral/core/auth"
	"JNChoral/core/chorister"
	"JNChoral/core/content"
	"JNChoral/db"
	"JNChoral/logger"
	"JNChoral/repository"
	"JNChoral/storage"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// Handler serves every HTTP endpoint of the site.
type Handler struct {
	cfg        *config.Config
	db         *gorm.DB
	tokens     *auth.TokenManager
	policy     auth.Policy
	auditions  *audition.Service
	accounts   *account.Service
	content    *content.Service
	choristers *chorister.Service
}

// Deps are the collaborators of a Handler.
type Deps struct {
	Config     *config.Config
	DB         *gorm.DB
	Tokens     *auth.TokenManager
	Policy     auth.Policy
	Auditions  *audition.Service
	Accounts   *account.Service
	Content    *content.Service
	Choristers *chorister.Service
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		cfg:        d.Config,
		db:         d.DB,
		tokens:     d.Tokens,
		policy:     d.Policy,
		auditions:  d.Auditions,
		accounts:   d.Accounts,
		content:    d.Content,
		choristers: d.Choristers,
	}
}

// Router builds the route table. CORS wraps the router so preflight requests never reach it.
func (h *Handler) Router() http.Handler {
	router := mux.NewRouter()
	router.Use(loggingMiddleware, h.sessionMiddleware)

	router.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)

	// 试音申请
	router.HandleFunc("/api/auditions", h.SubmitAudition).Methods(http.MethodPost)
	router.HandleFunc("/api/auditions/mine", requireUser(h.MyAuditions)).Methods(http.MethodGet)
	router.HandleFunc("/auditions/status", requirePage(h.StatusPage)).Methods(http.MethodGet)
	router.HandleFunc("/auditions/status/{id}/download", requirePage(h.DownloadConfirmation)).Methods(http.MethodGet)

	admin := router.PathPrefix("/api/admin").Subrouter()
	admin.HandleFunc("/auditions", h.requireAction(auth.ActionManageAuditions, h.ListAuditions)).Methods(http.MethodGet)
	admin.HandleFunc("/auditions/export", h.requireAction(auth.ActionExportAuditions, h.ExportAuditions)).Methods(http.MethodGet)
	admin.HandleFunc("/auditions/{id}/status", h.requireAction(auth.ActionManageAuditions, h.UpdateAuditionStatus)).Methods(http.MethodPut, http.MethodPatch)
	admin.HandleFunc("/auditions/{id}/history", h.requireAction(auth.ActionManageAuditions, h.AuditionHistory)).Methods(http.MethodGet)

	// 用户认证
	router.HandleFunc("/api/auth/register", h.Register).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", h.Login).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/logout", h.Logout).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/forgot", h.ForgotPassword).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/reset", h.ResetPassword).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/me", requireUser(h.Me)).Methods(http.MethodGet)
	router.HandleFunc("/api/onboarding", requireUser(h.CompleteOnboarding)).Methods(http.MethodPost)
	router.HandleFunc("/api/profile", requireUser(h.UpdateProfile)).Methods(http.MethodPut)

	// 合唱团成员
	router.HandleFunc("/api/choristers/me", requireUser(h.ChoristerDashboard)).Methods(http.MethodGet)
	router.HandleFunc("/api/choristers/profile", requireUser(h.SaveChoristerProfile)).Methods(http.MethodPut)
	router.HandleFunc("/api/choristers/attendance", requireUser(h.MarkAttendance)).Methods(http.MethodPost)

	choir := func(f http.HandlerFunc) http.HandlerFunc { return h.requireAction(auth.ActionManageChoristers, f) }
	admin.HandleFunc("/rehearsals", choir(h.ListRehearsals)).Methods(http.MethodGet)
	admin.HandleFunc("/rehearsals", choir(h.CreateRehearsal)).Methods(http.MethodPost)
	admin.HandleFunc("/rehearsals/{id}", choir(h.DeleteRehearsal)).Methods(http.MethodDelete)
	admin.HandleFunc("/attendance", choir(h.PendingAttendance)).Methods(http.MethodGet)
	admin.HandleFunc("/attendance/{id}/confirm", choir(h.ConfirmAttendance)).Methods(http.MethodPut)
	admin.HandleFunc("/attendance/{id}", choir(h.RejectAttendance)).Methods(http.MethodDelete)
	admin.HandleFunc("/notices", choir(h.ListNotices)).Methods(http.MethodGet)
	admin.HandleFunc("/notices", choir(h.CreateNotice)).Methods(http.MethodPost)
	admin.HandleFunc("/notices/{id}/publish", choir(h.PublishNotice)).Methods(http.MethodPut)
	admin.HandleFunc("/notices/{id}", choir(h.DeleteNotice)).Methods(http.MethodDelete)

	// 用户管理
	users := func(f http.HandlerFunc) http.HandlerFunc { return h.requireAction(auth.ActionManageUsers, f) }
	admin.HandleFunc("/users", users(h.ListUsers)).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}", users(h.UpdateUser)).Methods(http.MethodPatch)
	admin.HandleFunc("/users/{id}/verify", users(h.VerifyChorister)).Methods(http.MethodPut)
	admin.HandleFunc("/users/{id}", users(h.DeleteUser)).Methods(http.MethodDelete)

	// 公开内容
	router.HandleFunc("/api/news", h.GetNews).Methods(http.MethodGet)
	router.HandleFunc("/api/news/{id}", h.GetNewsItem).Methods(http.MethodGet)
	router.HandleFunc("/api/events", h.GetEvents).Methods(http.MethodGet)
	router.HandleFunc("/api/gallery", h.GetGallery).Methods(http.MethodGet)
	router.HandleFunc("/api/music", h.GetMusic).Methods(http.MethodGet)
	router.HandleFunc("/api/videos", h.GetVideos).Methods(http.MethodGet)
	router.PathPrefix("/media/").HandlerFunc(h.ServeMedia).Methods(http.MethodGet, http.MethodHead)

	// 内容管理
	manage := func(f http.HandlerFunc) http.HandlerFunc { return h.requireAction(auth.ActionManageContent, f) }
	admin.HandleFunc("/stats", manage(h.ContentStats)).Methods(http.MethodGet)
	admin.HandleFunc("/announcements", manage(h.ListAllAnnouncements)).Methods(http.MethodGet)
	admin.HandleFunc("/announcements", manage(h.CreateAnnouncement)).Methods(http.MethodPost)
	admin.HandleFunc("/announcements/{id}", manage(h.UpdateAnnouncement)).Methods(http.MethodPut)
	admin.HandleFunc("/announcements/{id}/publish", manage(h.PublishAnnouncement)).Methods(http.MethodPut)
	admin.HandleFunc("/announcements/{id}", manage(h.DeleteAnnouncement)).Methods(http.MethodDelete)
	admin.HandleFunc("/events", manage(h.ListAllEvents)).Methods(http.MethodGet)
	admin.HandleFunc("/events", manage(h.CreateEvent)).Methods(http.MethodPost)
	admin.HandleFunc("/events/{id}", manage(h.UpdateEvent)).Methods(http.MethodPut)
	admin.HandleFunc("/events/{id}/publish", manage(h.PublishEvent)).Methods(http.MethodPut)
	admin.HandleFunc("/events/{id}", manage(h.DeleteEvent)).Methods(http.MethodDelete)
	admin.HandleFunc("/gallery", manage(h.ListAllGallery)).Methods(http.MethodGet)
	admin.HandleFunc("/gallery", manage(h.UploadGalleryImage)).Methods(http.MethodPost)
	admin.HandleFunc("/gallery/{id}/publish", manage(h.PublishGalleryImage)).Methods(http.MethodPut)
	admin.HandleFunc("/gallery/{id}", manage(h.DeleteGalleryImage)).Methods(http.MethodDelete)
	admin.HandleFunc("/music", manage(h.GetMusic)).Methods(http.MethodGet)
	admin.HandleFunc("/music", manage(h.UploadMusic)).Methods(http.MethodPost)
	admin.HandleFunc("/music/{id}", manage(h.UpdateMusic)).Methods(http.MethodPut)
	admin.HandleFunc("/music/{id}", manage(h.DeleteMusic)).Methods(http.MethodDelete)
	admin.HandleFunc("/videos", manage(h.GetVideos)).Methods(http.MethodGet)
	admin.HandleFunc("/videos", manage(h.CreateVideo)).Methods(http.MethodPost)
	admin.HandleFunc("/videos/{id}", manage(h.UpdateVideo)).Methods(http.MethodPut)
	admin.HandleFunc("/videos/{id}/poster", manage(h.UpdateVideoPoster)).Methods(http.MethodPut)
	admin.HandleFunc("/videos/{id}", manage(h.DeleteVideo)).Methods(http.MethodDelete)

	return corsMiddleware(router)
}

// Healthz pings the database.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := h.db.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		logger.Error("health check failed", logger.ErrorField(err))
		writeFailure(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Build wires the services over the given stores. A nil media store disables gallery and music uploads.
func Build(cfg *config.Config, gdb *gorm.DB, contentCache *cache.ContentCache, media content.MediaStore) (*Handler, error) {
	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	policy := auth.NewRolePolicy()

	renderer := &audition.DocumentRenderer{
		OrgName: cfg.OrgName,
		SiteURL: cfg.SiteURL,
		Logo:    audition.FileLogo(cfg.LogoPath),
	}
	auditions := audition.NewService(repository.NewGormAuditionRepository(gdb), policy, renderer, cfg.AuditionFetchCap)
	users := repository.NewGormUserRepository(gdb)
	accounts := account.NewService(
		users,
		repository.NewGormPasswordResetRepository(gdb),
		tokens,
		policy,
		cfg.ExposeResetCode,
	)
	if media == nil {
		media = unavailableStore{}
	}
	contents := content.NewService(
		content.Repositories{
			News:    repository.NewAnnouncementRepository(gdb),
			Events:  repository.NewEventRepository(gdb),
			Gallery: repository.NewGalleryRepository(gdb),
			Music:   repository.NewMusicRepository(gdb),
			Videos:  repository.NewVideoRepository(gdb),
		},
		media,
		contentCache,
		policy,
		content.Limits{
			Content:        cfg.ContentFetchCap,
			Gallery:        cfg.GalleryFetchCap,
			MaxUploadBytes: cfg.MaxUploadBytes,
			MaxAudioBytes:  cfg.MaxAudioBytes,
		},
	)
	choristers := chorister.NewService(users, repository.NewChoristerRepository(gdb), policy, chorister.DefaultLimits)

	return NewHandler(Deps{
		Config:     cfg,
		DB:         gdb,
		Tokens:     tokens,
		Policy:     policy,
		Auditions:  auditions,
		Accounts:   accounts,
		Content:    contents,
		Choristers: choristers,
	}), nil
}

// Start connects the stores, serves HTTP and shuts down gracefully on SIGINT/SIGTERM.
func Start(cfg *config.Config) error {
	gdb, err := db.ConnectGormDB(cfg)
	if err != nil {
		return err
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrate(gdb); err != nil {
		return err
	}

	// Redis 和 MinIO 不可用时降级运行
	var contentCache *cache.ContentCache
	if client, err := cache.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis unavailable, serving content without cache", logger.ErrorField(err))
		contentCache = cache.NewContentCache(nil, cache.DefaultContentTTL)
	} else {
		defer cache.CloseRedis()
		contentCache = cache.NewContentCache(client, cache.DefaultContentTTL)
	}

	var media content.MediaStore
	if store, err := storage.InitMinio(context.Background(), cfg); err != nil {
		logger.Warn("MinIO unavailable, media uploads disabled", logger.ErrorField(err))
	} else {
		media = store
	}

	handler, err := Build(cfg, gdb, contentCache, media)
	if err != nil {
		return err
	}

	// 设置服务器超时
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// 等待中断信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-stop:
	}

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
