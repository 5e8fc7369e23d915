package server

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-co-op/gocron"
	"github.com/gorilla/mux"
	"github.com/pastoralsj/registro/server/auth"
	"github.com/pastoralsj/registro/server/auth/key"
	"github.com/pastoralsj/registro/server/backup"
	"github.com/pastoralsj/registro/server/cep"
	"github.com/pastoralsj/registro/server/cron"
	"github.com/pastoralsj/registro/server/diaglog"
	"github.com/pastoralsj/registro/server/logger"
	"github.com/pastoralsj/registro/server/store"
	"github.com/pastoralsj/registro/server/store/restdb"
	"github.com/pastoralsj/registro/server/store/sqlitedb"
	"github.com/spf13/viper"
)

var (
	logg = logger.NewLogger()

	authKeyPair   *key.KeyPair
	authService   *auth.Service
	registryStore store.Store
	cepClient     *cep.Client
	faultLog      *diaglog.Log
)

// Start wires the configured store backend, the auth service and the
// HTTP listener, schedules registry backups when enabled, and blocks
// until the process is told to stop.
func Start(config *viper.Viper, devMode bool) {
	var err error

	faultLog = diaglog.New(logg)

	authKeyPair, err = key.NewKeyPairFromRSAPrivateKeyPem([]byte(config.GetString("registro.privateKeyPem")))
	fatalOnError(err)

	registryStore, err = newStore(config, devMode)
	fatalOnError(err)

	authService = auth.NewService(registryStore, authKeyPair)
	cepClient = cep.NewClient(config.GetString("cep.baseUrl"))

	scheduler := scheduleBackups(config, devMode)

	port := config.GetInt("registro.listener.port")
	if port == 0 {
		port = 3000
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%v", port),
		Handler: newRouter(),
	}

	go serve(srv)

	sigChannel := make(chan os.Signal, 1)
	signal.Notify(sigChannel, syscall.SIGINT, syscall.SIGTERM)
	<-sigChannel

	cleanup(scheduler, srv)
}

func newRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware, initialContextMiddleware)

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")
	router.HandleFunc("/jwks", jwksHandler).Methods("GET")
	router.HandleFunc("/login", logInHandler).Methods("POST")
	router.HandleFunc("/logout", logOutHandler).Methods("POST")

	// Open registration; also "add new" when a coordinator token rides
	// along on the request.
	router.HandleFunc("/members", createMemberHandler).Methods("POST")

	protectedRouter := router.NewRoute().Subrouter()
	protectedRouter.Use(protectedRouteMiddleware)
	protectedRouter.HandleFunc("/members/{uid}", findMemberHandler).Methods("GET")
	protectedRouter.HandleFunc("/members/{uid}", updateMemberHandler).Methods("PUT")
	protectedRouter.HandleFunc("/members/{uid}/sheet.pdf", memberSheetHandler).Methods("GET")
	protectedRouter.HandleFunc("/cep/{code}", cepLookupHandler).Methods("GET")

	coordinatorRouter := router.NewRoute().Subrouter()
	coordinatorRouter.Use(coordinatorRouteMiddleware)
	coordinatorRouter.HandleFunc("/members", listMembersHandler).Methods("GET")
	coordinatorRouter.HandleFunc("/members/{uid}", deleteMemberHandler).Methods("DELETE")
	coordinatorRouter.HandleFunc("/export/csv", exportCSVHandler).Methods("GET")
	coordinatorRouter.HandleFunc("/report/sectors.png", sectorReportHandler).Methods("GET")
	coordinatorRouter.HandleFunc("/logs/download", downloadLogsHandler).Methods("GET")

	return router
}

func newStore(config *viper.Viper, devMode bool) (store.Store, error) {
	backend := config.GetString("store.backend")

	switch backend {
	case "rest":
		serviceURL := config.GetString("store.rest.url")
		accessKey := config.GetString("store.rest.accessKey")
		if serviceURL == "" || accessKey == "" {
			return nil, fmt.Errorf("store.rest.url and store.rest.accessKey must be set; run 'registro configure'")
		}

		return restdb.NewClient(serviceURL, accessKey, config.GetString("store.rest.table")), nil

	case "sqlite", "":
		return sqlitedb.New(
			config.GetString("store.sqlite.passPhrase"),
			configDirectory(devMode),
			devMode,
		)
	}

	return nil, fmt.Errorf("unknown store backend %q", backend)
}

func scheduleBackups(config *viper.Viper, devMode bool) *gocron.Scheduler {
	if !config.GetBool("google.storage.enableBackup") {
		return nil
	}

	gs, err := backup.NewGStorage(config.GetString("google.applicationCredentials"))
	if err != nil {
		logg.Errorf("backups disabled: %v", err)
		return nil
	}

	snapshotter := backup.NewSnapshotter(
		registryStore,
		gs,
		config.GetString("google.storage.bucket"),
		config.GetString("google.storage.prefix"),
		configDirectory(devMode),
		logg,
	)

	schedule := config.GetString("google.storage.backupSchedule")
	if schedule == "" {
		schedule = "0 3 * * *"
	}

	scheduler := cron.NewCronScheduler(config.GetString("registro.cron.timeZone"))
	scheduler.Cron(schedule).Tag("registry-backup").Do(func() {
		if err := snapshotter.Run(); err != nil {
			faultLog.Append("backup", "%v", err)
		}
	})
	scheduler.StartAsync()

	logg.Infof("Registry backups scheduled: %v", schedule)
	return scheduler
}
