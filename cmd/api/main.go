package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/skud-attendance/internal/config"
	"github.com/cmlabs-hris/skud-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/skud-attendance/internal/domain/employee"
	appHTTP "github.com/cmlabs-hris/skud-attendance/internal/handler/http"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/cron"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/database"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/email"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/jwt"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/kafka"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/logger"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/metrics"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/mqtt"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/sse"
	"github.com/cmlabs-hris/skud-attendance/internal/repository/memory"
	"github.com/cmlabs-hris/skud-attendance/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/skud-attendance/internal/service/attendance"
	authService "github.com/cmlabs-hris/skud-attendance/internal/service/auth"
	employeeService "github.com/cmlabs-hris/skud-attendance/internal/service/employee"
	reportService "github.com/cmlabs-hris/skud-attendance/internal/service/report"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type stores struct {
	tx         attendance.Transactor
	attendance attendance.AttendanceRepository
	debounce   attendance.DebounceRepository
	employees  employee.EmployeeRepository
	close      func()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(os.Stdout, "skud-attendance", cfg.App.Env, cfg.App.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Publishers
	hub := sse.NewHub()
	publishers := attendance.Publishers{hub}
	if cfg.Kafka.Enabled {
		kafkaPublisher := kafka.NewPublisher(cfg.Kafka, log)
		defer kafkaPublisher.Close()
		publishers = append(publishers, kafkaPublisher)
		log.Info("Kafka event stream enabled", "topic", cfg.Kafka.Topic, "brokers", cfg.Kafka.Brokers)
	}

	var notifier attendance.UnknownCardNotifier
	if cfg.SMTP.Enabled {
		emailNotifier, err := email.NewNotifier(cfg.SMTP, cfg.Attendance.Location, log)
		if err != nil {
			return fmt.Errorf("initializing email notifier: %w", err)
		}
		defer emailNotifier.Close()
		notifier = emailNotifier
	}

	// Services
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	authSvc := authService.NewAuthService(JWTService, cfg.Admin, cfg.Scanner)
	attendanceSvc := attendanceService.NewAttendanceService(
		st.tx,
		st.attendance,
		st.debounce,
		st.employees,
		publishers,
		notifier,
		m,
		log,
		attendanceService.Options{
			Location:       cfg.Attendance.Location,
			MinInterval:    cfg.Attendance.MinInterval,
			DefaultEndTime: cfg.Attendance.DefaultEndTime,
		},
	)
	employeeSvc := employeeService.NewEmployeeService(st.tx, st.employees, log)
	reportSvc := reportService.NewReportService(st.attendance, st.employees, cfg.Attendance.Location, log)

	// Background jobs
	scheduler := cron.NewScheduler(log)
	cron.NewAttendanceJobs(attendanceSvc, cfg.Attendance, log).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.MQTT.Enabled {
		ingestor := mqtt.NewIngestor(cfg.MQTT, attendanceSvc, log)
		if err := ingestor.Start(); err != nil {
			return err
		}
		defer ingestor.Stop()
	}

	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		AllowedOrigins: cfg.App.AllowedOrigins,
		Logger:         log,
		Metrics:        m,
		JWTService:     JWTService,
		ScannerKeys:    authSvc,
	}, appHTTP.Handlers{
		Scan:       appHTTP.NewScanHandler(attendanceSvc, log),
		Auth:       appHTTP.NewAuthHandler(authSvc, log),
		Employee:   appHTTP.NewEmployeeHandler(employeeSvc),
		Attendance: appHTTP.NewAttendanceHandler(attendanceSvc),
		Report:     appHTTP.NewReportHandler(reportSvc),
		Event:      appHTTP.NewEventHandler(JWTService, hub, log),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts end with the process so open event streams return on shutdown
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server running", "addr", server.Addr, "store", cfg.App.StoreDriver, "timezone", cfg.Attendance.Timezone)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("Graceful shutdown timed out", "error", err)
		_ = server.Close()
	}
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (stores, error) {
	switch cfg.App.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn("Using in-memory store, data is lost on restart")
		store := memory.NewStore()
		return stores{
			tx:         store,
			attendance: store.Attendance(),
			debounce:   store.Debounce(),
			employees:  store.Employees(),
			close:      func() {},
		}, nil

	default:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
		if err != nil {
			return stores{}, fmt.Errorf("connecting to database: %w", err)
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return stores{}, fmt.Errorf("applying schema: %w", err)
		}
		return stores{
			tx:         postgresql.NewTransactor(db),
			attendance: postgresql.NewAttendanceRepository(db),
			debounce:   postgresql.NewDebounceRepository(db),
			employees:  postgresql.NewEmployeeRepository(db),
			close:      db.Close,
		}, nil
	}
}
