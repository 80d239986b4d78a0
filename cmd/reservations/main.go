package main

import (
	"reserva/internal/reservations/guard"
	reservationhandler "reserva/internal/reservations/handler"
	reservationrepo "reserva/internal/reservations/repository"
	reservationservice "reserva/internal/reservations/service"
	"reserva/internal/reservations/validator"
	resourcehandler "reserva/internal/resources/handler"
	resourcerepo "reserva/internal/resources/repository"
	resourceservice "reserva/internal/resources/service"
	"reserva/pkg/app"
	"reserva/pkg/config"
	"reserva/pkg/contracts"
	"reserva/pkg/kafka"
	kafkaconfig "reserva/pkg/kafka/config"
	kafkamiddleware "reserva/pkg/kafka/middleware"

	"github.com/julienschmidt/httprouter"
)

const ServiceName = "reservations"

// apiRoutes mounts every domain handler on the same router.
type apiRoutes struct {
	handlers []contracts.Handler
}

func (r apiRoutes) RegisterRoutes(router *httprouter.Router) {
	for _, h := range r.handlers {
		h.RegisterRoutes(router)
	}
}

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Reservations service")

	resourceRepo := resourcerepo.NewMongoResourceRepository(cfg)
	resourceService := resourceservice.NewResourceService(resourceRepo, cfg)

	reservationService := initReservationService(cfg, resourceRepo)

	httpLog := cfg.Log.WithComponent("http")
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		apiRoutes{handlers: []contracts.Handler{
			resourcehandler.NewResourceHandler(resourceService, httpLog),
			reservationhandler.NewReservationHandler(reservationService, httpLog),
		}},
		resourcehandler.NewHealthHandler(cfg.Client.Mongo, cfg.Log.WithComponent("health")),
	)
	serverApp.Run()
	cfg.GracefulShutdown()
}

func initReservationService(cfg *config.Config, resourceRepo resourcerepo.ResourceRepository) reservationservice.ReservationService {
	reservationRepo := reservationrepo.NewMongoReservationRepository(cfg)
	reservationValidator := validator.NewReservationValidator(cfg.Log)

	guards := []guard.ResourceGuard{guard.NewKeyedMutex()}
	if cfg.LockMode == config.LockModeMongo {
		lockRepo := reservationrepo.NewResourceLockRepository(cfg)
		guards = append(guards, reservationrepo.NewMongoGuard(lockRepo, cfg))
		cfg.Log.Info("Distributed resource guard enabled", "ttl", cfg.LockTTL)
	}

	reservationService := reservationservice.NewReservationService(
		reservationRepo,
		resourceRepo,
		guards,
		reservationValidator,
		initPublisher(cfg),
		cfg,
	)

	cfg.Log.Info("Reservation service initialized", "database", cfg.MongoDatabaseName, "lock_mode", cfg.LockMode)
	return reservationService
}

// initPublisher wires Kafka producers when brokers are configured and falls
// back to a no-op publisher otherwise.
func initPublisher(cfg *config.Config) reservationservice.EventPublisher {
	kcfg := kafkaconfig.Load()
	if kcfg == nil {
		cfg.Log.Info("Kafka brokers not configured, event publishing disabled")
		return reservationservice.NopPublisher{}
	}

	if err := kcfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	events, err := kafka.NewProducer(kcfg, kcfg.EventsTopic, kcfg.DLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create events producer", "error", err)
	}
	events.Use(kafkamiddleware.PublishLogging(cfg.Log))

	alerts, err := kafka.NewProducer(kcfg, kcfg.AlertsTopic, kcfg.DLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create alerts producer", "error", err)
	}
	alerts.Use(kafkamiddleware.PublishLogging(cfg.Log))

	cfg.Log.Info("Kafka publisher initialized",
		"events_topic", kcfg.EventsTopic,
		"alerts_topic", kcfg.AlertsTopic,
	)
	return reservationservice.NewKafkaPublisher(events, alerts, ServiceName)
}
