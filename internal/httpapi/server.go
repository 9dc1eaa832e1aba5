package httpapi

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/trip-sharing/internal/chats"
	"github.com/example/trip-sharing/internal/config"
	"github.com/example/trip-sharing/internal/dispatch"
	"github.com/example/trip-sharing/internal/geo"
	"github.com/example/trip-sharing/internal/ingest"
	"github.com/example/trip-sharing/internal/match"
	"github.com/example/trip-sharing/internal/places"
	"github.com/example/trip-sharing/internal/search"
	"github.com/example/trip-sharing/internal/trips"
	"github.com/example/trip-sharing/internal/users"
	"github.com/example/trip-sharing/internal/weather"
)

type Server struct {
	Geo      geo.Geo
	Trips    trips.Store
	Chats    chats.Store
	Search   *search.Service
	Workflow *match.Workflow
	Notices  *dispatch.Queue
	Kafka    ingest.Publisher
	WSReg    *dispatch.WSRegistry
	Places   *places.Client
	Weather  *weather.Client

	logger *slog.Logger
	mux    *mux.Router
}

// Deps are the explicit collaborators; tests swap in fakes here.
type Deps struct {
	Geo       geo.Geo
	Trips     trips.Store
	Chats     chats.Store
	Directory users.Directory
	Kafka     ingest.Publisher
	Places    *places.Client
	Weather   *weather.Client
}

func NewServer(cfg config.ServerConfig, logger *slog.Logger, d Deps) *Server {
	wsreg := dispatch.NewWSRegistry()
	notifier := &dispatch.Notifier{
		WS:        wsreg,
		Push:      dispatch.NewExpoDispatcher(cfg.PushEndpoint),
		Directory: d.Directory,
		Logger:    logger,
	}
	queue := dispatch.NewQueue(notifier, cfg.DispatchQueueSize, logger)

	s := &Server{
		Geo:   d.Geo,
		Trips: d.Trips,
		Chats: d.Chats,
		Search: &search.Service{
			Geo:             d.Geo,
			Directory:       d.Directory,
			Logger:          logger,
			DefaultRadiusKm: cfg.SearchRadiusKm,
			DestRadiusKm:    cfg.DestRadiusKm,
			DefaultLimit:    cfg.SearchLimit,
			FetchLimit:      cfg.SearchFetchLimit,
		},
		Workflow: &match.Workflow{
			Trips:     d.Trips,
			Chats:     d.Chats,
			Notices:   queue,
			Directory: d.Directory,
			Logger:    logger,
		},
		Notices: queue,
		Kafka:   d.Kafka,
		WSReg:   wsreg,
		Places:  d.Places,
		Weather: d.Weather,
		logger:  logger,
		mux:     mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

// NewServerFromConfig wires production collaborators: Redis geo index
// and Postgres stores when configured, in-memory fallbacks otherwise.
func NewServerFromConfig(cfg config.ServerConfig, logger *slog.Logger) (*Server, error) {
	var d Deps

	if cfg.RedisAddr != "" {
		d.Geo = geo.NewRedisGeo(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisGeoKey)
	} else {
		d.Geo = geo.NewIndex()
	}

	if cfg.PGDSN != "" {
		ts, err := trips.NewPostgresStore(cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		d.Trips = ts
		d.Chats = chats.NewPostgresStore(ts.DB())
		d.Directory = users.NewPostgresDirectory(ts.DB())
	} else {
		d.Trips = trips.NewMemoryStore()
		d.Chats = chats.NewMemoryStore()
		d.Directory = users.NewMemoryDirectory()
	}
	d.Directory = users.NewCachedDirectory(d.Directory, cfg.ProfileCacheTTL)

	if len(cfg.KafkaBrokers) > 0 {
		d.Kafka = ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	d.Places = places.NewClient(cfg.PlacesEndpoint, cfg.PlacesAPIKey, logger)
	d.Weather = weather.NewClient(cfg.WeatherEndpoint, cfg.WeatherAPIKey)

	return NewServer(cfg, logger, d), nil
}

// DB exposes the postgres handle when trips are postgres-backed, for
// migrations in main.
func DB(s trips.Store) *sql.DB {
	if ps, ok := s.(*trips.PostgresStore); ok {
		return ps.DB()
	}
	return nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/v1/trips", s.handleCreateTrip).Methods("POST")
	s.mux.HandleFunc("/api/v1/trips", s.handleListTrips).Methods("GET")
	s.mux.HandleFunc("/api/v1/trips/{trip_id}", s.handleGetTrip).Methods("GET")
	s.mux.HandleFunc("/api/v1/trips/{trip_id}/status", s.handleUpdateStatus).Methods("POST")
	s.mux.HandleFunc("/api/v1/trips/{trip_id}/requests", s.handleSubmitRequest).Methods("POST")
	s.mux.HandleFunc("/api/v1/trips/{trip_id}/requests/{requester_id}/respond", s.handleRespond).Methods("POST")
	s.mux.HandleFunc("/api/v1/requests", s.handleListRequests).Methods("GET")
	s.mux.HandleFunc("/api/v1/search/nearby", s.handleSearchNearby).Methods("POST")
	s.mux.HandleFunc("/api/v1/chats/{chat_id}", s.handleGetChat).Methods("GET")
	s.mux.HandleFunc("/api/v1/places/autocomplete", s.handleAutocomplete).Methods("GET")
	s.mux.HandleFunc("/api/v1/places/details", s.handlePlaceDetails).Methods("GET")
	s.mux.HandleFunc("/api/v1/places/reverse", s.handleReverseGeocode).Methods("GET")
	s.mux.HandleFunc("/api/v1/weather", s.handleWeather).Methods("GET")
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/ws/{user_id}", s.handleWS)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

// Close drains the dispatch queue.
func (s *Server) Close() {
	if s.Notices != nil {
		s.Notices.Close()
	}
}
