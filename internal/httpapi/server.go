package httpapi

import (
	"log"
	"net/http"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/flightpath-dev/mavgcs"
)

// Server is the ambient HTTP demo surface around a Vehicle, adapted
// from the teacher's internal/server.Server: a mux wrapped in
// CORS+Recovery middleware, served over h2c.
type Server struct {
	vehicle mavgcs.Vehicle
	addr    string
	origins []string
	mux     *http.ServeMux
	logger  *log.Logger
}

// New builds a Server serving snapshots of vehicle over addr.
func New(vehicle mavgcs.Vehicle, addr string, corsOrigins []string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		vehicle: vehicle,
		addr:    addr,
		origins: corsOrigins,
		mux:     http.NewServeMux(),
		logger:  logger,
	}
	s.mux.Handle("/status", StatusHandler(vehicle))
	s.mux.Handle("/mission", MissionHandler(vehicle))
	return s
}

func (s *Server) buildHandler() http.Handler {
	handler := http.Handler(s.mux)
	handler = CORS(s.origins)(handler)
	handler = Recovery(s.logger)(handler)
	return h2c.NewHandler(handler, &http2.Server{})
}

// Start serves until the process exits or ListenAndServe fails.
func (s *Server) Start() error {
	s.logger.Printf("mavgcs-status listening on %s", s.addr)
	return http.ListenAndServe(s.addr, s.buildHandler())
}
