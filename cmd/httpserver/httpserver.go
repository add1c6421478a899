// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/perit/credit-transfer/internal/accountdelivery"
	"github.com/perit/credit-transfer/internal/accountrepo"
	"github.com/perit/credit-transfer/internal/accountservice"
	"github.com/perit/credit-transfer/internal/middleware"
	"github.com/perit/credit-transfer/internal/transferdelivery"
	"github.com/perit/credit-transfer/internal/transferengine"
	"github.com/perit/credit-transfer/internal/transferrepo"
	"github.com/perit/credit-transfer/internal/transferservice"
	"github.com/perit/credit-transfer/pkg/configpkg"
	"github.com/perit/credit-transfer/pkg/ibanpkg"
)

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB     *sql.DB
	Engine *gin.Engine
	Config configpkg.Config
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// New creates Server type with instantiated domains and routes.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	accountRepo := accountrepo.NewRepoPGS(conn)
	transferRepo := transferrepo.NewRepoPGS(conn)

	accountService := accountservice.New(accountRepo)
	transferEngine := transferengine.New(conn)
	transferService := transferservice.New(transferRepo, transferEngine)

	accountHandler := accountdelivery.NewHandler(accountService)
	transferHandler := transferdelivery.NewHandler(transferService)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.POST("/accounts", accountHandler.Create)
	engine.GET("/accounts/:iban", accountHandler.Get)

	engine.POST("/transfers", transferHandler.Book)
	engine.POST("/transfers/:id/executions", transferHandler.Execute)
	engine.GET("/transfers/:id", transferHandler.Get)
	engine.GET("/transfers", transferHandler.List)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		err := v.RegisterValidation("iban", ibanpkg.ValidIBAN)
		if err != nil {
			return nil, errors.New("cannot register iban validator")
		}
	}

	server := &Server{
		DB:     conn,
		Engine: engine,
		Config: config,
	}

	return server, nil
}
