// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/go-pool/pool-bank/internal/accountdelivery"
	"github.com/go-pool/pool-bank/internal/accountrepo"
	"github.com/go-pool/pool-bank/internal/accountservice"
	"github.com/go-pool/pool-bank/internal/carddelivery"
	"github.com/go-pool/pool-bank/internal/cardrepo"
	"github.com/go-pool/pool-bank/internal/cardservice"
	"github.com/go-pool/pool-bank/internal/ledgerdelivery"
	"github.com/go-pool/pool-bank/internal/ledgerrepo"
	"github.com/go-pool/pool-bank/internal/ledgerservice"
	"github.com/go-pool/pool-bank/internal/memberdelivery"
	"github.com/go-pool/pool-bank/internal/memberrepo"
	"github.com/go-pool/pool-bank/internal/memberservice"
	"github.com/go-pool/pool-bank/internal/middleware"
	"github.com/go-pool/pool-bank/internal/sessiondelivery"
	"github.com/go-pool/pool-bank/internal/sessionrepo"
	"github.com/go-pool/pool-bank/internal/sessionservice"
	"github.com/go-pool/pool-bank/internal/userdelivery"
	"github.com/go-pool/pool-bank/internal/userrepo"
	"github.com/go-pool/pool-bank/internal/userservice"
	"github.com/go-pool/pool-bank/pkg/configpkg"
	"github.com/go-pool/pool-bank/pkg/tokenpkg"
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
	userRepo := userrepo.NewRepoPGS(conn)
	accountRepo := accountrepo.NewRepoPGS(conn)
	ledgerRepo := ledgerrepo.NewRepoPGS(conn)
	memberRepo := memberrepo.NewRepoPGS(conn)
	cardRepo := cardrepo.NewRepoPGS(conn)
	sessionRepo := sessionrepo.NewRepoPGS(conn)

	tokenMaker, err := tokenpkg.NewPasetoMaker(config.TokenSymmetricKey)
	if err != nil {
		return nil, errors.New("cannot create token maker")
	}

	userService := userservice.New(userRepo)
	accountService := accountservice.New(accountRepo, memberRepo)
	ledgerService := ledgerservice.New(ledgerRepo, accountRepo)
	memberService := memberservice.New(memberRepo, userRepo)
	cardService := cardservice.New(cardRepo)
	sessionService, err := sessionservice.New(sessionRepo, config, tokenMaker)

	if err != nil {
		return nil, errors.New("cannot initialize session service")
	}

	userHandler := userdelivery.NewHandler(userService, sessionService)
	accountHandler := accountdelivery.NewHandler(accountService)
	ledgerHandler := ledgerdelivery.NewHandler(ledgerService)
	memberHandler := memberdelivery.NewHandler(memberService)
	cardHandler := carddelivery.NewHandler(cardService)
	sessionHandler := sessiondelivery.NewHandler(sessionService)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.POST("/users", userHandler.Create)
	engine.POST("/users/login", userHandler.Login)
	engine.POST("/sessions", sessionHandler.RenewAccessToken)

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRoutes := engine.Group("/").Use(middleware.AuthMiddleware(sessionService.TokenMaker))

	authRoutes.POST("/accounts", accountHandler.Create)
	authRoutes.GET("/accounts", accountHandler.List)
	authRoutes.GET("/accounts/:id", accountHandler.Get)
	authRoutes.PATCH("/accounts/:id/name", accountHandler.Rename)
	authRoutes.DELETE("/accounts/:id", accountHandler.Delete)

	authRoutes.POST("/incomes", ledgerHandler.Income)
	authRoutes.POST("/expenses", ledgerHandler.Expense)
	authRoutes.POST("/card-expenses", ledgerHandler.CardExpense)
	authRoutes.POST("/transfers", ledgerHandler.Transfer)
	authRoutes.GET("/ledger", ledgerHandler.Search)

	authRoutes.GET("/accounts/:id/members", memberHandler.List)
	authRoutes.POST("/accounts/:id/members", memberHandler.Add)
	authRoutes.PATCH("/accounts/:id/members/:userID/role", memberHandler.ChangeRole)
	authRoutes.DELETE("/accounts/:id/members/:userID", memberHandler.Remove)

	authRoutes.POST("/cards", cardHandler.Register)
	authRoutes.GET("/accounts/:id/cards", cardHandler.ListByAccount)
	authRoutes.PATCH("/cards/:id/status", cardHandler.ChangeStatus)
	authRoutes.DELETE("/cards/:id", cardHandler.Delete)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("accountkind", accountdelivery.ValidAccountKind); err != nil {
			return nil, errors.New("cannot register account kind validator")
		}

		if err := v.RegisterValidation("role", memberdelivery.ValidRole); err != nil {
			return nil, errors.New("cannot register role validator")
		}

		if err := v.RegisterValidation("cardstatus", carddelivery.ValidCardStatus); err != nil {
			return nil, errors.New("cannot register card status validator")
		}
	}

	server := &Server{
		DB:     conn,
		Engine: engine,
		Config: config,
	}

	return server, nil
}
