package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/granrifa/rifa-api/docs"
	v1 "github.com/granrifa/rifa-api/internal/api/handler/v1"
	"github.com/granrifa/rifa-api/internal/api/middleware"
	"github.com/granrifa/rifa-api/internal/config"
	"github.com/granrifa/rifa-api/internal/repository"
	"github.com/granrifa/rifa-api/internal/repository/dao"
	"github.com/granrifa/rifa-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

func NewServer(conf *config.AppConfig, db *gorm.DB) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	authHandler := s.initAuthHandler()
	ticketHandler := s.initTicketHandler(db)
	s.MountHandlers(authHandler, ticketHandler)

	return s
}

func (s *Server) initAuthHandler() *v1.AuthHandler {
	svc := service.NewAuthService(s.Config.API)
	handler := v1.NewAuthHandler(s.Config.API, svc)

	return handler
}

func (s *Server) initTicketHandler(db *gorm.DB) *v1.TicketHandler {
	ticketDAO := dao.NewTicketDAO(db)
	repo := repository.NewTicketRepository(ticketDAO)
	svc := service.NewTicketService(repo, s.Config.Raffle.InsertBatchSize)
	handler := v1.NewTicketHandler(svc, s.Config.Raffle.ID, s.Config.Raffle.TotalTickets)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(authHandler *v1.AuthHandler, ticketHandler *v1.TicketHandler) {
	const basePath = "/api/v1"

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/login", authHandler.HandleLogin)
		auth.POST("/auth/logout", authHandler.HandleLogout)
	}

	tickets := s.Router.Group(basePath)
	{
		tickets.GET("/tickets", ticketHandler.HandleListTickets)
		tickets.GET("/tickets/all", ticketHandler.HandleListAllTickets)
	}

	admin := s.Router.Group(basePath+"/admin", middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifySession())
	{
		admin.GET("/tickets/sold", ticketHandler.HandleListSoldTickets)
		admin.GET("/tickets/stats", ticketHandler.HandleGetStats)
		admin.POST("/tickets/sell", ticketHandler.HandleSellTickets)
		admin.POST("/tickets/revert", ticketHandler.HandleRevertSale)
		admin.PATCH("/tickets/:number/status", ticketHandler.HandleUpdateStatus)
		admin.POST("/tickets/initialize", ticketHandler.HandleInitializeTickets)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Gran Rifa API"
	docs.SwaggerInfo.Description = "Raffle ticket sales administration API."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
