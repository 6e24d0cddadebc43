package main

import (
	"fmt"
	"log"
	"os"

	_ "smartcal/docs"
	"smartcal/internal/auth"
	"smartcal/internal/handlers"
	"smartcal/internal/models"
	"smartcal/internal/ratelimit"
	"smartcal/internal/storage"
	"smartcal/internal/tasks"
	"smartcal/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @Title						SmartCal — бэкенд онлайн-записи на встречи
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	key := os.Getenv("ENV_CHEK")
	if key == "" {
		fmt.Println("Подключение к .env")
		err := godotenv.Load()
		if err != nil {
			log.Fatal("Ошибка получения .env")
		}
	}

	storage.ConnectDatabase()

	if err := storage.DB.AutoMigrate(
		&models.User{}, &models.Calendar{}, &models.Agenda{},
		&models.AvailabilitySlot{}, &models.Meeting{},
		&models.Team{}, &models.TeamMember{},
	); err != nil {
		log.Fatal("Ошибка при миграции... ", err.Error())
	}

	storage.InitRedis()

	tasks.InitScheduler()

	go ws.HubInstance.Run()

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))
	r.Use(ratelimit.Middleware())

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	users := r.Group("/users")
	{
		users.POST("/register", handlers.Register)
		users.POST("/login", handlers.Login)
		users.POST("/password-reset-request", handlers.RequestPasswordReset)
		users.POST("/password-reset", handlers.ConfirmPasswordReset)

		me := users.Group("", auth.AuthMiddleware())
		{
			me.GET("/me", handlers.GetMe)
			me.PUT("/me", handlers.UpdateMe)
			me.PATCH("/oauth2-token", handlers.StoreOAuth2Token)
		}

		admin := users.Group("/admin", auth.AuthMiddleware(), auth.RequireSuperadmin())
		{
			admin.POST("/create_user", handlers.AdminCreateUser)
			admin.GET("/users", handlers.AdminListUsers)
			admin.PUT("/users/:id", handlers.AdminUpdateUser)
		}
	}

	availability := r.Group("/availability", auth.AuthMiddleware())
	{
		availability.POST("/slots", handlers.AddAvailabilitySlot)
		availability.GET("/slots", handlers.ListAvailabilitySlots)
		availability.PUT("/slots/:id", handlers.UpdateAvailabilitySlot)
		availability.DELETE("/slots/:id", handlers.DeleteAvailabilitySlot)
	}

	calendars := r.Group("/calendars", auth.AuthMiddleware())
	{
		calendars.POST("", handlers.CreateCalendar)
		calendars.GET("", handlers.ListCalendars)
		calendars.PUT("/:id", handlers.UpdateCalendar)
	}

	agendas := r.Group("/agendas")
	{
		public := agendas.Group("/public")
		{
			public.GET("/:alias_name", handlers.GetPublicAgenda)
			public.GET("/:alias_name/slots", handlers.GetPublicSlots)
			public.POST("/:alias_name/book", handlers.BookMeeting)
			public.GET("/:alias_name/ws", ws.AgendaWebSocketHandler)
		}

		owned := agendas.Group("", auth.AuthMiddleware())
		{
			owned.POST("", handlers.CreateAgenda)
			owned.GET("", handlers.ListAgendas)
			owned.PUT("/:id", handlers.UpdateAgenda)
			owned.GET("/:id/meetings", handlers.ListAgendaMeetings)
			owned.DELETE("/meetings/:id", handlers.CancelMeeting)
		}
	}

	teams := r.Group("/teams", auth.AuthMiddleware())
	{
		teams.POST("", handlers.CreateTeam)
		teams.PUT("/:id", handlers.UpdateTeam)
		teams.POST("/meetings", handlers.CreateTeamMeeting)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Ошибка запуска сервера...", err.Error())
	}
}
