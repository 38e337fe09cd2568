package main

import (
	"log"
	"os"

	"lablend/app"
	"lablend/config"
	"lablend/jobs"
	"lablend/routes"
)

func main() {
	config.LoadEnv()

	application := app.MustNew()
	defer application.Close()

	r := application.Router

	// Health
	r.GET("/healthz", func(c *app.Ctx) { c.JSON(200, app.H{"ok": true}) })

	srv := routes.RegisterRoutes(r, application)

	// periodic overdue sweep
	scheduler := jobs.NewSweepScheduler(srv.Sweep, application.RDB, application.Config.SweepInterval)
	scheduler.Start()
	defer scheduler.Stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	log.Printf("listening on :%s", port)
	_ = r.Run(":" + port)
}
