// The consumer binary drains the email queue: it renders each queued
// message's template and delivers it over SMTP. It runs separately from the
// API server so mail delivery hiccups never block request handling.
package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/toshahriar/documenter/internal/config"
	"github.com/toshahriar/documenter/internal/mailer"
	"github.com/toshahriar/documenter/internal/queue"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	m, err := mailer.New(config.LoadMailer())
	if err != nil {
		log.Fatalf("mailer: %v", err)
	}

	log.Printf("consuming queue %q", cfg.EmailQueue)
	if err := queue.Consume(cfg.RabbitURL, cfg.EmailQueue, m.Send); err != nil {
		log.Fatalf("consumer: %v", err)
	}
}
