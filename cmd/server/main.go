package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/workproof/workproof/internal/api"
	"github.com/workproof/workproof/internal/config"
	"github.com/workproof/workproof/internal/engine"
	"github.com/workproof/workproof/internal/exchange"
	"github.com/workproof/workproof/internal/registry"
	"github.com/workproof/workproof/internal/store"
	"github.com/workproof/workproof/internal/worker"
)

func main() {
	cfg := config.Load()

	// Open the content store.
	db, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	s, err := store.New(db)
	if err != nil {
		log.Fatalf("init store: %v", err)
	}

	// Select the model client.
	var modelClient engine.ModelClient
	switch {
	case cfg.UseStubs():
		log.Println("no model API key set, using stub model client")
		modelClient = &engine.StubModelClient{}
	case cfg.LLMProvider == "claude":
		log.Println("using Claude model client")
		modelClient = engine.NewClaudeClient(cfg.AnthropicKey, engine.WithClaudeModel(cfg.AnthropicModel))
	default:
		log.Println("using OpenAI model client")
		modelClient = engine.NewOpenAIClient(cfg.OpenAIKey, engine.WithModel(cfg.OpenAIModel))
	}

	// Select the registry.
	var reg registry.Registry
	if cfg.UseMemoryRegistry() {
		log.Println("REGISTRY_URL not set, using in-process registry")
		reg = registry.NewMemory()
	} else {
		reg = registry.NewClient(cfg.RegistryURL, registry.WithTimeout(cfg.RegistryTimeout))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Register both agent identities.
	producerID, err := reg.Register(ctx, cfg.ProducerDomain)
	if err != nil {
		log.Fatalf("register producer: %v", err)
	}
	validatorID, err := reg.Register(ctx, cfg.ValidatorDomain)
	if err != nil {
		log.Fatalf("register validator: %v", err)
	}
	log.Printf("registered agents: producer=%d (%s) validator=%d (%s)",
		producerID, cfg.ProducerDomain, validatorID, cfg.ValidatorDomain)

	producer := exchange.NewProducer(s, reg, engine.NewModelAnalyst(modelClient), producerID, cfg.ProducerDomain)
	validator := exchange.NewValidator(s, reg, engine.NewModelReviewer(modelClient), validatorID, cfg.ValidatorDomain)

	srv := api.New(producer, validator, s)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Handler(),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		worker.New(reg, validator, validatorID, cfg.WorkerInterval).Start(gCtx)
		return nil
	})

	g.Go(func() error {
		fmt.Printf("workproof server listening on http://localhost:%s\n", cfg.Port)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Println("shutting down...")
		return httpServer.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
