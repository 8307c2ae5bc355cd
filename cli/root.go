// Package cli wires the recommendation service's two entry points: the
// HTTP facade (serve) and the one-way graph projector (sync). Both load
// configuration the same way and share the document/graph store
// connections.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Flyns157/API-recommendation/api"
	"github.com/Flyns157/API-recommendation/common"
	"github.com/Flyns157/API-recommendation/config"
	"github.com/Flyns157/API-recommendation/embedding"
	eveHTTP "github.com/Flyns157/API-recommendation/http"
	"github.com/Flyns157/API-recommendation/recommend"
	"github.com/Flyns157/API-recommendation/security"
	"github.com/Flyns157/API-recommendation/store"
	"github.com/Flyns157/API-recommendation/sync"
	"github.com/Flyns157/API-recommendation/textenc"
)

const (
	serviceName    = "recommendation"
	serviceVersion = "0.1.0"
)

// cfgFile holds the path to an optional configuration file, which Viper
// reads. config.Load reads only environment variables, so values in this
// file do not reach the service configuration.
var cfgFile string

// RootCmd is the top-level command. It has no behavior of its own beyond
// dispatching to the serve and sync subcommands.
var RootCmd = &cobra.Command{
	Use:   "recommendation",
	Short: "social graph recommendation service",
	Long: `recommendation runs the social graph recommendation service.

It exposes two subcommands:
  serve  starts the HTTP facade (authentication, recommend endpoints; no request rate limit is applied)
  sync   rebuilds the graph projection from the document store and exits`,
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "optional config file (yaml/json/toml)")
	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(syncCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err == nil {
			fmt.Println("using config file:", viper.ConfigFileUsed())
		}
	}
	viper.AutomaticEnv()
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the HTTP recommendation facade",
	RunE:  runServe,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "rebuild the graph projection from the document store",
	RunE:  runSync,
}

func newLogger() *logrus.Entry {
	log := common.NewLogger(common.LoggerConfig{
		Level:   common.LogLevelInfo,
		Format:  "json",
		Service: serviceName,
		Version: serviceVersion,
	})
	return log.WithField("component", serviceName)
}

func connectStores(ctx context.Context, cfg *config.Config, log *logrus.Entry) (*store.Typed, store.GraphStore, error) {
	docStore, err := store.NewMongoDocumentStore(ctx, cfg.Store.MongoURI, cfg.Store.MongoDB, log)
	if err != nil {
		return nil, nil, fmt.Errorf("connect document store: %w", err)
	}
	graphStore, err := store.NewNeo4jGraphStore(ctx, cfg.Store.Neo4jURI, cfg.Store.Neo4jUser, cfg.Store.Neo4jPassword, log)
	if err != nil {
		return nil, nil, fmt.Errorf("connect graph store: %w", err)
	}
	return store.NewTyped(docStore), graphStore, nil
}

// runServe loads configuration, connects both stores, builds the three
// recommenders and the embedding builder, and starts the Echo facade with
// graceful shutdown on SIGINT/SIGTERM.
func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()
	svcLog := common.ServiceLogger(serviceName, serviceVersion)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svcLog.WithFields(map[string]interface{}{
		"mongo_uri":      common.MaskSecret(cfg.Store.MongoURI),
		"neo4j_uri":      cfg.Store.Neo4jURI,
		"jwt_secret_key": common.MaskSecret(cfg.Auth.JWTSecretKey),
	}).Info("configuration loaded")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var docs *store.Typed
	var graph store.GraphStore
	err = common.LogOperation(svcLog, "connect_stores", func() error {
		var connErr error
		docs, graph, connErr = connectStores(ctx, cfg, log)
		return connErr
	})
	if err != nil {
		return err
	}
	defer graph.Close()

	encoder := textenc.NewHashEncoder(cfg.Embedding.ModelID, 256)
	embedder, err := embedding.New(docs, encoder, cfg.Embedding.TTL, embedding.DefaultWeights(), log)
	if err != nil {
		return fmt.Errorf("build embedder: %w", err)
	}

	engines := api.EngineSet{
		JA: recommend.NewJaccardEngine(docs),
		MC: recommend.NewWeightedCountEngine(docs),
		EM: recommend.NewEmbeddingEngine(docs, embedder),
	}

	jwt := security.NewJWTService(cfg.Auth.JWTSecretKey)

	facade := &api.Facade{
		Engines: engines,
		JWT:     jwt,
		NoAuth:  cfg.Auth.NoAuth,
		Status:  api.StatusHealthy,
	}

	serverCfg := eveHTTP.DefaultServerConfig()
	serverCfg.Port = cfg.Server.Port
	e := eveHTTP.NewEchoServer(serverCfg)
	facade.Register(e.Group(""))

	go func() {
		log.Infof("listening on port %d", serverCfg.Port)
		if err := eveHTTP.StartServer(e, serverCfg); err != nil {
			log.WithError(err).Error("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	return eveHTTP.GracefulShutdown(e, serverCfg.ShutdownTimeout)
}

// runSync rebuilds the graph projection once and exits. Exit code 0 on
// success, non-zero if any projector step fails.
func runSync(cmd *cobra.Command, args []string) error {
	log := newLogger()
	svcLog := common.ServiceLogger(serviceName, serviceVersion)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var docs *store.Typed
	var graph store.GraphStore
	err = common.LogOperation(svcLog, "connect_stores", func() error {
		var connErr error
		docs, graph, connErr = connectStores(ctx, cfg, log)
		return connErr
	})
	if err != nil {
		return err
	}
	defer graph.Close()

	projector := sync.New(docs, graph, log)
	if err := common.LogOperation(svcLog, "sync_projection", func() error {
		return projector.Run(ctx)
	}); err != nil {
		return err
	}
	return nil
}
