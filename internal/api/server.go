package api

import (
	"servebeer/internal/admission"
	"servebeer/internal/config"
	"servebeer/internal/database"
	"servebeer/internal/ipfs"
	"servebeer/internal/mail"
	"servebeer/internal/status"
	"servebeer/internal/websocket"
)

type Server struct {
	config     *config.Config
	store      *database.PostgresStore
	ipfs       *ipfs.Client
	admission  *admission.Controller
	aggregator *status.Aggregator
	mailer     mail.Mailer
	wsHub      *websocket.Hub
}

func NewServer(
	cfg *config.Config,
	store *database.PostgresStore,
	ipfsClient *ipfs.Client,
	controller *admission.Controller,
	aggregator *status.Aggregator,
	mailer mail.Mailer,
	wsHub *websocket.Hub,
) *Server {
	return &Server{
		config:     cfg,
		store:      store,
		ipfs:       ipfsClient,
		admission:  controller,
		aggregator: aggregator,
		mailer:     mailer,
		wsHub:      wsHub,
	}
}
