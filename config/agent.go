package config

import "github.com/kinesin-ca/waterfall-go/internal/domain"

// AgentConfig is waterfall-agent's --config document: the resources this
// worker declares to the daemon's fan-out executor, how many tasks it
// will run at once, and where it listens.
type AgentConfig struct {
	Resources   domain.TaskResources `json:"resources" validate:"required"`
	MaxParallel int                  `json:"maxParallel" validate:"required,gt=0"`
	Server      ServerConfig         `json:"server" validate:"required"`
}
