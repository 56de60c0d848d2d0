package config

// ServerConfig configures the management HTTP listener.
type ServerConfig struct {
	IP   string `json:"ip" validate:"required"`
	Port uint16 `json:"port" validate:"required"`
}

// StorageConfig selects and configures the Storage backend. Grounded on
// original_source/src/bin/wfd/main.rs's tagged StorageConfig enum
// (Memory|Redis).
type StorageConfig struct {
	Type   string `json:"type" validate:"required,oneof=memory redis"`
	URL    string `json:"url,omitempty"`
	Prefix string `json:"prefix,omitempty"`
}

// AgentTargetConfig names one remote agent worker the fan-out executor may
// dispatch to.
type AgentTargetConfig struct {
	BaseURL string `json:"baseUrl" validate:"required,url"`
}

// ExecutorConfig selects and configures the Executor backend. Grounded on
// original_source/src/bin/wfd/main.rs's tagged ExecutorConfig enum
// (Local|Agent).
type ExecutorConfig struct {
	Type       string              `json:"type" validate:"required,oneof=local agent"`
	Workers    int                 `json:"workers,omitempty"`
	Targets    []AgentTargetConfig `json:"targets,omitempty"`
	MetricsTag string              `json:"metricsTag,omitempty"`
}

// SystemConfig is the top-level --config document: how to run a waterfalld
// daemon against a particular World.
type SystemConfig struct {
	Storage  StorageConfig  `json:"storage" validate:"required"`
	Executor ExecutorConfig `json:"executor" validate:"required"`
	Server   ServerConfig   `json:"server" validate:"required"`
}
