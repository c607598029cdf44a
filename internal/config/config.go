package config

type Config interface {
	EnvConfig
	StorageConfig
	LoginConfig
	SessionConfig
}

type mainConfig struct {
	EnvVars
	Storage
	Login
	Session
}

func New() Config {
	return mainConfig{}
}
