package config

type TokenStoreType string

const (
	TokenStoreMemory TokenStoreType = "memory"
	TokenStoreFile   TokenStoreType = "file"
	TokenStoreRedis  TokenStoreType = "redis"
)

type StorageConfig interface {
	GetTokenStore() TokenStoreType
	GetTokenKey() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
}

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetTokenStore() TokenStoreType {
	return TokenStoreType(GetEnv("TOKEN_STORE", string(TokenStoreFile)))
}

// GetTokenKey is the redis key, or the file name inside the data folder, holding the token.
func (Storage) GetTokenKey() string {
	return GetEnv("TOKEN_KEY", "token")
}

func (Storage) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Storage) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Storage) GetRedisDB() int {
	return GetEnvInt("REDIS_DB", 0)
}
