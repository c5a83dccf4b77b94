package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every tunable of the service. It is built once in main
// and handed to the constructors that need it.
type Config struct {
	ListenAddr string

	MongoURI      string
	MongoDatabase string

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3ForcePathStyle  bool

	MaxUploadBytes int64
	SyncListingCap int32
	SignedURLTTL   time.Duration

	RateLimit       int
	RateLimitWindow time.Duration

	JWTSecret string
}

// Load reads a .env file if present, then resolves every setting from the
// environment with sane defaults. Missing credentials are not an error here;
// the adapters that need them fail at construction time instead.
func Load() Config {
	// .env is optional, the environment may already be populated.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("LISTEN_ADDR", ":8007")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/")
	v.SetDefault("MONGO_DATABASE", "gallery")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("S3_FORCE_PATH_STYLE", false)
	v.SetDefault("MAX_UPLOAD_BYTES", int64(10<<20))
	v.SetDefault("SYNC_LISTING_CAP", 500)
	v.SetDefault("SIGNED_URL_TTL", "10m")
	v.SetDefault("RATE_LIMIT", 1000)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")

	return Config{
		ListenAddr: v.GetString("LISTEN_ADDR"),

		MongoURI:      v.GetString("MONGO_URI"),
		MongoDatabase: v.GetString("MONGO_DATABASE"),

		S3Bucket:          v.GetString("BUCKET_NAME"),
		S3Region:          v.GetString("AWS_REGION"),
		S3Endpoint:        v.GetString("S3_ENDPOINT"),
		S3AccessKeyID:     v.GetString("AWS_ACCESS_KEY_ID"),
		S3SecretAccessKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
		S3ForcePathStyle:  v.GetBool("S3_FORCE_PATH_STYLE"),

		MaxUploadBytes: v.GetInt64("MAX_UPLOAD_BYTES"),
		SyncListingCap: v.GetInt32("SYNC_LISTING_CAP"),
		SignedURLTTL:   v.GetDuration("SIGNED_URL_TTL"),

		RateLimit:       v.GetInt("RATE_LIMIT"),
		RateLimitWindow: v.GetDuration("RATE_LIMIT_WINDOW"),

		JWTSecret: v.GetString("JWT_SECRET"),
	}
}
