package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const envPrefix = "MEGREGALO"

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

// FirestoreConfig accepts any of the three credential shapes: a raw
// service-account JSON document, the same document base64 encoded, or the
// discrete project id / client email / private key fields.
type FirestoreConfig struct {
	ServiceAccountJSON   string
	ServiceAccountBase64 string
	ProjectID            string
	ClientEmail          string
	PrivateKey           string
	Collection           string
}

func (c FirestoreConfig) HasCredentials() bool {
	return c.ServiceAccountJSON != "" || c.ServiceAccountBase64 != "" || c.ProjectID != ""
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	Group    string
	Consumer string
}

type StorageConfig struct {
	Endpoint        string
	AccessKey       string
	SecretKey       string
	BucketOriginals string
	BucketVariants  string
	UseSSL          bool
	Region          string
	PublicBaseURL   string
}

func (c StorageConfig) Enabled() bool {
	return c.Endpoint != ""
}

type PhotosConfig struct {
	Backend        string
	MaxUploadBytes int64
}

type SecurityConfig struct {
	AdminSecret   string
	AdminTokenTTL time.Duration
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Firestore        FirestoreConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Photos           PhotosConfig
	Security         SecurityConfig
	AllowCORSOrigins []string
}

type QueueConfig struct {
	ClaimInterval time.Duration
}

type ThumbnailConfig struct {
	Size    uint
	Quality int
}

type LoggingConfig struct {
	Level string
}

type WorkerConfig struct {
	Environment string
	Redis       RedisConfig
	Storage     StorageConfig
	Queues      QueueConfig
	Thumbnail   ThumbnailConfig
	Logging     LoggingConfig
}

type SceneConfig struct {
	Capacity        int
	Grace           time.Duration
	RefreshSchedule string
}

type CascadeConfig struct {
	Environment    string
	APIBaseURL     string
	RequestTimeout time.Duration
	LocalStorePath string
	AdminToken     string
	HTTP           HTTPConfig
	Scene          SceneConfig
	Logging        LoggingConfig
}

func LoadApp() (*AppConfig, error) {
	v := newViper("config")
	setAppDefaults(v)
	bindLegacyEnv(v)

	var cfg AppConfig
	if err := load(v, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadWorker() (*WorkerConfig, error) {
	v := newViper("worker")
	setWorkerDefaults(v)

	var cfg WorkerConfig
	if err := load(v, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadCascade() (*CascadeConfig, error) {
	v := newViper("cascade")
	setCascadeDefaults(v)

	var cfg CascadeConfig
	if err := load(v, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newViper(name string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func load(v *viper.Viper, out any) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("load config file: %w", err)
		}
	}

	if err := v.Unmarshal(out, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// bindLegacyEnv keeps the variable names used by existing deployments
// working next to the prefixed ones.
func bindLegacyEnv(v *viper.Viper) {
	bind := func(key string, names ...string) {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(append([]string{key, prefixed}, names...)...)
	}

	bind("firestore.serviceaccountjson", "FIREBASE_SERVICE_ACCOUNT")
	bind("firestore.serviceaccountbase64", "FIREBASE_SERVICE_ACCOUNT_BASE64")
	bind("firestore.projectid", "FIREBASE_PROJECT_ID")
	bind("firestore.clientemail", "FIREBASE_CLIENT_EMAIL")
	bind("firestore.privatekey", "FIREBASE_PRIVATE_KEY")
	bind("postgres.dsn", "DATABASE_URL")
}

func setHTTPDefaults(v *viper.Viper, port int) {
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", port)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")
}

func setStorageDefaults(v *viper.Viper) {
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("storage.bucketoriginals", "megregalo-originals")
	v.SetDefault("storage.bucketvariants", "megregalo-variants")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.publicbaseurl", "")
}

func setAppDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	setHTTPDefaults(v, 8080)

	v.SetDefault("postgres.maxopen", 10)
	v.SetDefault("postgres.maxidle", 0)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("firestore.collection", "photos")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "photos:ingest")

	setStorageDefaults(v)

	v.SetDefault("photos.backend", "auto")
	v.SetDefault("photos.maxuploadbytes", 10<<20)

	v.SetDefault("security.adminsecret", "")
	v.SetDefault("security.admintokenttl", "720h")

	v.SetDefault("allowcorsorigins", []string{})
}

func setWorkerDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "photos:ingest")
	v.SetDefault("redis.group", "thumbnail-workers")
	v.SetDefault("redis.consumer", "worker-1")

	setStorageDefaults(v)

	v.SetDefault("queues.claiminterval", "10s")

	v.SetDefault("thumbnail.size", 300)
	v.SetDefault("thumbnail.quality", 85)

	v.SetDefault("logging.level", "info")
}

func setCascadeDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("apibaseurl", "http://127.0.0.1:8080")
	v.SetDefault("requesttimeout", "10s")
	v.SetDefault("localstorepath", "cascade.db")
	v.SetDefault("admintoken", "")
	setHTTPDefaults(v, 3000)
	v.SetDefault("http.host", "127.0.0.1")

	v.SetDefault("scene.capacity", 600)
	v.SetDefault("scene.grace", "5s")
	v.SetDefault("scene.refreshschedule", "@every 5s")

	v.SetDefault("logging.level", "info")
}
