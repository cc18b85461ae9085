package config

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/clubnft/clubd/internal/core/application"
	"github.com/clubnft/clubd/internal/core/domain"
	"github.com/clubnft/clubd/internal/core/ports"
	"github.com/clubnft/clubd/internal/infrastructure/alertsmanager"
	gcsstore "github.com/clubnft/clubd/internal/infrastructure/content-store/gcs"
	localstore "github.com/clubnft/clubd/internal/infrastructure/content-store/local"
	pinatastore "github.com/clubnft/clubd/internal/infrastructure/content-store/pinata"
	"github.com/clubnft/clubd/internal/infrastructure/db"
	inmemorylivestore "github.com/clubnft/clubd/internal/infrastructure/live-store/inmemory"
	redislivestore "github.com/clubnft/clubd/internal/infrastructure/live-store/redis"
	localoracle "github.com/clubnft/clubd/internal/infrastructure/oracle/local"
	remoteoracle "github.com/clubnft/clubd/internal/infrastructure/oracle/remote"
	timescheduler "github.com/clubnft/clubd/internal/infrastructure/scheduler/gocron"
	"github.com/dgraph-io/badger/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

const oracleKeyFile = "oracle.key"

var (
	supportedEventDbs = supportedType{
		"badger":   {},
		"postgres": {},
	}
	supportedDbs = supportedType{
		"badger":   {},
		"sqlite":   {},
		"postgres": {},
	}
	supportedSchedulers = supportedType{
		"gocron": {},
	}
	supportedLiveStores = supportedType{
		"inmemory": {},
		"redis":    {},
	}
	supportedOracles = supportedType{
		"local":  {},
		"remote": {},
	}
	supportedContentStores = supportedType{
		"local":  {},
		"pinata": {},
		"gcs":    {},
	}

	// DefaultTokenUris are the metadata records of the four club images
	// already published on IPFS.
	DefaultTokenUris = []string{
		"ipfs://QmbKDdqpUPFDHqg4FX2zDjwUTvYNBm4kKffkzd75syvsDT",
		"ipfs://QmTTWVrSu44dPDCTpsfVamReyX7knubCvM5EUcePwkWyeD",
		"ipfs://QmW2EQs4qxnjNQR5Te6kUf9P7WHB4DAF4yYTSwkEoaM6E1",
		"ipfs://QmWavDYkfu18KtyqygzwVmi5i8JJXcyVPPipycG5vmNoyT",
	}
)

type Config struct {
	Datadir        string
	Port           uint32
	LogLevel       int
	AllowedOrigins []string

	DbType              string
	EventDbType         string
	DbDir               string
	DbUrl               string
	EventDbUrl          string
	EventDbDir          string
	PgAutoCreate        bool
	SchedulerType       string
	LiveStoreType       string
	RedisUrl            string
	RedisTxNumOfRetries int

	MintFee         string
	CategoryWeights string
	TokenUrisFile   string
	UploadAssets    string

	OracleType         string
	OracleKey          string
	OracleKeyHash      string
	OracleSubId        uint64
	OracleConsumer     string
	OracleFulfillDelay int64
	OracleGatewayUrl   string
	OracleCallbackUrl  string
	OracleCoordinator  string

	ContentStoreType   string
	PinataApiUrl       string
	PinataJwt          string
	IpfsGatewayUrl     string
	GcsBucket          string
	GcsCredentialsFile string

	AlertManagerURL string

	repo         ports.RepoManager
	svc          application.Service
	scheduler    ports.SchedulerService
	liveStore    ports.LiveStore
	oracle       ports.RandomnessOracle
	fulfiller    ports.ManualFulfiller
	contentStore ports.ContentStore
	alerts       ports.Alerts
	categories   *domain.CategoryTable
	mintFee      *big.Int
}

func (c *Config) String() string {
	clone := *c
	if clone.OracleKey != "" {
		clone.OracleKey = "••••••"
	}
	if clone.PinataJwt != "" {
		clone.PinataJwt = "••••••"
	}
	clone.DbUrl = maskUrlPassword(clone.DbUrl)
	clone.EventDbUrl = maskUrlPassword(clone.EventDbUrl)
	clone.RedisUrl = maskUrlPassword(clone.RedisUrl)
	json, err := json.MarshalIndent(clone, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(json)
}

func maskUrlPassword(rawUrl string) string {
	u, err := url.Parse(rawUrl)
	if err != nil || u.User == nil {
		return rawUrl
	}
	if _, ok := u.User.Password(); !ok {
		return rawUrl
	}
	u.User = url.UserPassword(u.User.Username(), "xxxxx")
	return u.String()
}

var (
	defaultDatadir             = appDataDir()
	DefaultPort                = 7070
	defaultDbType              = "badger"
	defaultEventDbType         = "badger"
	defaultSchedulerType       = "gocron"
	defaultLiveStoreType       = "inmemory"
	defaultRedisTxNumOfRetries = 10
	defaultLogLevel            = 4
	defaultMintFee             = "10000000000000000" // 0.01 ETH
	defaultCategoryWeights     = "HAJDUK:10,DINAMO:40,RIJEKA:70,OSIJEK:100"
	defaultOracleType          = "local"
	defaultOracleKeyHash       = "0xd89b2bf150e3b9e13446986e571fb9cab24b13cea0a43ea20a6049a85cc807cc"
	defaultOracleSubId         = 1
	defaultOracleConsumer      = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	defaultOracleFulfillDelay  = 0
	defaultContentStoreType    = "local"
	defaultIpfsGatewayUrl      = pinatastore.DefaultGatewayUrl
)

// env returns a list of strings prefixed with `CLUBD_`.
// This is used as a syntax sugar for defining env vars.
func env(values ...string) []string {
	envs := make([]string, len(values))

	for i, value := range values {
		envs[i] = fmt.Sprintf("CLUBD_%s", value)
	}

	return envs
}

var (
	Datadir = &cli.StringFlag{
		Usage: "Directory to store data",
		Name:  "datadir", EnvVars: env("DATADIR"),
		Value: defaultDatadir,
	}

	Port = &cli.UintFlag{
		Usage: "Port to listen on",
		Name:  "port", EnvVars: env("PORT"),
		Value: uint(DefaultPort),
	}

	LogLevel = &cli.IntFlag{
		Usage: "Logging level (0-6, where 6 is trace)",
		Name:  "log-level", EnvVars: env("LOG_LEVEL"),
		Value: defaultLogLevel,
	}

	AllowedOrigins = &cli.StringSliceFlag{
		Usage: "Origins allowed to call the REST api from a browser",
		Name:  "allowed-origin", EnvVars: env("ALLOWED_ORIGINS"),
	}

	DbType = &cli.StringFlag{
		Usage: "Database type (postgres, sqlite, badger)",
		Name:  "db-type", EnvVars: env("DB_TYPE"),
		Value: defaultDbType,
	}

	DbUrl = &cli.StringFlag{
		Usage: "Postgres connection url if CLUBD_DB_TYPE is set to postgres",
		Name:  "pg-db-url", EnvVars: env("PG_DB_URL"),
	}

	EventDbType = &cli.StringFlag{
		Usage: "Event database type (postgres, badger)",
		Name:  "event-db-type", EnvVars: env("EVENT_DB_TYPE"),
		Value: defaultEventDbType,
	}

	EventDbUrl = &cli.StringFlag{
		Usage: "Postgres connection url if CLUBD_EVENT_DB_TYPE is set to postgres",
		Name:  "pg-event-db-url", EnvVars: env("PG_EVENT_DB_URL"),
	}

	PgAutoCreate = &cli.BoolFlag{
		Usage: "Create the postgres databases if they don't exist",
		Name:  "pg-auto-create", EnvVars: env("PG_AUTO_CREATE"),
		Value: true,
	}

	SchedulerType = &cli.StringFlag{
		Usage: "Scheduler type (gocron)",
		Name:  "scheduler-type", EnvVars: env("SCHEDULER_TYPE"),
		Value: defaultSchedulerType,
	}

	LiveStoreType = &cli.StringFlag{
		Usage: "Live store type (redis, inmemory)",
		Name:  "live-store-type", EnvVars: env("LIVE_STORE_TYPE"),
		Value: defaultLiveStoreType,
	}

	RedisUrl = &cli.StringFlag{
		Usage: "Redis db connection url if CLUBD_LIVE_STORE_TYPE is set to redis",
		Name:  "redis-url", EnvVars: env("REDIS_URL"),
	}

	RedisTxNumOfRetries = &cli.IntFlag{
		Usage: "Maximum number of retries for Redis write operations in case of conflicts",
		Name:  "redis-num-of-retries", EnvVars: env("REDIS_NUM_OF_RETRIES"),
		Value: defaultRedisTxNumOfRetries,
	}

	MintFee = &cli.StringFlag{
		Usage: "Fee (in wei) to pay to request a mint, used only to initialize the collection",
		Name:  "mint-fee", EnvVars: env("MINT_FEE"),
		Value: defaultMintFee,
	}

	CategoryWeights = &cli.StringFlag{
		Usage: "Cumulative category bounds in the form NAME:BOUND,NAME:BOUND,... " +
			"the last bound must be 100",
		Name: "category-weights", EnvVars: env("CATEGORY_WEIGHTS"),
		Value: defaultCategoryWeights,
	}

	TokenUrisFile = &cli.StringFlag{
		Usage: "JSON file with the list of metadata references (tokenUris) of the collection",
		Name:  "token-uris-file", EnvVars: env("TOKEN_URIS_FILE"),
	}

	UploadAssets = &cli.StringFlag{
		Usage: "Directory of club images to upload to the content store at startup, " +
			"the resulting metadata references initialize the collection",
		Name: "upload-assets", EnvVars: env("UPLOAD_ASSETS"),
	}

	OracleType = &cli.StringFlag{
		Usage: "Randomness oracle type (local, remote)",
		Name:  "oracle-type", EnvVars: env("ORACLE_TYPE"),
		Value: defaultOracleType,
	}

	OracleKey = &cli.StringFlag{
		Usage: "Hex encoded private key of the local coordinator, " +
			"generated and stored in the datadir if missing",
		Name: "oracle-key", EnvVars: env("ORACLE_KEY"),
	}

	OracleKeyHash = &cli.StringFlag{
		Usage: "Key hash (gas lane) of the local coordinator",
		Name:  "oracle-key-hash", EnvVars: env("ORACLE_KEY_HASH"),
		Value: defaultOracleKeyHash,
	}

	OracleSubId = &cli.Uint64Flag{
		Usage: "Subscription id of the local coordinator",
		Name:  "oracle-sub-id", EnvVars: env("ORACLE_SUB_ID"),
		Value: defaultOracleSubId,
	}

	OracleConsumer = &cli.StringFlag{
		Usage: "Address identifying the collection as consumer of the randomness oracle",
		Name:  "oracle-consumer", EnvVars: env("ORACLE_CONSUMER"),
		Value: defaultOracleConsumer,
	}

	OracleFulfillDelay = &cli.Int64Flag{
		Usage: "Seconds after which the local coordinator fulfills a request on its own, " +
			"0 to fulfill only on demand",
		Name: "oracle-fulfill-delay", EnvVars: env("ORACLE_FULFILL_DELAY"),
		Value: defaultOracleFulfillDelay,
	}

	OracleGatewayUrl = &cli.StringFlag{
		Usage: "Url of the randomness gateway if CLUBD_ORACLE_TYPE is set to remote",
		Name:  "oracle-gateway-url", EnvVars: env("ORACLE_GATEWAY_URL"),
	}

	OracleCallbackUrl = &cli.StringFlag{
		Usage: "Public url of the fulfillment webhook given to the randomness gateway",
		Name:  "oracle-callback-url", EnvVars: env("ORACLE_CALLBACK_URL"),
	}

	OracleCoordinator = &cli.StringFlag{
		Usage: "Address signing the fulfillments of the randomness gateway",
		Name:  "oracle-coordinator", EnvVars: env("ORACLE_COORDINATOR"),
	}

	ContentStoreType = &cli.StringFlag{
		Usage: "Content store type (local, pinata, gcs)",
		Name:  "content-store-type", EnvVars: env("CONTENT_STORE_TYPE"),
		Value: defaultContentStoreType,
	}

	PinataApiUrl = &cli.StringFlag{
		Usage: "Pinata api url",
		Name:  "pinata-api-url", EnvVars: env("PINATA_API_URL"),
		Value: pinatastore.DefaultApiUrl,
	}

	PinataJwt = &cli.StringFlag{
		Usage: "Pinata JWT if CLUBD_CONTENT_STORE_TYPE is set to pinata",
		Name:  "pinata-jwt", EnvVars: env("PINATA_JWT"),
	}

	IpfsGatewayUrl = &cli.StringFlag{
		Usage: "IPFS gateway used to read pinned content and link it in alerts",
		Name:  "ipfs-gateway-url", EnvVars: env("IPFS_GATEWAY_URL"),
		Value: defaultIpfsGatewayUrl,
	}

	GcsBucket = &cli.StringFlag{
		Usage: "Bucket if CLUBD_CONTENT_STORE_TYPE is set to gcs",
		Name:  "gcs-bucket", EnvVars: env("GCS_BUCKET"),
	}

	GcsCredentialsFile = &cli.StringFlag{
		Usage: "Service account file for gcs, default credentials are used if missing",
		Name:  "gcs-credentials-file", EnvVars: env("GCS_CREDENTIALS_FILE"),
	}

	AlertManagerURL = &cli.StringFlag{
		Usage: "AlertManager URL for sending alerts",
		Name:  "alert-manager-url", EnvVars: env("ALERT_MANAGER_URL"),
	}
)

var Flags = []cli.Flag{
	Datadir,
	Port,
	LogLevel,
	AllowedOrigins,
	DbType,
	DbUrl,
	EventDbType,
	EventDbUrl,
	PgAutoCreate,
	SchedulerType,
	LiveStoreType,
	RedisUrl,
	RedisTxNumOfRetries,
	MintFee,
	CategoryWeights,
	TokenUrisFile,
	UploadAssets,
	OracleType,
	OracleKey,
	OracleKeyHash,
	OracleSubId,
	OracleConsumer,
	OracleFulfillDelay,
	OracleGatewayUrl,
	OracleCallbackUrl,
	OracleCoordinator,
	ContentStoreType,
	PinataApiUrl,
	PinataJwt,
	IpfsGatewayUrl,
	GcsBucket,
	GcsCredentialsFile,
	AlertManagerURL,
}

// ContentStoreFlags are the flags needed by commands using only the
// content store.
var ContentStoreFlags = []cli.Flag{
	Datadir,
	LogLevel,
	ContentStoreType,
	PinataApiUrl,
	PinataJwt,
	IpfsGatewayUrl,
	GcsBucket,
	GcsCredentialsFile,
	CategoryWeights,
}

func LoadConfig(c *cli.Context) (*Config, error) {
	if err := initDatadir(c); err != nil {
		return nil, fmt.Errorf("failed to create datadir: %s", err)
	}

	dbPath := filepath.Join(c.String(Datadir.Name), "db")

	var eventDbUrl string
	if c.String(EventDbType.Name) == "postgres" {
		eventDbUrl = c.String(EventDbUrl.Name)
		if eventDbUrl == "" {
			return nil, fmt.Errorf("event db type set to 'postgres' but event db url is missing")
		}
	}

	var dbUrl string
	if c.String(DbType.Name) == "postgres" {
		dbUrl = c.String(DbUrl.Name)
		if dbUrl == "" {
			return nil, fmt.Errorf("db type set to 'postgres' but db url is missing")
		}
	}

	var redisUrl string
	if c.String(LiveStoreType.Name) == "redis" {
		redisUrl = c.String(RedisUrl.Name)
		if redisUrl == "" {
			return nil, fmt.Errorf("live store type set to 'redis' but redis url is missing")
		}
	}

	if c.String(TokenUrisFile.Name) != "" && c.String(UploadAssets.Name) != "" {
		return nil, fmt.Errorf("token uris file and upload assets are mutually exclusive")
	}

	return &Config{
		Datadir:             c.String(Datadir.Name),
		Port:                uint32(c.Uint(Port.Name)),
		LogLevel:            c.Int(LogLevel.Name),
		AllowedOrigins:      c.StringSlice(AllowedOrigins.Name),
		DbType:              c.String(DbType.Name),
		EventDbType:         c.String(EventDbType.Name),
		DbDir:               dbPath,
		DbUrl:               dbUrl,
		EventDbDir:          dbPath,
		EventDbUrl:          eventDbUrl,
		PgAutoCreate:        c.Bool(PgAutoCreate.Name),
		SchedulerType:       c.String(SchedulerType.Name),
		LiveStoreType:       c.String(LiveStoreType.Name),
		RedisUrl:            redisUrl,
		RedisTxNumOfRetries: c.Int(RedisTxNumOfRetries.Name),
		MintFee:             c.String(MintFee.Name),
		CategoryWeights:     c.String(CategoryWeights.Name),
		TokenUrisFile:       c.String(TokenUrisFile.Name),
		UploadAssets:        c.String(UploadAssets.Name),
		OracleType:          c.String(OracleType.Name),
		OracleKey:           c.String(OracleKey.Name),
		OracleKeyHash:       c.String(OracleKeyHash.Name),
		OracleSubId:         c.Uint64(OracleSubId.Name),
		OracleConsumer:      c.String(OracleConsumer.Name),
		OracleFulfillDelay:  c.Int64(OracleFulfillDelay.Name),
		OracleGatewayUrl:    c.String(OracleGatewayUrl.Name),
		OracleCallbackUrl:   c.String(OracleCallbackUrl.Name),
		OracleCoordinator:   c.String(OracleCoordinator.Name),
		ContentStoreType:    c.String(ContentStoreType.Name),
		PinataApiUrl:        c.String(PinataApiUrl.Name),
		PinataJwt:           c.String(PinataJwt.Name),
		IpfsGatewayUrl:      c.String(IpfsGatewayUrl.Name),
		GcsBucket:           c.String(GcsBucket.Name),
		GcsCredentialsFile:  c.String(GcsCredentialsFile.Name),
		AlertManagerURL:     c.String(AlertManagerURL.Name),
	}, nil
}

// LoadContentStoreConfig is LoadConfig for the commands using only the
// content store.
func LoadContentStoreConfig(c *cli.Context) (*Config, error) {
	if err := initDatadir(c); err != nil {
		return nil, fmt.Errorf("failed to create datadir: %s", err)
	}
	return &Config{
		Datadir:            c.String(Datadir.Name),
		LogLevel:           c.Int(LogLevel.Name),
		CategoryWeights:    c.String(CategoryWeights.Name),
		ContentStoreType:   c.String(ContentStoreType.Name),
		PinataApiUrl:       c.String(PinataApiUrl.Name),
		PinataJwt:          c.String(PinataJwt.Name),
		IpfsGatewayUrl:     c.String(IpfsGatewayUrl.Name),
		GcsBucket:          c.String(GcsBucket.Name),
		GcsCredentialsFile: c.String(GcsCredentialsFile.Name),
	}, nil
}

func initDatadir(c *cli.Context) error {
	datadir := c.String(Datadir.Name)
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0o755)
	}
	return nil
}

func appDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".clubd"
	}
	return filepath.Join(home, ".clubd")
}

func (c *Config) Validate() error {
	if !supportedEventDbs.supports(c.EventDbType) {
		return fmt.Errorf(
			"event db type not supported, please select one of: %s",
			supportedEventDbs,
		)
	}
	if !supportedDbs.supports(c.DbType) {
		return fmt.Errorf("db type not supported, please select one of: %s", supportedDbs)
	}
	if !supportedSchedulers.supports(c.SchedulerType) {
		return fmt.Errorf(
			"scheduler type not supported, please select one of: %s",
			supportedSchedulers,
		)
	}
	if !supportedLiveStores.supports(c.LiveStoreType) {
		return fmt.Errorf(
			"live store type not supported, please select one of: %s",
			supportedLiveStores,
		)
	}
	if !supportedOracles.supports(c.OracleType) {
		return fmt.Errorf(
			"oracle type not supported, please select one of: %s", supportedOracles,
		)
	}
	if !supportedContentStores.supports(c.ContentStoreType) {
		return fmt.Errorf(
			"content store type not supported, please select one of: %s",
			supportedContentStores,
		)
	}
	if !common.IsHexAddress(c.OracleConsumer) {
		return fmt.Errorf("invalid oracle consumer address %s", c.OracleConsumer)
	}
	if c.OracleFulfillDelay < 0 {
		return fmt.Errorf("oracle fulfill delay must not be negative")
	}

	mintFee, ok := new(big.Int).SetString(c.MintFee, 10)
	if !ok || mintFee.Sign() < 0 {
		return fmt.Errorf("invalid mint fee %s", c.MintFee)
	}
	c.mintFee = mintFee

	if err := c.categoryTable(); err != nil {
		return err
	}
	if err := c.repoManager(); err != nil {
		return err
	}
	if err := c.liveStoreService(); err != nil {
		return err
	}
	if err := c.schedulerService(); err != nil {
		return err
	}
	if err := c.oracleService(); err != nil {
		return err
	}
	if err := c.contentStoreService(); err != nil {
		return err
	}
	if err := c.alertsService(); err != nil {
		return err
	}
	return nil
}

func (c *Config) AppService() (application.Service, error) {
	if c.svc == nil {
		if err := c.appService(); err != nil {
			return nil, err
		}
	}
	return c.svc, nil
}

func (c *Config) SchedulerService() ports.SchedulerService {
	return c.scheduler
}

// ManualFulfiller is nil unless the oracle is local.
func (c *Config) ManualFulfiller() ports.ManualFulfiller {
	return c.fulfiller
}

func (c *Config) ContentStore() (ports.ContentStore, error) {
	if c.contentStore == nil {
		if !supportedContentStores.supports(c.ContentStoreType) {
			return nil, fmt.Errorf(
				"content store type not supported, please select one of: %s",
				supportedContentStores,
			)
		}
		if err := c.contentStoreService(); err != nil {
			return nil, err
		}
	}
	return c.contentStore, nil
}

func (c *Config) AssemblerService() (application.AssemblerService, error) {
	store, err := c.ContentStore()
	if err != nil {
		return nil, err
	}
	if c.categories == nil {
		if err := c.categoryTable(); err != nil {
			return nil, err
		}
	}
	return application.NewAssemblerService(store, c.categories), nil
}

func (c *Config) categoryTable() error {
	if len(c.CategoryWeights) <= 0 {
		c.categories = domain.DefaultCategoryTable()
		return nil
	}
	categories, err := domain.ParseCategoryTable(domain.Modulus, c.CategoryWeights)
	if err != nil {
		return fmt.Errorf("invalid category weights: %w", err)
	}
	c.categories = categories
	return nil
}

func (c *Config) badgerLogger() badger.Logger {
	if c.LogLevel < int(log.DebugLevel) {
		return nil
	}
	return log.New()
}

func (c *Config) repoManager() error {
	var svc ports.RepoManager
	var err error
	var eventStoreConfig []interface{}
	var dataStoreConfig []interface{}
	logger := c.badgerLogger()

	switch c.EventDbType {
	case "badger":
		eventStoreConfig = []interface{}{c.EventDbDir, logger}
	case "postgres":
		eventStoreConfig = []interface{}{c.EventDbUrl, c.PgAutoCreate}
	default:
		return fmt.Errorf("unknown event db type")
	}

	switch c.DbType {
	case "badger":
		dataStoreConfig = []interface{}{c.DbDir, logger}
	case "sqlite":
		dataStoreConfig = []interface{}{c.DbDir}
	case "postgres":
		dataStoreConfig = []interface{}{c.DbUrl, c.PgAutoCreate}
	default:
		return fmt.Errorf("unknown db type")
	}

	svc, err = db.NewService(db.ServiceConfig{
		EventStoreType:   c.EventDbType,
		DataStoreType:    c.DbType,
		EventStoreConfig: eventStoreConfig,
		DataStoreConfig:  dataStoreConfig,
	})
	if err != nil {
		return err
	}

	c.repo = svc
	return nil
}

func (c *Config) liveStoreService() error {
	var liveStoreSvc ports.LiveStore
	var err error
	switch c.LiveStoreType {
	case "inmemory":
		liveStoreSvc = inmemorylivestore.NewLiveStore()
	case "redis":
		redisOpts, err := redis.ParseURL(c.RedisUrl)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(redisOpts)
		liveStoreSvc = redislivestore.NewLiveStore(rdb, c.RedisTxNumOfRetries)
	default:
		err = fmt.Errorf("unknown liveStore type")
	}

	if err != nil {
		return err
	}

	c.liveStore = liveStoreSvc
	return nil
}

func (c *Config) schedulerService() error {
	var svc ports.SchedulerService
	var err error
	switch c.SchedulerType {
	case "gocron":
		svc = timescheduler.NewScheduler()
	default:
		err = fmt.Errorf("unknown scheduler type")
	}
	if err != nil {
		return err
	}

	c.scheduler = svc
	return nil
}

func (c *Config) oracleService() error {
	switch c.OracleType {
	case "local":
		key, err := c.oracleKey()
		if err != nil {
			return err
		}
		keyHash, err := parseHash(c.OracleKeyHash)
		if err != nil {
			return fmt.Errorf("invalid oracle key hash: %w", err)
		}

		opts := make([]localoracle.Option, 0)
		if c.OracleFulfillDelay > 0 {
			opts = append(opts, localoracle.WithFulfillDelay(c.scheduler, c.OracleFulfillDelay))
		}
		oracle, err := localoracle.NewOracle(key, keyHash, c.OracleSubId, c.liveStore, opts...)
		if err != nil {
			return err
		}
		if err := oracle.AddConsumer(context.Background(), c.OracleConsumer); err != nil {
			return fmt.Errorf("failed to register oracle consumer: %w", err)
		}
		c.oracle = oracle
		c.fulfiller = oracle
	case "remote":
		oracle, err := remoteoracle.NewOracle(
			c.OracleGatewayUrl, c.OracleCallbackUrl, c.OracleCoordinator,
		)
		if err != nil {
			return err
		}
		c.oracle = oracle
	default:
		return fmt.Errorf("unknown oracle type")
	}
	return nil
}

// oracleKey returns the configured coordinator key, or the one stored in the
// datadir, creating it at first run.
func (c *Config) oracleKey() (*ecdsa.PrivateKey, error) {
	if len(c.OracleKey) > 0 {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(c.OracleKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid oracle key: %w", err)
		}
		return key, nil
	}

	keyFile := filepath.Join(c.Datadir, oracleKeyFile)
	key, err := crypto.LoadECDSA(keyFile)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load oracle key: %w", err)
	}

	key, err = crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate oracle key: %w", err)
	}
	if err := crypto.SaveECDSA(keyFile, key); err != nil {
		return nil, fmt.Errorf("failed to store oracle key: %w", err)
	}
	log.Infof(
		"generated coordinator key for %s at %s",
		crypto.PubkeyToAddress(key.PublicKey).Hex(), keyFile,
	)
	return key, nil
}

func (c *Config) contentStoreService() error {
	var svc ports.ContentStore
	var err error
	switch c.ContentStoreType {
	case "local":
		svc, err = localstore.NewContentStore(c.Datadir, c.badgerLogger())
	case "pinata":
		svc, err = pinatastore.NewContentStore(c.PinataApiUrl, c.IpfsGatewayUrl, c.PinataJwt)
	case "gcs":
		svc, err = gcsstore.NewContentStore(
			context.Background(), c.GcsBucket, c.GcsCredentialsFile,
		)
	default:
		err = fmt.Errorf("unknown content store type")
	}
	if err != nil {
		return err
	}

	c.contentStore = svc
	return nil
}

func (c *Config) appService() error {
	metadataReferences, err := c.metadataReferences()
	if err != nil {
		return err
	}

	svc, err := application.NewService(
		c.repo, c.oracle, c.alerts, c.categories, c.OracleConsumer,
		c.mintFee, metadataReferences,
	)
	if err != nil {
		return err
	}

	c.svc = svc
	return nil
}

// metadataReferences resolves the references used to initialize the
// collection: uploaded assets first, then the token uris file, then the
// defaults.
func (c *Config) metadataReferences() ([]string, error) {
	if len(c.UploadAssets) > 0 {
		initialized, err := c.isCollectionInitialized()
		if err != nil {
			return nil, err
		}
		if initialized {
			log.Info("collection already initialized, skipping upload of assets")
			return nil, nil
		}

		assembler, err := c.AssemblerService()
		if err != nil {
			return nil, err
		}
		log.Infof("uploading assets from %s...", c.UploadAssets)
		return assembler.Assemble(context.Background(), os.DirFS(c.UploadAssets))
	}

	if len(c.TokenUrisFile) > 0 {
		return LoadTokenUris(c.TokenUrisFile)
	}

	return DefaultTokenUris, nil
}

func (c *Config) isCollectionInitialized() (bool, error) {
	collection, err := c.repo.Mints().GetCollection(context.Background())
	if err != nil {
		return false, fmt.Errorf("failed to get collection from db: %w", err)
	}
	return collection != nil && collection.Initialized, nil
}

func (c *Config) alertsService() error {
	if c.AlertManagerURL == "" {
		return nil
	}

	c.alerts = alertsmanager.NewService(c.AlertManagerURL, c.IpfsGatewayUrl)
	return nil
}

// LoadTokenUris reads the tokenUris list of a json or yaml file.
func LoadTokenUris(path string) ([]string, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read token uris file: %w", err)
	}
	tokenUris := v.GetStringSlice("tokenUris")
	if len(tokenUris) <= 0 {
		return nil, fmt.Errorf("no tokenUris found in %s", path)
	}
	return tokenUris, nil
}

func parseHash(str string) (common.Hash, error) {
	buf := common.FromHex(str)
	if len(buf) != common.HashLength {
		return common.Hash{}, fmt.Errorf("must be %d bytes", common.HashLength)
	}
	return common.BytesToHash(buf), nil
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}
