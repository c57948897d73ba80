package config

import (
	"crypto/ecdsa"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/viper"
)

const (
	MainNetwork = "mainnet"
	TestNetwork = "testnet"
)

var (
	ErrorInvalidNetwork = fmt.Errorf("network must be equal to 'mainnet' or 'testnet' only")

	ErrorNoRpcUrl = fmt.Errorf("no rpc_url is defined")
	ErrorNoWsUrl  = fmt.Errorf("no ws_url is defined")

	ErrorNoWalletKey          = fmt.Errorf("no wallet key is defined")
	ErrorWalletKeyConflict    = fmt.Errorf("only one of wallet_key or wallet_key_url must be defined")
	ErrorReadingWalletKeyFile = fmt.Errorf("error in reading wallet key file")
	ErrorInvalidWalletKey     = fmt.Errorf("wallet key is not a valid secp256k1 private key")

	ErrorInvalidRefreshInterval = fmt.Errorf("invalid time interval for account refresh process")
	ErrorInvalidMarketsInterval = fmt.Errorf("invalid time interval for markets refresh process")
)

var (
	TrailingSlashRE = regexp.MustCompile("/+$")
)

var (
	dbUri   string
	network string

	rpcUrl string
	wsUrl  string

	walletKey        string
	walletKeyUrl     string
	walletPrivateKey *ecdsa.PrivateKey

	refreshInterval time.Duration
	marketsInterval time.Duration

	maxRetry       int
	metricsAddress string
)

func ReadConfig(filePath string) {
	viper.SetConfigFile(filePath)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("⚠️ Failed reading config file: %v\n", err.Error())
	}

	err := initializeVariables()
	if err != nil {
		log.Fatalf("Configuration error - %v\n", err.Error())
	}
}

// This method processes the configuration parameters and keeps the processed
// values in some variables for later accesses rapidly.
func initializeVariables() error {
	var err error

	// Database stuff
	dbUri = TrailingSlashRE.ReplaceAllString(viper.GetString("service_db_uri"), "")

	// Network stuff
	network = strings.TrimSpace(strings.ToLower(viper.GetString("network")))
	if strings.Compare(network, MainNetwork) != 0 && strings.Compare(network, TestNetwork) != 0 {
		return ErrorInvalidNetwork
	}

	rpcUrl = strings.TrimSpace(viper.GetString("rpc_url"))
	if rpcUrl == "" {
		return ErrorNoRpcUrl
	}

	wsUrl = strings.TrimSpace(viper.GetString("ws_url"))
	if wsUrl == "" {
		return ErrorNoWsUrl
	}

	// Wallet stuff
	walletKey = strings.TrimSpace(viper.GetString("wallet_key"))
	walletKeyUrl = strings.TrimSpace(viper.GetString("wallet_key_url"))
	if walletKey == "" && walletKeyUrl == "" {
		return ErrorNoWalletKey
	}
	if walletKey != "" && walletKeyUrl != "" {
		return ErrorWalletKeyConflict
	}

	keyHex := walletKey
	if walletKeyUrl != "" {
		keyHex, err = readWalletKeyFile(walletKeyUrl)
		if err != nil {
			return ErrorReadingWalletKeyFile
		}
	}

	walletPrivateKey, err = crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(keyHex), "0x"))
	if err != nil {
		log.Printf("Failed to parse wallet key - %v\n", err.Error())
		return ErrorInvalidWalletKey
	}

	//---------------------------------------------------------------
	// account refresh interval
	strValue := viper.GetString("refresh_interval")
	refreshInterval, err = time.ParseDuration(strValue)
	if err != nil {
		return ErrorInvalidRefreshInterval
	}

	//---------------------------------------------------------------
	// markets refresh interval
	strValue = viper.GetString("markets_interval")
	marketsInterval, err = time.ParseDuration(strValue)
	if err != nil {
		return ErrorInvalidMarketsInterval
	}

	maxRetry = viper.GetInt("max_retry")
	if maxRetry <= 0 {
		maxRetry = 3
	}

	metricsAddress = strings.TrimSpace(viper.GetString("metrics_address"))
	if metricsAddress == "" {
		metricsAddress = ":9090"
	}

	return nil
}

func readWalletKeyFile(filePath string) (string, error) {

	fileContent, err := os.ReadFile(filePath)
	if err != nil {
		log.Printf("Failed to read wallet key file - %v\n", err.Error())
		return "", err
	}

	return string(fileContent), nil
}

//-------------------------------------------------------------------
// Normal configuration values

func GetDbUri() string {
	return dbUri
}

func GetNetwork() string {
	return network
}

func GetRpcUrl() string {
	return rpcUrl
}

func GetWsUrl() string {
	return wsUrl
}

func GetRefreshInterval() time.Duration {
	return refreshInterval
}

func GetMarketsInterval() time.Duration {
	return marketsInterval
}

func GetMaxRetry() int {
	return maxRetry
}

func GetMetricsAddress() string {
	return metricsAddress
}

func GetWalletPrivateKey() *ecdsa.PrivateKey {
	return walletPrivateKey
}

// -------------------------------------------------------------------
// Evaluating values

func IsTestNet() bool {
	return strings.Compare(network, TestNetwork) == 0
}

func GetChainId() int64 {
	if IsTestNet() {
		return 11155111 // sepolia
	}
	return 1
}

// Aave V3 core contract addresses per network.

func GetPoolAddress() common.Address {
	if IsTestNet() {
		return common.HexToAddress("0x6Ae43d3271ff6888e7Fc43Fd7321a503ff738951")
	}
	return common.HexToAddress("0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2")
}

func GetWalletBalanceProviderAddress() common.Address {
	if IsTestNet() {
		return common.HexToAddress("0xCD4e0d6D2b1252E2A709B8aE97DBA31164C5a709")
	}
	return common.HexToAddress("0xC7be5307ba715ce89b152f3Df0658295b3dbA8E2")
}

func GetPoolDataProviderAddress() common.Address {
	if IsTestNet() {
		return common.HexToAddress("0x69529987FA4A075D0C00B0128fa848dc9ebbE9CE")
	}
	return common.HexToAddress("0x194324C9Af7f56E22F1614dD82E18621cb9238E7")
}

func GetOracleAddress() common.Address {
	if IsTestNet() {
		return common.HexToAddress("0x2da88497588bf89281816106C7259e31AF45a663")
	}
	return common.HexToAddress("0x54586bE62E3c3580375aE3723C145253060Ca0C2")
}
