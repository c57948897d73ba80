package chain

import (
	"context"
	"fmt"
	"ghooey/domain"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

const dataProviderAbiJson = `[
	{"type":"function","name":"getReserveConfigurationData","inputs":[{"name":"asset","type":"address"}],
		"outputs":[
			{"name":"decimals","type":"uint256"},
			{"name":"ltv","type":"uint256"},
			{"name":"liquidationThreshold","type":"uint256"},
			{"name":"liquidationBonus","type":"uint256"},
			{"name":"reserveFactor","type":"uint256"},
			{"name":"usageAsCollateralEnabled","type":"bool"},
			{"name":"borrowingEnabled","type":"bool"},
			{"name":"stableBorrowRateEnabled","type":"bool"},
			{"name":"isActive","type":"bool"},
			{"name":"isFrozen","type":"bool"}],"stateMutability":"view"},
	{"type":"function","name":"getReserveData","inputs":[{"name":"asset","type":"address"}],
		"outputs":[
			{"name":"unbacked","type":"uint256"},
			{"name":"accruedToTreasuryScaled","type":"uint256"},
			{"name":"totalAToken","type":"uint256"},
			{"name":"totalStableDebt","type":"uint256"},
			{"name":"totalVariableDebt","type":"uint256"},
			{"name":"liquidityRate","type":"uint256"},
			{"name":"variableBorrowRate","type":"uint256"},
			{"name":"stableBorrowRate","type":"uint256"},
			{"name":"averageStableBorrowRate","type":"uint256"},
			{"name":"liquidityIndex","type":"uint256"},
			{"name":"variableBorrowIndex","type":"uint256"},
			{"name":"lastUpdateTimestamp","type":"uint40"}],"stateMutability":"view"},
	{"type":"function","name":"getReserveCaps","inputs":[{"name":"asset","type":"address"}],
		"outputs":[
			{"name":"borrowCap","type":"uint256"},
			{"name":"supplyCap","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"getPaused","inputs":[{"name":"asset","type":"address"}],
		"outputs":[{"name":"isPaused","type":"bool"}],"stateMutability":"view"},
	{"type":"function","name":"getReserveEModeCategory","inputs":[{"name":"asset","type":"address"}],
		"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"getBorrowableInIsolation","inputs":[{"name":"asset","type":"address"}],
		"outputs":[{"name":"","type":"bool"}],"stateMutability":"view"},
	{"type":"function","name":"getUserReserveData","inputs":[
			{"name":"asset","type":"address"},
			{"name":"user","type":"address"}],
		"outputs":[
			{"name":"currentATokenBalance","type":"uint256"},
			{"name":"currentStableDebt","type":"uint256"},
			{"name":"currentVariableDebt","type":"uint256"},
			{"name":"principalStableDebt","type":"uint256"},
			{"name":"scaledVariableDebt","type":"uint256"},
			{"name":"stableBorrowRate","type":"uint256"},
			{"name":"liquidityRate","type":"uint256"},
			{"name":"usageAsCollateralEnabled","type":"bool"}],"stateMutability":"view"}
]`

const oracleAbiJson = `[
	{"type":"function","name":"getAssetsPrices","inputs":[{"name":"assets","type":"address[]"}],
		"outputs":[{"name":"","type":"uint256[]"}],"stateMutability":"view"}
]`

const userEModeAbiJson = `[
	{"type":"function","name":"getUserEMode","inputs":[{"name":"user","type":"address"}],
		"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"}
]`

var (
	ErrorMarketDataShape = fmt.Errorf("unexpected market data output")

	dataProviderAbi = mustParseAbi(dataProviderAbiJson)
	oracleAbi       = mustParseAbi(oracleAbiJson)
	userEModeAbi    = mustParseAbi(userEModeAbiJson)
)

// Market reference prices carry 8 decimals on Aave deployments.
const marketRefDecimals = 8

// MarketDataReader assembles the humanized reserve and position views from
// the protocol data provider, the price oracle and the pool, one tracked
// token at a time.
type MarketDataReader struct {
	client       *ethclient.Client
	dataProvider common.Address
	oracle       common.Address
	pool         common.Address
}

func NewMarketDataReader(client *ethclient.Client,
	dataProvider common.Address,
	oracle common.Address,
	pool common.Address) *MarketDataReader {
	return &MarketDataReader{
		client:       client,
		dataProvider: dataProvider,
		oracle:       oracle,
		pool:         pool,
	}
}

func (reader *MarketDataReader) Reserves(ctx context.Context) (*domain.ReservesData, error) {
	symbols := domain.TrackedSymbols()

	underlyings := make([]common.Address, len(symbols))
	for i, symbol := range symbols {
		token, _ := domain.AssetBySymbol(symbol)
		underlyings[i] = token.Underlying
	}

	prices, err := reader.assetPrices(ctx, underlyings)
	if err != nil {
		return nil, err
	}

	reserves := make([]domain.ReserveData, 0, len(symbols))
	for i, symbol := range symbols {
		token, _ := domain.AssetBySymbol(symbol)
		reserve, err := reader.readReserve(ctx, token)
		if err != nil {
			return nil, err
		}
		reserve.PriceInMarketRef = prices[i]
		reserves = append(reserves, *reserve)
	}

	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(marketRefDecimals), nil)
	return &domain.ReservesData{
		Reserves: reserves,
		BaseCurrency: domain.BaseCurrencyData{
			MarketRefDecimals:   marketRefDecimals,
			MarketRefPriceInUsd: unit,
		},
	}, nil
}

func (reader *MarketDataReader) readReserve(ctx context.Context, token domain.TokenInfo) (*domain.ReserveData, error) {
	config, err := reader.call(ctx, reader.dataProvider, dataProviderAbi, "getReserveConfigurationData", token.Underlying)
	if err != nil {
		return nil, err
	}
	state, err := reader.call(ctx, reader.dataProvider, dataProviderAbi, "getReserveData", token.Underlying)
	if err != nil {
		return nil, err
	}
	caps, err := reader.call(ctx, reader.dataProvider, dataProviderAbi, "getReserveCaps", token.Underlying)
	if err != nil {
		return nil, err
	}
	paused, err := reader.call(ctx, reader.dataProvider, dataProviderAbi, "getPaused", token.Underlying)
	if err != nil {
		return nil, err
	}
	emode, err := reader.call(ctx, reader.dataProvider, dataProviderAbi, "getReserveEModeCategory", token.Underlying)
	if err != nil {
		return nil, err
	}
	isolation, err := reader.call(ctx, reader.dataProvider, dataProviderAbi, "getBorrowableInIsolation", token.Underlying)
	if err != nil {
		return nil, err
	}

	totalAToken := asBig(state[2])
	totalDebt := new(big.Int).Add(asBig(state[3]), asBig(state[4]))
	available := new(big.Int).Sub(totalAToken, totalDebt)
	if available.Sign() < 0 {
		available = big.NewInt(0)
	}

	return &domain.ReserveData{
		Underlying:              token.Underlying,
		Symbol:                  token.Symbol,
		Decimals:                token.Decimals,
		LiquidityRate:           rayToPercent(asBig(state[5])),
		VariableBorrowRate:      rayToPercent(asBig(state[6])),
		AvailableLiquidity:      available,
		TotalDebt:               totalDebt,
		BorrowCap:               asBig(caps[0]),
		LtvBps:                  uint16(asBig(config[1]).Uint64()),
		LiquidationThresholdBps: uint16(asBig(config[2]).Uint64()),
		EModeCategoryId:         uint8(asBig(emode[0]).Uint64()),
		IsActive:                asBool(config[8]),
		IsFrozen:                asBool(config[9]),
		IsPaused:                asBool(paused[0]),
		BorrowingEnabled:        asBool(config[6]),
		BorrowableInIsolation:   asBool(isolation[0]),
	}, nil
}

func (reader *MarketDataReader) UserReserves(ctx context.Context, account common.Address) (*domain.UserReservesData, error) {
	positions := make([]domain.UserReserveData, 0)

	for _, symbol := range domain.TrackedSymbols() {
		token, _ := domain.AssetBySymbol(symbol)
		values, err := reader.call(ctx, reader.dataProvider, dataProviderAbi, "getUserReserveData", token.Underlying, account)
		if err != nil {
			return nil, err
		}

		positions = append(positions, domain.UserReserveData{
			Underlying:               token.Underlying,
			ATokenBalance:            asBig(values[0]),
			VariableDebt:             asBig(values[2]),
			UsageAsCollateralEnabled: asBool(values[7]),
		})
	}

	emode, err := reader.call(ctx, reader.pool, userEModeAbi, "getUserEMode", account)
	if err != nil {
		return nil, err
	}

	return &domain.UserReservesData{
		Positions:       positions,
		EModeCategoryId: uint8(asBig(emode[0]).Uint64()),
	}, nil
}

func (reader *MarketDataReader) assetPrices(ctx context.Context, assets []common.Address) ([]*big.Int, error) {
	values, err := reader.call(ctx, reader.oracle, oracleAbi, "getAssetsPrices", assets)
	if err != nil {
		return nil, err
	}
	prices, ok := values[0].([]*big.Int)
	if !ok || len(prices) != len(assets) {
		return nil, ErrorMarketDataShape
	}
	return prices, nil
}

func (reader *MarketDataReader) call(ctx context.Context, to common.Address,
	parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {

	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	output, err := reader.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	return parsed.Unpack(method, output)
}

func asBig(value interface{}) *big.Int {
	result, ok := value.(*big.Int)
	if !ok {
		return big.NewInt(0)
	}
	return result
}

func asBool(value interface{}) bool {
	result, _ := value.(bool)
	return result
}

// rayToPercent turns a ray rate (27 decimals) into a percentage string.
func rayToPercent(rate *big.Int) string {
	percentUnit := new(big.Int).Exp(big.NewInt(10), big.NewInt(25), nil)
	value := new(big.Rat).SetFrac(rate, percentUnit)
	return domain.FormatRat(value, 2)
}
