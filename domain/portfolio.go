package domain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ReserveData is the humanized state of one reserve market. Rates are in
// basis points, prices in the market reference currency (8 decimals on Aave
// deployments).
type ReserveData struct {
	Underlying            common.Address
	Symbol                string
	Decimals              uint8
	LiquidityRate         string
	VariableBorrowRate    string
	PriceInMarketRef      *big.Int
	AvailableLiquidity    *big.Int
	TotalDebt             *big.Int
	BorrowCap             *big.Int
	LtvBps                uint16
	LiquidationThresholdBps uint16
	EModeCategoryId       uint8
	IsActive              bool
	IsFrozen              bool
	IsPaused              bool
	BorrowingEnabled      bool
	BorrowableInIsolation bool
}

type BaseCurrencyData struct {
	MarketRefDecimals     uint8
	MarketRefPriceInUsd   *big.Int
}

type ReservesData struct {
	Reserves     []ReserveData
	BaseCurrency BaseCurrencyData
}

// UserReserveData is one position of the user: current aToken balance and
// current variable debt, in the token's native decimals.
type UserReserveData struct {
	Underlying             common.Address
	ATokenBalance          *big.Int
	VariableDebt           *big.Int
	UsageAsCollateralEnabled bool
}

type UserReservesData struct {
	Positions       []UserReserveData
	EModeCategoryId uint8
}

// PositionSummary is one formatted line of the portfolio.
type PositionSummary struct {
	Symbol            string
	Supplied          string
	Borrowed          string
	UsageAsCollateral bool
}

// PortfolioSummary is the formatted view of the user's standing in the
// market reference currency. Values are decimal strings, the way markup
// consumes them.
type PortfolioSummary struct {
	TotalLiquidity   string
	TotalCollateral  string
	TotalBorrows     string
	AvailableBorrows string
	HealthFactor     string
	CollateralUsage  string
	EModeCategoryId  uint8
	Positions        []PositionSummary
}

// CollateralUsage derives borrowed value over total borrowing capacity.
// A zero denominator yields "0", never a division fault.
func CollateralUsage(totalBorrows, availableBorrows *big.Rat) string {
	capacity := new(big.Rat).Add(totalBorrows, availableBorrows)
	if capacity.Sign() == 0 {
		return "0"
	}
	usage := new(big.Rat).Quo(totalBorrows, capacity)
	return FormatRat(usage, 18)
}

// FormatRat renders a rational as a plain decimal string with trailing zeros
// trimmed; integers come out bare ("0", "2"), fractions keep their digits
// ("0.5").
func FormatRat(value *big.Rat, precision int) string {
	text := value.FloatString(precision)
	if !strings.Contains(text, ".") {
		return text
	}
	text = strings.TrimRight(text, "0")
	text = strings.TrimSuffix(text, ".")
	if text == "" || text == "-" {
		return "0"
	}
	return text
}

// SummarizePortfolio folds reserve data and user positions into the formatted
// summary. All math runs in the market reference currency via big.Rat.
func SummarizePortfolio(reserves *ReservesData, user *UserReservesData) *PortfolioSummary {
	totalLiquidity := new(big.Rat)
	totalCollateral := new(big.Rat)
	totalBorrows := new(big.Rat)
	weightedLtv := new(big.Rat)
	weightedThreshold := new(big.Rat)

	bySymbol := make(map[common.Address]ReserveData, len(reserves.Reserves))
	for _, reserve := range reserves.Reserves {
		bySymbol[reserve.Underlying] = reserve
	}

	positions := make([]PositionSummary, 0, len(user.Positions))
	for _, position := range user.Positions {
		reserve, exist := bySymbol[position.Underlying]
		if !exist {
			continue
		}

		supplied := refValue(position.ATokenBalance, reserve)
		borrowed := refValue(position.VariableDebt, reserve)

		totalLiquidity.Add(totalLiquidity, supplied)
		totalBorrows.Add(totalBorrows, borrowed)

		if position.UsageAsCollateralEnabled {
			totalCollateral.Add(totalCollateral, supplied)
			weightedLtv.Add(weightedLtv, mulBps(supplied, reserve.LtvBps))
			weightedThreshold.Add(weightedThreshold, mulBps(supplied, reserve.LiquidationThresholdBps))
		}

		if position.ATokenBalance.Sign() != 0 || position.VariableDebt.Sign() != 0 {
			positions = append(positions, PositionSummary{
				Symbol:            reserve.Symbol,
				Supplied:          NormalizeAmount(position.ATokenBalance, reserve.Decimals),
				Borrowed:          NormalizeAmount(position.VariableDebt, reserve.Decimals),
				UsageAsCollateral: position.UsageAsCollateralEnabled,
			})
		}
	}

	availableBorrows := new(big.Rat).Sub(weightedLtv, totalBorrows)
	if availableBorrows.Sign() < 0 {
		availableBorrows.SetInt64(0)
	}

	healthFactor := "-1"
	if totalBorrows.Sign() != 0 {
		healthFactor = FormatRat(new(big.Rat).Quo(weightedThreshold, totalBorrows), 18)
	}

	return &PortfolioSummary{
		TotalLiquidity:   FormatRat(totalLiquidity, 8),
		TotalCollateral:  FormatRat(totalCollateral, 8),
		TotalBorrows:     FormatRat(totalBorrows, 8),
		AvailableBorrows: FormatRat(availableBorrows, 8),
		HealthFactor:     healthFactor,
		CollateralUsage:  CollateralUsage(totalBorrows, availableBorrows),
		EModeCategoryId:  user.EModeCategoryId,
		Positions:        positions,
	}
}

// AssetBorrowable applies the reserve eligibility rules: the market must be
// live and borrowing-enabled, eMode users may only borrow inside their
// category, isolation-mode users only isolation-listed assets.
func AssetBorrowable(reserve ReserveData, user *PortfolioSummary, inIsolationMode bool) bool {
	if !reserve.BorrowingEnabled || !reserve.IsActive || reserve.IsFrozen || reserve.IsPaused {
		return false
	}
	if user != nil && user.EModeCategoryId != 0 && reserve.EModeCategoryId != user.EModeCategoryId {
		return false
	}
	if inIsolationMode && !reserve.BorrowableInIsolation {
		return false
	}
	return true
}

func refValue(raw *big.Int, reserve ReserveData) *big.Rat {
	if raw == nil || raw.Sign() == 0 {
		return new(big.Rat)
	}
	value := new(big.Rat).SetInt(raw)
	value.Quo(value, decimalsRat(reserve.Decimals))
	price := new(big.Rat).SetInt(reserve.PriceInMarketRef)
	price.Quo(price, decimalsRat(8))
	return value.Mul(value, price)
}

func mulBps(value *big.Rat, bps uint16) *big.Rat {
	factor := big.NewRat(int64(bps), 10000)
	return new(big.Rat).Mul(value, factor)
}

func decimalsRat(decimals uint8) *big.Rat {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Rat).SetInt(scale)
}
