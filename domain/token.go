package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrorUnknownToken = fmt.Errorf("token is not part of the tracked asset registry")
)

// TokenInfo is the static metadata of one tracked reserve asset.
type TokenInfo struct {
	Symbol           string
	Underlying       common.Address
	AToken           common.Address
	VariableDebtToken common.Address
	Decimals         uint8
}

// Aave V3 Sepolia asset book. The driver only touches tokens listed here;
// everything else on chain is ignored.
var assets = map[string]TokenInfo{
	"DAI": {
		Symbol:            "DAI",
		Underlying:        common.HexToAddress("0xFF34B3d4Aee8ddCd6F9AFFFB6Fe49bD371b8a357"),
		AToken:            common.HexToAddress("0x29598b72eb5CeBd806C5dCD549f93347c265B597"),
		VariableDebtToken: common.HexToAddress("0x22675C506A8FC26447aFFfa33640f6af5d4D4cF0"),
		Decimals:          18,
	},
	"USDC": {
		Symbol:            "USDC",
		Underlying:        common.HexToAddress("0x94a9D9AC8a22534E3FaCa9F4e7F2E2cf85d5E4C8"),
		AToken:            common.HexToAddress("0x16dA4541aD1807f4443d92D26044C1147406EB80"),
		VariableDebtToken: common.HexToAddress("0x36B5dE936eF1710E1d22EabE5231b28581a92ECc"),
		Decimals:          6,
	},
	"USDT": {
		Symbol:            "USDT",
		Underlying:        common.HexToAddress("0xaA8E23Fb1079EA71e0a56F48a2aA51851D8433D0"),
		AToken:            common.HexToAddress("0xAF0F6e8b0Dc5c913bbF4d14c22B4E78Dd14310B6"),
		VariableDebtToken: common.HexToAddress("0x9844386d29EEd970B9F6a2B9a676083b0478210e"),
		Decimals:          6,
	},
	"GHO": {
		Symbol:            "GHO",
		Underlying:        common.HexToAddress("0xc4bF5CbDaBE595361438F8c6a187bDc330539c60"),
		AToken:            common.HexToAddress("0xd190eF37dB51Bb955A680fF1A85763CC72d083D4"),
		VariableDebtToken: common.HexToAddress("0x67ae46EF043F7A4508BD1d6B94DB6c33F0915844"),
		Decimals:          18,
	},
	"WETH": {
		Symbol:            "WETH",
		Underlying:        common.HexToAddress("0xC558DBdd856501FCd9aaF1E62eae57A9F0629a3c"),
		AToken:            common.HexToAddress("0x5b071b590a59395fE4025A0Ccc1FcC931AAc1830"),
		VariableDebtToken: common.HexToAddress("0x22a35DB253f4F6D0029025D6312A3BdAb20C2c6A"),
		Decimals:          18,
	},
	"WBTC": {
		Symbol:            "WBTC",
		Underlying:        common.HexToAddress("0x29f2D40B0605204364af54EC677bD022dA425d03"),
		AToken:            common.HexToAddress("0x1804Bf30507dc2EB3bDEbbbdd859991EAeF6EefF"),
		VariableDebtToken: common.HexToAddress("0xEB016dFd303F19fbDdFb6300eB4AeB2DA7Ceac37"),
		Decimals:          8,
	},
	"LINK": {
		Symbol:            "LINK",
		Underlying:        common.HexToAddress("0xf8Fb3713D459D7C1018BD0A49D19b4C44290EBE5"),
		AToken:            common.HexToAddress("0x3FfAf50D4F4E96eB78f2407c090b72e86eCaed24"),
		VariableDebtToken: common.HexToAddress("0x34a4d932E722b9dFb492B9D8131127690CE2430B"),
		Decimals:          18,
	},
	"AAVE": {
		Symbol:            "AAVE",
		Underlying:        common.HexToAddress("0x88541670E55cC00bEEFD87eB59EDd1b7C511AC9a"),
		AToken:            common.HexToAddress("0x6b8558764d3b7572136F17174Cb9aB1DDc7E1259"),
		VariableDebtToken: common.HexToAddress("0xf12fdFc4c631F6D361b48723c2F2800b84B519e6"),
		Decimals:          18,
	},
}

func Assets() map[string]TokenInfo {
	return assets
}

// TrackedSymbols returns the registry symbols in a stable order, so batch
// balance calls and their results stay index-aligned between invocations.
func TrackedSymbols() []string {
	symbols := make([]string, 0, len(assets))
	for symbol := range assets {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

func AssetBySymbol(symbol string) (TokenInfo, error) {
	token, exist := assets[strings.ToUpper(strings.TrimSpace(symbol))]
	if !exist {
		return TokenInfo{}, ErrorUnknownToken
	}
	return token, nil
}

// AssetByUnderlying resolves a token by its underlying contract address.
// common.Address comparison is canonical bytes, so mixed-case inputs are fine.
func AssetByUnderlying(underlying common.Address) (TokenInfo, error) {
	for _, token := range assets {
		if token.Underlying == underlying {
			return token, nil
		}
	}
	return TokenInfo{}, ErrorUnknownToken
}
