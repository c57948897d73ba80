package cmd

import (
	"database/sql"
	"ghooey/domain/config"
	"ghooey/infrastructure/chain"
	"ghooey/infrastructure/dbhandler"
	"ghooey/interface/repository"
	"ghooey/usecase"
	"log"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
)

func defaultDependencyInject() {
	var err error

	// The operation journal is optional; without a database every flow still
	// runs, it just leaves no records behind.
	var operationRepository *repository.OperationRepository
	var memoRepository *repository.MemoRepository
	if dbURI := config.GetDbUri(); dbURI != "" {
		dbPool, err = sql.Open("postgres", dbURI)
		if err != nil {
			log.Fatal(err)
		}
		dbPool.SetMaxOpenConns(20)
		dbPool.SetMaxIdleConns(5)
		dbPool.SetConnMaxIdleTime(1 * time.Minute)
		dbPool.SetConnMaxLifetime(4 * time.Hour)

		dbHandler := dbhandler.DBHandler{DB: dbPool, MaxRetry: config.GetMaxRetry()}
		operationRepository = repository.NewOperationRepository(dbHandler)
		memoRepository = repository.NewMemoRepository(dbHandler)
	}

	rpcClient, err = ethclient.Dial(config.GetRpcUrl())
	if err != nil {
		log.Fatal("Unable to connect to the rpc endpoint: ", err)
	}
	wsClient, err = ethclient.Dial(config.GetWsUrl())
	if err != nil {
		log.Fatal("Unable to connect to the websocket endpoint: ", err)
	}

	keyedWallet = chain.NewKeyedWallet(config.GetWalletPrivateKey(), config.GetChainId(), rpcClient)
	poolContract := chain.NewPoolContract(rpcClient, config.GetPoolAddress(), config.GetChainId())
	erc20Contract := chain.NewErc20Contract()
	balanceReader := chain.NewBalanceReader(rpcClient, config.GetWalletBalanceProviderAddress())
	marketReader := chain.NewMarketDataReader(rpcClient,
		config.GetPoolDataProviderAddress(), config.GetOracleAddress(), config.GetPoolAddress())
	subscriber := chain.NewWsSubscriber(wsClient)

	notifierInteractor = usecase.NewNotifierInteractor()
	executor := usecase.NewBatchExecutor(keyedWallet)

	supplyInteractor = usecase.NewSupplyInteractor(poolContract, keyedWallet, executor, operationRepository, notifierInteractor)
	borrowInteractor = usecase.NewBorrowInteractor(poolContract, executor, operationRepository, notifierInteractor)
	repayInteractor = usecase.NewRepayInteractor(poolContract, keyedWallet, executor, operationRepository, notifierInteractor)
	withdrawInteractor = usecase.NewWithdrawInteractor(poolContract, executor, operationRepository, notifierInteractor)
	transferInteractor = usecase.NewTransferInteractor(erc20Contract, executor, operationRepository, notifierInteractor)
	delegationInteractor = usecase.NewDelegationInteractor(poolContract, keyedWallet, executor, operationRepository, notifierInteractor)

	accountInteractor = usecase.NewAccountInteractor(keyedWallet, balanceReader, marketReader)
	marketsInteractor = usecase.NewMarketsInteractor(marketReader)
	watcherInteractor = usecase.NewWatcherInteractor(subscriber, accountInteractor, marketsInteractor,
		notifierInteractor, memoRepository, config.GetPoolAddress())
	accountInteractor.SetWatcher(watcherInteractor)
}

var dbPool *sql.DB
var rpcClient *ethclient.Client
var wsClient *ethclient.Client
var keyedWallet *chain.KeyedWallet
var supplyInteractor *usecase.SupplyInteractor
var borrowInteractor *usecase.BorrowInteractor
var repayInteractor *usecase.RepayInteractor
var withdrawInteractor *usecase.WithdrawInteractor
var transferInteractor *usecase.TransferInteractor
var delegationInteractor *usecase.DelegationInteractor
var accountInteractor *usecase.AccountInteractor
var marketsInteractor *usecase.MarketsInteractor
var watcherInteractor *usecase.WatcherInteractor
var notifierInteractor *usecase.NotifierInteractor
