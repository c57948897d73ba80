/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"ghooey/domain"
	"ghooey/domain/config"
	"ghooey/domain/util"
	"ghooey/interface/exporter"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var quit = make(chan bool)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Starts watching and serving the wallet",
	Long: `Connects the keyed wallet, registers contract event watchers and keeps
balances, portfolio and the market listing fresh until stopped.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("start called.")

		config.ReadConfig(configFile)

		defaultDependencyInject()

		exporter.Init()
		go serveMetrics()
		go consumeNotifications()

		accountInteractor.Init(context.Background())

		refreshTicker := schedule(refresh, config.GetRefreshInterval(), quit)
		marketsTicker := schedule(markets, config.GetMarketsInterval(), quit)

		signal.Ignore()
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		s := <-stop
		log.Printf("Got signal '%v', stopping", s)

		refreshTicker.Stop()
		marketsTicker.Stop()
		watcherInteractor.Unwatch()
		notifierInteractor.Close()
	},
}

func schedule(task func(), interval time.Duration, done chan bool) *time.Ticker {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {

			case <-ticker.C:
				ticker.Stop()
				task()
				ticker.Reset(interval)

			case <-done:
				return
			}
		}
	}()
	return ticker
}

func refresh() {
	ctx := context.Background()

	if err := accountInteractor.FetchAssets(ctx); err != nil {
		fmt.Printf("❌ Balance refresh failed - %v\n", err.Error())
	}
	if err := accountInteractor.GetPortfolio(ctx); err != nil {
		fmt.Printf("❌ Portfolio refresh failed - %v\n", err.Error())
		return
	}

	snapshot := accountInteractor.Snapshot()
	if snapshot.Portfolio != nil {
		fmt.Printf("💼 collateral %v, borrows %v, health factor %v\n",
			util.UsdString(snapshot.Portfolio.TotalCollateral),
			util.UsdString(snapshot.Portfolio.TotalBorrows),
			snapshot.Portfolio.HealthFactor)
	}
}

func markets() {
	if err := marketsInteractor.Refresh(context.Background()); err != nil {
		fmt.Printf("❌ Markets refresh failed - %v\n", err.Error())
	}
}

func serveMetrics() {
	http.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(config.GetMetricsAddress(), nil); err != nil {
		log.Printf("🔴 metrics endpoint down - %v\n", err.Error())
	}
}

func consumeNotifications() {
	for notification := range notifierInteractor.Subscribe() {
		switch notification.Name {
		case domain.NotifyERC20Transfer:
			fmt.Printf("🔔 transfer %v of %v\n",
				notification.Direction, util.TokenString(notification.Amount, notification.Symbol))
		default:
			fmt.Printf("🔔 %v of %v\n",
				notification.Name, util.TokenString(notification.Amount, notification.Symbol))
		}
	}
}

func init() {
	rootCmd.AddCommand(startCmd)

	// Here you will define your flags and configuration settings.

	// Cobra supports Persistent Flags which will work for this command
	// and all subcommands, e.g.:
	// startCmd.PersistentFlags().String("foo", "", "A help for foo")

	// Cobra supports local flags which will only run when this command
	// is called directly, e.g.:
	// startCmd.Flags().BoolP("toggle", "t", false, "Help message for toggle")
}
