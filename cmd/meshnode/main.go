// meshnode is the node daemon: it terminates external HTTP traffic,
// validates incoming blocks and transactions against the in-memory
// consensus state, and dispatches accepted artifacts to the gossip
// bridge.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/gofrs/flock"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"

	"github.com/meshchain/meshnode/internal/blacklist"
	"github.com/meshchain/meshnode/internal/collaborators"
	"github.com/meshchain/meshnode/internal/config"
	"github.com/meshchain/meshnode/internal/httpapi"
	"github.com/meshchain/meshnode/internal/ignoreset"
	"github.com/meshchain/meshnode/internal/keystore"
	"github.com/meshchain/meshnode/internal/log"
	"github.com/meshchain/meshnode/internal/mempool"
	"github.com/meshchain/meshnode/internal/params"
	"github.com/meshchain/meshnode/internal/walletlist"
)

func main() {
	app := &cli.App{
		Name:  "meshnode",
		Usage: "permissionless data-storage chain node",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to TOML config file"},
			&cli.StringFlag{Name: "http-addr", Usage: "HTTP API listen address"},
			&cli.BoolFlag{Name: "json-log", Usage: "emit JSON logs instead of terminal output"},
		},
		Action: runNode,
		Commands: []*cli.Command{
			{
				Name:   "peers",
				Usage:  "list the peers a running node knows about",
				Action: listPeers,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "node", Value: "http://127.0.0.1:1984", Usage: "base URL of the node to query"},
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if addr := c.String("http-addr"); addr != "" {
		cfg.HTTPAddr = addr
	}
	return cfg, nil
}

func runNode(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	var logger log.Logger
	if c.Bool("json-log") {
		logger = log.NewLogger(log.JSONHandler(os.Stderr))
	} else {
		logger = log.NewLogger(log.NewTerminalHandler(os.Stderr, true))
	}
	log.SetDefault(logger)

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	lock := flock.New(filepath.Join(cfg.DataDir, "LOCK"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("locking data dir: %w", err)
	}
	if !locked {
		return fmt.Errorf("data dir %s is in use by another meshnode instance", cfg.DataDir)
	}
	defer lock.Unlock()

	banner := color.New(color.FgCyan, color.Bold)
	banner.Fprintf(os.Stderr, "meshnode %d.%d — network %s\n", params.Version, params.ReleaseNumber, params.NetworkName)

	ks, err := keystore.New()
	if err != nil {
		return err
	}

	mp := mempool.New()
	wl := walletlist.New()
	node := collaborators.NewFakeNode(mp, wl)
	bridge := collaborators.NewFakeBridge()

	deps := httpapi.NewDeps()
	deps.Node = node
	deps.Storage = collaborators.NewFakeStorage()
	deps.TxSearch = collaborators.NewFakeTxSearch()
	deps.Bridge = bridge
	deps.Blacklist = blacklist.New()
	deps.Miner = collaborators.NewFakeMiner()
	deps.BlockBuilder = &collaborators.FakeBlockBuilder{}
	deps.ReplayPool = collaborators.NewFakeReplayPool()
	deps.Wallet = ks
	deps.MetaDB = config.NewStore(cfg)
	deps.Mempool = mp
	deps.WalletList = wl
	deps.IgnoreSet = ignoreset.New(ignoreset.DefaultCapacity)
	deps.Peers = httpapi.NewPeerAccounting(bridge, logger)
	deps.Logger = logger
	if cfg.MaxBodySize > 0 {
		deps.MaxBodySize = cfg.MaxBodySize
	}

	srv := httpapi.NewServer(deps)
	logger.Info("http api listening", "addr", cfg.HTTPAddr)
	return http.ListenAndServe(cfg.HTTPAddr, srv)
}

func listPeers(c *cli.Context) error {
	base := c.String("node")
	resp, err := http.Get(base + "/peers")
	if err != nil {
		return fmt.Errorf("querying %s: %w", base, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("node replied %d: %s", resp.StatusCode, raw)
	}
	var peers []string
	if err := json.Unmarshal(raw, &peers); err != nil {
		return fmt.Errorf("parsing peer list: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Peer"})
	for i, p := range peers {
		table.Append([]string{fmt.Sprintf("%d", i+1), p})
	}
	table.Render()
	return nil
}
