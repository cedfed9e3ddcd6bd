// Command node runs a single overlay chat participant: it listens on a
// port, optionally bootstraps through a known peer, and exposes an
// interactive prompt for inspecting neighbours and sending chat.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	overlay "github.com/mg98/p2p-messenger"
	"github.com/mg98/p2p-messenger/config"
	"github.com/mg98/p2p-messenger/wire"
	"github.com/sirupsen/logrus"
)

func main() {
	port := flag.Int("port", 0, "listen port (defaults to config's default_port)")
	bootstrap := flag.String("b", "", "bootstrap peer address as host:port")
	configPath := flag.String("config", "config.yml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	if *port != 0 {
		cfg.DefaultPort = uint16(*port)
	}

	logger, logFile := newLogger()
	if logFile != nil {
		defer logFile.Close()
	}

	host := overlay.Address{IP: cfg.DefaultIP, Port: cfg.DefaultPort}
	n, err := overlay.New(cfg, host, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize node")
	}

	if err := n.Listen(); err != nil {
		logger.WithError(err).Fatal("failed to listen")
	}
	logger.WithFields(logrus.Fields{
		"peer_id": n.PeerID(),
		"addr":    n.Address(),
	}).Info("node listening")

	if *bootstrap != "" {
		addr, err := parseAddress(*bootstrap)
		if err != nil {
			logger.WithError(err).Fatal("invalid bootstrap address")
		}
		go n.Bootstrap(addr)
	} else if cfg.BootstrapConfig.IP != "" {
		go n.Bootstrap(overlay.Address{IP: cfg.BootstrapConfig.IP, Port: cfg.BootstrapConfig.Port})
	}

	go printEvents(n, logger)
	runPrompt(n, logger)

	n.Shutdown()
}

func newLogger() (*logrus.Logger, *os.File) {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	if err := os.MkdirAll("logs", 0o755); err != nil {
		logger.WithError(err).Warn("could not create logs directory, logging to stdout only")
		return logger, nil
	}

	path := fmt.Sprintf("logs/%s.log", time.Now().Format("20060102-150405"))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger.WithError(err).Warn("could not open log file, logging to stdout only")
		return logger, nil
	}

	logger.SetOutput(io.MultiWriter(os.Stdout, f))
	return logger, f
}

func printEvents(n *overlay.Node, logger *logrus.Logger) {
	for ev := range n.Events() {
		switch ev.Type {
		case overlay.EventMessage:
			fmt.Printf("\n%s: %s\n> ", ev.Peer, ev.Body)
		case overlay.EventPeerUp:
			logger.WithField("peer", ev.Peer).Info("neighbour up")
		case overlay.EventPeerDown:
			logger.WithField("peer", ev.Peer).Info("neighbour down")
		}
	}
}

func runPrompt(n *overlay.Node, logger *logrus.Logger) {
	fmt.Print("> ")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "neighbours":
			outbound, inbound := n.Neighbours()
			fmt.Printf("outbound: %v\ninbound: %v\n", outbound, inbound)
		case strings.HasPrefix(line, "post "):
			handlePost(n, logger, strings.TrimPrefix(line, "post "))
		case line == "":
		default:
			fmt.Println("commands: neighbours | post <peer-id> <message>")
		}
		fmt.Print("> ")
	}
	if err := scanner.Err(); err != nil {
		logger.WithError(err).Error("reading standard input")
	}
}

func handlePost(n *overlay.Node, logger *logrus.Logger, args string) {
	parts := strings.SplitN(args, " ", 2)
	if len(parts) != 2 {
		fmt.Println("usage: post <peer-id> <message>")
		return
	}
	if err := n.Post(wire.PeerID(parts[0]), parts[1]); err != nil {
		logger.WithError(err).Error("post failed")
	}
}

func parseAddress(s string) (overlay.Address, error) {
	host, portStr, found := strings.Cut(s, ":")
	if !found {
		return overlay.Address{}, fmt.Errorf("expected host:port, got %q", s)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return overlay.Address{}, fmt.Errorf("invalid port in %q: %w", s, err)
	}
	return overlay.Address{IP: host, Port: uint16(port)}, nil
}
