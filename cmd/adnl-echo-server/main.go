// Command adnl-echo-server listens on a TCP address, accepts ADNL
// handshakes for one identity, and echoes every payload it receives back
// to the sender.
package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/it2konst/goadnl/adnl"
	"github.com/it2konst/goadnl/internal/logging"
	"github.com/spf13/cobra"
)

const defaultInsecureKeyHex = "69734189c0348245a70eb5335e12bfd75dd4cffc42baf32773e8f994ff5cf7c2"

func main() {
	var (
		listenAddr string
		keyHex     string
		logLevel   string
	)

	root := &cobra.Command{
		Use:   "adnl-echo-server",
		Short: "Accept one ADNL identity and echo back every payload received",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New(logLevel)

			seedBytes, err := hex.DecodeString(keyHex)
			if err != nil || len(seedBytes) != 32 {
				return fmt.Errorf("KEY must be 32 bytes of hex: %w", err)
			}
			var seed [32]byte
			copy(seed[:], seedBytes)
			private := adnl.NewPrivateKeyFromSeed(seed)
			public := private.Public()
			address := public.Address()

			log.Info("identity", logging.KeyAddress, hex.EncodeToString(address[:]))
			fmt.Printf("Public key is: %x\n", public)
			fmt.Printf("Address is: %x\n", address)

			listener, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			defer listener.Close()
			log.Info("listening", logging.KeyLocalAddr, listener.Addr().String())

			resolver := func(addr adnl.Address) (adnl.PrivateKey, bool) {
				if addr == address {
					return private, true
				}
				return adnl.PrivateKey{}, false
			}

			for {
				conn, err := listener.Accept()
				if err != nil {
					return fmt.Errorf("accept: %w", err)
				}
				go serve(conn, resolver, log)
			}
		},
	}

	root.Flags().StringVarP(&listenAddr, "listen", "l", "127.0.0.1:8080", "address to listen on")
	root.Flags().StringVarP(&keyHex, "key", "k", defaultInsecureKeyHex, "hex-encoded Ed25519 seed (insecure default for local testing)")
	root.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(conn net.Conn, resolver adnl.KeyResolver, log *slog.Logger) {
	defer conn.Close()

	peer, err := adnl.HandleHandshake(conn, resolver)
	if err != nil {
		log.Error("handshake failed", logging.KeyRemoteAddr, conn.RemoteAddr().String(), logging.KeyError, err)
		return
	}
	log.Info("handshake complete", logging.KeyRemoteAddr, conn.RemoteAddr().String())

	for {
		payload, err := peer.Next()
		if err != nil {
			log.Info("session closed", logging.KeyRemoteAddr, conn.RemoteAddr().String(), logging.KeyError, err)
			return
		}
		if err := peer.Send(payload); err != nil {
			log.Error("send failed", logging.KeyRemoteAddr, conn.RemoteAddr().String(), logging.KeyError, err)
			return
		}
	}
}
