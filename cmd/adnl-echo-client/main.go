// Command adnl-echo-client dials an ADNL server, sends one payload, and
// prints what comes back.
package main

import (
	"encoding/hex"
	"fmt"
	"net"
	"os"

	"github.com/it2konst/goadnl/adnl"
	"github.com/it2konst/goadnl/internal/logging"
	"github.com/spf13/cobra"
)

const defaultServerPublicKeyHex = "b7d8e88f4033eff806e2f5dff3c785be7dd038c923146e2d9fe80e4fe3cb8805"

func main() {
	var (
		serverAddr   string
		publicKeyHex string
		message      string
		logLevel     string
	)

	root := &cobra.Command{
		Use:   "adnl-echo-client",
		Short: "Connect to an ADNL server, send one payload, print the reply",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New(logLevel)

			pubBytes, err := hex.DecodeString(publicKeyHex)
			if err != nil || len(pubBytes) != 32 {
				return fmt.Errorf("public key must be 32 bytes of hex: %w", err)
			}
			var remotePublic adnl.PublicKey
			copy(remotePublic[:], pubBytes)

			conn, err := net.Dial("tcp", serverAddr)
			if err != nil {
				return fmt.Errorf("dial %s: %w", serverAddr, err)
			}
			defer conn.Close()

			peer, err := adnl.Connect(conn, remotePublic)
			if err != nil {
				return fmt.Errorf("adnl connect: %w", err)
			}
			log.Info("handshake complete", logging.KeyRemoteAddr, serverAddr)

			if err := peer.Send([]byte(message)); err != nil {
				return fmt.Errorf("send: %w", err)
			}

			result, err := peer.Next()
			if err != nil {
				return fmt.Errorf("receive: %w", err)
			}

			fmt.Printf("received: %s\n", result)
			return nil
		},
	}

	root.Flags().StringVarP(&serverAddr, "addr", "a", "127.0.0.1:8080", "server address to dial")
	root.Flags().StringVarP(&publicKeyHex, "public-key", "p", defaultServerPublicKeyHex, "hex-encoded server Ed25519 public key")
	root.Flags().StringVarP(&message, "message", "m", "hello", "payload to send")
	root.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
