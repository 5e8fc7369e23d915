package cmd

import (
	"bufio"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// configureCmd captures the settings the server refuses to start
// without: which store backend to use, the hosted service URL + access
// key for the rest backend, and a session signing key.
var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Capture the store settings and session signing key",
	Run: func(cmd *cobra.Command, args []string) {
		reader := bufio.NewReader(os.Stdin)

		backend := prompt(reader, fmt.Sprintf("Store backend [rest/sqlite] (%v): ", valueOrDefault(config.GetString("store.backend"), "sqlite")))
		if backend != "" {
			if backend != "rest" && backend != "sqlite" {
				cobra.CheckErr(formattedError("unknown backend %q; expected 'rest' or 'sqlite'", backend))
			}
			config.Set("store.backend", backend)
		}

		if config.GetString("store.backend") == "rest" {
			serviceURL := prompt(reader, "Hosted service URL: ")
			if serviceURL != "" {
				config.Set("store.rest.url", serviceURL)
			}

			accessKey := prompt(reader, "Service access key: ")
			if accessKey != "" {
				config.Set("store.rest.accessKey", accessKey)
			}

			if config.GetString("store.rest.url") == "" || config.GetString("store.rest.accessKey") == "" {
				cobra.CheckErr(formattedError("the rest backend needs both the service URL and the access key"))
			}
		}

		if config.GetString("registro.privateKeyPem") == "" {
			fmt.Println("Generating session signing key...")
			pemString, err := generateSigningKeyPem()
			cobra.CheckErr(err)
			config.Set("registro.privateKeyPem", pemString)
		}

		cobra.CheckErr(config.WriteConfigAs(config.ConfigFileUsed()))
		fmt.Println("Configuration saved to", config.ConfigFileUsed())
	},
}

func init() {
	rootCmd.AddCommand(configureCmd)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func valueOrDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func generateSigningKeyPem() (string, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return "", err
	}

	keyBytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return "", err
	}

	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyBytes})
	return string(pemBytes), nil
}
